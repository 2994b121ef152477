package notify

import (
	"context"
	"fmt"
	"io"
)

// Writer prints the message, e.g. to stdout when no remote sink is set up.
type Writer struct {
	w io.Writer
}

// NewWriter returns a sink writing to w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Name implements Sink.
func (s *Writer) Name() string { return "stdout" }

// Send implements Sink.
func (s *Writer) Send(_ context.Context, msg string) error {
	if _, err := fmt.Fprintln(s.w, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
