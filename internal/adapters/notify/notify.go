// Package notify delivers digests through an ordered chain of sinks.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// Error kinds returned by sinks.
var (
	ErrNotConfigured      = errors.New("sink not configured")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrUndelivered        = errors.New("no sink delivered the message")
)

// Sink sends a message to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg string) error
}

// Chain tries sinks in order until one succeeds.
type Chain struct {
	sinks   []Sink
	log     logger.Logger
	metrics *metrics.Manager
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ChainOption {
	return func(c *Chain) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records delivery outcomes on m.
func WithMetrics(m *metrics.Manager) ChainOption {
	return func(c *Chain) { c.metrics = m }
}

// NewChain returns a chain over sinks. Nil sinks are dropped.
func NewChain(sinks []Sink, opts ...ChainOption) *Chain {
	c := &Chain{log: logger.Nop()}
	for _, s := range sinks {
		if s != nil {
			c.sinks = append(c.sinks, s)
		}
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sinks returns the sink names in delivery order.
func (c *Chain) Sinks() []string {
	names := make([]string, len(c.sinks))
	for i, s := range c.sinks {
		names[i] = s.Name()
	}
	return names
}

// Deliver sends msg through the first sink that accepts it and returns that sink's name.
// Every failure is logged. ErrUndelivered is returned when all sinks fail or none is configured.
func (c *Chain) Deliver(ctx context.Context, msg string) (string, error) {
	var errs []error
	for _, s := range c.sinks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := s.Send(ctx, msg)
		if err == nil {
			c.metrics.RecordDelivery(s.Name(), true)
			c.log.Info(ctx, "digest delivered", logger.String("sink", s.Name()))
			return s.Name(), nil
		}
		if errors.Is(err, ErrNotConfigured) {
			c.log.Debug(ctx, "sink skipped", logger.String("sink", s.Name()))
		} else {
			c.metrics.RecordDelivery(s.Name(), false)
			c.log.Warn(ctx, "sink failed", logger.String("sink", s.Name()), logger.Error(err))
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	c.log.Error(ctx, "digest not delivered", logger.Int("sinks", len(c.sinks)))
	return "", fmt.Errorf("%w: %w", ErrUndelivered, errors.Join(errs...))
}
