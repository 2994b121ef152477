package alerts

import (
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // non-UTF-8 alert bodies
	"github.com/emersion/go-message/mail"

	"github.com/okian/scout/internal/domain/story"
)

const htmlType = "text/html"

// Alert is one Google Alerts email reduced to its LinkedIn links.
type Alert struct {
	Subject string
	Date    string
	Links   []story.Link
}

// ParseMessage reads an RFC 822 message and extracts links from its first HTML part.
func ParseMessage(r io.Reader) (Alert, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return Alert{}, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	subject, _ := mr.Header.Subject()
	a := Alert{Subject: subject, Date: mr.Header.Get("Date")}

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return a, nil
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return a, fmt.Errorf("read part: %w", err)
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		if ct, _, _ := h.ContentType(); ct != htmlType {
			continue
		}
		links, err := ExtractLinks(p.Body)
		if err != nil {
			return a, fmt.Errorf("parse html: %w", err)
		}
		a.Links = links
		return a, nil
	}
}
