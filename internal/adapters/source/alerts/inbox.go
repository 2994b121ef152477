// Package alerts reads Google Alerts emails from an IMAP inbox.
package alerts

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/pkg/logger"
)

// Defaults matching a Gmail inbox receiving Google Alerts.
const (
	DefaultAddr      = "imap.gmail.com:993"
	DefaultSender    = "googlealerts-noreply@google.com"
	DefaultMailbox   = "INBOX"
	DefaultDaysBack  = 3
	DefaultMaxEmails = 50
	DefaultTimeout   = 30 * time.Second

	fetchBuffer = 10
)

// Dialer opens an IMAP connection.
type Dialer func(addr string) (*client.Client, error)

// Inbox fetches recent alert emails.
type Inbox struct {
	addr      string
	user      string
	password  string
	sender    string
	mailbox   string
	daysBack  int
	maxEmails int
	timeout   time.Duration
	dial      Dialer
	now       func() time.Time
	log       logger.Logger
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithAddr sets the IMAP server address.
func WithAddr(addr string) Option {
	return func(b *Inbox) {
		if addr != "" {
			b.addr = addr
		}
	}
}

// WithSender sets the From address to search for.
func WithSender(s string) Option {
	return func(b *Inbox) {
		if s != "" {
			b.sender = s
		}
	}
}

// WithWindow limits the search to the last days and the newest max messages.
func WithWindow(days, maxEmails int) Option {
	return func(b *Inbox) {
		if days > 0 {
			b.daysBack = days
		}
		if maxEmails > 0 {
			b.maxEmails = maxEmails
		}
	}
}

// WithDialer replaces the TLS dialer.
func WithDialer(d Dialer) Option {
	return func(b *Inbox) {
		if d != nil {
			b.dial = d
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Inbox) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Inbox) {
		if l != nil {
			b.log = l
		}
	}
}

// NewInbox creates an inbox reader for the given account.
func NewInbox(user, password string, opts ...Option) *Inbox {
	b := &Inbox{
		addr:      DefaultAddr,
		user:      user,
		password:  password,
		sender:    DefaultSender,
		mailbox:   DefaultMailbox,
		daysBack:  DefaultDaysBack,
		maxEmails: DefaultMaxEmails,
		timeout:   DefaultTimeout,
		now:       time.Now,
		log:       logger.Nop(),
	}
	b.dial = func(addr string) (*client.Client, error) {
		return client.DialTLS(addr, &tls.Config{MinVersion: tls.VersionTLS12})
	}

	// Apply all options
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Configured reports whether credentials are present.
func (b *Inbox) Configured() bool {
	return b.user != "" && b.password != ""
}

// Fetch returns the alerts with at least one LinkedIn link, oldest first.
func (b *Inbox) Fetch(ctx context.Context) ([]Alert, error) {
	if !b.Configured() {
		return nil, source.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := b.dial(b.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", b.addr, err)
	}
	c.Timeout = b.timeout
	defer func() { _ = c.Logout() }()

	// go-imap has no context support; drop the connection on cancel.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Terminate()
		case <-stop:
		}
	}()

	if err := c.Login(b.user, b.password); err != nil {
		return nil, fmt.Errorf("%w: imap login: %w", source.ErrAuth, err)
	}
	if _, err := c.Select(b.mailbox, true); err != nil {
		return nil, fmt.Errorf("select %s: %w", b.mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = b.now().AddDate(0, 0, -b.daysBack)
	criteria.Header.Add("From", b.sender)
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	b.log.Info(ctx, "alert emails found", logger.Int("count", len(ids)))
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > b.maxEmails {
		ids = ids[len(ids)-b.maxEmails:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, fetchBuffer)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var alerts []Alert
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		a, err := ParseMessage(body)
		if err != nil {
			b.log.Warn(ctx, "skipping alert email", logger.Int("seq", int(msg.SeqNum)), logger.Error(err))
			continue
		}
		if len(a.Links) > 0 {
			alerts = append(alerts, a)
		}
	}
	if err := <-done; err != nil {
		return alerts, fmt.Errorf("fetch: %w", err)
	}
	return alerts, nil
}
