// Package digest renders selected candidates into the text message sent to sinks.
package digest

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/scout/internal/domain/model"
)

// Defaults used by New.
const (
	DefaultDivider  = "\n\n———\n\n"
	DefaultTitle    = "▶️ Swipe-file digest"
	DefaultFallback = "No fresh swipe-file material today."

	hookLen     = 80
	headlineLen = 100
	ellipsis    = "…"
	placeholder = " [...]"
)

// Formatter joins sections and builds the final message.
type Formatter struct {
	divider  string
	title    string
	fallback string
}

// Option applies a configuration option to the Formatter.
type Option func(*Formatter)

// WithDivider sets the text placed between non-empty sections.
func WithDivider(d string) Option {
	return func(f *Formatter) {
		if d != "" {
			f.divider = d
		}
	}
}

// WithTitle sets the message header title.
func WithTitle(t string) Option {
	return func(f *Formatter) {
		if t != "" {
			f.title = t
		}
	}
}

// WithFallback sets the body used when no section produced content.
func WithFallback(s string) Option {
	return func(f *Formatter) {
		if s != "" {
			f.fallback = s
		}
	}
}

// New creates a Formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		divider:  DefaultDivider,
		title:    DefaultTitle,
		fallback: DefaultFallback,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format drops empty blocks and joins the rest with the divider.
// It reports false when nothing is left.
func (f *Formatter) Format(blocks ...string) (string, bool) {
	kept := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, f.divider), true
}

// Message prefixes the dated header; when ok is false the fallback replaces body.
func (f *Formatter) Message(day time.Time, body string, ok bool) string {
	if !ok {
		body = f.fallback
	}
	return fmt.Sprintf("%s (%s)\n\n%s", f.title, day.Format(time.DateOnly), body)
}

// Fallback returns the configured fallback body.
func (f *Formatter) Fallback() string { return f.fallback }

var std = New() //nolint:gochecknoglobals // default formatter

// Format joins blocks with the default divider.
func Format(blocks ...string) (string, bool) { return std.Format(blocks...) }

// Section joins the blocks of one search with blank lines. Empty blocks are skipped
// and an all-empty section renders as "".
func Section(blocks ...string) string {
	kept := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}

// Block renders one candidate.
func Block(sc model.ScoredCandidate) string {
	if sc.Source == model.SourceAd {
		hook := sc.Body
		if strings.TrimSpace(hook) == "" {
			hook = sc.Title
		}
		return fmt.Sprintf("*Promo Play*\n• **Hook:** %s\n• [View Ad](%s)", truncate(collapse(hook), hookLen), sc.URL)
	}
	return fmt.Sprintf("*%s*\n• **%s**\n• [Reddit link](%s)", sc.Category.Title(), Shorten(sc.Title, headlineLen), sc.URL)
}

// Shorten collapses whitespace and, when the text is longer than width runes,
// drops whole trailing words and appends " [...]".
func Shorten(s string, width int) string {
	s = collapse(s)
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	words := strings.Fields(s)
	budget := width - utf8.RuneCountInString(placeholder)
	var b strings.Builder
	for _, w := range words {
		next := utf8.RuneCountInString(w)
		if b.Len() > 0 {
			next++
		}
		if utf8.RuneCountInString(b.String())+next > budget {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	if b.Len() == 0 {
		return strings.TrimSpace(placeholder)
	}
	return b.String() + placeholder
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + ellipsis
}
