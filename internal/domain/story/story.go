// Package story scores LinkedIn links surfaced by Google Alerts as potential
// learner success stories and renders the outreach report.
package story

import (
	"crypto/md5" //nolint:gosec // identity only, matches ids already stored in stories files
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutreachPending is the status of a newly found story.
const OutreachPending = "pending"

// Default thresholds.
const (
	DefaultMinScore       = 15
	DefaultHighValueScore = 20
	DefaultReportLimit    = 5

	postBonus  = 5
	postSignal = "LINKEDIN_POST"
	idLen      = 16
)

// Link is a LinkedIn link extracted from an alert email.
type Link struct {
	URL  string
	Text string
}

// Story is a persisted success-story candidate.
type Story struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Text           string    `json:"text"`
	StoryScore     int       `json:"story_score"`
	Signals        []string  `json:"signals"`
	FoundDate      Timestamp `json:"found_date"`
	AlertSubject   string    `json:"alert_subject"`
	AlertDate      string    `json:"alert_date"`
	OutreachStatus string    `json:"outreach_status"`
}

// Database is the whole stories file.
type Database struct {
	Stories             []Story    `json:"stories"`
	LastProcessed       *Timestamp `json:"last_processed"`
	TotalLinksProcessed int        `json:"total_links_processed"`
}

// Timestamp is a stories-file time. It writes ISO 8601 with microseconds and an
// offset, and also reads the offset-less local times of older files.
type Timestamp struct {
	time.Time
}

const (
	isoLayout   = "2006-01-02T15:04:05.000000-07:00"
	naiveLayout = "2006-01-02T15:04:05"
)

// At wraps t.
func At(t time.Time) Timestamp { return Timestamp{Time: t} }

// MarshalJSON implements json.Marshaler. The zero time is written as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(isoLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	// Fractional seconds after the seconds field are accepted without a layout element.
	v, err := time.ParseInLocation(naiveLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parse story time %q: %w", s, err)
	}
	t.Time = v
	return nil
}

// Index returns the stories keyed by id.
func (d Database) Index() map[string]Story {
	out := make(map[string]Story, len(d.Stories))
	for _, s := range d.Stories {
		out[s.ID] = s
	}
	return out
}

// SignalGroup awards Points once when any of its keywords appears in the link text.
type SignalGroup struct {
	Name     string
	Label    string
	Points   int
	Keywords []string
}

// DefaultSignals returns the built-in signal groups.
func DefaultSignals() []SignalGroup {
	return []SignalGroup{
		{Name: "career_transformation", Label: "CAREER_CHANGE", Points: 20,
			Keywords: []string{"career change", "switched careers", "new career", "transitioned to", "career pivot"}},
		{Name: "job_success", Label: "JOB_SUCCESS", Points: 15,
			Keywords: []string{"landed a job", "got hired", "new position", "job offer", "started working"}},
		{Name: "promotion", Label: "PROMOTION", Points: 15,
			Keywords: []string{"promoted to", "got promoted", "promotion", "new role as"}},
		{Name: "salary_impact", Label: "SALARY", Points: 12,
			Keywords: []string{"salary increase", "raise", "doubled my income", "better pay", "higher salary"}},
		{Name: "gratitude", Label: "GRATITUDE", Points: 10,
			Keywords: []string{"grateful for", "thankful", "changed my life", "couldn't have done it without"}},
		{Name: "coursera_specific", Label: "COURSERA", Points: 8,
			Keywords: []string{"coursera certificate", "google certificate", "coursera course", "andrew ng"}},
	}
}

// Analyzer scores links against signal groups.
type Analyzer struct {
	groups []SignalGroup
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithSignals replaces the signal groups.
func WithSignals(groups []SignalGroup) Option {
	return func(a *Analyzer) {
		if len(groups) > 0 {
			a.groups = groups
		}
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{groups: DefaultSignals()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the story score of l and the signals that contributed.
// Only the first matching keyword of each group counts; posts and feed items earn a bonus.
func (a *Analyzer) Analyze(l Link) (int, []string) {
	text := strings.ToLower(l.Text)
	score := 0
	var signals []string

	for _, g := range a.groups {
		for _, kw := range g.Keywords {
			if strings.Contains(text, kw) {
				score += g.Points
				signals = append(signals, g.Label+": "+kw)
				break
			}
		}
	}

	if strings.Contains(l.URL, "/posts/") || strings.Contains(l.URL, "/feed/") {
		score += postBonus
		signals = append(signals, postSignal)
	}
	return score, signals
}

// ID returns the stable story id: the first 16 hex chars of md5(url + "_" + text).
func ID(l Link) string {
	sum := md5.Sum([]byte(l.URL + "_" + l.Text)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:idLen]
}
