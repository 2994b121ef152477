// Package config defines scout configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with scalar defaults.
//   - Slices and maps are filled by ApplyDefaults after unmarshal, so a
//     configured list replaces the default instead of merging into it.
//   - Blocking loaders accept context.Context as the first parameter.
package config

import (
	"fmt"
	"time"
)

// Registry backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendLibSQL = "libsql"
)

// Search sources.
const (
	SourceMeta   = "meta"
	SourceReddit = "reddit"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// RequestTimeoutSec bounds every outbound HTTP call.
	RequestTimeoutSec int `koanf:"request_timeout_sec"`

	// FetchDelayMS is slept before each source fetch.
	FetchDelayMS int `koanf:"fetch_delay_ms"`

	Registry  RegistryConfig  `koanf:"registry"`
	Meta      MetaConfig      `koanf:"meta"`
	Reddit    RedditConfig    `koanf:"reddit"`
	Searches  []SearchConfig  `koanf:"searches"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Selection SelectionConfig `koanf:"selection"`
	Digest    DigestConfig    `koanf:"digest"`
	Notify    NotifyConfig    `koanf:"notify"`
	Alerts    AlertsConfig    `koanf:"alerts"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// RegistryConfig selects where seen-item ids are persisted.
type RegistryConfig struct {
	Backend       string `koanf:"backend"`
	Path          string `koanf:"path"`
	DSN           string `koanf:"dsn"`
	RetentionDays int    `koanf:"retention_days"`
}

// MetaConfig configures the ad library client.
type MetaConfig struct {
	Token    string `koanf:"token"`
	Endpoint string `koanf:"endpoint"`
	Fields   string `koanf:"fields"`
}

// RedditConfig configures the Reddit OAuth2 client.
type RedditConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	TokenURL     string `koanf:"token_url"`
	APIBase      string `koanf:"api_base"`
	UserAgent    string `koanf:"user_agent"`
}

// SearchConfig is one logical fetch; each produces one digest section.
type SearchConfig struct {
	Name         string   `koanf:"name"`
	Source       string   `koanf:"source"`
	Query        string   `koanf:"query"`
	Subreddits   []string `koanf:"subreddits"`
	Sort         string   `koanf:"sort"`
	Limit        int      `koanf:"limit"`
	Countries    []string `koanf:"countries"`
	ActiveStatus string   `koanf:"active_status"`
}

// ScoringConfig holds the classifier rule table and per-category policy overrides.
// Empty Rules mean the built-in rule table is used.
type ScoringConfig struct {
	Categories        map[string]CategoryConfig `koanf:"categories"`
	Rules             []RuleConfig              `koanf:"rules"`
	DefaultCategory   string                    `koanf:"default_category"`
	DefaultConfidence float64                   `koanf:"default_confidence"`
	Recency           RecencyConfig             `koanf:"recency"`
}

// CategoryConfig overrides the built-in policy of one category. Nil fields keep
// the built-in value.
type CategoryConfig struct {
	Weight       *float64 `koanf:"weight"`
	MinUpvotes   *int     `koanf:"min_upvotes"`
	MinSentiment *float64 `koanf:"min_sentiment"`
	Inverted     *bool    `koanf:"inverted"`
}

// RuleConfig is one classifier rule.
type RuleConfig struct {
	Name          string   `koanf:"name"`
	Category      string   `koanf:"category"`
	Keywords      []string `koanf:"keywords"`
	Confidence    float64  `koanf:"confidence"`
	TitleQuestion bool     `koanf:"title_question"`
}

// RecencyConfig sets the age bands of the recency bonus.
type RecencyConfig struct {
	FreshDays   int     `koanf:"fresh_days"`
	FreshBonus  float64 `koanf:"fresh_bonus"`
	RecentDays  int     `koanf:"recent_days"`
	RecentBonus float64 `koanf:"recent_bonus"`
}

// SelectionConfig caps the digest size.
type SelectionConfig struct {
	MaxItems int `koanf:"max_items"`
}

// DigestConfig controls message rendering.
type DigestConfig struct {
	Title    string `koanf:"title"`
	Divider  string `koanf:"divider"`
	Fallback string `koanf:"fallback"`
}

// NotifyConfig lists the delivery sinks. Webhook is always tried before email.
type NotifyConfig struct {
	WebhookURL string      `koanf:"webhook_url"`
	Email      EmailConfig `koanf:"email"`
}

// EmailConfig configures SMTP over implicit TLS.
type EmailConfig struct {
	From     string `koanf:"from"`
	Password string `koanf:"password"`
	To       string `koanf:"to"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Subject  string `koanf:"subject"`
}

// AlertsConfig configures the Google Alerts success-story monitor.
type AlertsConfig struct {
	GmailUser      string `koanf:"gmail_user"`
	GmailPassword  string `koanf:"gmail_password"`
	IMAPAddr       string `koanf:"imap_addr"`
	Sender         string `koanf:"sender"`
	DaysBack       int    `koanf:"days_back"`
	MaxEmails      int    `koanf:"max_emails"`
	StoriesPath    string `koanf:"stories_path"`
	MinScore       int    `koanf:"min_score"`
	HighValueScore int    `koanf:"high_value_score"`
	ReportLimit    int    `koanf:"report_limit"`
	Subject        string `koanf:"subject"`
}

// MetricsConfig enables the end-of-run Pushgateway push.
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url"`
	Job            string `koanf:"job"`
}

// New creates a Config with scalar defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		RequestTimeoutSec: 10,
		FetchDelayMS:      1000,
		Registry: RegistryConfig{
			Backend:       BackendJSON,
			Path:          "seen_items.json",
			RetentionDays: 30,
		},
		Meta: MetaConfig{
			Endpoint: "https://graph.facebook.com/v18.0/ads_archive",
			Fields:   "id,page_name,ad_creative_bodies,ad_creative_link_captions,ad_snapshot_url,impressions,ad_creation_time",
		},
		Reddit: RedditConfig{
			TokenURL:  "https://www.reddit.com/api/v1/access_token",
			APIBase:   "https://oauth.reddit.com",
			UserAgent: "swipebot",
		},
		Scoring: ScoringConfig{
			DefaultCategory:   "motivation",
			DefaultConfidence: 0.3,
			Recency: RecencyConfig{
				FreshDays:   7,
				FreshBonus:  1.3,
				RecentDays:  30,
				RecentBonus: 1.1,
			},
		},
		Selection: SelectionConfig{MaxItems: 5},
		Digest: DigestConfig{
			Title:    "▶️ Swipe-file digest",
			Divider:  "\n\n———\n\n",
			Fallback: "No fresh swipe-file material today.",
		},
		Notify: NotifyConfig{
			Email: EmailConfig{
				Host:    "smtp.gmail.com",
				Port:    465,
				Subject: "Swipe-File Digest",
			},
		},
		Alerts: AlertsConfig{
			IMAPAddr:       "imap.gmail.com:993",
			Sender:         "googlealerts-noreply@google.com",
			DaysBack:       3,
			MaxEmails:      50,
			StoriesPath:    "linkedin_success_stories.json",
			MinScore:       15,
			HighValueScore: 20,
			ReportLimit:    5,
			Subject:        "LinkedIn Success Stories Report",
		},
		Metrics: MetricsConfig{Job: "scout"},
	}
}

// DefaultSearches returns the three searches of a stock run: one ad search and two Reddit searches.
func DefaultSearches() []SearchConfig {
	return []SearchConfig{
		{
			Name:         "promo_play",
			Source:       SourceMeta,
			Query:        "off save ends",
			Countries:    []string{"US"},
			ActiveStatus: "ALL",
			Limit:        50,
		},
		{
			Name:       "learner_stories",
			Source:     SourceReddit,
			Query:      "coursera completed OR finished",
			Subreddits: []string{"coursera", "learnprogramming"},
			Sort:       "new",
			Limit:      50,
		},
		{
			Name:       "job_hunt_pain",
			Source:     SourceReddit,
			Query:      "entry level job",
			Subreddits: []string{"ITCareerQuestions", "cscareerquestions"},
			Sort:       "new",
			Limit:      50,
		},
	}
}

// ApplyDefaults fills list-valued settings that were not configured.
func (c *Config) ApplyDefaults() {
	if len(c.Searches) == 0 {
		c.Searches = DefaultSearches()
	}
	for i := range c.Searches {
		s := &c.Searches[i]
		if s.Name == "" {
			s.Name = fmt.Sprintf("%s_%d", s.Source, i+1)
		}
		if s.Limit <= 0 {
			s.Limit = 50
		}
		if s.Source == SourceReddit && s.Sort == "" {
			s.Sort = "new"
		}
		if s.Source == SourceMeta {
			if len(s.Countries) == 0 {
				s.Countries = []string{"US"}
			}
			if s.ActiveStatus == "" {
				s.ActiveStatus = "ALL"
			}
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Registry.Backend {
	case BackendJSON:
		if c.Registry.Path == "" {
			return fmt.Errorf("%w: registry.path must not be empty", ErrInvalidValue)
		}
	case BackendSQLite, BackendLibSQL:
		if c.Registry.DSN == "" && c.Registry.Path == "" {
			return fmt.Errorf("%w: registry.dsn must not be empty", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Registry.Backend)
	}
	for _, s := range c.Searches {
		if s.Source != SourceMeta && s.Source != SourceReddit {
			return fmt.Errorf("%w: %q in search %q", ErrUnknownSource, s.Source, s.Name)
		}
	}
	if c.Selection.MaxItems <= 0 {
		return fmt.Errorf("%w: selection.max_items must be positive", ErrInvalidValue)
	}
	if c.Registry.RetentionDays <= 0 {
		return fmt.Errorf("%w: registry.retention_days must be positive", ErrInvalidValue)
	}
	if c.RequestTimeoutSec <= 0 {
		return fmt.Errorf("%w: request_timeout_sec must be positive", ErrInvalidValue)
	}
	if c.FetchDelayMS < 0 {
		return fmt.Errorf("%w: fetch_delay_ms must not be negative", ErrInvalidValue)
	}
	return nil
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// FetchDelay returns the fixed delay slept before each fetch.
func (c *Config) FetchDelay() time.Duration {
	return time.Duration(c.FetchDelayMS) * time.Millisecond
}

// Retention returns the registry retention window.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Registry.RetentionDays) * 24 * time.Hour
}
