package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/scout/internal/adapters/notify"
	"github.com/okian/scout/internal/adapters/repository"
	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/adapters/source/alerts"
	"github.com/okian/scout/internal/adapters/source/meta"
	"github.com/okian/scout/internal/adapters/source/reddit"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/internal/domain/classify"
	"github.com/okian/scout/internal/domain/digest"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/internal/domain/sentiment"
	"github.com/okian/scout/internal/domain/story"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

const day = 24 * time.Hour

// NewEvaluator builds the classifier, VADER analyzer and scorer from cfg.
// Empty rule and category tables fall back to the built-in ones.
func NewEvaluator(cfg config.ScoringConfig, log logger.Logger, m *metrics.Manager) (*scoring.Evaluator, error) {
	var clOpts []classify.Option
	if len(cfg.Rules) > 0 {
		rules := make([]classify.Rule, 0, len(cfg.Rules))
		for _, r := range cfg.Rules {
			cat, err := model.ParseCategory(r.Category)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
			rules = append(rules, classify.Rule{
				Name:          r.Name,
				Category:      cat,
				Keywords:      r.Keywords,
				Confidence:    r.Confidence,
				TitleQuestion: r.TitleQuestion,
			})
		}
		clOpts = append(clOpts, classify.WithRules(rules))
	}
	if cfg.DefaultCategory != "" {
		cat, err := model.ParseCategory(cfg.DefaultCategory)
		if err != nil {
			return nil, fmt.Errorf("default category: %w", err)
		}
		clOpts = append(clOpts, classify.WithDefault(cat, cfg.DefaultConfidence))
	}
	cl, err := classify.New(clOpts...)
	if err != nil {
		return nil, err
	}

	policies, err := NewPolicies(cfg.Categories)
	if err != nil {
		return nil, err
	}
	sc := scoring.NewScorer(
		scoring.WithPolicies(policies),
		scoring.WithRecency(scoring.Recency{
			FreshAge:    time.Duration(cfg.Recency.FreshDays) * day,
			FreshBonus:  cfg.Recency.FreshBonus,
			RecentAge:   time.Duration(cfg.Recency.RecentDays) * day,
			RecentBonus: cfg.Recency.RecentBonus,
		}),
	)

	return scoring.NewEvaluator(cl, sentiment.NewVader(), sc,
		scoring.WithLogger(log.Named("scoring")),
		scoring.WithRejectHook(m.RecordRejected),
	), nil
}

// NewPolicies overlays the configured keys of each category on its built-in policy.
func NewPolicies(categories map[string]config.CategoryConfig) (map[model.Category]scoring.Policy, error) {
	defaults := scoring.DefaultPolicies()
	policies := make(map[model.Category]scoring.Policy, len(categories))
	for name, c := range categories {
		cat, err := model.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("scoring categories: %w", err)
		}
		p := defaults[cat]
		if c.Weight != nil {
			p.Weight = *c.Weight
		}
		if c.MinUpvotes != nil {
			p.MinUpvotes = *c.MinUpvotes
		}
		if c.MinSentiment != nil {
			p.MinSentiment = *c.MinSentiment
		}
		if c.Inverted != nil {
			p.Inverted = *c.Inverted
		}
		policies[cat] = p
	}
	return policies, nil
}

// NewSearches binds each configured search to its fetcher.
func NewSearches(cfg *config.Config, log logger.Logger) []Search {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}
	ads := meta.New(cfg.Meta.Token,
		meta.WithEndpoint(cfg.Meta.Endpoint),
		meta.WithFields(cfg.Meta.Fields),
		meta.WithHTTPClient(httpClient),
		meta.WithLogger(log.Named("meta")),
	)
	posts := reddit.New(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret,
		reddit.WithTokenURL(cfg.Reddit.TokenURL),
		reddit.WithAPIBase(cfg.Reddit.APIBase),
		reddit.WithUserAgent(cfg.Reddit.UserAgent),
		reddit.WithTimeout(cfg.RequestTimeout()),
		reddit.WithLogger(log.Named("reddit")),
	)

	out := make([]Search, 0, len(cfg.Searches))
	for _, s := range cfg.Searches {
		var f source.Fetcher = posts
		if s.Source == config.SourceMeta {
			f = ads
		}
		out = append(out, Search{
			Kind:    s.Source,
			Fetcher: f,
			Query: source.Query{
				Name:         s.Name,
				Text:         s.Query,
				Subreddits:   s.Subreddits,
				Sort:         s.Sort,
				Limit:        s.Limit,
				Countries:    s.Countries,
				ActiveStatus: s.ActiveStatus,
			},
		})
	}
	return out
}

// NewChain returns webhook then email, followed by any extra sinks.
func NewChain(cfg *config.Config, subject string, log logger.Logger, m *metrics.Manager, extra ...notify.Sink) *notify.Chain {
	email := cfg.Notify.Email
	if subject == "" {
		subject = email.Subject
	}
	sinks := []notify.Sink{
		notify.NewWebhook(cfg.Notify.WebhookURL, &http.Client{Timeout: cfg.RequestTimeout()}),
		notify.NewEmail(notify.EmailConfig{
			Host:     email.Host,
			Port:     email.Port,
			From:     email.From,
			Password: email.Password,
			To:       email.To,
			Subject:  subject,
		}),
	}
	sinks = append(sinks, extra...)
	return notify.NewChain(sinks, notify.WithLogger(log.Named("notify")), notify.WithMetrics(m))
}

// NewDigest wires a digest Service from cfg. The returned closer releases the registry store.
func NewDigest(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Manager, dryRun bool) (*Service, repository.Closer, error) {
	ev, err := NewEvaluator(cfg.Scoring, log, m)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := repository.OpenRegistry(ctx, repository.Backend{
		Kind: cfg.Registry.Backend,
		Path: cfg.Registry.Path,
		DSN:  cfg.Registry.DSN,
	}, repository.WithLogger(log.Named("registry")))
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}

	svc := New(
		WithSearches(NewSearches(cfg, log)...),
		WithEvaluator(ev),
		WithFormatter(digest.New(
			digest.WithTitle(cfg.Digest.Title),
			digest.WithDivider(cfg.Digest.Divider),
			digest.WithFallback(cfg.Digest.Fallback),
		)),
		WithChain(NewChain(cfg, "", log, m)),
		WithStore(store),
		WithRetention(cfg.Retention()),
		WithMaxItems(cfg.Selection.MaxItems),
		WithFetchDelay(cfg.FetchDelay()),
		WithDryRun(dryRun),
		WithLogger(log.Named("digest")),
		WithMetrics(m),
	)
	return svc, closeStore, nil
}

// NewAlerts wires the alerts monitor from cfg. The report goes to webhook, then email,
// then out.
func NewAlerts(cfg *config.Config, log logger.Logger, m *metrics.Manager, out io.Writer, dryRun bool) *AlertsMonitor {
	a := cfg.Alerts
	inbox := alerts.NewInbox(a.GmailUser, a.GmailPassword,
		alerts.WithAddr(a.IMAPAddr),
		alerts.WithSender(a.Sender),
		alerts.WithWindow(a.DaysBack, a.MaxEmails),
		alerts.WithLogger(log.Named("inbox")),
	)
	return NewAlertsMonitor(inbox,
		repository.NewStoriesFile(a.StoriesPath, repository.WithLogger(log.Named("stories"))),
		WithAlertsChain(NewChain(cfg, a.Subject, log, m, notify.NewWriter(out))),
		WithReportOptions(story.ReportOptions{
			MinScore:       a.MinScore,
			HighValueScore: a.HighValueScore,
			Limit:          a.ReportLimit,
		}),
		WithAlertsDryRun(dryRun),
		WithAlertsLogger(log.Named("alerts")),
		WithAlertsMetrics(m),
	)
}
