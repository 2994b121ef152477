package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/scout/internal/adapters/notify"
	"github.com/okian/scout/internal/adapters/source"
	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/internal/domain/classify"
	"github.com/okian/scout/internal/domain/dedupe"
	"github.com/okian/scout/internal/domain/digest"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/internal/domain/sentiment"
	"github.com/okian/scout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// callLog records sink attempts across goroutines.
type callLog struct {
	mu    sync.Mutex
	names []string
}

func (c *callLog) add(n string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, n)
}

func (c *callLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

type recordingSink struct {
	name string
	err  error
	log  *callLog
	msgs *[]string
}

func (r recordingSink) Name() string { return r.name }

func (r recordingSink) Send(_ context.Context, msg string) error {
	r.log.add(r.name)
	if r.msgs != nil {
		*r.msgs = append(*r.msgs, msg)
	}
	return r.err
}

func newEvaluator(polarity float64) *scoring.Evaluator {
	cl, err := classify.New()
	So(err, ShouldBeNil)
	return scoring.NewEvaluator(cl, sentiment.Fixed(polarity), scoring.NewScorer(scoring.WithClock(clock)))
}

func fixed(cands ...model.Candidate) source.Fetcher {
	return source.FetcherFunc(func(context.Context, source.Query) ([]model.Candidate, error) {
		return cands, nil
	})
}

func failing(err error) source.Fetcher {
	return source.FetcherFunc(func(context.Context, source.Query) ([]model.Candidate, error) {
		return nil, err
	})
}

func hiredPost() model.Candidate {
	return model.Candidate{
		Title:     "Just got hired after finishing my Coursera IT certificate",
		Upvotes:   12,
		CreatedAt: now.Add(-48 * time.Hour),
		Source:    model.SourcePost,
		Origin:    "coursera",
		URL:       "https://reddit.com/r/coursera/comments/1abcd2/just_got_hired/",
		NativeID:  "1abcd2",
	}
}

func TestRunWithoutSources(t *testing.T) {
	Convey("Given three searches that all come back empty-handed", t, func() {
		calls := &callLog{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.add("webhook")
			w.WriteHeader(http.StatusInternalServerError)
		}))
		Reset(srv.Close)

		var emailed []string
		chain := notify.NewChain([]notify.Sink{
			notify.NewWebhook(srv.URL, nil),
			recordingSink{name: "email", log: calls, msgs: &emailed},
		})
		svc := service.New(
			service.WithSearches(
				service.Search{Kind: "meta", Query: source.Query{Name: "promo_play"}, Fetcher: failing(source.ErrNotConfigured)},
				service.Search{Kind: "reddit", Query: source.Query{Name: "learner_stories"}, Fetcher: failing(errors.New("timeout"))},
				service.Search{Kind: "reddit", Query: source.Query{Name: "job_hunt_pain"}, Fetcher: fixed()},
			),
			service.WithEvaluator(newEvaluator(0.6)),
			service.WithChain(chain),
			service.WithClock(clock),
		)

		Convey("When the digest runs", func() {
			res, err := svc.Run(context.Background())

			Convey("Then the fallback message is built", func() {
				So(err, ShouldBeNil)
				So(res.HasItems, ShouldBeFalse)
				So(res.Message, ShouldEqual, "▶️ Swipe-file digest (2025-03-10)\n\n"+digest.DefaultFallback)
			})

			Convey("Then delivery tries the webhook before email", func() {
				So(calls.list(), ShouldResemble, []string{"webhook", "email"})
				So(res.Delivered, ShouldBeTrue)
				So(res.Sink, ShouldEqual, "email")
				So(emailed, ShouldResemble, []string{res.Message})
			})
		})
	})
}

func TestRunAcrossRuns(t *testing.T) {
	Convey("Given a registry shared by consecutive runs", t, func() {
		store := dedupe.NewMemoryStore(nil)
		calls := &callLog{}
		var sent []string
		newService := func() *service.Service {
			return service.New(
				service.WithSearches(service.Search{
					Kind:    "reddit",
					Query:   source.Query{Name: "learner_stories"},
					Fetcher: fixed(hiredPost()),
				}),
				service.WithEvaluator(newEvaluator(0.6)),
				service.WithChain(notify.NewChain([]notify.Sink{recordingSink{name: "webhook", log: calls, msgs: &sent}})),
				service.WithStore(store),
				service.WithClock(clock),
			)
		}

		Convey("When the same post is fetched twice", func() {
			first, err := newService().Run(context.Background())
			So(err, ShouldBeNil)
			second, err := newService().Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the first run includes it", func() {
				So(first.Selected, ShouldHaveLength, 1)
				So(first.Selected[0].ID, ShouldEqual, "post:1abcd2")
				So(first.Selected[0].Category, ShouldEqual, model.Testimonial)
				So(first.Message, ShouldContainSubstring, "*Learner Story*")
				So(first.Message, ShouldContainSubstring, "[Reddit link](https://reddit.com/r/coursera/comments/1abcd2/just_got_hired/)")
			})

			Convey("Then the second run excludes it", func() {
				So(second.Fetched, ShouldEqual, 1)
				So(second.Fresh, ShouldEqual, 0)
				So(second.Selected, ShouldBeEmpty)
				So(second.HasItems, ShouldBeFalse)
			})

			Convey("Then the registry remembers when it was seen", func() {
				seen, err := store.Load(context.Background())
				So(err, ShouldBeNil)
				So(seen["post:1abcd2"], ShouldEqual, now)
				So(sent, ShouldHaveLength, 2)
			})
		})
	})
}

func TestRunFiltering(t *testing.T) {
	Convey("Given candidates of mixed quality across two searches", t, func() {
		lowVotes := hiredPost()
		lowVotes.NativeID = "low"
		lowVotes.Upvotes = 1

		pain := model.Candidate{
			Title: "Why is it so hard to find an entry-level job?", Upvotes: 60,
			CreatedAt: now.Add(-24 * time.Hour), Source: model.SourcePost, NativeID: "pain1",
			URL: "https://reddit.com/r/cscareerquestions/comments/pain1/x/",
		}
		dupe := hiredPost()

		svc := service.New(
			service.WithSearches(
				service.Search{Kind: "reddit", Query: source.Query{Name: "learner_stories"}, Fetcher: fixed(hiredPost(), lowVotes)},
				service.Search{Kind: "reddit", Query: source.Query{Name: "job_hunt_pain"}, Fetcher: fixed(pain, dupe)},
			),
			service.WithEvaluator(newEvaluator(-0.4)),
			service.WithClock(clock),
			service.WithDryRun(true),
		)

		Convey("When the digest runs", func() {
			res, err := svc.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then items below threshold and in-run duplicates are dropped", func() {
				So(res.Fetched, ShouldEqual, 4)
				So(res.Fresh, ShouldEqual, 3)
				for _, sc := range res.Selected {
					So(sc.NativeID, ShouldNotEqual, "low")
				}
			})

			Convey("Then sections follow the search order", func() {
				So(res.Selected, ShouldHaveLength, 1)
				So(res.Selected[0].Category, ShouldEqual, model.PainPoint)
				So(res.Message, ShouldContainSubstring, "*Pain Point*")
			})

			Convey("Then a dry run delivers nothing", func() {
				So(res.Delivered, ShouldBeFalse)
			})
		})
	})
}

func TestRunDryRunKeepsRegistry(t *testing.T) {
	Convey("Given a dry run", t, func() {
		store := dedupe.NewMemoryStore(nil)
		svc := service.New(
			service.WithSearches(service.Search{Kind: "reddit", Query: source.Query{Name: "s"}, Fetcher: fixed(hiredPost())}),
			service.WithEvaluator(newEvaluator(0.6)),
			service.WithStore(store),
			service.WithClock(clock),
			service.WithDryRun(true),
		)

		Convey("Then the registry is not written", func() {
			res, err := svc.Run(context.Background())
			So(err, ShouldBeNil)
			So(res.Selected, ShouldHaveLength, 1)
			seen, _ := store.Load(context.Background())
			So(seen, ShouldBeEmpty)
		})
	})

	Convey("Given a cancelled context and a fetch delay", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc := service.New(
			service.WithSearches(service.Search{Kind: "reddit", Query: source.Query{Name: "s"}, Fetcher: fixed(hiredPost())}),
			service.WithEvaluator(newEvaluator(0.6)),
			service.WithFetchDelay(time.Hour),
		)

		Convey("Then the run stops", func() {
			_, err := svc.Run(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given no evaluator", t, func() {
		_, err := service.New().Run(context.Background())
		So(errors.Is(err, service.ErrNoEvaluator), ShouldBeTrue)
	})
}

func TestWiring(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.New()
		cfg.ApplyDefaults()
		cfg.Registry.Path = filepath.Join(t.TempDir(), "seen.json")

		Convey("When a digest service is wired", func() {
			svc, closeStore, err := service.NewDigest(context.Background(), cfg, logger.Nop(), nil, true)

			Convey("Then it is ready to run", func() {
				So(err, ShouldBeNil)
				So(svc, ShouldNotBeNil)
				So(closeStore(), ShouldBeNil)
			})
		})

		Convey("When the sink chain is built", func() {
			chain := service.NewChain(cfg, "", logger.Nop(), nil, notify.NewWriter(&strings.Builder{}))

			Convey("Then webhook precedes email", func() {
				So(chain.Sinks(), ShouldResemble, []string{"webhook", "email", "stdout"})
			})
		})

		Convey("When searches are built", func() {
			searches := service.NewSearches(cfg, logger.Nop())

			Convey("Then each default search is bound", func() {
				So(searches, ShouldHaveLength, 3)
				So(searches[0].Kind, ShouldEqual, config.SourceMeta)
				So(searches[1].Query.Subreddits, ShouldResemble, []string{"coursera", "learnprogramming"})
			})
		})

		Convey("When scoring tables are configured", func() {
			sc := cfg.Scoring
			sc.Rules = []config.RuleConfig{{Name: "only", Category: "doubt", Keywords: []string{"worth"}, Confidence: 0.5}}
			sc.Categories = map[string]config.CategoryConfig{"doubt": {Weight: ptr(2.0), MinUpvotes: ptr(1), MinSentiment: ptr(-1.0)}}
			ev, err := service.NewEvaluator(sc, logger.Nop(), nil)
			So(err, ShouldBeNil)

			sc2, ok := ev.Evaluate(context.Background(), model.Candidate{Title: "Is it worth it", Upvotes: 5})
			So(ok, ShouldBeTrue)
			So(sc2.Category, ShouldEqual, model.Doubt)
			So(sc2.Rule, ShouldEqual, "only")
		})

		Convey("When only one key of a category is configured", func() {
			sc := cfg.Scoring
			sc.Categories = map[string]config.CategoryConfig{
				"testimonial": {MinUpvotes: ptr(5)},
				"pain_point":  {Weight: ptr(4.0)},
			}
			policies, err := service.NewPolicies(sc.Categories)
			So(err, ShouldBeNil)

			Convey("Then the other keys keep their built-in values", func() {
				builtin := scoring.DefaultPolicies()
				want := builtin[model.Testimonial]
				want.MinUpvotes = 5
				So(policies[model.Testimonial], ShouldResemble, want)

				pain := policies[model.PainPoint]
				So(pain.Weight, ShouldEqual, 4)
				So(pain.MinUpvotes, ShouldEqual, builtin[model.PainPoint].MinUpvotes)
				So(pain.MinSentiment, ShouldEqual, -0.5)
				So(pain.Inverted, ShouldBeTrue)
			})

			Convey("Then accepted testimonials still score above zero", func() {
				ev, err := service.NewEvaluator(sc, logger.Nop(), nil)
				So(err, ShouldBeNil)
				res, ok := ev.Evaluate(context.Background(), model.Candidate{
					Title:   "Just got hired after finishing my Coursera IT certificate, so happy and grateful!",
					Upvotes: 500,
				})
				So(ok, ShouldBeTrue)
				So(res.Category, ShouldEqual, model.Testimonial)
				So(res.Score, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When a rule names an unknown category", func() {
			sc := cfg.Scoring
			sc.Rules = []config.RuleConfig{{Name: "bad", Category: "hype", Keywords: []string{"x"}, Confidence: 0.5}}
			_, err := service.NewEvaluator(sc, logger.Nop(), nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func ptr[T any](v T) *T { return &v }
