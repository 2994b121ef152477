package reddit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/adapters/source/reddit"
	"github.com/okian/scout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const listingBody = `{"data":{"children":[
 {"data":{"id":"1abcd2","name":"t3_1abcd2","title":"Just got hired after finishing my Coursera IT certificate","selftext":"so happy","ups":12,"permalink":"/r/coursera/comments/1abcd2/just_got_hired/","created_utc":1740000000.0,"subreddit":"coursera"}},
 {"data":{"name":"t3_zz9","title":"No id field","ups":3}}
]}}`

type recorder struct {
	mu       sync.Mutex
	agents   []string
	auth     string
	path     string
	query    map[string]string
	tokenHit int
}

func newServer(rec *recorder, tokenStatus int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.agents = append(rec.agents, r.UserAgent())
		rec.tokenHit++
		rec.mu.Unlock()
		user, pass, ok := r.BasicAuth()
		if tokenStatus != http.StatusOK || !ok || user != "id" || pass != "secret" || r.FormValue("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.agents = append(rec.agents, r.UserAgent())
		rec.auth = r.Header.Get("Authorization")
		rec.path = r.URL.Path
		rec.query = map[string]string{}
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listingBody))
	})
	return httptest.NewServer(mux)
}

func TestFetch(t *testing.T) {
	q := source.Query{
		Name:       "learner_stories",
		Text:       "coursera completed OR finished",
		Subreddits: []string{"coursera", "learnprogramming"},
		Sort:       "new",
		Limit:      50,
	}

	Convey("Given a Reddit API stand-in", t, func() {
		rec := &recorder{}
		srv := newServer(rec, http.StatusOK)
		Reset(srv.Close)

		newClient := func(id, secret string) *reddit.Client {
			return reddit.New(id, secret,
				reddit.WithTokenURL(srv.URL+"/api/v1/access_token"),
				reddit.WithAPIBase(srv.URL),
				reddit.WithUserAgent("swipebot-test"),
			)
		}

		Convey("When searching with valid credentials", func() {
			cands, err := newClient("id", "secret").Fetch(context.Background(), q)

			Convey("Then the bearer token and user agent are sent", func() {
				So(err, ShouldBeNil)
				So(rec.tokenHit, ShouldEqual, 1)
				So(rec.auth, ShouldEqual, "Bearer tok")
				for _, ua := range rec.agents {
					So(ua, ShouldEqual, "swipebot-test")
				}
			})

			Convey("Then the subreddit search is restricted", func() {
				So(rec.path, ShouldEqual, "/r/coursera+learnprogramming/search")
				So(rec.query["q"], ShouldEqual, "coursera completed OR finished")
				So(rec.query["sort"], ShouldEqual, "new")
				So(rec.query["restrict_sr"], ShouldEqual, "on")
				So(rec.query["limit"], ShouldEqual, "50")
			})

			Convey("Then posts become candidates", func() {
				So(cands, ShouldHaveLength, 2)
				c := cands[0]
				So(c.NativeID, ShouldEqual, "1abcd2")
				So(c.Upvotes, ShouldEqual, 12)
				So(c.Source, ShouldEqual, model.SourcePost)
				So(c.Origin, ShouldEqual, "coursera")
				So(c.URL, ShouldEqual, "https://reddit.com/r/coursera/comments/1abcd2/just_got_hired/")
				So(c.CreatedAt.Unix(), ShouldEqual, 1740000000)
				So(c.Search, ShouldEqual, "learner_stories")
				So(cands[1].NativeID, ShouldEqual, "t3_zz9")
				So(cands[1].CreatedAt.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When credentials are missing", func() {
			_, err := newClient("", "secret").Fetch(context.Background(), q)
			So(errors.Is(err, source.ErrNotConfigured), ShouldBeTrue)
			So(rec.tokenHit, ShouldEqual, 0)
		})

		Convey("When the token exchange is refused", func() {
			_, err := newClient("id", "wrong").Fetch(context.Background(), q)
			So(errors.Is(err, source.ErrAuth), ShouldBeTrue)
		})
	})
}
