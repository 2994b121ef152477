package meta_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/adapters/source/meta"
	"github.com/okian/scout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const archiveBody = `{"data":[
 {"id":"111","page_name":"Learnly","ad_creative_bodies":["Save 50% &amp; start today"],"ad_snapshot_url":"https://fb/ad?id=111","impressions":{"lower_bound":"1000"},"ad_creation_time":"2025-02-01"},
 {"id":"222","page_name":"Skillz","ad_creative_body":"Offer ends Sunday","ad_snapshot_url":"https://fb/ad?id=222","impressions_lower_bound":5000},
 {"id":"333","page_name":"Broken","impressions_lower_bound":"many"}
]}`

func TestFetch(t *testing.T) {
	Convey("Given an ads archive server", t, func() {
		var got url.Values
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.URL.Query()
			if got.Get("access_token") != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(archiveBody))
		}))
		Reset(srv.Close)

		q := source.Query{Name: "promo_play", Text: "off save ends", Countries: []string{"US"}, ActiveStatus: "ALL", Limit: 50}

		Convey("When fetching with a token", func() {
			c := meta.New("tok", meta.WithEndpoint(srv.URL))
			cands, err := c.Fetch(context.Background(), q)

			Convey("Then the query carries the search parameters", func() {
				So(err, ShouldBeNil)
				So(got.Get("search_terms"), ShouldEqual, "off save ends")
				So(got.Get("ad_reached_countries"), ShouldEqual, "['US']")
				So(got.Get("ad_active_status"), ShouldEqual, "ALL")
				So(got.Get("limit"), ShouldEqual, "50")
				So(got.Get("fields"), ShouldEqual, meta.DefaultFields)
			})

			Convey("Then ads are typed and ranked by impressions", func() {
				So(cands, ShouldHaveLength, 3)
				So(cands[0].NativeID, ShouldEqual, "222")
				So(cands[0].Upvotes, ShouldEqual, 5000)
				So(cands[0].Body, ShouldEqual, "Offer ends Sunday")
				So(cands[1].NativeID, ShouldEqual, "111")
				So(cands[1].Upvotes, ShouldEqual, 1000)
				So(cands[1].Body, ShouldEqual, "Save 50% & start today")
				So(cands[1].CreatedAt.Year(), ShouldEqual, 2025)
				So(cands[1].Source, ShouldEqual, model.SourceAd)
				So(cands[1].Search, ShouldEqual, "promo_play")
				So(cands[2].Upvotes, ShouldEqual, 0)
				So(cands[2].CreatedAt.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the token is rejected", func() {
			_, err := meta.New("bad", meta.WithEndpoint(srv.URL)).Fetch(context.Background(), q)
			So(errors.Is(err, source.ErrAuth), ShouldBeTrue)
		})

		Convey("When no token is configured", func() {
			_, err := meta.New("", meta.WithEndpoint(srv.URL)).Fetch(context.Background(), q)
			So(errors.Is(err, source.ErrNotConfigured), ShouldBeTrue)
		})
	})

	Convey("Given a server returning malformed JSON", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":`))
		}))
		Reset(srv.Close)

		_, err := meta.New("tok", meta.WithEndpoint(srv.URL)).Fetch(context.Background(), source.Query{Text: "x"})
		So(errors.Is(err, source.ErrUnexpectedResponse), ShouldBeTrue)
	})
}
