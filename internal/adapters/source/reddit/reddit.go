// Package reddit searches subreddits through the OAuth API.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

// Defaults for the Reddit API.
const (
	DefaultTokenURL  = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIBase   = "https://oauth.reddit.com"
	DefaultUserAgent = "swipebot"
	DefaultTimeout   = 10 * time.Second

	permalinkBase = "https://reddit.com"
	maxErrorBody  = 512
)

// Client searches Reddit with client-credentials auth.
type Client struct {
	conf      clientcredentials.Config
	apiBase   string
	userAgent string
	timeout   time.Duration
	base      http.RoundTripper
	log       logger.Logger
}

var _ source.Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTokenURL overrides the token endpoint.
func WithTokenURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.conf.TokenURL = u
		}
	}
}

// WithAPIBase overrides the API host.
func WithAPIBase(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiBase = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent sets the User-Agent sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport sets the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.base = rt
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client. Missing credentials make every Fetch return source.ErrNotConfigured.
func New(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		conf: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     DefaultTokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		apiBase:   DefaultAPIBase,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		base:      http.DefaultTransport,
		log:       logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// userAgentTransport stamps the User-Agent header Reddit requires.
type userAgentTransport struct {
	ua   string
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(r)
}

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Ups        int     `json:"ups"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
	Subreddit  string  `json:"subreddit"`
}

func (p post) candidate(search string) model.Candidate {
	id := p.ID
	if id == "" {
		id = p.Name
	}
	var created time.Time
	if p.CreatedUTC > 0 {
		created = time.Unix(int64(p.CreatedUTC), 0)
	}
	link := ""
	if p.Permalink != "" {
		link = permalinkBase + p.Permalink
	}
	return model.Candidate{
		Title:     p.Title,
		Body:      p.Selftext,
		Upvotes:   p.Ups,
		CreatedAt: created,
		Source:    model.SourcePost,
		Origin:    p.Subreddit,
		URL:       link,
		NativeID:  id,
		Search:    search,
	}
}

func (c *Client) searchURL(q source.Query) string {
	path := "/search"
	if len(q.Subreddits) > 0 {
		path = "/r/" + strings.Join(q.Subreddits, "+") + "/search"
	}
	params := url.Values{}
	params.Set("q", q.Text)
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if len(q.Subreddits) > 0 {
		params.Set("restrict_sr", "on")
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	return c.apiBase + path + "?" + params.Encode()
}

// Fetch runs the search described by q. A token is requested per call.
func (c *Client) Fetch(ctx context.Context, q source.Query) ([]model.Candidate, error) {
	if c.conf.ClientID == "" || c.conf.ClientSecret == "" {
		return nil, source.ErrNotConfigured
	}

	base := &http.Client{
		Timeout:   c.timeout,
		Transport: userAgentTransport{ua: c.userAgent, base: c.base},
	}
	hc := c.conf.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	hc.Timeout = c.timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: token exchange: %w", source.ErrAuth, err)
		}
		return nil, fmt.Errorf("reddit search: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: reddit status %d", source.ErrAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: reddit status %d: %s", source.ErrUnexpectedResponse, resp.StatusCode, body)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %w", source.ErrUnexpectedResponse, err)
	}

	cands := make([]model.Candidate, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		cands = append(cands, ch.Data.candidate(q.Name))
	}
	c.log.Debug(ctx, "posts fetched", logger.String("search", q.Name), logger.Int("count", len(cands)))
	return cands, nil
}
