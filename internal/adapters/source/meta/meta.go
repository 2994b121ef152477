// Package meta searches the Meta Ad Library for promotional ads.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/scout/internal/adapters/source"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

// Defaults for the Graph API ads archive.
const (
	DefaultEndpoint = "https://graph.facebook.com/v18.0/ads_archive"
	DefaultFields   = "id,page_name,ad_creative_bodies,ad_creative_link_captions,ad_snapshot_url,impressions,ad_creation_time"
	DefaultTimeout  = 10 * time.Second

	maxErrorBody = 512
)

// Client fetches ads for a search term.
type Client struct {
	token    string
	endpoint string
	fields   string
	http     *http.Client
	log      logger.Logger
}

var _ source.Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the ads archive URL.
func WithEndpoint(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.endpoint = u
		}
	}
}

// WithFields overrides the requested fields.
func WithFields(f string) Option {
	return func(c *Client) {
		if f != "" {
			c.fields = f
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
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

// New creates a client. An empty token makes every Fetch return source.ErrNotConfigured.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:    token,
		endpoint: DefaultEndpoint,
		fields:   DefaultFields,
		http:     &http.Client{Timeout: DefaultTimeout},
		log:      logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type archiveResponse struct {
	Data []adRecord `json:"data"`
}

type adRecord struct {
	ID              string      `json:"id"`
	PageName        string      `json:"page_name"`
	CreativeBody    string      `json:"ad_creative_body"`
	CreativeBodies  []string    `json:"ad_creative_bodies"`
	LinkCaptions    []string    `json:"ad_creative_link_captions"`
	SnapshotURL     string      `json:"ad_snapshot_url"`
	ImpressionsLow  count       `json:"impressions_lower_bound"`
	Impressions     *impression `json:"impressions"`
	CreationTimeRaw string      `json:"ad_creation_time"`
}

type impression struct {
	LowerBound count `json:"lower_bound"`
}

// count accepts a JSON number or a numeric string. Anything else decodes as 0.
type count int64

func (n *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil //nolint:nilerr // malformed counts rank last
	}
	*n = count(v)
	return nil
}

func (r adRecord) body() string {
	if r.CreativeBody != "" {
		return r.CreativeBody
	}
	for _, b := range r.CreativeBodies {
		if strings.TrimSpace(b) != "" {
			return b
		}
	}
	return ""
}

func (r adRecord) impressions() int {
	if r.ImpressionsLow > 0 {
		return int(r.ImpressionsLow)
	}
	if r.Impressions != nil {
		return int(r.Impressions.LowerBound)
	}
	return 0
}

func (r adRecord) createdAt() time.Time {
	for _, layout := range []string{time.DateOnly, "2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, r.CreationTimeRaw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r adRecord) candidate(search string) model.Candidate {
	title := r.PageName
	if title == "" && len(r.LinkCaptions) > 0 {
		title = r.LinkCaptions[0]
	}
	return model.Candidate{
		Title:     html.UnescapeString(title),
		Body:      html.UnescapeString(r.body()),
		Upvotes:   r.impressions(),
		CreatedAt: r.createdAt(),
		Source:    model.SourceAd,
		Origin:    r.PageName,
		URL:       r.SnapshotURL,
		NativeID:  r.ID,
		Search:    search,
	}
}

// Fetch returns the ads matching q ordered by lower-bound impressions, highest first.
func (c *Client) Fetch(ctx context.Context, q source.Query) ([]model.Candidate, error) {
	if c.token == "" {
		return nil, source.ErrNotConfigured
	}

	params := url.Values{}
	params.Set("search_terms", q.Text)
	if len(q.Countries) > 0 {
		params.Set("ad_reached_countries", "['"+strings.Join(q.Countries, "','")+"']")
	}
	if q.ActiveStatus != "" {
		params.Set("ad_active_status", q.ActiveStatus)
	}
	params.Set("fields", c.fields)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	params.Set("access_token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ads archive request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: ads archive status %d", source.ErrAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: ads archive status %d: %s", source.ErrUnexpectedResponse, resp.StatusCode, body)
	}

	var out archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode ads archive: %w", source.ErrUnexpectedResponse, err)
	}

	cands := make([]model.Candidate, 0, len(out.Data))
	for _, r := range out.Data {
		cands = append(cands, r.candidate(q.Name))
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Upvotes > cands[j].Upvotes })

	c.log.Debug(ctx, "ads fetched", logger.String("search", q.Name), logger.Int("count", len(cands)))
	return cands, nil
}
