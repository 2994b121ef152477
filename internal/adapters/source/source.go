// Package source defines the contract shared by the candidate fetchers.
package source

import (
	"context"
	"errors"

	"github.com/okian/scout/internal/domain/model"
)

// Error kinds returned by fetchers.
var (
	ErrNotConfigured      = errors.New("source not configured")
	ErrAuth               = errors.New("authentication failed")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// Query is one configured search.
type Query struct {
	Name         string
	Text         string
	Subreddits   []string
	Sort         string
	Limit        int
	Countries    []string
	ActiveStatus string
}

// Fetcher returns the candidates matching q. A zero-length result is not an error.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]model.Candidate, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, q Query) ([]model.Candidate, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, q Query) ([]model.Candidate, error) {
	return f(ctx, q)
}
