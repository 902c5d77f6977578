package news

import (
	"context"
	"errors"
	"time"
)

// Article is a normalized article as returned by a source connector.
type Article struct {
	Title       string
	URL         string
	Snippet     string
	Source      string
	PublishedAt time.Time
	Score       float64
}

// Query describes one search against a connector. IncludeDomains restricts
// results to the given sites; TimeRange follows Tavily's day/week/month/year.
type Query struct {
	Text           string
	MaxResults     int
	TimeRange      string
	Topic          string
	IncludeDomains []string
}

// SearchClient is a source connector: one query in, article records out.
type SearchClient interface {
	Search(ctx context.Context, q Query) ([]Article, error)
	Name() string
}

// ContentExtractor is implemented by connectors that can pull full page text
// for result URLs whose search snippets are too thin to summarize from.
type ContentExtractor interface {
	Extract(ctx context.Context, urls []string) (map[string]string, error)
}

var (
	// ErrRateLimited means the connector rejected the call with a 429.
	ErrRateLimited = errors.New("news source rate limited")
	// ErrUnavailable means the connector could not be reached or answered 5xx.
	ErrUnavailable = errors.New("news source unavailable")
)
