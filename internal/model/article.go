package model

import "time"

// ArticleRecord is one candidate article returned by a source connector.
// Records live for a single request and are never persisted.
type ArticleRecord struct {
	Title       string
	URL         string
	Source      string
	Snippet     string
	PublishedAt time.Time
	Score       float64
}
