package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nickhawn/news-agent/pkg/news"
)

const keyPrefix = "newsagent:search:"

// SearchCache memoizes connector results in Redis so repeated digest turns
// within the TTL window do not re-hit the search API. A missing or dead Redis
// degrades to a pass-through: the underlying client is always the fallback.
type SearchCache struct {
	inner  news.SearchClient
	client *redis.Client
	ttl    time.Duration
}

func NewSearchCache(inner news.SearchClient, client *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{inner: inner, client: client, ttl: ttl}
}

func (c *SearchCache) Name() string {
	return c.inner.Name()
}

// Extract forwards to the wrapped connector when it supports content
// extraction. Extracted pages are one-offs and are not cached.
func (c *SearchCache) Extract(ctx context.Context, urls []string) (map[string]string, error) {
	if ex, ok := c.inner.(news.ContentExtractor); ok {
		return ex.Extract(ctx, urls)
	}
	return nil, fmt.Errorf("extract %s: %w", c.inner.Name(), news.ErrUnavailable)
}

func (c *SearchCache) Search(ctx context.Context, q news.Query) ([]news.Article, error) {
	if c.client == nil {
		return c.inner.Search(ctx, q)
	}

	key := cacheKey(c.inner.Name(), q)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var articles []news.Article
		if err := json.Unmarshal(data, &articles); err == nil {
			return articles, nil
		}
		slog.Warn("dropping unreadable cache entry", "key", key)
	} else if err != redis.Nil {
		slog.Warn("search cache read failed, falling through", "error", err)
	}

	articles, err := c.inner.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(articles); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Warn("search cache write failed", "error", err)
		}
	}

	return articles, nil
}

func cacheKey(source string, q news.Query) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf(
		"%s|%s|%d|%s|%s|%s",
		source, q.Text, q.MaxResults, q.TimeRange, q.Topic, strings.Join(q.IncludeDomains, ","),
	)))
	return keyPrefix + fmt.Sprintf("%x", sum)[:24]
}
