package news

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
)

func newFakeTavily(t *testing.T, handler http.HandlerFunc) *TavilyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTavilyClientWithBaseURL("test-key", srv.URL)
}

func TestTavilySearch_MapsResults(t *testing.T) {
	client := newFakeTavily(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req tavilySearchRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "news", req.Topic)
		assert.Equal(t, "week", req.TimeRange)

		json.NewEncoder(w).Encode(tavilySearchResponse{
			Results: []tavilyResult{
				{
					Title:         "AI chips keep shrinking",
					URL:           "https://www.techcrunch.com/2026/ai-chips",
					Content:       "A snippet.",
					Score:         0.91,
					PublishedDate: "2026-08-29T10:00:00Z",
				},
			},
		})
	})

	articles, err := client.Search(context.Background(), Query{Text: "latest AI news"})
	assert.Equal(t, err, nil)
	assert.Equal(t, 1, len(articles))
	assert.Equal(t, "AI chips keep shrinking", articles[0].Title)
	assert.Equal(t, "techcrunch.com", articles[0].Source)
	assert.Equal(t, 0.91, articles[0].Score)
}

func TestTavilySearch_RateLimited(t *testing.T) {
	client := newFakeTavily(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), Query{Text: "anything"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestTavilySearch_ServerError(t *testing.T) {
	client := newFakeTavily(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Search(context.Background(), Query{Text: "anything"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTavilyExtract(t *testing.T) {
	client := newFakeTavily(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"url": "https://example.com/a", "raw_content": "full text"},
			},
		})
	})

	contents, err := client.Extract(context.Background(), []string{"https://example.com/a"})
	assert.Equal(t, err, nil)
	assert.Equal(t, "full text", contents["https://example.com/a"])
}

func TestApplySearchDefaults(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantTopic      string
		wantTimeRange  string
		wantMaxResults int
	}{
		{
			name:           "news query gets news defaults",
			query:          "breaking news about rate cuts",
			wantTopic:      "news",
			wantTimeRange:  "week",
			wantMaxResults: 8,
		},
		{
			name:           "generic query gets generic defaults",
			query:          "history of the transistor",
			wantTopic:      "",
			wantTimeRange:  "",
			wantMaxResults: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tavilySearchRequest{Query: tt.query}
			applySearchDefaults(&r)
			assert.Equal(t, tt.wantTopic, r.Topic)
			assert.Equal(t, tt.wantTimeRange, r.TimeRange)
			assert.Equal(t, tt.wantMaxResults, r.MaxResults)
		})
	}
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "techcrunch.com", domainOf("https://www.techcrunch.com/2026/story"))
	assert.Equal(t, "theverge.com", domainOf("https://theverge.com"))
	assert.Equal(t, "", domainOf(""))
}
