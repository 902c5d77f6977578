package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTavilyBaseURL = "https://api.tavily.com"

type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    defaultTavilyBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewTavilyClientWithBaseURL is used by tests to point at a fake server.
func NewTavilyClientWithBaseURL(apiKey, baseURL string) *TavilyClient {
	c := NewTavilyClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *TavilyClient) Name() string {
	return "Tavily"
}

func (c *TavilyClient) Search(ctx context.Context, q Query) ([]Article, error) {
	body := tavilySearchRequest{
		Query:          q.Text,
		MaxResults:     q.MaxResults,
		Topic:          q.Topic,
		TimeRange:      q.TimeRange,
		SearchDepth:    "advanced",
		IncludeDomains: q.IncludeDomains,
	}
	applySearchDefaults(&body)

	var raw tavilySearchResponse
	if err := c.post(ctx, "/search", body, &raw); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(raw.Results))
	for _, item := range raw.Results {
		publishedAt, err := time.Parse(time.RFC3339, item.PublishedDate)
		if err != nil {
			publishedAt = time.Time{}
		}

		articles = append(articles, Article{
			Title:       item.Title,
			URL:         item.URL,
			Snippet:     item.Content,
			Source:      domainOf(item.URL),
			PublishedAt: publishedAt,
			Score:       item.Score,
		})
	}

	return articles, nil
}

// Extract fetches the page content of the given URLs, for requests where
// search snippets are too thin to summarize from.
func (c *TavilyClient) Extract(ctx context.Context, urls []string) (map[string]string, error) {
	body := tavilyExtractRequest{URLs: urls, Format: "markdown"}

	var raw tavilyExtractResponse
	if err := c.post(ctx, "/extract", body, &raw); err != nil {
		return nil, err
	}

	contents := make(map[string]string, len(raw.Results))
	for _, r := range raw.Results {
		contents[r.URL] = r.RawContent
	}
	return contents, nil
}

func (c *TavilyClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("tavily marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tavily %s: %w: %w", path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("tavily %s: %w", path, ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("tavily %s: status %d: %w", path, resp.StatusCode, ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("tavily %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tavily decode: %w", err)
	}
	return nil
}

// applySearchDefaults fills the parameters the caller left unset, with the
// news-oriented heuristics keyed off the query wording.
func applySearchDefaults(r *tavilySearchRequest) {
	query := strings.ToLower(r.Query)

	newsish := false
	for _, word := range []string{"news", "recent", "latest", "breaking", "today"} {
		if strings.Contains(query, word) {
			newsish = true
			break
		}
	}

	if newsish {
		if r.Topic == "" {
			r.Topic = "news"
		}
		if r.TimeRange == "" {
			r.TimeRange = "week"
		}
		if r.MaxResults == 0 {
			r.MaxResults = 8
		}
	}

	if r.MaxResults == 0 {
		r.MaxResults = 10
	}
}

func domainOf(rawURL string) string {
	s := rawURL
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[i+2:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "www.")
}

type tavilySearchRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	TimeRange      string   `json:"time_range,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilySearchResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

type tavilyExtractRequest struct {
	URLs   []string `json:"urls"`
	Format string   `json:"format,omitempty"`
}

type tavilyExtractResponse struct {
	Results []struct {
		URL        string `json:"url"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
}
