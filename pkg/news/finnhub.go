package news

import (
	"context"
	"fmt"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnHubClient serves market news as a named source. It ignores the query
// text (Finnhub has no free-text search) and returns the general market feed,
// so it only makes sense behind the source-summary path.
type FinnHubClient struct {
	client *finnhub.DefaultApiService
}

func NewFinnHubClient(apiKey string) *FinnHubClient {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnHubClient{client: client}
}

func (c *FinnHubClient) Name() string {
	return "Finnhub"
}

func (c *FinnHubClient) Search(ctx context.Context, q Query) ([]Article, error) {
	res, _, err := c.client.MarketNews(ctx).Category("general").Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub market news: %w: %w", ErrUnavailable, err)
	}

	limit := q.MaxResults
	if limit <= 0 {
		limit = 10
	}

	var articles []Article
	for _, item := range res {
		if len(articles) >= limit {
			break
		}

		a := Article{Source: c.Name()}
		if item.Headline != nil {
			a.Title = *item.Headline
		}
		if item.Summary != nil {
			a.Snippet = *item.Summary
		}
		if item.Url != nil {
			a.URL = *item.Url
		}
		if item.Datetime != nil {
			a.PublishedAt = time.Unix(*item.Datetime, 0)
		}

		articles = append(articles, a)
	}

	return articles, nil
}
