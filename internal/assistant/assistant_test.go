package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/nickhawn/news-agent/internal/config"
	"github.com/nickhawn/news-agent/internal/feedback"
	"github.com/nickhawn/news-agent/internal/intent"
	"github.com/nickhawn/news-agent/internal/model"
	"github.com/nickhawn/news-agent/internal/profile"
	"github.com/nickhawn/news-agent/internal/repository"
	"github.com/nickhawn/news-agent/pkg/news"
)

// fakeSearch is hit concurrently by the digest fan-out.
type fakeSearch struct {
	mu       sync.Mutex
	articles []news.Article
	err      error
	queries  []news.Query
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(ctx context.Context, q news.Query) ([]news.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.articles, f.err
}

func (f *fakeSearch) recorded() []news.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]news.Query(nil), f.queries...)
}

type fakeCompleter struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) ModelName() string { return "fake" }

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

// extractingSearch adds page extraction on top of fakeSearch.
type extractingSearch struct {
	fakeSearch
	contents   map[string]string
	extractErr error
	extracted  [][]string
}

func (f *extractingSearch) Extract(ctx context.Context, urls []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracted = append(f.extracted, urls)
	return f.contents, f.extractErr
}

func sampleArticles() []news.Article {
	return []news.Article{
		{
			Title:       "AI chips keep shrinking",
			URL:         "https://techcrunch.com/ai-chips",
			Source:      "techcrunch.com",
			Snippet:     "Chipmakers push AI inference to the edge.",
			PublishedAt: time.Now(),
			Score:       0.8,
		},
		{
			Title:       "Markets rally on rate pause",
			URL:         "https://reuters.com/markets",
			Source:      "reuters.com",
			Snippet:     "Stocks climbed after the central bank held rates.",
			PublishedAt: time.Now().Add(-time.Hour),
			Score:       0.7,
		},
	}
}

func newTestAssistant(t *testing.T, search news.SearchClient, completer *fakeCompleter) *Assistant {
	t.Helper()

	repo, err := repository.NewFileProfileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("creating repo: %v", err)
	}
	store := profile.NewStore(repo, feedback.KeywordExtractor{})

	cfg, _ := config.Load("does-not-exist.yaml")
	return New(store, intent.NewClassifier(nil), search, completer, cfg)
}

func TestRespond_DigestHappyPath(t *testing.T) {
	search := &fakeSearch{articles: sampleArticles()}
	a := newTestAssistant(t, search, &fakeCompleter{reply: "**AI**\n- [AI chips keep shrinking](https://techcrunch.com/ai-chips): summary"})

	res := a.Respond(context.Background(), "alice", "today's digest please")
	assert.Equal(t, model.IntentDailyDigest, res.Intent)
	if !strings.Contains(res.Reply, "AI chips keep shrinking") {
		t.Fatalf("digest reply missing summary: %q", res.Reply)
	}
	if len(search.recorded()) == 0 {
		t.Fatal("digest should search preferred sources")
	}
}

func TestRespond_DigestWithEmptyProfileUsesSeeds(t *testing.T) {
	search := &fakeSearch{articles: sampleArticles()}
	a := newTestAssistant(t, search, &fakeCompleter{reply: "summary"})

	// No profile exists for this id; seeds must still drive the search.
	res := a.Respond(context.Background(), "newcomer", "today's digest please")
	assert.Equal(t, model.IntentDailyDigest, res.Intent)

	var sawSeedSource bool
	for _, q := range search.recorded() {
		if strings.Contains(q.Text, "TechCrunch") {
			sawSeedSource = true
		}
	}
	assert.Equal(t, true, sawSeedSource)
}

func TestRespond_DigestNoArticlesIsNotAnError(t *testing.T) {
	a := newTestAssistant(t, &fakeSearch{}, &fakeCompleter{reply: "unreached"})

	res := a.Respond(context.Background(), "alice", "today's digest please")
	if !strings.Contains(res.Reply, "No news found") {
		t.Fatalf("expected no-news reply, got %q", res.Reply)
	}
}

func TestRespond_DigestSummarizerDownDegrades(t *testing.T) {
	a := newTestAssistant(t, &fakeSearch{articles: sampleArticles()}, &fakeCompleter{err: errors.New("llm down")})

	res := a.Respond(context.Background(), "alice", "today's digest please")
	if !strings.Contains(res.Reply, "https://techcrunch.com/ai-chips") {
		t.Fatalf("degraded reply should list found articles, got %q", res.Reply)
	}
}

func TestRespond_SearchDownDegradesToNoNews(t *testing.T) {
	a := newTestAssistant(t, &fakeSearch{err: news.ErrUnavailable}, &fakeCompleter{reply: "unreached"})

	res := a.Respond(context.Background(), "alice", "today's digest please")
	assert.Equal(t, model.IntentDailyDigest, res.Intent)
	if !strings.Contains(res.Reply, "No news found") {
		t.Fatalf("expected degraded no-news reply, got %q", res.Reply)
	}
}

func TestRespond_FeedbackUpdatesProfile(t *testing.T) {
	search := &fakeSearch{articles: []news.Article{{
		Title: "New AI model", URL: "https://techcrunch.com/x", Source: "TechCrunch",
	}}}
	a := newTestAssistant(t, search, &fakeCompleter{reply: "digest"})
	ctx := context.Background()

	// First show articles, then react to them.
	a.Respond(ctx, "alice", "today's digest please")
	res := a.Respond(ctx, "alice", "I loved the TechCrunch AI story")

	assert.Equal(t, model.IntentFeedback, res.Intent)
	if !strings.Contains(res.Reply, "TechCrunch") {
		t.Fatalf("acknowledgement should name the source, got %q", res.Reply)
	}

	prof, err := a.store.Get(ctx, "alice")
	assert.Equal(t, err, nil)
	if prof.SourceWeight("TechCrunch") <= 0 {
		t.Fatal("positive feedback should raise the TechCrunch weight")
	}
	assert.Equal(t, 0.0, prof.SourceWeight("Reuters"))
}

func TestRespond_FeedbackWithoutSignal(t *testing.T) {
	a := newTestAssistant(t, &fakeSearch{}, &fakeCompleter{})

	res := a.Respond(context.Background(), "alice", "that was feedback I guess")
	assert.Equal(t, model.IntentFeedback, res.Intent)
	if !strings.Contains(res.Reply, "nothing changed") {
		t.Fatalf("expected no-op acknowledgement, got %q", res.Reply)
	}
}

func TestRespond_SourceSummary(t *testing.T) {
	search := &fakeSearch{articles: sampleArticles()}
	a := newTestAssistant(t, search, &fakeCompleter{reply: "verge summary"})

	res := a.Respond(context.Background(), "alice", "give me a summary from The Verge")
	assert.Equal(t, model.IntentSourceSummary, res.Intent)
	assert.Equal(t, "verge summary", res.Reply)
}

func TestRespond_SourceSummaryExtractsThinSnippets(t *testing.T) {
	search := &extractingSearch{
		fakeSearch: fakeSearch{articles: []news.Article{{
			Title:   "Headset review",
			URL:     "https://theverge.com/headset",
			Source:  "theverge.com",
			Snippet: "Short.",
		}}},
		contents: map[string]string{
			"https://theverge.com/headset": "The Verge reports the new headset ships with a redesigned strap and noticeably longer battery life.",
		},
	}
	completer := &fakeCompleter{reply: "verge summary"}
	a := newTestAssistant(t, search, completer)

	res := a.Respond(context.Background(), "alice", "give me a summary from The Verge")
	assert.Equal(t, model.IntentSourceSummary, res.Intent)
	assert.Equal(t, "verge summary", res.Reply)

	assert.Equal(t, 1, len(search.extracted))
	assert.Equal(t, []string{"https://theverge.com/headset"}, search.extracted[0])
	if !strings.Contains(completer.lastPrompt, "redesigned strap") {
		t.Fatalf("prompt should carry extracted content, got %q", completer.lastPrompt)
	}
}

func TestRespond_SourceSummaryExtractFailureKeepsSnippets(t *testing.T) {
	search := &extractingSearch{
		fakeSearch: fakeSearch{articles: []news.Article{{
			Title:   "Headset review",
			URL:     "https://theverge.com/headset",
			Source:  "theverge.com",
			Snippet: "Short.",
		}}},
		extractErr: news.ErrUnavailable,
	}
	completer := &fakeCompleter{reply: "verge summary"}
	a := newTestAssistant(t, search, completer)

	res := a.Respond(context.Background(), "alice", "give me a summary from The Verge")
	assert.Equal(t, "verge summary", res.Reply)
	if !strings.Contains(completer.lastPrompt, "Short.") {
		t.Fatalf("failed extraction should keep the search snippet, got %q", completer.lastPrompt)
	}
}

func TestRespond_SourceSummarySkipsExtractionForRichSnippets(t *testing.T) {
	search := &extractingSearch{
		fakeSearch: fakeSearch{articles: []news.Article{{
			Title:   "Headset review",
			URL:     "https://theverge.com/headset",
			Source:  "theverge.com",
			Snippet: strings.Repeat("A detailed snippet with plenty of substance. ", 4),
		}}},
	}
	a := newTestAssistant(t, search, &fakeCompleter{reply: "verge summary"})

	a.Respond(context.Background(), "alice", "give me a summary from The Verge")
	assert.Equal(t, 0, len(search.extracted))
}

func TestRespond_NamedConnectorForSourceSummary(t *testing.T) {
	tavily := &fakeSearch{}
	a := newTestAssistant(t, tavily, &fakeCompleter{reply: "market summary"})

	market := &fakeSearch{articles: sampleArticles()}
	a.RegisterSource(market, "finnhub", "market news")

	res := a.Respond(context.Background(), "alice", "summary from finnhub please")
	assert.Equal(t, model.IntentSourceSummary, res.Intent)
	assert.Equal(t, "market summary", res.Reply)
	assert.Equal(t, 1, len(market.recorded()))
	assert.Equal(t, 0, len(tavily.recorded()))
}

func TestRankArticles_ProfileWeightsWin(t *testing.T) {
	prof := model.NewProfile("alice")
	prof.Sources["reuters.com"] = model.PreferenceWeight{Name: "reuters.com", Weight: 5}

	ranked := rankArticles(toRecords(sampleArticles()), prof, 10)
	assert.Equal(t, "reuters.com", ranked[0].Source)
}

func TestRankArticles_TopicMentionsScore(t *testing.T) {
	prof := model.NewProfile("alice")
	prof.Topics["ai"] = model.PreferenceWeight{Name: "AI", Weight: 3}

	ranked := rankArticles(toRecords(sampleArticles()), prof, 10)
	assert.Equal(t, "AI chips keep shrinking", ranked[0].Title)
}

func TestRankArticles_DedupesAndCaps(t *testing.T) {
	articles := append(toRecords(sampleArticles()), toRecords(sampleArticles())...)

	ranked := rankArticles(articles, model.NewProfile("alice"), 1)
	assert.Equal(t, 1, len(ranked))
}
