package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nickhawn/news-agent/internal/config"
	"github.com/nickhawn/news-agent/internal/intent"
	"github.com/nickhawn/news-agent/internal/model"
	"github.com/nickhawn/news-agent/internal/profile"
	"github.com/nickhawn/news-agent/pkg/llm"
	"github.com/nickhawn/news-agent/pkg/news"
)

// Response is one conversational turn's outcome.
type Response struct {
	Intent model.Intent
	Reply  string
}

// Assistant routes a free-text message to the matching intent handler. Each
// handler composes searches and one summarization call around the preference
// store. External failures degrade the reply; they never fail the turn.
type Assistant struct {
	store      *profile.Store
	classifier *intent.Classifier
	search     news.SearchClient
	completer  llm.Completer

	defaults    config.DefaultsConfig
	maxArticles int
	maxTokens   int
	callTimeout time.Duration

	mu    sync.Mutex
	named map[string]news.SearchClient
	// lastShown remembers each profile's previous results so a feedback turn
	// can attribute reactions to the articles it is reacting to.
	lastShown map[string][]model.ArticleRecord
}

func New(store *profile.Store, classifier *intent.Classifier, search news.SearchClient, completer llm.Completer, cfg *config.Config) *Assistant {
	return &Assistant{
		store:       store,
		classifier:  classifier,
		search:      search,
		completer:   completer,
		defaults:    cfg.Defaults,
		maxArticles: cfg.Search.MaxArticles,
		maxTokens:   cfg.LLM.MaxTokens,
		callTimeout: cfg.CallTimeout(),
		named:       make(map[string]news.SearchClient),
		lastShown:   make(map[string][]model.ArticleRecord),
	}
}

// RegisterSource attaches a dedicated connector for a named source, reachable
// from source-summary requests under any of the given aliases.
func (a *Assistant) RegisterSource(client news.SearchClient, aliases ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, alias := range aliases {
		a.named[model.NormalizeName(alias)] = client
	}
}

func (a *Assistant) Respond(ctx context.Context, profileID, message string) Response {
	prof, err := a.store.Get(ctx, profileID)
	if err != nil {
		// A broken store must not kill the turn; personalize with nothing.
		slog.Error("loading profile, continuing unpersonalized", "profile_id", profileID, "error", err)
		prof = model.NewProfile(profileID)
	}

	detected := a.classifier.Classify(ctx, message, a.knownSourceNames(prof))

	var reply string
	switch detected {
	case model.IntentFeedback:
		reply = a.handleFeedback(ctx, profileID, message)
	case model.IntentFact:
		reply = a.handleFact(ctx, profileID, prof)
	case model.IntentSourceSummary:
		reply = a.handleSourceSummary(ctx, profileID, prof, message)
	default:
		reply = a.handleDigest(ctx, profileID, prof)
	}

	return Response{Intent: detected, Reply: reply}
}

func (a *Assistant) handleDigest(ctx context.Context, profileID string, prof *model.PreferenceProfile) string {
	sources := a.preferredSources(prof, 5)
	topics := a.preferredTopics(prof, 5)

	articles := a.searchSources(ctx, sources, topics)
	if len(articles) == 0 {
		return "No news found from your preferred sources right now. Try again later, or tell me about other sources you'd like me to watch."
	}

	ranked := rankArticles(articles, prof, a.maxArticles)
	a.rememberShown(profileID, ranked)

	prompt := fmt.Sprintf(digestPrompt, formatTopics(topics), formatArticles(ranked))
	return a.summarize(ctx, prompt, ranked)
}

func (a *Assistant) handleFact(ctx context.Context, profileID string, prof *model.PreferenceProfile) string {
	topics := a.preferredTopics(prof, 3)

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	articles, err := a.search.Search(callCtx, news.Query{
		Text:       "surprising or quirky recent news about " + formatTopics(topics),
		MaxResults: 10,
		TimeRange:  "day",
		Topic:      "news",
	})
	if err != nil {
		slog.Warn("fact search failed", "error", err)
	}
	if len(articles) == 0 {
		return "No news found to pull a fact from right now. Try again later."
	}

	ranked := rankArticles(toRecords(articles), prof, 5)
	a.rememberShown(profileID, ranked)

	prompt := fmt.Sprintf(factPrompt, formatArticles(ranked))
	return a.summarize(ctx, prompt, ranked)
}

func (a *Assistant) handleSourceSummary(ctx context.Context, profileID string, prof *model.PreferenceProfile, message string) string {
	source, client := a.resolveSource(prof, message)
	if source == "" {
		// No recognizable source in the message; the digest is the documented
		// fallback for ambiguity.
		return a.handleDigest(ctx, profileID, prof)
	}

	topics := a.preferredTopics(prof, 3)

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	var articles []news.Article
	var err error
	if client != nil {
		articles, err = client.Search(callCtx, news.Query{MaxResults: 10})
	} else {
		q := news.Query{
			Text:       fmt.Sprintf("latest news from %s about %s", source, formatTopics(topics)),
			MaxResults: 10,
			TimeRange:  "week",
			Topic:      "news",
		}
		if strings.Contains(source, ".") {
			q.IncludeDomains = []string{source}
		}
		articles, err = a.search.Search(callCtx, q)
	}

	if err != nil {
		slog.Warn("source summary search failed", "source", source, "error", err)
		return fmt.Sprintf("I couldn't reach %s's coverage right now. Please try again in a bit.", source)
	}
	if len(articles) == 0 {
		return fmt.Sprintf("No recent news found from %s.", source)
	}

	ranked := rankArticles(toRecords(articles), prof, a.maxArticles)
	a.enrichSnippets(ctx, ranked)
	a.rememberShown(profileID, ranked)

	prompt := fmt.Sprintf(sourceSummaryPrompt, source, formatArticles(ranked))
	return a.summarize(ctx, prompt, ranked)
}

const (
	thinSnippetLen    = 80
	maxExtractedChars = 600
)

// enrichSnippets replaces too-thin search snippets with extracted page
// content when the connector can fetch it. Extraction failures keep the
// original snippets; a shorter summary beats a failed turn.
func (a *Assistant) enrichSnippets(ctx context.Context, records []model.ArticleRecord) {
	extractor, ok := a.search.(news.ContentExtractor)
	if !ok {
		return
	}

	var urls []string
	for _, rec := range records {
		if rec.URL != "" && len(rec.Snippet) < thinSnippetLen {
			urls = append(urls, rec.URL)
		}
	}
	if len(urls) == 0 {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	contents, err := extractor.Extract(callCtx, urls)
	if err != nil {
		slog.Warn("content extraction failed, keeping snippets", "error", err)
		return
	}

	for i := range records {
		content := strings.TrimSpace(contents[records[i].URL])
		if len(content) <= len(records[i].Snippet) {
			continue
		}
		if len(content) > maxExtractedChars {
			cut := maxExtractedChars
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
		}
		records[i].Snippet = content
	}
}

func (a *Assistant) handleFeedback(ctx context.Context, profileID, message string) string {
	applied, err := a.store.ApplyFeedback(ctx, profileID, message, a.recallShown(profileID))
	if err != nil {
		slog.Error("applying feedback", "profile_id", profileID, "error", err)
		return "Thanks for the feedback — I couldn't save it just now, so please tell me again later."
	}
	if len(applied) == 0 {
		return "Thanks! I didn't spot a concrete source or topic preference in that, so nothing changed."
	}

	parts := make([]string, 0, len(applied))
	for _, adj := range applied {
		direction := "more"
		if adj.Delta < 0 {
			direction = "less"
		}
		parts = append(parts, fmt.Sprintf("%s %s", direction, adj.Name))
	}
	return "Got it — noted: " + strings.Join(parts, ", ") + "."
}

// searchSources fans one query per preferred source out concurrently. A
// failed source just means fewer candidates.
func (a *Assistant) searchSources(ctx context.Context, sources, topics []string) []model.ArticleRecord {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		all []model.ArticleRecord
	)

	for _, source := range sources {
		wg.Add(1)
		go func(source string) {
			defer wg.Done()

			q := news.Query{
				Text:       fmt.Sprintf("latest %s news from %s", formatTopics(topics), source),
				MaxResults: 5,
				TimeRange:  "day",
				Topic:      "news",
			}
			if strings.Contains(source, ".") {
				q.IncludeDomains = []string{source}
			}

			articles, err := a.search.Search(callCtx, q)
			if err != nil {
				slog.Warn("source search failed, degrading", "source", source, "error", err)
				return
			}

			mu.Lock()
			all = append(all, toRecords(articles)...)
			mu.Unlock()
		}(source)
	}
	wg.Wait()

	return all
}

func (a *Assistant) summarize(ctx context.Context, prompt string, shown []model.ArticleRecord) string {
	if a.completer == nil {
		return fallbackListing(shown)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	reply, err := a.completer.Complete(callCtx, prompt, a.maxTokens)
	if err != nil {
		slog.Warn("summarization failed, returning article listing", "error", err)
		return fallbackListing(shown)
	}
	return reply
}

// preferredSources is the profile's top sources padded with configured seeds
// so a fresh profile still gets a useful digest.
func (a *Assistant) preferredSources(prof *model.PreferenceProfile, k int) []string {
	names := weightNames(profile.TopWeights(prof.Sources, k))
	for _, seed := range a.defaults.Sources {
		if len(names) >= k {
			break
		}
		if prof.SourceWeight(seed) == 0 && !containsFold(names, seed) {
			names = append(names, seed)
		}
	}
	return names
}

func (a *Assistant) preferredTopics(prof *model.PreferenceProfile, k int) []string {
	names := weightNames(profile.TopWeights(prof.Topics, k))
	for _, seed := range a.defaults.Topics {
		if len(names) >= k {
			break
		}
		if !containsFold(names, seed) {
			names = append(names, seed)
		}
	}
	return names
}

// resolveSource finds which source a source-summary request names: dedicated
// connectors first, then profile sources, then configured seeds.
func (a *Assistant) resolveSource(prof *model.PreferenceProfile, message string) (string, news.SearchClient) {
	text := strings.ToLower(message)

	a.mu.Lock()
	for alias, client := range a.named {
		if strings.Contains(text, alias) {
			a.mu.Unlock()
			return client.Name(), client
		}
	}
	a.mu.Unlock()

	for _, w := range prof.Sources {
		if w.Name != "" && strings.Contains(text, strings.ToLower(w.Name)) {
			return w.Name, nil
		}
	}
	for _, seed := range a.defaults.Sources {
		if strings.Contains(text, strings.ToLower(seed)) {
			return seed, nil
		}
	}
	return "", nil
}

func (a *Assistant) knownSourceNames(prof *model.PreferenceProfile) []string {
	var names []string

	a.mu.Lock()
	for alias := range a.named {
		names = append(names, alias)
	}
	a.mu.Unlock()

	for _, w := range prof.Sources {
		names = append(names, w.Name)
	}
	return append(names, a.defaults.Sources...)
}

func (a *Assistant) rememberShown(profileID string, shown []model.ArticleRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastShown[profileID] = shown
}

func (a *Assistant) recallShown(profileID string) []model.ArticleRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastShown[profileID]
}

func toRecords(articles []news.Article) []model.ArticleRecord {
	records := make([]model.ArticleRecord, len(articles))
	for i, a := range articles {
		records[i] = model.ArticleRecord{
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source,
			Snippet:     a.Snippet,
			PublishedAt: a.PublishedAt,
			Score:       a.Score,
		}
	}
	return records
}

func weightNames(weights []model.PreferenceWeight) []string {
	names := make([]string, 0, len(weights))
	for _, w := range weights {
		names = append(names, w.Name)
	}
	return names
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
