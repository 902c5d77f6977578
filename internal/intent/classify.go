package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nickhawn/news-agent/internal/model"
	"github.com/nickhawn/news-agent/pkg/llm"
)

const classifyPrompt = `Classify a request to a personal news assistant into exactly one intent.

Intents:
- daily_digest: a roundup of today's or recent news
- fact: one interesting, surprising, or fun news fact
- source_summary: news from one specific named publication
- feedback: a reaction to previously shown news (likes, dislikes, preferences)

Reply with the intent name only, nothing else.

Request:
%s`

// intentKeywords is the cheap deterministic pass. Each phrase is matched
// against the lowercased message; first hit in this order wins.
var intentKeywords = []struct {
	intent  model.Intent
	phrases []string
}{
	{model.IntentFeedback, []string{
		"loved", "hated", "liked", "disliked", "more of", "less of", "fewer",
		"prefer", "prioritise", "prioritize", "stop showing", "not interested",
		"feedback", "i love", "i hate", "i like", "i dislike", "too much",
	}},
	{model.IntentFact, []string{
		"fun fact", "fact", "something interesting", "surprise me",
		"something quirky", "surprising",
	}},
	{model.IntentSourceSummary, []string{
		"summary from", "summarize from", "only from", "just from", "what does",
	}},
	{model.IntentDailyDigest, []string{
		"digest", "debrief", "roundup", "round-up", "today's news",
		"daily news", "catch me up", "what's happening", "headlines", "briefing",
	}},
}

// matchesPhrase reports whether phrase occurs in the lowercased text.
// Single words only match on word boundaries, so "fact" does not fire
// inside "factory". Multi-word phrases already carry their own boundaries.
func matchesPhrase(text, phrase string) bool {
	if strings.ContainsRune(phrase, ' ') {
		return strings.Contains(text, phrase)
	}

	for start := 0; start <= len(text)-len(phrase); {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if (i == 0 || !isWordChar(text[i-1])) && (end == len(text) || !isWordChar(text[end])) {
			return true
		}
		start = i + 1
	}
	return false
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// Classifier routes free text onto the fixed intent set. Keyword rules run
// first; the model is only consulted when no rule fires, and any failure or
// out-of-set answer falls back to the daily digest.
type Classifier struct {
	completer llm.Completer
}

func NewClassifier(completer llm.Completer) *Classifier {
	return &Classifier{completer: completer}
}

func (c *Classifier) Classify(ctx context.Context, message string, knownSources []string) model.Intent {
	text := strings.ToLower(message)

	for _, group := range intentKeywords {
		for _, phrase := range group.phrases {
			if matchesPhrase(text, phrase) {
				return group.intent
			}
		}
	}

	// A request that names a known source is a source summary even without
	// one of the explicit phrasings.
	for _, source := range knownSources {
		s := strings.ToLower(strings.TrimSpace(source))
		if s != "" && strings.Contains(text, s) {
			return model.IntentSourceSummary
		}
	}

	if c.completer == nil {
		return model.IntentDailyDigest
	}

	reply, err := c.completer.Complete(ctx, fmt.Sprintf(classifyPrompt, message), 16)
	if err != nil {
		slog.Warn("intent classification failed, defaulting to digest", "error", err)
		return model.IntentDailyDigest
	}

	intent, ok := model.ParseIntent(strings.TrimSpace(strings.ToLower(reply)))
	if !ok {
		slog.Warn("out-of-set intent reply, defaulting to digest", "reply", reply)
		return model.IntentDailyDigest
	}
	return intent
}
