package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nickhawn/news-agent/internal/model"
	"github.com/nickhawn/news-agent/pkg/llm"
)

const extractPrompt = `You maintain preference profiles for a personal news assistant. Given a user's feedback message and the articles it refers to, extract which news SOURCES and which content TOPICS the feedback is about, with a sentiment per entry.

Rules:
1. Only extract sources and topics the feedback actually refers to
2. delta is 1 for positive feedback, -1 for negative feedback
3. Sources are publications or websites (e.g. "TechCrunch", "reuters.com")
4. Topics are subjects or themes (e.g. "AI", "climate policy")
5. Never mix the two: a publication is not a topic

Output as JSON only, no other text:
{
  "sources": [{"name": "TechCrunch", "delta": 1}],
  "topics": [{"name": "AI", "delta": 1}]
}

Articles shown to the user:
%s

Feedback message:
%s`

// LLMExtractor asks the summarizer model for a structured reading of the
// feedback. When the model call or its JSON fails, it falls back to the
// keyword extractor so feedback is never silently dropped on an LLM outage.
type LLMExtractor struct {
	completer llm.Completer
	fallback  KeywordExtractor
}

func NewLLMExtractor(completer llm.Completer) *LLMExtractor {
	return &LLMExtractor{completer: completer}
}

func (e *LLMExtractor) Extract(ctx context.Context, feedback string, related []model.ArticleRecord) ([]model.Adjustment, error) {
	if e.completer == nil {
		return e.fallback.Extract(ctx, feedback, related)
	}

	prompt := fmt.Sprintf(extractPrompt, formatRelated(related), feedback)

	content, err := e.completer.Complete(ctx, prompt, 512)
	if err != nil {
		slog.Warn("feedback extraction via model failed, using keyword fallback", "error", err)
		return e.fallback.Extract(ctx, feedback, related)
	}

	var parsed struct {
		Sources []struct {
			Name  string  `json:"name"`
			Delta float64 `json:"delta"`
		} `json:"sources"`
		Topics []struct {
			Name  string  `json:"name"`
			Delta float64 `json:"delta"`
		} `json:"topics"`
	}

	if err := json.Unmarshal([]byte(llm.CleanResponse(content)), &parsed); err != nil {
		slog.Warn("unparseable feedback extraction, using keyword fallback", "error", err)
		return e.fallback.Extract(ctx, feedback, related)
	}

	var adjustments []model.Adjustment
	for _, s := range parsed.Sources {
		if s.Name == "" || s.Delta == 0 {
			continue
		}
		adjustments = append(adjustments, model.Adjustment{
			Kind: model.AdjustSource, Name: s.Name, Delta: clampDelta(s.Delta),
		})
	}
	for _, t := range parsed.Topics {
		if t.Name == "" || t.Delta == 0 {
			continue
		}
		adjustments = append(adjustments, model.Adjustment{
			Kind: model.AdjustTopic, Name: t.Name, Delta: clampDelta(t.Delta),
		})
	}

	return adjustments, nil
}

func clampDelta(d float64) float64 {
	if d > 0 {
		return 1
	}
	return -1
}

func formatRelated(related []model.ArticleRecord) string {
	if len(related) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for i, a := range related {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, a.Title, a.Source)
	}
	return sb.String()
}

var positiveWords = []string{
	"love", "loved", "like", "liked", "great", "enjoyed", "more of", "more about",
	"prefer", "prioritise", "prioritize", "interested in", "excellent", "good",
}

var negativeWords = []string{
	"hate", "hated", "dislike", "disliked", "boring", "less of", "less about",
	"fewer", "stop showing", "not interested", "skip", "too much", "annoying",
}

// topicLexicon maps canonical topic names to trigger words, so the fallback
// can attribute feedback to topics without a model call.
var topicLexicon = map[string][]string{
	"AI":         {"ai", "artificial intelligence", "machine learning", "llm", "neural"},
	"technology": {"tech", "technology", "gadget", "software", "hardware"},
	"business":   {"business", "finance", "market", "economy", "economic"},
	"startups":   {"startup", "venture", "funding round", "vc"},
	"science":    {"science", "research", "study", "space"},
	"politics":   {"politics", "policy", "election", "government"},
	"climate":    {"climate", "sustainability", "green energy", "renewable"},
	"sports":     {"sports", "football", "soccer", "basketball", "tennis"},
	"crypto":     {"crypto", "bitcoin", "ethereum", "blockchain"},
	"health":     {"health", "medicine", "medical", "vaccine"},
}

// KeywordExtractor resolves one message-level sentiment and attributes it to
// every related-article source and lexicon topic the message mentions.
type KeywordExtractor struct{}

func (KeywordExtractor) Extract(ctx context.Context, feedback string, related []model.ArticleRecord) ([]model.Adjustment, error) {
	text := strings.ToLower(feedback)

	delta := sentimentOf(text)
	if delta == 0 {
		return nil, nil
	}

	var adjustments []model.Adjustment

	seen := make(map[string]bool)
	for _, a := range related {
		source := strings.TrimSpace(a.Source)
		if source == "" {
			continue
		}
		key := model.NormalizeName(source)
		if seen[key] || !mentionsSource(text, source) {
			continue
		}
		seen[key] = true
		adjustments = append(adjustments, model.Adjustment{
			Kind: model.AdjustSource, Name: source, Delta: delta,
		})
	}

	for topic, triggers := range topicLexicon {
		for _, trigger := range triggers {
			if containsWord(text, trigger) {
				adjustments = append(adjustments, model.Adjustment{
					Kind: model.AdjustTopic, Name: topic, Delta: delta,
				})
				break
			}
		}
	}

	return adjustments, nil
}

func sentimentOf(text string) float64 {
	var score float64
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return 1
	case score < 0:
		return -1
	}
	return 0
}

// mentionsSource matches both display names ("TechCrunch") and bare domains
// ("techcrunch.com") against the feedback text.
func mentionsSource(text, source string) bool {
	s := strings.ToLower(source)
	if strings.Contains(text, s) {
		return true
	}
	if host, _, found := strings.Cut(s, "."); found && len(host) > 3 {
		return strings.Contains(text, host)
	}
	return false
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isAlnum(text[start-1])
		afterOK := end == len(text) || !isAlnum(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
