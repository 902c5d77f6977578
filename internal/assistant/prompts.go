package assistant

import (
	"fmt"
	"strings"

	"github.com/nickhawn/news-agent/internal/model"
)

const digestPrompt = `You are a personal news assistant writing a daily news debrief.

The user cares about these topics: %s

Summarize the articles below as valid Markdown. For every item use:

- [Article Title](URL): one-sentence summary

Group related items under bolded section headers (e.g. **AI**, **Markets**).
End with a "### Sources" heading followed by a numbered list of every link you
cited. Only cite links that appear in the articles below, and only include
links you referenced in the summary.

Articles:
%s`

const factPrompt = `You are a personal news assistant. From the articles below, pick the single most interesting, surprising, or quirky fact and share it in 2-3 sentences. Explain briefly why it is interesting. Cite the article as a Markdown link.

Articles:
%s`

const sourceSummaryPrompt = `You are a personal news assistant. Summarize the latest coverage from %s using only the articles below, as valid Markdown bullets:

- [Article Title](URL): one-sentence summary

End with a "### Sources" heading followed by a numbered list of the cited links.

Articles:
%s`

func formatArticles(articles []model.ArticleRecord) string {
	var sb strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&sb, "%d. %s\n   Source: %s\n   URL: %s\n", i+1, a.Title, a.Source, a.URL)
		if a.Snippet != "" {
			fmt.Fprintf(&sb, "   Snippet: %s\n", a.Snippet)
		}
		if !a.PublishedAt.IsZero() {
			fmt.Fprintf(&sb, "   Published: %s\n", a.PublishedAt.Format("2006-01-02"))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatTopics(topics []string) string {
	if len(topics) == 0 {
		return "general news"
	}
	return strings.Join(topics, ", ")
}

// fallbackListing is the degraded reply when the summarizer is down: the raw
// article links, so the turn still delivers something useful.
func fallbackListing(articles []model.ArticleRecord) string {
	var sb strings.Builder
	sb.WriteString("I couldn't generate a summary right now, but here is what I found:\n\n")
	for _, a := range articles {
		fmt.Fprintf(&sb, "- [%s](%s) — %s\n", a.Title, a.URL, a.Source)
	}
	return sb.String()
}
