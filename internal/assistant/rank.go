package assistant

import (
	"sort"
	"strings"

	"github.com/nickhawn/news-agent/internal/model"
)

// rankArticles orders candidates by how well they match the profile: the
// source weight counts double, every preferred topic mentioned in the title
// or snippet counts once, and the connector's own relevance score breaks
// near-ties. At most limit articles survive. Duplicate URLs are dropped.
func rankArticles(articles []model.ArticleRecord, profile *model.PreferenceProfile, limit int) []model.ArticleRecord {
	seen := make(map[string]bool, len(articles))
	ranked := make([]model.ArticleRecord, 0, len(articles))

	for _, a := range articles {
		if a.URL == "" || seen[a.URL] {
			continue
		}
		seen[a.URL] = true

		a.Score += 2 * profile.SourceWeight(a.Source)

		text := strings.ToLower(a.Title + " " + a.Snippet)
		for _, topic := range profile.Topics {
			if topic.Weight > 0 && strings.Contains(text, strings.ToLower(topic.Name)) {
				a.Score += topic.Weight
			}
		}

		ranked = append(ranked, a)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PublishedAt.After(ranked[j].PublishedAt)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
