package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nickhawn/news-agent/internal/model"
	"github.com/nickhawn/news-agent/internal/repository"
)

// Extractor turns one feedback message into weight adjustments. The related
// articles give it the sources the feedback can refer to.
type Extractor interface {
	Extract(ctx context.Context, feedback string, related []model.ArticleRecord) ([]model.Adjustment, error)
}

// Store is the preference store: the single stateful component of the
// assistant. Everything else composes external calls around it.
type Store struct {
	repo      repository.ProfileRepository
	extractor Extractor
}

func NewStore(repo repository.ProfileRepository, extractor Extractor) *Store {
	return &Store{repo: repo, extractor: extractor}
}

// Get loads a profile; a profile that does not exist yet is returned as an
// empty one, never as an error.
func (s *Store) Get(ctx context.Context, profileID string) (*model.PreferenceProfile, error) {
	p, err := s.repo.Get(ctx, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewProfile(profileID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", profileID, err)
	}
	return p, nil
}

// ApplyFeedback extracts adjustments from the feedback text and merges them
// into the stored weights. The merge is atomic per profile; the returned
// adjustments are what was applied, for user-facing acknowledgement.
func (s *Store) ApplyFeedback(ctx context.Context, profileID, feedback string, related []model.ArticleRecord) ([]model.Adjustment, error) {
	adjustments, err := s.extractor.Extract(ctx, feedback, related)
	if err != nil {
		return nil, fmt.Errorf("extract feedback: %w", err)
	}
	if len(adjustments) == 0 {
		return nil, nil
	}

	if err := s.repo.ApplyAdjustments(ctx, profileID, adjustments); err != nil {
		return nil, fmt.Errorf("save feedback for %s: %w", profileID, err)
	}
	return adjustments, nil
}

// TopSources returns the k highest-weight sources, weight descending, ties
// broken by most recent update. Zero-weight entries are omitted.
func (s *Store) TopSources(ctx context.Context, profileID string, k int) ([]model.PreferenceWeight, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return TopWeights(p.Sources, k), nil
}

// TopTopics is TopSources for the topic mapping.
func (s *Store) TopTopics(ctx context.Context, profileID string, k int) ([]model.PreferenceWeight, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return TopWeights(p.Topics, k), nil
}

// TopWeights extracts the k heaviest entries of a preference mapping, weight
// descending, most recently updated first on ties, zero weights omitted.
func TopWeights(mapping map[string]model.PreferenceWeight, k int) []model.PreferenceWeight {
	entries := make([]model.PreferenceWeight, 0, len(mapping))
	for _, w := range mapping {
		if w.Weight > 0 {
			entries = append(entries, w)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		return entries[i].LastUpdated.After(entries[j].LastUpdated)
	})

	if k >= 0 && len(entries) > k {
		entries = entries[:k]
	}
	return entries
}
