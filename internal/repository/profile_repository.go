package repository

import (
	"context"
	"errors"

	"github.com/nickhawn/news-agent/internal/model"
)

// ErrNotFound means no profile has been stored for the id yet. Callers must
// treat it as "empty profile", never as a fatal condition.
var ErrNotFound = errors.New("profile not found")

// ProfileRepository persists preference profiles. ApplyAdjustments must be
// atomic per profile: concurrent readers never observe a partially applied
// feedback message, and concurrent writers never lose updates.
type ProfileRepository interface {
	Get(ctx context.Context, profileID string) (*model.PreferenceProfile, error)
	ApplyAdjustments(ctx context.Context, profileID string, adjustments []model.Adjustment) error
}
