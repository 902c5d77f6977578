package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nickhawn/news-agent/internal/model"
)

type PostgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) Get(ctx context.Context, profileID string) (*model.PreferenceProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, name_key, name, weight, last_updated
		FROM preference_weight
		WHERE profile_id = $1
	`, profileID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profile := model.NewProfile(profileID)
	found := false

	for rows.Next() {
		var kind, key, name string
		var weight float64
		var lastUpdated time.Time
		if err := rows.Scan(&kind, &key, &name, &weight, &lastUpdated); err != nil {
			return nil, err
		}

		found = true
		record := model.PreferenceWeight{Name: name, Weight: weight, LastUpdated: lastUpdated}

		switch model.AdjustmentKind(kind) {
		case model.AdjustSource:
			profile.Sources[key] = record
		case model.AdjustTopic:
			profile.Topics[key] = record
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, ErrNotFound
	}

	return profile, nil
}

func (r *PostgresProfileRepository) ApplyAdjustments(ctx context.Context, profileID string, adjustments []model.Adjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, a := range adjustments {
		// name keeps the casing the user first gave; only name_key is
		// normalized, so both backends report the same display names.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO preference_weight(profile_id, kind, name_key, name, weight, last_updated)
			VALUES($1, $2, $3, $4, GREATEST(0, $5), $6)
			ON CONFLICT (profile_id, kind, name_key)
			DO UPDATE SET
				weight = GREATEST(0, preference_weight.weight + $5),
				last_updated = $6
		`, profileID, string(a.Kind), model.NormalizeName(a.Name), strings.TrimSpace(a.Name), a.Delta, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
