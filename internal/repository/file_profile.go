package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nickhawn/news-agent/internal/model"
)

// FileProfileRepository keeps one JSON file per profile under dir. Writes go
// through a temp file and rename so readers never see a partial profile, and
// a per-profile mutex serializes read-modify-write cycles.
type FileProfileRepository struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileProfileRepository(dir string) (*FileProfileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return &FileProfileRepository{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (r *FileProfileRepository) Get(ctx context.Context, profileID string) (*model.PreferenceProfile, error) {
	lock := r.profileLock(profileID)
	lock.Lock()
	defer lock.Unlock()

	return r.read(profileID)
}

func (r *FileProfileRepository) ApplyAdjustments(ctx context.Context, profileID string, adjustments []model.Adjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	lock := r.profileLock(profileID)
	lock.Lock()
	defer lock.Unlock()

	profile, err := r.read(profileID)
	if err == ErrNotFound {
		profile = model.NewProfile(profileID)
	} else if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, a := range adjustments {
		mapping := profile.Sources
		if a.Kind == model.AdjustTopic {
			mapping = profile.Topics
		}

		key := model.NormalizeName(a.Name)
		record, ok := mapping[key]
		if !ok {
			record = model.PreferenceWeight{Name: strings.TrimSpace(a.Name)}
		}

		record.Weight += a.Delta
		if record.Weight < 0 {
			record.Weight = 0
		}
		record.LastUpdated = now
		mapping[key] = record
	}
	profile.Version++

	return r.write(profile)
}

func (r *FileProfileRepository) read(profileID string) (*model.PreferenceProfile, error) {
	data, err := os.ReadFile(r.path(profileID))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", profileID, err)
	}

	var profile model.PreferenceProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", profileID, err)
	}
	if profile.Sources == nil {
		profile.Sources = make(map[string]model.PreferenceWeight)
	}
	if profile.Topics == nil {
		profile.Topics = make(map[string]model.PreferenceWeight)
	}

	return &profile, nil
}

func (r *FileProfileRepository) write(profile *model.PreferenceProfile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", profile.ID, err)
	}

	path := r.path(profile.ID)
	tmp, err := os.CreateTemp(r.dir, "profile-*.tmp")
	if err != nil {
		return fmt.Errorf("write profile %s: %w", profile.ID, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write profile %s: %w", profile.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write profile %s: %w", profile.ID, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write profile %s: %w", profile.ID, err)
	}
	return nil
}

// safeName flattens a client-supplied profile id into the characters allowed
// in a file name. Ids that flatten to the same name share one file, so the
// lock map must be keyed by this name too.
func safeName(profileID string) string {
	return strings.Map(func(c rune) rune {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			return c
		}
		return '_'
	}, profileID)
}

func (r *FileProfileRepository) path(profileID string) string {
	return filepath.Join(r.dir, safeName(profileID)+".json")
}

func (r *FileProfileRepository) profileLock(profileID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := safeName(profileID)
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}
