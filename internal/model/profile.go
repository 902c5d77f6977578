package model

import (
	"strings"
	"time"
)

// PreferenceWeight is one versioned preference record. Weight is always
// non-negative; a name that is absent from its map has weight zero.
type PreferenceWeight struct {
	Name        string    `json:"name"`
	Weight      float64   `json:"weight"`
	LastUpdated time.Time `json:"last_updated"`
}

// PreferenceProfile holds the two independent preference mappings for one
// user: preferred news sources and preferred content topics. Maps are keyed
// by the normalized (lowercase) name so a name appears at most once.
type PreferenceProfile struct {
	ID      string                      `json:"id"`
	Sources map[string]PreferenceWeight `json:"sources"`
	Topics  map[string]PreferenceWeight `json:"topics"`
	Version int64                       `json:"version"`
}

// NewProfile returns an empty profile for the given id.
func NewProfile(id string) *PreferenceProfile {
	return &PreferenceProfile{
		ID:      id,
		Sources: make(map[string]PreferenceWeight),
		Topics:  make(map[string]PreferenceWeight),
	}
}

// NormalizeName is the canonical map key for a source or topic name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SourceWeight returns the stored weight for a source, zero when absent.
func (p *PreferenceProfile) SourceWeight(name string) float64 {
	return p.Sources[NormalizeName(name)].Weight
}

// TopicWeight returns the stored weight for a topic, zero when absent.
func (p *PreferenceProfile) TopicWeight(name string) float64 {
	return p.Topics[NormalizeName(name)].Weight
}

// AdjustmentKind says whether a feedback adjustment targets a source or a topic.
type AdjustmentKind string

const (
	AdjustSource AdjustmentKind = "source"
	AdjustTopic  AdjustmentKind = "topic"
)

// Adjustment is one (name, delta) pair extracted from a feedback message.
type Adjustment struct {
	Kind  AdjustmentKind
	Name  string
	Delta float64
}
