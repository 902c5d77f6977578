package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nickhawn/news-agent/internal/model"
)

type ProfileStore interface {
	Get(ctx context.Context, profileID string) (*model.PreferenceProfile, error)
}

type ProfileHandler struct {
	store ProfileStore
}

func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// GetProfile returns the stored preference weights for a profile. A profile
// that has never given feedback comes back with empty source and topic lists.
func (h *ProfileHandler) GetProfile(c *gin.Context) {

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile id is required"})
		return
	}

	profile, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		slog.Error("error fetching profile", "profile_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store error"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		ID:      profile.ID,
		Sources: toWeightResponses(profile.Sources),
		Topics:  toWeightResponses(profile.Topics),
	})
}

func (h *ProfileHandler) GetHealth(c *gin.Context) {
	_, err := h.store.Get(c.Request.Context(), "health-probe")
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"store":  "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"store":  "connected",
	})
}

func toWeightResponses(weights map[string]model.PreferenceWeight) []WeightResponse {
	res := make([]WeightResponse, 0, len(weights))
	for _, w := range weights {
		res = append(res, WeightResponse{
			Name:        w.Name,
			Weight:      w.Weight,
			LastUpdated: w.LastUpdated.Format(time.RFC3339),
		})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Weight != res[j].Weight {
			return res[i].Weight > res[j].Weight
		}
		return res[i].Name < res[j].Name
	})
	return res
}
