package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"github.com/nickhawn/news-agent/internal/assistant"
	"github.com/nickhawn/news-agent/internal/model"
)

type fakeResponder struct {
	res assistant.Response

	profileID string
	message   string
}

func (f *fakeResponder) Respond(ctx context.Context, profileID, message string) assistant.Response {
	f.profileID = profileID
	f.message = message
	return f.res
}

type fakeProfileStore struct {
	profile *model.PreferenceProfile
	err     error
}

func (f *fakeProfileStore) Get(ctx context.Context, profileID string) (*model.PreferenceProfile, error) {
	return f.profile, f.err
}

func newTestRouter(responder Responder, store ProfileStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if responder != nil {
		r.POST("/chat", NewChatHandler(responder).Chat)
	}
	if store != nil {
		h := NewProfileHandler(store)
		r.GET("/profile/:id", h.GetProfile)
		r.GET("/health", h.GetHealth)
	}
	return r
}

func postChat(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestChat_ReturnsReplyAndIntent(t *testing.T) {
	responder := &fakeResponder{res: assistant.Response{
		Intent: model.IntentDailyDigest,
		Reply:  "**Top Stories**",
	}}
	r := newTestRouter(responder, nil)

	w := postChat(t, r, `{"profile_id": "alice", "message": "what's new today?"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var res ChatResponse
	err := json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, nil, err)
	assert.Equal(t, "daily_digest", res.Intent)
	assert.Equal(t, "**Top Stories**", res.Reply)
	assert.NotEqual(t, "", res.RequestID)

	assert.Equal(t, "alice", responder.profileID)
	assert.Equal(t, "what's new today?", responder.message)
}

func TestChat_MissingFieldsReturns400(t *testing.T) {
	responder := &fakeResponder{}
	r := newTestRouter(responder, nil)

	w := postChat(t, r, `{"message": "hello"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postChat(t, r, `{"profile_id": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postChat(t, r, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProfile_ReturnsSortedWeights(t *testing.T) {
	now := time.Now()
	store := &fakeProfileStore{profile: &model.PreferenceProfile{
		ID: "alice",
		Sources: map[string]model.PreferenceWeight{
			"techcrunch": {Name: "TechCrunch", Weight: 2, LastUpdated: now},
			"reuters":    {Name: "Reuters", Weight: 5, LastUpdated: now},
		},
		Topics: map[string]model.PreferenceWeight{
			"ai": {Name: "AI", Weight: 1, LastUpdated: now},
		},
	}}
	r := newTestRouter(nil, store)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/profile/alice", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res ProfileResponse
	err := json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, nil, err)
	assert.Equal(t, "alice", res.ID)
	assert.Equal(t, 2, len(res.Sources))
	assert.Equal(t, "Reuters", res.Sources[0].Name)
	assert.Equal(t, "TechCrunch", res.Sources[1].Name)
	assert.Equal(t, 1, len(res.Topics))
	assert.Equal(t, "AI", res.Topics[0].Name)
}

func TestGetProfile_EmptyProfileReturnsEmptyLists(t *testing.T) {
	store := &fakeProfileStore{profile: model.NewProfile("nobody")}
	r := newTestRouter(nil, store)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/profile/nobody", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res ProfileResponse
	err := json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(res.Sources))
	assert.Equal(t, 0, len(res.Topics))
}

func TestGetProfile_StoreErrorReturns500(t *testing.T) {
	store := &fakeProfileStore{err: errors.New("connection refused")}
	r := newTestRouter(nil, store)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/profile/alice", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetHealth(t *testing.T) {
	r := newTestRouter(nil, &fakeProfileStore{profile: model.NewProfile("health-probe")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTestRouter(nil, &fakeProfileStore{err: errors.New("down")})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
