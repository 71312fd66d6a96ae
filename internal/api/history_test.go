package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/feliciasalim/PPL/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func historyRouter(s *Server, userID uint) *gin.Engine {
	r := gin.New()
	r.GET("/api/history", func(c *gin.Context) {
		c.Set("userID", userID)
		s.handleListHistory(c)
	})
	r.GET("/api/history/:id", func(c *gin.Context) {
		c.Set("userID", userID)
		s.handleHistoryDetail(c)
	})
	return r
}

func TestHistoryDetail_RejectsLiteralJunkIDs(t *testing.T) {
	s := newTestServer()
	s.history = &mockHistoryStore{getOwnedFunc: func(ctx context.Context, id string, userID uint) (*model.HistoryEntry, error) {
		t.Fatal("store must not be queried for junk ids")
		return nil, nil
	}}
	r := historyRouter(s, 1)

	for _, id := range []string{"undefined", "null"} {
		req := httptest.NewRequest(http.MethodGet, "/api/history/"+id, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", id, w.Code)
		}
	}
}

// A row owned by someone else and a row that does not exist must be
// indistinguishable to the caller.
func TestHistoryDetail_OwnershipMissLooksLikeNotFound(t *testing.T) {
	owner := uint(1)
	entry := model.HistoryEntry{ID: "abc-123", UserID: &owner, Emotion: "sad"}

	s := newTestServer()
	s.history = &mockHistoryStore{getOwnedFunc: func(ctx context.Context, id string, userID uint) (*model.HistoryEntry, error) {
		if id == entry.ID && userID == owner {
			return &entry, nil
		}
		return nil, gorm.ErrRecordNotFound
	}}

	// owner sees it
	r := historyRouter(s, owner)
	req := httptest.NewRequest(http.MethodGet, "/api/history/abc-123", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("owner fetch: expected 200, got %d", w.Code)
	}

	// another user gets the same 404 as for a missing id
	r = historyRouter(s, 2)
	var bodies []string
	for _, id := range []string{"abc-123", "does-not-exist"} {
		req := httptest.NewRequest(http.MethodGet, "/api/history/"+id, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("id %q: expected 404, got %d", id, w.Code)
		}
		bodies = append(bodies, w.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("404 bodies differ: %q vs %q", bodies[0], bodies[1])
	}
}

func TestHistoryList_ReturnsOwnedEntries(t *testing.T) {
	owner := uint(1)
	score := 42.0
	entries := []model.HistoryEntry{
		{ID: "b", UserID: &owner, Emotion: "happy", StressScore: &score, Videos: `[{"title":"t","url":"u"}]`, CreatedAt: time.Now()},
		{ID: "a", UserID: &owner, Emotion: "sad", Videos: "", CreatedAt: time.Now().Add(-time.Hour)},
	}

	s := newTestServer()
	s.history = &mockHistoryStore{listByUserFunc: func(ctx context.Context, userID uint) ([]model.HistoryEntry, error) {
		if userID != owner {
			t.Fatalf("expected query for user %d, got %d", owner, userID)
		}
		return entries, nil
	}}

	r := historyRouter(s, owner)
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		History []historyPayload `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.History) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(body.History))
	}
	if body.History[0].ID != "b" {
		t.Fatalf("expected newest first, got %s", body.History[0].ID)
	}
	if len(body.History[0].Videos) != 1 {
		t.Fatalf("expected decoded videos, got %v", body.History[0].Videos)
	}
	if body.History[1].Videos == nil {
		t.Fatal("expected empty slice for malformed videos, got nil")
	}
}
