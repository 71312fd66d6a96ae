package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/feliciasalim/PPL/internal/model"

	"github.com/gin-gonic/gin"
)

func score(v float64) *float64 {
	return &v
}

func TestSummarize_EmptyHistory(t *testing.T) {
	got := summarize(nil, 0)

	if got.AverageStress != 0 {
		t.Fatalf("averageStress: want 0, got %v", got.AverageStress)
	}
	if len(got.EmotionCounts) != 0 {
		t.Fatalf("emotionCounts: want empty map, got %v", got.EmotionCounts)
	}
	if len(got.StressHistory) != 0 || got.StressHistory == nil {
		t.Fatalf("stressHistory: want empty slice, got %v", got.StressHistory)
	}
	if got.LatestEmotion != "neutral" {
		t.Fatalf("latestEmotion: want neutral, got %q", got.LatestEmotion)
	}
	if got.LatestEmotionTime != nil {
		t.Fatalf("latestEmotionTime: want nil, got %v", got.LatestEmotionTime)
	}
	if got.WeeklyCount != 0 || got.TotalCount != 0 {
		t.Fatalf("counts: want 0/0, got %d/%d", got.WeeklyCount, got.TotalCount)
	}
	if got.MostCommonEmotion != "neutral" {
		t.Fatalf("mostCommonEmotion: want neutral, got %q", got.MostCommonEmotion)
	}
	if len(got.Tips) != 0 || got.Tips == nil {
		t.Fatalf("tips: want empty slice, got %v", got.Tips)
	}
}

func TestSummarize_AverageAndCounts(t *testing.T) {
	now := time.Now()
	entries := []model.HistoryEntry{
		{StressScore: score(80), Emotion: "anxious", CreatedAt: now},
		{StressScore: score(60), Emotion: "sad", CreatedAt: now.Add(-time.Hour)},
		{StressScore: score(40), Emotion: "sad", CreatedAt: now.Add(-2 * time.Hour)},
	}

	got := summarize(entries, 3)

	if got.AverageStress != 60 {
		t.Fatalf("averageStress: want 60, got %v", got.AverageStress)
	}
	if got.TotalCount != 3 {
		t.Fatalf("totalCount: want 3, got %d", got.TotalCount)
	}
	if got.WeeklyCount != 3 {
		t.Fatalf("weeklyCount: want 3, got %d", got.WeeklyCount)
	}
	if got.LatestEmotion != "anxious" {
		t.Fatalf("latestEmotion: want anxious, got %q", got.LatestEmotion)
	}
	if got.MostCommonEmotion != "sad" {
		t.Fatalf("mostCommonEmotion: want sad, got %q", got.MostCommonEmotion)
	}
	want := map[string]int{"anxious": 1, "sad": 2}
	if !reflect.DeepEqual(got.EmotionCounts, want) {
		t.Fatalf("emotionCounts: want %v, got %v", want, got.EmotionCounts)
	}
	if len(got.StressHistory) != 3 {
		t.Fatalf("stressHistory: want 3 points, got %d", len(got.StressHistory))
	}
}

// Entries without a numeric score stay out of the mean but count toward the total.
func TestSummarize_NilScoresCountInTotalOnly(t *testing.T) {
	now := time.Now()
	entries := []model.HistoryEntry{
		{StressScore: score(90), Emotion: "angry", CreatedAt: now},
		{StressScore: nil, Emotion: "neutral", CreatedAt: now.Add(-time.Hour)},
		{StressScore: score(30), Emotion: "calm", CreatedAt: now.Add(-2 * time.Hour)},
	}

	got := summarize(entries, 3)

	if got.AverageStress != 60 {
		t.Fatalf("averageStress: want 60 over scored entries, got %v", got.AverageStress)
	}
	if got.TotalCount != 3 {
		t.Fatalf("totalCount: want 3, got %d", got.TotalCount)
	}
}

// On a tie the emotion that reached the top count first wins.
func TestSummarize_MostCommonEmotionTieBreak(t *testing.T) {
	now := time.Now()
	entries := []model.HistoryEntry{
		{Emotion: "sad", CreatedAt: now},
		{Emotion: "sad", CreatedAt: now.Add(-time.Hour)},
		{Emotion: "happy", CreatedAt: now.Add(-2 * time.Hour)},
		{Emotion: "happy", CreatedAt: now.Add(-3 * time.Hour)},
	}

	got := summarize(entries, 4)

	if got.MostCommonEmotion != "sad" {
		t.Fatalf("tie-break: want sad, got %q", got.MostCommonEmotion)
	}
}

func TestSummarize_TipsExtractedFromFeedback(t *testing.T) {
	now := time.Now()
	entries := []model.HistoryEntry{
		{Feedback: "You are doing fine. Suggestion: take an evening walk.", CreatedAt: now},
		{Feedback: "No pattern here.", CreatedAt: now.Add(-time.Hour)},
		{Feedback: "Rough week. Suggestions: talk to a friend.", CreatedAt: now.Add(-2 * time.Hour)},
	}

	got := summarize(entries, 3)

	want := []string{"take an evening walk.", "talk to a friend."}
	if !reflect.DeepEqual(got.Tips, want) {
		t.Fatalf("tips: want %v, got %v", want, got.Tips)
	}
}

func TestSummarize_TipsFallBackToDefaults(t *testing.T) {
	entries := []model.HistoryEntry{
		{Feedback: "nothing actionable here", CreatedAt: time.Now()},
	}

	got := summarize(entries, 1)

	if !reflect.DeepEqual(got.Tips, defaultTips) {
		t.Fatalf("tips: want built-in defaults, got %v", got.Tips)
	}
	if len(got.Tips) != 5 {
		t.Fatalf("tips: want 5 defaults, got %d", len(got.Tips))
	}
}

func TestSummaryHandler_WeeklyCountIgnoresWindow(t *testing.T) {
	s := newTestServer()

	var listSinceArg, countSinceArg time.Time
	s.history = &mockHistoryStore{
		listSinceFunc: func(ctx context.Context, userID uint, since time.Time) ([]model.HistoryEntry, error) {
			listSinceArg = since
			return nil, nil
		},
		countSinceFunc: func(ctx context.Context, userID uint, since time.Time) (int64, error) {
			countSinceArg = since
			return 2, nil
		},
	}

	r := gin.New()
	r.GET("/summary", func(c *gin.Context) {
		c.Set("userID", uint(1))
		s.handleSummary(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/summary?days=30", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// the list window follows the query, the weekly count stays at 7 days
	if listSinceArg.After(time.Now().AddDate(0, 0, -29)) {
		t.Fatalf("list window too narrow: %v", listSinceArg)
	}
	if countSinceArg.Before(time.Now().AddDate(0, 0, -8)) {
		t.Fatalf("weekly count window too wide: %v", countSinceArg)
	}

	var body summaryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.WeeklyCount != 2 {
		t.Fatalf("weeklyCount: want 2, got %d", body.WeeklyCount)
	}
}

func TestSummaryHandler_InvalidDaysFallsBackToDefault(t *testing.T) {
	s := newTestServer()

	var listSinceArg time.Time
	s.history = &mockHistoryStore{
		listSinceFunc: func(ctx context.Context, userID uint, since time.Time) ([]model.HistoryEntry, error) {
			listSinceArg = since
			return nil, nil
		},
		countSinceFunc: func(ctx context.Context, userID uint, since time.Time) (int64, error) {
			return 0, nil
		},
	}

	r := gin.New()
	r.GET("/summary", func(c *gin.Context) {
		c.Set("userID", uint(1))
		s.handleSummary(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/summary?days=banana", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if listSinceArg.Before(time.Now().AddDate(0, 0, -8)) {
		t.Fatalf("expected 7 day default window, got since=%v", listSinceArg)
	}
}
