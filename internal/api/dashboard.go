package api

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/feliciasalim/PPL/internal/model"

	"github.com/gin-gonic/gin"
)

const maxTips = 5

// defaultTips backs the dashboard when no suggestion could be extracted
// from the user's feedback texts.
var defaultTips = []string{
	"Take a few deep breaths whenever you notice tension building up.",
	"A short walk outside can reset your mood more than you expect.",
	"Write down three things that went well today, however small.",
	"Keep a regular sleep schedule, even on weekends.",
	"Reach out to someone you trust instead of carrying it alone.",
}

var suggestionPattern = regexp.MustCompile(`(?i)suggestions?:\s*(.+)`)

type stressPoint struct {
	Stress    *float64  `json:"stress"`
	Emotion   string    `json:"emotion"`
	CreatedAt time.Time `json:"createdAt"`
}

type summaryResponse struct {
	AverageStress     float64        `json:"averageStress"`
	EmotionCounts     map[string]int `json:"emotionCounts"`
	StressHistory     []stressPoint  `json:"stressHistory"`
	LatestEmotion     string         `json:"latestEmotion"`
	LatestEmotionTime *time.Time     `json:"latestEmotionTime"`
	WeeklyCount       int64          `json:"weeklyCount"`
	TotalCount        int            `json:"totalCount"`
	MostCommonEmotion string         `json:"mostCommonEmotion"`
	Tips              []string       `json:"tips"`
}

// handleSummary aggregates the caller's history over a window of days.
func (s *Server) handleSummary(c *gin.Context) {
	userID := getUserID(c)

	days := s.cfg.App.DashboardWindow
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	now := time.Now()
	entries, err := s.history.ListSince(c.Request.Context(), userID, now.AddDate(0, 0, -days))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	// weekly count ignores the requested window
	weekly, err := s.history.CountSince(c.Request.Context(), userID, now.AddDate(0, 0, -7))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, summarize(entries, weekly))
}

// summarize shapes a set of history entries (expected newest first) into
// the dashboard summary. Empty input yields a fully-populated zero response.
func summarize(entries []model.HistoryEntry, weeklyCount int64) summaryResponse {
	resp := summaryResponse{
		EmotionCounts:     map[string]int{},
		StressHistory:     []stressPoint{},
		LatestEmotion:     "neutral",
		WeeklyCount:       weeklyCount,
		TotalCount:        len(entries),
		MostCommonEmotion: "neutral",
		Tips:              []string{},
	}
	if len(entries) == 0 {
		return resp
	}

	var sum float64
	var scored int
	mostCommon := ""
	bestCount := 0
	tips := []string{}

	for i := range entries {
		e := &entries[i]

		if e.StressScore != nil {
			sum += *e.StressScore
			scored++
		}

		if e.Emotion != "" {
			resp.EmotionCounts[e.Emotion]++
			if resp.EmotionCounts[e.Emotion] > bestCount {
				bestCount = resp.EmotionCounts[e.Emotion]
				mostCommon = e.Emotion
			}
		}

		resp.StressHistory = append(resp.StressHistory, stressPoint{
			Stress:    e.StressScore,
			Emotion:   e.Emotion,
			CreatedAt: e.CreatedAt,
		})

		if len(tips) < maxTips {
			if tip := extractTip(e.Feedback); tip != "" {
				tips = append(tips, tip)
			}
		}
	}

	if scored > 0 {
		resp.AverageStress = sum / float64(scored)
	}

	latest := &entries[0]
	if latest.Emotion != "" {
		resp.LatestEmotion = latest.Emotion
	}
	t := latest.CreatedAt
	resp.LatestEmotionTime = &t

	if mostCommon != "" {
		resp.MostCommonEmotion = mostCommon
	}

	if len(tips) == 0 {
		tips = append(tips, defaultTips...)
	}
	resp.Tips = tips

	return resp
}

// extractTip pulls the suggestion sentence out of an analysis text.
func extractTip(feedback string) string {
	m := suggestionPattern.FindStringSubmatch(feedback)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
