package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/feliciasalim/PPL/internal/ml"
	"github.com/feliciasalim/PPL/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type historyPayload struct {
	ID          string     `json:"id"`
	StressLabel string     `json:"stress_label"`
	StressScore *float64   `json:"stress_score"`
	Emotion     string     `json:"emotion"`
	Text        string     `json:"text"`
	Feedback    string     `json:"feedback"`
	Videos      []ml.Video `json:"videos"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toHistoryPayload(entry *model.HistoryEntry) historyPayload {
	var videos []ml.Video
	if err := json.Unmarshal([]byte(entry.Videos), &videos); err != nil || videos == nil {
		videos = []ml.Video{}
	}
	return historyPayload{
		ID:          entry.ID,
		StressLabel: entry.StressLabel,
		StressScore: entry.StressScore,
		Emotion:     entry.Emotion,
		Text:        entry.Text,
		Feedback:    entry.Feedback,
		Videos:      videos,
		CreatedAt:   entry.CreatedAt,
	}
}

// handleListHistory returns the caller's entries, newest first.
func (s *Server) handleListHistory(c *gin.Context) {
	userID := getUserID(c)

	entries, err := s.history.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	payload := make([]historyPayload, 0, len(entries))
	for i := range entries {
		payload = append(payload, toHistoryPayload(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"history": payload})
}

// handleHistoryDetail returns one entry, scoped by owner. A miss answers
// the same 404 whether the id does not exist or belongs to someone else.
func (s *Server) handleHistoryDetail(c *gin.Context) {
	userID := getUserID(c)

	id := c.Param("id")
	if id == "" || id == "undefined" || id == "null" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history id"})
		return
	}

	entry, err := s.history.GetOwned(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "History entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history entry"})
		return
	}

	c.JSON(http.StatusOK, toHistoryPayload(entry))
}

// handleRecentHistory returns the five newest entries for the dashboard.
func (s *Server) handleRecentHistory(c *gin.Context) {
	userID := getUserID(c)

	entries, err := s.history.ListRecent(c.Request.Context(), userID, 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent entries"})
		return
	}

	payload := make([]historyPayload, 0, len(entries))
	for i := range entries {
		payload = append(payload, toHistoryPayload(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"recent": payload})
}
