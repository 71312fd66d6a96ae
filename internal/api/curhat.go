package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/feliciasalim/PPL/internal/ml"
	"github.com/feliciasalim/PPL/internal/model"
	"github.com/feliciasalim/PPL/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type curhatRequest struct {
	Text string `json:"text"`
}

type labelPayload struct {
	Label string `json:"label"`
}

type stressLevelPayload struct {
	StressLevel float64 `json:"stress_level"`
}

type videosPayload struct {
	Recommendations []ml.Video `json:"recommendations"`
}

type curhatResponse struct {
	PredictedStress   labelPayload       `json:"predicted_stress"`
	PredictedEmotion  labelPayload       `json:"predicted_emotion"`
	StressLevel       stressLevelPayload `json:"stress_level"`
	Analysis          string             `json:"analysis"`
	RecommendedVideos videosPayload      `json:"recommended_videos"`
	SavedToHistory    bool               `json:"saved_to_history"`
}

// handleCurhat analyzes a venting text and, for authenticated callers,
// persists the result as a history entry. The analysis is the primary
// value: a failed history write never fails the request.
func (s *Server) handleCurhat(c *gin.Context) {
	var req curhatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required", "error_type": "validation_error"})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required", "error_type": "validation_error"})
		return
	}
	if utf8.RuneCountInString(text) < 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text must be at least 10 characters long", "error_type": "validation_error"})
		return
	}

	allowed, err := s.limiter.Allow(c.Request.Context(), c.ClientIP())
	if err != nil {
		// fail open: throttling must not take the endpoint down with redis
		if s.logger != nil {
			s.logger.Warn("rate limit check failed", slog.String("error", err.Error()))
		}
		allowed = true
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many submissions, please slow down", "error_type": "rate_limited"})
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), text)
	if err != nil {
		s.writeAnalyzeError(c, err)
		return
	}

	saved := false
	if userID := getUserID(c); userID != 0 {
		saved = s.saveHistory(c, userID, text, result)
	}

	c.JSON(http.StatusOK, curhatResponse{
		PredictedStress:   labelPayload{Label: result.StressLabel},
		PredictedEmotion:  labelPayload{Label: result.Emotion},
		StressLevel:       stressLevelPayload{StressLevel: result.StressScore},
		Analysis:          result.Analysis,
		RecommendedVideos: videosPayload{Recommendations: result.Videos},
		SavedToHistory:    saved,
	})
}

func (s *Server) writeAnalyzeError(c *gin.Context, err error) {
	var upstream *ml.UpstreamError
	switch {
	case errors.Is(err, ml.ErrTimeout):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"error":      "Analysis service timed out",
			"error_type": "timeout",
		})
	case errors.Is(err, ml.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      "Analysis service is unreachable",
			"error_type": "service_unavailable",
		})
	case errors.As(err, &upstream):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      fmt.Sprintf("Analysis service returned status %d", upstream.Status),
			"error_type": "ml_api_error",
		})
	default:
		if s.logger != nil {
			s.logger.Error("analysis failed", slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to analyze text",
			"error_type": "generic_error",
		})
	}
}

// saveHistory is the best-effort side write: failures are logged and
// reported through the saved_to_history flag only.
func (s *Server) saveHistory(c *gin.Context, userID uint, text string, result *ml.Result) bool {
	videos, err := json.Marshal(result.Videos)
	if err != nil {
		videos = []byte("[]")
	}

	score := result.StressScore
	entry := model.HistoryEntry{
		ID:          uuid.NewString(),
		UserID:      &userID,
		StressLabel: result.StressLabel,
		StressScore: &score,
		Emotion:     result.Emotion,
		Text:        text,
		Feedback:    result.Analysis,
		Videos:      string(videos),
		CreatedAt:   time.Now(),
	}

	if err := s.history.Create(c.Request.Context(), &entry); err != nil {
		if s.logger != nil {
			s.logger.Warn("history write failed",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
		}
		if metrics.HistoryWritesTotal != nil {
			metrics.HistoryWritesTotal.WithLabelValues("failed").Inc()
		}
		return false
	}

	if metrics.HistoryWritesTotal != nil {
		metrics.HistoryWritesTotal.WithLabelValues("ok").Inc()
	}
	return true
}
