package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/feliciasalim/PPL/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const defaultFeedbackResult = `{"message":"No analysis attached"}`

type createFeedbackRequest struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Result string `json:"result"`
}

type feedbackPayload struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

func toFeedbackPayload(fb *model.Feedback) feedbackPayload {
	return feedbackPayload{
		ID:        fb.ID,
		Name:      fb.Name,
		Text:      fb.Text,
		Result:    fb.Result,
		CreatedAt: fb.CreatedAt,
	}
}

// handleListFeedback returns all feedback entries, newest first.
func (s *Server) handleListFeedback(c *gin.Context) {
	items, err := s.feedback.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feedback"})
		return
	}

	payload := make([]feedbackPayload, 0, len(items))
	for i := range items {
		payload = append(payload, toFeedbackPayload(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"feedback": payload})
}

// handleCreateFeedback stores a feedback entry.
func (s *Server) handleCreateFeedback(c *gin.Context) {
	var req createFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	text := strings.TrimSpace(req.Text)
	if name == "" || text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and text are required"})
		return
	}

	result := strings.TrimSpace(req.Result)
	if result == "" {
		result = defaultFeedbackResult
	}

	fb := model.Feedback{
		Name:   name,
		Text:   text,
		Result: result,
	}
	if err := s.feedback.Create(c.Request.Context(), &fb); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save feedback"})
		return
	}

	c.JSON(http.StatusCreated, toFeedbackPayload(&fb))
}

// handleGetFeedback returns one feedback entry by id.
func (s *Server) handleGetFeedback(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback id"})
		return
	}

	fb, err := s.feedback.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Feedback not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feedback"})
		return
	}

	c.JSON(http.StatusOK, toFeedbackPayload(fb))
}
