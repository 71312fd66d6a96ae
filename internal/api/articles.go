package api

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

type articlePayload struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Link  string `json:"link"`
	Image string `json:"image"`
	Intro string `json:"intro"`
}

// handleListArticles returns the reference articles. A database failure is
// distinguished from an empty table, and outside production the error body
// carries a stack trace for debugging.
func (s *Server) handleListArticles(c *gin.Context) {
	items, err := s.articles.List(c.Request.Context())
	if err != nil {
		body := gin.H{
			"error": "Failed to fetch articles",
			"hint":  "check database connectivity and the articles table",
		}
		if s.cfg.App.Env != "prod" {
			body["stack"] = string(debug.Stack())
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	payload := make([]articlePayload, 0, len(items))
	for i := range items {
		payload = append(payload, articlePayload{
			ID:    items[i].ID,
			Title: items[i].Title,
			Link:  items[i].Link,
			Image: items[i].Image,
			Intro: items[i].Intro,
		})
	}

	if len(payload) == 0 {
		c.JSON(http.StatusOK, gin.H{"articles": payload, "message": "No articles available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": payload})
}
