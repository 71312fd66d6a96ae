package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/feliciasalim/PPL/internal/api/auth"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type updateProfileRequest struct {
	Name            *string `json:"name"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}

// handleGetProfile returns the authenticated user's record.
func (s *Server) handleGetProfile(c *gin.Context) {
	userID := getUserID(c)

	user, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// handleUpdateProfile updates the name and/or password of the caller.
func (s *Server) handleUpdateProfile(c *gin.Context) {
	userID := getUserID(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	changingPassword := req.CurrentPassword != "" || req.NewPassword != ""
	if req.Name == nil && !changingPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	user, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := auth.ValidateName(name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user.Name = name
	}

	if changingPassword {
		if req.CurrentPassword == "" || req.NewPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Current and new password are both required"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
			return
		}
		// same-password check runs before strength so reuse is always rejected
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.NewPassword)) == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be different from the current password"})
			return
		}
		if err := auth.ValidatePassword(req.NewPassword); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user.Password = string(hash)
	}

	if err := s.users.Update(c.Request.Context(), user); err != nil {
		if s.logger != nil {
			s.logger.Error("update profile failed", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// handleDeleteProfile removes the account and its history in one transaction.
func (s *Server) handleDeleteProfile(c *gin.Context) {
	userID := getUserID(c)

	if err := s.users.DeleteWithHistory(c.Request.Context(), userID); err != nil {
		if s.logger != nil {
			s.logger.Error("delete account failed", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	if s.logger != nil {
		s.logger.Info("account deleted", slog.Uint64("user_id", uint64(userID)))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
