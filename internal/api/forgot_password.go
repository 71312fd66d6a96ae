package api

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/feliciasalim/PPL/internal/api/auth"
	"github.com/feliciasalim/PPL/internal/model"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// The forgot-password flow answers HTTP 200 for every outcome; the result
// lives in the body only. Status codes would otherwise reveal whether an
// email has an account.

type forgotRequestRequest struct {
	Email string `json:"email"`
}

type forgotVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type forgotResetRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

func resetOK(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": message})
}

func resetErr(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"status": "error", "message": message})
}

// handleForgotPasswordRequest issues and emails a time-limited numeric code.
func (s *Server) handleForgotPasswordRequest(c *gin.Context) {
	var req forgotRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resetErr(c, "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !auth.ValidEmail(email) {
		resetErr(c, "Invalid email format")
		return
	}

	if _, err := s.users.GetByEmail(c.Request.Context(), email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resetErr(c, "Email is not registered")
			return
		}
		resetErr(c, "Failed to process request")
		return
	}

	allowed, err := s.resetGate.Acquire(c.Request.Context(), email)
	if err != nil {
		// cooldown is advisory; a redis outage must not block resets
		if s.logger != nil {
			s.logger.Warn("reset cooldown check failed", slog.String("error", err.Error()))
		}
		allowed = true
	}
	if !allowed {
		resetErr(c, "A code was sent recently, please wait before requesting another")
		return
	}

	code, err := generateCode(6)
	if err != nil {
		resetErr(c, "Failed to generate code")
		return
	}

	rc := model.ResetCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.cfg.App.ResetCodeTTL),
	}
	if err := s.resets.CreateCode(c.Request.Context(), &rc); err != nil {
		if s.logger != nil {
			s.logger.Error("store reset code failed", slog.String("error", err.Error()))
		}
		resetErr(c, "Failed to process request")
		return
	}

	ttlMinutes := int(s.cfg.App.ResetCodeTTL.Minutes())
	if err := s.mailer.SendResetCode(email, code, ttlMinutes); err != nil {
		if s.logger != nil {
			s.logger.Warn("send reset email failed", slog.String("error", err.Error()))
		}
		resetErr(c, "Failed to send the code, please try again later")
		return
	}

	if s.logger != nil {
		s.logger.Info("reset code sent", slog.String("email", email))
	}
	resetOK(c, "A reset code has been sent to your email")
}

// handleForgotPasswordVerify consumes a matching, unexpired, unused code.
func (s *Server) handleForgotPasswordVerify(c *gin.Context) {
	var req forgotVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resetErr(c, "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	code := strings.TrimSpace(req.Code)
	if email == "" || code == "" {
		resetErr(c, "Email and code are required")
		return
	}

	rc, err := s.resets.FindValid(c.Request.Context(), email, code, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resetErr(c, "Invalid or expired code")
			return
		}
		resetErr(c, "Failed to verify code")
		return
	}

	if err := s.resets.MarkUsed(c.Request.Context(), rc.ID); err != nil {
		if s.logger != nil {
			s.logger.Error("mark reset code used failed", slog.String("error", err.Error()))
		}
		resetErr(c, "Failed to verify code")
		return
	}

	resetOK(c, "Code verified, you can now reset your password")
}

// handleForgotPasswordReset sets a new password for the email.
func (s *Server) handleForgotPasswordReset(c *gin.Context) {
	var req forgotResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resetErr(c, "Invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.NewPassword == "" {
		resetErr(c, "Email and new password are required")
		return
	}

	user, err := s.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resetErr(c, "Email is not registered")
			return
		}
		resetErr(c, "Failed to reset password")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.NewPassword)) == nil {
		resetErr(c, "New password must be different from the current password")
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		resetErr(c, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		resetErr(c, "Failed to reset password")
		return
	}
	user.Password = string(hash)

	if err := s.users.Update(c.Request.Context(), user); err != nil {
		if s.logger != nil {
			s.logger.Error("reset password failed", slog.String("error", err.Error()))
		}
		resetErr(c, "Failed to reset password")
		return
	}

	_ = s.resetGate.Release(c.Request.Context(), email)

	if s.logger != nil {
		s.logger.Info("password reset", slog.String("email", email))
	}
	resetOK(c, "Password has been reset")
}

func generateCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid code length")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = '0' + (buf[i] % 10)
	}
	return string(buf), nil
}
