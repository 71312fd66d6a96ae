package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims is the token payload: subject carries the user id,
// name and email ride along for display without a DB round trip.
type CustomClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthMiddleware validates the bearer token and stores the user identity
// in the request context. Requests without a valid token are rejected.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, secret)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware stores the user identity when a valid bearer token
// is present and lets the request through either way. Used by the curhat
// endpoint, where anonymous submissions are analyzed but not persisted.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, secret); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, secret []byte) (*CustomClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	if claims.Subject == "" {
		return nil, false
	}
	if _, err := strconv.ParseUint(claims.Subject, 10, 64); err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *CustomClaims) {
	uid, _ := strconv.ParseUint(claims.Subject, 10, 64)
	c.Set("userID", uint(uid))
	c.Set("userName", claims.Name)
	c.Set("userEmail", claims.Email)
}
