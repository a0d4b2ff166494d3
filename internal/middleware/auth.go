package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/auth"
)

const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
	ContextUserName  = "userName"
)

func bearerToken(c *gin.Context) (string, *apperror.Error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", apperror.Unauthorized("authorization header required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", apperror.Unauthorized("invalid authorization header format")
	}
	return parts[1], nil
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserEmail, claims.Email)
	c.Set(ContextUserName, claims.Username)
}

func authenticate(c *gin.Context, jwtSecret string) (*auth.Claims, *apperror.Error) {
	token, appErr := bearerToken(c)
	if appErr != nil {
		return nil, appErr
	}
	claims, err := auth.ValidateAccessToken(token, jwtSecret)
	if err != nil {
		return nil, apperror.Wrap(http.StatusUnauthorized, "invalid or expired token", err)
	}
	return claims, nil
}

// AuthMiddleware requires a valid access token.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, appErr := authenticate(c, jwtSecret)
		if appErr != nil {
			abort(c, appErr)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// AdminMiddleware requires a valid access token belonging to one of
// adminEmails.
func AdminMiddleware(jwtSecret string, adminEmails []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, appErr := authenticate(c, jwtSecret)
		if appErr != nil {
			abort(c, appErr)
			return
		}

		isAdmin := false
		for _, email := range adminEmails {
			if strings.EqualFold(email, claims.Email) {
				isAdmin = true
				break
			}
		}
		if !isAdmin {
			abort(c, apperror.Forbidden("admin access required"))
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user when a valid token is present and
// lets anonymous requests through.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, appErr := authenticate(c, jwtSecret); appErr == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// UserID returns the authenticated user, or 0 for anonymous requests.
func UserID(c *gin.Context) int64 {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
