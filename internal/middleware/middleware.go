package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// SetLogLevel aligns the middleware logger with the application log level
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Context keys set by the auth middleware
const (
	ContextUser     = "user"
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextToken    = "token"
)

// Authenticator resolves an access token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// TokenAuth requires a valid access token. The header may use either the
// "Token <t>" or the "Bearer <t>" scheme.
func TokenAuth(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, true)
}

// OptionalAuth resolves the user when a token is present and lets anonymous
// requests through. A token that is present but invalid is still rejected.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return authenticate(auth, false)
}

func authenticate(auth Authenticator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				abortUnauthorized(c, "Authentication credentials were not provided.")
				return
			}
			c.Next()
			return
		}

		token, ok := extractToken(authHeader)
		if !ok {
			abortUnauthorized(c, "Authorization header must be 'Token <token>' or 'Bearer <token>'")
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Debug("Rejected access token")
			abortUnauthorized(c, "Invalid token.")
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextToken, token)
		c.Next()
	}
}

func extractToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, message))
}

// CurrentUser returns the authenticated user, or nil for anonymous requests
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// CurrentUserID returns the authenticated user's id, or 0 for anonymous requests
func CurrentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
