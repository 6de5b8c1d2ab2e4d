package delivery

import (
	"net/http"
	"strings"
	"time"

	"minihub/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const userIDKey = "userID"

// AuthMiddleware accepts "Authorization: Bearer <access token>" and stores
// the token subject under userIDKey.
func AuthMiddleware(tokens *auth.TokenIssuer, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Middleware: Authorization header is missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header required"})
			return
		}
		authenticate(c, tokens, log, authHeader)
	}
}

// FeedAuthMiddleware also takes the access token from the access_token query
// parameter when no Authorization header is sent.
func FeedAuthMiddleware(tokens *auth.TokenIssuer, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if token := c.Query("access_token"); token != "" {
				authHeader = "Bearer " + token
			}
		}
		if authHeader == "" {
			log.Warn("Middleware: Feed request without a token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Access token required"})
			return
		}
		authenticate(c, tokens, log, authHeader)
	}
}

func authenticate(c *gin.Context, tokens *auth.TokenIssuer, log *logrus.Logger, authHeader string) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		log.Warnf("Middleware: Invalid Authorization header format")
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid Authorization header format"})
		return
	}

	userID, err := tokens.Parse(parts[1], auth.TypeAccess)
	if err != nil {
		log.Warnf("Middleware: Rejected bearer token: %v", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})
		if userID, ok := c.Get(userIDKey); ok {
			entry = entry.WithField("user_id", userID)
		}

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case statusCode >= 500:
			entry.Error("Request completed with server error")
		case statusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
