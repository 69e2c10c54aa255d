package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const userIDKey = "userID"

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"status_code": c.Writer.Status(),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})
		if reqID := c.GetHeader("X-Request-ID"); reqID != "" {
			entry = entry.WithField("request_id", reqID)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Fake API: Request completed with server error")
		case status >= 400:
			entry.Warn("Fake API: Request completed with client error")
		default:
			entry.Debug("Fake API: Request completed successfully")
		}
	}
}

// recordCalls counts requests and serves any failure queued with FailNext
// for the exact method and path.
func (s *Server) recordCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := routeKey(c.Request.Method, c.Request.URL.Path)

		s.mu.Lock()
		s.calls[key]++
		var f *fault
		if queue := s.faults[key]; len(queue) > 0 {
			f = &queue[0]
			s.faults[key] = queue[1:]
		}
		s.mu.Unlock()

		if f != nil {
			s.log.Infof("Fake API: Injecting %d for %s", f.status, key)
			errorResponse(c, f.status, f.message)
			return
		}
		c.Next()
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			s.log.Warn("Fake API: Authorization header is missing")
			errorResponse(c, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			s.log.Warn("Fake API: Invalid Authorization header format")
			errorResponse(c, http.StatusUnauthorized, "Invalid authorization format")
			return
		}
		token := parts[1]

		userID, err := s.parseToken(token)
		if err != nil {
			s.log.Warnf("Fake API: Token rejected: %v", err)
			errorResponse(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.mu.Lock()
		owner, live := s.sessions[token]
		s.mu.Unlock()
		if !live || owner != userID {
			errorResponse(c, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		c.Set(userIDKey, userID)
		c.Set("token", token)
		c.Next()
	}
}

func routeKey(method, path string) string {
	return method + " " + path
}
