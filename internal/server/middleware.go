package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "requestID"
	userIDKey       = "userID"
)

// getLimiter returns the rate limiter for a client key, usually its IP.
func (s *Server) getLimiter(key string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	if lim, ok := s.limiters[key]; ok {
		return lim
	}
	rps := s.cfg.RateRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), s.cfg.RateBurst)
	s.limiters[key] = lim
	return lim
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please slow down"})
			return
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDKey, reqID)
		c.Header(requestIDHeader, reqID)
		c.Next()
	}
}

func noStoreMiddleware() gin.HandlerFunc {
	return cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})
}

// authMiddleware resolves the bearer token. When required is false, requests
// without a token pass through anonymously; a bad token is always rejected.
func (s *Server) authMiddleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && !required {
			c.Next()
			return
		}
		userID, err := s.svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
