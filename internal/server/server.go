// Package server exposes the leaderboard over HTTP and a live score stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/keyrush/internal/leaderboard"
)

// Config holds server tuning.
type Config struct {
	Addr            string
	RateRPS         int
	RateBurst       int
	ShutdownTimeout time.Duration
}

// Server wires the leaderboard service to HTTP routes.
type Server struct {
	svc       *leaderboard.Service
	hub       *Hub
	cfg       Config
	startTime time.Time

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// New builds a server over svc.
func New(svc *leaderboard.Service, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		svc:       svc,
		hub:       NewHub(),
		cfg:       cfg,
		startTime: time.Now(),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Hub returns the live stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the gin engine with every route and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression, ginGzip.WithExcludedPaths([]string{"/ws"})))
	router.Use(noStoreMiddleware())
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.GET("/healthz", s.healthzHandler)
	router.GET("/ws", s.authMiddleware(false), s.streamHandler)

	api := router.Group("/api")
	api.POST("/register", s.rateLimitMiddleware(), s.registerHandler)
	api.GET("/me", s.authMiddleware(true), s.meHandler)
	api.POST("/profile/username", s.rateLimitMiddleware(), s.authMiddleware(true), s.updateUsernameHandler)
	api.POST("/scores", s.rateLimitMiddleware(), s.authMiddleware(true), s.submitHandler)
	api.GET("/scores/me", s.authMiddleware(false), s.userScoresHandler)
	api.GET("/leaderboard", s.leaderboardHandler)
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logInfo("Server starting on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logInfo("Shutdown signal received, shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logWarn("HTTP server Shutdown: %v", err)
		return err
	}
	logInfo("Server shutdown complete")
	return nil
}
