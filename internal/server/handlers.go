package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/verte-zerg/keyrush/internal/leaderboard"
	"github.com/verte-zerg/keyrush/internal/model"
)

func (s *Server) healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
		"subscribers": s.hub.ClientCount(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) registerHandler(c *gin.Context) {
	reg, err := s.svc.Register(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	logInfo("Registered %s", reg.Profile.Username)
	c.JSON(http.StatusCreated, reg)
}

func (s *Server) meHandler(c *gin.Context) {
	p, err := s.svc.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateUsernameHandler(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, fmt.Errorf("%w: malformed body", leaderboard.ErrValidation))
		return
	}
	p, err := s.svc.UpdateUsername(c.Request.Context(), currentUser(c), body.Username)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) submitHandler(c *gin.Context) {
	var sub model.ScoreSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		s.writeError(c, fmt.Errorf("%w: malformed body", leaderboard.ErrValidation))
		return
	}
	score, err := s.svc.Submit(c.Request.Context(), currentUser(c), sub)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.hub.PublishScore(score)
	c.JSON(http.StatusCreated, score)
}

func (s *Server) userScoresHandler(c *gin.Context) {
	scores, err := s.svc.UserScores(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}

func (s *Server) leaderboardHandler(c *gin.Context) {
	filter := model.LeaderboardFilter{
		Mode:       strings.TrimSpace(c.Query("mode")),
		Difficulty: strings.TrimSpace(c.Query("difficulty")),
	}
	scores, err := s.svc.Leaderboard(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *Server) streamHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logWarn("ws upgrade error: %v", err)
		return
	}
	remote := c.Request.RemoteAddr
	logInfo("Stream subscriber connected: %s", remote)
	cl := s.hub.add(conn)

	go func() {
		defer func() {
			s.hub.remove(cl)
			logInfo("Stream subscriber disconnected: %s", remote)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, leaderboard.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, leaderboard.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, leaderboard.ErrNameTaken):
		status = http.StatusConflict
	case errors.Is(err, leaderboard.ErrProfileNotFound):
		status = http.StatusNotFound
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logWarn("Request %s failed: %v", c.GetString(requestIDKey), err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
