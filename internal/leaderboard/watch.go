package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verte-zerg/keyrush/internal/model"
)

const pongTimeout = 60 * time.Second

// MsgScore is the stream message type carrying a newly submitted score.
const MsgScore = "score"

// StreamMessage is the envelope of every live stream message.
type StreamMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Watch streams newly submitted scores to fn until ctx is done or the connection drops.
func (c *Client) Watch(ctx context.Context, fn func(model.Score)) error {
	wsURL, err := streamURL(c.baseURL)
	if err != nil {
		return err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		if cerr := conn.Close(); cerr != nil {
			// Best-effort close to unblock the reader.
			_ = cerr
		}
	})
	defer stop()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongTimeout)); err != nil {
			return err
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var msg StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgScore {
			continue
		}
		var score model.Score
		if err := json.Unmarshal(msg.Payload, &score); err != nil {
			continue
		}
		fn(score)
	}
}

func streamURL(baseURL string) (string, error) {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + "/ws", nil
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/ws", nil
	default:
		return "", fmt.Errorf("unsupported server url %q", baseURL)
	}
}
