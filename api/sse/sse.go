package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/turnbattle/cache"
	"go.uber.org/zap"
)

const defaultKeepalive = 30 * time.Second

// Channel is the pub/sub channel carrying the events of one battle.
func Channel(battleID string) string { return "battle:" + battleID }

// LiveKey is the cache key holding the LiveState of a running battle.
func LiveKey(battleID string) string { return "battle:live:" + battleID }

// Envelope is the wire form of one published battle event.
type Envelope struct {
	Type string          `json:"type"`
	Seq  int             `json:"seq"`
	Data json.RawMessage `json:"data"`
}

// Handler streams battle events to spectators.
type Handler struct {
	pubsub    cache.PubSub
	c         cache.Cache
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, c: c, keepalive: defaultKeepalive, logger: logger}
}

// SetKeepalive changes the interval of keepalive comments.
func (h *Handler) SetKeepalive(d time.Duration) {
	if d > 0 {
		h.keepalive = d
	}
}

// ServeBattle handles GET /sse/battles/:id.
// The stream opens with a "connected" event carrying the last known live
// state (or null), relays every battle event under its own type, and closes
// after battle_end.
func (h *Handler) ServeBattle(c *gin.Context) {
	battleID := c.Param("id")
	if battleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing battle id"})
		return
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, Channel(battleID))
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.String("battle_id", battleID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	defer unsub()

	state := "null"
	if raw, err := h.c.Get(subCtx, LiveKey(battleID)); err == nil {
		state = raw
	} else if !cache.IsNotFound(err) {
		h.logger.Warn("sse live state lookup failed", zap.String("battle_id", battleID), zap.Error(err))
	}

	// Set SSE headers.
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: %s\n\n", state)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Type == "" {
				h.logger.Warn("sse dropping malformed message", zap.String("channel", msg.Channel))
				continue
			}
			fmt.Fprintf(c.Writer, "id: %d\nevent: %s\ndata: %s\n\n", env.Seq, env.Type, env.Data)
			c.Writer.Flush()
			if env.Type == "battle_end" {
				return
			}

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
