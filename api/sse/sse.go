// Package sse streams fan-out events (new notifications, request updates,
// community messages) to connected clients over server-sent events.
package sse

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mizusawa-dev/clique/cache"
	"github.com/mizusawa-dev/clique/config"
	"github.com/mizusawa-dev/clique/fanout"
	mw "github.com/mizusawa-dev/clique/middleware"
	"github.com/mizusawa-dev/clique/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles the SSE endpoint.
type Handler struct {
	db     *gorm.DB
	pubsub cache.PubSub
	c      cache.Cache
	sec    config.SecurityConfig
	logger *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(db *gorm.DB, pubsub cache.PubSub, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{db: db, pubsub: pubsub, c: c, sec: sec, logger: logger}
}

// ServeSSE handles GET /sse?token=<jwt>. EventSource cannot set headers, so
// the token travels as a query parameter. The stream carries the user's own
// room plus the rooms of every community the user is an ACTIVE member of at
// connect time; new memberships require a reconnect.
func (h *Handler) ServeSSE(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := mw.ParseToken(tokenStr, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	exists, err := h.c.Exists(ctx, mw.SessionKey(tokenStr))
	if err != nil || !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	rooms := []string{fanout.UserRoom(claims.UserID)}
	var communityIDs []string
	err = h.db.WithContext(c.Request.Context()).Model(&model.Participant{}).
		Where("user_id = ? AND status = ?", claims.UserID, model.ParticipantActive).
		Pluck("community_id", &communityIDs).Error
	if err != nil {
		h.logger.Error("sse membership lookup failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	for _, id := range communityIDs {
		rooms = append(rooms, fanout.CommunityRoom(id))
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, rooms...)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			// The payload is already a JSON envelope with its own event field.
			fmt.Fprintf(c.Writer, "data: %s\n\n", msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
