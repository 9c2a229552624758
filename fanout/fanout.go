// Package fanout pushes best-effort real-time events to interested rooms
// after a successful mutation. A failed publish is logged and dropped; it
// never affects the mutation that triggered it.
package fanout

import (
	"context"
	"encoding/json"

	"github.com/mizusawa-dev/clique/cache"
	"go.uber.org/zap"
)

// UserRoom is the room a user's own notifications are delivered to.
func UserRoom(userID string) string { return "user:" + userID }

// CommunityRoom is the room shared by a community's members.
func CommunityRoom(communityID string) string { return "community:" + communityID }

type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Fanout publishes JSON event envelopes over the pub/sub backend.
type Fanout struct {
	ps     cache.PubSub
	logger *zap.Logger
}

// New creates a Fanout.
func New(ps cache.PubSub, logger *zap.Logger) *Fanout {
	return &Fanout{ps: ps, logger: logger}
}

// Publish sends an event to a room, fire-and-forget.
func (f *Fanout) Publish(ctx context.Context, roomID, event string, payload interface{}) {
	body, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		f.logger.Warn("fanout marshal failed",
			zap.String("room", roomID),
			zap.String("event", event),
			zap.Error(err))
		return
	}
	if err := f.ps.Publish(ctx, roomID, string(body)); err != nil {
		f.logger.Warn("fanout publish failed",
			zap.String("room", roomID),
			zap.String("event", event),
			zap.Error(err))
	}
}
