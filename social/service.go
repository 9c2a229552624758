// Package social implements the request-lifecycle state machine: friend
// requests and community-join requests moving PENDING → ACCEPTED/REJECTED,
// with their notification fan-out.
package social

import (
	"context"

	"github.com/mizusawa-dev/clique/cache"
	"github.com/mizusawa-dev/clique/fanout"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Action is a resolve decision on a pending request.
type Action string

const (
	ActionAccept Action = "ACCEPT"
	ActionReject Action = "REJECT"
)

// ParseAction validates a caller-supplied action parameter.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionAccept:
		return ActionAccept, true
	case ActionReject:
		return ActionReject, true
	default:
		return "", false
	}
}

// Service drives friend and community-join requests through their lifecycle.
// Every transition runs as one all-or-nothing transaction; fan-out and cache
// invalidation happen only after commit.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	fan    *fanout.Fanout
	logger *zap.Logger
}

// NewService creates a social Service.
func NewService(db *gorm.DB, c cache.Cache, fan *fanout.Fanout, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, fan: fan, logger: logger}
}

// invalidateUnread drops the recipient's cached unread counter after a
// committed notification write. Best effort, the counter self-heals on the
// next read.
func (s *Service) invalidateUnread(ctx context.Context, userID string) {
	if err := s.cache.Del(ctx, cache.UnreadKey(userID)); err != nil {
		s.logger.Warn("unread invalidation failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
