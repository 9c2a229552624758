// Package feed implements the read side of the service: the four paginated
// list views (messages, notifications, friends, community search), message
// sending, and the cached per-user unread counter.
package feed

import (
	"context"
	"time"

	"github.com/mizusawa-dev/clique/cache"
	"github.com/mizusawa-dev/clique/fanout"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service serves the list views. Reads run outside transactions; the single
// write path (SendMessage) follows the same commit-then-fanout rule as the
// request lifecycle.
type Service struct {
	db        *gorm.DB
	cache     cache.Cache
	fan       *fanout.Fanout
	logger    *zap.Logger
	unreadTTL time.Duration
}

// NewService creates a feed Service. unreadTTL bounds staleness of the cached
// unread counter when an invalidation is lost.
func NewService(db *gorm.DB, c cache.Cache, fan *fanout.Fanout, logger *zap.Logger, unreadTTL time.Duration) *Service {
	return &Service{db: db, cache: c, fan: fan, logger: logger, unreadTTL: unreadTTL}
}

func (s *Service) invalidateUnread(ctx context.Context, userID string) {
	if err := s.cache.Del(ctx, cache.UnreadKey(userID)); err != nil {
		s.logger.Warn("unread invalidation failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
