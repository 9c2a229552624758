package feed

import (
	"context"
	"strconv"
	"time"

	"github.com/mizusawa-dev/clique/apperr"
	"github.com/mizusawa-dev/clique/cache"
	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReadMode selects how a bulk mark-read responds.
type ReadMode string

const (
	// ReadAlert returns the updated rows so the client can refresh in place.
	ReadAlert ReadMode = "ALERT"
	// ReadSilent acknowledges without a body.
	ReadSilent ReadMode = "SILENT"
)

// ParseReadMode validates a caller-supplied mode parameter. The empty string
// defaults to ReadAlert.
func ParseReadMode(s string) (ReadMode, bool) {
	switch ReadMode(s) {
	case "", ReadAlert:
		return ReadAlert, true
	case ReadSilent:
		return ReadSilent, true
	default:
		return "", false
	}
}

// NotificationItem is one row of the notification feed, enriched with the
// triggering user's visible name and, for community notifications, the
// community's name.
type NotificationItem struct {
	ID              string                   `json:"id"`
	Type            model.NotificationType   `json:"type"`
	Status          model.NotificationStatus `json:"status"`
	TriggeredByID   string                   `json:"triggered_by_id"`
	TriggeredByName string                   `json:"triggered_by_name"`
	CommunityID     *string                  `json:"community_id"`
	CommunityName   *string                  `json:"community_name"`
	Payload         string                   `json:"payload"`
	IsRead          bool                     `json:"is_read"`
	CreatedAt       time.Time                `json:"created_at"`
	Cursor          string                   `json:"cursor"`
}

// NotificationFeed is one page of a user's notifications, newest first.
type NotificationFeed struct {
	Notifications []NotificationItem `json:"notifications"`
	pagination.Page
}

type notificationRow struct {
	model.Notification
	TriggeredByName string
	CommunityName   *string
}

func (s *Service) notificationQuery(ctx context.Context, userID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("notifications").
		Select("notifications.*, "+visibleName+" AS triggered_by_name, communities.name AS community_name").
		Joins("JOIN users ON users.id = notifications.triggered_by_id").
		Joins("LEFT JOIN communities ON communities.id = notifications.community_id").
		Where("notifications.triggered_for_id = ?", userID)
}

func notificationItems(rows []notificationRow) ([]NotificationItem, []string) {
	items := make([]NotificationItem, len(rows))
	tokens := make([]string, len(rows))
	for i, r := range rows {
		tokens[i] = pagination.TimeCursor{ID: r.ID, CreatedAt: r.CreatedAt}.Encode()
		items[i] = NotificationItem{
			ID:              r.ID,
			Type:            r.Type,
			Status:          r.Status,
			TriggeredByID:   r.TriggeredByID,
			TriggeredByName: r.TriggeredByName,
			CommunityID:     r.CommunityID,
			CommunityName:   r.CommunityName,
			Payload:         r.Payload,
			IsRead:          r.IsRead,
			CreatedAt:       r.CreatedAt,
			Cursor:          tokens[i],
		}
	}
	return items, tokens
}

// ListNotifications returns one page of the caller's notifications. The list
// only scrolls toward older rows; prevCursor is not applicable.
func (s *Service) ListNotifications(ctx context.Context, userID, token string, limit int) (*NotificationFeed, error) {
	var cur *pagination.TimeCursor
	if token != "" {
		c, err := pagination.DecodeTimeCursor(token)
		if err != nil {
			return nil, err
		}
		cur = &c
	}

	var rows []notificationRow
	err := s.notificationQuery(ctx, userID).
		Scopes(pagination.TimeKeyset("notifications", cur, pagination.Backward)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items, tokens := notificationItems(rows)
	return &NotificationFeed{
		Notifications: items,
		Page:          pagination.DeriveListPage(tokens, limit),
	}, nil
}

// UnreadCount returns the caller's unread notification count, served from
// cache when fresh.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	key := cache.UnreadKey(userID)
	if v, err := s.cache.Get(ctx, key); err == nil {
		if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			return n, nil
		}
	}

	var n int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("triggered_for_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, key, strconv.FormatInt(n, 10), s.unreadTTL); err != nil {
		s.logger.Warn("unread cache write failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
	return n, nil
}

// BulkMarkRead marks the caller's notifications whose creation time falls in
// the inclusive range [end, start] as read. start is the newer bound, end the
// older one; a reversed range is a conflict. ReadAlert returns the updated
// rows; ReadSilent returns nil.
func (s *Service) BulkMarkRead(ctx context.Context, userID string, start, end time.Time, mode ReadMode) ([]NotificationItem, error) {
	if end.After(start) {
		return nil, apperr.Conflict("notification", "range")
	}

	var items []NotificationItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Notification{}).
			Where("triggered_for_id = ? AND created_at BETWEEN ? AND ?", userID, end, start).
			Update("is_read", true).Error; err != nil {
			return err
		}

		if mode == ReadSilent {
			return nil
		}

		var rows []notificationRow
		err := tx.Table("notifications").
			Select("notifications.*, "+visibleName+" AS triggered_by_name, communities.name AS community_name").
			Joins("JOIN users ON users.id = notifications.triggered_by_id").
			Joins("LEFT JOIN communities ON communities.id = notifications.community_id").
			Where("notifications.triggered_for_id = ? AND notifications.created_at BETWEEN ? AND ?",
				userID, end, start).
			Order("notifications.created_at DESC, notifications.id DESC").
			Find(&rows).Error
		if err != nil {
			return err
		}
		items, _ = notificationItems(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUnread(ctx, userID)
	return items, nil
}
