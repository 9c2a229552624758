package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	TypeFriendRequest    NotificationType = "FRIENDREQUEST"
	TypeCommunityRequest NotificationType = "COMMUNITYREQUEST"
	TypeRequestUpdate    NotificationType = "REQUESTUPDATE"
)

// NotificationStatus is the lifecycle state of a notification.
// Request-type notifications transition PENDING→{ACCEPTED,REJECTED} exactly
// once; REQUESTUPDATE notifications are created COMPLETED and never change.
type NotificationStatus string

const (
	StatusPending   NotificationStatus = "PENDING"
	StatusAccepted  NotificationStatus = "ACCEPTED"
	StatusRejected  NotificationStatus = "REJECTED"
	StatusCompleted NotificationStatus = "COMPLETED"
)

// Terminal reports whether no further transition is permitted from s.
func (s NotificationStatus) Terminal() bool {
	switch s {
	case StatusPending:
		return false
	case StatusAccepted, StatusRejected, StatusCompleted:
		return true
	default:
		return true
	}
}

// Notification is addressed to TriggeredForID and caused by TriggeredByID.
// CommunityID is set only for community-related notifications.
type Notification struct {
	ID             string             `gorm:"primaryKey;size:36" json:"id"`
	Type           NotificationType   `gorm:"size:24;not null" json:"type"`
	Status         NotificationStatus `gorm:"size:16;not null;default:'PENDING'" json:"status"`
	TriggeredByID  string             `gorm:"size:36;not null" json:"triggered_by_id"`
	TriggeredForID string             `gorm:"index:idx_notification_for;size:36;not null" json:"triggered_for_id"`
	CommunityID    *string            `gorm:"size:36" json:"community_id"`
	Payload        string             `gorm:"size:255" json:"payload"`
	IsRead         bool               `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time          `gorm:"index:idx_notification_created;autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns the id and pins CreatedAt to millisecond precision,
// the precision cursor tokens carry.
func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.CreatedAt = n.CreatedAt.Truncate(time.Millisecond)
	return nil
}
