package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendStatus is the lifecycle state of a directed friend edge.
type FriendStatus string

const (
	FriendPending FriendStatus = "PENDING"
	FriendActive  FriendStatus = "ACTIVE"
)

// Friend is one directed edge of a friendship. A friendship is always stored
// as two mirrored rows (A→B and B→A) created and updated in the same
// transaction; one row without its mirror is never durably visible.
type Friend struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	FriendOfID string       `gorm:"uniqueIndex:idx_friend_pair,priority:1;size:36;not null" json:"friend_of_id"`
	FriendID   string       `gorm:"uniqueIndex:idx_friend_pair,priority:2;size:36;not null" json:"friend_id"`
	Status     FriendStatus `gorm:"size:16;not null;default:'PENDING'" json:"status"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *Friend) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
