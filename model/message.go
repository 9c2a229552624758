package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Inbox is a community's message stream. Exactly one inbox exists per
// community; it is created and deleted together with the community.
type Inbox struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	CommunityID string    `gorm:"uniqueIndex;size:36;not null" json:"community_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *Inbox) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Message is one entry in an inbox. Attachments holds upload references
// produced by the (external) media pipeline, e.g. [{"kind":"image","url":…}].
type Message struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	InboxID     string         `gorm:"index:idx_message_inbox;size:36;not null" json:"inbox_id"`
	SenderID    string         `gorm:"size:36;not null" json:"sender_id"`
	Content     string         `gorm:"type:text" json:"content"`
	Attachments datatypes.JSON `json:"attachments"`
	CreatedAt   time.Time      `gorm:"index:idx_message_created;autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns the id and pins CreatedAt to millisecond precision.
// CreatedAt is a cursor sort key; sub-millisecond digits would make stored
// rows compare unequal to their own decoded cursor.
func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.CreatedAt = m.CreatedAt.Truncate(time.Millisecond)
	return nil
}
