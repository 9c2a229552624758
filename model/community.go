package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipantStatus is the membership state of a user in a community.
type ParticipantStatus string

const (
	ParticipantPending ParticipantStatus = "PENDING"
	ParticipantActive  ParticipantStatus = "ACTIVE"
)

// ParticipantRole is the member's role within the community.
type ParticipantRole string

const (
	RoleMember ParticipantRole = "MEMBER"
	RoleOwner  ParticipantRole = "OWNER"
)

// Community is a named group of participants with one message inbox.
// ParticipantsCount is a denormalized counter over ACTIVE participants; it is
// only ever mutated inside the same transaction as the participant write.
type Community struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Bio               string    `gorm:"type:text" json:"bio"`
	AvatarURL         string    `gorm:"size:255" json:"avatar_url"`
	BannerURL         string    `gorm:"size:255" json:"banner_url"`
	ParticipantsCount int       `gorm:"not null;default:0" json:"participants_count"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns the id and pins CreatedAt to millisecond precision,
// the precision search cursor tokens carry.
func (c *Community) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = c.CreatedAt.Truncate(time.Millisecond)
	return nil
}

// Participant links a user to a community. At most one row exists per
// (user, community) pair.
type Participant struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	UserID      string            `gorm:"uniqueIndex:idx_participant_pair,priority:1;size:36;not null" json:"user_id"`
	CommunityID string            `gorm:"uniqueIndex:idx_participant_pair,priority:2;size:36;not null" json:"community_id"`
	Status      ParticipantStatus `gorm:"size:16;not null;default:'PENDING'" json:"status"`
	Role        ParticipantRole   `gorm:"size:16;not null;default:'MEMBER'" json:"role"`
	MemberSince time.Time         `gorm:"autoCreateTime" json:"member_since"`
}

func (p *Participant) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
