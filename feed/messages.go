package feed

import (
	"context"
	"errors"
	"time"

	"github.com/mizusawa-dev/clique/apperr"
	"github.com/mizusawa-dev/clique/fanout"
	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MessageItem is one row of the message feed, enriched with the sender's
// visible name and its own cursor token.
type MessageItem struct {
	ID          string         `json:"id"`
	SenderID    string         `json:"sender_id"`
	SenderName  string         `json:"sender_name"`
	Content     string         `json:"content"`
	Attachments datatypes.JSON `json:"attachments"`
	CreatedAt   time.Time      `json:"created_at"`
	Cursor      string         `json:"cursor"`
}

// MessageFeed is one page of a community's message stream.
type MessageFeed struct {
	Messages []MessageItem `json:"messages"`
	pagination.Page
}

type messageRow struct {
	model.Message
	SenderName string
}

// visibleName yields the sender's display name with username as fallback,
// resolved in SQL so the row scan stays flat.
const visibleName = "COALESCE(NULLIF(users.display_name, ''), users.username)"

// ListMessages returns one page of a community's messages. The cursor token
// and direction select the window; exactly limit rows are fetched and an
// under-filled page is the only exhaustion signal.
func (s *Service) ListMessages(ctx context.Context, callerID, communityID, token string, dir pagination.Direction, limit int) (*MessageFeed, error) {
	var cur *pagination.TimeCursor
	if token != "" {
		c, err := pagination.DecodeTimeCursor(token)
		if err != nil {
			return nil, err
		}
		cur = &c
	}

	inbox, err := s.memberInbox(ctx, callerID, communityID)
	if err != nil {
		return nil, err
	}

	var rows []messageRow
	err = s.db.WithContext(ctx).
		Table("messages").
		Select("messages.*, "+visibleName+" AS sender_name").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("messages.inbox_id = ?", inbox.ID).
		Scopes(pagination.TimeKeyset("messages", cur, dir)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]MessageItem, len(rows))
	tokens := make([]string, len(rows))
	for i, r := range rows {
		tokens[i] = pagination.TimeCursor{ID: r.ID, CreatedAt: r.CreatedAt}.Encode()
		items[i] = MessageItem{
			ID:          r.ID,
			SenderID:    r.SenderID,
			SenderName:  r.SenderName,
			Content:     r.Content,
			Attachments: r.Attachments,
			CreatedAt:   r.CreatedAt,
			Cursor:      tokens[i],
		}
	}
	return &MessageFeed{
		Messages: items,
		Page:     pagination.DeriveMessagePage(tokens, dir, limit),
	}, nil
}

// SendMessage appends a message to the community's inbox and fans it out to
// the community room. Only ACTIVE members may post.
func (s *Service) SendMessage(ctx context.Context, senderID, communityID, content string, attachments datatypes.JSON) (*model.Message, error) {
	inbox, err := s.memberInbox(ctx, senderID, communityID)
	if err != nil {
		return nil, err
	}

	msg := model.Message{
		InboxID:     inbox.ID,
		SenderID:    senderID,
		Content:     content,
		Attachments: attachments,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}

	s.fan.Publish(ctx, fanout.CommunityRoom(communityID), "message:new", msg)
	return &msg, nil
}

// memberInbox resolves the community's inbox after checking the caller is an
// ACTIVE participant.
func (s *Service) memberInbox(ctx context.Context, userID, communityID string) (*model.Inbox, error) {
	var member int64
	err := s.db.WithContext(ctx).Model(&model.Participant{}).
		Where("user_id = ? AND community_id = ? AND status = ?",
			userID, communityID, model.ParticipantActive).
		Count(&member).Error
	if err != nil {
		return nil, err
	}
	if member == 0 {
		return nil, apperr.Forbidden("community")
	}

	var inbox model.Inbox
	err = s.db.WithContext(ctx).First(&inbox, "community_id = ?", communityID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inbox")
		}
		return nil, err
	}
	return &inbox, nil
}
