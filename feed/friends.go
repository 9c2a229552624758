package feed

import (
	"context"

	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/pagination"
)

// FriendItem is one row of the friends list.
type FriendItem struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Cursor      string `json:"cursor"`
}

// FriendFeed is one page of the caller's ACTIVE friends, ordered by username.
type FriendFeed struct {
	Friends []FriendItem `json:"friends"`
	pagination.Page
}

// ListFriends returns one page of the caller's confirmed friends. Pending
// edges are not visible here; they surface only through notifications.
func (s *Service) ListFriends(ctx context.Context, userID, token string, limit int) (*FriendFeed, error) {
	var cur *pagination.FriendCursor
	if token != "" {
		c, err := pagination.DecodeFriendCursor(token)
		if err != nil {
			return nil, err
		}
		cur = &c
	}

	var rows []model.User
	err := s.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.username, users.display_name").
		Joins("JOIN friends ON friends.friend_id = users.id").
		Where("friends.friend_of_id = ? AND friends.status = ?", userID, model.FriendActive).
		Scopes(pagination.FriendKeyset("users", cur)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]FriendItem, len(rows))
	tokens := make([]string, len(rows))
	for i, u := range rows {
		tokens[i] = pagination.FriendCursor{ID: u.ID, Username: u.Username}.Encode()
		items[i] = FriendItem{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Cursor:      tokens[i],
		}
	}
	return &FriendFeed{
		Friends: items,
		Page:    pagination.DeriveListPage(tokens, limit),
	}, nil
}
