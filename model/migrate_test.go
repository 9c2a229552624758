package model_test

import (
	"testing"
	"time"

	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// User
	user := &model.User{Username: "test_user", DisplayName: "Test User", PasswordHash: "hash"}
	require.NoError(t, db.Create(user).Error)
	assert.NotEmpty(t, user.ID)

	var found model.User
	require.NoError(t, db.First(&found, "id = ?", user.ID).Error)
	assert.Equal(t, "test_user", found.Username)

	other := &model.User{Username: "other_user", PasswordHash: "hash"}
	require.NoError(t, db.Create(other).Error)

	// Friend edge pair
	require.NoError(t, db.Create(&model.Friend{FriendOfID: user.ID, FriendID: other.ID}).Error)
	require.NoError(t, db.Create(&model.Friend{FriendOfID: other.ID, FriendID: user.ID}).Error)

	// Duplicate directed edge must violate the unique pair index.
	assert.Error(t, db.Create(&model.Friend{FriendOfID: user.ID, FriendID: other.ID}).Error)

	// Community + owner participant + inbox
	comm := &model.Community{Name: "TestCommunity", ParticipantsCount: 1}
	require.NoError(t, db.Create(comm).Error)
	part := &model.Participant{
		UserID: user.ID, CommunityID: comm.ID,
		Status: model.ParticipantActive, Role: model.RoleOwner,
	}
	require.NoError(t, db.Create(part).Error)
	inbox := &model.Inbox{CommunityID: comm.ID}
	require.NoError(t, db.Create(inbox).Error)

	// At most one participant row per (user, community).
	assert.Error(t, db.Create(&model.Participant{UserID: user.ID, CommunityID: comm.ID}).Error)

	// Message
	msg := &model.Message{InboxID: inbox.ID, SenderID: user.ID, Content: "hello"}
	require.NoError(t, db.Create(msg).Error)
	assert.NotEmpty(t, msg.ID)

	// Notification
	n := &model.Notification{
		Type:           model.TypeFriendRequest,
		Status:         model.StatusPending,
		TriggeredByID:  other.ID,
		TriggeredForID: user.ID,
		Payload:        "other_user",
	}
	require.NoError(t, db.Create(n).Error)

	// AuditLog
	al := &model.AuditLog{TraceID: "trace-001", Action: "friend.request"}
	require.NoError(t, db.Create(al).Error)
}

func TestCreatedAtPinnedToMilliseconds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := &model.User{Username: "u", PasswordHash: "hash"}
	require.NoError(t, db.Create(user).Error)
	comm := &model.Community{Name: "c", ParticipantsCount: 1}
	require.NoError(t, db.Create(comm).Error)
	inbox := &model.Inbox{CommunityID: comm.ID}
	require.NoError(t, db.Create(inbox).Error)

	// Sub-millisecond digits must never be stored: createdAt is a cursor
	// sort key and tokens carry millisecond resolution.
	subMS := time.Date(2026, 3, 1, 12, 0, 0, 123_456_789, time.UTC)
	wantMS := time.Date(2026, 3, 1, 12, 0, 0, 123_000_000, time.UTC)

	msg := &model.Message{InboxID: inbox.ID, SenderID: user.ID, Content: "x", CreatedAt: subMS}
	require.NoError(t, db.Create(msg).Error)
	assert.True(t, msg.CreatedAt.Equal(wantMS))

	n := &model.Notification{
		Type: model.TypeFriendRequest, Status: model.StatusPending,
		TriggeredByID: user.ID, TriggeredForID: user.ID, CreatedAt: subMS,
	}
	require.NoError(t, db.Create(n).Error)
	assert.True(t, n.CreatedAt.Equal(wantMS))

	comm2 := &model.Community{Name: "c2", CreatedAt: subMS}
	require.NoError(t, db.Create(comm2).Error)
	assert.True(t, comm2.CreatedAt.Equal(wantMS))

	// The auto-filled path lands on the same grid.
	auto := &model.Message{InboxID: inbox.ID, SenderID: user.ID, Content: "y"}
	require.NoError(t, db.Create(auto).Error)
	assert.Zero(t, auto.CreatedAt.Nanosecond()%int(time.Millisecond))
}

func TestNotificationStatus_Terminal(t *testing.T) {
	assert.False(t, model.StatusPending.Terminal())
	assert.True(t, model.StatusAccepted.Terminal())
	assert.True(t, model.StatusRejected.Terminal())
	assert.True(t, model.StatusCompleted.Terminal())
}
