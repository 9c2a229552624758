package social_test

import (
	"context"
	"testing"

	"github.com/mizusawa-dev/clique/apperr"
	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommunity(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "a bio", "", "")
	require.NoError(t, err)
	assert.Equal(t, "gophers", community.Name)
	assert.Equal(t, 1, community.ParticipantsCount)

	var p model.Participant
	require.NoError(t, db.First(&p, "community_id = ?", community.ID).Error)
	assert.Equal(t, owner.ID, p.UserID)
	assert.Equal(t, model.ParticipantActive, p.Status)
	assert.Equal(t, model.RoleOwner, p.Role)

	var inbox model.Inbox
	require.NoError(t, db.First(&inbox, "community_id = ?", community.ID).Error)
}

func TestCreateCommunityDuplicateName(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")

	_, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)

	_, err = svc.CreateCommunity(ctx, owner.ID, "GoPhers", "", "", "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRequestJoin(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	joiner := createUser(t, db, "joiner", "Joy")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)

	notif, err := svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TypeCommunityRequest, notif.Type)
	assert.Equal(t, model.StatusPending, notif.Status)
	assert.Equal(t, joiner.ID, notif.TriggeredByID)
	assert.Equal(t, owner.ID, notif.TriggeredForID)
	require.NotNil(t, notif.CommunityID)
	assert.Equal(t, community.ID, *notif.CommunityID)
	assert.Equal(t, "Joy", notif.Payload)

	var p model.Participant
	require.NoError(t, db.First(&p, "community_id = ? AND user_id = ?", community.ID, joiner.ID).Error)
	assert.Equal(t, model.ParticipantPending, p.Status)
	assert.Equal(t, model.RoleMember, p.Role)
}

func TestRequestJoinDuplicate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	joiner := createUser(t, db, "joiner", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)

	_, err = svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	_, err = svc.RequestJoin(ctx, joiner.ID, community.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// The owner's own ACTIVE row blocks a join request just the same.
	_, err = svc.RequestJoin(ctx, owner.ID, community.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRequestJoinUnknownCommunity(t *testing.T) {
	svc, db := newTestService(t)
	joiner := createUser(t, db, "joiner", "")

	_, err := svc.RequestJoin(context.Background(), joiner.ID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAcceptCommunityRequest(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	joiner := createUser(t, db, "joiner", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)
	notif, err := svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	var pending model.Participant
	require.NoError(t, db.First(&pending, "community_id = ? AND user_id = ?", community.ID, joiner.ID).Error)

	res, err := svc.ResolveCommunityRequest(ctx, owner.ID, notif.ID, pending.ID, social.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, res.Notification.Status)
	require.NotNil(t, res.Participant)
	assert.Equal(t, model.ParticipantActive, res.Participant.Status)

	var stored model.Community
	require.NoError(t, db.First(&stored, "id = ?", community.ID).Error)
	assert.Equal(t, 2, stored.ParticipantsCount)
}

func TestRejectCommunityRequest(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	joiner := createUser(t, db, "joiner", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)
	notif, err := svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	var pending model.Participant
	require.NoError(t, db.First(&pending, "community_id = ? AND user_id = ?", community.ID, joiner.ID).Error)

	res, err := svc.ResolveCommunityRequest(ctx, owner.ID, notif.ID, pending.ID, social.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, res.Notification.Status)
	assert.Nil(t, res.Participant)

	// The pending row is gone and the counter untouched, so the user may
	// request again later.
	var count int64
	require.NoError(t, db.Model(&model.Participant{}).
		Where("community_id = ? AND user_id = ?", community.ID, joiner.ID).
		Count(&count).Error)
	assert.Zero(t, count)

	var stored model.Community
	require.NoError(t, db.First(&stored, "id = ?", community.ID).Error)
	assert.Equal(t, 1, stored.ParticipantsCount)

	_, err = svc.RequestJoin(ctx, joiner.ID, community.ID)
	assert.NoError(t, err)
}

func TestResolveCommunityRequestForbidden(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	joiner := createUser(t, db, "joiner", "")
	other := createUser(t, db, "other", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)
	notif, err := svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	var pending model.Participant
	require.NoError(t, db.First(&pending, "community_id = ? AND user_id = ?", community.ID, joiner.ID).Error)

	_, err = svc.ResolveCommunityRequest(ctx, other.ID, notif.ID, pending.ID, social.ActionAccept)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestResolveCommunityRequestFollowsOwnershipHandover(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	founder := createUser(t, db, "founder", "")
	successor := createUser(t, db, "successor", "")
	joiner := createUser(t, db, "joiner", "")

	community, err := svc.CreateCommunity(ctx, founder.ID, "gophers", "", "", "")
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Participant{
		UserID:      successor.ID,
		CommunityID: community.ID,
		Status:      model.ParticipantActive,
		Role:        model.RoleMember,
	}).Error)

	notif, err := svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)
	assert.Equal(t, founder.ID, notif.TriggeredForID)

	var pending model.Participant
	require.NoError(t, db.First(&pending, "community_id = ? AND user_id = ?", community.ID, joiner.ID).Error)

	// Ownership moves while the request is in flight.
	require.NoError(t, db.Model(&model.Participant{}).
		Where("community_id = ? AND user_id = ?", community.ID, founder.ID).
		Update("role", model.RoleMember).Error)
	require.NoError(t, db.Model(&model.Participant{}).
		Where("community_id = ? AND user_id = ?", community.ID, successor.ID).
		Update("role", model.RoleOwner).Error)

	// The notification still addresses the founder, but only the current
	// owner may resolve.
	_, err = svc.ResolveCommunityRequest(ctx, founder.ID, notif.ID, pending.ID, social.ActionAccept)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	res, err := svc.ResolveCommunityRequest(ctx, successor.ID, notif.ID, pending.ID, social.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, res.Notification.Status)
}

func TestResolveCommunityRequestTwice(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	joiner := createUser(t, db, "joiner", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)
	notif, err := svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	var pending model.Participant
	require.NoError(t, db.First(&pending, "community_id = ? AND user_id = ?", community.ID, joiner.ID).Error)

	_, err = svc.ResolveCommunityRequest(ctx, owner.ID, notif.ID, pending.ID, social.ActionAccept)
	require.NoError(t, err)

	_, err = svc.ResolveCommunityRequest(ctx, owner.ID, notif.ID, pending.ID, social.ActionReject)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestResolveCommunityRequestOrphanedParticipant(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	joiner := createUser(t, db, "joiner", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)
	notif, err := svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	var pending model.Participant
	require.NoError(t, db.First(&pending, "community_id = ? AND user_id = ?", community.ID, joiner.ID).Error)
	require.NoError(t, db.Delete(&model.Participant{}, "id = ?", pending.ID).Error)

	_, err = svc.ResolveCommunityRequest(ctx, owner.ID, notif.ID, pending.ID, social.ActionAccept)
	assert.ErrorIs(t, err, apperr.ErrOrphaned)

	// The notification survives PENDING for the client to dismiss.
	var stored model.Notification
	require.NoError(t, db.First(&stored, "id = ?", notif.ID).Error)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestDeleteCommunity(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	joiner := createUser(t, db, "joiner", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)
	_, err = svc.RequestJoin(ctx, joiner.ID, community.ID)
	require.NoError(t, err)

	var inbox model.Inbox
	require.NoError(t, db.First(&inbox, "community_id = ?", community.ID).Error)
	require.NoError(t, db.Create(&model.Message{
		InboxID: inbox.ID, SenderID: owner.ID, Content: "hello",
	}).Error)

	require.NoError(t, svc.DeleteCommunity(ctx, owner.ID, community.ID))

	for _, probe := range []struct {
		name  string
		model interface{}
		where []interface{}
	}{
		{"community", &model.Community{}, []interface{}{"id = ?", community.ID}},
		{"inbox", &model.Inbox{}, []interface{}{"community_id = ?", community.ID}},
		{"participants", &model.Participant{}, []interface{}{"community_id = ?", community.ID}},
		{"messages", &model.Message{}, []interface{}{"inbox_id = ?", inbox.ID}},
		{"notifications", &model.Notification{}, []interface{}{"community_id = ?", community.ID}},
	} {
		var count int64
		require.NoError(t, db.Model(probe.model).Where(probe.where[0], probe.where[1:]...).Count(&count).Error)
		assert.Zero(t, count, probe.name)
	}
}

func TestDeleteCommunityForbidden(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner", "")
	other := createUser(t, db, "other", "")

	community, err := svc.CreateCommunity(ctx, owner.ID, "gophers", "", "", "")
	require.NoError(t, err)

	err = svc.DeleteCommunity(ctx, other.ID, community.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = svc.DeleteCommunity(ctx, other.ID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
