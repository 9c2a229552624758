package feed_test

import (
	"testing"
	"time"

	"github.com/mizusawa-dev/clique/cache"
	"github.com/mizusawa-dev/clique/fanout"
	"github.com/mizusawa-dev/clique/feed"
	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newFeedService(t *testing.T) (*feed.Service, *gorm.DB, cache.Cache, cache.PubSub) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	svc := feed.NewService(db, c, fanout.New(ps, zap.NewNop()), zap.NewNop(), 5*time.Minute)
	return svc, db, c, ps
}

func createUser(t *testing.T, db *gorm.DB, username, displayName string) *model.User {
	t.Helper()
	u := &model.User{Username: username, DisplayName: displayName, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// createCommunity seeds a community, its inbox, and an ACTIVE owner
// participant without going through the request lifecycle.
func createCommunity(t *testing.T, db *gorm.DB, ownerID, name string) *model.Community {
	t.Helper()
	c := &model.Community{Name: name, ParticipantsCount: 1}
	require.NoError(t, db.Create(c).Error)
	require.NoError(t, db.Create(&model.Participant{
		UserID: ownerID, CommunityID: c.ID,
		Status: model.ParticipantActive, Role: model.RoleOwner,
	}).Error)
	require.NoError(t, db.Create(&model.Inbox{CommunityID: c.ID}).Error)
	return c
}

// at builds a deterministic millisecond-precision instant; cursor timestamps
// carry exactly millisecond resolution.
func at(i int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * 250 * time.Millisecond)
}
