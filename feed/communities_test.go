package feed_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedCommunity creates a community with the given number of ACTIVE members
// plus one PENDING straggler, leaving the denormalized counter deliberately
// wrong so tests prove the search counts live rows.
func seedCommunity(t *testing.T, db *gorm.DB, name string, active int, idx int) *model.Community {
	t.Helper()
	c := &model.Community{Name: name, ParticipantsCount: 99, CreatedAt: at(idx)}
	require.NoError(t, db.Create(c).Error)
	for i := 0; i < active; i++ {
		u := createUser(t, db, fmt.Sprintf("%s-m%d", name, i), "")
		require.NoError(t, db.Create(&model.Participant{
			UserID: u.ID, CommunityID: c.ID,
			Status: model.ParticipantActive, Role: model.RoleMember,
		}).Error)
	}
	pending := createUser(t, db, fmt.Sprintf("%s-pending", name), "")
	require.NoError(t, db.Create(&model.Participant{
		UserID: pending.ID, CommunityID: c.ID,
		Status: model.ParticipantPending, Role: model.RoleMember,
	}).Error)
	return c
}

func TestSearchCommunities(t *testing.T) {
	svc, db, _, _ := newFeedService(t)
	ctx := context.Background()
	small := seedCommunity(t, db, "small", 1, 0)
	big := seedCommunity(t, db, "big", 3, 1)
	mid := seedCommunity(t, db, "mid", 2, 2)

	page, err := svc.SearchCommunities(ctx, "", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Communities, 3)

	// Live ACTIVE count, most popular first; PENDING rows and the stale
	// denormalized column are ignored.
	assert.Equal(t, big.ID, page.Communities[0].ID)
	assert.Equal(t, 3, page.Communities[0].ParticipantsCount)
	assert.Equal(t, mid.ID, page.Communities[1].ID)
	assert.Equal(t, small.ID, page.Communities[2].ID)
}

func TestSearchCommunitiesQuery(t *testing.T) {
	svc, db, _, _ := newFeedService(t)
	ctx := context.Background()
	seedCommunity(t, db, "go-gophers", 1, 0)
	seedCommunity(t, db, "rustaceans", 1, 1)
	seedCommunity(t, db, "GOLANG", 1, 2)

	page, err := svc.SearchCommunities(ctx, "go", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Communities, 2)
	for _, c := range page.Communities {
		assert.Contains(t, []string{"go-gophers", "GOLANG"}, c.Name)
	}
}

func TestSearchCommunitiesPaging(t *testing.T) {
	svc, db, _, _ := newFeedService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedCommunity(t, db, fmt.Sprintf("c%d", i), i+1, i)
	}

	var counts []int
	token := ""
	for {
		page, err := svc.SearchCommunities(ctx, "", token, 2)
		require.NoError(t, err)
		for _, c := range page.Communities {
			counts = append(counts, c.ParticipantsCount)
			assert.Equal(t, c.Cursor, pagination.CommunityCursor{
				ParticipantsCount: c.ParticipantsCount,
				ID:                c.ID,
				CreatedAt:         c.CreatedAt,
			}.Encode())
		}
		var ok bool
		token, ok = page.Next.Token()
		if !ok {
			break
		}
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1}, counts)
}

func TestSearchCommunitiesCountTie(t *testing.T) {
	svc, db, _, _ := newFeedService(t)
	ctx := context.Background()
	older := seedCommunity(t, db, "older", 2, 0)
	newer := seedCommunity(t, db, "newer", 2, 1)

	first, err := svc.SearchCommunities(ctx, "", "", 1)
	require.NoError(t, err)
	require.Len(t, first.Communities, 1)
	// Equal counts fall back to creation time, newest first.
	assert.Equal(t, newer.ID, first.Communities[0].ID)

	next, ok := first.Next.Token()
	require.True(t, ok)
	second, err := svc.SearchCommunities(ctx, "", next, 1)
	require.NoError(t, err)
	require.Len(t, second.Communities, 1)
	assert.Equal(t, older.ID, second.Communities[0].ID)
}

func TestSearchCommunitiesInvalidCursor(t *testing.T) {
	svc, _, _, _ := newFeedService(t)

	for _, token := range []string{
		"x",
		"-1_00000000-0000-0000-0000-000000000000_2026-03-01T12:00:00.000Z",
		"007_00000000-0000-0000-0000-000000000000_2026-03-01T12:00:00.000Z",
		"5_00000000-0000-0000-0000-000000000000_2026-03-01T12:00:00Z",
	} {
		_, err := svc.SearchCommunities(context.Background(), "", token, 5)
		assert.ErrorIs(t, err, pagination.ErrInvalidCursor, token)
	}
}
