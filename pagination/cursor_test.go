package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeCursorRoundTrip(t *testing.T) {
	c := TimeCursor{
		ID:        uuid.NewString(),
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
	}
	token := c.Encode()
	assert.Equal(t, c.ID+"_2026-03-14T09:26:53.589Z", token)

	got, err := DecodeTimeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, token, got.Encode())
}

func TestTimeCursorInvalid(t *testing.T) {
	id := uuid.NewString()
	cases := map[string]string{
		"empty":              "",
		"one field":          id,
		"three fields":       id + "_2026-03-14T09:26:53.589Z_extra",
		"bad id":             "not-a-uuid_2026-03-14T09:26:53.589Z",
		"uppercase id":       "6BA7B810-9DAD-11D1-80B4-00C04FD430C8_2026-03-14T09:26:53.589Z",
		"braced id":          "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}_2026-03-14T09:26:53.589Z",
		"no millis":          id + "_2026-03-14T09:26:53Z",
		"micro precision":    id + "_2026-03-14T09:26:53.589000Z",
		"numeric offset":     id + "_2026-03-14T09:26:53.589+00:00",
		"nonzero offset":     id + "_2026-03-14T11:26:53.589+02:00",
		"date only":          id + "_2026-03-14",
		"garbage timestamp":  id + "_hello",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTimeCursor(token)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func TestCommunityCursorRoundTrip(t *testing.T) {
	c := CommunityCursor{
		ParticipantsCount: 10,
		ID:                uuid.NewString(),
		CreatedAt:         time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	}
	token := c.Encode()
	assert.Equal(t, "10_"+c.ID+"_2026-01-02T03:04:05.006Z", token)

	got, err := DecodeCommunityCursor(token)
	require.NoError(t, err)
	assert.Equal(t, c.ParticipantsCount, got.ParticipantsCount)
	assert.Equal(t, c.ID, got.ID)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
}

func TestCommunityCursorZeroCount(t *testing.T) {
	c := CommunityCursor{
		ParticipantsCount: 0,
		ID:                uuid.NewString(),
		CreatedAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	got, err := DecodeCommunityCursor(c.Encode())
	require.NoError(t, err)
	assert.Equal(t, 0, got.ParticipantsCount)
}

func TestCommunityCursorInvalid(t *testing.T) {
	id := uuid.NewString()
	ts := "2026-01-02T03:04:05.006Z"
	cases := map[string]string{
		"two fields":    id + "_" + ts,
		"negative":      "-1_" + id + "_" + ts,
		"plus sign":     "+1_" + id + "_" + ts,
		"leading zero":  "01_" + id + "_" + ts,
		"not a number":  "ten_" + id + "_" + ts,
		"swapped order": id + "_10_" + ts,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCommunityCursor(token)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func TestFriendCursorRoundTrip(t *testing.T) {
	c := FriendCursor{ID: uuid.NewString(), Username: "alice"}
	got, err := DecodeFriendCursor(c.Encode())
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestFriendCursorUsernameWithUnderscore(t *testing.T) {
	// Usernames may contain the delimiter; only the first one splits.
	c := FriendCursor{ID: uuid.NewString(), Username: "mr_snake_case"}
	got, err := DecodeFriendCursor(c.Encode())
	require.NoError(t, err)
	assert.Equal(t, "mr_snake_case", got.Username)
}

func TestFriendCursorInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"no delimiter":   uuid.NewString(),
		"empty username": uuid.NewString() + "_",
		"bad id":         "bogus_alice",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeFriendCursor(token)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}
