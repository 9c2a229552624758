// Package pagination implements the keyset (cursor-based) pagination shared by
// the message, notification, friend and community-search list views: the
// opaque cursor token codec, the per-list boundary predicates and orderings,
// and the page-edge derivation.
package pagination

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCursor is returned when a cursor token does not round-trip
// bit-exactly through the codec.
var ErrInvalidCursor = errors.New("pagination: invalid cursor")

// instantLayout is the wire format for cursor timestamps: an ISO-8601 instant
// with a mandatory millisecond fraction and Z suffix.
const instantLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatInstant renders t in the cursor wire format.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

// parseInstant decodes a cursor timestamp. The round-trip law applies: the
// re-rendered string must equal the input exactly, so offsets other than Z,
// missing or extra fractional digits, and lowercase markers are all rejected
// even though time.Parse would accept some of them.
func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(instantLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}
	if FormatInstant(t) != s {
		return time.Time{}, ErrInvalidCursor
	}
	return t, nil
}

// parseID decodes an opaque entity key. Only the canonical lowercase
// hex-and-dashes UUID form is accepted.
func parseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil || id.String() != s {
		return "", ErrInvalidCursor
	}
	return s, nil
}

// parseCount decodes the non-negative integer field of a community cursor.
// Itoa(n) must reproduce the input, which rejects signs and leading zeros.
func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || strconv.Itoa(n) != s {
		return 0, ErrInvalidCursor
	}
	return n, nil
}

// TimeCursor is the boundary of a message or notification page:
// the last-seen row's (id, createdAt).
type TimeCursor struct {
	ID        string
	CreatedAt time.Time
}

// Encode renders the cursor as "{id}_{createdAt}".
func (c TimeCursor) Encode() string {
	return c.ID + "_" + FormatInstant(c.CreatedAt)
}

// DecodeTimeCursor parses a "{id}_{createdAt}" token.
func DecodeTimeCursor(token string) (TimeCursor, error) {
	parts := strings.Split(token, "_")
	if len(parts) != 2 {
		return TimeCursor{}, ErrInvalidCursor
	}
	id, err := parseID(parts[0])
	if err != nil {
		return TimeCursor{}, err
	}
	at, err := parseInstant(parts[1])
	if err != nil {
		return TimeCursor{}, err
	}
	return TimeCursor{ID: id, CreatedAt: at}, nil
}

// CommunityCursor is the boundary of a community-search page:
// "{participantsCount}_{id}_{createdAt}".
type CommunityCursor struct {
	ParticipantsCount int
	ID                string
	CreatedAt         time.Time
}

// Encode renders the cursor as "{participantsCount}_{id}_{createdAt}".
func (c CommunityCursor) Encode() string {
	return strconv.Itoa(c.ParticipantsCount) + "_" + c.ID + "_" + FormatInstant(c.CreatedAt)
}

// DecodeCommunityCursor parses a "{participantsCount}_{id}_{createdAt}" token.
func DecodeCommunityCursor(token string) (CommunityCursor, error) {
	parts := strings.Split(token, "_")
	if len(parts) != 3 {
		return CommunityCursor{}, ErrInvalidCursor
	}
	count, err := parseCount(parts[0])
	if err != nil {
		return CommunityCursor{}, err
	}
	id, err := parseID(parts[1])
	if err != nil {
		return CommunityCursor{}, err
	}
	at, err := parseInstant(parts[2])
	if err != nil {
		return CommunityCursor{}, err
	}
	return CommunityCursor{ParticipantsCount: count, ID: id, CreatedAt: at}, nil
}

// FriendCursor is the boundary of a friends page: "{id}_{username}".
type FriendCursor struct {
	ID       string
	Username string
}

// Encode renders the cursor as "{id}_{username}".
func (c FriendCursor) Encode() string {
	return c.ID + "_" + c.Username
}

// DecodeFriendCursor parses a "{id}_{username}" token. The username is the
// caller-visible handle and may itself contain underscores, so only the first
// delimiter splits; the id is a UUID and never contains one.
func DecodeFriendCursor(token string) (FriendCursor, error) {
	parts := strings.SplitN(token, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return FriendCursor{}, ErrInvalidCursor
	}
	id, err := parseID(parts[0])
	if err != nil {
		return FriendCursor{}, err
	}
	return FriendCursor{ID: id, Username: parts[1]}, nil
}
