package pagination

import (
	"fmt"

	"gorm.io/gorm"
)

// Direction selects which way a bidirectional feed is scrolled.
type Direction string

const (
	// Backward pages toward older rows; the default.
	Backward Direction = "backward"
	// Forward pages toward newer rows ("load newer").
	Forward Direction = "forward"
)

// ParseDirection validates a caller-supplied direction parameter.
// The empty string defaults to Backward.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case "":
		return Backward, true
	case Backward:
		return Backward, true
	case Forward:
		return Forward, true
	default:
		return "", false
	}
}

// Every list is totally ordered by its primary sort fields plus the unique id
// tie-breaker, and every boundary predicate is strict, excluding the cursor
// row itself. Column references are qualified with the given table (or alias)
// name because the feed queries join other tables carrying the same column
// names.

// TimeKeyset returns a scope applying the (createdAt, id) keyset boundary and
// ordering for message/notification feeds. A nil cursor starts at the edge.
func TimeKeyset(table string, cur *TimeCursor, dir Direction) func(*gorm.DB) *gorm.DB {
	createdAt := table + ".created_at"
	id := table + ".id"
	return func(db *gorm.DB) *gorm.DB {
		switch dir {
		case Forward:
			if cur != nil {
				db = db.Where(
					fmt.Sprintf("%s > ? OR (%s = ? AND %s > ?)", createdAt, createdAt, id),
					cur.CreatedAt, cur.CreatedAt, cur.ID,
				)
			}
			return db.Order(fmt.Sprintf("%s ASC, %s ASC", createdAt, id))
		default:
			if cur != nil {
				db = db.Where(
					fmt.Sprintf("%s < ? OR (%s = ? AND %s < ?)", createdAt, createdAt, id),
					cur.CreatedAt, cur.CreatedAt, cur.ID,
				)
			}
			return db.Order(fmt.Sprintf("%s DESC, %s DESC", createdAt, id))
		}
	}
}

// CommunityKeyset returns a scope applying the community-search boundary and
// ordering: (participantsCount DESC, createdAt DESC, id DESC), with each field
// chained under equality on the higher-priority ones.
func CommunityKeyset(table string, cur *CommunityCursor) func(*gorm.DB) *gorm.DB {
	count := table + ".participants_count"
	createdAt := table + ".created_at"
	id := table + ".id"
	return func(db *gorm.DB) *gorm.DB {
		if cur != nil {
			db = db.Where(
				fmt.Sprintf("%s < ? OR (%s = ? AND (%s < ? OR (%s = ? AND %s < ?)))",
					count, count, createdAt, createdAt, id),
				cur.ParticipantsCount, cur.ParticipantsCount,
				cur.CreatedAt, cur.CreatedAt, cur.ID,
			)
		}
		return db.Order(fmt.Sprintf("%s DESC, %s DESC, %s DESC", count, createdAt, id))
	}
}

// FriendKeyset returns a scope applying the friends-list boundary and
// ordering: (username ASC, id ASC) over the joined users table.
func FriendKeyset(table string, cur *FriendCursor) func(*gorm.DB) *gorm.DB {
	username := table + ".username"
	id := table + ".id"
	return func(db *gorm.DB) *gorm.DB {
		if cur != nil {
			db = db.Where(
				fmt.Sprintf("%s > ? OR (%s = ? AND %s > ?)", username, username, id),
				cur.Username, cur.Username, cur.ID,
			)
		}
		return db.Order(fmt.Sprintf("%s ASC, %s ASC", username, id))
	}
}
