// Package apperr is the typed, caller-visible error taxonomy shared by the
// service layer. The API layer maps kinds to HTTP statuses; anything outside
// the taxonomy (transaction abort, timeout) propagates untyped as a generic
// internal failure.
package apperr

import "fmt"

// Kind classifies a recoverable, caller-visible outcome.
type Kind string

const (
	// KindNotFound: the referenced notification/community/participant/user
	// does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict: the notification is no longer PENDING, the users are
	// already friends, the request targets oneself, or the join is a
	// duplicate.
	KindConflict Kind = "CONFLICT"
	// KindForbidden: the caller is not the recipient/owner/member.
	KindForbidden Kind = "FORBIDDEN"
	// KindOrphanedReference: the notification exists but the row it points at
	// does not. Distinct from plain NotFound.
	KindOrphanedReference Kind = "ORPHANED_REFERENCE"
)

// Error carries enough structure for the calling layer to render a specific
// message. The service layer never formats human-readable text beyond the
// diagnostic Error() string.
type Error struct {
	Kind   Kind
	Entity string
	Field  string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %s (%s)", e.Entity, e.Kind, e.Field)
	}
	return fmt.Sprintf("%s %s", e.Entity, e.Kind)
}

// Is matches by kind, and by entity/field when the target specifies them.
// errors.Is(err, ErrConflict) therefore matches any conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}
	if t.Field != "" && t.Field != e.Field {
		return false
	}
	return true
}

// Sentinel targets for errors.Is checks.
var (
	ErrNotFound  = &Error{Kind: KindNotFound}
	ErrConflict  = &Error{Kind: KindConflict}
	ErrForbidden = &Error{Kind: KindForbidden}
	ErrOrphaned  = &Error{Kind: KindOrphanedReference}
)

// NotFound reports a missing entity.
func NotFound(entity string) *Error { return &Error{Kind: KindNotFound, Entity: entity} }

// Conflict reports a state that forbids the attempted transition.
func Conflict(entity, field string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Field: field}
}

// Forbidden reports a caller without the required relationship to the entity.
func Forbidden(entity string) *Error { return &Error{Kind: KindForbidden, Entity: entity} }

// Orphaned reports a dangling reference from an existing row.
func Orphaned(entity string) *Error {
	return &Error{Kind: KindOrphanedReference, Entity: entity}
}
