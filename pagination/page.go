package pagination

import "encoding/json"

// Edge is one side of a page in a response. It marshals to the wire shape
// callers depend on: a cursor token string, false ("no further page in that
// direction"), or null ("direction not applicable to this list").
type Edge struct {
	token      string
	exhausted  bool
	applicable bool
}

// EdgeToken returns an Edge carrying a cursor token.
func EdgeToken(token string) Edge {
	return Edge{token: token, applicable: true}
}

// EdgeExhausted returns an Edge signaling no further page.
func EdgeExhausted() Edge {
	return Edge{exhausted: true, applicable: true}
}

// EdgeNone returns an Edge for a direction that is not applicable.
func EdgeNone() Edge {
	return Edge{}
}

// Token returns the cursor token and whether one is present.
func (e Edge) Token() (string, bool) {
	return e.token, e.applicable && !e.exhausted
}

func (e Edge) MarshalJSON() ([]byte, error) {
	if !e.applicable {
		return []byte("null"), nil
	}
	if e.exhausted {
		return []byte("false"), nil
	}
	return json.Marshal(e.token)
}

// Page carries the derived prev/next edges of one returned page.
type Page struct {
	Prev Edge `json:"prevCursor"`
	Next Edge `json:"nextCursor"`
}

// DeriveMessagePage computes the edges of a bidirectional message page.
// tokens are the encoded cursors of the returned rows in query order (DESC
// for backward, ASC for forward). Prev always points at the oldest row of the
// page, Next at the newest. The page is under-filled (< limit rows) only when
// the store is exhausted on the travel side, so that side flips to false;
// exactly limit rows are fetched and under-fill is the only signal.
func DeriveMessagePage(tokens []string, dir Direction, limit int) Page {
	if len(tokens) == 0 {
		return Page{Prev: EdgeExhausted(), Next: EdgeExhausted()}
	}

	var oldest, newest string
	switch dir {
	case Forward:
		oldest, newest = tokens[0], tokens[len(tokens)-1]
	default:
		oldest, newest = tokens[len(tokens)-1], tokens[0]
	}

	p := Page{Prev: EdgeToken(oldest), Next: EdgeToken(newest)}
	if len(tokens) < limit {
		if dir == Forward {
			p.Next = EdgeExhausted()
		} else {
			p.Prev = EdgeExhausted()
		}
	}
	return p
}

// DeriveListPage computes the edges of a single-direction list page
// (notifications, friends, community search). Next continues the list from
// the boundary row; Prev is not applicable.
func DeriveListPage(tokens []string, limit int) Page {
	p := Page{Prev: EdgeNone(), Next: EdgeExhausted()}
	if limit > 0 && len(tokens) == limit {
		p.Next = EdgeToken(tokens[len(tokens)-1])
	}
	return p
}
