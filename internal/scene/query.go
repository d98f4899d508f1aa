package scene

import (
	"strings"
)

// objectColumns is the column list every object query selects, in scan order.
const objectColumns = "id, name, kind, mesh, matrix, parent_id, tag_session, tag_index, anchor_of, selected_order"

// TagQuery selects tagged duplicate objects.
//
// Zero-valued fields do not filter, except that a TagQuery always excludes
// untagged objects. Compile produces parameterized SQL ordered by
// (tag_session, tag_index, id) so results are deterministic.
type TagQuery struct {
	// Session restricts results to one session's slots.
	Session string
	// Index, when non-nil, selects exactly one slot index.
	Index *int
	// MinIndex, when non-nil, selects slots with tag_index >= *MinIndex.
	MinIndex *int
}

// ForSession returns a query for every slot of a session.
func ForSession(session string) TagQuery {
	return TagQuery{Session: session}
}

// Slot returns a query for one slot of a session.
func Slot(session string, index int) TagQuery {
	return TagQuery{Session: session, Index: &index}
}

// From returns a query for the slots of a session at or beyond index.
func From(session string, index int) TagQuery {
	return TagQuery{Session: session, MinIndex: &index}
}

// Compile converts the query to SQL and its bound parameters.
// Values are always parameterized, never interpolated.
func (q TagQuery) Compile() (string, []any) {
	where, params := q.where()
	return "SELECT " + objectColumns + " FROM objects WHERE " + where +
		" ORDER BY tag_session COLLATE BINARY ASC, tag_index ASC, id ASC", params
}

// CompileDelete converts the query to a DELETE statement over the same rows.
func (q TagQuery) CompileDelete() (string, []any) {
	where, params := q.where()
	return "DELETE FROM objects WHERE " + where, params
}

func (q TagQuery) where() (string, []any) {
	conds := []string{"tag_session IS NOT NULL"}
	var params []any

	if q.Session != "" {
		conds = append(conds, "tag_session = ?")
		params = append(params, q.Session)
	}
	if q.Index != nil {
		conds = append(conds, "tag_index = ?")
		params = append(params, *q.Index)
	}
	if q.MinIndex != nil {
		conds = append(conds, "tag_index >= ?")
		params = append(params, *q.MinIndex)
	}

	return strings.Join(conds, " AND "), params
}
