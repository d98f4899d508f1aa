package scene

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
)

// maxNameSuffix bounds the ".NNN" search when making names unique.
const maxNameSuffix = 9999

var numericSuffix = regexp.MustCompile(`^(.*)\.(\d{3,})$`)

// CreateMesh inserts a mesh, or updates its vertex count if it already exists.
func (s *Store) CreateMesh(ctx context.Context, m ir.Mesh) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meshes (name, vertices) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET vertices = excluded.vertices
	`, m.Name, m.Vertices)
	if err != nil {
		return fmt.Errorf("write mesh %q: %w", m.Name, err)
	}
	return nil
}

// CreateObject inserts an object and returns it as stored.
//
// When the requested name is taken the object is renamed the way a 3D host
// does it: the numeric suffix is stripped and the lowest free ".NNN" suffix is
// appended ("Cube" -> "Cube.001", "Cube.001" -> "Cube.002").
func (s *Store) CreateObject(ctx context.Context, obj ir.NewObject) (ir.Object, error) {
	matrixJSON, err := marshalMatrix(obj.Matrix)
	if err != nil {
		return ir.Object{}, fmt.Errorf("create object: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Object{}, fmt.Errorf("create object: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	name, err := uniqueName(ctx, tx, obj.Name)
	if err != nil {
		return ir.Object{}, fmt.Errorf("create object: %w", err)
	}

	var tagSession, tagIndex any
	if obj.Tag != nil {
		tagSession, tagIndex = obj.Tag.SessionID, obj.Tag.Index
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO objects (name, kind, mesh, matrix, parent_id, tag_session, tag_index, anchor_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		name,
		string(obj.Kind),
		nullString(obj.Mesh),
		matrixJSON,
		nullID(obj.ParentID),
		tagSession,
		tagIndex,
		nullString(obj.AnchorOf),
	)
	if err != nil {
		return ir.Object{}, fmt.Errorf("create object %q: %w", name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ir.Object{}, fmt.Errorf("create object %q: last insert id: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return ir.Object{}, fmt.Errorf("create object %q: commit: %w", name, err)
	}

	return ir.Object{
		ID:       id,
		Name:     name,
		Kind:     obj.Kind,
		Mesh:     obj.Mesh,
		Matrix:   obj.Matrix,
		ParentID: obj.ParentID,
		Tag:      obj.Tag,
		AnchorOf: obj.AnchorOf,
	}, nil
}

// uniqueName returns name if unused, else the lowest free ".NNN" variant.
func uniqueName(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	taken, err := nameTaken(ctx, tx, name)
	if err != nil || !taken {
		return name, err
	}

	base, _ := parseSuffix(name)

	for n := 1; n <= maxNameSuffix; n++ {
		candidate := fmt.Sprintf("%s.%03d", base, n)
		taken, err := nameTaken(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %q", name)
}

func nameTaken(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM objects WHERE name = ?)", name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check name %q: %w", name, err)
	}
	return exists, nil
}

// SetMatrix replaces an object's world matrix.
func (s *Store) SetMatrix(ctx context.Context, id int64, m geom.Mat4) error {
	matrixJSON, err := marshalMatrix(m)
	if err != nil {
		return fmt.Errorf("set matrix: %w", err)
	}
	return s.execOne(ctx, fmt.Sprintf("set matrix of object #%d", id),
		"UPDATE objects SET matrix = ? WHERE id = ?", matrixJSON, id)
}

// SetParent links an object under parent. A parent of 0 unlinks it.
func (s *Store) SetParent(ctx context.Context, id, parent int64) error {
	return s.execOne(ctx, fmt.Sprintf("set parent of object #%d", id),
		"UPDATE objects SET parent_id = ? WHERE id = ?", nullID(parent), id)
}

// DeleteObject removes an object. Its children are removed with it.
func (s *Store) DeleteObject(ctx context.Context, id int64) error {
	return s.execOne(ctx, fmt.Sprintf("delete object #%d", id),
		"DELETE FROM objects WHERE id = ?", id)
}

// DeleteTagged removes every object matched by q and returns how many
// rows were deleted.
func (s *Store) DeleteTagged(ctx context.Context, q TagQuery) (int64, error) {
	query, args := q.CompileDelete()
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete tagged: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete tagged: rows affected: %w", err)
	}
	return n, nil
}

// SetSelection replaces the selection with the named objects, in order.
// Fails without changing anything if a name does not exist.
func (s *Store) SetSelection(ctx context.Context, names ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set selection: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, "UPDATE objects SET selected_order = NULL"); err != nil {
		return fmt.Errorf("set selection: clear: %w", err)
	}

	for i, name := range names {
		result, err := tx.ExecContext(ctx,
			"UPDATE objects SET selected_order = ? WHERE name = ?", i, name)
		if err != nil {
			return fmt.Errorf("set selection: %q: %w", name, err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("set selection: object %q: %w", name, ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set selection: commit: %w", err)
	}
	return nil
}

// Reset removes every object and mesh. The session journal is kept.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range []string{"DELETE FROM objects", "DELETE FROM meshes"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset scene: %w", err)
		}
	}
	return nil
}

// execOne runs a statement that must affect exactly one row.
func (s *Store) execOne(ctx context.Context, what, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// parseSuffix splits "Cube.012" into ("Cube", 12). Names without a numeric
// suffix return n = 0.
func parseSuffix(name string) (base string, n int) {
	m := numericSuffix.FindStringSubmatch(name)
	if m == nil {
		return name, 0
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return name, 0
	}
	return m[1], n
}
