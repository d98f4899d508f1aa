package scene

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/spread/internal/ir"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (ir.Object, error) {
	var (
		obj        ir.Object
		kind       string
		mesh       sql.NullString
		matrixJSON string
		parentID   sql.NullInt64
		tagSession sql.NullString
		tagIndex   sql.NullInt64
		anchorOf   sql.NullString
		selected   sql.NullInt64
	)
	err := row.Scan(&obj.ID, &obj.Name, &kind, &mesh, &matrixJSON, &parentID,
		&tagSession, &tagIndex, &anchorOf, &selected)
	if err != nil {
		return ir.Object{}, err
	}

	m, err := unmarshalMatrix(matrixJSON)
	if err != nil {
		return ir.Object{}, fmt.Errorf("object %q: %w", obj.Name, err)
	}

	obj.Kind = ir.ObjectKind(kind)
	obj.Mesh = mesh.String
	obj.Matrix = m
	obj.ParentID = parentID.Int64
	obj.AnchorOf = anchorOf.String
	obj.Selected = selected.Valid
	if tagSession.Valid {
		obj.Tag = &ir.Tag{SessionID: tagSession.String, Index: int(tagIndex.Int64)}
	}
	return obj, nil
}

func (s *Store) queryObjects(ctx context.Context, what, query string, args ...any) ([]ir.Object, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	objs := []ir.Object{}
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		objs = append(objs, obj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return objs, nil
}

func (s *Store) queryObject(ctx context.Context, what, query string, args ...any) (ir.Object, error) {
	obj, err := scanObject(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Object{}, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		return ir.Object{}, fmt.Errorf("read %s: %w", what, err)
	}
	return obj, nil
}

// FindObject returns the object with the given name.
// Returns an error wrapping ErrNotFound if it does not exist.
func (s *Store) FindObject(ctx context.Context, name string) (ir.Object, error) {
	return s.queryObject(ctx, fmt.Sprintf("object %q", name),
		"SELECT "+objectColumns+" FROM objects WHERE name = ?", name)
}

// getObject returns the object with the given id.
func (s *Store) getObject(ctx context.Context, id int64) (ir.Object, error) {
	return s.queryObject(ctx, fmt.Sprintf("object #%d", id),
		"SELECT "+objectColumns+" FROM objects WHERE id = ?", id)
}

// FindMesh returns the mesh with the given name.
func (s *Store) FindMesh(ctx context.Context, name string) (ir.Mesh, error) {
	var m ir.Mesh
	err := s.db.QueryRowContext(ctx,
		"SELECT name, vertices FROM meshes WHERE name = ?", name,
	).Scan(&m.Name, &m.Vertices)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Mesh{}, fmt.Errorf("mesh %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return ir.Mesh{}, fmt.Errorf("read mesh %q: %w", name, err)
	}
	return m, nil
}

// ListMeshes returns all meshes ordered by name.
func (s *Store) ListMeshes(ctx context.Context) ([]ir.Mesh, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, vertices FROM meshes ORDER BY name COLLATE BINARY ASC")
	if err != nil {
		return nil, fmt.Errorf("query meshes: %w", err)
	}
	defer rows.Close()

	meshes := []ir.Mesh{}
	for rows.Next() {
		var m ir.Mesh
		if err := rows.Scan(&m.Name, &m.Vertices); err != nil {
			return nil, fmt.Errorf("scan mesh: %w", err)
		}
		meshes = append(meshes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meshes: %w", err)
	}
	return meshes, nil
}

// Selection returns the selected objects in selection order.
func (s *Store) Selection(ctx context.Context) ([]ir.Object, error) {
	return s.queryObjects(ctx, "selection",
		"SELECT "+objectColumns+" FROM objects WHERE selected_order IS NOT NULL ORDER BY selected_order ASC, id ASC")
}

// ListObjects returns every object ordered by id (creation order).
func (s *Store) ListObjects(ctx context.Context) ([]ir.Object, error) {
	return s.queryObjects(ctx, "objects",
		"SELECT "+objectColumns+" FROM objects ORDER BY id ASC")
}

// CountObjects returns the number of objects in the scene.
func (s *Store) CountObjects(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM objects").Scan(&n); err != nil {
		return 0, fmt.Errorf("count objects: %w", err)
	}
	return n, nil
}

// Tagged runs a TagQuery.
func (s *Store) Tagged(ctx context.Context, q TagQuery) ([]ir.Object, error) {
	query, args := q.Compile()
	return s.queryObjects(ctx, "tagged objects", query, args...)
}

// FindTagged returns slot index of a session.
// Returns an error wrapping ErrNotFound if the slot is empty.
func (s *Store) FindTagged(ctx context.Context, session string, index int) (ir.Object, error) {
	query, args := Slot(session, index).Compile()
	return s.queryObject(ctx, fmt.Sprintf("slot %s[%d]", session, index), query, args...)
}

// ListTagged returns every slot of a session ordered by index.
func (s *Store) ListTagged(ctx context.Context, session string) ([]ir.Object, error) {
	return s.Tagged(ctx, ForSession(session))
}
