package scene

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/spread/internal/ir"
)

// BeginSession records a session at start. The record's Final params and
// EndSeq are ignored; EndSession fills them in.
func (s *Store) BeginSession(ctx context.Context, rec ir.SessionRecord) error {
	matrixA, err := marshalMatrix(rec.MatrixA)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	matrixB, err := marshalMatrix(rec.MatrixB)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	initial, err := marshalParams(rec.Initial)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, state, mesh, base_name, ref_a, ref_b, matrix_a, matrix_b, initial_params, start_seq, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		string(rec.State),
		rec.Mesh,
		rec.BaseName,
		rec.RefA,
		rec.RefB,
		matrixA,
		matrixB,
		initial,
		rec.StartSeq,
		rec.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("begin session %s: %w", rec.ID, err)
	}
	return nil
}

// AppendEvent journals one input event of a running session.
func (s *Store) AppendEvent(ctx context.Context, ev ir.EventRecord) error {
	eventJSON, err := marshalEvent(ev.Event)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_events (session_id, seq, event, outcome)
		VALUES (?, ?, ?, ?)
	`, ev.SessionID, ev.Seq, eventJSON, ev.Outcome)
	if err != nil {
		return fmt.Errorf("append event %s#%d: %w", ev.SessionID, ev.Seq, err)
	}
	return nil
}

// EndSession records the terminal state and final params of a session.
func (s *Store) EndSession(ctx context.Context, id string, state ir.State, final ir.Params, endSeq int64) error {
	finalJSON, err := marshalParams(final)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return s.execOne(ctx, fmt.Sprintf("end session %s", id), `
		UPDATE sessions SET state = ?, final_params = ?, end_seq = ?
		WHERE id = ?
	`, string(state), finalJSON, endSeq, id)
}

const sessionColumns = "id, state, mesh, base_name, ref_a, ref_b, matrix_a, matrix_b, initial_params, final_params, start_seq, end_seq, ir_version"

func scanSession(row rowScanner) (ir.SessionRecord, error) {
	var (
		rec              ir.SessionRecord
		state            string
		matrixA, matrixB string
		initial          string
		final            sql.NullString
		endSeq           sql.NullInt64
	)
	err := row.Scan(&rec.ID, &state, &rec.Mesh, &rec.BaseName, &rec.RefA, &rec.RefB,
		&matrixA, &matrixB, &initial, &final, &rec.StartSeq, &endSeq, &rec.IRVersion)
	if err != nil {
		return ir.SessionRecord{}, err
	}

	rec.State = ir.State(state)
	rec.EndSeq = endSeq.Int64
	if rec.MatrixA, err = unmarshalMatrix(matrixA); err != nil {
		return ir.SessionRecord{}, err
	}
	if rec.MatrixB, err = unmarshalMatrix(matrixB); err != nil {
		return ir.SessionRecord{}, err
	}
	if rec.Initial, err = unmarshalParams(initial); err != nil {
		return ir.SessionRecord{}, err
	}
	if rec.Final, err = unmarshalParams(final.String); err != nil {
		return ir.SessionRecord{}, err
	}
	return rec, nil
}

// ReadSession returns one journaled session.
func (s *Store) ReadSession(ctx context.Context, id string) (ir.SessionRecord, error) {
	rec, err := scanSession(s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.SessionRecord{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.SessionRecord{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions returns every journaled session ordered by start_seq, id.
func (s *Store) ListSessions(ctx context.Context) ([]ir.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions ORDER BY start_seq ASC, id COLLATE BINARY ASC")
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.SessionRecord{}
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadEvents returns the journaled events of a session ordered by seq.
func (s *Store) ReadEvents(ctx context.Context, id string) ([]ir.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, event, outcome
		FROM session_events
		WHERE session_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.EventRecord{}
	for rows.Next() {
		var (
			ev        ir.EventRecord
			eventJSON string
		)
		if err := rows.Scan(&ev.SessionID, &ev.Seq, &eventJSON, &ev.Outcome); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.Event, err = unmarshalEvent(eventJSON); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LastSeq returns the highest logical sequence number journaled so far,
// or 0 for an empty journal. Clocks resume from it across runs.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(m) FROM (
			SELECT COALESCE(MAX(start_seq), 0) AS m FROM sessions
			UNION ALL SELECT COALESCE(MAX(end_seq), 0) FROM sessions
			UNION ALL SELECT COALESCE(MAX(seq), 0) FROM session_events
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
