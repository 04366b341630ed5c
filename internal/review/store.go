package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store manages review persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// canonicalOrder is the one ordering every listing and navigation query
// shares: chronological where a timestamp exists (ts is an ISO-style string,
// so lexical sort is chronological), numeric event id within a timestamp,
// events without a timestamp after all timestamped ones.
const canonicalOrder = `
  (e.ts IS NULL) ASC,
  e.ts ASC,
  CASE WHEN e.event_id GLOB '[0-9]*' THEN CAST(e.event_id AS INTEGER) END ASC,
  e.event_id ASC`

// Open initializes or connects to a review database and applies schema
// migrations. A migration failure is fatal: the caller must not proceed
// against an incompatible database.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the database.
func (s *Store) Path() string { return s.path }

// UpsertEvents replaces event rows by identifier. Review status and counts
// reference event_id but are never touched here, so re-running a reload on
// the same project keeps all operator work intact.
func (s *Store) UpsertEvents(ctx context.Context, events []Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO events(event_id, ts, raw_dir, m1, m2, m3, video_abs, video_rel, has_video)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(event_id) DO UPDATE SET
          ts=excluded.ts,
          raw_dir=excluded.raw_dir,
          m1=excluded.m1,
          m2=excluded.m2,
          m3=excluded.m3,
          video_abs=excluded.video_abs,
          video_rel=excluded.video_rel,
          has_video=excluded.has_video`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			ev.ID,
			nullableString(ev.Timestamp),
			ev.RawDir,
			nullableInt(ev.M1),
			nullableInt(ev.M2),
			nullableInt(ev.M3),
			ev.VideoAbs,
			ev.VideoRel,
			boolToInt(ev.HasVideo),
		); err != nil {
			return fmt.Errorf("upsert event %s: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// UnreviewedIDs returns every event id without a reviewed_at stamp, in
// canonical order. An absent status row counts as unreviewed.
func (s *Store) UnreviewedIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT e.event_id
        FROM events e
        LEFT JOIN event_status st ON st.event_id = e.event_id
        WHERE st.reviewed_at IS NULL
        ORDER BY`+canonicalOrder)
	if err != nil {
		return nil, fmt.Errorf("query unreviewed: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// OrderedIDs returns all event ids in canonical order.
func (s *Store) OrderedIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT e.event_id FROM events e ORDER BY`+canonicalOrder)
	if err != nil {
		return nil, fmt.Errorf("query ordered ids: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// PreviousEvent returns the immediate predecessor of eventID under the
// canonical ordering, or "" when the event is first or unknown.
func (s *Store) PreviousEvent(ctx context.Context, eventID string) (string, error) {
	ids, err := s.OrderedIDs(ctx)
	if err != nil {
		return "", err
	}
	for i, id := range ids {
		if id == eventID {
			if i == 0 {
				return "", nil
			}
			return ids[i-1], nil
		}
	}
	return "", nil
}

// GetEvent fetches one event by identifier, or nil when absent.
func (s *Store) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT event_id, ts, raw_dir, m1, m2, m3, video_abs, video_rel, has_video
        FROM events WHERE event_id = ?`, eventID)

	var (
		ev       Event
		ts       sql.NullString
		rawDir   sql.NullString
		m1       sql.NullInt64
		m2       sql.NullInt64
		m3       sql.NullInt64
		videoAbs sql.NullString
		videoRel sql.NullString
		hasVideo sql.NullInt64
	)
	err := row.Scan(&ev.ID, &ts, &rawDir, &m1, &m2, &m3, &videoAbs, &videoRel, &hasVideo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	ev.Timestamp = ts.String
	ev.RawDir = rawDir.String
	ev.M1 = intPtr(m1)
	ev.M2 = intPtr(m2)
	ev.M3 = intPtr(m3)
	ev.VideoAbs = videoAbs.String
	ev.VideoRel = videoRel.String
	ev.HasVideo = hasVideo.Int64 != 0
	return &ev, nil
}

// LoadTally returns the persisted tally for an event. Missing rows yield an
// empty tally.
func (s *Store) LoadTally(ctx context.Context, eventID string) (Tally, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT species, movement, count FROM counts WHERE event_id = ?`, eventID)
	if err != nil {
		return nil, fmt.Errorf("load tally %s: %w", eventID, err)
	}
	defer rows.Close()

	tally := make(Tally)
	for rows.Next() {
		var (
			species  string
			movement string
			count    int
		)
		if err := rows.Scan(&species, &movement, &count); err != nil {
			return nil, fmt.Errorf("scan tally row: %w", err)
		}
		tally[TallyKey{Species: species, Movement: Movement(movement)}] = count
	}
	return tally, rows.Err()
}

// LoadStatus returns the review status for an event. An absent row is not
// an error; it reads back as the unreviewed default.
func (s *Store) LoadStatus(ctx context.Context, eventID string) (Status, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT false_trigger, notes, reviewed_at FROM event_status WHERE event_id = ?`, eventID)

	var (
		falseTrigger sql.NullInt64
		notes        sql.NullString
		reviewedAt   sql.NullString
	)
	err := row.Scan(&falseTrigger, &notes, &reviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("load status %s: %w", eventID, err)
	}
	return Status{
		FalseTrigger: falseTrigger.Int64 != 0,
		Notes:        notes.String,
		ReviewedAt:   reviewedAt.String,
	}, nil
}

// SaveEvent commits an operator's review in one transaction: the event's
// counts are replaced with exactly the positive buckets of tally, and the
// status row is upserted. A failure rolls both back; a half-saved event is
// never observable.
func (s *Store) SaveEvent(ctx context.Context, eventID string, tally Tally, notes string, falseTrigger bool, reviewedAt string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceTally(ctx, tx, eventID, tally); err != nil {
		return err
	}
	if err := upsertStatus(ctx, tx, eventID, notes, falseTrigger, reviewedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func replaceTally(ctx context.Context, tx *sql.Tx, eventID string, tally Tally) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM counts WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clear counts %s: %w", eventID, err)
	}
	for key, count := range tally {
		if count <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO counts(event_id, species, movement, count) VALUES(?, ?, ?, ?)`,
			eventID, key.Species, string(key.Movement), count,
		); err != nil {
			return fmt.Errorf("insert count %s/%s: %w", key.Species, key.Movement, err)
		}
	}
	return nil
}

func upsertStatus(ctx context.Context, tx *sql.Tx, eventID, notes string, falseTrigger bool, reviewedAt string) error {
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO event_status(event_id, false_trigger, notes, reviewed_at)
        VALUES(?, ?, ?, ?)
        ON CONFLICT(event_id) DO UPDATE SET
            false_trigger=excluded.false_trigger,
            notes=excluded.notes,
            reviewed_at=excluded.reviewed_at`,
		eventID, boolToInt(falseTrigger), notes, nullableString(reviewedAt),
	); err != nil {
		return fmt.Errorf("upsert status %s: %w", eventID, err)
	}
	return nil
}

// Summary aggregates review progress across the whole store.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var summary Summary
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&summary.TotalEvents); err != nil {
		return Summary{}, fmt.Errorf("count events: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE has_video = 1`).Scan(&summary.WithVideo); err != nil {
		return Summary{}, fmt.Errorf("count videos: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_status WHERE reviewed_at IS NOT NULL`).Scan(&summary.Reviewed); err != nil {
		return Summary{}, fmt.Errorf("count reviewed: %w", err)
	}
	return summary, nil
}

// Overview returns the full event browser listing in canonical order.
func (s *Store) Overview(ctx context.Context) ([]OverviewRow, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT e.event_id, e.ts, e.video_rel, e.has_video,
               st.reviewed_at, st.false_trigger, st.notes
        FROM events e
        LEFT JOIN event_status st ON st.event_id = e.event_id
        ORDER BY`+canonicalOrder)
	if err != nil {
		return nil, fmt.Errorf("query overview: %w", err)
	}
	defer rows.Close()

	var out []OverviewRow
	for rows.Next() {
		var (
			row          OverviewRow
			ts           sql.NullString
			videoRel     sql.NullString
			hasVideo     sql.NullInt64
			reviewedAt   sql.NullString
			falseTrigger sql.NullInt64
			notes        sql.NullString
		)
		if err := rows.Scan(&row.EventID, &ts, &videoRel, &hasVideo, &reviewedAt, &falseTrigger, &notes); err != nil {
			return nil, fmt.Errorf("scan overview row: %w", err)
		}
		row.Timestamp = ts.String
		row.VideoRel = videoRel.String
		row.HasVideo = hasVideo.Int64 != 0
		row.ReviewedAt = reviewedAt.String
		row.FalseTrigger = falseTrigger.Int64 != 0
		row.Notes = notes.String
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountRows returns every positive tally bucket joined to its event, in
// canonical order then by species and movement.
func (s *Store) CountRows(ctx context.Context) ([]CountRow, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT e.event_id, e.ts, c.species, c.movement, c.count
        FROM counts c
        JOIN events e ON e.event_id = c.event_id
        WHERE c.count > 0
        ORDER BY`+canonicalOrder+`,
          c.species ASC,
          c.movement ASC`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	var out []CountRow
	for rows.Next() {
		var (
			row      CountRow
			ts       sql.NullString
			movement string
		)
		if err := rows.Scan(&row.EventID, &ts, &row.Species, &movement, &row.Count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		row.Timestamp = ts.String
		row.Movement = Movement(movement)
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
