package review

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Review databases travel between app versions: CREATE TABLE IF NOT EXISTS
// never adds columns to a table created by an older build, so each table
// carries a list of columns that must exist after open. Adding columns is
// the only ALTER sqlite needs here and is safe on populated databases;
// existing rows pick up the column default.
var requiredColumns = []struct {
	table   string
	column  string
	colType string
}{
	{"events", "ts", "TEXT"},
	{"events", "raw_dir", "TEXT"},
	{"events", "m1", "INTEGER"},
	{"events", "m2", "INTEGER"},
	{"events", "m3", "INTEGER"},
	{"events", "video_abs", "TEXT"},
	{"events", "video_rel", "TEXT"},
	{"events", "has_video", "INTEGER DEFAULT 0"},
	{"event_status", "false_trigger", "INTEGER DEFAULT 0"},
	{"event_status", "notes", "TEXT"},
	{"event_status", "reviewed_at", "TEXT"},
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	for _, req := range requiredColumns {
		if err := s.addColumnIfMissing(ctx, req.table, req.column, req.colType); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addColumnIfMissing(ctx context.Context, table, column, colType string) error {
	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return err
	}
	if _, ok := cols[column]; ok {
		return nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, colType)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func (s *Store) tableColumns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}
