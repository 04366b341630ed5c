package review

import (
	"context"
	"database/sql"
	"fmt"
)

// ExportRow is one line of the denormalized events x status x counts join
// used by the CSV export. Events without counts still appear, with empty
// species/movement and a nil count.
type ExportRow struct {
	EventID      string
	Timestamp    string
	VideoRel     string
	FalseTrigger bool
	Notes        string
	ReviewedAt   string
	Species      string
	Movement     string
	Count        *int
}

// ExportRows returns the full export join in canonical order.
func (s *Store) ExportRows(ctx context.Context) ([]ExportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT e.event_id, e.ts, e.video_rel,
               st.false_trigger, st.notes, st.reviewed_at,
               c.species, c.movement, c.count
        FROM events e
        LEFT JOIN event_status st ON st.event_id = e.event_id
        LEFT JOIN counts c ON c.event_id = e.event_id
        ORDER BY`+canonicalOrder+`,
          c.species ASC,
          c.movement ASC`)
	if err != nil {
		return nil, fmt.Errorf("query export rows: %w", err)
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var (
			row          ExportRow
			ts           sql.NullString
			videoRel     sql.NullString
			falseTrigger sql.NullInt64
			notes        sql.NullString
			reviewedAt   sql.NullString
			species      sql.NullString
			movement     sql.NullString
			count        sql.NullInt64
		)
		if err := rows.Scan(&row.EventID, &ts, &videoRel, &falseTrigger, &notes, &reviewedAt, &species, &movement, &count); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		row.Timestamp = ts.String
		row.VideoRel = videoRel.String
		row.FalseTrigger = falseTrigger.Int64 != 0
		row.Notes = notes.String
		row.ReviewedAt = reviewedAt.String
		row.Species = species.String
		row.Movement = movement.String
		row.Count = intPtr(count)
		out = append(out, row)
	}
	return out, rows.Err()
}
