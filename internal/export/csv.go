// Package export writes the denormalized review results as CSV for
// downstream analysis.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"fishtally/internal/review"
)

var header = []string{
	"event_id", "ts", "video_rel",
	"false_trigger", "notes", "reviewed_at",
	"species", "movement", "count",
}

// WriteCSV writes the events x status x counts join to path in canonical
// order and returns the number of data rows written.
func WriteCSV(ctx context.Context, store *review.Store, path string) (int, error) {
	rows, err := store.ExportRows(ctx)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("write export header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.EventID,
			row.Timestamp,
			row.VideoRel,
			strconv.Itoa(boolToInt(row.FalseTrigger)),
			row.Notes,
			row.ReviewedAt,
			row.Species,
			row.Movement,
			"",
		}
		if row.Count != nil {
			record[8] = strconv.Itoa(*row.Count)
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush export: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close export file: %w", err)
	}
	return len(rows), nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
