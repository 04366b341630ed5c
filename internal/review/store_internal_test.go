package review

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

// Simulates a crash between the tally replacement and the status upsert:
// the transaction is rolled back after replaceTally and neither write may
// be observable afterward.
func TestSaveEventAtomicity(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "fishtally.sqlite"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.UpsertEvents(ctx, []Event{{ID: "118", Timestamp: "2025-11-03 14:21:00"}}); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}
	saved := Tally{{Species: "Chinook", Movement: MovementUp}: 2}
	if err := store.SaveEvent(ctx, "118", saved, "first pass", false, "2025-11-04T09:00:00"); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	replacement := Tally{{Species: "Coho", Movement: MovementDown}: 5}
	if err := replaceTally(ctx, tx, "118", replacement); err != nil {
		t.Fatalf("replaceTally failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	gotTally, err := store.LoadTally(ctx, "118")
	if err != nil {
		t.Fatalf("LoadTally failed: %v", err)
	}
	if !reflect.DeepEqual(gotTally, saved) {
		t.Fatalf("expected previously saved tally intact, got %#v", gotTally)
	}
	status, err := store.LoadStatus(ctx, "118")
	if err != nil {
		t.Fatalf("LoadStatus failed: %v", err)
	}
	if status.Notes != "first pass" || status.ReviewedAt != "2025-11-04T09:00:00" {
		t.Fatalf("expected previously saved status intact, got %#v", status)
	}
}
