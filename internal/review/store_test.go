package review_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"

	"fishtally/internal/review"
	"fishtally/internal/testsupport"
)

func evt(id, ts string) review.Event {
	return review.Event{ID: id, Timestamp: ts}
}

func TestOpenMigratesOlderSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fishtally.sqlite")

	// An older build created events without the video columns.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE events (event_id TEXT PRIMARY KEY, ts TEXT)`); err != nil {
		t.Fatalf("create old schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO events(event_id, ts) VALUES('1', '2025-11-01 09:00:00')`); err != nil {
		t.Fatalf("seed old schema: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	store, err := review.Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed on old schema: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	got, err := store.GetEvent(ctx, "1")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got == nil || got.HasVideo {
		t.Fatalf("expected migrated row with has_video default, got %#v", got)
	}

	// Full-width writes must work against the migrated table.
	ev := evt("2", "2025-11-02 10:00:00")
	ev.VideoAbs = "/clips/2.mp4"
	ev.VideoRel = "2.mp4"
	ev.HasVideo = true
	if err := store.UpsertEvents(ctx, []review.Event{ev}); err != nil {
		t.Fatalf("UpsertEvents after migration failed: %v", err)
	}
}

func TestUpsertEventsIdempotentPreservesReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	batch := []review.Event{evt("118", "2025-11-03 14:21:00"), evt("119", "2025-11-03 15:02:00")}
	if err := store.UpsertEvents(ctx, batch); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}

	tally := review.Tally{{Species: "Chinook", Movement: review.MovementUp}: 2}
	if err := store.SaveEvent(ctx, "118", tally, "clear water", false, "2025-11-04T09:00:00"); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	// A reload re-derives and re-upserts every event.
	if err := store.UpsertEvents(ctx, batch); err != nil {
		t.Fatalf("second UpsertEvents failed: %v", err)
	}

	gotTally, err := store.LoadTally(ctx, "118")
	if err != nil {
		t.Fatalf("LoadTally failed: %v", err)
	}
	if !reflect.DeepEqual(gotTally, tally) {
		t.Fatalf("expected tally preserved across reload, got %#v", gotTally)
	}
	status, err := store.LoadStatus(ctx, "118")
	if err != nil {
		t.Fatalf("LoadStatus failed: %v", err)
	}
	if status.Notes != "clear water" || status.ReviewedAt != "2025-11-04T09:00:00" {
		t.Fatalf("expected status preserved across reload, got %#v", status)
	}
}

func TestCanonicalOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.UpsertEvents(ctx, []review.Event{
		evt("5", ""),
		evt("3", "2025-11-03 14:00:00"),
		evt("10", "2025-11-01 09:00:00"),
	}); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}

	ids, err := store.OrderedIDs(ctx)
	if err != nil {
		t.Fatalf("OrderedIDs failed: %v", err)
	}
	// Timestamped events chronologically first, null timestamps last.
	want := []string{"10", "3", "5"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected order %v, got %v", want, ids)
	}

	unreviewed, err := store.UnreviewedIDs(ctx)
	if err != nil {
		t.Fatalf("UnreviewedIDs failed: %v", err)
	}
	if !reflect.DeepEqual(unreviewed, want) {
		t.Fatalf("expected same ordering for unreviewed queue, got %v", unreviewed)
	}
}

func TestCanonicalOrderingNumericBeforeLexical(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ts := "2025-11-01 09:00:00"
	if err := store.UpsertEvents(ctx, []review.Event{
		evt("10", ts), evt("9", ts), evt("abc", ts),
	}); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}

	ids, err := store.OrderedIDs(ctx)
	if err != nil {
		t.Fatalf("OrderedIDs failed: %v", err)
	}
	want := []string{"9", "10", "abc"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected numeric ids before lexical, got %v", ids)
	}
}

func TestUnreviewedExcludesSavedEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.UpsertEvents(ctx, []review.Event{
		evt("1", "2025-11-01 09:00:00"),
		evt("2", "2025-11-01 10:00:00"),
	}); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}
	if err := store.SaveEvent(ctx, "1", review.Tally{}, "", false, "2025-11-02T08:00:00"); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	unreviewed, err := store.UnreviewedIDs(ctx)
	if err != nil {
		t.Fatalf("UnreviewedIDs failed: %v", err)
	}
	if !reflect.DeepEqual(unreviewed, []string{"2"}) {
		t.Fatalf("expected only event 2 unreviewed, got %v", unreviewed)
	}
}

func TestLoadStatusDefaultsWhenAbsent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	status, err := store.LoadStatus(ctx, "ghost")
	if err != nil {
		t.Fatalf("LoadStatus failed: %v", err)
	}
	if status.FalseTrigger || status.Notes != "" || status.Reviewed() {
		t.Fatalf("expected zero status for absent row, got %#v", status)
	}

	tally, err := store.LoadTally(ctx, "ghost")
	if err != nil {
		t.Fatalf("LoadTally failed: %v", err)
	}
	if len(tally) != 0 {
		t.Fatalf("expected empty tally, got %#v", tally)
	}

	event, err := store.GetEvent(ctx, "ghost")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if event != nil {
		t.Fatalf("expected nil for missing event, got %#v", event)
	}
}

func TestSaveEventReplacesCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.UpsertEvents(ctx, []review.Event{evt("118", "2025-11-03 14:21:00")}); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}

	first := review.Tally{
		{Species: "Chinook", Movement: review.MovementUp}:  2,
		{Species: "Rainbow", Movement: review.MovementDown}: 1,
	}
	if err := store.SaveEvent(ctx, "118", first, "", false, "2025-11-04T09:00:00"); err != nil {
		t.Fatalf("first SaveEvent failed: %v", err)
	}

	second := review.Tally{
		{Species: "Coho", Movement: review.MovementStay}:  3,
		{Species: "Chinook", Movement: review.MovementUp}: 0, // zeroed buckets are never stored
	}
	if err := store.SaveEvent(ctx, "118", second, "revised", false, "2025-11-04T10:00:00"); err != nil {
		t.Fatalf("second SaveEvent failed: %v", err)
	}

	got, err := store.LoadTally(ctx, "118")
	if err != nil {
		t.Fatalf("LoadTally failed: %v", err)
	}
	want := review.Tally{{Species: "Coho", Movement: review.MovementStay}: 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected counts fully replaced, got %#v", got)
	}
}

func TestSaveEventUnknownEventRollsBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	tally := review.Tally{{Species: "Chinook", Movement: review.MovementUp}: 1}
	if err := store.SaveEvent(ctx, "ghost", tally, "", false, "2025-11-04T09:00:00"); err == nil {
		t.Fatal("expected foreign key failure for unknown event")
	}

	status, err := store.LoadStatus(ctx, "ghost")
	if err != nil {
		t.Fatalf("LoadStatus failed: %v", err)
	}
	if status.Reviewed() {
		t.Fatalf("expected no status row after rollback, got %#v", status)
	}
	got, err := store.LoadTally(ctx, "ghost")
	if err != nil {
		t.Fatalf("LoadTally failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no counts after rollback, got %#v", got)
	}
}

func TestPreviousEvent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.UpsertEvents(ctx, []review.Event{
		evt("5", ""),
		evt("3", "2025-11-03 14:00:00"),
		evt("10", "2025-11-01 09:00:00"),
	}); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}

	cases := []struct {
		current string
		want    string
	}{
		{"10", ""},
		{"3", "10"},
		{"5", "3"},
		{"ghost", ""},
	}
	for _, tc := range cases {
		got, err := store.PreviousEvent(ctx, tc.current)
		if err != nil {
			t.Fatalf("PreviousEvent(%s) failed: %v", tc.current, err)
		}
		if got != tc.want {
			t.Errorf("PreviousEvent(%s) = %q, want %q", tc.current, got, tc.want)
		}
	}
}

func TestSummaryAndCountRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	withVideo := evt("1", "2025-11-01 09:00:00")
	withVideo.HasVideo = true
	withVideo.VideoAbs = "/clips/1.mp4"
	withVideo.VideoRel = "1.mp4"
	if err := store.UpsertEvents(ctx, []review.Event{withVideo, evt("2", "2025-11-01 10:00:00")}); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}
	tally := review.Tally{{Species: "Chinook", Movement: review.MovementUp}: 2}
	if err := store.SaveEvent(ctx, "1", tally, "", false, "2025-11-02T08:00:00"); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalEvents != 2 || summary.WithVideo != 1 || summary.Reviewed != 1 || summary.Remaining() != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	rows, err := store.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 count row, got %d", len(rows))
	}
	row := rows[0]
	if row.EventID != "1" || row.Species != "Chinook" || row.Movement != review.MovementUp || row.Count != 2 {
		t.Fatalf("unexpected count row: %#v", row)
	}
}

func TestOverviewJoinsStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.UpsertEvents(ctx, []review.Event{
		evt("1", "2025-11-01 09:00:00"),
		evt("2", "2025-11-01 10:00:00"),
	}); err != nil {
		t.Fatalf("UpsertEvents failed: %v", err)
	}
	if err := store.SaveEvent(ctx, "2", review.Tally{}, "empty frame", true, "2025-11-02T08:00:00"); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	rows, err := store.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 overview rows, got %d", len(rows))
	}
	if rows[0].EventID != "1" || rows[0].ReviewedAt != "" {
		t.Fatalf("expected first row unreviewed, got %#v", rows[0])
	}
	if rows[1].EventID != "2" || !rows[1].FalseTrigger || rows[1].Notes != "empty frame" {
		t.Fatalf("expected saved status joined, got %#v", rows[1])
	}
}
