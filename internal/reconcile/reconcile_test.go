package reconcile_test

import (
	"path/filepath"
	"testing"

	"fishtally/internal/counterlog"
	"fishtally/internal/reconcile"
	"fishtally/internal/testsupport"
	"fishtally/internal/videoindex"
)

func TestReconcileMatchesDirectAndNormalized(t *testing.T) {
	root := t.TempDir()
	direct := testsupport.WriteClip(t, root, "118.mp4")
	padded := testsupport.WriteClip(t, root, "007.mp4")

	idx, err := videoindex.Index(root, []string{".mp4"})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	raw := []counterlog.RawEvent{
		{ID: "118", Timestamp: "2025-11-03 14:21:00"},
		{ID: "7", Timestamp: "2025-11-03 14:30:00"},
		{ID: "999", Timestamp: "2025-11-03 14:40:00"},
	}

	events, diag := reconcile.Reconcile(raw, idx, root)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if diag.VideosMatched != 2 {
		t.Fatalf("expected 2 matches, got %d", diag.VideosMatched)
	}

	if !events[0].HasVideo || events[0].VideoAbs != direct {
		t.Fatalf("expected direct match, got %#v", events[0])
	}
	if events[0].VideoRel != "118.mp4" {
		t.Fatalf("expected relative path under library root, got %q", events[0].VideoRel)
	}
	if !events[1].HasVideo || events[1].VideoAbs != padded {
		t.Fatalf("expected normalized match for id 7, got %#v", events[1])
	}
	if events[2].HasVideo || events[2].VideoAbs != "" || events[2].VideoRel != "" {
		t.Fatalf("expected miss with empty paths, got %#v", events[2])
	}
}

func TestReconcileClipOutsideLibraryRoot(t *testing.T) {
	clipRoot := t.TempDir()
	libraryRoot := t.TempDir()
	clip := testsupport.WriteClip(t, clipRoot, "50.mp4")

	idx, err := videoindex.Index(clipRoot, []string{".mp4"})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	events, _ := reconcile.Reconcile([]counterlog.RawEvent{{ID: "50"}}, idx, libraryRoot)
	if events[0].VideoRel != clip {
		t.Fatalf("expected absolute fallback for clip outside library root, got %q", events[0].VideoRel)
	}
}

func TestReconcileZeroMatchesIsValid(t *testing.T) {
	events, diag := reconcile.Reconcile(
		[]counterlog.RawEvent{{ID: "1"}, {ID: "2"}},
		map[string]string{},
		filepath.Join(t.TempDir(), "library"),
	)
	if diag.VideosMatched != 0 {
		t.Fatalf("expected zero matches, got %d", diag.VideosMatched)
	}
	for _, ev := range events {
		if ev.HasVideo {
			t.Fatalf("expected no video flags set, got %#v", ev)
		}
	}
}
