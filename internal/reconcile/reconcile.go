// Package reconcile joins parsed counter events with the indexed video
// library to produce the canonical event set the review store persists.
package reconcile

import (
	"path/filepath"
	"strings"

	"fishtally/internal/counterlog"
	"fishtally/internal/review"
	"fishtally/internal/videoindex"
)

// Diagnostics aggregates reconciliation details for operator
// troubleshooting. Partial or zero video matches are recorded here, never
// raised as errors: an event without footage is still reviewable as a
// false trigger.
type Diagnostics struct {
	Log              counterlog.Diagnostics
	VideosIndexed    int
	VideosMatched    int
	ProjectRoot      string
	VideoIndexRoot   string
	VideoLibraryRoot string
	RunID            string
}

// Reconcile matches each raw event against the video index, first by its id
// as written and then by the normalized form. Matched events get an absolute
// path plus a path relative to libraryRoot; a clip outside the library root
// degrades to the absolute path in both fields. Misses leave both paths
// empty with HasVideo false.
func Reconcile(raw []counterlog.RawEvent, index map[string]string, libraryRoot string) ([]review.Event, Diagnostics) {
	diag := Diagnostics{VideosIndexed: len(index)}

	events := make([]review.Event, 0, len(raw))
	for _, r := range raw {
		ev := review.Event{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			RawDir:    r.RawDir,
			M1:        r.M1,
			M2:        r.M2,
			M3:        r.M3,
		}

		path, ok := index[r.ID]
		if !ok {
			path, ok = index[videoindex.NormalizeID(r.ID)]
		}
		if ok {
			diag.VideosMatched++
			ev.HasVideo = true
			ev.VideoAbs = path
			ev.VideoRel = relativeTo(libraryRoot, path)
		}
		events = append(events, ev)
	}
	return events, diag
}

// relativeTo returns path relative to root when it lies underneath it, and
// the path unchanged otherwise. The fallback is degraded but non-fatal; the
// caller still has something renderable.
func relativeTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
