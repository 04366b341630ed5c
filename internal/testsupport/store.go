package testsupport

import (
	"testing"

	"fishtally/internal/config"
	"fishtally/internal/review"
)

// MustOpenStore opens the review store for a test config and closes it when
// the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *review.Store {
	t.Helper()

	store, err := review.Open(cfg.DBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}
