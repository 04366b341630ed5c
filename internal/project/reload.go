// Package project orchestrates the index/reload operation: locate and parse
// the counter log, index the video library, reconcile, and bulk-upsert the
// result into the review store.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"fishtally/internal/config"
	"fishtally/internal/counterlog"
	"fishtally/internal/reconcile"
	"fishtally/internal/review"
	"fishtally/internal/videoindex"
)

// ErrConfiguration marks operator-fixable setup problems: a missing or
// unreadable project root. Reload halts without committing any state.
var ErrConfiguration = errors.New("configuration error")

// ErrLocked indicates another fishtally process holds the project lock.
var ErrLocked = errors.New("project is locked by another fishtally process")

// lockFileName sits next to the review database and serializes reload runs;
// the review workflow is single-writer by design.
const lockFileName = ".fishtally.lock"

// Result summarizes a completed reload.
type Result struct {
	Events      int
	Matched     int
	Unreviewed  []string
	Diagnostics reconcile.Diagnostics
	DBPath      string
}

// Reload re-derives the full event set from the project's source files and
// upserts it into the review store. Review status and tallies survive
// reloads untouched. On any error before the upsert the store is left
// exactly as it was.
func Reload(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	log := logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "reload"))

	projectRoot := cfg.Paths.ProjectRoot
	if projectRoot == "" {
		return nil, fmt.Errorf("%w: project root is not set", ErrConfiguration)
	}
	info, err := os.Stat(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: project root %s: %v", ErrConfiguration, projectRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: project root %s is not a directory", ErrConfiguration, projectRoot)
	}

	lock := flock.New(filepath.Join(projectRoot, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	log.Info("reload started", slog.String("run_id", runID), slog.String("project_root", projectRoot))

	logPath, err := counterlog.FindFirstLog(projectRoot)
	if err != nil {
		if errors.Is(err, counterlog.ErrNoLog) {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return nil, err
	}

	raw, logDiag, err := counterlog.ParseFile(logPath)
	if err != nil {
		return nil, fmt.Errorf("parse log: %w", err)
	}

	index, err := videoindex.Index(cfg.Paths.VideoIndexRoot, cfg.Review.VideoExtensions)
	if err != nil {
		return nil, fmt.Errorf("index videos: %w", err)
	}

	events, diag := reconcile.Reconcile(raw, index, cfg.Paths.VideoLibraryRoot)
	diag.Log = logDiag
	diag.ProjectRoot = projectRoot
	diag.VideoIndexRoot = cfg.Paths.VideoIndexRoot
	diag.VideoLibraryRoot = cfg.Paths.VideoLibraryRoot
	diag.RunID = runID

	store, err := review.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open review store: %w", err)
	}
	defer store.Close()

	if err := store.UpsertEvents(ctx, events); err != nil {
		return nil, fmt.Errorf("upsert events: %w", err)
	}

	unreviewed, err := store.UnreviewedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unreviewed: %w", err)
	}

	log.Info("reload finished",
		slog.String("run_id", runID),
		slog.Int("events", len(events)),
		slog.Int("videos_indexed", diag.VideosIndexed),
		slog.Int("videos_matched", diag.VideosMatched),
		slog.Int("unreviewed", len(unreviewed)),
	)

	return &Result{
		Events:      len(events),
		Matched:     diag.VideosMatched,
		Unreviewed:  unreviewed,
		Diagnostics: diag,
		DBPath:      store.Path(),
	}, nil
}
