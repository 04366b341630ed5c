// Package review owns the durable review state for counter events: the
// SQLite-backed store of events, per-event species/movement tallies, and
// review status, plus the in-memory session an operator mutates while
// reviewing a single event's clip.
//
// The store is the system of record. Sessions are ephemeral: edits only
// reach the store through an explicit Save, and loading a different event
// discards anything unsaved.
package review
