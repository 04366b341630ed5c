package review

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoEventLoaded is returned by session mutations attempted while idle.
var ErrNoEventLoaded = errors.New("no event loaded")

// Session is the in-memory review state for one active event: the pending
// tally, the undo history of increments, notes and the movement selector.
// The caller owns exactly one live session; nothing here is persisted until
// Save, and Load on a different event discards unsaved edits by design.
type Session struct {
	store    *Store
	eventID  string
	tally    Tally
	undo     []TallyKey
	notes    string
	movement Movement
	falseTrg bool
}

// NewSession returns an idle session bound to a store. The movement
// selector defaults to Up.
func NewSession(store *Store) *Session {
	return &Session{store: store, movement: MovementUp}
}

// EventID returns the loaded event id, or "" while idle.
func (s *Session) EventID() string { return s.eventID }

// Loaded reports whether an event is active.
func (s *Session) Loaded() bool { return s.eventID != "" }

// Load pulls the persisted tally and status for eventID and makes it the
// active event. Any unsaved edits for a previously loaded event are
// discarded; there is no draft persistence.
func (s *Session) Load(ctx context.Context, eventID string) error {
	tally, err := s.store.LoadTally(ctx, eventID)
	if err != nil {
		return err
	}
	status, err := s.store.LoadStatus(ctx, eventID)
	if err != nil {
		return err
	}
	s.eventID = eventID
	s.tally = tally
	s.undo = nil
	s.notes = status.Notes
	s.falseTrg = status.FalseTrigger
	return nil
}

// Increment adds one observation for species at the given movement and
// records it on the undo stack.
func (s *Session) Increment(species string, movement Movement) error {
	if !s.Loaded() {
		return ErrNoEventLoaded
	}
	key := TallyKey{Species: species, Movement: movement}
	s.tally[key]++
	s.undo = append(s.undo, key)
	return nil
}

// Undo reverts the most recent increment, flooring each bucket at zero.
// It is a no-op when nothing has been incremented since Load.
func (s *Session) Undo() {
	if len(s.undo) == 0 {
		return
	}
	key := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	if s.tally[key] > 0 {
		s.tally[key]--
	}
}

// Clear resets the pending tally and undo stack, independent of whatever
// is persisted for the event.
func (s *Session) Clear() {
	if !s.Loaded() {
		return
	}
	s.tally = make(Tally)
	s.undo = nil
}

// Tally returns a copy of the pending tally.
func (s *Session) Tally() Tally {
	return s.tally.Clone()
}

// Movement returns the current movement selector value.
func (s *Session) Movement() Movement { return s.movement }

// SetMovement changes the movement selector.
func (s *Session) SetMovement(m Movement) error {
	if _, err := ParseMovement(string(m)); err != nil {
		return err
	}
	s.movement = m
	return nil
}

// Notes returns the pending notes text.
func (s *Session) Notes() string { return s.notes }

// SetNotes replaces the pending notes text.
func (s *Session) SetNotes(notes string) { s.notes = notes }

// SetFalseTrigger flags the event as a false trigger on the next save.
func (s *Session) SetFalseTrigger(v bool) { s.falseTrg = v }

// Save commits the pending tally, notes and status through the store in a
// single transaction, stamping reviewed_at with the current time, then
// returns the session to idle. On error the session keeps its state so the
// operator can retry without losing work.
func (s *Session) Save(ctx context.Context) error {
	if !s.Loaded() {
		return ErrNoEventLoaded
	}
	reviewedAt := time.Now().Format("2006-01-02T15:04:05")
	if err := s.store.SaveEvent(ctx, s.eventID, s.tally, s.notes, s.falseTrg, reviewedAt); err != nil {
		return fmt.Errorf("save event %s: %w", s.eventID, err)
	}
	s.eventID = ""
	s.tally = nil
	s.undo = nil
	s.notes = ""
	s.falseTrg = false
	return nil
}
