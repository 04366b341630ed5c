package review

import (
	"fmt"
	"sort"
	"strings"
)

// Movement is the direction an observed fish took through the frame.
type Movement string

const (
	MovementUp   Movement = "Up"
	MovementDown Movement = "Down"
	MovementStay Movement = "Stay"
)

// Movements lists the closed set of valid movements in display order.
var Movements = []Movement{MovementUp, MovementDown, MovementStay}

// ParseMovement validates a movement label.
func ParseMovement(value string) (Movement, error) {
	for _, m := range Movements {
		if strings.EqualFold(string(m), strings.TrimSpace(value)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown movement %q (expected Up, Down or Stay)", value)
}

// Event is one detection reported by the counting hardware, reconciled
// against the video library. Timestamp is stored as given by the parser
// (an opaque "YYYY-MM-DD HH:MM:SS" string, empty when unknown); the store
// persists empty as NULL.
type Event struct {
	ID        string
	Timestamp string
	RawDir    string
	M1        *int
	M2        *int
	M3        *int
	VideoAbs  string
	VideoRel  string
	HasVideo  bool
}

// Status is the persisted review status of one event. An absent row reads
// back as the zero Status: not a false trigger, no notes, unreviewed.
type Status struct {
	FalseTrigger bool
	Notes        string
	ReviewedAt   string // empty = unreviewed
}

// Reviewed reports whether the event has been saved at least once.
func (s Status) Reviewed() bool { return s.ReviewedAt != "" }

// TallyKey identifies one species/movement bucket within an event's tally.
type TallyKey struct {
	Species  string
	Movement Movement
}

// Tally maps species/movement buckets to observation counts.
type Tally map[TallyKey]int

// Clone returns an independent copy of the tally.
func (t Tally) Clone() Tally {
	out := make(Tally, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Total sums all positive counts.
func (t Tally) Total() int {
	total := 0
	for _, v := range t {
		if v > 0 {
			total += v
		}
	}
	return total
}

// FormatTally renders a tally for captions, e.g. "2 Chinook UP, 1 Rainbow
// DOWN". Zero buckets are skipped; an empty tally renders as "(none)".
func FormatTally(t Tally) string {
	keys := make([]TallyKey, 0, len(t))
	for k, v := range t {
		if v <= 0 {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "(none)"
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Species != keys[j].Species {
			return keys[i].Species < keys[j].Species
		}
		return keys[i].Movement < keys[j].Movement
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d %s %s", t[k], k.Species, strings.ToUpper(string(k.Movement))))
	}
	return strings.Join(parts, ", ")
}

// Summary aggregates store-wide review progress.
type Summary struct {
	TotalEvents int
	WithVideo   int
	Reviewed    int
}

// Remaining reports how many events still need review.
func (s Summary) Remaining() int {
	if r := s.TotalEvents - s.Reviewed; r > 0 {
		return r
	}
	return 0
}

// OverviewRow is one line of the event browser listing.
type OverviewRow struct {
	EventID      string
	Timestamp    string
	VideoRel     string
	HasVideo     bool
	ReviewedAt   string
	FalseTrigger bool
	Notes        string
}

// CountRow is one positive tally bucket joined to its event.
type CountRow struct {
	EventID   string
	Timestamp string
	Species   string
	Movement  Movement
	Count     int
}
