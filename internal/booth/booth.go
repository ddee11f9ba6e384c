// Package booth models the interaction on the voting booth page: pressing a
// row's button, the reveal overlay with its flip card, and the transient
// error pulse on wrong rows.
//
// A session starts Idle. Pressing the target row plays the success cue and
// moves to Revealed with the overlay open; the card flips on its own after
// a short delay. Pressing any other row plays the error cue and pulses that
// row only; the pulse clears itself after a fixed delay. Closing the overlay
// always resets both its open and flipped state and returns to Idle.
package booth

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/playperu/demovote/internal/audio"
	"github.com/playperu/demovote/internal/scenario"
)

var (
	ErrUnknownRow      = errors.New("unknown row")
	ErrSessionNotFound = errors.New("booth session not found")
)

const (
	DefaultPulseDelay    = 500 * time.Millisecond
	DefaultAutoFlipDelay = 600 * time.Millisecond
)

type State int

const (
	Idle State = iota
	Revealed
)

func (s State) String() string {
	if s == Revealed {
		return "revealed"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "revealed":
		*s = Revealed
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

// Overlay is the visual state of the reveal overlay.
type Overlay struct {
	Open     bool `json:"open"`
	Flipped  bool `json:"flipped"`
	AutoFlip bool `json:"autoFlip"`
}

type CloseReason string

const (
	CloseButton    CloseReason = "button"
	CloseOutside   CloseReason = "outside"
	CloseCancelKey CloseReason = "escape"
)

// ParseCloseReason accepts the three ways the overlay can be dismissed.
func ParseCloseReason(s string) (CloseReason, bool) {
	switch r := CloseReason(s); r {
	case CloseButton, CloseOutside, CloseCancelKey:
		return r, true
	case "":
		return CloseButton, true
	}
	return "", false
}

type EventType string

const (
	EventRevealed     EventType = "revealed"
	EventFlipped      EventType = "flipped"
	EventClosed       EventType = "closed"
	EventPulse        EventType = "pulse"
	EventPulseCleared EventType = "pulse-cleared"
)

type Event struct {
	Type     EventType   `json:"type"`
	Row      int         `json:"row,omitempty"`
	Cue      audio.Cue   `json:"cue,omitempty"`
	Reason   CloseReason `json:"reason,omitempty"`
	Snapshot Snapshot    `json:"snapshot"`
}

type Snapshot struct {
	State   State   `json:"state"`
	Overlay Overlay `json:"overlay"`
	Pulsing []int   `json:"pulsing"`
}

// Outcome is the result of one press.
type Outcome struct {
	Row      int       `json:"row"`
	Target   bool      `json:"target"`
	Cue      audio.Cue `json:"cue"`
	Snapshot Snapshot  `json:"snapshot"`
}

// Timer is the handle of a scheduled action.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type Options struct {
	PulseDelay    time.Duration
	AutoFlipDelay time.Duration
	Scheduler     Scheduler
	// Now stamps session activity. It defaults to time.Now.
	Now func() time.Time
	// Notify receives every state change. It is never called with the
	// session lock held.
	Notify func(Event)
}

func (o Options) withDefaults() Options {
	if o.PulseDelay <= 0 {
		o.PulseDelay = DefaultPulseDelay
	}
	if o.AutoFlipDelay <= 0 {
		o.AutoFlipDelay = DefaultAutoFlipDelay
	}
	if o.Scheduler == nil {
		o.Scheduler = realScheduler{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Notify == nil {
		o.Notify = func(Event) {}
	}
	return o
}

type Session struct {
	id   string
	opts Options

	mu       sync.Mutex
	controls map[int]scenario.Control
	state    State
	overlay  Overlay
	// rowGen counts wrong presses per row; a scheduled reset only clears
	// the pulse when its generation is still the latest.
	rowGen    map[int]uint64
	pulsing   map[int]bool
	revealGen uint64
	timerSeq  uint64
	timers    map[uint64]Timer
	stopped   bool
	lastUsed  time.Time
}

// NewSession binds a session to the controls captured when the table was
// generated. The target flag of each control is not re-read later.
func NewSession(id string, controls []scenario.Control, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		id:       id,
		opts:     opts,
		controls: make(map[int]scenario.Control, len(controls)),
		rowGen:   make(map[int]uint64),
		pulsing:  make(map[int]bool),
		timers:   make(map[uint64]Timer),
		lastUsed: opts.Now(),
	}
	for _, c := range controls {
		s.controls[c.Row] = c
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Press handles a press on row.
func (s *Session) Press(row int) (Outcome, error) {
	s.mu.Lock()
	c, ok := s.controls[row]
	if !ok {
		s.mu.Unlock()
		return Outcome{}, ErrUnknownRow
	}
	s.lastUsed = s.opts.Now()

	out := Outcome{Row: row, Target: c.Target}
	var ev Event
	if c.Target {
		s.state = Revealed
		s.overlay = Overlay{Open: true, AutoFlip: true}
		s.revealGen++
		gen := s.revealGen
		s.scheduleLocked(s.opts.AutoFlipDelay, func() { s.autoFlip(gen) })
		out.Cue = audio.CueSuccess
		ev = Event{Type: EventRevealed, Row: row, Cue: audio.CueSuccess}
	} else {
		s.rowGen[row]++
		gen := s.rowGen[row]
		s.pulsing[row] = true
		s.scheduleLocked(s.opts.PulseDelay, func() { s.clearPulse(row, gen) })
		out.Cue = audio.CueError
		ev = Event{Type: EventPulse, Row: row, Cue: audio.CueError}
	}
	out.Snapshot = s.snapshotLocked()
	ev.Snapshot = out.Snapshot
	s.mu.Unlock()

	s.opts.Notify(ev)
	return out, nil
}

// Flip toggles the card while the overlay is open and cancels a pending
// automatic flip. It reports whether anything changed.
func (s *Session) Flip() (Snapshot, bool) {
	s.mu.Lock()
	if !s.overlay.Open {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, false
	}
	s.lastUsed = s.opts.Now()
	s.overlay.AutoFlip = false
	s.overlay.Flipped = !s.overlay.Flipped
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.opts.Notify(Event{Type: EventFlipped, Snapshot: snap})
	return snap, true
}

// Close dismisses the overlay. Open and flipped state are reset together.
func (s *Session) Close(reason CloseReason) (Snapshot, bool) {
	s.mu.Lock()
	if !s.overlay.Open {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, false
	}
	s.lastUsed = s.opts.Now()
	s.overlay = Overlay{}
	s.state = Idle
	s.revealGen++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.opts.Notify(Event{Type: EventClosed, Reason: reason, Snapshot: snap})
	return snap, true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Stop cancels every pending scheduled action. The session stays readable.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) autoFlip(gen uint64) {
	s.mu.Lock()
	if !s.overlay.Open || !s.overlay.AutoFlip || s.revealGen != gen {
		s.mu.Unlock()
		return
	}
	s.overlay.AutoFlip = false
	s.overlay.Flipped = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.opts.Notify(Event{Type: EventFlipped, Snapshot: snap})
}

func (s *Session) clearPulse(row int, gen uint64) {
	s.mu.Lock()
	if s.rowGen[row] != gen || !s.pulsing[row] {
		s.mu.Unlock()
		return
	}
	delete(s.pulsing, row)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.opts.Notify(Event{Type: EventPulseCleared, Row: row, Snapshot: snap})
}

func (s *Session) scheduleLocked(d time.Duration, f func()) {
	if s.stopped {
		return
	}
	s.timerSeq++
	id := s.timerSeq
	s.timers[id] = s.opts.Scheduler.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		f()
	})
}

func (s *Session) snapshotLocked() Snapshot {
	pulsing := make([]int, 0, len(s.pulsing))
	for row := range s.pulsing {
		pulsing = append(pulsing, row)
	}
	slices.Sort(pulsing)
	return Snapshot{State: s.state, Overlay: s.overlay, Pulsing: pulsing}
}
