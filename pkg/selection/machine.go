// Package selection implements the two-click rectangle gesture: the first
// click anchors a corner, pointer motion live-updates the rectangle and the
// second click finalizes it.
package selection

import (
	"github.com/menta2k/plate-cropper/pkg/geometry"
	"github.com/menta2k/plate-cropper/pkg/types"
)

// Phase is the state of the gesture
type Phase int

const (
	Idle Phase = iota
	Anchored
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Anchored:
		return "anchored"
	default:
		return "unknown"
	}
}

// EventKind describes what a transition did
type EventKind int

const (
	// None means the input was ignored in the current phase.
	None EventKind = iota
	Started
	Updated
	Finalized
	// Discarded is a completed gesture whose rectangle was below the thresholds.
	Discarded
	Cancelled
)

func (k EventKind) String() string {
	switch k {
	case None:
		return "none"
	case Started:
		return "started"
	case Updated:
		return "updated"
	case Finalized:
		return "finalized"
	case Discarded:
		return "discarded"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is returned by every transition
type Event struct {
	Kind EventKind
	Box  types.Box
}

// Config holds the minimum size a rectangle needs to be finalized
type Config struct {
	MinWidth  float64
	MinHeight float64
}

// DefaultConfig returns thresholds of 1% of the image in each direction
func DefaultConfig() Config {
	return Config{MinWidth: 0.01, MinHeight: 0.01}
}

// Machine tracks one selection gesture. The zero value is not usable; use New.
type Machine struct {
	config Config
	phase  Phase
	ax, ay float64
	box    *types.Box
}

// New creates a Machine in the Idle phase with default thresholds
func New() *Machine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Machine with custom thresholds
func NewWithConfig(config Config) *Machine {
	return &Machine{config: config, phase: Idle}
}

// Phase returns the current phase
func (m *Machine) Phase() Phase {
	return m.phase
}

// Box returns the rectangle currently shown, live or finalized, or nil
func (m *Machine) Box() *types.Box {
	if m.box == nil {
		return nil
	}
	b := *m.box
	return &b
}

// Click handles a click at normalized coordinates
func (m *Machine) Click(fx, fy float64) Event {
	fx, fy = geometry.Clamp(fx, 0, 1), geometry.Clamp(fy, 0, 1)

	if m.phase == Idle {
		m.ax, m.ay = fx, fy
		m.setBox(types.Box{X: fx, Y: fy})
		m.phase = Anchored
		return Event{Kind: Started, Box: *m.box}
	}

	b := geometry.Span(m.ax, m.ay, fx, fy)
	m.phase = Idle
	m.ax, m.ay = 0, 0
	if b.W > m.config.MinWidth && b.H > m.config.MinHeight {
		m.setBox(b)
		return Event{Kind: Finalized, Box: b}
	}
	m.box = nil
	return Event{Kind: Discarded, Box: b}
}

// Move handles pointer motion. Only an anchored gesture reacts.
func (m *Machine) Move(fx, fy float64) Event {
	if m.phase != Anchored {
		return Event{Kind: None}
	}
	b := geometry.Span(m.ax, m.ay, geometry.Clamp(fx, 0, 1), geometry.Clamp(fy, 0, 1))
	m.setBox(b)
	return Event{Kind: Updated, Box: b}
}

// Leave handles the pointer leaving the preview. An anchored gesture is cancelled.
func (m *Machine) Leave() Event {
	if m.phase != Anchored {
		return Event{Kind: None}
	}
	m.phase = Idle
	m.ax, m.ay = 0, 0
	m.box = nil
	return Event{Kind: Cancelled}
}

// Reset returns the machine to Idle with no rectangle
func (m *Machine) Reset() {
	m.phase = Idle
	m.ax, m.ay = 0, 0
	m.box = nil
}

// rectangles are replaced, never edited in place
func (m *Machine) setBox(b types.Box) {
	m.box = &b
}
