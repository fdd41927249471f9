// Package viewer holds the interactive state of the zoom viewer and maps
// pointer, wheel, slider and keyboard input onto it.
//
// Navigation is deliberately asymmetric: the wheel stops at the first and
// last frame while the arrow keys and auto-play loop around.
package viewer

import (
	"math"
	"time"
)

// Zoom limits and the default auto-play rate
const (
	MinZoom                 = 0.5
	MaxZoom                 = 5.0
	DefaultZoom             = 1.0
	DefaultAutoPlayInterval = 150 * time.Millisecond
)

// Point is a 2D position or offset in viewport pixels.
type Point struct {
	X float64
	Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Key is a keyboard command understood by the viewer.
type Key int

const (
	KeyNone Key = iota
	KeyLeft
	KeyRight
	KeySpace
	KeyReset
)

// Snapshot is a read-only copy of the viewer state.
type Snapshot struct {
	Frames      int
	Index       int
	Zoom        float64
	Pan         Point
	AutoPlaying bool
	Dragging    bool
}

// Empty reports whether there is nothing to display.
func (s Snapshot) Empty() bool {
	return s.Frames == 0
}

// State is owned by a single goroutine (the UI thread) and is not safe for
// concurrent use. Every mutator keeps 0 <= index < frames and
// MinZoom <= zoom <= MaxZoom, and reports whether anything changed. With no
// frames loaded every mutator is a no-op.
type State struct {
	frames      int
	index       int
	zoom        float64
	pan         Point
	autoPlaying bool
	dragging    bool
	lastPointer Point
}

// NewState creates a viewer over a sequence of the given length.
func NewState(frames int) *State {
	s := &State{}
	s.SetFrameCount(frames)
	return s
}

// SetFrameCount replaces the sequence wholesale and resets the view.
func (s *State) SetFrameCount(frames int) {
	*s = State{frames: max(frames, 0), zoom: DefaultZoom}
}

func (s *State) Empty() bool       { return s.frames == 0 }
func (s *State) Len() int          { return s.frames }
func (s *State) Index() int        { return s.index }
func (s *State) Zoom() float64     { return s.zoom }
func (s *State) Pan() Point        { return s.pan }
func (s *State) AutoPlaying() bool { return s.autoPlaying }
func (s *State) Dragging() bool    { return s.dragging }

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Frames:      s.frames,
		Index:       s.index,
		Zoom:        s.zoom,
		Pan:         s.pan,
		AutoPlaying: s.autoPlaying,
		Dragging:    s.dragging,
	}
}

// Wheel steps one frame per event: positive deltaY (scrolling down) moves
// forward, negative moves back. Clamped at both ends.
func (s *State) Wheel(deltaY float64) bool {
	if s.Empty() || deltaY == 0 {
		return false
	}
	next := s.index + 1
	if deltaY < 0 {
		next = s.index - 1
	}
	return s.setIndex(clampInt(next, 0, s.frames-1))
}

// Key applies a keyboard command. Arrow navigation wraps around.
func (s *State) Key(k Key) bool {
	if s.Empty() {
		return false
	}
	switch k {
	case KeyLeft:
		return s.setIndex(wrap(s.index-1, s.frames))
	case KeyRight:
		return s.setIndex(wrap(s.index+1, s.frames))
	case KeySpace:
		return s.ToggleAutoPlay()
	case KeyReset:
		return s.Reset()
	}
	return false
}

// PointerDown starts a drag gesture at p.
func (s *State) PointerDown(p Point) bool {
	if s.Empty() {
		return false
	}
	s.dragging = true
	s.lastPointer = p
	return true
}

// PointerMove pans by the distance travelled since the last recorded
// pointer position. Ignored unless a drag is in progress.
func (s *State) PointerMove(p Point) bool {
	if s.Empty() || !s.dragging {
		return false
	}
	delta := p.Sub(s.lastPointer)
	s.lastPointer = p
	if delta == (Point{}) {
		return false
	}
	s.pan = s.pan.Add(delta)
	return true
}

// PointerUp ends the drag gesture.
func (s *State) PointerUp() bool {
	if s.Empty() || !s.dragging {
		return false
	}
	s.dragging = false
	s.lastPointer = Point{}
	return true
}

// PointerLeave ends the drag gesture when the pointer leaves the surface.
func (s *State) PointerLeave() bool {
	return s.PointerUp()
}

// SetPosition jumps to frame v.
func (s *State) SetPosition(v int) bool {
	if s.Empty() {
		return false
	}
	return s.setIndex(clampInt(v, 0, s.frames-1))
}

// SetZoom sets the zoom level, clamped to [MinZoom, MaxZoom].
func (s *State) SetZoom(v float64) bool {
	if s.Empty() || math.IsNaN(v) {
		return false
	}
	z := min(max(v, MinZoom), MaxZoom)
	if z == s.zoom {
		return false
	}
	s.zoom = z
	return true
}

// ToggleAutoPlay flips auto-play on or off.
func (s *State) ToggleAutoPlay() bool {
	return s.SetAutoPlay(!s.autoPlaying)
}

// SetAutoPlay turns auto-play on or off.
func (s *State) SetAutoPlay(on bool) bool {
	if s.Empty() || s.autoPlaying == on {
		return false
	}
	s.autoPlaying = on
	return true
}

// Tick advances one frame during auto-play, looping at the end.
func (s *State) Tick() bool {
	if s.Empty() || !s.autoPlaying {
		return false
	}
	return s.setIndex(wrap(s.index+1, s.frames))
}

// Reset returns to the first frame at zoom 1 with no pan and auto-play off.
func (s *State) Reset() bool {
	if s.Empty() {
		return false
	}
	before := s.Snapshot()
	s.index = 0
	s.zoom = DefaultZoom
	s.pan = Point{}
	s.autoPlaying = false
	s.dragging = false
	s.lastPointer = Point{}
	return before != s.Snapshot()
}

func (s *State) setIndex(i int) bool {
	if i == s.index {
		return false
	}
	s.index = i
	return true
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
