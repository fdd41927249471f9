// Package session holds the single in-memory frame sequence shared between
// the extractor and the viewer, and decides which view is active.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/infinizoom/internal/frames"
)

// ErrSuperseded is returned by Run when a newer extraction replaced it.
var ErrSuperseded = errors.New("extraction superseded")

// View identifies the active screen
type View int

const (
	ViewExtract View = iota
	ViewViewer
)

func (v View) String() string {
	switch v {
	case ViewExtract:
		return "extract"
	case ViewViewer:
		return "viewer"
	}
	return "unknown"
}

// Ticket identifies one extraction attempt. Results reported with a ticket
// older than the latest one are discarded.
type Ticket struct {
	Generation uint64
	ID         uuid.UUID
}

// Snapshot is a copy of the session state handed to listeners
type Snapshot struct {
	Ticket   Ticket
	View     View
	Running  bool
	Progress float64
	Frames   int
	Err      error
}

// Session owns the frame sequence and the extraction progress.
// It is safe for concurrent use: extraction reports arrive from a worker
// goroutine while the UI reads from its own.
type Session struct {
	logger   zerolog.Logger
	onChange func(Snapshot)

	mu       sync.Mutex
	ticket   Ticket
	cancel   context.CancelFunc
	running  bool
	progress float64
	seq      frames.Sequence
	view     View
	err      error
}

// New creates an empty session. onChange, if set, is called after every
// accepted state change, outside the session lock.
func New(logger zerolog.Logger, onChange func(Snapshot)) *Session {
	return &Session{
		logger:   logger.With().Str("component", "session").Logger(),
		onChange: onChange,
	}
}

// Begin starts a new extraction attempt and supersedes any running one.
func (s *Session) Begin() Ticket {
	return s.begin(nil)
}

func (s *Session) begin(cancel context.CancelFunc) Ticket {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.running {
		s.logger.Info().Str("extraction", s.ticket.ID.String()).Msg("superseding running extraction")
	}
	s.ticket = Ticket{Generation: s.ticket.Generation + 1, ID: uuid.New()}
	s.cancel = cancel
	s.running = true
	s.progress = 0
	s.view = ViewExtract
	s.err = nil
	t := s.ticket
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return t
}

// Progress records progress for t. Reports are kept non-decreasing and
// within [0, 100]; stale tickets are ignored.
func (s *Session) Progress(t Ticket, percent float64) bool {
	s.mu.Lock()
	if !s.acceptLocked(t) {
		s.mu.Unlock()
		return false
	}
	percent = min(max(percent, 0), 100)
	if percent <= s.progress {
		s.mu.Unlock()
		return false
	}
	s.progress = percent
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Complete replaces the frame sequence with seq and switches to the viewer.
// An empty sequence is recorded as a failure.
func (s *Session) Complete(t Ticket, seq frames.Sequence) bool {
	if len(seq) == 0 {
		return s.Fail(t, frames.ErrEmptyResult)
	}

	s.mu.Lock()
	if !s.acceptLocked(t) {
		s.mu.Unlock()
		s.logger.Debug().Str("extraction", t.ID.String()).Msg("discarding stale result")
		return false
	}
	s.finishLocked()
	s.seq = seq
	s.progress = 100
	s.view = ViewViewer
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Str("extraction", t.ID.String()).Int("frames", len(seq)).Msg("frames ready")
	s.notify(snap)
	return true
}

// Fail ends the attempt without touching the current frame sequence.
func (s *Session) Fail(t Ticket, err error) bool {
	s.mu.Lock()
	if !s.acceptLocked(t) {
		s.mu.Unlock()
		return false
	}
	s.finishLocked()
	s.err = err
	s.progress = 0
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn().Err(err).Str("extraction", t.ID.String()).Msg("extraction failed")
	s.notify(snap)
	return true
}

// Run extracts frames from path under a fresh ticket and hands the result
// to the session. A later Run or Begin cancels this one.
func (s *Session) Run(ctx context.Context, ex *frames.Extractor, opener frames.Opener, path string) (frames.Sequence, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := s.begin(cancel)
	s.logger.Info().Str("extraction", t.ID.String()).Str("path", path).Msg("starting extraction")

	seq, err := ex.ExtractFile(ctx, opener, path, func(p float64) {
		s.Progress(t, p)
	})
	if err != nil {
		if !s.Fail(t, err) {
			return nil, ErrSuperseded
		}
		return nil, err
	}

	if !s.Complete(t, seq) {
		return nil, ErrSuperseded
	}
	return seq, nil
}

// Replace swaps in a sequence that was produced elsewhere, such as one
// loaded from disk. It supersedes any running extraction. An empty
// sequence is refused and leaves the session untouched.
func (s *Session) Replace(seq frames.Sequence) bool {
	if len(seq) == 0 {
		return false
	}
	return s.Complete(s.Begin(), seq)
}

// Frames returns the current frame sequence.
func (s *Session) Frames() frames.Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SetView switches the active view. The viewer cannot be selected before
// any frames exist.
func (s *Session) SetView(v View) bool {
	s.mu.Lock()
	if v == s.view || (v == ViewViewer && len(s.seq) == 0) {
		s.mu.Unlock()
		return false
	}
	s.view = v
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

func (s *Session) acceptLocked(t Ticket) bool {
	return s.running && t == s.ticket
}

func (s *Session) finishLocked() {
	s.running = false
	s.cancel = nil
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Ticket:   s.ticket,
		View:     s.view,
		Running:  s.running,
		Progress: s.progress,
		Frames:   len(s.seq),
		Err:      s.err,
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
