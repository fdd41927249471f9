package viewer

import (
	"sync"
	"time"
)

// Player drives auto-play with a repeating ticker. Each tick is handed to
// dispatch so it runs on the goroutine that owns the State; ticks that were
// queued before Stop are dropped.
type Player struct {
	interval time.Duration
	dispatch func(func())
	tick     func()

	mu      sync.Mutex
	stop    chan struct{}
	running bool
	gen     uint64
}

// NewPlayer creates a stopped player. A nil dispatch runs ticks directly on
// the ticker goroutine.
func NewPlayer(interval time.Duration, dispatch func(func()), tick func()) *Player {
	if interval <= 0 {
		interval = DefaultAutoPlayInterval
	}
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	return &Player{
		interval: interval,
		dispatch: dispatch,
		tick:     tick,
	}
}

// Interval returns the tick period.
func (p *Player) Interval() time.Duration {
	return p.interval
}

// Running reports whether the ticker is active.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start begins ticking. Calling Start on a running player does nothing.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.gen++
	p.stop = make(chan struct{})
	go p.loop(p.gen, p.stop)
}

// Stop cancels the ticker. It is safe to call any number of times.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.gen++
	close(p.stop)
}

// Sync starts or stops the player to match the auto-play flag.
func (p *Player) Sync(autoPlaying bool) {
	if autoPlaying {
		p.Start()
		return
	}
	p.Stop()
}

func (p *Player) loop(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.dispatch(func() {
				if p.current(gen) {
					p.tick()
				}
			})
		}
	}
}

func (p *Player) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.gen == gen
}
