package blob

import (
	"sync"
	"time"
)

// Simulated progress constants. The transfer mechanism exposes no
// byte-level progress, so the client approximates it: jump to startPercent
// when the transfer begins, then increment on a fixed interval up to
// ceilingPercent, where it waits for the real completion signal. This is a
// deliberate approximation, not a measured value.
const (
	progressStart   = 20
	progressStep    = 5
	progressCeiling = 80
)

// progressSimulator emits a monotonic placeholder progress curve until
// stopped. Stop is safe to call more than once; the timer is cancelled
// exactly once, so a late tick can never overwrite a later, more accurate
// state.
type progressSimulator struct {
	interval time.Duration
	onUpdate func(int)

	mu      sync.Mutex
	current int
	ticker  *time.Ticker
	done    chan struct{}
	stop    sync.Once
}

func newProgressSimulator(interval time.Duration, onUpdate func(int)) *progressSimulator {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if onUpdate == nil {
		onUpdate = func(int) {}
	}
	return &progressSimulator{
		interval: interval,
		onUpdate: onUpdate,
		done:     make(chan struct{}),
	}
}

// Start jumps to the initial percentage and begins incrementing.
func (s *progressSimulator) Start() {
	s.mu.Lock()
	s.current = progressStart
	s.ticker = time.NewTicker(s.interval)
	s.mu.Unlock()

	s.onUpdate(progressStart)

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				s.mu.Lock()
				if s.current >= progressCeiling {
					s.mu.Unlock()
					continue
				}
				s.current += progressStep
				if s.current > progressCeiling {
					s.current = progressCeiling
				}
				p := s.current
				s.mu.Unlock()
				s.onUpdate(p)
			}
		}
	}()
}

// Stop cancels the simulation. Idempotent.
func (s *progressSimulator) Stop() {
	s.stop.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.mu.Unlock()
	})
}
