package vm

import (
	"context"
	"sync"
	"time"
)

// TickFunc runs one frame. now is the time the tick was triggered.
type TickFunc func(now time.Time)

// Scheduler invokes a tick callback on the next frame. The runtime calls
// ScheduleTick once per frame while the frame loop is running; ticks must not
// overlap.
type Scheduler interface {
	ScheduleTick(tick TickFunc)
}

// ManualScheduler is a fixed-step scheduler that runs ticks only when told
// to. Tick timestamps advance by Step from Start, so frame rate estimates
// are deterministic.
type ManualScheduler struct {
	Start time.Time
	Step  time.Duration

	mu      sync.Mutex
	pending TickFunc
	ticks   int
}

// NewManualScheduler creates a manual scheduler stepping at fps.
func NewManualScheduler(fps int) *ManualScheduler {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &ManualScheduler{
		Start: time.Unix(0, 0),
		Step:  time.Second / time.Duration(fps),
	}
}

// ScheduleTick implements Scheduler.
func (s *ManualScheduler) ScheduleTick(tick TickFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = tick
}

// Pending reports whether a tick is waiting to run.
func (s *ManualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Tick runs the pending tick synchronously. It returns false when none was
// scheduled.
func (s *ManualScheduler) Tick() bool {
	s.mu.Lock()
	tick := s.pending
	s.pending = nil
	now := s.Start.Add(time.Duration(s.ticks) * s.Step)
	if tick != nil {
		s.ticks++
	}
	s.mu.Unlock()

	if tick == nil {
		return false
	}
	tick(now)
	return true
}

// Run runs up to n ticks and returns how many ran. It stops early when the
// loop stops rescheduling.
func (s *ManualScheduler) Run(n int) int {
	ran := 0
	for ran < n && s.Tick() {
		ran++
	}
	return ran
}

// TickerScheduler drives ticks from a time.Ticker at a fixed frame rate
// without a display.
type TickerScheduler struct {
	interval  time.Duration
	maxFrames int

	mu      sync.Mutex
	pending TickFunc
}

// NewTickerScheduler creates a headless scheduler. maxFrames <= 0 means no
// frame limit.
func NewTickerScheduler(fps, maxFrames int) *TickerScheduler {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &TickerScheduler{
		interval:  time.Second / time.Duration(fps),
		maxFrames: maxFrames,
	}
}

// ScheduleTick implements Scheduler.
func (s *TickerScheduler) ScheduleTick(tick TickFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = tick
}

func (s *TickerScheduler) take() TickFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	tick := s.pending
	s.pending = nil
	return tick
}

// Run executes scheduled ticks until ctx is done, the frame limit is reached
// or no tick is rescheduled. It returns the number of ticks run.
func (s *TickerScheduler) Run(ctx context.Context) int {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	frames := 0
	for {
		if s.maxFrames > 0 && frames >= s.maxFrames {
			return frames
		}

		s.mu.Lock()
		idle := s.pending == nil
		s.mu.Unlock()
		if idle {
			// Nothing scheduled: the loop has halted.
			return frames
		}

		select {
		case <-ctx.Done():
			return frames
		case now := <-ticker.C:
			if tick := s.take(); tick != nil {
				tick(now)
				frames++
			}
		}
	}
}
