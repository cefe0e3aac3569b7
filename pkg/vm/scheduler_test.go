package vm

import (
	"context"
	"testing"
	"time"
)

func TestManualScheduler_Timestamps(t *testing.T) {
	s := NewManualScheduler(50)
	var stamps []time.Time

	var tick TickFunc
	tick = func(now time.Time) {
		stamps = append(stamps, now)
		s.ScheduleTick(tick)
	}
	s.ScheduleTick(tick)

	if ran := s.Run(3); ran != 3 {
		t.Fatalf("ran %d ticks, want 3", ran)
	}
	for i := 1; i < len(stamps); i++ {
		if d := stamps[i].Sub(stamps[i-1]); d != 20*time.Millisecond {
			t.Errorf("tick %d delta = %v, want 20ms", i, d)
		}
	}
}

func TestManualScheduler_NothingPending(t *testing.T) {
	s := NewManualScheduler(0)
	if s.Tick() {
		t.Error("Tick ran without a scheduled callback")
	}
	if s.Step != time.Second/DefaultFPS {
		t.Errorf("step = %v, want default frame interval", s.Step)
	}
}

func TestTickerScheduler_MaxFrames(t *testing.T) {
	s := NewTickerScheduler(1000, 5)
	r, _ := run(t, "every frame:\n    n += 1\n", WithScheduler(s))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if frames := s.Run(ctx); frames != 5 {
		t.Fatalf("ran %d frames, want 5", frames)
	}
	if got := mustVariable(t, r, "n"); got != Number(5) {
		t.Errorf("n = %v, want 5", got)
	}
}

func TestTickerScheduler_StopsWhenHalted(t *testing.T) {
	s := NewTickerScheduler(1000, 0)
	r, _ := run(t, "every frame:\n    n += 1\n", WithScheduler(s))
	r.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// One tick observes the stop, then nothing is rescheduled.
	if frames := s.Run(ctx); frames != 1 {
		t.Errorf("ran %d frames, want 1", frames)
	}
	if r.Context().FrameCount() != 0 {
		t.Errorf("frameCount = %d, want 0", r.Context().FrameCount())
	}
}

func TestTickerScheduler_Cancel(t *testing.T) {
	s := NewTickerScheduler(10, 0)
	run(t, "every frame:\n    n += 1\n", WithScheduler(s))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if frames := s.Run(ctx); frames > 1 {
		t.Errorf("ran %d frames after cancel", frames)
	}
}
