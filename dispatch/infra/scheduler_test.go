package infra

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestTimerScheduler_FiresAfterDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewTimerScheduler(clock)

	fired := make(chan struct{})
	s.Schedule("reap", 5*time.Second, func() { close(fired) })

	clock.Advance(4 * time.Second)
	select {
	case <-fired:
		t.Fatalf("expected no fire before the delay")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(2 * time.Second)
	select {
	case <-fired:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting scheduled fire")
	}
}

func TestTimerScheduler_ScheduleReplacesPendingSameName(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewTimerScheduler(clock)

	first := make(chan struct{})
	second := make(chan struct{})
	s.Schedule("reap", 5*time.Second, func() { close(first) })

	clock.Advance(3 * time.Second)
	s.Schedule("reap", 5*time.Second, func() { close(second) })

	// o prazo original (5s desde o primeiro Schedule) passa sem disparo:
	// o reagendamento zerou a contagem
	clock.Advance(3 * time.Second)
	select {
	case <-first:
		t.Fatalf("expected first schedule to be replaced before firing")
	case <-second:
		t.Fatalf("expected replacing schedule to still be pending")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(2 * time.Second)
	select {
	case <-second:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting replacing schedule to fire")
	}
	select {
	case <-first:
		t.Fatalf("expected first schedule to never fire")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerScheduler_CancelDropsPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewTimerScheduler(clock)

	fired := make(chan struct{})
	s.Schedule("reap", time.Second, func() { close(fired) })
	s.Cancel("reap")

	clock.Advance(2 * time.Second)
	select {
	case <-fired:
		t.Fatalf("expected canceled schedule to not fire")
	case <-time.After(50 * time.Millisecond):
	}

	// cancelar de novo, sem nada pendente, é inofensivo
	s.Cancel("reap")
}

func TestTimerScheduler_NamesAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewTimerScheduler(clock)

	a := make(chan struct{})
	b := make(chan struct{})
	s.Schedule("a", time.Second, func() { close(a) })
	s.Schedule("b", time.Second, func() { close(b) })

	clock.Advance(time.Second)
	for name, ch := range map[string]chan struct{}{"a": a, "b": b} {
		select {
		case <-ch:
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timeout waiting schedule %q to fire", name)
		}
	}
}
