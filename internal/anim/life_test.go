package anim

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestFidget_TriggersGestureWhenCalm(t *testing.T) {
	b := newTestBlender(t)
	b.Trigger(Idle, false)
	advance(b, 1.0)

	s := NewLifeScheduler(b, func() bool { return true }, time.Second, 2*time.Second, zerolog.Nop())
	s.Fidget()

	active := b.Active()
	assert.NotEqual(t, Idle, active, "fidget should start a gesture")
	assert.Contains(t, fidgets, active)
}

func TestFidget_SuppressedByMood(t *testing.T) {
	b := newTestBlender(t)
	b.Trigger(Idle, false)
	advance(b, 1.0)

	// Mood is "loading": the timer firing must not change the active action.
	s := NewLifeScheduler(b, func() bool { return false }, time.Second, 2*time.Second, zerolog.Nop())
	s.Fidget()

	assert.Equal(t, Idle, b.Active())
}

func TestFidget_NeverOverridesNonIdle(t *testing.T) {
	b := newTestBlender(t)
	b.Trigger(Walking, false)
	advance(b, 0.5)

	s := NewLifeScheduler(b, func() bool { return true }, time.Second, 2*time.Second, zerolog.Nop())
	s.Fidget()

	assert.Equal(t, Walking, b.Active(), "locomotion must not be interrupted")
}

func TestFidget_AlwaysYieldsIdleAgain(t *testing.T) {
	// Every fidget must be a one-shot: a looping gesture would hold the
	// active slot forever and the Idle gate would wedge the scheduler.
	for _, gesture := range fidgets {
		assert.False(t, LoopsByDefault(gesture), "fidget %s must not loop", gesture)
	}

	b := newTestBlender(t)
	b.Trigger(Idle, false)
	advance(b, 1.0)

	s := NewLifeScheduler(b, func() bool { return true }, time.Second, 2*time.Second, zerolog.Nop())

	// Several rounds: fidget, let the clip play out, verify idle is back and
	// the next fidget still fires.
	for i := 0; i < 10; i++ {
		s.Fidget()
		assert.NotEqual(t, Idle, b.Active(), "round %d: fidget should start a gesture", i)

		advance(b, 5.0) // longer than any gesture in the pool
		assert.Equal(t, Idle, b.Active(), "round %d: gesture must return to idle", i)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	b := newTestBlender(t)
	s := NewLifeScheduler(b, func() bool { return true }, 50*time.Millisecond, 100*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("life scheduler did not stop on cancel")
	}
}

func TestNewLifeScheduler_DefaultsIntervals(t *testing.T) {
	b := newTestBlender(t)
	s := NewLifeScheduler(b, func() bool { return true }, 0, 0, zerolog.Nop())
	assert.Equal(t, 8*time.Second, s.minInterval)
	assert.Equal(t, 18*time.Second, s.maxInterval)
}
