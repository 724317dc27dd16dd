package anim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// fidgets is the gesture pool the life scheduler draws from. One-shot clips
// only: a looping clip would never auto-return to Idle, and the Idle check in
// Fidget would then block all further fidgets.
var fidgets = []Animation{Wave, Yes, ThumbsUp, Jump}

// LifeScheduler injects idle fidget animations at randomized intervals so the
// avatar never sits perfectly still. It only ever acts when the avatar is
// calm: active clip is Idle and no stronger mood is set.
type LifeScheduler struct {
	blender *Blender
	calm    func() bool
	logger  zerolog.Logger

	minInterval time.Duration
	maxInterval time.Duration

	mu    sync.Mutex
	rng   *rand.Rand
	timer *time.Timer
}

// NewLifeScheduler creates a scheduler. calm reports whether no higher
// priority mood (loading, talking, painting, ...) is active.
func NewLifeScheduler(blender *Blender, calm func() bool, minInterval, maxInterval time.Duration, logger zerolog.Logger) *LifeScheduler {
	if minInterval <= 0 {
		minInterval = 8 * time.Second
	}
	if maxInterval <= minInterval {
		maxInterval = minInterval + 10*time.Second
	}
	return &LifeScheduler{
		blender:     blender,
		calm:        calm,
		logger:      logger.With().Str("component", "life").Logger(),
		minInterval: minInterval,
		maxInterval: maxInterval,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run blocks until ctx is cancelled, waking at uniform random intervals in
// [minInterval, maxInterval] to maybe fidget. The pending timer is always
// stopped on teardown so a disposed model is never triggered.
func (s *LifeScheduler) Run(ctx context.Context) {
	for {
		s.mu.Lock()
		interval := s.minInterval + time.Duration(s.rng.Int63n(int64(s.maxInterval-s.minInterval)))
		s.timer = time.NewTimer(interval)
		timer := s.timer
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debug().Msg("Life scheduler stopped")
			return
		case <-timer.C:
			s.Fidget()
		}
	}
}

// Fidget triggers one random idle gesture, but never overrides locomotion, an
// in-progress one-shot, or a stronger mood. Checked, not forced.
func (s *LifeScheduler) Fidget() {
	if !s.calm() {
		return
	}
	if s.blender.Active() != Idle {
		return
	}

	s.mu.Lock()
	gesture := fidgets[s.rng.Intn(len(fidgets))]
	s.mu.Unlock()

	s.logger.Debug().Str("gesture", string(gesture)).Msg("Idle fidget")
	s.blender.Trigger(gesture, false)
}
