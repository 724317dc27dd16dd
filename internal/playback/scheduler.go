// Package playback schedules decoded PCM chunks back-to-back on an audio
// output clock, gapless, with hard-stop-all for barge-in.
package playback

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Clock is the audio output clock, in seconds. Injectable for tests.
type Clock interface {
	Now() float64
}

// SystemClock measures seconds since construction on the wall clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock rooted at now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns seconds elapsed since the clock was created.
func (c *SystemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// Source is a scheduled-but-possibly-playing output buffer. Stop must be safe
// to call on a source that already finished naturally.
type Source interface {
	Stop()
}

// Output is the device-facing sink. Schedule queues samples to start playing
// at the given clock time and returns a stoppable handle.
type Output interface {
	Schedule(samples []float32, sampleRate int, at float64) Source
}

// Config carries the output format of inbound chunks.
type Config struct {
	SampleRate int
	Channels   int
}

// DefaultConfig matches the remote model's output stream.
func DefaultConfig() Config {
	return Config{SampleRate: 24000, Channels: 1}
}

type scheduled struct {
	src    Source
	endsAt float64
}

// Scheduler keeps a monotonic watermark and a live set of scheduled buffers.
// The watermark never decreases except on an explicit interruption reset.
type Scheduler struct {
	mu     sync.Mutex
	logger zerolog.Logger

	clock Clock
	out   Output
	cfg   Config

	nextStart float64
	live      []scheduled
}

// NewScheduler creates a scheduler with the watermark at the clock's now.
func NewScheduler(out Output, clock Clock, cfg Config, logger zerolog.Logger) *Scheduler {
	if cfg.SampleRate <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &Scheduler{
		logger:    logger.With().Str("component", "playback").Logger(),
		clock:     clock,
		out:       out,
		cfg:       cfg,
		nextStart: clock.Now(),
	}
}

// Enqueue decodes a raw 16-bit LE PCM chunk and schedules it at
// max(watermark, now), then advances the watermark by the chunk's duration.
// Chunks arriving faster than playback stack seamlessly behind each other.
func (s *Scheduler) Enqueue(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	if len(pcm)%2 != 0 {
		return fmt.Errorf("odd pcm chunk length %d", len(pcm))
	}

	samples := decodePCM16(pcm)
	duration := float64(len(samples)) / float64(s.cfg.SampleRate*s.cfg.Channels)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	start := s.nextStart
	if now > start {
		start = now
	}

	src := s.out.Schedule(samples, s.cfg.SampleRate, start)
	s.nextStart = start + duration
	s.live = append(s.live, scheduled{src: src, endsAt: s.nextStart})

	// Buffers that finished naturally leave the live set here.
	s.pruneLocked(now)

	s.logger.Debug().
		Float64("start", start).
		Float64("duration", duration).
		Int("live", len(s.live)).
		Msg("Chunk scheduled")
	return nil
}

// StopAll force-stops every scheduled-but-unfinished buffer and resets the
// watermark to now. Idempotent: calling it when nothing is playing is fine,
// and stopping sources that already ended must not fail.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sc := range s.live {
		sc.src.Stop()
	}
	stopped := len(s.live)
	s.live = s.live[:0]
	s.nextStart = s.clock.Now()

	if stopped > 0 {
		s.logger.Debug().Int("stopped", stopped).Msg("Playback interrupted")
	}
}

// Watermark returns the next scheduling time.
func (s *Scheduler) Watermark() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// LiveCount returns the number of buffers not yet past their end time.
func (s *Scheduler) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.clock.Now())
	return len(s.live)
}

func (s *Scheduler) pruneLocked(now float64) {
	kept := s.live[:0]
	for _, sc := range s.live {
		if sc.endsAt > now {
			kept = append(kept, sc)
		}
	}
	s.live = kept
}

func decodePCM16(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples
}
