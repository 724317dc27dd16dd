// Package devices implements the microphone and speaker endpoints on top of
// the ALSA command line tools, keeping the driver free of cgo audio bindings.
package devices

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/NOLA9TECH-AI/G-Bot/internal/capture"
	"github.com/NOLA9TECH-AI/G-Bot/internal/playback"
)

// MicSource reads raw PCM frames from an arecord pipe. Implements
// capture.Source.
type MicSource struct {
	logger    zerolog.Logger
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	frameSize int

	mu     sync.Mutex
	closed bool
}

// NewMicSource starts arecord at the given rate and frame size.
func NewMicSource(sampleRate, frameSize int, logger zerolog.Logger) (*MicSource, error) {
	cmd := exec.Command("arecord",
		"-q",
		"-f", "S16_LE",
		"-r", fmt.Sprintf("%d", sampleRate),
		"-c", "1",
		"-t", "raw",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start arecord: %w", err)
	}

	logger.Info().Int("rate", sampleRate).Int("frame", frameSize).Msg("Microphone capture started")
	return &MicSource{
		logger:    logger.With().Str("component", "mic").Logger(),
		cmd:       cmd,
		stdout:    stdout,
		frameSize: frameSize,
	}, nil
}

// ReadFrame blocks until one full frame of samples arrives.
func (m *MicSource) ReadFrame() ([]float32, error) {
	buf := make([]byte, m.frameSize*2)
	if _, err := io.ReadFull(m.stdout, buf); err != nil {
		return nil, fmt.Errorf("mic read: %w", err)
	}
	return capture.PCM16ToFloat32(buf), nil
}

// Close stops the capture process.
func (m *MicSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	m.stdout.Close()
	if m.cmd.Process != nil {
		m.cmd.Process.Kill()
	}
	m.cmd.Wait()
	m.logger.Info().Msg("Microphone capture stopped")
	return nil
}

var _ capture.Source = (*MicSource)(nil)

// SpeakerOutput plays scheduled buffers through an aplay pipe. Implements
// playback.Output. Buffers are written when their start time comes due;
// aplay's own buffering provides the gapless join.
type SpeakerOutput struct {
	logger zerolog.Logger
	clock  playback.Clock

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewSpeakerOutput starts aplay at the given output rate.
func NewSpeakerOutput(sampleRate int, clock playback.Clock, logger zerolog.Logger) (*SpeakerOutput, error) {
	cmd := exec.Command("aplay",
		"-q",
		"-f", "S16_LE",
		"-r", fmt.Sprintf("%d", sampleRate),
		"-c", "1",
		"-t", "raw",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start aplay: %w", err)
	}

	logger.Info().Int("rate", sampleRate).Msg("Speaker output started")
	return &SpeakerOutput{
		logger: logger.With().Str("component", "speaker").Logger(),
		clock:  clock,
		cmd:    cmd,
		stdin:  stdin,
	}, nil
}

type speakerSource struct {
	stop chan struct{}
	once sync.Once
}

func (s *speakerSource) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Schedule queues samples to play at the given clock time.
func (o *SpeakerOutput) Schedule(samples []float32, sampleRate int, at float64) playback.Source {
	src := &speakerSource{stop: make(chan struct{})}
	pcm := capture.Float32ToPCM16(samples)

	go func() {
		if delay := at - o.clock.Now(); delay > 0 {
			timer := time.NewTimer(time.Duration(delay * float64(time.Second)))
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-src.stop:
				return
			}
		}
		select {
		case <-src.stop:
			return
		default:
		}

		o.mu.Lock()
		defer o.mu.Unlock()
		if o.stdin == nil {
			return
		}
		if _, err := o.stdin.Write(pcm); err != nil {
			o.logger.Warn().Err(err).Msg("Speaker write failed")
		}
	}()

	return src
}

// Close stops the playback process.
func (o *SpeakerOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stdin == nil {
		return nil
	}
	o.stdin.Close()
	o.stdin = nil
	if o.cmd.Process != nil {
		o.cmd.Process.Kill()
	}
	o.cmd.Wait()
	o.logger.Info().Msg("Speaker output stopped")
	return nil
}

var _ playback.Output = (*SpeakerOutput)(nil)
