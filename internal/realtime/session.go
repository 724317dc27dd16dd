// Package realtime maintains the duplex live session: a websocket carrying
// base64 media frames up and audio/text/tool-call traffic down.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/NOLA9TECH-AI/G-Bot/internal/bus"
	"github.com/NOLA9TECH-AI/G-Bot/internal/capture"
)

// State is the session lifecycle state. Transitions are one-way:
// Idle -> Connecting -> Open -> Closing -> Closed, with Errored reachable
// from Connecting and Open.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Options carries everything needed to dial and set up a session.
type Options struct {
	ServerURL         string
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
	HandshakeTimeout  time.Duration
	VideoFrameRate    float64
	Tools             []FunctionDeclaration
}

// Session is one live connection. It is not reusable: after Close a new
// Session must be created to reconnect.
type Session struct {
	id     string
	opts   Options
	logger zerolog.Logger
	events *bus.EventBus

	conn    *websocket.Conn
	writeMu sync.Mutex

	state atomic.Int32

	messages  chan serverEnvelope
	closeCh   chan struct{}
	closeOnce sync.Once
	closeErr  error

	visual atomic.Bool
}

// NewSession builds an unconnected session.
func NewSession(opts Options, events *bus.EventBus, logger zerolog.Logger) *Session {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.VideoFrameRate <= 0 {
		opts.VideoFrameRate = 1.0
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		opts:     opts,
		logger:   logger.With().Str("component", "realtime").Str("session", id).Logger(),
		events:   events,
		messages: make(chan serverEnvelope, 64),
		closeCh:  make(chan struct{}),
	}
}

// ID returns the session's unique identifier, used to correlate logs and bus
// events across one connection's lifetime.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Connect dials the server, performs the setup exchange synchronously, and
// starts the read loop. A failed handshake leaves the session Errored and
// returns the error to the caller; nothing runs in the background after a
// failed Connect.
func (s *Session) Connect(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return fmt.Errorf("connect from state %s", s.State())
	}

	header := http.Header{}
	if s.opts.APIKey != "" {
		header.Set("Authorization", "Bearer "+s.opts.APIKey)
	}

	dialer := websocket.Dialer{HandshakeTimeout: s.opts.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, s.opts.ServerURL, header)
	if err != nil {
		if resp != nil {
			s.logger.Error().Int("status", resp.StatusCode).Err(err).Msg("Live session dial failed")
		}
		s.state.Store(int32(StateErrored))
		return fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn

	if err := s.sendSetup(); err != nil {
		conn.Close()
		s.state.Store(int32(StateErrored))
		return fmt.Errorf("setup send: %w", err)
	}
	if err := s.awaitSetupComplete(); err != nil {
		conn.Close()
		s.state.Store(int32(StateErrored))
		return err
	}

	s.state.Store(int32(StateOpen))
	s.logger.Info().Str("model", s.opts.Model).Msg("Live session open")
	s.events.Publish(bus.Event{Type: bus.EventTypeSessionConnected, Data: map[string]any{
		"session": s.id,
		"model":   s.opts.Model,
	}})

	go s.readLoop()
	return nil
}

func (s *Session) sendSetup() error {
	setup := &setupPayload{
		Model: s.opts.Model,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: &voiceConfig{
					PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: s.opts.Voice},
				},
			},
		},
	}
	if s.opts.SystemInstruction != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: s.opts.SystemInstruction}}}
	}
	if len(s.opts.Tools) > 0 {
		setup.Tools = []toolDeclaration{{FunctionDeclarations: s.opts.Tools}}
	}
	return s.writeJSON(clientEnvelope{Setup: setup})
}

func (s *Session) awaitSetupComplete() error {
	s.conn.SetReadDeadline(time.Now().Add(s.opts.HandshakeTimeout))
	defer s.conn.SetReadDeadline(time.Time{})

	_, raw, err := s.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("setup read: %w", err)
	}
	var env serverEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("setup parse: %w", err)
	}
	if env.SetupComplete == nil {
		return fmt.Errorf("expected setupComplete, got %s", string(raw))
	}
	return nil
}

// readLoop pushes server frames into the message channel until the connection
// drops or Close is called. Malformed frames are logged and skipped.
func (s *Session) readLoop() {
	defer close(s.messages)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Msg("Live session closed normally")
			} else if s.State() == StateOpen {
				s.logger.Error().Err(err).Msg("Live session read error")
				s.state.Store(int32(StateErrored))
				s.events.Publish(bus.Event{Type: bus.EventTypeSessionError, Data: map[string]any{
					"error": err.Error(),
				}})
			}
			return
		}

		var env serverEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.logger.Warn().Err(err).Str("message", string(raw)).Msg("Unparseable server frame")
			continue
		}

		select {
		case s.messages <- env:
		case <-s.closeCh:
			return
		}
	}
}

// SetVisualMode toggles video frame upload.
func (s *Session) SetVisualMode(on bool) {
	s.visual.Store(on)
	s.logger.Info().Bool("visual", on).Msg("Visual mode toggled")
}

// VisualMode reports whether video frames are being uploaded.
func (s *Session) VisualMode() bool {
	return s.visual.Load()
}

// SendFrame uploads one encoded media frame. One wire message per capture
// frame, no batching.
func (s *Session) SendFrame(f capture.Frame) error {
	if s.State() != StateOpen {
		return fmt.Errorf("session not open")
	}
	return s.writeJSON(clientEnvelope{RealtimeInput: &realtimeInputPayload{
		MediaChunks: []mediaChunk{{MimeType: f.MimeType, Data: f.Data}},
	}})
}

// SendText submits a typed user turn, marking it complete so the model
// responds immediately.
func (s *Session) SendText(text string) error {
	if s.State() != StateOpen {
		return fmt.Errorf("session not open")
	}
	return s.writeJSON(clientEnvelope{ClientContent: &clientContentPayload{
		Turns:        []content{{Role: "user", Parts: []part{{Text: text}}}},
		TurnComplete: true,
	}})
}

// SendToolResponse answers one tool call by id.
func (s *Session) SendToolResponse(id, name string, result map[string]any) error {
	if s.State() != StateOpen {
		return fmt.Errorf("session not open")
	}
	return s.writeJSON(clientEnvelope{ToolResponse: &toolResponsePayload{
		FunctionResponses: []functionResponse{{ID: id, Name: name, Response: result}},
	}})
}

func (s *Session) writeJSON(env clientEnvelope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	return s.conn.WriteJSON(env)
}

// PumpAudio reads microphone frames and uploads them until the source fails,
// the context is canceled, or the session closes.
func (s *Session) PumpAudio(ctx context.Context, src capture.Source) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closeCh:
			return
		default:
		}

		samples, err := src.ReadFrame()
		if err != nil {
			s.logger.Debug().Err(err).Msg("Microphone source ended")
			return
		}
		if err := s.SendFrame(capture.EncodeAudioFrame(samples)); err != nil {
			s.logger.Warn().Err(err).Msg("Audio frame send failed")
			return
		}
	}
}

// PumpVideo grabs and uploads frames at the configured rate while visual mode
// is on. Grab failures skip the tick.
func (s *Session) PumpVideo(ctx context.Context, grabber capture.VideoGrabber) {
	interval := time.Duration(float64(time.Second) / s.opts.VideoFrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closeCh:
			return
		case <-ticker.C:
			if !s.visual.Load() {
				continue
			}
			jpeg, err := grabber.Grab()
			if err != nil {
				s.logger.Warn().Err(err).Msg("Video grab failed")
				continue
			}
			if err := s.SendFrame(capture.EncodeVideoFrame(jpeg)); err != nil {
				s.logger.Warn().Err(err).Msg("Video frame send failed")
				return
			}
		}
	}
}

// Close tears the session down. Safe to call multiple times and from any
// goroutine; later calls return the first close's result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		prev := s.State()
		s.state.Store(int32(StateClosing))
		close(s.closeCh)

		if s.conn != nil {
			s.writeMu.Lock()
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			s.closeErr = s.conn.Close()
			s.writeMu.Unlock()
		}
		s.state.Store(int32(StateClosed))

		if prev == StateOpen {
			s.events.Publish(bus.Event{Type: bus.EventTypeSessionClosed, Data: nil})
		}
		s.logger.Info().Msg("Live session closed")
	})
	return s.closeErr
}
