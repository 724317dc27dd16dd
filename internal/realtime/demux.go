package realtime

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/NOLA9TECH-AI/G-Bot/internal/bus"
)

// Handlers receives the demultiplexed server stream. Nil handlers are
// skipped. Text handlers get the whole accumulated string every time, not
// deltas.
type Handlers struct {
	OnUserText     func(text string)
	OnBotText      func(text string)
	OnAudio        func(pcm []byte)
	OnBotTalking   func()
	OnTurnComplete func(userText, botText string)
	OnInterrupted  func()
	OnToolCalls    func(calls []FunctionCall)
	OnGoAway       func()
}

// Demuxer fans one server frame stream out into audio, transcription, turn
// and tool-call handlers, keeping the per-turn accumulator state.
type Demuxer struct {
	mu       sync.Mutex
	logger   zerolog.Logger
	events   *bus.EventBus
	handlers Handlers

	userAcc strings.Builder
	botAcc  strings.Builder
	talking bool
}

// NewDemuxer builds a demuxer publishing to the given handlers and bus.
func NewDemuxer(handlers Handlers, events *bus.EventBus, logger zerolog.Logger) *Demuxer {
	return &Demuxer{
		logger:   logger.With().Str("component", "demux").Logger(),
		events:   events,
		handlers: handlers,
	}
}

// Run consumes the session's message stream until it closes or the context is
// canceled.
func (d *Demuxer) Run(ctx context.Context, s *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-s.messages:
			if !ok {
				return
			}
			d.handle(env)
		}
	}
}

func (d *Demuxer) handle(env serverEnvelope) {
	switch {
	case env.ServerContent != nil:
		d.handleContent(env.ServerContent)
	case env.ToolCall != nil:
		d.handleToolCall(env.ToolCall)
	case env.GoAway != nil:
		d.logger.Warn().Msg("Server signaled session end")
		if d.handlers.OnGoAway != nil {
			d.handlers.OnGoAway()
		}
	}
}

// handleContent processes one serverContent frame. Interruption is handled
// before anything else in the frame; turn completion after, so a final delta
// riding the same frame still lands in the accumulator it flushes.
func (d *Demuxer) handleContent(sc *serverContent) {
	if sc.Interrupted {
		d.mu.Lock()
		d.talking = false
		d.mu.Unlock()

		d.logger.Debug().Msg("Turn interrupted")
		if d.handlers.OnInterrupted != nil {
			d.handlers.OnInterrupted()
		}
		d.events.Publish(bus.Event{Type: bus.EventTypeInterrupted, Data: nil})
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		d.mu.Lock()
		d.userAcc.WriteString(sc.InputTranscription.Text)
		text := d.userAcc.String()
		d.mu.Unlock()

		if d.handlers.OnUserText != nil {
			d.handlers.OnUserText(text)
		}
		d.events.Publish(bus.Event{Type: bus.EventTypeTranscription, Data: map[string]any{
			"speaker": "user",
			"text":    text,
		}})
	}

	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		d.mu.Lock()
		d.botAcc.WriteString(sc.OutputTranscription.Text)
		text := d.botAcc.String()
		d.mu.Unlock()

		if d.handlers.OnBotText != nil {
			d.handlers.OnBotText(text)
		}
		d.events.Publish(bus.Event{Type: bus.EventTypeTranscription, Data: map[string]any{
			"speaker": "bot",
			"text":    text,
		}})
	}

	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MimeType, "audio/") {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				d.logger.Warn().Err(err).Msg("Undecodable audio chunk")
				continue
			}

			d.mu.Lock()
			first := !d.talking
			d.talking = true
			d.mu.Unlock()

			if first {
				if d.handlers.OnBotTalking != nil {
					d.handlers.OnBotTalking()
				}
				d.events.Publish(bus.Event{Type: bus.EventTypeBotTalking, Data: nil})
			}
			if d.handlers.OnAudio != nil {
				d.handlers.OnAudio(pcm)
			}
		}
	}

	if sc.TurnComplete {
		d.mu.Lock()
		user := d.userAcc.String()
		bot := d.botAcc.String()
		d.userAcc.Reset()
		d.botAcc.Reset()
		d.talking = false
		d.mu.Unlock()

		d.logger.Debug().Int("userLen", len(user)).Int("botLen", len(bot)).Msg("Turn complete")
		if d.handlers.OnTurnComplete != nil {
			d.handlers.OnTurnComplete(user, bot)
		}
		d.events.Publish(bus.Event{Type: bus.EventTypeTurnComplete, Data: map[string]any{
			"user": user,
			"bot":  bot,
		}})
	}
}

func (d *Demuxer) handleToolCall(tc *toolCallPayload) {
	if len(tc.FunctionCalls) == 0 {
		return
	}
	d.logger.Debug().Int("calls", len(tc.FunctionCalls)).Msg("Tool calls received")
	if d.handlers.OnToolCalls != nil {
		d.handlers.OnToolCalls(tc.FunctionCalls)
	}
}
