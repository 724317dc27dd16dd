package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ToolFunc executes one tool call. The returned map becomes the function
// response body; a non-nil error is reported to the model instead.
type ToolFunc func(ctx context.Context, args json.RawMessage) (map[string]any, error)

// ToolResponder sends function responses back over the wire. *Session
// implements it.
type ToolResponder interface {
	SendToolResponse(id, name string, result map[string]any) error
}

// ToolDispatcher routes model tool calls to registered handlers. Each call in
// a batch runs in its own goroutine and sends exactly one response, so a slow
// image generation never blocks a theme change arriving in the same frame.
type ToolDispatcher struct {
	mu       sync.RWMutex
	logger   zerolog.Logger
	session  ToolResponder
	handlers map[string]ToolFunc
}

// NewToolDispatcher builds an empty dispatcher bound to a session.
func NewToolDispatcher(session ToolResponder, logger zerolog.Logger) *ToolDispatcher {
	return &ToolDispatcher{
		logger:   logger.With().Str("component", "tools").Logger(),
		session:  session,
		handlers: make(map[string]ToolFunc),
	}
}

// Register binds a handler to a tool name, replacing any previous binding.
func (d *ToolDispatcher) Register(name string, fn ToolFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = fn
}

// Dispatch fans a batch of calls out to their handlers. It returns
// immediately; responses go back over the session as each handler finishes,
// in whatever order that happens.
func (d *ToolDispatcher) Dispatch(ctx context.Context, calls []FunctionCall) {
	for _, call := range calls {
		go d.run(ctx, call)
	}
}

func (d *ToolDispatcher) run(ctx context.Context, call FunctionCall) {
	d.mu.RLock()
	fn, ok := d.handlers[call.Name]
	d.mu.RUnlock()

	var result map[string]any
	if !ok {
		d.logger.Warn().Str("tool", call.Name).Msg("Unknown tool requested")
		result = map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
	} else {
		res, err := fn(ctx, call.Args)
		if err != nil {
			d.logger.Error().Err(err).Str("tool", call.Name).Msg("Tool handler failed")
			result = map[string]any{"error": err.Error()}
		} else {
			result = res
			if result == nil {
				result = map[string]any{"result": "ok"}
			}
		}
	}

	if err := d.session.SendToolResponse(call.ID, call.Name, result); err != nil {
		d.logger.Warn().Err(err).Str("tool", call.Name).Str("id", call.ID).Msg("Tool response send failed")
	}
}

// objectSchema builds the JSON schema for a tool's parameters.
func objectSchema(props map[string]any, required ...string) json.RawMessage {
	schema := map[string]any{
		"type":       "OBJECT",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	raw, _ := json.Marshal(schema)
	return raw
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "STRING", "description": desc}
}

func numberProp(desc string) map[string]any {
	return map[string]any{"type": "NUMBER", "description": desc}
}

func boolProp(desc string) map[string]any {
	return map[string]any{"type": "BOOLEAN", "description": desc}
}

// DefaultToolDeclarations lists every tool the driver advertises at setup.
// Handlers are bound separately; an advertised tool with no handler answers
// with an error result.
func DefaultToolDeclarations() []FunctionDeclaration {
	return []FunctionDeclaration{
		{
			Name:        "generate_image",
			Description: "Generate an image from a text prompt and show it in the world.",
			Parameters:  objectSchema(map[string]any{"prompt": stringProp("What to draw")}, "prompt"),
		},
		{
			Name:        "web_search",
			Description: "Search the web and return a short summary of the results.",
			Parameters:  objectSchema(map[string]any{"query": stringProp("Search query")}, "query"),
		},
		{
			Name:        "toggle_command_window",
			Description: "Show or hide the on-screen command window.",
			Parameters:  objectSchema(map[string]any{"visible": boolProp("Desired visibility")}),
		},
		{
			Name:        "set_system_theme",
			Description: "Switch the environment color theme.",
			Parameters:  objectSchema(map[string]any{"theme": stringProp("Theme name, e.g. cyberpunk, frost, blood")}, "theme"),
		},
		{
			Name:        "set_robot_scale",
			Description: "Resize the robot. Values outside 0.5-2.0 are clamped.",
			Parameters:  objectSchema(map[string]any{"scale": numberProp("Uniform scale factor")}, "scale"),
		},
		{
			Name:        "set_robot_style",
			Description: "Change the robot's outfit style.",
			Parameters:  objectSchema(map[string]any{"style": stringProp("One of cyber, street, gold, stealth")}, "style"),
		},
		{
			Name:        "set_robot_color",
			Description: "Tint the robot's glow a specific color, overriding mood and theme.",
			Parameters:  objectSchema(map[string]any{"color": stringProp("Hex color like #39ff14, empty to clear")}),
		},
		{
			Name:        "set_art_style",
			Description: "Set the default art style used for generated images.",
			Parameters:  objectSchema(map[string]any{"style": stringProp("Art style name")}, "style"),
		},
		{
			Name:        "trigger_emote",
			Description: "Play a gesture animation on the robot.",
			Parameters:  objectSchema(map[string]any{"emote": stringProp("Gesture name, e.g. Wave, Dance, Celebrate")}, "emote"),
		},
		{
			Name:        "set_visual_mode",
			Description: "Enable or disable camera frame sharing.",
			Parameters:  objectSchema(map[string]any{"enabled": boolProp("Whether the model should see camera frames")}, "enabled"),
		},
	}
}
