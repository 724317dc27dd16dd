package avatar

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NOLA9TECH-AI/G-Bot/internal/bus"
	"github.com/NOLA9TECH-AI/G-Bot/internal/gen"
	"github.com/NOLA9TECH-AI/G-Bot/internal/realtime"
)

// VisualToggler flips camera frame sharing; *realtime.Session implements it.
type VisualToggler interface {
	SetVisualMode(on bool)
}

// RegisterTools binds the standard tool set to this controller and the
// generation backend.
func RegisterTools(d *realtime.ToolDispatcher, c *Controller, session VisualToggler, images gen.ImageGenerator, search gen.Searcher) {
	d.Register("set_system_theme", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Theme string `json:"theme"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
		if err := c.SetTheme(p.Theme); err != nil {
			return nil, err
		}
		return map[string]any{"result": "theme set to " + p.Theme}, nil
	})

	d.Register("set_robot_scale", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Scale float64 `json:"scale"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
		applied := c.SetScale(p.Scale)
		return map[string]any{"result": fmt.Sprintf("scale set to %.2f", applied)}, nil
	})

	d.Register("set_robot_style", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Style string `json:"style"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
		if err := c.SetStyle(p.Style); err != nil {
			return nil, err
		}
		return map[string]any{"result": "style set to " + p.Style}, nil
	})

	d.Register("set_robot_color", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Color string `json:"color"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
		if err := c.SetUserTint(p.Color); err != nil {
			return nil, err
		}
		if p.Color == "" {
			return map[string]any{"result": "color override cleared"}, nil
		}
		return map[string]any{"result": "color set to " + p.Color}, nil
	})

	d.Register("set_art_style", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Style string `json:"style"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
		c.SetArtStyle(p.Style)
		return map[string]any{"result": "art style set to " + p.Style}, nil
	})

	d.Register("trigger_emote", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Emote string `json:"emote"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
		if err := c.TriggerEmote(p.Emote); err != nil {
			return nil, err
		}
		return map[string]any{"result": "playing " + p.Emote}, nil
	})

	d.Register("toggle_command_window", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Visible *bool `json:"visible"`
		}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, err
			}
		}
		if c.ToggleCommandWindow(p.Visible) {
			return map[string]any{"result": "command window shown"}, nil
		}
		return map[string]any{"result": "command window hidden"}, nil
	})

	d.Register("set_visual_mode", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
		session.SetVisualMode(p.Enabled)
		if p.Enabled {
			return map[string]any{"result": "visual mode on"}, nil
		}
		return map[string]any{"result": "visual mode off"}, nil
	})

	d.Register("generate_image", func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}
		if p.Prompt == "" {
			return nil, fmt.Errorf("empty prompt")
		}

		c.SetPainting(true)
		defer c.SetPainting(false)

		img, err := images.GenerateImage(ctx, p.Prompt, c.ArtStyle())
		if err != nil {
			return nil, err
		}
		c.events.Publish(bus.Event{Type: bus.EventTypeArtGenerated, Data: map[string]any{
			"prompt": p.Prompt,
			"bytes":  len(img),
			"image":  img,
		}})
		return map[string]any{"result": "image generated and displayed"}, nil
	})

	d.Register("web_search", func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
		var p struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(args, &p); err != nil {
			return nil, err
		}

		c.SetLoading(true)
		defer c.SetLoading(false)

		summary, err := search.Search(ctx, p.Query)
		if err != nil {
			// The model relays this to the user, so keep it speakable.
			return map[string]any{"result": "Search is unavailable right now."}, nil
		}
		return map[string]any{"result": summary}, nil
	})
}
