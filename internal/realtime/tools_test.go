package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponder struct {
	mu        sync.Mutex
	responses []toolResponse
	done      chan struct{}
	expect    int
}

type toolResponse struct {
	id     string
	name   string
	result map[string]any
}

func newFakeResponder(expect int) *fakeResponder {
	return &fakeResponder{done: make(chan struct{}), expect: expect}
}

func (f *fakeResponder) SendToolResponse(id, name string, result map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, toolResponse{id: id, name: name, result: result})
	if len(f.responses) == f.expect {
		close(f.done)
	}
	return nil
}

func (f *fakeResponder) wait(t *testing.T) []toolResponse {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tool responses")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]toolResponse(nil), f.responses...)
}

func TestDispatch_ExactlyOneResponsePerCall(t *testing.T) {
	const n = 8
	resp := newFakeResponder(n)
	d := NewToolDispatcher(resp, zerolog.Nop())
	d.Register("echo", func(_ context.Context, args json.RawMessage) (map[string]any, error) {
		return map[string]any{"args": string(args)}, nil
	})

	calls := make([]FunctionCall, n)
	for i := range calls {
		calls[i] = FunctionCall{ID: fmt.Sprintf("call-%d", i), Name: "echo"}
	}
	d.Dispatch(context.Background(), calls)

	got := resp.wait(t)
	seen := map[string]int{}
	for _, r := range got {
		seen[r.id]++
	}
	require.Len(t, seen, n)
	for id, count := range seen {
		assert.Equal(t, 1, count, "call %s answered more than once", id)
	}
}

func TestDispatch_SlowCallDoesNotBlockFastOne(t *testing.T) {
	resp := newFakeResponder(2)
	d := NewToolDispatcher(resp, zerolog.Nop())

	release := make(chan struct{})
	d.Register("slow", func(context.Context, json.RawMessage) (map[string]any, error) {
		<-release
		return map[string]any{"result": "slow"}, nil
	})
	d.Register("fast", func(context.Context, json.RawMessage) (map[string]any, error) {
		return map[string]any{"result": "fast"}, nil
	})

	d.Dispatch(context.Background(), []FunctionCall{
		{ID: "s", Name: "slow"},
		{ID: "f", Name: "fast"},
	})

	// The fast call answers while the slow one is still held.
	require.Eventually(t, func() bool {
		resp.mu.Lock()
		defer resp.mu.Unlock()
		return len(resp.responses) == 1 && resp.responses[0].id == "f"
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	got := resp.wait(t)
	assert.Equal(t, "s", got[1].id)
}

func TestDispatch_UnknownToolAnswersWithError(t *testing.T) {
	resp := newFakeResponder(1)
	d := NewToolDispatcher(resp, zerolog.Nop())

	d.Dispatch(context.Background(), []FunctionCall{{ID: "x", Name: "launch_missiles"}})

	got := resp.wait(t)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].result["error"], "unknown tool")
}

func TestDispatch_HandlerErrorBecomesErrorResult(t *testing.T) {
	resp := newFakeResponder(1)
	d := NewToolDispatcher(resp, zerolog.Nop())
	d.Register("broken", func(context.Context, json.RawMessage) (map[string]any, error) {
		return nil, fmt.Errorf("backend down")
	})

	d.Dispatch(context.Background(), []FunctionCall{{ID: "b", Name: "broken"}})

	got := resp.wait(t)
	assert.Equal(t, "backend down", got[0].result["error"])
}

func TestDispatch_NilResultDefaultsToOK(t *testing.T) {
	resp := newFakeResponder(1)
	d := NewToolDispatcher(resp, zerolog.Nop())
	d.Register("fire_and_forget", func(context.Context, json.RawMessage) (map[string]any, error) {
		return nil, nil
	})

	d.Dispatch(context.Background(), []FunctionCall{{ID: "ff", Name: "fire_and_forget"}})

	got := resp.wait(t)
	assert.Equal(t, "ok", got[0].result["result"])
}

func TestDefaultToolDeclarations_CoverStandardSet(t *testing.T) {
	decls := DefaultToolDeclarations()

	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		names[d.Name] = true
		assert.NotEmpty(t, d.Description, "%s needs a description", d.Name)
	}
	for _, want := range []string{
		"generate_image", "web_search", "toggle_command_window",
		"set_system_theme", "set_robot_scale", "set_robot_style",
		"set_robot_color", "set_art_style", "trigger_emote", "set_visual_mode",
	} {
		assert.True(t, names[want], "missing declaration %s", want)
	}
}
