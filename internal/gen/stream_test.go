package gen

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamResponse_DeliversDeltasInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/generate", r.URL.Path)
		flusher := w.(http.Flusher)
		for _, line := range []string{
			`{"delta":"The answer "}`,
			`{"delta":"is 42.","sources":["https://example.com/a"]}`,
			``,
		} {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	var deltas []string
	var sources []string
	err := testClient(srv.URL).StreamResponse(context.Background(), "question", func(delta string, src []string) {
		deltas = append(deltas, delta)
		sources = append(sources, src...)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"The answer ", "is 42."}, deltas)
	assert.Equal(t, []string{"https://example.com/a"}, sources)
}

func TestStreamResponse_MidStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"delta":"partial"}`)
		fmt.Fprintln(w, `{"error":"model crashed"}`)
	}))
	defer srv.Close()

	var got string
	err := testClient(srv.URL).StreamResponse(context.Background(), "q", func(delta string, _ []string) {
		got += delta
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
	assert.Equal(t, "partial", got, "deltas before the error still arrive")
}

func TestStreamResponse_SkipsGarbageLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `not json`)
		fmt.Fprintln(w, `{"delta":"ok"}`)
	}))
	defer srv.Close()

	var got string
	err := testClient(srv.URL).StreamResponse(context.Background(), "q", func(delta string, _ []string) {
		got += delta
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestStreamResponse_RequiresBackend(t *testing.T) {
	err := testClient("").StreamResponse(context.Background(), "q", func(string, []string) {})
	assert.Error(t, err)
}
