package gen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	return NewClient(zerolog.Nop(), &Config{
		BaseURL: url,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestGenerateImage(t *testing.T) {
	img := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a neon skyline", req.Prompt)
		assert.Equal(t, "street", req.Style)

		json.NewEncoder(w).Encode(imageResponse{Image: base64.StdEncoding.EncodeToString(img)})
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).GenerateImage(context.Background(), "a neon skyline", "street")
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestGenerateImage_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(imageResponse{Error: "model overloaded"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GenerateImage(context.Background(), "x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGenerateImage_EmptyImageIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(imageResponse{Image: ""})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GenerateImage(context.Background(), "x", "")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "weather in lagos", req.Query)
		json.NewEncoder(w).Encode(searchResponse{Summary: "Sunny, 31C."})
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Search(context.Background(), "weather in lagos")
	require.NoError(t, err)
	assert.Equal(t, "Sunny, 31C.", got)
}

func TestPost_Non200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestIsAvailable(t *testing.T) {
	assert.False(t, testClient("").IsAvailable())
	assert.True(t, testClient("http://localhost:1").IsAvailable())
}
