package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	return img
}

func newChatServer(t *testing.T, reply string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "test-model",
			"message": map[string]any{"role": "assistant", "content": reply},
			"done":    true,
		})
	}))
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("http://localhost:11434/api/chat", "llava")
	require.NoError(t, err)

	_, err = NewClient("localhost", "llava")
	assert.Error(t, err)

	_, err = NewClient("http://localhost:11434", "")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	var seen map[string]any
	srv := newChatServer(t, "  \"A solid red square.\"\n", &seen)
	defer srv.Close()

	c, err := NewClient(srv.URL, "llava", WithPrompt("caption please"))
	require.NoError(t, err)

	caption, err := c.Describe(context.Background(), createTestImage(40, 40))
	require.NoError(t, err)
	assert.Equal(t, "A solid red square.", caption)

	assert.Equal(t, "llava", seen["model"])
	assert.Equal(t, false, seen["stream"])
	messages, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "caption please", msg["content"])
	images, ok := msg["images"].([]any)
	require.True(t, ok)
	assert.Len(t, images, 1)
}

func TestDescribeEmptyReply(t *testing.T) {
	srv := newChatServer(t, "   ", nil)
	defer srv.Close()

	c, err := NewClient(srv.URL, "llava")
	require.NoError(t, err)
	_, err = c.Describe(context.Background(), createTestImage(10, 10))
	assert.Error(t, err)
}

func TestPrepareImageDownscales(t *testing.T) {
	c, err := NewClient("http://localhost:11434", "llava", WithMaxDim(64), WithQuality(70))
	require.NoError(t, err)

	data, err := c.prepareImage(createTestImage(256, 128))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestCleanCaption(t *testing.T) {
	assert.Equal(t, "a cat", cleanCaption("```a cat```"))
	assert.Equal(t, "first line", cleanCaption("first line\nsecond line"))
	assert.Equal(t, "", cleanCaption("  "))
}
