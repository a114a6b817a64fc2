// Package describe captions samples with an Ollama vision model.
package describe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"
)

// DefaultPrompt asks for a single short caption
const DefaultPrompt = `Describe this image crop in one short, neutral sentence (at most 15 words). No markdown, no quotes.`

// DefaultTimeout applies when the caller's context has no deadline
const DefaultTimeout = 300 * time.Second

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	model   string
	prompt  string
	maxDim  int
	quality int
}

// Option configures a Client
type Option func(*Client)

// WithPrompt overrides DefaultPrompt
func WithPrompt(prompt string) Option {
	return func(c *Client) { c.prompt = prompt }
}

// WithMaxDim downscales images whose long side exceeds px before sending. 0 sends the original.
func WithMaxDim(px int) Option {
	return func(c *Client) { c.maxDim = px }
}

// WithQuality sets the JPEG quality of images sent to the model
func WithQuality(q int) Option {
	return func(c *Client) { c.quality = q }
}

// NewClient creates a new Ollama client for the server at ollamaURL
func NewClient(ollamaURL, model string, opts ...Option) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", ollamaURL)
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	// Drop any path such as /api/chat; the SDK adds its own
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	c := &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		prompt:  DefaultPrompt,
		maxDim:  768,
		quality: 85,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Describe returns a one-line caption for img
func (c *Client) Describe(ctx context.Context, img image.Image) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	imgBytes, err := c.prepareImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: c.prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
	}

	var content strings.Builder
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	caption := cleanCaption(content.String())
	if caption == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return caption, nil
}

func (c *Client) prepareImage(img image.Image) ([]byte, error) {
	if c.maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > c.maxDim || h > c.maxDim {
			if w >= h {
				img = imaging.Resize(img, c.maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, c.maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cleanCaption strips code fences, surrounding quotes and extra lines
func cleanCaption(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.Trim(raw, `"' `)
	return strings.TrimSpace(raw)
}
