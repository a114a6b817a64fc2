// Package source loads images and serves them as sampler.ImageSource values.
package source

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-sampler/pkg/types"
)

// Loader decodes images from files, readers and URLs
type Loader struct {
	config Config
}

// Config holds configuration for image loading
type Config struct {
	SupportedFormats []string
	AutoOrientation  bool
	HTTPTimeout      time.Duration
	UserAgent        string
	// MaxBytes caps the encoded size read from a file, reader or URL
	MaxBytes int64
}

// DefaultMaxBytes is the encoded size limit of a default Loader
const DefaultMaxBytes = 64 << 20

// DefaultFormats lists the formats accepted by a default Loader
var DefaultFormats = []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"}

// NewLoader creates a Loader with default configuration
func NewLoader() *Loader {
	return &Loader{
		config: Config{
			SupportedFormats: DefaultFormats,
			AutoOrientation:  true,
			HTTPTimeout:      30 * time.Second,
			UserAgent:        "Image-Sampler/1.0",
			MaxBytes:         DefaultMaxBytes,
		},
	}
}

// NewLoaderWithConfig creates a Loader with custom configuration
func NewLoaderWithConfig(config Config) *Loader {
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 30 * time.Second
	}
	if len(config.SupportedFormats) == 0 {
		config.SupportedFormats = DefaultFormats
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	return &Loader{config: config}
}

// Load loads an image from a file path
func (l *Loader) Load(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid image path: %w", types.ErrInvalidArgument, err)
	}
	defer file.Close()

	return l.LoadFromReader(file)
}

// LoadFromReader decodes an image from r
func (l *Loader) LoadFromReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %w", types.ErrInvalidArgument, err)
	}
	if int64(len(data)) > l.config.MaxBytes {
		return nil, fmt.Errorf("%w: image data exceeds %d bytes", types.ErrInvalidArgument, l.config.MaxBytes)
	}
	return l.decode(data)
}

// LoadFromURL downloads and decodes an image over http or https
func (l *Loader) LoadFromURL(imageURL string) (*Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", types.ErrInvalidArgument, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported URL scheme: %s (only http and https are supported)",
			types.ErrInvalidArgument, parsedURL.Scheme)
	}

	client := &http.Client{Timeout: l.config.HTTPTimeout}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", types.ErrInvalidArgument, err)
	}
	if l.config.UserAgent != "" {
		req.Header.Set("User-Agent", l.config.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %w", types.ErrInvalidArgument, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: HTTP %s", types.ErrInvalidArgument, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: URL does not point to an image (Content-Type: %s)",
			types.ErrInvalidArgument, contentType)
	}

	return l.LoadFromReader(resp.Body)
}

// LoadSmart loads from a URL when source starts with http:// or https://, otherwise from a file
func (l *Loader) LoadSmart(source string) (*Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.LoadFromURL(source)
	}
	return l.Load(source)
}

func (l *Loader) decode(data []byte) (*Image, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// chai2010/webp understands extended webp files the x/image decoder rejects
		if _, _, _, werr := webp.GetInfo(data); werr != nil {
			return nil, fmt.Errorf("%w: failed to decode image: %w", types.ErrInvalidArgument, err)
		}
		format = "webp"
	}

	if !l.isFormatSupported(format) {
		return nil, fmt.Errorf("%w: unsupported image format: %s", types.ErrInvalidArgument, format)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(l.config.AutoOrientation))
	if err != nil {
		if format != "webp" {
			return nil, fmt.Errorf("%w: failed to decode image: %w", types.ErrInvalidArgument, err)
		}
		img, err = webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode webp image: %w", types.ErrInvalidArgument, err)
		}
	}

	return FromImage(img, format), nil
}

func (l *Loader) isFormatSupported(format string) bool {
	for _, supported := range l.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}
