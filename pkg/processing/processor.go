package processing

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/menta2k/image-sampler/pkg/types"
)

// Processor encodes samples and renders debug output
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// EncodeOptions controls output encoding
type EncodeOptions struct {
	Format   string
	Quality  int
	Lossless bool
}

// SupportedFormats lists the output formats accepted by Encode and SaveImage
var SupportedFormats = []string{"jpg", "jpeg", "png", "webp", "bmp", "tif", "tiff", "gif"}

// IsSupportedFormat reports whether format can be written
func IsSupportedFormat(format string) bool {
	format = strings.ToLower(format)
	for _, f := range SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Encode writes img to w in the requested format
func (p *Processor) Encode(w io.Writer, img image.Image, opts EncodeOptions) error {
	switch strings.ToLower(opts.Format) {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Lossless: opts.Lossless, Quality: float32(opts.Quality)})
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "bmp":
		return imaging.Encode(w, img, imaging.BMP)
	case "tif", "tiff":
		return imaging.Encode(w, img, imaging.TIFF)
	case "gif":
		return imaging.Encode(w, img, imaging.GIF)
	case "jpg", "jpeg", "":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path string, opts EncodeOptions) (err error) {
	if !IsSupportedFormat(opts.Format) {
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return p.Encode(f, img, opts)
}

// CreateDebugOverlay returns a copy of img with every box outlined in selection order
func (p *Processor) CreateDebugOverlay(img image.Image, boxes []types.Box) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	stroke := int(math.Max(1, 0.003*float64(min(w, h))))
	for i, box := range boxes {
		drawBox(nrgba, box, overlayColor(i), stroke)
	}
	return nrgba
}

var overlayPalette = []color.NRGBA{
	{255, 204, 0, 255},
	{0, 255, 0, 255},
	{0, 170, 255, 255},
	{255, 0, 0, 255},
	{255, 0, 255, 255},
}

func overlayColor(i int) color.NRGBA {
	return overlayPalette[i%len(overlayPalette)]
}

func drawBox(img *image.NRGBA, box types.Box, c color.NRGBA, stroke int) {
	if box.X2 <= box.X1 || box.Y2 <= box.Y1 {
		return
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, box.Y1+s, box.X1, box.X2, c)
		drawHLine(img, box.Y2-1-s, box.X1, box.X2, c)
		drawVLine(img, box.X1+s, box.Y1, box.Y2, c)
		drawVLine(img, box.X2-1-s, box.Y1, box.Y2, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
