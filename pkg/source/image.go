package source

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-sampler/pkg/types"
)

// Image is a decoded image that can be sampled
type Image struct {
	img    image.Image
	format string
}

// FromImage wraps an already decoded image
func FromImage(img image.Image, format string) *Image {
	return &Image{img: img, format: format}
}

// Image returns the decoded image
func (i *Image) Image() image.Image {
	return i.img
}

// Format returns the name of the format the image was decoded from, if known
func (i *Image) Format() string {
	return i.format
}

// Dimensions returns the width and height of the image
func (i *Image) Dimensions() types.Dimensions {
	b := i.img.Bounds()
	return types.Dimensions{Width: b.Dx(), Height: b.Dy()}
}

// Crop copies the pixels inside box into a new image whose bounds start at (0, 0).
// Box coordinates are relative to the top-left corner of the image.
func (i *Image) Crop(box types.Box) (image.Image, error) {
	d := i.Dimensions()
	if box.X1 < 0 || box.Y1 < 0 || box.X2 > d.Width || box.Y2 > d.Height || box.X2 < box.X1 || box.Y2 < box.Y1 {
		return nil, fmt.Errorf("%w: box %s outside image %dx%d", types.ErrInvalidArgument, box, d.Width, d.Height)
	}
	rect := box.Rect().Add(i.img.Bounds().Min)
	return imaging.Crop(i.img, rect), nil
}
