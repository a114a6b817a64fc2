package types

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Dimensions is the pixel size of a loaded image
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size is the width and height of a single sample
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String formats the size as WxH
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// SizeFromComponents builds a Size from exactly two components (width, height).
func SizeFromComponents(components ...int) (Size, error) {
	if len(components) != 2 {
		return Size{}, fmt.Errorf("%w: sample size must be of width and height, got %d components",
			ErrInvalidArgument, len(components))
	}
	return Size{Width: components[0], Height: components[1]}, nil
}

// ParseSize parses a "WxH" string such as "100x50".
func ParseSize(s string) (Size, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	components := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Size{}, fmt.Errorf("%w: invalid sample size %q: %v", ErrInvalidArgument, s, err)
		}
		components = append(components, v)
	}
	return SizeFromComponents(components...)
}

// Box is a placed sample: top-left (X1, Y1) inclusive, bottom-right (X2, Y2) exclusive.
// Boxes are comparable and can be used as map keys.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// BoxAt returns the box of the given size with its top-left corner at (x, y)
func BoxAt(x, y int, size Size) Box {
	return Box{X1: x, Y1: y, X2: x + size.Width, Y2: y + size.Height}
}

// Width returns the horizontal extent of the box
func (b Box) Width() int {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box
func (b Box) Height() int {
	return b.Y2 - b.Y1
}

// Rect converts the box to an image.Rectangle
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Overlaps reports whether two boxes share a positive-area region.
// Boxes that only touch along an edge or corner do not overlap.
func (b Box) Overlaps(other Box) bool {
	return !(b.X2 <= other.X1 || other.X2 <= b.X1 || b.Y2 <= other.Y1 || other.Y2 <= b.Y1)
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.X1, b.Y1, b.X2, b.Y2)
}
