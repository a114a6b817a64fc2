package types

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	size, err := ParseSize("100x50")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 100, Height: 50}, size)

	size, err = ParseSize(" 30X 40 ")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 30, Height: 40}, size)

	for _, in := range []string{"", "100", "100x50x2", "axb", "10x"} {
		_, err := ParseSize(in)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParseSize(%q): expected ErrInvalidArgument, got %v", in, err)
		}
	}
}

func TestSizeFromComponents(t *testing.T) {
	size, err := SizeFromComponents(100, 300)
	require.NoError(t, err)
	assert.Equal(t, "100x300", size.String())

	_, err = SizeFromComponents(1, 2, 3)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SizeFromComponents(1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBoxAt(t *testing.T) {
	b := BoxAt(10, 20, Size{Width: 100, Height: 50})
	assert.Equal(t, Box{X1: 10, Y1: 20, X2: 110, Y2: 70}, b)
	assert.Equal(t, 100, b.Width())
	assert.Equal(t, 50, b.Height())
	assert.Equal(t, image.Rect(10, 20, 110, 70), b.Rect())
}

func TestBoxOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want bool
	}{
		{"corner touch", Box{0, 0, 50, 50}, Box{50, 50, 100, 100}, false},
		{"edge touch", Box{0, 0, 50, 50}, Box{50, 0, 100, 50}, false},
		{"partial", Box{0, 0, 100, 100}, Box{90, 90, 150, 150}, true},
		{"apart", Box{0, 0, 50, 50}, Box{60, 60, 110, 110}, false},
		{"contained", Box{0, 0, 100, 100}, Box{10, 10, 20, 20}, true},
		{"identical", Box{5, 5, 15, 15}, Box{5, 5, 15, 15}, true},
		{"zero area pair", Box{10, 10, 10, 10}, Box{10, 10, 10, 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}
