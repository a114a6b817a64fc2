// Package sampler selects random, non-overlapping, fixed-size crops from an image.
//
// Selection is greedy: candidate positions are visited in a uniformly random
// order and a position is accepted when its box overlaps none of the boxes
// accepted before it. Rejected positions are never revisited, so a request can
// fail even when a valid arrangement exists.
package sampler

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/menta2k/image-sampler/pkg/types"
)

// ImageSource provides the dimensions of an image and crops regions out of it
type ImageSource interface {
	Dimensions() types.Dimensions
	Crop(box types.Box) (image.Image, error)
}

// Config holds configuration for a Sampler
type Config struct {
	// Seed makes the candidate permutation reproducible. Zero picks a random seed.
	Seed int64
	// Workers bounds concurrent crop extraction. Values below 1 mean sequential.
	Workers int
}

// Sampler draws non-overlapping samples from a single ImageSource
type Sampler struct {
	source ImageSource
	dims   types.Dimensions
	config Config
	seed   int64

	mu  sync.Mutex
	rng *rand.Rand
}

// Region is one extracted sample
type Region struct {
	Index int
	Box   types.Box
	Image image.Image
}

// New creates a Sampler with default configuration
func New(source ImageSource) *Sampler {
	return NewWithConfig(source, Config{Workers: 1})
}

// NewWithConfig creates a Sampler with custom configuration
func NewWithConfig(source ImageSource, config Config) *Sampler {
	seed := config.Seed
	for seed == 0 {
		seed = rand.Int64()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Sampler{
		source: source,
		dims:   source.Dimensions(),
		config: config,
		seed:   seed,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
}

// Dimensions returns the dimensions of the underlying image
func (s *Sampler) Dimensions() types.Dimensions {
	return s.dims
}

// Seed returns the seed of the candidate permutation. It is the configured
// seed, or the one drawn at construction when none was configured.
// A Sampler built with this seed and given the same calls repeats the same boxes.
func (s *Sampler) Seed() int64 {
	return s.seed
}

// ValidateParameters checks a sample request against the image dimensions.
// A zero-sized component is accepted.
func (s *Sampler) ValidateParameters(size types.Size, numSamples int) error {
	if size.Width < 0 || size.Height < 0 {
		return fmt.Errorf("%w: sample size must be positive integers, got %s", ErrInvalidArgument, size)
	}
	if size.Width > s.dims.Width || size.Height > s.dims.Height {
		return fmt.Errorf("%w: sample size %s exceeds image dimensions %dx%d",
			ErrInvalidArgument, size, s.dims.Width, s.dims.Height)
	}
	if numSamples <= 0 {
		return fmt.Errorf("%w: number of samples must be a positive integer, got %d", ErrInvalidArgument, numSamples)
	}
	return nil
}

// CandidateCount returns how many top-left positions fit a sample of the given size.
// The size must already be valid for the image.
func (s *Sampler) CandidateCount(size types.Size) int {
	return (s.dims.Width - size.Width + 1) * (s.dims.Height - size.Height + 1)
}

// Overlaps reports whether two boxes share a positive-area region
func Overlaps(a, b types.Box) bool {
	return a.Overlaps(b)
}

// SelectBoxes picks numSamples non-overlapping boxes of the given size.
// Boxes are returned in the order they were accepted. On failure no boxes are returned.
func (s *Sampler) SelectBoxes(size types.Size, numSamples int) ([]types.Box, error) {
	if err := s.ValidateParameters(size, numSamples); err != nil {
		return nil, err
	}

	// Candidates are indexed row-major over x then y.
	rows := s.dims.Height - size.Height + 1
	n := s.CandidateCount(size)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	selected := make([]types.Box, 0, numSamples)
	// Fisher-Yates drawn one position at a time, so stopping early still
	// consumes a prefix of a uniform permutation.
	for i := 0; i < n && len(selected) < numSamples; i++ {
		j := i + s.rng.IntN(n-i)
		order[i], order[j] = order[j], order[i]

		c := order[i]
		box := types.BoxAt(c/rows, c%rows, size)
		if !overlapsAny(box, selected) {
			selected = append(selected, box)
		}
	}

	if len(selected) < numSamples {
		return nil, fmt.Errorf("%w: placed %d of %d samples of size %s from %d candidate positions",
			ErrInsufficientSamples, len(selected), numSamples, size, n)
	}
	return selected, nil
}

// Sample selects numSamples non-overlapping boxes and crops each one from the image.
// Regions are returned in selection order.
func (s *Sampler) Sample(ctx context.Context, size types.Size, numSamples int) ([]Region, error) {
	boxes, err := s.SelectBoxes(size, numSamples)
	if err != nil {
		return nil, err
	}
	return s.Extract(ctx, boxes)
}

// Extract crops each box from the image, preserving the order of boxes
func (s *Sampler) Extract(ctx context.Context, boxes []types.Box) ([]Region, error) {
	regions := make([]Region, len(boxes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, box := range boxes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := s.source.Crop(box)
			if err != nil {
				return fmt.Errorf("failed to crop sample %d %s: %w", i, box, err)
			}
			regions[i] = Region{Index: i, Box: box, Image: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return regions, nil
}

func overlapsAny(box types.Box, selected []types.Box) bool {
	for _, other := range selected {
		if box.Overlaps(other) {
			return true
		}
	}
	return false
}
