// Package imagesampler extracts random, non-overlapping, fixed-size samples from an image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		imagesampler "github.com/menta2k/image-sampler"
//		"github.com/menta2k/image-sampler/pkg/types"
//	)
//
//	func main() {
//		is := imagesampler.New()
//
//		img, err := is.LoadImage("images/cat.jpeg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		res, err := is.Sample(context.Background(), img, types.Size{Width: 100, Height: 50}, 3)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		for _, r := range res.Regions {
//			fmt.Println(r.Index, r.Box)
//		}
//	}
//
// The package consists of these components:
//
// 1. Sampler (pkg/sampler): validation, random candidate order and greedy non-overlapping selection
// 2. Source (pkg/source): image loading from files, readers and URLs, cropping by box
// 3. Processing (pkg/processing): saving samples, debug overlays and run manifests
// 4. Describe (pkg/describe): optional captions from an Ollama vision model
//
// Selection never backtracks. A request that cannot be met fails with
// sampler.ErrInsufficientSamples and returns no samples; bad input fails with
// sampler.ErrInvalidArgument before any random work starts.
package imagesampler

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/image-sampler/internal/utils"
	"github.com/menta2k/image-sampler/pkg/processing"
	"github.com/menta2k/image-sampler/pkg/sampler"
	"github.com/menta2k/image-sampler/pkg/source"
	"github.com/menta2k/image-sampler/pkg/types"
)

// Version of the image sampler library
const Version = "1.0.0"

var _ sampler.ImageSource = (*source.Image)(nil)

// Describer captions a single sample
type Describer interface {
	Describe(ctx context.Context, img image.Image) (string, error)
}

// ImageSampler provides a high-level interface for loading, sampling and saving
type ImageSampler struct {
	loader        *source.Loader
	processor     *processing.Processor
	samplerConfig sampler.Config
	output        processing.EncodeOptions
	retries       int
	prefix        string
	describer     Describer
}

// New creates a new ImageSampler with default configuration
func New() *ImageSampler {
	return &ImageSampler{
		loader:        source.NewLoader(),
		processor:     processing.NewProcessor(),
		samplerConfig: sampler.Config{Workers: 4},
		output:        processing.EncodeOptions{Format: "jpg", Quality: 90},
	}
}

// NewWithConfig creates a new ImageSampler with custom configuration
func NewWithConfig(loaderConfig source.Config, samplerConfig sampler.Config, output processing.EncodeOptions) *ImageSampler {
	return &ImageSampler{
		loader:        source.NewLoaderWithConfig(loaderConfig),
		processor:     processing.NewProcessor(),
		samplerConfig: samplerConfig,
		output:        output,
	}
}

// SetRetries sets how many extra attempts Sample makes after ErrInsufficientSamples.
// Each attempt draws a fresh permutation.
func (is *ImageSampler) SetRetries(retries int) {
	is.retries = max(retries, 0)
}

// SetPrefix sets a prefix for the names of saved samples
func (is *ImageSampler) SetPrefix(prefix string) {
	is.prefix = prefix
}

// SetDescriber enables captions for saved samples
func (is *ImageSampler) SetDescriber(d Describer) {
	is.describer = d
}

// LoadImage loads an image from a file path or http(s) URL
func (is *ImageSampler) LoadImage(path string) (*source.Image, error) {
	return is.loader.LoadSmart(path)
}

// NewSampler returns a sampler over img using the configured sampler settings
func (is *ImageSampler) NewSampler(img sampler.ImageSource) *sampler.Sampler {
	return sampler.NewWithConfig(img, is.samplerConfig)
}

// Result holds the samples of one Sample call and the seed that produced them
type Result struct {
	Image   types.Dimensions
	Size    types.Size
	Seed    int64
	Regions []sampler.Region
}

// Sample draws numSamples non-overlapping samples of the given size from img.
// Result.Seed reproduces the run when passed back as sampler.Config.Seed with
// the same retry setting.
func (is *ImageSampler) Sample(ctx context.Context, img sampler.ImageSource, size types.Size, numSamples int) (*Result, error) {
	s := is.NewSampler(img)

	var err error
	for attempt := 0; attempt <= is.retries; attempt++ {
		var regions []sampler.Region
		regions, err = s.Sample(ctx, size, numSamples)
		if err == nil {
			return &Result{Image: s.Dimensions(), Size: size, Seed: s.Seed(), Regions: regions}, nil
		}
		if !errors.Is(err, sampler.ErrInsufficientSamples) {
			return nil, err
		}
	}
	return nil, err
}

// SaveSamples writes each region to outputDir and returns a manifest of what was written.
// Files are named after the base name of sourceName, behind the configured prefix.
func (is *ImageSampler) SaveSamples(ctx context.Context, sourceName, outputDir string, res *Result) (processing.Manifest, error) {
	manifest := processing.Manifest{
		Source:     sourceName,
		Image:      res.Image,
		SampleSize: res.Size,
		Seed:       res.Seed,
		Samples:    make([]processing.ManifestEntry, 0, len(res.Regions)),
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		return manifest, fmt.Errorf("failed to create output directory: %w", err)
	}

	stem := is.OutputStem(sourceName)
	for _, r := range res.Regions {
		path := utils.SampleFilename(stem, outputDir, r.Index, is.output.Format)
		if err := is.processor.SaveImage(r.Image, path, is.output); err != nil {
			return manifest, fmt.Errorf("failed to save sample %d: %w", r.Index, err)
		}

		entry := processing.ManifestEntry{Index: r.Index, Box: r.Box, File: path}
		if is.describer != nil {
			caption, err := is.describer.Describe(ctx, r.Image)
			if err != nil {
				return manifest, fmt.Errorf("failed to describe sample %d: %w", r.Index, err)
			}
			entry.Description = caption
		}
		manifest.Samples = append(manifest.Samples, entry)
	}

	return manifest, nil
}

// OutputStem returns the file name stem for outputs derived from sourceName,
// e.g. "run1_cat" for prefix "run1_" and "images/cat.jpeg"
func (is *ImageSampler) OutputStem(sourceName string) string {
	return utils.SampleStem(is.prefix, utils.BaseName(sourceName))
}

// ProcessImageFile loads inputPath, samples it and saves the samples to outputDir
func (is *ImageSampler) ProcessImageFile(ctx context.Context, inputPath, outputDir string, size types.Size, numSamples int) (processing.Manifest, error) {
	img, err := is.LoadImage(inputPath)
	if err != nil {
		return processing.Manifest{}, fmt.Errorf("failed to load image: %w", err)
	}

	res, err := is.Sample(ctx, img, size, numSamples)
	if err != nil {
		return processing.Manifest{}, fmt.Errorf("sampling failed: %w", err)
	}

	return is.SaveSamples(ctx, inputPath, outputDir, res)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
