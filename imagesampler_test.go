package imagesampler

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-sampler/pkg/processing"
	"github.com/menta2k/image-sampler/pkg/sampler"
	"github.com/menta2k/image-sampler/pkg/source"
	"github.com/menta2k/image-sampler/pkg/types"
)

// createTestImage creates a solid red image, saved to dir as test_image.jpeg
func createTestImage(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	path := filepath.Join(dir, "test_image.jpeg")
	require.NoError(t, imaging.Save(img, path))
	return path
}

type fakeDescriber struct {
	calls int
	err   error
}

func (f *fakeDescriber) Describe(ctx context.Context, img image.Image) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "a red square", nil
}

func TestNew(t *testing.T) {
	is := New()
	require.NotNil(t, is)
	assert.NotNil(t, is.loader)
	assert.NotNil(t, is.processor)
	assert.Equal(t, "1.0.0", GetVersion())
}

func TestLoadImageInvalidPath(t *testing.T) {
	_, err := New().LoadImage(filepath.Join(t.TempDir(), "nope.jpeg"))
	assert.ErrorIs(t, err, sampler.ErrInvalidArgument)
}

func TestSample(t *testing.T) {
	path := createTestImage(t, t.TempDir(), 500, 500)
	is := New()

	img, err := is.LoadImage(path)
	require.NoError(t, err)

	res, err := is.Sample(context.Background(), img, types.Size{Width: 50, Height: 50}, 3)
	require.NoError(t, err)
	assert.NotZero(t, res.Seed)
	assert.Equal(t, types.Dimensions{Width: 500, Height: 500}, res.Image)
	regions := res.Regions
	require.Len(t, regions, 3)
	for i, r := range regions {
		assert.Equal(t, image.Rect(0, 0, 50, 50), r.Image.Bounds())
		for j := i + 1; j < len(regions); j++ {
			assert.False(t, r.Box.Overlaps(regions[j].Box))
		}
	}
}

func TestSampleErrors(t *testing.T) {
	path := createTestImage(t, t.TempDir(), 500, 500)
	is := New()
	is.SetRetries(2)

	img, err := is.LoadImage(path)
	require.NoError(t, err)

	_, err = is.Sample(context.Background(), img, types.Size{Width: 600, Height: 600}, 3)
	assert.ErrorIs(t, err, sampler.ErrInvalidArgument)

	_, err = is.Sample(context.Background(), img, types.Size{Width: 100, Height: 100}, 30)
	assert.ErrorIs(t, err, sampler.ErrInsufficientSamples)
}

func TestProcessImageFile(t *testing.T) {
	dir := t.TempDir()
	path := createTestImage(t, dir, 300, 200)
	outDir := filepath.Join(dir, "out")

	is := NewWithConfig(source.Config{}, sampler.Config{Seed: 7, Workers: 2},
		processing.EncodeOptions{Format: "png"})
	d := &fakeDescriber{}
	is.SetDescriber(d)

	manifest, err := is.ProcessImageFile(context.Background(), path, outDir, types.Size{Width: 40, Height: 30}, 4)
	require.NoError(t, err)

	assert.Equal(t, types.Dimensions{Width: 300, Height: 200}, manifest.Image)
	assert.Equal(t, types.Size{Width: 40, Height: 30}, manifest.SampleSize)
	assert.EqualValues(t, 7, manifest.Seed)
	require.Len(t, manifest.Samples, 4)
	assert.Equal(t, 4, d.calls)

	for i, s := range manifest.Samples {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, "a red square", s.Description)
		assert.Equal(t, filepath.Join(outDir, "test_image_00"+string(rune('0'+i))+".png"), s.File)

		saved, err := imaging.Open(s.File)
		require.NoError(t, err)
		assert.Equal(t, 40, saved.Bounds().Dx())
		assert.Equal(t, 30, saved.Bounds().Dy())
	}
}

func TestProcessImageFileDescribeError(t *testing.T) {
	dir := t.TempDir()
	path := createTestImage(t, dir, 100, 100)

	is := New()
	is.SetDescriber(&fakeDescriber{err: errors.New("model offline")})
	_, err := is.ProcessImageFile(context.Background(), path, filepath.Join(dir, "out"), types.Size{Width: 10, Height: 10}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestProcessImageFileInsufficientWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := createTestImage(t, dir, 500, 500)
	outDir := filepath.Join(dir, "out")

	_, err := New().ProcessImageFile(context.Background(), path, outDir, types.Size{Width: 100, Height: 100}, 30)
	assert.ErrorIs(t, err, sampler.ErrInsufficientSamples)

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveSamplesRecordsDrawnSeed(t *testing.T) {
	dir := t.TempDir()
	path := createTestImage(t, dir, 200, 200)

	// No seed configured: the manifest must still carry the one that was used.
	is := NewWithConfig(source.Config{}, sampler.Config{Workers: 1}, processing.EncodeOptions{Format: "png"})
	manifest, err := is.ProcessImageFile(context.Background(), path, filepath.Join(dir, "out"), types.Size{Width: 20, Height: 20}, 3)
	require.NoError(t, err)
	require.NotZero(t, manifest.Seed)

	img, err := is.LoadImage(path)
	require.NoError(t, err)
	replay, err := NewWithConfig(source.Config{}, sampler.Config{Seed: manifest.Seed}, processing.EncodeOptions{Format: "png"}).
		Sample(context.Background(), img, types.Size{Width: 20, Height: 20}, 3)
	require.NoError(t, err)
	for i, r := range replay.Regions {
		assert.Equal(t, manifest.Samples[i].Box, r.Box)
	}
}

func TestSaveSamplesPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.v1.jpeg")
	require.NoError(t, os.Rename(createTestImage(t, dir, 100, 100), path))
	outDir := filepath.Join(dir, "out")

	is := NewWithConfig(source.Config{}, sampler.Config{Seed: 3}, processing.EncodeOptions{Format: "png"})
	is.SetPrefix("run.v2_")
	assert.Equal(t, "run.v2_cat.v1", is.OutputStem(path))

	manifest, err := is.ProcessImageFile(context.Background(), path, outDir, types.Size{Width: 10, Height: 10}, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "run.v2_cat.v1_000.png"), manifest.Samples[0].File)
	assert.Equal(t, filepath.Join(outDir, "run.v2_cat.v1_001.png"), manifest.Samples[1].File)
}
