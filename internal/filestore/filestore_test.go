package filestore

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestNew_CreatesTierDirs(t *testing.T) {
	root := t.TempDir()
	_, err := New(root, Options{})
	require.NoError(t, err)

	for _, dir := range []string{DirThumbs, DirPreviews, DirOriginals} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestWriteThumb_Downscales(t *testing.T) {
	s, err := New(t.TempDir(), Options{})
	require.NoError(t, err)

	art, err := s.WriteThumb("abc", testImage(1024, 512))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(DirThumbs, "abc.jpg"), art.RelPath)
	assert.Equal(t, DefaultThumbMaxSide, art.Width, "longer side clamped")
	assert.Equal(t, 128, art.Height, "aspect preserved")
	assert.Positive(t, art.Bytes)
	assert.True(t, s.Exists(art.RelPath))

	info, err := os.Stat(s.Abs(art.RelPath))
	require.NoError(t, err)
	assert.Equal(t, art.Bytes, info.Size())
}

func TestWritePreview_SmallImagePassesThrough(t *testing.T) {
	s, err := New(t.TempDir(), Options{})
	require.NoError(t, err)

	// Already within bound: dimensions are kept.
	art, err := s.WritePreview("small", testImage(800, 600))
	require.NoError(t, err)
	assert.Equal(t, 800, art.Width)
	assert.Equal(t, 600, art.Height)
}

func TestWritePreview_PortraitDownscale(t *testing.T) {
	s, err := New(t.TempDir(), Options{PreviewMaxSide: 400})
	require.NoError(t, err)

	art, err := s.WritePreview("tall", testImage(500, 2000))
	require.NoError(t, err)
	assert.Equal(t, 400, art.Height)
	assert.Equal(t, 100, art.Width)
}

func TestWriteOriginal_LosslessPNG(t *testing.T) {
	s, err := New(t.TempDir(), Options{})
	require.NoError(t, err)

	art, err := s.WriteOriginal("orig", testImage(3000, 2000))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(DirOriginals, "orig.png"), art.RelPath)
	assert.Equal(t, 3000, art.Width, "originals keep full dimensions")
	assert.Equal(t, 2000, art.Height)
	assert.True(t, s.Exists(art.RelPath))
}

func TestRemove_MissingIsFine(t *testing.T) {
	s, err := New(t.TempDir(), Options{})
	require.NoError(t, err)

	art, err := s.WriteThumb("gone", testImage(100, 100))
	require.NoError(t, err)

	s.Remove(art.RelPath, "", "thumbs/never-existed.jpg")
	assert.False(t, s.Exists(art.RelPath))
}

func TestWrite_RecreatesDeletedTierDir(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, Options{})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(root, DirThumbs)))

	art, err := s.WriteThumb("back", testImage(100, 100))
	require.NoError(t, err)
	assert.True(t, s.Exists(art.RelPath))
}

func TestExists(t *testing.T) {
	s, err := New(t.TempDir(), Options{})
	require.NoError(t, err)

	assert.False(t, s.Exists(""))
	assert.False(t, s.Exists("thumbs/nope.jpg"))
	assert.False(t, s.Exists(DirThumbs), "directories do not count")
}
