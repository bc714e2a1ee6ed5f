// Package filestore owns the three artifact tiers on disk: thumbnails,
// previews and originals under one library root.
package filestore

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// Tier directory names under the library root.
const (
	DirThumbs    = "thumbs"
	DirPreviews  = "previews"
	DirOriginals = "originals"
)

// Default encoding bounds. Thumbnails stay small enough for grid
// views; previews are close to screen size.
const (
	DefaultThumbMaxSide   = 256
	DefaultPreviewMaxSide = 1600
	DefaultJPEGQuality    = 82
)

// Artifact describes one written tier file: the path relative to the
// library root plus the three numbers the relational store persists.
type Artifact struct {
	RelPath string
	Width   int
	Height  int
	Bytes   int64
}

// Store writes and removes tier files. All paths it hands out are
// relative to the root so the library stays relocatable.
type Store struct {
	root           string
	thumbMaxSide   int
	previewMaxSide int
	jpegQuality    int
}

// Options tunes encoding bounds; zero values take the defaults.
type Options struct {
	ThumbMaxSide   int
	PreviewMaxSide int
	JPEGQuality    int
}

// New creates the store rooted at root, creating the tier directories
// on first use.
func New(root string, opts Options) (*Store, error) {
	s := &Store{
		root:           root,
		thumbMaxSide:   opts.ThumbMaxSide,
		previewMaxSide: opts.PreviewMaxSide,
		jpegQuality:    opts.JPEGQuality,
	}
	if s.thumbMaxSide <= 0 {
		s.thumbMaxSide = DefaultThumbMaxSide
	}
	if s.previewMaxSide <= 0 {
		s.previewMaxSide = DefaultPreviewMaxSide
	}
	if s.jpegQuality <= 0 {
		s.jpegQuality = DefaultJPEGQuality
	}
	if err := s.EnsureDirs(); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureDirs creates the tier directories if missing.
func (s *Store) EnsureDirs() error {
	for _, dir := range []string{DirThumbs, DirPreviews, DirOriginals} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o700); err != nil {
			return fmt.Errorf("create %s directory: %w", dir, err)
		}
	}
	return nil
}

// Root returns the library root directory.
func (s *Store) Root() string { return s.root }

// Abs resolves a relative tier path against the root.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.root, rel)
}

// Exists reports whether the relative tier path is present on disk.
func (s *Store) Exists(rel string) bool {
	if rel == "" {
		return false
	}
	info, err := os.Stat(s.Abs(rel))
	return err == nil && !info.IsDir()
}

// WriteThumb downscales img to the thumbnail bound and re-encodes it
// as JPEG under thumbs/<id>.jpg.
func (s *Store) WriteThumb(id string, img image.Image) (Artifact, error) {
	return s.writeScaled(DirThumbs, id, img, s.thumbMaxSide)
}

// WritePreview downscales img to the preview bound and re-encodes it
// as JPEG under previews/<id>.jpg.
func (s *Store) WritePreview(id string, img image.Image) (Artifact, error) {
	return s.writeScaled(DirPreviews, id, img, s.previewMaxSide)
}

// WriteOriginal stores img losslessly as PNG under originals/<id>.png.
func (s *Store) WriteOriginal(id string, img image.Image) (Artifact, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Artifact{}, fmt.Errorf("encode original: %w", err)
	}
	rel := filepath.Join(DirOriginals, id+".png")
	if err := s.writeFile(rel, buf.Bytes()); err != nil {
		return Artifact{}, err
	}
	b := img.Bounds()
	return Artifact{RelPath: rel, Width: b.Dx(), Height: b.Dy(), Bytes: int64(buf.Len())}, nil
}

// Remove best-effort unlinks relative tier paths. A missing file is
// success; other failures are logged and not returned.
func (s *Store) Remove(rels ...string) {
	for _, rel := range rels {
		if rel == "" {
			continue
		}
		err := os.Remove(s.Abs(rel))
		if err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", rel).Msg("Failed to remove artifact file")
		}
	}
}

// writeScaled downscales preserving aspect to maxSide and encodes as
// JPEG at the fixed quality.
func (s *Store) writeScaled(dir, id string, img image.Image, maxSide int) (Artifact, error) {
	scaled := scaleDown(img, maxSide)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: s.jpegQuality}); err != nil {
		return Artifact{}, fmt.Errorf("encode %s: %w", dir, err)
	}
	rel := filepath.Join(dir, id+".jpg")
	if err := s.writeFile(rel, buf.Bytes()); err != nil {
		return Artifact{}, err
	}
	b := scaled.Bounds()
	return Artifact{RelPath: rel, Width: b.Dx(), Height: b.Dy(), Bytes: int64(buf.Len())}, nil
}

// writeFile writes data under the root, recreating tier directories
// if something removed them since startup.
func (s *Store) writeFile(rel string, data []byte) error {
	abs := s.Abs(rel)
	if err := os.WriteFile(abs, data, 0o600); err != nil {
		if os.IsNotExist(err) {
			if err := s.EnsureDirs(); err != nil {
				return err
			}
			err = os.WriteFile(abs, data, 0o600)
			if err == nil {
				return nil
			}
		}
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// scaleDown resizes img so its longer side is at most maxSide,
// preserving aspect ratio. Images already within the bound are
// returned as-is (still re-encoded by the caller).
func scaleDown(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	var tw, th int
	if w >= h {
		tw = maxSide
		th = h * maxSide / w
	} else {
		th = maxSide
		tw = w * maxSide / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
