// Package resolver finds the best existing artifact for an item for
// clipboard copy and reveal actions.
package resolver

import (
	"errors"
	"fmt"
	"os"

	"github.com/halcyonlab/snapvault/internal/filestore"
	"github.com/halcyonlab/snapvault/pkg/models"
)

// ErrNoArtifact means no candidate artifact exists on disk for the
// item.
var ErrNoArtifact = errors.New("no artifact available")

// Purpose selects the candidate order and whether the thumbnail tier
// is an acceptable last resort.
type Purpose string

const (
	// PurposeCopy wants the best copyable image: original, preview,
	// then the external file. Thumbnails are too small to copy.
	PurposeCopy Purpose = "copy"

	// PurposeCopyAnyTier is PurposeCopy with the thumbnail fallback
	// explicitly allowed.
	PurposeCopyAnyTier Purpose = "copy-any-tier"

	// PurposeReveal wants any existing path to reveal; the thumbnail
	// is always an eligible last resort.
	PurposeReveal Purpose = "reveal"
)

// Resolver checks candidates against the file store and the
// filesystem; the first existing candidate wins.
type Resolver struct {
	files *filestore.Store
}

// New creates a resolver over the tiered file store.
func New(files *filestore.Store) *Resolver {
	return &Resolver{files: files}
}

// Resolve returns the absolute path of the best existing artifact for
// the item under the given purpose, or ErrNoArtifact when none of the
// candidates exist on disk.
func (r *Resolver) Resolve(it *models.CaptureItem, purpose Purpose) (string, error) {
	if path, ok := r.tier(it.OriginalPath); ok {
		return path, nil
	}
	if path, ok := r.tier(it.PreviewPath); ok {
		return path, nil
	}
	if it.ExternalPath != "" && fileExists(it.ExternalPath) {
		return it.ExternalPath, nil
	}
	if purpose != PurposeCopy {
		if path, ok := r.tier(it.ThumbPath); ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("item %s: %w", it.ID, ErrNoArtifact)
}

// tier resolves a relative tier path and checks it exists.
func (r *Resolver) tier(rel string) (string, bool) {
	if rel == "" || !r.files.Exists(rel) {
		return "", false
	}
	return r.files.Abs(rel), true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
