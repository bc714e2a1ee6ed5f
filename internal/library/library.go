// Package library wires the tiered file store, the relational store,
// the search syntax parser and the semantic reranker into the public
// operation surface the application uses.
package library

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/halcyonlab/snapvault/internal/config"
	"github.com/halcyonlab/snapvault/internal/db"
	"github.com/halcyonlab/snapvault/internal/filestore"
	"github.com/halcyonlab/snapvault/internal/lifecycle"
	"github.com/halcyonlab/snapvault/internal/rerank"
	"github.com/halcyonlab/snapvault/internal/resolver"
	"github.com/halcyonlab/snapvault/internal/searchquery"
	"github.com/halcyonlab/snapvault/internal/watcher"
	"github.com/halcyonlab/snapvault/pkg/models"
)

// DBFileName is the relational store file inside the library root.
const DBFileName = "snapvault.db"

// Library is the capture library: one root directory holding the
// relational store file and the three artifact tiers.
type Library struct {
	cfg      *config.Config
	store    *db.Store
	files    *filestore.Store
	resolver *resolver.Resolver
	reranker *rerank.Reranker
	sweeper  *lifecycle.Sweeper
	watch    *watcher.Watcher
}

// Open opens or creates the library under root. embedder may be nil;
// semantic reranking then degrades to a no-op.
func Open(root string, cfg *config.Config, embedder rerank.Embedder) (*Library, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	files, err := filestore.New(root, filestore.Options{
		ThumbMaxSide:   cfg.ThumbMaxSide,
		PreviewMaxSide: cfg.PreviewMaxSide,
		JPEGQuality:    cfg.JPEGQuality,
	})
	if err != nil {
		return nil, err
	}

	store, err := db.NewStore(db.Config{
		Path:     filepath.Join(root, DBFileName),
		MaxConns: cfg.MaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		return nil, err
	}

	lib := &Library{
		cfg:      cfg,
		store:    store,
		files:    files,
		resolver: resolver.New(files),
		reranker: rerank.New(embedder, store),
		sweeper:  lifecycle.New(store, files),
	}

	w, err := watcher.New(root, []string{filestore.DirThumbs, filestore.DirPreviews, filestore.DirOriginals}, files)
	if err != nil {
		log.Warn().Err(err).Msg("Library root watcher unavailable")
	} else {
		lib.watch = w
		_ = w.Start()
	}

	return lib, nil
}

// Close releases the library. Pending background embedding writes are
// drained first so nothing lands on a closed store.
func (l *Library) Close() error {
	if l.watch != nil {
		_ = l.watch.Stop()
	}
	l.reranker.Wait()
	return l.store.Close()
}

// Store exposes the relational store for direct mutations (pin, tags,
// note, OCR, embedding updates).
func (l *Library) Store() *db.Store { return l.store }

// Files exposes the tiered file store.
func (l *Library) Files() *filestore.Store { return l.files }

// Insert writes the item's artifacts first and then the row: if an
// artifact write fails, no row is inserted; if the row insert fails,
// the just-written artifacts are removed best-effort so no orphan
// files remain.
func (l *Library) Insert(ctx context.Context, it *models.CaptureItem, frame image.Image) error {
	if it.ID == "" {
		it.ID = models.NewItemID()
	}
	it.Touch(time.Now())

	thumb, err := l.files.WriteThumb(it.ID, frame)
	if err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	it.ThumbPath = thumb.RelPath
	it.ThumbW, it.ThumbH = thumb.Width, thumb.Height
	it.BytesThumb = thumb.Bytes

	written := []string{thumb.RelPath}
	cleanup := func() { l.files.Remove(written...) }

	if l.cfg.StorePreviews {
		preview, err := l.files.WritePreview(it.ID, frame)
		if err != nil {
			cleanup()
			return fmt.Errorf("write preview: %w", err)
		}
		it.PreviewPath = preview.RelPath
		it.PreviewW, it.PreviewH = preview.Width, preview.Height
		it.BytesPreview = preview.Bytes
		written = append(written, preview.RelPath)
	}

	if l.cfg.StoreOriginals {
		original, err := l.files.WriteOriginal(it.ID, frame)
		if err != nil {
			cleanup()
			return fmt.Errorf("write original: %w", err)
		}
		it.OriginalPath = original.RelPath
		it.OriginalW, it.OriginalH = original.Width, original.Height
		it.BytesOriginal = original.Bytes
		written = append(written, original.RelPath)
	}

	if err := l.store.Insert(ctx, it); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Search parses raw against the library's current app and tag
// vocabularies, runs the structured query and optionally reranks the
// page semantically when residual free text remains.
func (l *Library) Search(ctx context.Context, raw string, limit, offset int) ([]*models.CaptureItem, error) {
	apps, err := l.store.KnownApps(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := l.store.KnownTags(ctx)
	if err != nil {
		return nil, err
	}

	q := searchquery.Parse(raw, searchquery.Context{Apps: apps, Tags: tags, Now: time.Now()})
	if q.Text != "" && q.Sort == "" {
		q.Sort = models.SortRelevance
	}
	return l.Query(ctx, q, limit, offset)
}

// Query runs a structured query directly.
func (l *Library) Query(ctx context.Context, q models.Query, limit, offset int) ([]*models.CaptureItem, error) {
	items, err := l.store.List(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	if l.cfg.SemanticSearch && q.Text != "" && l.reranker.Available() {
		items = l.reranker.Rerank(ctx, q.Text, items, q.Sort == models.SortRelevance)
	}
	return items, nil
}

// Delete removes items from the store, then best-effort unlinks the
// returned artifact files. Row deletion is the authoritative step; a
// file cleanup failure does not resurrect rows.
func (l *Library) Delete(ctx context.Context, ids []string) ([]models.ArtifactPaths, error) {
	paths, err := l.store.DeleteItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		l.files.Remove(p.Relative()...)
	}
	return paths, nil
}

// Sweep runs one eviction sweep with the given policy.
func (l *Library) Sweep(ctx context.Context, policy models.EvictionPolicy) (models.EvictionReport, error) {
	return l.sweeper.Sweep(ctx, policy, time.Now())
}

// Resolve finds the best existing artifact path for the item.
func (l *Library) Resolve(it *models.CaptureItem, purpose resolver.Purpose) (string, error) {
	return l.resolver.Resolve(it, purpose)
}

// Stats returns library counters and byte totals.
func (l *Library) Stats(ctx context.Context) (*models.LibraryStats, error) {
	return l.store.Stats(ctx)
}

// Facets returns per-app and per-tag counts for faceted browsing.
func (l *Library) Facets(ctx context.Context) (*models.Facets, error) {
	return l.store.Facets(ctx)
}
