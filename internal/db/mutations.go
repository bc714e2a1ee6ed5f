package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/halcyonlab/snapvault/pkg/models"
)

// Mutation layer. Every mutation runs under the store lock; multi-step
// mutations additionally run in an explicit transaction so partial
// writes are never observable. Mutations that change indexable text
// rewrite the item's full-text entry from current row state in the
// same transaction (delete-then-reinsert, no incremental diff).

// Insert writes a new item row and its full-text entry in one
// transaction. A duplicate id fails with ErrConstraint and writes
// nothing.
func (s *Store) Insert(ctx context.Context, it *models.CaptureItem) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	row := fromModelItem(it)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return refreshFTS(tx, row)
	})
	if isConstraintErr(err) {
		return fmt.Errorf("insert item %s: %w", it.ID, ErrConstraint)
	}
	return err
}

// SetPinned sets or clears the pin flag. PinnedAt is set iff pinned.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool, now time.Time) error {
	return s.mutate(ctx, id, now, false, func(row *Item) error {
		row.IsPinned = pinned
		if pinned {
			row.PinnedAtEpoch = now.UnixMilli()
		} else {
			row.PinnedAtEpoch = 0
		}
		return nil
	})
}

// UpdateNote replaces the free-text note and rebuilds the full-text
// entry.
func (s *Store) UpdateNote(ctx context.Context, id, note string, now time.Time) error {
	return s.mutate(ctx, id, now, true, func(row *Item) error {
		row.Note = note
		return nil
	})
}

// UpdateExternalPath records the user-chosen save location; the file
// base name is indexable, so the full-text entry is rebuilt.
func (s *Store) UpdateExternalPath(ctx context.Context, id, path string, now time.Time) error {
	return s.mutate(ctx, id, now, true, func(row *Item) error {
		row.ExternalPath = path
		return nil
	})
}

// UpdateOCR stores recognized text plus the recognition languages and
// stamps the OCR timestamp. Rebuilds the full-text entry.
func (s *Store) UpdateOCR(ctx context.Context, id, text string, languages []string, now time.Time) error {
	return s.mutate(ctx, id, now, true, func(row *Item) error {
		row.OCRText = text
		row.OCRLanguages = joinLanguages(languages)
		row.OCRAtEpoch = now.UnixMilli()
		return nil
	})
}

// UpdateOCRLanguagesOnly replaces the recognition language set without
// touching the recognized text. Languages are not indexable text, so
// the full-text entry is left alone.
func (s *Store) UpdateOCRLanguagesOnly(ctx context.Context, id string, languages []string, now time.Time) error {
	return s.mutate(ctx, id, now, false, func(row *Item) error {
		row.OCRLanguages = joinLanguages(languages)
		return nil
	})
}

// UpdateEmbedding stores the semantic cache for an item: model name,
// dimensionality, raw vector bytes and the hash of the text that
// produced the vector.
func (s *Store) UpdateEmbedding(ctx context.Context, id, model string, dim int, vector []byte, textHash string, now time.Time) error {
	return s.mutate(ctx, id, now, false, func(row *Item) error {
		row.EmbedModel = model
		row.EmbedDim = dim
		row.EmbedVector = vector
		row.EmbedTextHash = textHash
		row.EmbedUpdatedEpoch = now.UnixMilli()
		return nil
	})
}

// SetTags normalizes the input, replaces the association set,
// recomputes tags_cache and rebuilds the full-text entry, all in one
// transaction. Any step error rolls the whole mutation back.
func (s *Store) SetTags(ctx context.Context, id string, tags []string, now time.Time) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	normalized := models.NormalizeTags(tags)

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := loadItem(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Where("item_id = ?", id).Delete(&ItemTag{}).Error; err != nil {
			return err
		}

		for _, name := range normalized {
			tag, err := ensureTag(tx, name, now)
			if err != nil {
				return err
			}
			if err := tx.Create(&ItemTag{ItemID: id, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}

		row.TagsCache = models.JoinTagsCache(normalized)
		touchRow(row, now)
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		return refreshFTS(tx, row)
	})
}

// DeleteItems removes full-text entries and rows for the given ids in
// one transaction and returns the artifact paths that existed, so the
// caller can unlink the files. Tag associations go with the rows via
// cascade. Files are never deleted here: file deletion stays outside
// the transaction so a file-system failure cannot corrupt the store.
func (s *Store) DeleteItems(ctx context.Context, ids []string) ([]models.ArtifactPaths, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var paths []models.ArtifactPaths
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []Item
		if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			paths = append(paths, models.ArtifactPaths{
				ItemID:       rows[i].ID,
				ThumbPath:    rows[i].ThumbPath,
				PreviewPath:  rows[i].PreviewPath,
				OriginalPath: rows[i].OriginalPath,
			})
		}
		if err := tx.Exec("DELETE FROM items_fts WHERE item_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&Item{}).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ClearPreview reclaims only the preview tier: zeroes its path and
// size columns and returns the freed path and byte count for the
// caller to unlink. Used by partial eviction.
func (s *Store) ClearPreview(ctx context.Context, id string, now time.Time) (string, int64, error) {
	release, err := s.acquire()
	if err != nil {
		return "", 0, err
	}
	defer release()

	var freedPath string
	var freedBytes int64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := loadItem(tx, id)
		if err != nil {
			return err
		}
		freedPath = row.PreviewPath
		freedBytes = row.BytesPreview
		row.PreviewPath = ""
		row.PreviewW = 0
		row.PreviewH = 0
		row.BytesPreview = 0
		touchRow(row, now)
		return tx.Save(row).Error
	})
	if err != nil {
		return "", 0, err
	}
	return freedPath, freedBytes, nil
}

// mutate is the shared partial-update path: load row, apply fn, bump
// updated_at, save and optionally rebuild the full-text entry, all in
// one transaction under the store lock.
func (s *Store) mutate(ctx context.Context, id string, now time.Time, reindex bool, fn func(row *Item) error) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := loadItem(tx, id)
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
		touchRow(row, now)
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		if reindex {
			return refreshFTS(tx, row)
		}
		return nil
	})
}

// loadItem fetches one row or reports ErrNotFound.
func loadItem(tx *gorm.DB, id string) (*Item, error) {
	var row Item
	err := tx.First(&row, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ensureTag returns the tag row for name, creating it if missing.
func ensureTag(tx *gorm.DB, name string, now time.Time) (*Tag, error) {
	var tag Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	tag = Tag{Name: name, CreatedAtEpoch: now.UnixMilli()}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// touchRow bumps updated_at monotonically.
func touchRow(row *Item, now time.Time) {
	if epoch := now.UnixMilli(); epoch > row.UpdatedAtEpoch {
		row.UpdatedAtEpoch = epoch
		row.UpdatedAt = now.Format(time.RFC3339)
	}
}

// refreshFTS rewrites the item's full-text entry from current row
// state. Always delete-then-reinsert per item; an item with nothing
// indexable keeps no entry at all.
func refreshFTS(tx *gorm.DB, row *Item) error {
	if err := tx.Exec("DELETE FROM items_fts WHERE item_id = ?", row.ID).Error; err != nil {
		return err
	}
	content := toModelItem(row).IndexText()
	if content == "" {
		return nil
	}
	return tx.Exec("INSERT INTO items_fts (item_id, content) VALUES (?, ?)", row.ID, content).Error
}

// joinLanguages sorts, dedupes and space-joins a recognition language
// list.
func joinLanguages(languages []string) string {
	set := make(map[string]bool, len(languages))
	for _, l := range languages {
		l = strings.TrimSpace(l)
		if l != "" {
			set[l] = true
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return strings.Join(out, " ")
}
