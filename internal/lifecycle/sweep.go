// Package lifecycle implements the eviction/retention policy: a sweep
// deletes unpinned items to satisfy age, count and byte budgets,
// reclaiming the preview tier before resorting to full deletion.
package lifecycle

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/halcyonlab/snapvault/internal/db"
	"github.com/halcyonlab/snapvault/internal/filestore"
	"github.com/halcyonlab/snapvault/pkg/models"
)

// Sweeper runs eviction sweeps against the relational store and the
// tiered file store in lockstep. A sweep is synchronous for its
// duration; scheduling and re-entrancy are the caller's concern.
type Sweeper struct {
	store *db.Store
	files *filestore.Store
}

// New creates a sweeper over the given stores.
func New(store *db.Store, files *filestore.Store) *Sweeper {
	return &Sweeper{store: store, files: files}
}

// Sweep applies the policy in three steps: (a) delete unpinned items
// past the retention window, (b) delete oldest unpinned items over the
// count cap, (c) under byte pressure reclaim preview tiers from the
// oldest unpinned items before deleting items outright. Pinned items
// are exempt from every step. File unlinking follows each store
// delete and is best-effort.
func (s *Sweeper) Sweep(ctx context.Context, policy models.EvictionPolicy, now time.Time) (models.EvictionReport, error) {
	var report models.EvictionReport

	// (a) Retention window.
	if policy.RetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -policy.RetentionDays).UnixMilli()
		candidates, err := s.store.UnpinnedOldestFirst(ctx)
		if err != nil {
			return report, err
		}
		var expired []*models.CaptureItem
		for _, it := range candidates {
			if it.CreatedAtEpoch < cutoff {
				expired = append(expired, it)
			}
		}
		n, freed, err := s.deleteItems(ctx, expired)
		if err != nil {
			return report, err
		}
		report.ExpiredDeleted = n
		report.BytesReclaimed += freed
	}

	// (b) Item count cap.
	if policy.MaxItems > 0 {
		stats, err := s.store.Stats(ctx)
		if err != nil {
			return report, err
		}
		if over := stats.TotalItems - policy.MaxItems; over > 0 {
			candidates, err := s.store.UnpinnedOldestFirst(ctx)
			if err != nil {
				return report, err
			}
			if int64(len(candidates)) > over {
				candidates = candidates[:over]
			}
			n, freed, err := s.deleteItems(ctx, candidates)
			if err != nil {
				return report, err
			}
			report.OverflowDeleted = n
			report.BytesReclaimed += freed
		}
	}

	// (c) Byte budget: previews first (cheapest, recomputable), full
	// deletion only if that is not enough.
	if policy.MaxBytes > 0 {
		stats, err := s.store.Stats(ctx)
		if err != nil {
			return report, err
		}
		excess := stats.BytesTotal - policy.MaxBytes
		if excess > 0 {
			candidates, err := s.store.UnpinnedOldestFirst(ctx)
			if err != nil {
				return report, err
			}
			for _, it := range candidates {
				if excess <= 0 {
					break
				}
				if it.BytesPreview == 0 {
					continue
				}
				path, freed, err := s.store.ClearPreview(ctx, it.ID, now)
				if err != nil {
					return report, err
				}
				s.files.Remove(path)
				excess -= freed
				report.PreviewsCleared++
				report.BytesReclaimed += freed
				it.BytesPreview = 0
			}
			for _, it := range candidates {
				if excess <= 0 {
					break
				}
				n, freed, err := s.deleteItems(ctx, []*models.CaptureItem{it})
				if err != nil {
					return report, err
				}
				excess -= freed
				report.ByteDeleted += n
				report.BytesReclaimed += freed
			}
		}
	}

	if report.ItemsDeleted() > 0 || report.PreviewsCleared > 0 {
		log.Info().
			Int("deleted", report.ItemsDeleted()).
			Int("previews_cleared", report.PreviewsCleared).
			Int64("bytes_reclaimed", report.BytesReclaimed).
			Msg("Eviction sweep finished")
	}

	return report, nil
}

// deleteItems removes rows through the store and best-effort unlinks
// the returned artifact paths. Returns the count and bytes freed.
func (s *Sweeper) deleteItems(ctx context.Context, items []*models.CaptureItem) (int, int64, error) {
	if len(items) == 0 {
		return 0, 0, nil
	}
	ids := make([]string, len(items))
	var freed int64
	for i, it := range items {
		ids[i] = it.ID
		freed += it.BytesTotal()
	}
	paths, err := s.store.DeleteItems(ctx, ids)
	if err != nil {
		return 0, 0, err
	}
	for _, p := range paths {
		s.files.Remove(p.Relative()...)
	}
	return len(paths), freed, nil
}
