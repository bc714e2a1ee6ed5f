// Package rerank re-orders an already-ranked result page using cached
// per-item embeddings and a query embedding. Missing embedding
// capability degrades to a no-op, never an error.
package rerank

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/halcyonlab/snapvault/pkg/models"
)

// Blend weights: positional rank of the incoming order vs semantic
// similarity, used when the incoming order carries meaning.
const (
	rankWeight       = 0.6
	similarityWeight = 0.4
)

// DefaultPersistBatch caps how many recomputed embeddings are written
// back per rerank call.
const DefaultPersistBatch = 8

// persistConcurrency bounds simultaneous background cache writes.
const persistConcurrency = 2

// Embedder is an on-device text-embedding capability.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Dim() int
	Model() string
}

// CacheWriter persists recomputed embeddings back into the relational
// store.
type CacheWriter interface {
	UpdateEmbedding(ctx context.Context, id, model string, dim int, vector []byte, textHash string, now time.Time) error
}

// Reranker blends positional and semantic scores over a result page.
type Reranker struct {
	embedder     Embedder
	cache        CacheWriter
	persistBatch int

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New creates a reranker. embedder may be nil (reranking then no-ops);
// cache may be nil (recomputed embeddings are not persisted).
func New(embedder Embedder, cache CacheWriter) *Reranker {
	return &Reranker{
		embedder:     embedder,
		cache:        cache,
		persistBatch: DefaultPersistBatch,
		sem:          semaphore.NewWeighted(persistConcurrency),
	}
}

// Available reports whether an embedding capability is wired in.
func (r *Reranker) Available() bool {
	return r != nil && r.embedder != nil
}

// Rerank reorders items by blending the incoming rank position with
// cosine similarity against the query embedding. positional marks
// whether the incoming order carries meaning (relevance-sorted input);
// otherwise pure similarity ranks the page. Embeddings recomputed here
// that differ from the stored cache are persisted asynchronously; the
// caller never waits on those writes.
func (r *Reranker) Rerank(ctx context.Context, query string, items []*models.CaptureItem, positional bool) []*models.CaptureItem {
	if !r.Available() || query == "" || len(items) < 2 {
		return items
	}

	queryVec, err := r.embedder.EmbedText(ctx, query)
	if err != nil || len(queryVec) == 0 {
		// Degrade gracefully: no capability means no reordering.
		return items
	}

	type scored struct {
		item     *models.CaptureItem
		original int
		sim      float64
		score    float64
	}

	model := r.embedder.Model()
	dim := r.embedder.Dim()
	n := len(items)
	ranked := make([]scored, n)
	var stale []*models.CaptureItem
	staleVecs := make(map[string][]float32)

	for i, it := range items {
		vec, fresh := r.itemVector(ctx, it, model, dim)
		sim := 0.0
		if len(vec) > 0 {
			// Cosine normalized from [-1,1] to [0,1].
			sim = (cosineSimilarity(queryVec, vec) + 1) / 2
		}
		if fresh && len(stale) < r.persistBatch {
			stale = append(stale, it)
			staleVecs[it.ID] = vec
		}

		score := sim
		if positional {
			pos := 1.0
			if n > 1 {
				pos = 1 - float64(i)/float64(n-1)
			}
			score = rankWeight*pos + similarityWeight*sim
		}
		ranked[i] = scored{item: it, original: i, sim: sim, score: score}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		if ranked[a].sim != ranked[b].sim {
			return ranked[a].sim > ranked[b].sim
		}
		if ranked[a].item.CreatedAtEpoch != ranked[b].item.CreatedAtEpoch {
			return ranked[a].item.CreatedAtEpoch > ranked[b].item.CreatedAtEpoch
		}
		return ranked[a].original < ranked[b].original
	})

	out := make([]*models.CaptureItem, n)
	for i := range ranked {
		out[i] = ranked[i].item
	}

	r.persistAsync(stale, staleVecs, model, dim)

	return out
}

// Wait blocks until scheduled background cache writes finish. Used at
// shutdown; normal callers never wait.
func (r *Reranker) Wait() {
	r.wg.Wait()
}

// itemVector returns the embedding for an item, reusing the stored
// cache when model, dimension and source hash all match, recomputing
// otherwise. fresh reports that the vector differs from the cache and
// should be persisted.
func (r *Reranker) itemVector(ctx context.Context, it *models.CaptureItem, model string, dim int) (vec []float32, fresh bool) {
	hash := HashText(it.IndexText())
	if it.EmbedModel == model && it.EmbedDim == dim && it.EmbedTextHash == hash && len(it.EmbedVector) > 0 {
		cached, err := DecodeVector(it.EmbedVector)
		if err == nil && len(cached) == dim {
			return cached, false
		}
	}

	vec, err := r.embedder.EmbedText(ctx, it.IndexText())
	if err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

// persistAsync schedules fire-and-forget cache writes, bounded by the
// batch cap (enforced by the caller) and the write semaphore.
func (r *Reranker) persistAsync(stale []*models.CaptureItem, vecs map[string][]float32, model string, dim int) {
	if r.cache == nil || len(stale) == 0 {
		return
	}
	for _, it := range stale {
		vec := vecs[it.ID]
		if vec == nil {
			continue
		}
		r.wg.Add(1)
		go func(id, text string, vec []float32) {
			defer r.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := r.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer r.sem.Release(1)

			blob, err := EncodeVector(vec)
			if err != nil {
				return
			}
			if err := r.cache.UpdateEmbedding(ctx, id, model, dim, blob, HashText(text), time.Now()); err != nil {
				log.Warn().Err(err).Str("item", id).Msg("Failed to persist embedding cache")
			}
		}(it.ID, it.IndexText(), vec)
	}
}

// HashText returns the sha256 hex digest of an item's indexable text,
// used to detect stale embedding caches.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// cosineSimilarity computes cosine similarity between two vectors.
// Mismatched lengths and zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
