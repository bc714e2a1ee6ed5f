package models

// SortMode orders a result page.
type SortMode string

const (
	SortRecency   SortMode = "recency"
	SortRelevance SortMode = "relevance"
)

// Query describes one fetch against the library. It is a value, never
// persisted. Zero time bounds mean unset.
type Query struct {
	PinnedOnly    bool        `json:"pinned_only,omitempty"`
	AppBundleID   string      `json:"app_bundle_id,omitempty"`
	CaptureType   CaptureType `json:"capture_type,omitempty"`
	Tag           string      `json:"tag,omitempty"`
	CreatedAfter  int64       `json:"created_after,omitempty"`
	CreatedBefore int64       `json:"created_before,omitempty"`
	Text          string      `json:"text,omitempty"`
	Sort          SortMode    `json:"sort,omitempty"`
}

// IsZero reports whether the query carries no filter and no text.
func (q Query) IsZero() bool {
	return !q.PinnedOnly && q.AppBundleID == "" && q.CaptureType == "" &&
		q.Tag == "" && q.CreatedAfter == 0 && q.CreatedBefore == 0 && q.Text == ""
}

// FacetCount is one group bucket for faceted browsing.
type FacetCount struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int64  `json:"count"`
}

// Facets groups item counts per source app and per tag.
type Facets struct {
	Apps []FacetCount `json:"apps"`
	Tags []FacetCount `json:"tags"`
}

// LibraryStats summarizes the stored library.
type LibraryStats struct {
	TotalItems    int64 `json:"total_items"`
	PinnedItems   int64 `json:"pinned_items"`
	BytesThumb    int64 `json:"bytes_thumb"`
	BytesPreview  int64 `json:"bytes_preview"`
	BytesOriginal int64 `json:"bytes_original"`
	BytesTotal    int64 `json:"bytes_total"`
}

// EvictionPolicy bounds the library by age, count and bytes. Zero values
// disable the corresponding limit.
type EvictionPolicy struct {
	RetentionDays int   `json:"retention_days"`
	MaxItems      int64 `json:"max_items"`
	MaxBytes      int64 `json:"max_bytes"`
}

// EvictionReport describes one sweep of the eviction policy.
type EvictionReport struct {
	ExpiredDeleted  int   `json:"expired_deleted"`
	OverflowDeleted int   `json:"overflow_deleted"`
	ByteDeleted     int   `json:"byte_deleted"`
	PreviewsCleared int   `json:"previews_cleared"`
	BytesReclaimed  int64 `json:"bytes_reclaimed"`
}

// ItemsDeleted is the total number of items removed by the sweep.
func (r EvictionReport) ItemsDeleted() int {
	return r.ExpiredDeleted + r.OverflowDeleted + r.ByteDeleted
}
