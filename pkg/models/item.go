// Package models contains domain models for snapvault.
package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CaptureType classifies what region of the screen a capture covers.
type CaptureType string

const (
	CaptureTypeArea       CaptureType = "area"
	CaptureTypeWindow     CaptureType = "window"
	CaptureTypeFullscreen CaptureType = "fullscreen"
)

// CaptureMode classifies how the capture was taken.
type CaptureMode string

const (
	CaptureModeQuick    CaptureMode = "quick"
	CaptureModeAdvanced CaptureMode = "advanced"
	CaptureModeOCR      CaptureMode = "ocr"
)

// TriggerSource records what initiated the capture.
type TriggerSource string

const (
	TriggerMenu       TriggerSource = "menu"
	TriggerHotkey     TriggerSource = "hotkey"
	TriggerAppIntent  TriggerSource = "app-intent"
	TriggerAutomation TriggerSource = "automation"
)

// ValidCaptureType reports whether t is one of the closed capture type values.
func ValidCaptureType(t CaptureType) bool {
	switch t {
	case CaptureTypeArea, CaptureTypeWindow, CaptureTypeFullscreen:
		return true
	}
	return false
}

// CaptureItem is one persisted screenshot event with metadata and up to
// three stored image artifacts (thumbnail, preview, original).
type CaptureItem struct {
	ID             string        `db:"id" json:"id"`
	CreatedAt      string        `db:"created_at" json:"created_at"`
	CreatedAtEpoch int64         `db:"created_at_epoch" json:"created_at_epoch"`
	UpdatedAt      string        `db:"updated_at" json:"updated_at"`
	UpdatedAtEpoch int64         `db:"updated_at_epoch" json:"updated_at_epoch"`
	CaptureType    CaptureType   `db:"capture_type" json:"capture_type"`
	CaptureMode    CaptureMode   `db:"capture_mode" json:"capture_mode"`
	TriggerSource  TriggerSource `db:"trigger_source" json:"trigger_source"`

	// Provenance of the capture (optional).
	AppBundleID string `db:"app_bundle_id" json:"app_bundle_id,omitempty"`
	AppName     string `db:"app_name" json:"app_name,omitempty"`
	AppPID      int64  `db:"app_pid" json:"app_pid,omitempty"`
	SelectionW  int    `db:"selection_w" json:"selection_w,omitempty"`
	SelectionH  int    `db:"selection_h" json:"selection_h,omitempty"`

	// Artifact paths. ExternalPath is an absolute user-chosen location;
	// the tier paths are relative to the library root. Thumbnail is
	// always present; preview and original are present together with a
	// non-zero byte size or absent entirely.
	ExternalPath  string `db:"external_path" json:"external_path,omitempty"`
	ThumbPath     string `db:"thumb_path" json:"thumb_path"`
	ThumbW        int    `db:"thumb_w" json:"thumb_w"`
	ThumbH        int    `db:"thumb_h" json:"thumb_h"`
	BytesThumb    int64  `db:"bytes_thumb" json:"bytes_thumb"`
	PreviewPath   string `db:"preview_path" json:"preview_path,omitempty"`
	PreviewW      int    `db:"preview_w" json:"preview_w,omitempty"`
	PreviewH      int    `db:"preview_h" json:"preview_h,omitempty"`
	BytesPreview  int64  `db:"bytes_preview" json:"bytes_preview"`
	OriginalPath  string `db:"original_path" json:"original_path,omitempty"`
	OriginalW     int    `db:"original_w" json:"original_w,omitempty"`
	OriginalH     int    `db:"original_h" json:"original_h,omitempty"`
	BytesOriginal int64  `db:"bytes_original" json:"bytes_original"`

	// Curation.
	IsPinned      bool   `db:"is_pinned" json:"is_pinned"`
	PinnedAtEpoch int64  `db:"pinned_at_epoch" json:"pinned_at_epoch,omitempty"`
	Note          string `db:"note" json:"note,omitempty"`
	TagsCache     string `db:"tags_cache" json:"tags_cache,omitempty"`

	// Text extraction.
	OCRText      string `db:"ocr_text" json:"ocr_text,omitempty"`
	OCRLanguages string `db:"ocr_languages" json:"ocr_languages,omitempty"`
	OCRAtEpoch   int64  `db:"ocr_at_epoch" json:"ocr_at_epoch,omitempty"`

	// Semantic embedding cache. Stale whenever EmbedTextHash no longer
	// matches the hash of the item's current index text.
	EmbedModel        string `db:"embed_model" json:"-"`
	EmbedDim          int    `db:"embed_dim" json:"-"`
	EmbedVector       []byte `db:"embed_vector" json:"-"`
	EmbedTextHash     string `db:"embed_text_hash" json:"-"`
	EmbedUpdatedEpoch int64  `db:"embed_updated_epoch" json:"-"`
}

// BytesTotal is the summed on-disk footprint of all three tiers.
// It is always derived, never stored.
func (it *CaptureItem) BytesTotal() int64 {
	return it.BytesThumb + it.BytesPreview + it.BytesOriginal
}

// Tags returns the cached tag list split from TagsCache.
func (it *CaptureItem) Tags() []string {
	return SplitTagsCache(it.TagsCache)
}

// IndexText is the full-text-indexable content of the item: app name,
// tag list, note, OCR text and the external file's base name, in that
// fixed order, newline-separated, empty fields omitted.
func (it *CaptureItem) IndexText() string {
	var parts []string
	if it.AppName != "" {
		parts = append(parts, it.AppName)
	}
	if it.TagsCache != "" {
		parts = append(parts, it.TagsCache)
	}
	if it.Note != "" {
		parts = append(parts, it.Note)
	}
	if it.OCRText != "" {
		parts = append(parts, it.OCRText)
	}
	if it.ExternalPath != "" {
		parts = append(parts, filepath.Base(it.ExternalPath))
	}
	return strings.Join(parts, "\n")
}

// NewItemID returns a fresh globally unique item id.
func NewItemID() string {
	return uuid.NewString()
}

// Touch stamps both timestamp columns from t. CreatedAt is only set when
// still zero so the call is safe on existing rows.
func (it *CaptureItem) Touch(t time.Time) {
	if it.CreatedAtEpoch == 0 {
		it.CreatedAtEpoch = t.UnixMilli()
		it.CreatedAt = t.Format(time.RFC3339)
	}
	if epoch := t.UnixMilli(); epoch > it.UpdatedAtEpoch {
		it.UpdatedAtEpoch = epoch
		it.UpdatedAt = t.Format(time.RFC3339)
	}
}

// ArtifactPaths is the set of on-disk locations owned by one item,
// returned by delete operations so the caller can unlink the files.
type ArtifactPaths struct {
	ItemID       string `json:"item_id"`
	ThumbPath    string `json:"thumb_path,omitempty"`
	PreviewPath  string `json:"preview_path,omitempty"`
	OriginalPath string `json:"original_path,omitempty"`
}

// Relative returns the non-empty tier paths, thumbnail last.
func (p ArtifactPaths) Relative() []string {
	var out []string
	for _, rel := range []string{p.OriginalPath, p.PreviewPath, p.ThumbPath} {
		if rel != "" {
			out = append(out, rel)
		}
	}
	return out
}
