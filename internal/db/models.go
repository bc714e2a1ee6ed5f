// Package db provides the GORM-backed relational store for snapvault.
package db

import (
	"github.com/halcyonlab/snapvault/pkg/models"
)

// GORM row types. Domain types live in pkg/models; these mirror them
// column-for-column so schema concerns (constraints, indexes) stay here.

// Item is one capture row.
type Item struct {
	ID             string `gorm:"primaryKey;type:text"`
	CreatedAt      string `gorm:"not null"`
	CreatedAtEpoch int64  `gorm:"index:idx_items_created,sort:desc;not null"`
	UpdatedAt      string `gorm:"not null"`
	UpdatedAtEpoch int64  `gorm:"not null"`
	CaptureType    string `gorm:"type:text;check:capture_type IN ('area', 'window', 'fullscreen');not null"`
	CaptureMode    string `gorm:"type:text;check:capture_mode IN ('quick', 'advanced', 'ocr');not null"`
	TriggerSource  string `gorm:"type:text;check:trigger_source IN ('menu', 'hotkey', 'app-intent', 'automation');not null"`

	AppBundleID string `gorm:"index:idx_items_app"`
	AppName     string
	AppPID      int64
	SelectionW  int
	SelectionH  int

	ExternalPath  string
	ThumbPath     string `gorm:"not null"`
	ThumbW        int
	ThumbH        int
	BytesThumb    int64 `gorm:"not null"`
	PreviewPath   string
	PreviewW      int
	PreviewH      int
	BytesPreview  int64 `gorm:"default:0"`
	OriginalPath  string
	OriginalW     int
	OriginalH     int
	BytesOriginal int64 `gorm:"default:0"`

	IsPinned      bool `gorm:"default:false;index:idx_items_pinned"`
	PinnedAtEpoch int64
	Note          string `gorm:"type:text"`
	TagsCache     string `gorm:"type:text"`

	OCRText      string `gorm:"column:ocr_text;type:text"`
	OCRLanguages string `gorm:"column:ocr_languages"`
	OCRAtEpoch   int64  `gorm:"column:ocr_at_epoch"`

	EmbedModel        string
	EmbedDim          int
	EmbedVector       []byte `gorm:"type:blob"`
	EmbedTextHash     string
	EmbedUpdatedEpoch int64
}

func (Item) TableName() string { return "items" }

// Tag is a unique label name.
type Tag struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"uniqueIndex;not null"`
	CreatedAtEpoch int64  `gorm:"not null"`
}

func (Tag) TableName() string { return "tags" }

// ItemTag is the item-tag association, cascade-deleted from both sides.
type ItemTag struct {
	ItemID string `gorm:"primaryKey;type:text"`
	TagID  int64  `gorm:"primaryKey;index:idx_item_tags_tag"`
	Item   Item   `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	Tag    Tag    `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

func (ItemTag) TableName() string { return "item_tags" }

// toModelItem converts a row to the domain type.
func toModelItem(r *Item) *models.CaptureItem {
	return &models.CaptureItem{
		ID:             r.ID,
		CreatedAt:      r.CreatedAt,
		CreatedAtEpoch: r.CreatedAtEpoch,
		UpdatedAt:      r.UpdatedAt,
		UpdatedAtEpoch: r.UpdatedAtEpoch,
		CaptureType:    models.CaptureType(r.CaptureType),
		CaptureMode:    models.CaptureMode(r.CaptureMode),
		TriggerSource:  models.TriggerSource(r.TriggerSource),
		AppBundleID:    r.AppBundleID,
		AppName:        r.AppName,
		AppPID:         r.AppPID,
		SelectionW:     r.SelectionW,
		SelectionH:     r.SelectionH,
		ExternalPath:   r.ExternalPath,
		ThumbPath:      r.ThumbPath,
		ThumbW:         r.ThumbW,
		ThumbH:         r.ThumbH,
		BytesThumb:     r.BytesThumb,
		PreviewPath:    r.PreviewPath,
		PreviewW:       r.PreviewW,
		PreviewH:       r.PreviewH,
		BytesPreview:   r.BytesPreview,
		OriginalPath:   r.OriginalPath,
		OriginalW:      r.OriginalW,
		OriginalH:      r.OriginalH,
		BytesOriginal:  r.BytesOriginal,
		IsPinned:       r.IsPinned,
		PinnedAtEpoch:  r.PinnedAtEpoch,
		Note:           r.Note,
		TagsCache:      r.TagsCache,
		OCRText:        r.OCRText,
		OCRLanguages:   r.OCRLanguages,
		OCRAtEpoch:     r.OCRAtEpoch,

		EmbedModel:        r.EmbedModel,
		EmbedDim:          r.EmbedDim,
		EmbedVector:       r.EmbedVector,
		EmbedTextHash:     r.EmbedTextHash,
		EmbedUpdatedEpoch: r.EmbedUpdatedEpoch,
	}
}

// fromModelItem converts the domain type to a row.
func fromModelItem(it *models.CaptureItem) *Item {
	return &Item{
		ID:             it.ID,
		CreatedAt:      it.CreatedAt,
		CreatedAtEpoch: it.CreatedAtEpoch,
		UpdatedAt:      it.UpdatedAt,
		UpdatedAtEpoch: it.UpdatedAtEpoch,
		CaptureType:    string(it.CaptureType),
		CaptureMode:    string(it.CaptureMode),
		TriggerSource:  string(it.TriggerSource),
		AppBundleID:    it.AppBundleID,
		AppName:        it.AppName,
		AppPID:         it.AppPID,
		SelectionW:     it.SelectionW,
		SelectionH:     it.SelectionH,
		ExternalPath:   it.ExternalPath,
		ThumbPath:      it.ThumbPath,
		ThumbW:         it.ThumbW,
		ThumbH:         it.ThumbH,
		BytesThumb:     it.BytesThumb,
		PreviewPath:    it.PreviewPath,
		PreviewW:       it.PreviewW,
		PreviewH:       it.PreviewH,
		BytesPreview:   it.BytesPreview,
		OriginalPath:   it.OriginalPath,
		OriginalW:      it.OriginalW,
		OriginalH:      it.OriginalH,
		BytesOriginal:  it.BytesOriginal,
		IsPinned:       it.IsPinned,
		PinnedAtEpoch:  it.PinnedAtEpoch,
		Note:           it.Note,
		TagsCache:      it.TagsCache,
		OCRText:        it.OCRText,
		OCRLanguages:   it.OCRLanguages,
		OCRAtEpoch:     it.OCRAtEpoch,

		EmbedModel:        it.EmbedModel,
		EmbedDim:          it.EmbedDim,
		EmbedVector:       it.EmbedVector,
		EmbedTextHash:     it.EmbedTextHash,
		EmbedUpdatedEpoch: it.EmbedUpdatedEpoch,
	}
}

// toModelItems converts a slice of rows.
func toModelItems(rows []Item) []*models.CaptureItem {
	result := make([]*models.CaptureItem, len(rows))
	for i := range rows {
		result[i] = toModelItem(&rows[i])
	}
	return result
}
