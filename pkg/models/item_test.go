package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBytesTotal_SumsTiers(t *testing.T) {
	it := CaptureItem{BytesThumb: 10, BytesPreview: 200, BytesOriginal: 3000}
	assert.Equal(t, int64(3210), it.BytesTotal())
}

func TestIndexText_FixedOrderOmitsEmpty(t *testing.T) {
	it := CaptureItem{
		AppName:      "Safari",
		TagsCache:    "receipts work",
		Note:         "quarterly invoice",
		OCRText:      "Total: $42.00",
		ExternalPath: "/Users/me/Desktop/shot 1.png",
	}
	assert.Equal(t, "Safari\nreceipts work\nquarterly invoice\nTotal: $42.00\nshot 1.png", it.IndexText())

	// Empty fields drop out without leaving blank lines.
	it2 := CaptureItem{Note: "just a note"}
	assert.Equal(t, "just a note", it2.IndexText())

	var empty CaptureItem
	assert.Equal(t, "", empty.IndexText())
}

func TestTouch_MonotonicUpdatedAt(t *testing.T) {
	var it CaptureItem
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	it.Touch(t0)
	assert.Equal(t, t0.UnixMilli(), it.CreatedAtEpoch)
	assert.Equal(t, t0.UnixMilli(), it.UpdatedAtEpoch)

	// An earlier clock never moves updated_at backwards.
	it.Touch(t0.Add(-time.Hour))
	assert.Equal(t, t0.UnixMilli(), it.UpdatedAtEpoch)

	t1 := t0.Add(time.Minute)
	it.Touch(t1)
	assert.Equal(t, t0.UnixMilli(), it.CreatedAtEpoch)
	assert.Equal(t, t1.UnixMilli(), it.UpdatedAtEpoch)
}

func TestValidCaptureType(t *testing.T) {
	assert.True(t, ValidCaptureType(CaptureTypeArea))
	assert.True(t, ValidCaptureType(CaptureTypeWindow))
	assert.True(t, ValidCaptureType(CaptureTypeFullscreen))
	assert.False(t, ValidCaptureType(CaptureType("screen")))
}

func TestArtifactPaths_Relative(t *testing.T) {
	p := ArtifactPaths{ItemID: "x", ThumbPath: "thumbs/x.jpg", OriginalPath: "originals/x.png"}
	assert.Equal(t, []string{"originals/x.png", "thumbs/x.jpg"}, p.Relative())
}
