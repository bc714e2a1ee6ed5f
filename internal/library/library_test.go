//go:build fts5

package library

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlab/snapvault/internal/config"
	"github.com/halcyonlab/snapvault/internal/resolver"
	"github.com/halcyonlab/snapvault/pkg/models"
)

func testLibrary(t *testing.T, cfg *config.Config) *Library {
	t.Helper()
	lib, err := Open(t.TempDir(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func testFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	return img
}

func captureFrom(app, bundleID string) *models.CaptureItem {
	return &models.CaptureItem{
		CaptureType:   models.CaptureTypeWindow,
		CaptureMode:   models.CaptureModeQuick,
		TriggerSource: models.TriggerHotkey,
		AppName:       app,
		AppBundleID:   bundleID,
	}
}

func TestInsert_WritesAllTiersAndRow(t *testing.T) {
	lib := testLibrary(t, nil)
	ctx := context.Background()

	it := captureFrom("Safari", "com.apple.Safari")
	require.NoError(t, lib.Insert(ctx, it, testFrame()))

	assert.NotEmpty(t, it.ID, "id allocated")
	assert.True(t, lib.Files().Exists(it.ThumbPath))
	assert.True(t, lib.Files().Exists(it.PreviewPath))
	assert.True(t, lib.Files().Exists(it.OriginalPath))
	assert.Positive(t, it.BytesTotal())

	got, err := lib.Store().GetItem(ctx, it.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, it.ThumbPath, got.ThumbPath)
	assert.Equal(t, it.BytesOriginal, got.BytesOriginal)
}

func TestInsert_TiersFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.StorePreviews = false
	cfg.StoreOriginals = false
	lib := testLibrary(t, cfg)

	it := captureFrom("Safari", "com.apple.Safari")
	require.NoError(t, lib.Insert(context.Background(), it, testFrame()))

	assert.NotEmpty(t, it.ThumbPath, "thumbnail is always stored")
	assert.Empty(t, it.PreviewPath)
	assert.Empty(t, it.OriginalPath)
	assert.Zero(t, it.BytesPreview)
}

func TestInsert_DuplicateLeavesNoOrphanFiles(t *testing.T) {
	lib := testLibrary(t, nil)
	ctx := context.Background()

	it := captureFrom("Safari", "com.apple.Safari")
	it.ID = "fixed"
	require.NoError(t, lib.Insert(ctx, it, testFrame()))

	dup := captureFrom("Xcode", "com.apple.dt.Xcode")
	dup.ID = "fixed"
	err := lib.Insert(ctx, dup, testFrame())
	require.Error(t, err)

	// The first insert's artifacts survive; re-resolving works.
	got, err := lib.Store().GetItem(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "Safari", got.AppName)
	_, err = lib.Resolve(got, resolver.PurposeCopy)
	assert.NoError(t, err)
}

func TestSearch_EndToEnd(t *testing.T) {
	lib := testLibrary(t, nil)
	ctx := context.Background()

	safari := captureFrom("Safari", "com.apple.Safari")
	require.NoError(t, lib.Insert(ctx, safari, testFrame()))
	require.NoError(t, lib.Store().UpdateNote(ctx, safari.ID, "conference tickets", time.Now()))

	xcode := captureFrom("Xcode", "com.apple.dt.Xcode")
	require.NoError(t, lib.Insert(ctx, xcode, testFrame()))
	require.NoError(t, lib.Store().SetTags(ctx, xcode.ID, []string{"work"}, time.Now()))

	// Bare app token narrows to the app.
	got, err := lib.Search(ctx, "safari", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, safari.ID, got[0].ID)

	// Free text hits the note through the full-text index.
	got, err = lib.Search(ctx, "tickets", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, safari.ID, got[0].ID)

	// Tag token resolves against the known-tag vocabulary.
	got, err = lib.Search(ctx, "work", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, xcode.ID, got[0].ID)

	// Empty query browses everything, newest first.
	got, err = lib.Search(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDelete_RemovesRowAndFiles(t *testing.T) {
	lib := testLibrary(t, nil)
	ctx := context.Background()

	it := captureFrom("Safari", "com.apple.Safari")
	require.NoError(t, lib.Insert(ctx, it, testFrame()))

	paths, err := lib.Delete(ctx, []string{it.ID})
	require.NoError(t, err)
	require.Len(t, paths, 1)

	assert.False(t, lib.Files().Exists(it.ThumbPath))
	assert.False(t, lib.Files().Exists(it.PreviewPath))
	assert.False(t, lib.Files().Exists(it.OriginalPath))

	got, err := lib.Store().GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSweep_Wired(t *testing.T) {
	lib := testLibrary(t, nil)
	ctx := context.Background()

	it := captureFrom("Safari", "com.apple.Safari")
	require.NoError(t, lib.Insert(ctx, it, testFrame()))

	report, err := lib.Sweep(ctx, models.EvictionPolicy{MaxItems: 0, RetentionDays: 0})
	require.NoError(t, err)
	assert.Zero(t, report.ItemsDeleted())

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalItems)
}

func TestResolve_PreviewAfterOriginalEvicted(t *testing.T) {
	lib := testLibrary(t, nil)
	ctx := context.Background()

	it := captureFrom("Safari", "com.apple.Safari")
	require.NoError(t, lib.Insert(ctx, it, testFrame()))

	lib.Files().Remove(it.OriginalPath)

	path, err := lib.Resolve(it, resolver.PurposeCopy)
	require.NoError(t, err)
	assert.Equal(t, lib.Files().Abs(it.PreviewPath), path)
}

func TestFacets_Wired(t *testing.T) {
	lib := testLibrary(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, lib.Insert(ctx, captureFrom("Safari", "com.apple.Safari"), testFrame()))
	}

	facets, err := lib.Facets(ctx)
	require.NoError(t, err)
	require.Len(t, facets.Apps, 1)
	assert.Equal(t, int64(2), facets.Apps[0].Count)
}
