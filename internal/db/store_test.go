//go:build fts5

package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/halcyonlab/snapvault/pkg/models"
)

// testStore opens a store in a temp directory.
func testStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// newTestItem builds a minimal valid item.
func newTestItem(id string, created time.Time) *models.CaptureItem {
	it := &models.CaptureItem{
		ID:            id,
		CaptureType:   models.CaptureTypeArea,
		CaptureMode:   models.CaptureModeQuick,
		TriggerSource: models.TriggerHotkey,
		ThumbPath:     filepath.Join("thumbs", id+".jpg"),
		ThumbW:        256,
		ThumbH:        160,
		BytesThumb:    1024,
	}
	it.Touch(created)
	return it
}

func TestNewStore_CreatesSchema(t *testing.T) {
	store := testStore(t)

	for _, table := range []string{"items", "tags", "item_tags"} {
		require.True(t, store.DB.Migrator().HasTable(table), "table %q missing", table)
	}

	// FTS5 virtual tables are invisible to Migrator().HasTable.
	var count int
	err := store.DB.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items_fts'").Scan(&count).Error
	require.NoError(t, err)
	require.Equal(t, 1, count, "items_fts missing")

	var journalMode string
	require.NoError(t, store.DB.Raw("PRAGMA journal_mode").Scan(&journalMode).Error)
	require.Equal(t, "wal", journalMode)
}

func TestMigrations_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	store, err := NewStore(Config{Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)

	var first int
	require.NoError(t, store.DB.Raw("SELECT COUNT(*) FROM migrations").Scan(&first).Error)
	require.NoError(t, store.Close())

	// Reopening replays nothing and duplicates no migration record.
	store, err = NewStore(Config{Path: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer store.Close()

	var second int
	require.NoError(t, store.DB.Raw("SELECT COUNT(*) FROM migrations").Scan(&second).Error)
	require.Equal(t, first, second)

	for _, table := range []string{"items", "tags", "item_tags"} {
		require.True(t, store.DB.Migrator().HasTable(table))
	}
}

func TestNewStore_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o600))

	store, err := NewStore(Config{Path: path, LogLevel: logger.Silent})
	require.Error(t, err)
	require.Nil(t, store)
}

func TestStore_ClosedIsUnavailable(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Close())

	ctx := context.Background()
	err := store.Insert(ctx, newTestItem("x", time.Now()))
	require.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = store.List(ctx, models.Query{}, 10, 0)
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
