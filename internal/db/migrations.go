package db

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations applies all pending schema migrations in order using
// gormigrate. Applied IDs are recorded in the migrations table, so
// re-running is a no-op. Rollback funcs exist as migration metadata
// only; the application never invokes them (forward-only migration).
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: item, tag and association tables.
		{
			ID: "001_core_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Item{}); err != nil {
					return err
				}
				if err := tx.AutoMigrate(&Tag{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&ItemTag{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("item_tags", "tags", "items")
			},
		},

		// Migration 002: FTS5 index table. unicode61 with diacritic
		// folding tokenizes mixed Latin/CJK content. No triggers: the
		// mutation layer owns index sync and rewrites entries per item.
		{
			ID: "002_items_fts",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
					item_id UNINDEXED,
					content,
					tokenize='unicode61 remove_diacritics 2'
				)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP TABLE IF EXISTS items_fts").Error
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}

	return nil
}
