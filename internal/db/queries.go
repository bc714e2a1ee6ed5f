package db

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/halcyonlab/snapvault/pkg/models"
)

// Query layer. Reads are pure and may be abandoned by the caller; they
// still serialize through the store lock like every other operation.

// tagSubquery restricts items to those associated with a named tag.
const tagSubquery = `id IN (SELECT it.item_id FROM item_tags it JOIN tags t ON t.id = it.tag_id WHERE t.name = ?)`

// GetItem fetches one item by id. Returns (nil, nil) when absent.
func (s *Store) GetItem(ctx context.Context, id string) (*models.CaptureItem, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var row Item
	err = s.DB.WithContext(ctx).First(&row, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelItem(&row), nil
}

// List returns one page of items matching q. Without free text the
// page is recency-ordered. With free text the query joins the
// full-text index and orders by match rank (ties by recency), or by
// recency first when q.Sort is SortRecency. A query whose text
// compiles to no match expression falls back to unfiltered recency
// ordering.
func (s *Store) List(ctx context.Context, q models.Query, limit, offset int) ([]*models.CaptureItem, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if limit <= 0 {
		limit = 50
	}

	match := ""
	if q.Text != "" {
		match = MatchExpression(q.Text)
	}
	if match != "" {
		return s.listByMatch(ctx, q, match, limit, offset)
	}

	tx := s.DB.WithContext(ctx).Model(&Item{})
	tx = applyFilters(tx, q)

	var rows []Item
	err = tx.Order("created_at_epoch DESC, id").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelItems(rows), nil
}

// applyFilters adds the structured query filters to a GORM chain.
func applyFilters(tx *gorm.DB, q models.Query) *gorm.DB {
	if q.PinnedOnly {
		tx = tx.Where("is_pinned = ?", true)
	}
	if q.AppBundleID != "" {
		tx = tx.Where("app_bundle_id = ?", q.AppBundleID)
	}
	if q.CaptureType != "" {
		tx = tx.Where("capture_type = ?", string(q.CaptureType))
	}
	if q.Tag != "" {
		tx = tx.Where(tagSubquery, q.Tag)
	}
	if q.CreatedAfter != 0 {
		tx = tx.Where("created_at_epoch >= ?", q.CreatedAfter)
	}
	if q.CreatedBefore != 0 {
		tx = tx.Where("created_at_epoch <= ?", q.CreatedBefore)
	}
	return tx
}

// listByMatch runs the full-text join. GORM cannot express the FTS5
// MATCH operator, so the id page comes from raw SQL and the rows are
// fetched after, preserving the ranked order.
func (s *Store) listByMatch(ctx context.Context, q models.Query, match string, limit, offset int) ([]*models.CaptureItem, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT i.id FROM items i JOIN items_fts ON items_fts.item_id = i.id WHERE items_fts MATCH ?`)
	args := []interface{}{match}

	if q.PinnedOnly {
		sb.WriteString(" AND i.is_pinned = 1")
	}
	if q.AppBundleID != "" {
		sb.WriteString(" AND i.app_bundle_id = ?")
		args = append(args, q.AppBundleID)
	}
	if q.CaptureType != "" {
		sb.WriteString(" AND i.capture_type = ?")
		args = append(args, string(q.CaptureType))
	}
	if q.Tag != "" {
		sb.WriteString(" AND i." + tagSubquery)
		args = append(args, q.Tag)
	}
	if q.CreatedAfter != 0 {
		sb.WriteString(" AND i.created_at_epoch >= ?")
		args = append(args, q.CreatedAfter)
	}
	if q.CreatedBefore != 0 {
		sb.WriteString(" AND i.created_at_epoch <= ?")
		args = append(args, q.CreatedBefore)
	}

	if q.Sort == models.SortRecency {
		sb.WriteString(" ORDER BY i.created_at_epoch DESC")
	} else {
		sb.WriteString(" ORDER BY items_fts.rank, i.created_at_epoch DESC")
	}
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := s.sqlDB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var found []Item
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*Item, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	result := make([]*models.CaptureItem, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			result = append(result, toModelItem(row))
		}
	}
	return result, nil
}

// UnpinnedOldestFirst returns every unpinned item ordered oldest
// first. Feeds the eviction policy, which deletes from the front.
func (s *Store) UnpinnedOldestFirst(ctx context.Context) ([]*models.CaptureItem, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var rows []Item
	err = s.DB.WithContext(ctx).
		Where("is_pinned = ?", false).
		Order("created_at_epoch ASC, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelItems(rows), nil
}

// ItemTags returns the tag names joined to an item, sorted by name.
func (s *Store) ItemTags(ctx context.Context, id string) ([]string, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var names []string
	err = s.DB.WithContext(ctx).
		Model(&ItemTag{}).
		Joins("JOIN tags ON tags.id = item_tags.tag_id").
		Where("item_tags.item_id = ?", id).
		Order("tags.name").
		Pluck("tags.name", &names).Error
	return names, err
}

// Facets returns per-app and per-tag group counts for faceted
// browsing.
func (s *Store) Facets(ctx context.Context) (*models.Facets, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	facets := &models.Facets{}

	type appRow struct {
		AppBundleID string
		AppName     string
		N           int64
	}
	var apps []appRow
	err = s.DB.WithContext(ctx).
		Model(&Item{}).
		Select("app_bundle_id, app_name, COUNT(*) AS n").
		Where("app_bundle_id != ''").
		Group("app_bundle_id, app_name").
		Order("n DESC, app_name").
		Scan(&apps).Error
	if err != nil {
		return nil, err
	}
	for _, a := range apps {
		facets.Apps = append(facets.Apps, models.FacetCount{Key: a.AppBundleID, Label: a.AppName, Count: a.N})
	}

	type tagRow struct {
		Name string
		N    int64
	}
	var tags []tagRow
	err = s.DB.WithContext(ctx).
		Model(&ItemTag{}).
		Select("tags.name AS name, COUNT(*) AS n").
		Joins("JOIN tags ON tags.id = item_tags.tag_id").
		Group("tags.name").
		Order("n DESC, name").
		Scan(&tags).Error
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		facets.Tags = append(facets.Tags, models.FacetCount{Key: t.Name, Count: t.N})
	}

	return facets, nil
}

// Stats returns total and pinned item counts plus per-tier byte sums.
func (s *Store) Stats(ctx context.Context) (*models.LibraryStats, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var st models.LibraryStats
	row := struct {
		Total         int64
		Pinned        int64
		BytesThumb    int64
		BytesPreview  int64
		BytesOriginal int64
	}{}
	err = s.DB.WithContext(ctx).
		Model(&Item{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(is_pinned), 0) AS pinned,
			COALESCE(SUM(bytes_thumb), 0) AS bytes_thumb,
			COALESCE(SUM(bytes_preview), 0) AS bytes_preview,
			COALESCE(SUM(bytes_original), 0) AS bytes_original`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	st.TotalItems = row.Total
	st.PinnedItems = row.Pinned
	st.BytesThumb = row.BytesThumb
	st.BytesPreview = row.BytesPreview
	st.BytesOriginal = row.BytesOriginal
	st.BytesTotal = row.BytesThumb + row.BytesPreview + row.BytesOriginal
	return &st, nil
}

// KnownApps returns the app name to bundle id mapping observed in the
// library, most recent capture winning on name collisions. Feeds the
// search syntax parser's resolution context.
func (s *Store) KnownApps(ctx context.Context) (map[string]string, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	type row struct {
		AppName     string
		AppBundleID string
	}
	// SQLite resolves the bare app_bundle_id column from the row that
	// carries the MAX, so the latest capture decides each mapping
	// without transferring every row.
	var apps []row
	err = s.DB.WithContext(ctx).
		Model(&Item{}).
		Select("app_name, app_bundle_id, MAX(created_at_epoch) AS last_seen").
		Where("app_name != '' AND app_bundle_id != ''").
		Group("app_name").
		Scan(&apps).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(apps))
	for _, a := range apps {
		out[a.AppName] = a.AppBundleID
	}
	return out, nil
}

// KnownTags returns all tag names, sorted.
func (s *Store) KnownTags(ctx context.Context) ([]string, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var names []string
	err = s.DB.WithContext(ctx).
		Model(&Tag{}).
		Order("name").
		Pluck("name", &names).Error
	return names, err
}
