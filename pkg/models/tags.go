package models

import (
	"sort"
	"strings"
)

// MaxTagsPerItem caps how many tags a single item can carry.
const MaxTagsPerItem = 20

// Tag is a user-created label, many-to-many with capture items.
type Tag struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	CreatedAtEpoch int64  `db:"created_at_epoch" json:"created_at_epoch"`
}

// NormalizeTags cleans a free-form tag list: trims whitespace, drops
// blanks, dedupes case-sensitively keeping first-seen order, and caps
// the result at MaxTagsPerItem.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxTagsPerItem {
			break
		}
	}
	return out
}

// JoinTagsCache builds the denormalized tags_cache value: the sorted,
// deduplicated tag set joined with single spaces.
func JoinTagsCache(tags []string) string {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t != "" {
			set[t] = true
		}
	}
	names := make([]string, 0, len(set))
	for t := range set {
		names = append(names, t)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// SplitTagsCache is the inverse of JoinTagsCache.
func SplitTagsCache(cache string) []string {
	if cache == "" {
		return nil
	}
	return strings.Fields(cache)
}
