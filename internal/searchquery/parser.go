// Package searchquery translates raw search strings into structured
// query filters plus residual free text. Parsing never fails: a token
// matching no rule is kept as free text.
package searchquery

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/halcyonlab/snapvault/pkg/models"
)

// Context is the resolution snapshot the parser matches tokens
// against: the library's known app and tag vocabularies plus the time
// reference for relative date keywords.
type Context struct {
	Apps map[string]string // app name -> bundle id
	Tags []string          // known tag names
	Now  time.Time
}

// timeRange is an inclusive creation-time window in epoch millis.
// Zero bounds are unset.
type timeRange struct {
	after  int64
	before int64
}

var (
	relTokenRe = regexp.MustCompile(`^(\d+)([dwmy])$`)
	relCJKRe   = regexp.MustCompile(`^最近(\d+)(天|周|月|年)$`)
	absDateRe  = regexp.MustCompile(`^(?:(\d{4})-)?(\d{1,2})-(\d{1,2})$`)
	keyValRe   = regexp.MustCompile(`^(\w+):(.+)$`)
)

// pinnedWords are the literal tokens that switch a query to
// pinned-only.
var pinnedWords = map[string]bool{
	"pinned": true, "pin": true, "📌": true,
	"已固定": true, "固定": true, "收藏": true,
}

// typeWords is the closed capture-type vocabulary including localized
// synonyms. Unrecognized values fall through to free text.
var typeWords = map[string]models.CaptureType{
	"area": models.CaptureTypeArea, "region": models.CaptureTypeArea, "区域": models.CaptureTypeArea,
	"window": models.CaptureTypeWindow, "窗口": models.CaptureTypeWindow,
	"fullscreen": models.CaptureTypeFullscreen, "full": models.CaptureTypeFullscreen, "全屏": models.CaptureTypeFullscreen,
}

// Parse consumes raw and folds every recognized token into a
// structured query. Later matches of the same kind overwrite earlier
// ones. Tokens matching no rule are preserved in order and returned as
// the query's free text.
func Parse(raw string, ctx Context) models.Query {
	var q models.Query
	var residual []string

	tokens := strings.Fields(raw)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		lower := strings.ToLower(tok)

		if pinnedWords[lower] {
			q.PinnedOnly = true
			continue
		}

		if tr, consumed, ok := matchTimeKeyword(tokens[i:], ctx.Now); ok {
			q.CreatedAfter, q.CreatedBefore = tr.after, tr.before
			i += consumed - 1
			continue
		}

		if strings.HasPrefix(tok, "#") && len(tok) > 1 {
			q.Tag = tok[1:]
			continue
		}

		if m := keyValRe.FindStringSubmatch(tok); m != nil {
			if consumeKeyValue(&q, strings.ToLower(m[1]), unquote(m[2]), ctx) {
				continue
			}
			// Unknown keys are NOT filters; fall through to free text
			// so a literal foo:bar in a note still matches.
			residual = append(residual, tok)
			continue
		}

		if id, ok := matchApp(tok, ctx.Apps); ok {
			q.AppBundleID = id
			continue
		}
		if name, ok := matchTag(tok, ctx.Tags); ok {
			q.Tag = name
			continue
		}

		residual = append(residual, tok)
	}

	q.Text = strings.Join(residual, " ")
	return q
}

// consumeKeyValue folds a recognized key:value pair into q. Returns
// false for unknown keys.
func consumeKeyValue(q *models.Query, key, value string, ctx Context) bool {
	switch key {
	case "app":
		if id, ok := matchApp(value, ctx.Apps); ok {
			q.AppBundleID = id
		} else {
			// Unresolved app names still filter: the bundle id column
			// is matched verbatim so explicit ids work too.
			q.AppBundleID = value
		}
		return true
	case "tag":
		q.Tag = value
		return true
	case "type":
		if t, ok := typeWords[strings.ToLower(value)]; ok {
			q.CaptureType = t
			return true
		}
		// Closed vocabulary: an unrecognized type value is dropped as
		// a filter and kept as residual text instead of erroring.
		return false
	}
	return false
}

// matchApp resolves a token against known app names: exact
// case-insensitive match first, then unique substring fragment.
func matchApp(tok string, apps map[string]string) (string, bool) {
	lower := strings.ToLower(tok)
	for name, id := range apps {
		if strings.ToLower(name) == lower {
			return id, true
		}
	}
	var found string
	var hits int
	for name, id := range apps {
		if strings.Contains(strings.ToLower(name), lower) {
			found = id
			hits++
		}
	}
	if hits == 1 {
		return found, true
	}
	return "", false
}

// matchTag resolves a token against known tag names, case-insensitive
// exact only.
func matchTag(tok string, tags []string) (string, bool) {
	lower := strings.ToLower(tok)
	for _, name := range tags {
		if strings.ToLower(name) == lower {
			return name, true
		}
	}
	return "", false
}

// matchTimeKeyword tries every date rule against the token stream
// starting at tokens[0]. Returns the resolved range, how many tokens
// were consumed, and whether anything matched.
func matchTimeKeyword(tokens []string, now time.Time) (timeRange, int, bool) {
	lower := strings.ToLower(tokens[0])

	// Named single-token periods.
	switch lower {
	case "today", "今天":
		return dayRange(now, 0), 1, true
	case "yesterday", "昨天":
		return dayRange(now, -1), 1, true
	case "本周":
		return weekRange(now, 0), 1, true
	case "上周":
		return weekRange(now, -1), 1, true
	case "本月":
		return monthRange(now, 0), 1, true
	case "上月", "上个月":
		return monthRange(now, -1), 1, true
	case "今年":
		return yearRange(now, 0), 1, true
	case "去年":
		return yearRange(now, -1), 1, true
	}

	// Two-token periods: this/last week|month|year.
	if (lower == "this" || lower == "last") && len(tokens) > 1 {
		offset := 0
		if lower == "last" {
			offset = -1
		}
		switch strings.ToLower(tokens[1]) {
		case "week":
			return weekRange(now, offset), 2, true
		case "month":
			return monthRange(now, offset), 2, true
		case "year":
			return yearRange(now, offset), 2, true
		}
	}

	// Verbose relative offsets: last/past N days|weeks|months.
	if (lower == "last" || lower == "past") && len(tokens) > 2 {
		if n, err := strconv.Atoi(tokens[1]); err == nil && n > 0 {
			if unit, ok := relUnit(strings.ToLower(strings.TrimSuffix(tokens[2], "s"))); ok {
				return sinceRange(now, n, unit), 3, true
			}
		}
	}

	// Compact relative offsets: 7d, 2w, 3m, 1y.
	if m := relTokenRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		if unit, ok := relUnit(m[2]); ok && n > 0 {
			return sinceRange(now, n, unit), 1, true
		}
	}

	// CJK relative offsets: 最近7天 and friends.
	if m := relCJKRe.FindStringSubmatch(tokens[0]); m != nil {
		n, _ := strconv.Atoi(m[1])
		if unit, ok := relUnit(m[2]); ok && n > 0 {
			return sinceRange(now, n, unit), 1, true
		}
	}

	// Absolute dates: Y-M-D or M-D (current year).
	if m := absDateRe.FindStringSubmatch(tokens[0]); m != nil {
		year := now.Year()
		if m[1] != "" {
			year, _ = strconv.Atoi(m[1])
		}
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
			end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
			return timeRange{after: start.UnixMilli(), before: end.UnixMilli()}, 1, true
		}
	}

	return timeRange{}, 0, false
}

// relUnit maps an offset unit token to a normalized unit rune.
func relUnit(s string) (byte, bool) {
	switch s {
	case "d", "day", "天":
		return 'd', true
	case "w", "week", "周":
		return 'w', true
	case "m", "month", "月":
		return 'm', true
	case "y", "year", "年":
		return 'y', true
	}
	return 0, false
}

// sinceRange resolves "N units back from now" to a lower bound only;
// the upper bound stays unset.
func sinceRange(now time.Time, n int, unit byte) timeRange {
	var from time.Time
	switch unit {
	case 'd':
		from = now.AddDate(0, 0, -n)
	case 'w':
		from = now.AddDate(0, 0, -7*n)
	case 'm':
		from = now.AddDate(0, -n, 0)
	case 'y':
		from = now.AddDate(-n, 0, 0)
	}
	return timeRange{after: from.UnixMilli()}
}

// dayRange is the inclusive range covering the day offset days from
// now's day.
func dayRange(now time.Time, offset int) timeRange {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, offset)
	return timeRange{
		after:  day.UnixMilli(),
		before: day.AddDate(0, 0, 1).Add(-time.Millisecond).UnixMilli(),
	}
}

// weekRange covers the calendar week (Monday start) offset weeks away.
func weekRange(now time.Time, offset int) timeRange {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday ends the week
	}
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(weekday - 1)).
		AddDate(0, 0, 7*offset)
	return timeRange{
		after:  monday.UnixMilli(),
		before: monday.AddDate(0, 0, 7).Add(-time.Millisecond).UnixMilli(),
	}
}

// monthRange covers the calendar month offset months away.
func monthRange(now time.Time, offset int) timeRange {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, offset, 0)
	return timeRange{
		after:  first.UnixMilli(),
		before: first.AddDate(0, 1, 0).Add(-time.Millisecond).UnixMilli(),
	}
}

// yearRange covers the calendar year offset years away.
func yearRange(now time.Time, offset int) timeRange {
	first := time.Date(now.Year()+offset, time.January, 1, 0, 0, 0, 0, now.Location())
	return timeRange{
		after:  first.UnixMilli(),
		before: first.AddDate(1, 0, 0).Add(-time.Millisecond).UnixMilli(),
	}
}

// unquote strips one level of surrounding single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
