package db

import (
	"regexp"
	"strings"
)

// Free-text queries are compiled into FTS5 match expressions here; the
// indexable text itself is assembled by models.CaptureItem.IndexText
// so the reranker derives identical source text for its cache hashes.

var (
	asciiWordRe   = regexp.MustCompile(`^\w+$`)
	unicodeWordRe = regexp.MustCompile(`^[\p{L}\p{N}]+$`)
)

// stopwords are dropped from match expressions; a query made entirely
// of them compiles to nothing and the caller falls back to recency.
// "not" is included so the token never reaches FTS5, which would parse
// an uppercase NOT as its boolean operator and reject the query.
var stopwords = map[string]bool{
	"the": true, "and": true, "or": true, "not": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true,
	"a": true, "an": true, "be": true, "are": true, "was": true,
}

// MatchExpression compiles a free-text query into an FTS5 match
// expression. Simple word tokens become prefix terms; anything with
// punctuation, quotes or mixed scripts becomes a literal phrase.
// Terms are joined with AND only; no OR/NOT is exposed.
// Returns "" when nothing indexable remains.
func MatchExpression(query string) string {
	var terms []string
	for _, tok := range strings.Fields(query) {
		if stopwords[strings.ToLower(tok)] {
			continue
		}
		if isSimpleTerm(tok) {
			terms = append(terms, tok+"*")
			continue
		}
		escaped := strings.ReplaceAll(tok, `"`, `""`)
		terms = append(terms, `"`+escaped+`"`)
	}
	return strings.Join(terms, " AND ")
}

// isSimpleTerm reports whether tok is a bare word usable as an FTS5
// prefix term: ASCII word characters, or a single-script Unicode word.
func isSimpleTerm(tok string) bool {
	if asciiWordRe.MatchString(tok) {
		return true
	}
	if !unicodeWordRe.MatchString(tok) {
		return false
	}
	hasASCII, hasOther := false, false
	for _, r := range tok {
		if r < 128 {
			hasASCII = true
		} else {
			hasOther = true
		}
	}
	return !(hasASCII && hasOther)
}
