package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"single word becomes prefix", "invoice", "invoice*"},
		{"words joined with AND", "hello world", "hello* AND world*"},
		{"stopwords dropped", "the invoice for lunch", "invoice* AND lunch*"},
		{"boolean keywords dropped", "cats AND dogs OR birds NOT fish", "cats* AND dogs* AND birds* AND fish*"},
		{"uppercase not never emitted", "NOT drill", "drill*"},
		{"stopword only compiles to nothing", "the and of", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"cjk word is a prefix term", "发票", "发票*"},
		{"punctuated token becomes phrase", "cmd+shift+4", `"cmd+shift+4"`},
		{"dotted name becomes phrase", "report.pdf", `"report.pdf"`},
		{"embedded quote escaped", `say"hi`, `"say""hi"`},
		{"mixed script token becomes phrase", "abc测试", `"abc测试"`},
		{"mixed simple and phrase", "tax report.pdf", `tax* AND "report.pdf"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchExpression(tt.query))
		})
	}
}

func TestIsSimpleTerm(t *testing.T) {
	assert.True(t, isSimpleTerm("hello"))
	assert.True(t, isSimpleTerm("abc123"))
	assert.True(t, isSimpleTerm("发票"))
	assert.False(t, isSimpleTerm("a.b"))
	assert.False(t, isSimpleTerm("abc测试"))
	assert.False(t, isSimpleTerm(""))
}
