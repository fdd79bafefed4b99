package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/laptophub/internal/domain"
)

func lines(names ...string) []CartLine {
	out := make([]CartLine, len(names))
	for i, n := range names {
		out[i] = CartLine{CartItem: domain.CartItem{ID: int64(i + 1), Name: n, Quantity: 1}}
	}
	return out
}

func names(results []FilterResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Line.Name
	}
	return out
}

func TestFilterLines_EmptyQueryKeepsOrder(t *testing.T) {
	in := lines("MacBook Air", "ThinkPad X1", "Dell XPS 13")
	assert.Equal(t, []string{"MacBook Air", "ThinkPad X1", "Dell XPS 13"}, names(FilterLines(in, "  ")))
}

func TestFilterLines_FuzzyMatch(t *testing.T) {
	in := lines("MacBook Air", "ThinkPad X1", "Dell XPS 13")

	results := FilterLines(in, "tpx")
	require.Len(t, results, 1)
	assert.Equal(t, "ThinkPad X1", results[0].Line.Name)
	assert.NotEmpty(t, results[0].MatchedIndexes)

	assert.Empty(t, FilterLines(in, "zzz"))
}

func TestFilterLines_AccentFolding(t *testing.T) {
	in := lines("Cámara web HD", "Mouse inalámbrico")

	results := FilterLines(in, "camara")
	require.Len(t, results, 1)
	assert.Equal(t, "Cámara web HD", results[0].Line.Name)
}
