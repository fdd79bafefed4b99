package service

import (
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
)

// FilterResult is a cart line that matched a filter query
type FilterResult struct {
	Line           CartLine
	MatchedIndexes []int // Character positions that matched (for highlighting)
	Score          int
}

// lineIndex implements sahilm/fuzzy.Source over cart line names
type lineIndex struct {
	lines      []CartLine
	lowerNames []string
}

func (idx *lineIndex) String(i int) string { return idx.lowerNames[i] }

func (idx *lineIndex) Len() int { return len(idx.lines) }

// FilterLines narrows cart lines by a fuzzy query on the product name.
// Matches are ranked best first; names that only match once accents are
// folded ("camara" vs "Cámara") follow the ranked ones in cart order.
func FilterLines(lines []CartLine, query string) []FilterResult {
	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]FilterResult, len(lines))
		for i, l := range lines {
			results[i] = FilterResult{Line: l}
		}
		return results
	}

	idx := &lineIndex{lines: lines, lowerNames: make([]string, len(lines))}
	for i, l := range lines {
		idx.lowerNames[i] = strings.ToLower(l.Name)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	seen := make(map[int]bool, len(matches))
	results := make([]FilterResult, 0, len(matches))
	for _, m := range matches {
		seen[m.Index] = true
		results = append(results, FilterResult{
			Line:           lines[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}

	for i, l := range lines {
		if seen[i] {
			continue
		}
		if lfuzzy.MatchNormalizedFold(query, l.Name) {
			results = append(results, FilterResult{Line: l})
		}
	}

	return results
}
