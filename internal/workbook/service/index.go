package service

import (
	"sort"
	"strings"

	"troskovnik-service/internal/workbook/model"
)

// Index narrows substring search over the catalog: a token can only be contained in a
// haystack holding all of the token's trigrams. Matches are always confirmed with
// strings.Contains, so the index never changes results, only the number of rows scanned.
type Index struct {
	hay []string         // lower-cased name+supplier+comment+code per catalog position
	inv map[string][]int // trigram -> ascending catalog positions
}

func haystack(a model.Article) string {
	return strings.ToLower(a.Name + a.Supplier + a.Comment + a.Code)
}

// BuildIndex indexes the catalog in its current order.
func BuildIndex(articles []model.Article) *Index {
	idx := &Index{
		hay: make([]string, len(articles)),
		inv: make(map[string][]int),
	}
	for i, a := range articles {
		h := haystack(a)
		idx.hay[i] = h
		for g := range trigramSet(h) {
			idx.inv[g] = append(idx.inv[g], i)
		}
	}
	return idx
}

func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	r := []rune(s)
	for i := 0; i+3 <= len(r); i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}

// candidates returns catalog positions that may contain every token.
// ok is false when no token is long enough to use the index (caller scans everything).
func (idx *Index) candidates(tokens []string) (pos []int, ok bool) {
	var grams []string
	for _, t := range tokens {
		for g := range trigramSet(t) {
			grams = append(grams, g)
		}
	}
	if len(grams) == 0 {
		return nil, false
	}
	// rarest first keeps the running intersection small
	sort.Slice(grams, func(i, j int) bool { return len(idx.inv[grams[i]]) < len(idx.inv[grams[j]]) })

	pos = idx.inv[grams[0]]
	for _, g := range grams[1:] {
		if len(pos) == 0 {
			break
		}
		pos = intersectSorted(pos, idx.inv[g])
	}
	return pos, true
}

// matchesTokens reports whether every token is a substring of the haystack at position i.
func (idx *Index) matchesTokens(i int, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(idx.hay[i], t) {
			return false
		}
	}
	return true
}

func intersectSorted(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
