package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"troskovnik-service/internal/workbook/model"
)

// HistorySource marks results coming from the historical price list.
const HistorySource = "Povijesne cijene"

// SearchOptions controls filtering, ordering and capping of a search.
type SearchOptions struct {
	Order         SortOrder
	CurrentLine   model.LineNumber // used by segments without a line prefix
	LatestPerCode bool
	HideOurs      bool // hide lager/urpd articles
	HideRoto      bool // hide the external aggregator, unless the row is ours
	RotoSupplier  string
	Limit         int // 0: no cap
	HistoryLimit  int // 0: no historical lane
}

// DefaultSearchOptions returns the interactive defaults: 24 results, 5 of them historical at most.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Order:        SortWeightFirst,
		CurrentLine:  model.Pending,
		RotoSupplier: "Roto",
		Limit:        24,
		HistoryLimit: 5,
	}
}

// BulkSearchOptions is the non-interactive variant: no overall cap. The historical lane
// keeps its own cap.
func BulkSearchOptions() SearchOptions {
	o := DefaultSearchOptions()
	o.Limit = 0
	return o
}

// Search runs a parsed query against the session catalog and returns candidate results.
// Candidates are copies; nothing in the session is modified.
func Search(s *Session, q ParsedQuery, opts SearchOptions) []model.Result {
	var direct, found []model.Result

	for _, seg := range q.Segments {
		line := segmentLine(seg, opts.CurrentLine)
		if seg.IsDirect() {
			if r, ok := directResult(s, seg.DirectCode, line); ok && !s.IsExcluded(r.ID) {
				direct = append(direct, r)
			}
			continue
		}
		found = append(found, matchSegment(s, seg, line)...)
	}

	found = dedupe(found)
	if opts.LatestPerCode {
		found = latestPerCode(found)
	}
	found = filterVisible(found, opts, s.Weights)
	found = dropExcluded(found, s.Excluded)
	SortResults(found, opts.Order)

	var hist []model.Result
	if opts.HistoryLimit > 0 && q.HasTokens() {
		hist = searchHistory(s, q, opts)
	}

	out := make([]model.Result, 0, len(direct)+len(hist)+len(found))
	out = append(out, dedupe(direct)...)
	out = append(out, hist...)
	out = append(out, found...)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func segmentLine(seg Segment, current model.LineNumber) model.LineNumber {
	if seg.LineNumber != nil {
		return model.Assigned(*seg.LineNumber)
	}
	return current
}

// matchSegment: every token must be a substring of name+supplier+comment+code and the
// inferred weight must fall in the gram range, if one was given.
func matchSegment(s *Session, seg Segment, line model.LineNumber) []model.Result {
	idx := s.Index()
	positions, indexed := idx.candidates(seg.Tokens)
	if !indexed {
		positions = make([]int, len(s.Articles))
		for i := range positions {
			positions[i] = i
		}
	}

	var out []model.Result
	for _, i := range positions {
		if !idx.matchesTokens(i, seg.Tokens) {
			continue
		}
		a := s.Articles[i]
		w := articleWeight(a, s.Weights)
		if seg.HasRange() {
			g := math.Round(w*1e6) / 1e3
			if g < float64(*seg.RangeMin) || g > float64(*seg.RangeMax) {
				continue
			}
		}
		out = append(out, candidate(a, w, line))
	}
	return out
}

func candidate(a model.Article, weight float64, line model.LineNumber) model.Result {
	return model.Result{
		Article:          a,
		LineNumber:       line,
		CalculatedWeight: weight,
		PricePerKg:       perKg(a.Price, weight),
	}
}

// directResult builds a result straight from a weight-table row; prices wait for manual entry.
func directResult(s *Session, code string, line model.LineNumber) (model.Result, bool) {
	if s.Weights == nil {
		return model.Result{}, false
	}
	e, ok := s.Weights.Get(code)
	if !ok {
		return model.Result{}, false
	}
	a := model.Article{
		ID:          syntheticID("code", code),
		Code:        code,
		Name:        e.Name,
		Unit:        e.Unit,
		Supplier:    e.Supplier,
		Source:      WeightDatabaseSource,
		TarifniBroj: e.TarifniBroj,
		PdvStopa:    e.PdvStopa,
		Weight:      e.WeightKg,
	}
	return model.Result{Article: a, LineNumber: line, CalculatedWeight: e.WeightKg}, true
}

// HistoryID is the stable synthetic id of the i-th historical price.
func HistoryID(i int, h model.HistoricalPrice) int {
	return syntheticID("history", strconv.Itoa(i)+"|"+h.Code)
}

func historyArticle(i int, h model.HistoricalPrice) model.Article {
	return model.Article{
		ID:     HistoryID(i, h),
		Code:   h.Code,
		Name:   h.Name,
		Unit:   h.Unit,
		Price:  h.Price,
		Source: HistorySource,
		Date:   h.Date,
	}
}

// searchHistory: every token must be contained in the entry's name or code.
func searchHistory(s *Session, q ParsedQuery, opts SearchOptions) []model.Result {
	var out []model.Result
	seen := make(map[model.ResultKey]struct{})
	for _, seg := range q.Segments {
		if len(seg.Tokens) == 0 || seg.IsDirect() {
			continue
		}
		line := segmentLine(seg, opts.CurrentLine)
		for i, h := range s.History {
			if !historyMatches(h, seg.Tokens) {
				continue
			}
			a := historyArticle(i, h)
			if s.IsExcluded(a.ID) {
				continue
			}
			w := articleWeight(a, s.Weights)
			r := candidate(a, w, line)
			r.FromHistory = true
			if _, dup := seen[r.Key()]; dup {
				continue
			}
			seen[r.Key()] = struct{}{}
			out = append(out, r)
			if len(out) >= opts.HistoryLimit {
				return out
			}
		}
	}
	return out
}

func historyMatches(h model.HistoricalPrice, tokens []string) bool {
	name, code := strings.ToLower(h.Name), strings.ToLower(h.Code)
	for _, t := range tokens {
		if !strings.Contains(name, t) && !strings.Contains(code, t) {
			return false
		}
	}
	return true
}

// dedupe keeps the first result per (id, line).
func dedupe(rs []model.Result) []model.Result {
	seen := make(map[model.ResultKey]struct{}, len(rs))
	out := rs[:0:0]
	for _, r := range rs {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// latestPerCode keeps, per code and line, the most recently dated row. Rows without a code stay.
func latestPerCode(rs []model.Result) []model.Result {
	type codeLine struct {
		code string
		line model.LineNumber
	}
	at := make(map[codeLine]int)
	out := rs[:0:0]
	for _, r := range rs {
		if r.Code == "" {
			out = append(out, r)
			continue
		}
		k := codeLine{code: r.Code, line: r.LineNumber}
		if j, ok := at[k]; ok {
			if parseDate(r.Date).After(parseDate(out[j].Date)) {
				out[j] = r
			}
			continue
		}
		at[k] = len(out)
		out = append(out, r)
	}
	return out
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "02.01.2006", "02.01.2006."}

// parseDate returns the zero time (treated as the epoch) for empty or unknown dates.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func filterVisible(rs []model.Result, opts SearchOptions, table WeightLookup) []model.Result {
	if !opts.HideOurs && !opts.HideRoto {
		return rs
	}
	roto := strings.ToLower(strings.TrimSpace(opts.RotoSupplier))
	out := rs[:0:0]
	for _, r := range rs {
		ours := Classify(r.Source, r.Code, table) == Ours
		if opts.HideOurs && ours {
			continue
		}
		if opts.HideRoto && !ours && roto != "" && strings.Contains(strings.ToLower(r.Supplier), roto) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func dropExcluded(rs []model.Result, excluded map[int]struct{}) []model.Result {
	if len(excluded) == 0 {
		return rs
	}
	out := rs[:0:0]
	for _, r := range rs {
		if _, ok := excluded[r.ID]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CandidateRef points at something a result can be built from: a catalog article, a
// historical price (negative id) or a weight-table code.
type CandidateRef struct {
	ID   int              `json:"id"`
	Code string           `json:"code,omitempty"`
	Line model.LineNumber `json:"lineNumber"`
}

// ResolveCandidate rebuilds the search candidate a reference points at.
func ResolveCandidate(s *Session, ref CandidateRef) (model.Result, error) {
	if ref.ID > 0 {
		a, ok := s.Article(ref.ID)
		if !ok {
			return model.Result{}, fmt.Errorf("article %d: %w", ref.ID, ErrArticleNotFound)
		}
		return candidate(a, articleWeight(a, s.Weights), ref.Line), nil
	}
	if ref.ID < 0 {
		for i, h := range s.History {
			if HistoryID(i, h) != ref.ID {
				continue
			}
			a := historyArticle(i, h)
			r := candidate(a, articleWeight(a, s.Weights), ref.Line)
			r.FromHistory = true
			return r, nil
		}
	}
	code := strings.TrimSpace(ref.Code)
	if code == "" {
		return model.Result{}, fmt.Errorf("id %d: %w", ref.ID, ErrArticleNotFound)
	}
	r, ok := directResult(s, code, ref.Line)
	if !ok {
		return model.Result{}, fmt.Errorf("code %q: %w", code, ErrCodeNotFound)
	}
	return r, nil
}
