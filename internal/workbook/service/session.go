package service

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/google/uuid"

	"troskovnik-service/internal/workbook/model"
)

// Session owns all workbook state. Components get it passed explicitly and never keep copies.
// A Session is not safe for concurrent use; callers serialize access.
type Session struct {
	ID       string
	Articles []model.Article
	Results  []model.Result
	Lines    []model.WorksheetLine // ascending by LineNumber
	History  []model.HistoricalPrice
	Weights  WeightLookup

	Selected map[model.ResultKey]struct{}
	Excluded map[int]struct{} // article ids dismissed from suggestions

	index        *Index
	byID         map[int]int
	nextManualID int
}

// manual entries get ids below the range used by synthetic (hashed) ids
const (
	manualIDBase   = -2_000_000_000
	syntheticFloor = -(1 << 30)
)

func NewSession(weights WeightLookup) *Session {
	return &Session{
		ID:           uuid.NewString(),
		Weights:      weights,
		Selected:     make(map[model.ResultKey]struct{}),
		Excluded:     make(map[int]struct{}),
		byID:         make(map[int]int),
		nextManualID: manualIDBase,
	}
}

// SetCatalog replaces the catalog. Articles without an id get their 1-based position.
func (s *Session) SetCatalog(articles []model.Article) {
	for i := range articles {
		if articles[i].ID == 0 {
			articles[i].ID = i + 1
		}
	}
	s.Articles = articles
	s.byID = make(map[int]int, len(articles))
	for i, a := range articles {
		s.byID[a.ID] = i
	}
	s.BackfillWeights()
	s.index = BuildIndex(s.Articles)
}

// Index returns the catalog index, rebuilding it when the catalog changed size.
func (s *Session) Index() *Index {
	if s.index == nil || len(s.index.hay) != len(s.Articles) {
		s.index = BuildIndex(s.Articles)
	}
	return s.index
}

func (s *Session) Article(id int) (model.Article, bool) {
	if i, ok := s.byID[id]; ok && i < len(s.Articles) && s.Articles[i].ID == id {
		return s.Articles[i], true
	}
	for _, a := range s.Articles {
		if a.ID == id {
			return a, true
		}
	}
	return model.Article{}, false
}

// BackfillWeights copies weight and VAT data from the weight table into matching articles.
func (s *Session) BackfillWeights() {
	if s.Weights == nil {
		return
	}
	for i := range s.Articles {
		a := &s.Articles[i]
		if a.Code == "" {
			continue
		}
		e, ok := s.Weights.Get(a.Code)
		if !ok {
			continue
		}
		a.Weight = e.WeightKg
		if a.PdvStopa == 0 {
			a.PdvStopa = e.PdvStopa
		}
		if a.TarifniBroj == "" {
			a.TarifniBroj = e.TarifniBroj
		}
	}
}

// Line returns the worksheet line with the given number, or nil.
func (s *Session) Line(n int) *model.WorksheetLine {
	i := sort.Search(len(s.Lines), func(i int) bool { return s.Lines[i].LineNumber >= n })
	if i < len(s.Lines) && s.Lines[i].LineNumber == n {
		return &s.Lines[i]
	}
	return nil
}

// lineFor returns the worksheet line of an assigned line number, nil for Pending or unknown.
func (s *Session) lineFor(l model.LineNumber) *model.WorksheetLine {
	n, ok := l.Number()
	if !ok {
		return nil
	}
	return s.Line(n)
}

// SetLines replaces the worksheet. Line numbers must be positive and unique.
func (s *Session) SetLines(lines []model.WorksheetLine) error {
	seen := make(map[int]struct{}, len(lines))
	for _, l := range lines {
		if l.LineNumber <= 0 {
			return &InvalidInputError{Field: "lineNumber", Value: fmt.Sprint(l.LineNumber), Reason: "must be a positive integer"}
		}
		if _, dup := seen[l.LineNumber]; dup {
			return &InvalidInputError{Field: "lineNumber", Value: fmt.Sprint(l.LineNumber), Reason: "duplicate line number"}
		}
		seen[l.LineNumber] = struct{}{}
	}
	s.Lines = append(s.Lines[:0:0], lines...)
	sort.Slice(s.Lines, func(i, j int) bool { return s.Lines[i].LineNumber < s.Lines[j].LineNumber })
	for i := range s.Lines {
		s.Lines[i].Recalculate()
		s.Lines[i].FoundResultsCount = s.countResults(s.Lines[i].LineNumber)
	}
	return nil
}

// UpsertLine inserts a line or replaces the descriptive fields of an existing one.
// Prices and suppliers of an existing line are kept.
func (s *Session) UpsertLine(in model.WorksheetLine) (*model.WorksheetLine, error) {
	if in.LineNumber <= 0 {
		return nil, &InvalidInputError{Field: "lineNumber", Value: fmt.Sprint(in.LineNumber), Reason: "must be a positive integer"}
	}
	if in.Weight < 0 {
		return nil, &InvalidInputError{Field: "weight", Value: fmt.Sprint(in.Weight), Reason: "must not be negative"}
	}
	if l := s.Line(in.LineNumber); l != nil {
		l.Name = in.Name
		l.Unit = in.Unit
		l.Weight = in.Weight
		l.RequestedQuantity = in.RequestedQuantity
		l.Comment = in.Comment
		l.Recalculate()
		return l, nil
	}
	in.FoundResultsCount = s.countResults(in.LineNumber)
	in.Recalculate()
	i := sort.Search(len(s.Lines), func(i int) bool { return s.Lines[i].LineNumber >= in.LineNumber })
	s.Lines = append(s.Lines, model.WorksheetLine{})
	copy(s.Lines[i+1:], s.Lines[i:])
	s.Lines[i] = in
	return &s.Lines[i], nil
}

func (s *Session) findResult(key model.ResultKey) int {
	for i := range s.Results {
		if s.Results[i].Key() == key {
			return i
		}
	}
	return -1
}

func (s *Session) firstChoice(l model.LineNumber) int {
	if l.IsPending() {
		return -1
	}
	for i := range s.Results {
		if s.Results[i].LineNumber == l && s.Results[i].IsFirstChoice {
			return i
		}
	}
	return -1
}

// ResultsForLine returns copies of all results assigned to a line, in collection order.
func (s *Session) ResultsForLine(l model.LineNumber) []model.Result {
	var out []model.Result
	for _, r := range s.Results {
		if r.LineNumber == l {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) countResults(n int) int {
	c := 0
	for _, r := range s.Results {
		if v, ok := r.LineNumber.Number(); ok && v == n {
			c++
		}
	}
	return c
}

func (s *Session) refreshFoundCount(l model.LineNumber) {
	if line := s.lineFor(l); line != nil {
		line.FoundResultsCount = s.countResults(line.LineNumber)
	}
}

// Exclude hides an article id from suggestions for the rest of the session.
func (s *Session) Exclude(id int) { s.Excluded[id] = struct{}{} }

func (s *Session) Unexclude(id int) { delete(s.Excluded, id) }

func (s *Session) IsExcluded(id int) bool {
	_, ok := s.Excluded[id]
	return ok
}

func (s *Session) allocManualID() int {
	s.nextManualID++
	return s.nextManualID
}

// syntheticID derives a stable negative id for rows that are not catalog articles
// (weight-table hits, historical prices), so repeated searches dedupe on (id, line).
func syntheticID(kind, key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(kind + ":" + key))
	return -int(h.Sum32()&0x3fffffff) - 1
}

// LineStatus drives the colouring of worksheet lines.
type LineStatus string

const (
	LineEmpty      LineStatus = "empty"
	LineIncomplete LineStatus = "incomplete"
	LineComplete   LineStatus = "complete"
)

// Status reports whether a line has no results, results without a priced first choice, or is complete.
func (s *Session) Status(n int) LineStatus {
	l := model.Assigned(n)
	if s.countResults(n) == 0 {
		return LineEmpty
	}
	if i := s.firstChoice(l); i >= 0 && s.Results[i].HasUserPrice {
		return LineComplete
	}
	return LineIncomplete
}
