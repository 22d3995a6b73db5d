package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"troskovnik-service/internal/workbook/model"
)

func names(rs []model.Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestSearchWeightFirstOrder(t *testing.T) {
	s := NewSession(table{})
	s.SetCatalog([]model.Article{
		art(1, "Ajvar A 500g", "kom", "2", "Metro", "Metro"),
		art(2, "Ajvar B staklenka", "kom", "1", "Metro", "Metro"),
		art(3, "Ajvar C 1kg", "kom", "3", "Metro", "Metro"),
	})

	got := Search(s, ParseQuery("ajvar"), DefaultSearchOptions())
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Ajvar C 1kg", "Ajvar A 500g", "Ajvar B staklenka"}, names(got))
	assert.True(t, got[1].PricePerKg.Equal(dec("4")))
	assert.True(t, got[2].PricePerKg.IsZero())
	for _, r := range got {
		assert.True(t, r.LineNumber.IsPending())
	}
}

func TestSearchLineFirstOrder(t *testing.T) {
	s := NewSession(table{})
	s.SetCatalog([]model.Article{
		art(1, "Ajvar 1kg", "kom", "3", "", "Metro"),
		art(2, "Ajvar 500g", "kom", "1", "", "Metro"),
	})
	opts := DefaultSearchOptions()
	opts.Order = SortLineFirst

	got := Search(s, ParseQuery("3. ajvar * 1. ajvar"), opts)
	require.Len(t, got, 4)
	for i, want := range []int{1, 1, 3, 3} {
		n, _ := got[i].LineNumber.Number()
		assert.Equal(t, want, n)
	}
	assert.Equal(t, "Ajvar 500g", got[0].Name, "cheaper per kg first within a line")
}

func TestSearchRangeFilter(t *testing.T) {
	s := NewSession(table{})
	s.SetCatalog([]model.Article{
		art(1, "Ajvar 500g", "kom", "2", "", ""),
		art(2, "Ajvar 1kg", "kom", "3", "", ""),
		art(3, "Ajvar", "kom", "1", "", ""),
	})
	got := Search(s, ParseQuery("ajvar 400-600"), DefaultSearchOptions())
	assert.Equal(t, []string{"Ajvar 500g"}, names(got))

	got = Search(s, ParseQuery("ajvar 500-1000"), DefaultSearchOptions())
	assert.Len(t, got, 2, "bounds are inclusive")
}

func TestSearchMatchesSupplierCommentAndCode(t *testing.T) {
	s := NewSession(table{})
	a := art(1, "Paprika", "kg", "2", "Podravka", "")
	a.Comment = "ljuta"
	a.Code = "PP-9"
	s.SetCatalog([]model.Article{a})

	for _, q := range []string{"podravka", "LJUTA", "pp-9", "paprika podr", "ka"} {
		assert.Len(t, Search(s, ParseQuery(q), DefaultSearchOptions()), 1, q)
	}
	assert.Empty(t, Search(s, ParseQuery("paprika slatka"), DefaultSearchOptions()))
}

func TestSearchDirectCode(t *testing.T) {
	s := NewSession(table{"A45": {Code: "A45", Name: "Mlijeko 1l", Unit: "kom", WeightKg: 1.03, PdvStopa: 5}})
	s.SetCatalog([]model.Article{art(1, "A45 lookalike (a45)", "kom", "1", "", "")})

	got := Search(s, ParseQuery("12. (A45)"), DefaultSearchOptions())
	require.Len(t, got, 1)
	r := got[0]
	assert.Equal(t, "Mlijeko 1l", r.Name)
	assert.Equal(t, WeightDatabaseSource, r.Source)
	assert.Equal(t, model.Assigned(12), r.LineNumber)
	assert.Equal(t, 1.03, r.CalculatedWeight)
	assert.True(t, r.Price.IsZero())
	assert.Less(t, r.ID, 0)

	assert.Empty(t, Search(s, ParseQuery("(ZZZ)"), DefaultSearchOptions()), "unknown code never falls back")

	opts := DefaultSearchOptions()
	opts.CurrentLine = model.Assigned(4)
	got = Search(s, ParseQuery("(A45)"), opts)
	require.Len(t, got, 1)
	assert.Equal(t, model.Assigned(4), got[0].LineNumber)
}

func TestSearchHistoryLane(t *testing.T) {
	s := NewSession(table{})
	s.SetCatalog([]model.Article{art(1, "Ajvar 1kg", "kom", "3", "", "Metro")})
	for i := 0; i < 7; i++ {
		s.History = append(s.History, model.HistoricalPrice{Code: fmt.Sprintf("H%d", i), Name: "Ajvar stari", Unit: "kom", Price: dec("2")})
	}

	got := Search(s, ParseQuery("ajvar"), DefaultSearchOptions())
	require.Len(t, got, 6)
	for _, r := range got[:5] {
		assert.True(t, r.FromHistory)
		assert.Equal(t, HistorySource, r.Source)
	}
	assert.False(t, got[5].FromHistory)

	got = Search(s, ParseQuery("h3"), DefaultSearchOptions())
	require.Len(t, got, 1, "history matches on code")
	assert.Equal(t, "H3", got[0].Code)

	got = Search(s, ParseQuery("5."), DefaultSearchOptions())
	require.Len(t, got, 1, "no history lane without tokens")
	assert.False(t, got[0].FromHistory)

	got = Search(s, ParseQuery("ajvar"), BulkSearchOptions())
	require.Len(t, got, 6, "bulk keeps the history lane and its own cap")
	assert.True(t, got[0].FromHistory)
}

func TestSearchDedupeAndLatestPerCode(t *testing.T) {
	s := NewSession(table{})
	old := art(1, "Ajvar", "kom", "2", "", "Metro")
	old.Code, old.Date = "K1", "2023-01-01"
	newer := art(2, "Ajvar", "kom", "3", "", "Metro")
	newer.Code, newer.Date = "K1", "2024-05-01"
	undated := art(3, "Ajvar", "kom", "1", "", "Metro")
	undated.Code = "K1"
	s.SetCatalog([]model.Article{old, newer, undated})

	assert.Len(t, Search(s, ParseQuery("ajvar * ajvar"), DefaultSearchOptions()), 3)

	opts := DefaultSearchOptions()
	opts.LatestPerCode = true
	got := Search(s, ParseQuery("ajvar"), opts)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestSearchVisibilityFilters(t *testing.T) {
	s := NewSession(table{})
	s.SetCatalog([]model.Article{
		art(1, "Ajvar", "kom", "2", "Podravka", "Lager Zagreb"),
		art(2, "Ajvar", "kom", "2", "Roto dinamic", "Cjenik Roto"),
		art(3, "Ajvar", "kom", "2", "Roto", "URPD"),
		art(4, "Ajvar", "kom", "2", "Metro", "Metro"),
	})
	ids := func(rs []model.Result) []int {
		var out []int
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	opts := DefaultSearchOptions()
	opts.HideOurs = true
	assert.ElementsMatch(t, []int{2, 4}, ids(Search(s, ParseQuery("ajvar"), opts)))

	opts = DefaultSearchOptions()
	opts.HideRoto = true
	assert.ElementsMatch(t, []int{1, 3, 4}, ids(Search(s, ParseQuery("ajvar"), opts)), "ours is never hidden as roto")

	s.Exclude(4)
	assert.ElementsMatch(t, []int{1, 3}, ids(Search(s, ParseQuery("ajvar"), opts)))
	s.Unexclude(4)
	assert.Len(t, Search(s, ParseQuery("ajvar"), DefaultSearchOptions()), 4)
}

func TestSearchCap(t *testing.T) {
	s := NewSession(table{})
	var arts []model.Article
	for i := 0; i < 30; i++ {
		arts = append(arts, art(i+1, fmt.Sprintf("Ajvar %d", i), "kom", "1", "", ""))
	}
	s.SetCatalog(arts)

	assert.Len(t, Search(s, ParseQuery("ajvar"), DefaultSearchOptions()), 24)
	assert.Len(t, Search(s, ParseQuery("ajvar"), BulkSearchOptions()), 30)
}

func TestSearchDoesNotTouchCatalog(t *testing.T) {
	s := NewSession(table{})
	s.SetCatalog([]model.Article{art(1, "Ajvar 1kg", "kom", "3", "", "")})

	got := Search(s, ParseQuery("ajvar"), DefaultSearchOptions())
	require.Len(t, got, 1)
	got[0].Name = "changed"
	got[0].Price = dec("99")
	assert.Equal(t, "Ajvar 1kg", s.Articles[0].Name)
	assert.True(t, s.Articles[0].Price.Equal(dec("3")))
	assert.Empty(t, s.Results)
}

func TestResolveCandidate(t *testing.T) {
	s := NewSession(table{"A45": {Code: "A45", Name: "Mlijeko"}})
	s.SetCatalog([]model.Article{art(1, "Ajvar 1kg", "kom", "3", "", "")})
	s.History = []model.HistoricalPrice{{Code: "H1", Name: "Ajvar stari", Price: dec("2")}}

	r, err := ResolveCandidate(s, CandidateRef{ID: 1, Line: model.Assigned(1)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.CalculatedWeight)
	assert.True(t, r.PricePerKg.Equal(dec("3")))

	r, err = ResolveCandidate(s, CandidateRef{ID: HistoryID(0, s.History[0])})
	require.NoError(t, err)
	assert.True(t, r.FromHistory)

	r, err = ResolveCandidate(s, CandidateRef{Code: "A45"})
	require.NoError(t, err)
	assert.Equal(t, "Mlijeko", r.Name)

	_, err = ResolveCandidate(s, CandidateRef{ID: 42})
	assert.ErrorIs(t, err, ErrArticleNotFound)
	_, err = ResolveCandidate(s, CandidateRef{Code: "nope"})
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestSearchExclusionCoversEveryLane(t *testing.T) {
	s := NewSession(table{"A45": {Code: "A45", WeightKg: 1, Name: "Ajvar ljuti"}})
	s.SetCatalog([]model.Article{art(1, "Ajvar 1kg", "kom", "3", "", "Metro")})
	s.History = []model.HistoricalPrice{{Code: "H1", Name: "Ajvar stari", Unit: "kom", Price: dec("2")}}

	direct := Search(s, ParseQuery("(A45)"), DefaultSearchOptions())
	require.Len(t, direct, 1)
	s.Exclude(direct[0].ID)
	assert.Empty(t, Search(s, ParseQuery("(A45)"), DefaultSearchOptions()))

	got := Search(s, ParseQuery("ajvar"), DefaultSearchOptions())
	require.Len(t, got, 2)
	require.True(t, got[0].FromHistory)
	s.Exclude(got[0].ID)

	got = Search(s, ParseQuery("ajvar"), BulkSearchOptions())
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}
