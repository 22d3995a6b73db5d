package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"troskovnik-service/internal/workbook/model"
)

func TestBuildRebateTable(t *testing.T) {
	s := ajvarBook(t)
	a := newTestAssigner()
	ctx := context.Background()

	_, err := a.Add(ctx, s, AddRequest{Candidate: candidateFor(s, 1, model.Assigned(1)), Price: decPtr("5")})
	require.NoError(t, err)
	_, err = a.Add(ctx, s, AddRequest{Candidate: candidateFor(s, 2, model.Assigned(2))})
	require.NoError(t, err)

	rows := BuildRebateTable(s)
	require.Len(t, rows, 1, "line 2 has no priced first choice")
	r := rows[0]
	assert.Equal(t, 1, r.LineNumber)
	assert.True(t, r.OutputPrice.Equal(dec("10")))
	assert.True(t, r.LowestPrice.Equal(dec("6")))
	assert.True(t, r.RebatePercent.Equal(dec("40")), r.RebatePercent.String())
	assert.True(t, r.Total.Equal(dec("100")), r.Total.String())
	assert.Equal(t, 25.0, r.VatRate)
	assert.Equal(t, "Podravka (Metro)", r.Supplier)
}

func TestResultVat(t *testing.T) {
	assert.Equal(t, 13.0, resultVat(model.Result{CustomPdvStopa: 13, Article: model.Article{PdvStopa: 5}}))
	assert.Equal(t, 5.0, resultVat(model.Result{Article: model.Article{PdvStopa: 5}}))
	assert.Equal(t, 5.0, resultVat(model.Result{Article: model.Article{TarifniBroj: "PDV 5%"}}))
	assert.Equal(t, DefaultVatRate, resultVat(model.Result{}))
}

func TestNotifierRunsStagesInOrder(t *testing.T) {
	var calls []string
	n := NewNotifier()
	n.Subscribe(StageRebateTable, func(*Session) { calls = append(calls, "rebate") })
	n.Subscribe(StageWorksheetView, func(*Session) { calls = append(calls, "worksheet") })
	n.Subscribe(StageResultsView, func(*Session) { calls = append(calls, "results") })
	n.Subscribe(StageResultsView, func(*Session) { calls = append(calls, "results-2") })
	n.Subscribe(Stage(9), func(*Session) { calls = append(calls, "ignored") })

	s := ajvarBook(t)
	a := NewAssigner(SortWeightFirst, FixedVat(25), n, zerolog.Nop())
	_, err := a.Add(context.Background(), s, AddRequest{Candidate: candidateFor(s, 1, model.Assigned(1))})
	require.NoError(t, err)
	assert.Equal(t, []string{"results", "results-2", "worksheet", "rebate"}, calls)

	var nilNotifier *Notifier
	assert.NotPanics(t, func() { nilNotifier.Notify(s) })
}

func TestSortResultsLineFirstPendingLast(t *testing.T) {
	rs := []model.Result{
		{Article: model.Article{Name: "p"}, LineNumber: model.Pending, CalculatedWeight: 1, PricePerKg: dec("1")},
		{Article: model.Article{Name: "b"}, LineNumber: model.Assigned(2), CalculatedWeight: 0},
		{Article: model.Article{Name: "a"}, LineNumber: model.Assigned(2), CalculatedWeight: 1, PricePerKg: dec("9")},
		{Article: model.Article{Name: "c"}, LineNumber: model.Assigned(1)},
	}
	SortResults(rs, SortLineFirst)
	assert.Equal(t, []string{"c", "a", "b", "p"}, names(rs))
	assert.Equal(t, SortLineFirst, ParseSortOrder(" LINE "))
	assert.Equal(t, SortWeightFirst, ParseSortOrder("anything"))
}

func TestSortResultsCroatianCollation(t *testing.T) {
	rs := []model.Result{
		{Article: model.Article{Name: "Džem"}, LineNumber: model.Assigned(1)},
		{Article: model.Article{Name: "čokolada"}, LineNumber: model.Assigned(1)},
		{Article: model.Article{Name: "Cikla"}, LineNumber: model.Assigned(1)},
		{Article: model.Article{Name: "Ćevapi"}, LineNumber: model.Assigned(1)},
		{Article: model.Article{Name: "Dinja"}, LineNumber: model.Assigned(1)},
	}
	SortResults(rs, SortWeightFirst)
	assert.Equal(t, []string{"Cikla", "čokolada", "Ćevapi", "Dinja", "Džem"}, names(rs))
}

func TestIndexAgreesWithScan(t *testing.T) {
	arts := []model.Article{
		{Name: "Ajvar blagi", Supplier: "Podravka"},
		{Name: "Ajvar ljuti", Code: "AJ-2"},
		{Name: "Paprika", Comment: "ajvar sirovina"},
		{Name: "Šećer"},
	}
	idx := BuildIndex(arts)
	for _, tokens := range [][]string{{"ajvar"}, {"ajvar", "ljut"}, {"aj-2"}, {"šeć"}, {"sirov", "prik"}, {"nema"}} {
		var want []int
		for i := range arts {
			if idx.matchesTokens(i, tokens) {
				want = append(want, i)
			}
		}
		pos, ok := idx.candidates(tokens)
		require.True(t, ok)
		var got []int
		for _, i := range pos {
			if idx.matchesTokens(i, tokens) {
				got = append(got, i)
			}
		}
		assert.Equal(t, want, got, tokens)
	}
	_, ok := idx.candidates([]string{"aj"})
	assert.False(t, ok, "short tokens scan everything")
}
