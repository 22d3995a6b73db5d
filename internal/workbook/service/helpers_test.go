package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"troskovnik-service/internal/workbook/model"
)

// table is an in-memory weight table.
type table map[string]model.WeightEntry

func (t table) Get(code string) (model.WeightEntry, bool) {
	e, ok := t[code]
	return e, ok
}

func (t table) Has(code string) bool {
	_, ok := t[code]
	return ok
}

func (t table) Update(_ context.Context, e model.WeightEntry) model.WeightEntry {
	t[e.Code] = e
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func art(id int, name, unit, price, supplier, source string) model.Article {
	return model.Article{ID: id, Name: name, Unit: unit, Price: dec(price), Supplier: supplier, Source: source}
}

func newTestAssigner() *Assigner {
	return NewAssigner(SortWeightFirst, FixedVat(25), NewNotifier(), zerolog.Nop())
}

// workbook builds a session with two worksheet lines: 1 weighs 2 kg, 2 has no weight.
func workbook(t *testing.T, articles ...model.Article) *Session {
	t.Helper()
	s := NewSession(table{})
	s.SetCatalog(articles)
	require.NoError(t, s.SetLines([]model.WorksheetLine{
		{LineNumber: 1, Name: "Ajvar blagi", Unit: "kom", Weight: 2, RequestedQuantity: 10},
		{LineNumber: 2, Name: "Čaj filter vrećice", Unit: "kom", Weight: 0, RequestedQuantity: 4},
	}))
	return s
}

func candidateFor(s *Session, id int, line model.LineNumber) model.Result {
	a, _ := s.Article(id)
	return candidate(a, articleWeight(a, s.Weights), line)
}

func mustResult(t *testing.T, s *Session, key model.ResultKey) model.Result {
	t.Helper()
	i := s.findResult(key)
	require.GreaterOrEqual(t, i, 0, "result %s missing", key)
	return s.Results[i]
}

// requireConsistent checks the two collection invariants: unique (id, line) keys and at most
// one first choice per assigned line.
func requireConsistent(t *testing.T, s *Session) {
	t.Helper()
	keys := make(map[model.ResultKey]struct{})
	firsts := make(map[model.LineNumber]int)
	for _, r := range s.Results {
		_, dup := keys[r.Key()]
		require.False(t, dup, "duplicate result %s", r.Key())
		keys[r.Key()] = struct{}{}
		if r.IsFirstChoice {
			require.False(t, r.LineNumber.IsPending(), "pending first choice %s", r.Key())
			firsts[r.LineNumber]++
		}
	}
	for l, n := range firsts {
		require.LessOrEqual(t, n, 1, "line %s has %d first choices", l, n)
	}
}
