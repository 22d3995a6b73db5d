package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"troskovnik-service/internal/workbook/model"
)

func TestParseWeight(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"Kompot 3/1 jagoda 2550/1000g", 2.55},
		{"Ulje 1l 500ml bonus", 1.0},
		{"Ajvar 20 kg", 20},
		{"Sok 0,5 l", 0.5},
		{"Brašno 1 t", 1000},
		{"Paprika 300gr", 0.3},
		{"Paprika 300 G", 0.3},
		{"Grah 2,5 KG vreća", 2.5},
		{"Kompot 3/1", 3},
		{"Tuna 1000/650 ml", 1},
		{"Čaj 20 vrećica", 0},
		{"Sok jabuka 6x1,5l", 1.5},
		{"Sok jabuka 1,5l", 1.5},
		{"Voda 6x0,5 l", 0.5},
		{"Kompot 2.3/1", 2.3},
		{"", 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, ParseWeight(c.text), 1e-9, c.text)
	}
}

func TestInferWeightTablePriorityForOurs(t *testing.T) {
	tbl := table{
		"X1": {Code: "X1", WeightKg: 0.3},
		"X0": {Code: "X0", WeightKg: 0},
	}

	assert.Equal(t, 0.3, InferWeight(tbl, "Paprika 500g", "kom", "X1", "Lager Zagreb"))
	assert.Equal(t, 0.0, InferWeight(tbl, "Paprika 500g", "kom", "X0", "URPD lista"))
	// external articles ignore the table even when the code is there
	assert.Equal(t, 0.5, InferWeight(tbl, "Paprika 500g", "kom", "X1", "Metro"))
	// rows built from the table itself count as ours
	assert.Equal(t, 0.3, InferWeight(tbl, "Paprika 500g", "kom", "X1", WeightDatabaseSource))
}

func TestInferWeightUnitKg(t *testing.T) {
	assert.Equal(t, 1.0, InferWeight(table{}, "Jabuke", "kg", "", "Metro"))
	assert.Equal(t, 1.0, InferWeight(nil, "Jabuke", " KG ", "", ""))
	assert.Equal(t, 0.0, InferWeight(table{}, "Jabuke", "kg", "", "Lager"), "ours never assumes 1 kg")
	assert.Equal(t, 0.0, InferWeight(table{}, "Jabuke", "kom", "", "Metro"))
	assert.Equal(t, 5.0, InferWeight(table{}, "Jabuke 5kg", "kg", "", "Metro"), "text wins over the unit")
}

func TestClassify(t *testing.T) {
	tbl := table{"A45": {Code: "A45"}}
	assert.Equal(t, Ours, Classify("Lager Split", "", nil))
	assert.Equal(t, Ours, Classify("urpd", "", nil))
	assert.Equal(t, Ours, Classify(WeightDatabaseSource, "A45", tbl))
	assert.Equal(t, External, Classify(WeightDatabaseSource, "B1", tbl))
	assert.Equal(t, External, Classify("Metro", "A45", tbl))
	assert.Equal(t, "ours", Ours.String())
	assert.Equal(t, "external", External.String())
}

func TestBackfillWeightsFromTable(t *testing.T) {
	s := NewSession(table{"K1": {Code: "K1", WeightKg: 0.7, PdvStopa: 5, TarifniBroj: "5"}})
	s.SetCatalog([]model.Article{{Code: "K1", Name: "Keks", Source: "Lager"}, {Code: "K2", Name: "Keks"}})

	assert.Equal(t, 1, s.Articles[0].ID)
	assert.Equal(t, 2, s.Articles[1].ID)
	assert.Equal(t, 0.7, s.Articles[0].Weight)
	assert.Equal(t, 5.0, s.Articles[0].PdvStopa)
	assert.Equal(t, 0.0, s.Articles[1].Weight)
}
