package service

import (
	"strings"

	"troskovnik-service/internal/workbook/model"
)

// WeightLookup is the read side of the weight table, keyed by product code.
type WeightLookup interface {
	Get(code string) (model.WeightEntry, bool)
	Has(code string) bool
}

// Origin says whether an article comes from our own stock lists or from an external supplier.
type Origin int

const (
	External Origin = iota
	Ours
)

func (o Origin) String() string {
	if o == Ours {
		return "ours"
	}
	return "external"
}

// WeightDatabaseSource is the source of results built straight from a weight table row.
const WeightDatabaseSource = "Weight database"

// Classify is the single place that decides "ours" vs "external".
// A source mentioning lager/urpd is ours; so is a weight-table synthesized row whose code is in the table.
func Classify(source, code string, table WeightLookup) Origin {
	src := strings.ToLower(source)
	if strings.Contains(src, "lager") || strings.Contains(src, "urpd") {
		return Ours
	}
	if code != "" && table != nil && table.Has(code) && strings.Contains(src, "weight database") {
		return Ours
	}
	return External
}

func classifyArticle(a model.Article, table WeightLookup) Origin {
	return Classify(a.Source, a.Code, table)
}
