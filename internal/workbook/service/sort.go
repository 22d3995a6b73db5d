package service

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"troskovnik-service/internal/workbook/model"
)

// SortOrder is the ordering policy shared by search output and the results collection.
type SortOrder string

const (
	// SortWeightFirst: weighted items first, cheapest per kg, then line, then name.
	SortWeightFirst SortOrder = "weight"
	// SortLineFirst: line number, then cheapest per kg.
	SortLineFirst SortOrder = "line"
)

// ParseSortOrder maps "line" to SortLineFirst; everything else is the default weight-first order.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(SortLineFirst)) {
		return SortLineFirst
	}
	return SortWeightFirst
}

// SortResults sorts in place; ties keep their current order.
func SortResults(rs []model.Result, order SortOrder) {
	coll := collate.New(language.Croatian, collate.IgnoreCase)
	var less func(a, b *model.Result) bool

	switch order {
	case SortLineFirst:
		less = func(a, b *model.Result) bool {
			if c := a.LineNumber.Compare(b.LineNumber); c != 0 {
				return c < 0
			}
			return comparePerKg(a, b) < 0
		}
	default:
		less = func(a, b *model.Result) bool {
			wa, wb := a.CalculatedWeight > 0, b.CalculatedWeight > 0
			if wa != wb {
				return wa
			}
			if wa {
				if c := comparePerKg(a, b); c != 0 {
					return c < 0
				}
			}
			if c := a.LineNumber.Compare(b.LineNumber); c != 0 {
				return c < 0
			}
			return coll.CompareString(a.Name, b.Name) < 0
		}
	}

	sort.SliceStable(rs, func(i, j int) bool { return less(&rs[i], &rs[j]) })
}

// comparePerKg compares price per kg, treating weightless items as +infinity.
func comparePerKg(a, b *model.Result) int {
	wa, wb := a.CalculatedWeight > 0, b.CalculatedWeight > 0
	switch {
	case !wa && !wb:
		return 0
	case !wa:
		return 1
	case !wb:
		return -1
	}
	return a.PricePerKg.Cmp(b.PricePerKg)
}

// perKg is price / weight, 0 when the weight is unknown.
func perKg(price decimal.Decimal, weightKg float64) decimal.Decimal {
	if weightKg <= 0 {
		return decimal.Zero
	}
	return price.Div(decimal.NewFromFloat(weightKg)).Round(4)
}
