package fileio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"troskovnik-service/internal/utils"
	"troskovnik-service/internal/workbook/model"
)

// ToArticles maps catalog rows. Rows without a name are skipped; source tags every article.
func ToArticles(maps []map[string]string, cols Columns, source string) []model.Article {
	hr := newHeaderResolver(maps)
	out := make([]model.Article, 0, len(maps))
	for _, rec := range maps {
		name := hr.get(rec, cols.Name)
		if name == "" || looksLikeHeader(name, cols.Name) {
			continue
		}
		price, _ := utils.ParseDecimalHR(hr.get(rec, cols.Price))
		vat := parseVat(hr.get(rec, cols.Vat))
		w, _ := utils.ParseFloatHR(hr.get(rec, cols.Weight))
		out = append(out, model.Article{
			Code:        hr.get(rec, cols.Code),
			Name:        name,
			Unit:        hr.get(rec, cols.Unit),
			Price:       price,
			Supplier:    hr.get(rec, cols.Supplier),
			Source:      source,
			Date:        NormalizeDate(hr.get(rec, cols.Date)),
			Comment:     hr.get(rec, cols.Comment),
			TarifniBroj: hr.get(rec, cols.Tariff),
			PdvStopa:    vat,
			Weight:      w,
		})
	}
	return out
}

// ToWeightEntries maps weight-table rows; rows without a code or a numeric weight are skipped.
func ToWeightEntries(maps []map[string]string, cols Columns) []model.WeightEntry {
	hr := newHeaderResolver(maps)
	out := make([]model.WeightEntry, 0, len(maps))
	for _, rec := range maps {
		code := hr.get(rec, cols.Code)
		kg, ok := utils.ParseFloatHR(hr.get(rec, cols.Weight))
		if code == "" || !ok || kg < 0 {
			continue
		}
		vat := parseVat(hr.get(rec, cols.Vat))
		out = append(out, model.WeightEntry{
			Code:        code,
			WeightKg:    kg,
			Group:       hr.get(rec, cols.Group),
			Name:        hr.get(rec, cols.Name),
			Unit:        hr.get(rec, cols.Unit),
			TarifniBroj: hr.get(rec, cols.Tariff),
			PdvStopa:    vat,
			Supplier:    hr.get(rec, cols.Supplier),
		})
	}
	return out
}

// ToLines maps worksheet rows. Rows without a positive line number (sub-headers, totals)
// are skipped; a repeated line number keeps the first row and is reported.
func ToLines(maps []map[string]string, cols Columns) ([]model.WorksheetLine, []string) {
	hr := newHeaderResolver(maps)
	var (
		out      []model.WorksheetLine
		warnings []string
	)
	seen := make(map[int]struct{})
	for _, rec := range maps {
		n, ok := parseLineNumber(hr.get(rec, cols.Line))
		if !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			warnings = append(warnings, fmt.Sprintf("line %d repeated, kept the first row", n))
			continue
		}
		seen[n] = struct{}{}
		w, _ := utils.ParseFloatHR(hr.get(rec, cols.Weight))
		if w < 0 {
			w = 0
		}
		qty, _ := utils.ParseFloatHR(hr.get(rec, cols.Quantity))
		out = append(out, model.WorksheetLine{
			LineNumber:        n,
			Name:              hr.get(rec, cols.Name),
			Unit:              hr.get(rec, cols.Unit),
			Weight:            w,
			RequestedQuantity: qty,
			Comment:           hr.get(rec, cols.Comment),
		})
	}
	return out, warnings
}

// ToHistory maps previously contracted prices.
func ToHistory(maps []map[string]string, cols Columns) []model.HistoricalPrice {
	hr := newHeaderResolver(maps)
	out := make([]model.HistoricalPrice, 0, len(maps))
	for _, rec := range maps {
		name := hr.get(rec, cols.Name)
		if name == "" || looksLikeHeader(name, cols.Name) {
			continue
		}
		price, ok := utils.ParseDecimalHR(hr.get(rec, cols.Price))
		if !ok {
			price = decimal.Zero
		}
		out = append(out, model.HistoricalPrice{
			Code:  hr.get(rec, cols.Code),
			Name:  name,
			Unit:  hr.get(rec, cols.Unit),
			Price: price,
			Date:  NormalizeDate(hr.get(rec, cols.Date)),
		})
	}
	return out
}

// parseVat reads "25", "25%" or "5,0 %"; anything else is 0.
func parseVat(s string) float64 {
	v, _ := utils.ParseFloatHR(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	return v
}

// parseLineNumber accepts "12", "12.", "12,0".
func parseLineNumber(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0
	}
	f, ok := utils.ParseFloatHR(s)
	if !ok || f <= 0 || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

var dateLayouts = []string{"2006-01-02", "02.01.2006.", "02.01.2006", "2.1.2006.", "2.1.2006", "01-02-06", time.RFC3339}

// NormalizeDate rewrites known date layouts as ISO dates; anything else is kept as is.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// looksLikeHeader catches header rows repeated inside the data (page breaks in exports).
func looksLikeHeader(v, want string) bool {
	nv := normHeaderKey(v)
	for _, a := range strings.Split(want, "|") {
		if nv == normHeaderKey(a) {
			return true
		}
	}
	return false
}
