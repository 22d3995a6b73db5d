package service

import (
	"github.com/shopspring/decimal"

	"troskovnik-service/internal/workbook/model"
)

// RebateRow is one line of the rebate (rabat) table handed in with the tender.
type RebateRow struct {
	LineNumber    int             `json:"lineNumber"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Quantity      float64         `json:"quantity"`
	OutputPrice   decimal.Decimal `json:"outputPrice"`
	LowestPrice   decimal.Decimal `json:"lowestPrice"`
	MarginPercent decimal.Decimal `json:"marginPercent"`
	RebatePercent decimal.Decimal `json:"rebatePercent"`
	RucPerKg      decimal.Decimal `json:"rucPerKg"`
	Supplier      string          `json:"supplier"`
	VatRate       float64         `json:"vatRate"`
	Total         decimal.Decimal `json:"total"` // output price x requested quantity
}

// BuildRebateTable lists every line with a priced first choice, in line order.
func BuildRebateTable(s *Session) []RebateRow {
	rows := make([]RebateRow, 0, len(s.Lines))
	for _, l := range s.Lines {
		i := s.firstChoice(model.Assigned(l.LineNumber))
		if i < 0 || !s.Results[i].HasUserPrice || !l.OutputPrice.IsPositive() {
			continue
		}
		r := s.Results[i]
		row := RebateRow{
			LineNumber:    l.LineNumber,
			Name:          l.Name,
			Unit:          l.Unit,
			Quantity:      l.RequestedQuantity,
			OutputPrice:   l.OutputPrice,
			LowestPrice:   l.LowestPurchasePrice,
			MarginPercent: l.MarginPercent,
			RucPerKg:      l.RucPerKg,
			Supplier:      l.Supplier1,
			VatRate:       resultVat(r),
			Total:         l.OutputPrice.Mul(decimal.NewFromFloat(l.RequestedQuantity)).Round(2),
		}
		if l.LowestPurchasePrice.IsPositive() {
			row.RebatePercent = l.OutputPrice.Sub(l.LowestPurchasePrice).
				Div(l.OutputPrice).
				Mul(decimal.NewFromInt(100)).
				Round(2)
		}
		rows = append(rows, row)
	}
	return rows
}

func resultVat(r model.Result) float64 {
	if r.CustomPdvStopa > 0 {
		return r.CustomPdvStopa
	}
	if v := r.VatRate(); v > 0 {
		return v
	}
	return DefaultVatRate
}
