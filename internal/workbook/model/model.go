package model

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Article is one catalog row (stock list, supplier price list).
type Article struct {
	ID          int             `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`     // kom, kg, l ...
	Price       decimal.Decimal `json:"price"`    // per Unit
	Supplier    string          `json:"supplier"`
	Source      string          `json:"source"`   // sheet / file the row came from
	Date        string          `json:"date"`     // ISO or empty
	Comment     string          `json:"comment,omitempty"`
	TarifniBroj string          `json:"tarifniBroj,omitempty"`
	PdvStopa    float64         `json:"pdvStopa,omitempty"`
	Weight      float64         `json:"weight,omitempty"` // backfilled from the weight table
}

// VatRate returns the explicit VAT percent, else the one implied by the tariff code, else 0.
func (a Article) VatRate() float64 {
	if a.PdvStopa > 0 {
		return a.PdvStopa
	}
	return VatFromTariff(a.TarifniBroj)
}

// VatFromTariff maps tariff codes carrying a rate ("5", "13", "25", "PDV 5%") to that rate.
func VatFromTariff(tb string) float64 {
	tb = strings.TrimSpace(strings.ToUpper(tb))
	tb = strings.TrimPrefix(tb, "PDV")
	tb = strings.TrimSpace(strings.TrimSuffix(tb, "%"))
	switch tb {
	case "5", "13", "25":
		v, _ := strconv.ParseFloat(tb, 64)
		return v
	}
	return 0
}

// WeightEntry is one row of the weight lookup table, keyed by Code.
type WeightEntry struct {
	Code        string  `json:"code" gorm:"primaryKey;size:64"`
	WeightKg    float64 `json:"weightKg"`
	Group       string  `json:"group,omitempty"`
	Name        string  `json:"name,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	TarifniBroj string  `json:"tarifniBroj,omitempty"`
	PdvStopa    float64 `json:"pdvStopa,omitempty"`
	Supplier    string  `json:"supplier,omitempty"`
}

// HistoricalPrice is a previously contracted item (the historical lane of search).
type HistoricalPrice struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Unit  string          `json:"unit"`
	Price decimal.Decimal `json:"price"`
	Date  string          `json:"date,omitempty"`
}

// WorksheetLine is one numbered item of the procurement worksheet (troškovnik).
type WorksheetLine struct {
	LineNumber          int             `json:"lineNumber"`
	Name                string          `json:"name"`
	Unit                string          `json:"unit"`
	Weight              float64         `json:"weight"` // 0: never rescale by weight
	RequestedQuantity   float64         `json:"requestedQuantity"`
	OutputPrice         decimal.Decimal `json:"outputPrice"`
	PurchasePrice1      decimal.Decimal `json:"purchasePrice1"`
	PurchasePrice2      decimal.Decimal `json:"purchasePrice2"`
	Supplier1           string          `json:"supplier1"`
	Supplier2           string          `json:"supplier2"`
	LowestPurchasePrice decimal.Decimal `json:"lowestPurchasePrice"`
	MarginPercent       decimal.Decimal `json:"marginPercent"`
	RucPerKg            decimal.Decimal `json:"rucPerKg"`
	FoundResultsCount   int             `json:"foundResultsCount"`
	Comment             string          `json:"comment,omitempty"`
}

// Recalculate refreshes LowestPurchasePrice, MarginPercent and RucPerKg from the prices.
func (l *WorksheetLine) Recalculate() {
	l.LowestPurchasePrice = lowestPositive(l.PurchasePrice1, l.PurchasePrice2)

	// an unpriced line has no margin yet, not -100 %
	l.MarginPercent = decimal.Zero
	if l.LowestPurchasePrice.IsPositive() && l.OutputPrice.IsPositive() {
		l.MarginPercent = l.OutputPrice.Sub(l.LowestPurchasePrice).
			Div(l.LowestPurchasePrice).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	l.RucPerKg = decimal.Zero
	if l.Weight > 0 {
		l.RucPerKg = l.OutputPrice.Sub(l.PurchasePrice1).
			Div(decimal.NewFromFloat(l.Weight)).
			Round(4)
	}
}

func lowestPositive(a, b decimal.Decimal) decimal.Decimal {
	switch {
	case a.IsPositive() && b.IsPositive():
		return decimal.Min(a, b)
	case a.IsPositive():
		return a
	case b.IsPositive():
		return b
	}
	return decimal.Zero
}

// PriceType tells how a manually entered price was meant.
type PriceType string

const (
	PriceNone  PriceType = ""
	PricePiece PriceType = "piece"
	PriceKg    PriceType = "kg"
)

// ResultKey is the uniqueness key of a Result.
type ResultKey struct {
	ID   int        `json:"id"`
	Line LineNumber `json:"lineNumber"`
}

func (k ResultKey) String() string { return strconv.Itoa(k.ID) + "@" + k.Line.String() }

// Result is an article assigned (or pending assignment) to a worksheet line.
// It holds a copy of the article, never a reference.
type Result struct {
	Article
	LineNumber       LineNumber      `json:"lineNumber"`
	CalculatedWeight float64         `json:"calculatedWeight"`
	WeightOverridden bool            `json:"weightOverridden,omitempty"`
	IsFirstChoice    bool            `json:"isFirstChoice"`
	HasUserPrice     bool            `json:"hasUserPrice"`
	UserPriceType    PriceType       `json:"userPriceType,omitempty"`
	PricePerPiece    decimal.Decimal `json:"pricePerPiece"`
	PricePerKg       decimal.Decimal `json:"pricePerKg"`
	CustomPdvStopa   float64         `json:"customPdvStopa,omitempty"`
	FromHistory      bool            `json:"fromHistory,omitempty"`
}

func (r Result) Key() ResultKey { return ResultKey{ID: r.ID, Line: r.LineNumber} }

// ClearPrice drops everything the user typed for this result.
func (r *Result) ClearPrice() {
	r.HasUserPrice = false
	r.UserPriceType = PriceNone
	r.PricePerPiece = decimal.Zero
	r.PricePerKg = decimal.Zero
}

// SupplierLabel is the "supplier (source)" text written into the worksheet supplier columns.
func (a Article) SupplierLabel() string {
	s, src := strings.TrimSpace(a.Supplier), strings.TrimSpace(a.Source)
	switch {
	case s == "":
		return src
	case src == "":
		return s
	}
	return s + " (" + src + ")"
}
