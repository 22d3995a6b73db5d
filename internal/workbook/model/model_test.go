package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineNumberJSON(t *testing.T) {
	b, err := json.Marshal(ResultKey{ID: 3, Line: Assigned(12)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"lineNumber":12}`, string(b))

	b, err = json.Marshal(ResultKey{ID: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"lineNumber":"PENDING"}`, string(b))

	for in, want := range map[string]LineNumber{
		`5`:         Assigned(5),
		`"7"`:       Assigned(7),
		`"pending"`: Pending,
		`null`:      Pending,
		`""`:        Pending,
		`0`:         Pending,
	} {
		var l LineNumber
		require.NoError(t, json.Unmarshal([]byte(in), &l), in)
		assert.Equal(t, want, l, in)
	}

	var l LineNumber
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &l))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &l))
}

func TestLineNumberCompare(t *testing.T) {
	assert.Equal(t, -1, Assigned(1).Compare(Assigned(2)))
	assert.Equal(t, 0, Assigned(2).Compare(Assigned(2)))
	assert.Equal(t, -1, Assigned(99).Compare(Pending))
	assert.Equal(t, 1, Pending.Compare(Assigned(1)))
	assert.Equal(t, 0, Pending.Compare(Pending))
	assert.Equal(t, Pending, Assigned(-4))
	assert.Equal(t, "PENDING", Pending.String())

	n, ok := Assigned(8).Number()
	assert.True(t, ok)
	assert.Equal(t, 8, n)

	l, err := ParseLineNumber("14.")
	require.NoError(t, err)
	assert.Equal(t, Assigned(14), l)
}

func TestRecalculateMarginAndRuc(t *testing.T) {
	l := WorksheetLine{
		Weight:         2,
		OutputPrice:    decimal.RequireFromString("5.00"),
		PurchasePrice1: decimal.RequireFromString("3.00"),
	}
	l.Recalculate()
	assert.True(t, l.RucPerKg.Equal(decimal.NewFromInt(1)), l.RucPerKg.String())
	assert.True(t, l.LowestPurchasePrice.Equal(decimal.NewFromInt(3)))
	assert.True(t, l.MarginPercent.Equal(decimal.RequireFromString("66.67")), l.MarginPercent.String())

	l.PurchasePrice2 = decimal.RequireFromString("2.50")
	l.Weight = 0
	l.Recalculate()
	assert.True(t, l.LowestPurchasePrice.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, l.MarginPercent.Equal(decimal.NewFromInt(100)))
	assert.True(t, l.RucPerKg.IsZero())

	unpriced := WorksheetLine{Weight: 1, PurchasePrice1: decimal.RequireFromString("3.00")}
	unpriced.Recalculate()
	assert.True(t, unpriced.MarginPercent.IsZero(), unpriced.MarginPercent.String())
	assert.True(t, unpriced.LowestPurchasePrice.Equal(decimal.NewFromInt(3)))
}

func TestVatFromTariff(t *testing.T) {
	assert.Equal(t, 5.0, VatFromTariff("PDV 5%"))
	assert.Equal(t, 25.0, VatFromTariff(" 25 "))
	assert.Equal(t, 13.0, Article{TarifniBroj: "13"}.VatRate())
	assert.Equal(t, 0.0, VatFromTariff("2106"))
	assert.Equal(t, 25.0, Article{PdvStopa: 25, TarifniBroj: "5"}.VatRate())
}

func TestResultCopiesArticle(t *testing.T) {
	a := Article{ID: 1, Name: "Ajvar", Supplier: "Podravka", Source: "Metro"}
	r := Result{Article: a, PricePerPiece: decimal.NewFromInt(3), HasUserPrice: true, UserPriceType: PricePiece}
	r.Name = "changed"
	assert.Equal(t, "Ajvar", a.Name)

	r.ClearPrice()
	assert.False(t, r.HasUserPrice)
	assert.Equal(t, PriceNone, r.UserPriceType)
	assert.True(t, r.PricePerPiece.IsZero())

	assert.Equal(t, "Podravka (Metro)", a.SupplierLabel())
	assert.Equal(t, "Metro", Article{Source: "Metro"}.SupplierLabel())
	assert.Equal(t, "Podravka", Article{Supplier: "Podravka"}.SupplierLabel())
}
