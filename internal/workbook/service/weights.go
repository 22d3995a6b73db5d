package service

import (
	"context"
	"strings"

	"troskovnik-service/internal/utils"
	"troskovnik-service/internal/workbook/model"
)

// WeightEditor applies a weight-table edit. Local state must change before Update returns;
// any remote write happens in the background.
type WeightEditor interface {
	Update(ctx context.Context, e model.WeightEntry) model.WeightEntry
}

// EditWeight sets the weight of one code from user text ("0,5", "500 g", "1.2kg") and
// backfills articles and results that carry the code.
func (a *Assigner) EditWeight(ctx context.Context, s *Session, ed WeightEditor, code, raw string) (model.WeightEntry, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.WeightEntry{}, &InvalidInputError{Field: "code", Value: code, Reason: "required"}
	}
	kg := ParseWeight(raw)
	if kg <= 0 {
		// plain number of kilograms
		var ok bool
		if kg, ok = utils.ParseFloatHR(raw); !ok {
			return model.WeightEntry{}, &InvalidInputError{Field: "weight", Value: raw, Reason: "not a weight"}
		}
	}
	if kg < 0 {
		return model.WeightEntry{}, &InvalidInputError{Field: "weight", Value: raw, Reason: "must not be negative"}
	}

	e := model.WeightEntry{Code: code}
	if s.Weights != nil {
		if cur, ok := s.Weights.Get(code); ok {
			e = cur
		}
	}
	if e.Name == "" {
		for _, art := range s.Articles {
			if art.Code == code {
				e.Name, e.Unit, e.Supplier = art.Name, art.Unit, art.Supplier
				break
			}
		}
	}
	e.WeightKg = kg

	e = ed.Update(ctx, e)
	a.logger.Debug().Str("code", code).Float64("kg", kg).Msg("weight edited")
	a.RefreshWeights(s)
	return e, nil
}
