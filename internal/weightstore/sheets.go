package weightstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"troskovnik-service/internal/utils"
	"troskovnik-service/internal/workbook/model"
)

// SheetsWriter keeps the weight table in a Google sheet, columns A:H =
// code, weight kg, group, name, unit, tariff code, VAT, supplier.
type SheetsWriter struct {
	srv           *sheets.Service
	spreadsheetID string
	sheet         string
}

// NewSheetsWriter authenticates with a service-account JSON key.
func NewSheetsWriter(ctx context.Context, spreadsheetID, sheet, credsPath string) (*SheetsWriter, error) {
	b, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", credsPath, err)
	}
	conf, err := google.JWTConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &SheetsWriter{srv: srv, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

func (w *SheetsWriter) Name() string { return "sheets" }

// Push rewrites the row holding e.Code, or appends one.
func (w *SheetsWriter) Push(ctx context.Context, e model.WeightEntry) error {
	resp, err := w.srv.Spreadsheets.Values.Get(w.spreadsheetID, w.sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read codes: %w", err)
	}
	row := []interface{}{e.Code, e.WeightKg, e.Group, e.Name, e.Unit, e.TarifniBroj, e.PdvStopa, e.Supplier}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}

	if n := findCodeRow(resp.Values, e.Code); n > 0 {
		rng := fmt.Sprintf("%s!A%d:H%d", w.sheet, n, n)
		_, err = w.srv.Spreadsheets.Values.Update(w.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d: %w", n, err)
		}
		return nil
	}
	_, err = w.srv.Spreadsheets.Values.Append(w.spreadsheetID, w.sheet+"!A:H", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", e.Code, err)
	}
	return nil
}

func (w *SheetsWriter) Load(ctx context.Context) ([]model.WeightEntry, error) {
	resp, err := w.srv.Spreadsheets.Values.Get(w.spreadsheetID, w.sheet+"!A:H").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}
	return entriesFromRows(resp.Values), nil
}

// findCodeRow returns the 1-based sheet row holding code, 0 if absent.
func findCodeRow(rows [][]interface{}, code string) int {
	for i, r := range rows {
		if len(r) > 0 && strings.TrimSpace(fmt.Sprint(r[0])) == code {
			return i + 1
		}
	}
	return 0
}

// entriesFromRows skips a header row and rows without a numeric weight.
func entriesFromRows(rows [][]interface{}) []model.WeightEntry {
	cell := func(r []interface{}, i int) string {
		if i < len(r) && r[i] != nil {
			return strings.TrimSpace(fmt.Sprint(r[i]))
		}
		return ""
	}
	var out []model.WeightEntry
	for _, r := range rows {
		code := cell(r, 0)
		kg, ok := utils.ParseFloatHR(cell(r, 1))
		if code == "" || !ok {
			continue
		}
		vat, _ := utils.ParseFloatHR(strings.TrimSuffix(cell(r, 6), "%"))
		out = append(out, model.WeightEntry{
			Code:        code,
			WeightKg:    kg,
			Group:       cell(r, 2),
			Name:        cell(r, 3),
			Unit:        cell(r, 4),
			TarifniBroj: cell(r, 5),
			PdvStopa:    vat,
			Supplier:    cell(r, 7),
		})
	}
	return out
}
