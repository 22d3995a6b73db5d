package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"troskovnik-service/internal/fileio"
	"troskovnik-service/internal/workbook/service"
)

type importResponse struct {
	Kind     string   `json:"kind"`
	File     string   `json:"file"`
	Rows     int      `json:"rows"`
	Imported int      `json:"imported"`
	Warnings []string `json:"warnings,omitempty"`
}

// Import answers POST /import/{kind} (catalog | weights | worksheet | history), multipart:
// file, header_row (1-based, 0 = detect), source, append, and optional column overrides
// col_name, col_code, col_price ... naming the header to use.
func (wb *Workbook) Import() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		kind := strings.ToLower(chi.URLParam(r, "kind"))
		switch kind {
		case "catalog", "weights", "worksheet", "history":
		default:
			writeError(w, log, &service.InvalidInputError{Field: "kind", Value: kind, Reason: "want catalog, weights, worksheet or history"})
			return
		}

		if err := r.ParseMultipartForm(int64(wb.cfg.MaxUploadMB) << 20); err != nil {
			writeError(w, log, &service.InvalidInputError{Field: "form", Reason: "bad multipart form: " + err.Error()})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, log, &service.InvalidInputError{Field: "file", Reason: "missing file: " + err.Error()})
			return
		}
		defer file.Close()

		maps, err := fileio.ReadAnyMaps(file, header.Filename, atoi(r.FormValue("header_row"), 0))
		if err != nil {
			writeError(w, log, &service.InvalidInputError{Field: "file", Value: header.Filename, Reason: err.Error()})
			return
		}
		cols := fileio.DefaultColumns().Merge(columnOverrides(r))
		source := strings.TrimSpace(r.FormValue("source"))
		if source == "" {
			source = header.Filename
		}
		resp := importResponse{Kind: kind, File: header.Filename, Rows: len(maps)}

		wb.mu.Lock()
		defer wb.mu.Unlock()
		s := wb.session

		switch kind {
		case "catalog":
			arts := fileio.ToArticles(maps, cols, source)
			if toBool(r.FormValue("append"), false) {
				next := 0
				for _, a := range s.Articles {
					next = max(next, a.ID)
				}
				for i := range arts {
					arts[i].ID = next + i + 1
				}
				arts = append(append(arts[:0:0], s.Articles...), arts...)
			}
			s.SetCatalog(arts)
			resp.Imported = len(arts)
			wb.notify()
		case "weights":
			resp.Imported = wb.weights.Replace(fileio.ToWeightEntries(maps, cols))
			wb.assigner.RefreshWeights(s)
		case "worksheet":
			lines, warnings := fileio.ToLines(maps, cols)
			orphaned, err := wb.assigner.ReplaceLines(s, lines)
			if err != nil {
				writeError(w, log, err)
				return
			}
			resp.Imported, resp.Warnings = len(lines), warnings
			for _, k := range orphaned {
				resp.Warnings = append(resp.Warnings, "result "+k.String()+" moved to PENDING")
			}
		case "history":
			s.History = fileio.ToHistory(maps, cols)
			resp.Imported = len(s.History)
		}

		log.Info().Str("kind", kind).Str("file", header.Filename).Int("rows", resp.Rows).Int("imported", resp.Imported).Msg("import")
		writeJSON(w, log, http.StatusOK, resp)
	}
}

func columnOverrides(r *http.Request) fileio.Columns {
	return fileio.Columns{
		Name:     r.FormValue("col_name"),
		Code:     r.FormValue("col_code"),
		Unit:     r.FormValue("col_unit"),
		Price:    r.FormValue("col_price"),
		Supplier: r.FormValue("col_supplier"),
		Date:     r.FormValue("col_date"),
		Tariff:   r.FormValue("col_tariff"),
		Vat:      r.FormValue("col_vat"),
		Weight:   r.FormValue("col_weight"),
		Group:    r.FormValue("col_group"),
		Line:     r.FormValue("col_line"),
		Quantity: r.FormValue("col_quantity"),
		Comment:  r.FormValue("col_comment"),
	}
}
