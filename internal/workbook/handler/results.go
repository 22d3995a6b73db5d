package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"troskovnik-service/internal/utils"
	"troskovnik-service/internal/workbook/model"
	"troskovnik-service/internal/workbook/service"
)

// ListResults answers GET /results[?line=N|PENDING].
func (wb *Workbook) ListResults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		lineText := r.URL.Query().Get("line")

		wb.mu.Lock()
		defer wb.mu.Unlock()
		if lineText == "" {
			writeJSON(w, log, http.StatusOK, wb.session.Results)
			return
		}
		l, err := model.ParseLineNumber(lineText)
		if err != nil {
			writeError(w, log, &service.InvalidInputError{Field: "line", Value: lineText, Reason: "want a positive number or PENDING"})
			return
		}
		res := wb.session.ResultsForLine(l)
		if res == nil {
			res = []model.Result{}
		}
		writeJSON(w, log, http.StatusOK, res)
	}
}

type addRequest struct {
	ID             int              `json:"id"`
	Code           string           `json:"code,omitempty"`
	LineNumber     model.LineNumber `json:"lineNumber"`
	Price          textValue        `json:"price,omitempty"`
	PriceType      string           `json:"priceType,omitempty"`
	Weight         textValue        `json:"weight,omitempty"`
	Additional     bool             `json:"additional,omitempty"`
	ConfirmReplace bool             `json:"confirmReplace,omitempty"`
	VatRate        float64          `json:"vatRate,omitempty"`
}

type addResponse struct {
	Result   model.Result         `json:"result"`
	Replaced *model.ResultKey     `json:"replaced,omitempty"`
	Degraded bool                 `json:"degraded,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
	Line     *model.WorksheetLine `json:"line,omitempty"`
}

// AddResult answers POST /results: a search candidate becomes a first choice (price given)
// or an additional choice.
func (wb *Workbook) AddResult() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var req addRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		price, err := parsePrice("price", string(req.Price))
		if err != nil {
			writeError(w, log, err)
			return
		}
		pt, err := parsePriceType(req.PriceType)
		if err != nil {
			writeError(w, log, err)
			return
		}
		var weight *float64
		if ws := strings.TrimSpace(string(req.Weight)); ws != "" {
			v, ok := utils.ParseFloatHR(ws)
			if !ok {
				writeError(w, log, &service.InvalidInputError{Field: "weight", Value: ws, Reason: "not a number"})
				return
			}
			weight = &v
		}

		wb.mu.Lock()
		defer wb.mu.Unlock()

		cand, err := service.ResolveCandidate(wb.session, service.CandidateRef{ID: req.ID, Code: req.Code, Line: req.LineNumber})
		if err != nil {
			writeError(w, log, err)
			return
		}
		out, err := wb.assigner.Add(r.Context(), wb.session, service.AddRequest{
			Candidate:      cand,
			Price:          price,
			PriceType:      pt,
			Weight:         weight,
			Additional:     req.Additional,
			ConfirmReplace: req.ConfirmReplace,
			VatRate:        req.VatRate,
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusCreated, wb.addResponse(out))
	}
}

type manualRequest struct {
	LineNumber     model.LineNumber `json:"lineNumber"`
	Code           string           `json:"code,omitempty"`
	Name           string           `json:"name"`
	Unit           string           `json:"unit,omitempty"`
	Supplier       string           `json:"supplier,omitempty"`
	Price          textValue        `json:"price"`
	PriceType      string           `json:"priceType,omitempty"`
	Weight         textValue        `json:"weight,omitempty"`
	ConfirmReplace bool             `json:"confirmReplace,omitempty"`
	VatRate        float64          `json:"vatRate,omitempty"`
}

// AddManual answers POST /results/manual.
func (wb *Workbook) AddManual() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var req manualRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		pt, err := parsePriceType(req.PriceType)
		if err != nil {
			writeError(w, log, err)
			return
		}

		wb.mu.Lock()
		defer wb.mu.Unlock()
		out, err := wb.assigner.AddManual(r.Context(), wb.session, service.ManualEntry{
			Line:           req.LineNumber,
			Code:           req.Code,
			Name:           req.Name,
			Unit:           req.Unit,
			Supplier:       req.Supplier,
			Price:          string(req.Price),
			PriceType:      pt,
			Weight:         string(req.Weight),
			ConfirmReplace: req.ConfirmReplace,
			VatRate:        req.VatRate,
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusCreated, wb.addResponse(out))
	}
}

func (wb *Workbook) addResponse(out service.AddOutcome) addResponse {
	resp := addResponse{Result: out.Result, Replaced: out.Replaced, Degraded: out.Degraded, Warnings: out.Warnings}
	if n, ok := out.Result.LineNumber.Number(); ok {
		if l := wb.session.Line(n); l != nil {
			cp := *l
			resp.Line = &cp
		}
	}
	return resp
}

// RemoveResult answers DELETE /results/{id}/{line}.
func (wb *Workbook) RemoveResult() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		key, err := parseKey(chi.URLParam(r, "id"), chi.URLParam(r, "line"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		out, err := wb.assigner.Remove(wb.session, key)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, out)
	}
}

type removeManyRequest struct {
	Keys []model.ResultKey `json:"keys"`
}

// RemoveResults answers POST /results/remove (bulk).
func (wb *Workbook) RemoveResults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var req removeManyRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		writeJSON(w, log, http.StatusOK, wb.assigner.RemoveMany(wb.session, req.Keys))
	}
}

// RemoveLine answers DELETE /lines/{line}/results.
func (wb *Workbook) RemoveLine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		n, err := parseLine(chi.URLParam(r, "line"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		removed, err := wb.assigner.RemoveLine(wb.session, n)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, map[string]int{"line": n, "removed": removed})
	}
}

type promoteRequest struct {
	Price     textValue `json:"price"`
	PriceType string    `json:"priceType,omitempty"`
}

// Promote answers POST /results/{id}/{line}/promote.
func (wb *Workbook) Promote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		key, err := parseKey(chi.URLParam(r, "id"), chi.URLParam(r, "line"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		var req promoteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		price, err := parsePrice("price", string(req.Price))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if price == nil {
			writeError(w, log, &service.InvalidInputError{Field: "price", Reason: "required"})
			return
		}
		pt, err := parsePriceType(req.PriceType)
		if err != nil {
			writeError(w, log, err)
			return
		}

		wb.mu.Lock()
		defer wb.mu.Unlock()
		res, err := wb.assigner.Promote(wb.session, key, *price, pt)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, wb.addResponse(service.AddOutcome{Result: res}))
	}
}

type moveRequest struct {
	IDs        []int `json:"ids"`
	LineNumber int   `json:"lineNumber"`
}

// MovePending answers POST /results/pending/move.
func (wb *Workbook) MovePending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var req moveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		out, err := wb.assigner.MovePending(wb.session, req.IDs, req.LineNumber)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, out)
	}
}

type selectionRequest struct {
	Keys     []model.ResultKey `json:"keys"`
	Selected bool              `json:"selected"`
}

// Select answers POST /selection: marks or unmarks results.
func (wb *Workbook) Select() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var req selectionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		wb.session.SetSelected(req.Keys, req.Selected)
		writeJSON(w, log, http.StatusOK, wb.session.Selection())
	}
}

// Exclude answers POST and DELETE /excluded/{id}.
func (wb *Workbook) Exclude(excluded bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		id := atoi(chi.URLParam(r, "id"), 0)
		if id == 0 {
			writeError(w, log, &service.InvalidInputError{Field: "id", Value: chi.URLParam(r, "id"), Reason: "not an article id"})
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		if excluded {
			wb.session.Exclude(id)
		} else {
			wb.session.Unexclude(id)
		}
		writeJSON(w, log, http.StatusOK, wb.session.Selection())
	}
}
