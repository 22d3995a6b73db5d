package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"troskovnik-service/internal/workbook/model"
	"troskovnik-service/internal/workbook/service"
)

type worksheetLine struct {
	model.WorksheetLine
	Status service.LineStatus `json:"status"`
}

type worksheetResponse struct {
	Revision int             `json:"revision"`
	Lines    []worksheetLine `json:"lines"`
}

// Worksheet answers GET /worksheet with every line and its colouring status.
func (wb *Workbook) Worksheet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		wb.mu.Lock()
		defer wb.mu.Unlock()
		writeJSON(w, log, http.StatusOK, wb.worksheetView())
	}
}

func (wb *Workbook) worksheetView() worksheetResponse {
	out := worksheetResponse{Revision: wb.revision, Lines: make([]worksheetLine, 0, len(wb.session.Lines))}
	for _, l := range wb.session.Lines {
		st, ok := wb.statuses[l.LineNumber]
		if !ok {
			st = wb.session.Status(l.LineNumber)
		}
		out.Lines = append(out.Lines, worksheetLine{WorksheetLine: l, Status: st})
	}
	return out
}

type replaceWorksheetRequest struct {
	Lines []model.WorksheetLine `json:"lines"`
}

// ReplaceWorksheet answers PUT /worksheet.
func (wb *Workbook) ReplaceWorksheet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var req replaceWorksheetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		if _, err := wb.assigner.ReplaceLines(wb.session, req.Lines); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, wb.worksheetView())
	}
}

// UpsertLine answers POST /worksheet/lines.
func (wb *Workbook) UpsertLine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var in model.WorksheetLine
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		l, err := wb.assigner.UpdateLine(wb.session, in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, l)
	}
}

type outputPriceRequest struct {
	Price textValue `json:"price"`
}

// SetOutputPrice answers PUT /worksheet/{line}/output-price.
func (wb *Workbook) SetOutputPrice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		n, err := parseLine(chi.URLParam(r, "line"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		var req outputPriceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		price, err := parsePrice("outputPrice", string(req.Price))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if price == nil {
			writeError(w, log, &service.InvalidInputError{Field: "outputPrice", Reason: "required"})
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		l, err := wb.assigner.SetOutputPrice(wb.session, n, *price)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, l)
	}
}

// Rebate answers GET /rebate with the table kept current by the notifier.
func (wb *Workbook) Rebate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		wb.mu.Lock()
		rows := append([]service.RebateRow{}, wb.rebate...)
		wb.mu.Unlock()
		writeJSON(w, log, http.StatusOK, rows)
	}
}

type weightRequest struct {
	Weight textValue `json:"weight"`
}

// SetWeight answers PUT /weights/{code}. The local table changes at once; the remote push
// runs in the background and its failure is only logged.
func (wb *Workbook) SetWeight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var req weightRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		e, err := wb.assigner.EditWeight(r.Context(), wb.session, wb.weights, chi.URLParam(r, "code"), string(req.Weight))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, log, http.StatusOK, e)
	}
}

// GetSnapshot answers GET /snapshot.
func (wb *Workbook) GetSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		wb.mu.Lock()
		snap := service.Export(wb.session)
		wb.mu.Unlock()
		w.Header().Set("Content-Disposition", `attachment; filename="troskovnik-`+snap.SessionID+`.json"`)
		writeJSON(w, log, http.StatusOK, snap)
	}
}

type restoreResponse struct {
	SessionID string               `json:"sessionId"`
	Repairs   service.RepairReport `json:"repairs"`
	Clean     bool                 `json:"clean"`
}

// PutSnapshot answers PUT /snapshot, repairing what it can.
func (wb *Workbook) PutSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var snap service.Snapshot
		if err := decodeJSON(r, &snap); err != nil {
			writeError(w, log, err)
			return
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		rep := wb.assigner.Restore(wb.session, snap)
		writeJSON(w, log, http.StatusOK, restoreResponse{SessionID: wb.session.ID, Repairs: rep, Clean: rep.Clean()})
	}
}
