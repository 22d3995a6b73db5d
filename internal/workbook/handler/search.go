package handler

import (
	"net/http"
	"strings"

	"troskovnik-service/internal/workbook/model"
	"troskovnik-service/internal/workbook/service"
)

// ParseQuery answers GET /query/parse?q=...
func (wb *Workbook) ParseQuery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		writeJSON(w, log, http.StatusOK, service.ParseQuery(r.URL.Query().Get("q")))
	}
}

type searchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []model.Result `json:"results"`
}

// Search answers GET /search?q=&line=&order=&latest=&hideOurs=&hideRoto=
func (wb *Workbook) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		qv := r.URL.Query()

		opts := wb.searchOptions()
		if err := applySearchParams(&opts, qv.Get("line"), qv.Get("order"), qv.Get("latest"), qv.Get("hideOurs"), qv.Get("hideRoto")); err != nil {
			writeError(w, log, err)
			return
		}
		q := qv.Get("q")

		wb.mu.Lock()
		res := service.Search(wb.session, service.ParseQuery(q), opts)
		wb.mu.Unlock()

		log.Debug().Str("q", q).Int("hits", len(res)).Msg("search")
		writeJSON(w, log, http.StatusOK, searchResponse{Query: q, Count: len(res), Results: res})
	}
}

type bulkSearchRequest struct {
	Queries       []string `json:"queries"`
	Order         string   `json:"order,omitempty"`
	LatestPerCode bool     `json:"latestPerCode,omitempty"`
	HideOurs      bool     `json:"hideOurs,omitempty"`
	HideRoto      bool     `json:"hideRoto,omitempty"`
}

// BulkSearch runs many queries without the result cap.
func (wb *Workbook) BulkSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(wb.logger, r)
		var req bulkSearchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, log, err)
			return
		}
		opts := service.BulkSearchOptions()
		opts.Order = wb.assigner.Order()
		opts.HistoryLimit = wb.cfg.Search.HistoryCap
		if req.Order != "" {
			opts.Order = service.ParseSortOrder(req.Order)
		}
		opts.LatestPerCode, opts.HideOurs, opts.HideRoto = req.LatestPerCode, req.HideOurs, req.HideRoto
		if wb.cfg.Search.RotoSupplier != "" {
			opts.RotoSupplier = wb.cfg.Search.RotoSupplier
		}

		out := make([]searchResponse, 0, len(req.Queries))
		wb.mu.Lock()
		for _, q := range req.Queries {
			if strings.TrimSpace(q) == "" {
				continue
			}
			res := service.Search(wb.session, service.ParseQuery(q), opts)
			out = append(out, searchResponse{Query: q, Count: len(res), Results: res})
		}
		wb.mu.Unlock()

		writeJSON(w, log, http.StatusOK, out)
	}
}

func applySearchParams(o *service.SearchOptions, line, order, latest, hideOurs, hideRoto string) error {
	if strings.TrimSpace(line) != "" {
		l, err := model.ParseLineNumber(line)
		if err != nil {
			return &service.InvalidInputError{Field: "line", Value: line, Reason: "want a positive number or PENDING"}
		}
		o.CurrentLine = l
	}
	if order != "" {
		o.Order = service.ParseSortOrder(order)
	}
	o.LatestPerCode = toBool(latest, o.LatestPerCode)
	o.HideOurs = toBool(hideOurs, o.HideOurs)
	o.HideRoto = toBool(hideRoto, o.HideRoto)
	return nil
}
