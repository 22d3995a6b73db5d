package handler

import (
	"sync"

	"github.com/rs/zerolog"

	"troskovnik-service/internal/config"
	"troskovnik-service/internal/workbook/model"
	"troskovnik-service/internal/workbook/service"
)

// WeightTable is the weight store as the handlers need it.
type WeightTable interface {
	service.WeightLookup
	service.WeightEditor
	Replace(entries []model.WeightEntry) int
	Len() int
}

// Workbook serializes all access to one session. Every handler takes mu for the whole
// operation, so a mutation and its view refresh are never interleaved with another request.
type Workbook struct {
	cfg    config.Config
	logger zerolog.Logger

	mu       sync.Mutex
	session  *service.Session
	assigner *service.Assigner
	weights  WeightTable

	// views refreshed by the notifier
	rebate   []service.RebateRow
	statuses map[int]service.LineStatus
	revision int
}

func NewWorkbook(cfg config.Config, weights WeightTable, logger zerolog.Logger) *Workbook {
	wb := &Workbook{
		cfg:      cfg,
		logger:   logger.With().Str("component", "workbook").Logger(),
		weights:  weights,
		statuses: make(map[int]service.LineStatus),
	}
	n := service.NewNotifier()
	n.Subscribe(service.StageResultsView, func(*service.Session) { wb.revision++ })
	n.Subscribe(service.StageWorksheetView, wb.refreshStatuses)
	n.Subscribe(service.StageRebateTable, func(s *service.Session) { wb.rebate = service.BuildRebateTable(s) })

	wb.assigner = service.NewAssigner(
		service.ParseSortOrder(cfg.Search.SortOrder),
		service.FixedVat(cfg.Search.DefaultVat),
		n,
		wb.logger,
	)
	wb.session = service.NewSession(weights)
	return wb
}

func (wb *Workbook) refreshStatuses(s *service.Session) {
	st := make(map[int]service.LineStatus, len(s.Lines))
	for _, l := range s.Lines {
		st[l.LineNumber] = s.Status(l.LineNumber)
	}
	wb.statuses = st
}

// notify recomputes the views after a change that bypassed the assigner (imports).
func (wb *Workbook) notify() {
	service.SortResults(wb.session.Results, wb.assigner.Order())
	wb.revision++
	wb.refreshStatuses(wb.session)
	wb.rebate = service.BuildRebateTable(wb.session)
}

func (wb *Workbook) searchOptions() service.SearchOptions {
	o := service.DefaultSearchOptions()
	o.Order = wb.assigner.Order()
	o.Limit = wb.cfg.Search.Cap
	o.HistoryLimit = wb.cfg.Search.HistoryCap
	if wb.cfg.Search.RotoSupplier != "" {
		o.RotoSupplier = wb.cfg.Search.RotoSupplier
	}
	return o
}

func (wb *Workbook) Articles() int {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return len(wb.session.Articles)
}

func (wb *Workbook) Lines() int {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return len(wb.session.Lines)
}

func (wb *Workbook) Weights() int { return wb.weights.Len() }
