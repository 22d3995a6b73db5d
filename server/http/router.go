package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"troskovnik-service/internal/config"
	"troskovnik-service/internal/middleware"
	wbHnd "troskovnik-service/internal/workbook/handler"
	"troskovnik-service/server/http/handlers"
)

func NewRouter(cfg config.Config, wb *wbHnd.Workbook, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health(wb))

	r.Get("/query/parse", wb.ParseQuery())
	r.Get("/search", wb.Search())
	r.Post("/search/bulk", wb.BulkSearch())

	r.Route("/results", func(r chi.Router) {
		r.Get("/", wb.ListResults())
		r.Post("/", wb.AddResult())
		r.Post("/manual", wb.AddManual())
		r.Post("/remove", wb.RemoveResults())
		r.Post("/pending/move", wb.MovePending())
		r.Delete("/{id}/{line}", wb.RemoveResult())
		r.Post("/{id}/{line}/promote", wb.Promote())
	})
	r.Delete("/lines/{line}/results", wb.RemoveLine())

	r.Get("/worksheet", wb.Worksheet())
	r.Put("/worksheet", wb.ReplaceWorksheet())
	r.Post("/worksheet/lines", wb.UpsertLine())
	r.Put("/worksheet/{line}/output-price", wb.SetOutputPrice())
	r.Get("/rebate", wb.Rebate())

	r.Put("/weights/{code}", wb.SetWeight())
	r.Post("/import/{kind}", wb.Import())

	r.Get("/snapshot", wb.GetSnapshot())
	r.Put("/snapshot", wb.PutSnapshot())
	r.Post("/selection", wb.Select())
	r.Post("/excluded/{id}", wb.Exclude(true))
	r.Delete("/excluded/{id}", wb.Exclude(false))

	return r
}
