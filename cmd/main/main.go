package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"troskovnik-service/internal/config"
	"troskovnik-service/internal/weightstore"
	wbHnd "troskovnik-service/internal/workbook/handler"
	serverhttp "troskovnik-service/server/http"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	weights, err := weightstore.Open(ctx, cfg.Weight, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.Weight.Store).Msg("weight store")
	}
	wb := wbHnd.NewWorkbook(cfg, weights, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           serverhttp.NewRouter(cfg, wb, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().Str("addr", cfg.Addr()).Str("weights", cfg.Weight.Store).Int("weight_entries", weights.Len()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
	weights.Wait()
	logger.Info().Msg("bye")
}
