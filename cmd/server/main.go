package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/agencyops/pulse/internal/config"
	"github.com/agencyops/pulse/internal/httpx"
	"github.com/agencyops/pulse/internal/ingest"
	"github.com/agencyops/pulse/internal/report"
	"github.com/agencyops/pulse/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout())
	st := store.NewMemoryStore()
	sync := ingest.NewSyncer(cl, st, logger, cfg)
	rSvc := report.NewService(st)

	r := httpx.NewRouter(logger, sync, rSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
