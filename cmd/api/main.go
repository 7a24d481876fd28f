package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/avolkov/sat-prep-backend/internal/adapters/http"
	"github.com/avolkov/sat-prep-backend/internal/bootstrap"
	"github.com/avolkov/sat-prep-backend/internal/config"
	"github.com/avolkov/sat-prep-backend/internal/observability/logging"
	"github.com/avolkov/sat-prep-backend/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	app.Questions.OnRetrieval(func(passages int) {
		serverMetrics.RecordRetrieval("api", "generate_question_from_db", passages)
	})
	router := httpadapter.NewRouter(httpadapter.RouterDeps{
		Questions:   app.Questions,
		Evaluator:   app.Evaluator,
		Planner:     app.Planner,
		Assessor:    app.Assessor,
		Performance: app.Performance,
		Attempts:    app.Attempts,
		Profiles:    app.Profiles,
		Ingestor:    app.IngestUC,
		Repo:        app.Repo,
		Metrics:     serverMetrics,
	}).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
