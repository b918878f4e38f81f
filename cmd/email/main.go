package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/meyshop/internal/config"
	"github.com/joao-fontenele/meyshop/internal/email"
	"github.com/joao-fontenele/meyshop/internal/httpx"
	"github.com/joao-fontenele/meyshop/internal/server"
	"github.com/joao-fontenele/meyshop/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var cfg config.EmailConfig
	if err := config.Parse(&cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "email", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	respond := httpx.NewResponder(logger, true)
	handler := email.NewHandler(cfg.FromAddress, respond, logger)

	mux := http.NewServeMux()
	mux.Handle("POST /send", telemetry.WithHTTPRoute(http.HandlerFunc(handler.HandleSend)))
	mux.HandleFunc("/", respond.NotFound)

	srv := server.NewServer(":"+cfg.Port, otelhttp.NewHandler(respond.Recoverer(mux), "email",
		otelhttp.WithSpanNameFormatter(telemetry.SpanName),
	))

	go func() {
		logger.Info("starting email service", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
