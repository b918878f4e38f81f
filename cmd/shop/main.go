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

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/meyshop/internal/auth"
	"github.com/joao-fontenele/meyshop/internal/config"
	"github.com/joao-fontenele/meyshop/internal/httpx"
	"github.com/joao-fontenele/meyshop/internal/messaging"
	"github.com/joao-fontenele/meyshop/internal/orders"
	"github.com/joao-fontenele/meyshop/internal/server"
	"github.com/joao-fontenele/meyshop/internal/storage"
	"github.com/joao-fontenele/meyshop/internal/telemetry"
	"github.com/joao-fontenele/meyshop/internal/users"
)

const serviceName = "shop"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()
	if cfg.TracingEnabled() {
		logger.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint)
	} else {
		logger.Info("tracing disabled, spans are not exported")
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	shopMetrics, err := telemetry.NewShopMetrics(otel.Meter("github.com/joao-fontenele/meyshop"))
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	store, err := storage.Connect(connectCtx, cfg.DatabaseURL)
	cancelConnect()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var events orders.EventPublisher
	if cfg.EventsEnabled() {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		defer func() { _ = producer.Close() }()
		events = producer
		logger.Info("order events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderEventsTopic)
	}

	respond := httpx.NewResponder(logger, cfg.IsProduction())
	secret := []byte(cfg.JWTSecret)

	userService := users.NewService(users.NewAccountRepository(store.DB), secret, cfg.TokenTTL, shopMetrics, logger)
	orderService := orders.NewService(orders.NewOrderRepository(store.DB), events, shopMetrics, logger)

	router := server.NewRouter(server.Deps{
		Users:          users.NewHandler(userService, respond, cfg.IsProduction(), logger),
		Orders:         orders.NewHandler(orderService, respond, logger),
		Auth:           auth.NewMiddleware(secret, userService, respond, logger),
		Respond:        respond,
		Store:          store,
		Metrics:        metricsHandler,
		PayPalClientID: cfg.PayPalClientID,
		Logger:         logger,
	})

	srv := server.NewServer(":"+cfg.Port, router)

	go func() {
		logger.Info("starting shop service", "port", cfg.Port, "environment", cfg.Environment)
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
