package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider registers the Prometheus exporter as the global MeterProvider and
// starts Go runtime metrics. It returns the /metrics handler and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource(serviceName, serviceVersion)),
	)

	otel.SetMeterProvider(mp)

	if err := runtime.Start(
		runtime.WithMeterProvider(mp),
		runtime.WithMinimumReadMemStatsInterval(15*time.Second),
	); err != nil {
		return nil, nil, err
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// ShopMetrics are the domain counters of the shop API.
type ShopMetrics struct {
	logins      otelmetric.Int64Counter
	transitions otelmetric.Int64Counter
}

// NewShopMetrics builds the counters on meter. Pass otel.Meter("...") in production and a
// noop meter in tests.
func NewShopMetrics(meter otelmetric.Meter) (*ShopMetrics, error) {
	logins, err := meter.Int64Counter("shop.auth.logins",
		otelmetric.WithDescription("Login attempts by outcome"),
		otelmetric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter("shop.orders.transitions",
		otelmetric.WithDescription("Order lifecycle transitions"),
		otelmetric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &ShopMetrics{logins: logins, transitions: transitions}, nil
}

func (m *ShopMetrics) RecordLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *ShopMetrics) RecordTransition(ctx context.Context, transition string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("transition", transition)))
}
