// Package server assembles the shop API routes and their gates.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/meyshop/internal/auth"
	"github.com/joao-fontenele/meyshop/internal/httpx"
	"github.com/joao-fontenele/meyshop/internal/orders"
	"github.com/joao-fontenele/meyshop/internal/telemetry"
	"github.com/joao-fontenele/meyshop/internal/users"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Users          *users.Handler
	Orders         *orders.Handler
	Auth           *auth.Middleware
	Respond        *httpx.Responder
	Store          Pinger
	Metrics        http.Handler
	PayPalClientID string
	Logger         *slog.Logger
}

// NewRouter returns the instrumented API handler.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	public := func(h http.HandlerFunc) http.Handler {
		return telemetry.WithHTTPRoute(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, telemetry.WithHTTPRoute, d.Auth.Authenticate)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, telemetry.WithHTTPRoute, d.Auth.Authenticate, d.Auth.RequireAdmin)
	}

	mux.Handle("POST /api/users/auth", public(d.Users.HandleLogin))
	mux.Handle("POST /api/users", public(d.Users.HandleRegister))
	mux.Handle("POST /api/users/logout", public(d.Users.HandleLogout))
	mux.Handle("GET /api/users/profile", protected(d.Users.HandleGetProfile))
	mux.Handle("PUT /api/users/profile", protected(d.Users.HandleUpdateProfile))
	mux.Handle("GET /api/users", admin(d.Users.HandleList))
	mux.Handle("GET /api/users/{id}", admin(d.Users.HandleGet))
	mux.Handle("PUT /api/users/{id}", admin(d.Users.HandleUpdate))
	mux.Handle("DELETE /api/users/{id}", admin(d.Users.HandleDelete))

	mux.Handle("POST /api/orders", protected(d.Orders.HandleCreate))
	mux.Handle("GET /api/orders", admin(d.Orders.HandleList))
	mux.Handle("GET /api/orders/mine", protected(d.Orders.HandleListMine))
	mux.Handle("GET /api/orders/{id}", protected(d.Orders.HandleGet))
	mux.Handle("PUT /api/orders/{id}/pay", protected(d.Orders.HandlePay))
	mux.Handle("PUT /api/orders/{id}/deliver", admin(d.Orders.HandleDeliver))

	mux.Handle("GET /api/config/paypal", public(func(w http.ResponseWriter, r *http.Request) {
		d.Respond.JSON(w, http.StatusOK, map[string]string{"clientId": d.PayPalClientID})
	}))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.ErrorContext(ctx, "health check failed", "error", err)
			d.Respond.Message(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		d.Respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		d.Respond.Message(w, http.StatusOK, "API is running...")
	})
	mux.HandleFunc("/", d.Respond.NotFound)

	return otelhttp.NewHandler(d.Respond.Recoverer(mux), "shop",
		otelhttp.WithSpanNameFormatter(telemetry.SpanName),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	)
}

// NewServer wraps the router with the timeouts every binary uses.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}
