package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/domain"
)

type ctxKey string

const accountKey ctxKey = "account"

func WithAccount(ctx context.Context, account domain.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

func AccountFromContext(ctx context.Context) (domain.Account, bool) {
	account, ok := ctx.Value(accountKey).(domain.Account)
	return account, ok
}

// AccountLoader resolves the account a token was issued for.
type AccountLoader interface {
	GetAccount(ctx context.Context, id string) (domain.Account, error)
}

// ErrorWriter renders gate failures. It is the same boundary the handlers use.
type ErrorWriter interface {
	Error(w http.ResponseWriter, r *http.Request, err error)
}

type Middleware struct {
	secret   []byte
	accounts AccountLoader
	errors   ErrorWriter
	logger   *slog.Logger
}

func NewMiddleware(secret []byte, accounts AccountLoader, errWriter ErrorWriter, logger *slog.Logger) *Middleware {
	return &Middleware{
		secret:   secret,
		accounts: accounts,
		errors:   errWriter,
		logger:   logger,
	}
}

// Authenticate resolves the cookie token to an account and stores it in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			m.errors.Error(w, r, apperror.Unauthorized("not authorized, no token"))
			return
		}

		accountID, err := ParseToken(token, m.secret)
		if err != nil {
			m.logger.WarnContext(r.Context(), "token verification failed", "error", err, "path", r.URL.Path)
			m.errors.Error(w, r, apperror.Unauthorized("not authorized, token failed"))
			return
		}

		account, err := m.accounts.GetAccount(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				m.logger.WarnContext(r.Context(), "token account no longer exists", "account_id", accountID)
				m.errors.Error(w, r, apperror.Unauthorized("not authorized, token failed"))
				return
			}
			m.errors.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
	})
}

// RequireAdmin must be chained after Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFromContext(r.Context())
		if !ok {
			m.errors.Error(w, r, apperror.Unauthorized("not authorized"))
			return
		}

		if !account.Role.IsAdmin() {
			m.errors.Error(w, r, apperror.Forbidden("not authorized as an admin"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
