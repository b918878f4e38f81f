package users

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/auth"
	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/httpx"
)

type Handler struct {
	service       *Service
	respond       *httpx.Responder
	secureCookies bool
	logger        *slog.Logger
}

// NewHandler builds the account handlers. secureCookies marks the token cookie Secure and
// is set in production.
func NewHandler(service *Service, respond *httpx.Responder, secureCookies bool, logger *slog.Logger) *Handler {
	return &Handler{
		service:       service,
		respond:       respond,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin answers every failure, an unreadable body included, with 401.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.logger.InfoContext(r.Context(), "unreadable login request", "error", err)
		h.respond.Error(w, r, apperror.ErrInvalidCredentials)
		return
	}

	account, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	auth.SetTokenCookie(w, token, h.service.TokenTTL(), h.secureCookies)
	h.logger.InfoContext(r.Context(), "account logged in", "account_id", account.ID)
	h.respond.JSON(w, http.StatusOK, account.Public())
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	account, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	auth.SetTokenCookie(w, token, h.service.TokenTTL(), h.secureCookies)
	h.respond.JSON(w, http.StatusCreated, account.Public())
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	h.respond.Message(w, http.StatusOK, "Logged out successfully")
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		h.respond.Error(w, r, apperror.ErrUnauthorized)
		return
	}

	h.respond.JSON(w, http.StatusOK, account.Public())
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.AccountFromContext(r.Context())
	if !ok {
		h.respond.Error(w, r, apperror.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), current.ID, ProfileUpdate(req))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "profile updated", "account_id", account.ID)
	h.respond.JSON(w, http.StatusOK, account.Public())
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	out := make([]domain.PublicAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Public())
	}

	h.respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, account.Public())
}

type adminUpdateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req adminUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	account, err := h.service.Update(r.Context(), r.PathValue("id"), AdminUpdate(req))
	if err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.respond.JSON(w, http.StatusOK, account.Public())
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	h.respond.Message(w, http.StatusOK, "User removed")
}
