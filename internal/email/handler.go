// Package email is a minimal mail sink: it validates and logs outgoing messages.
package email

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/httpx"
)

type Handler struct {
	from    string
	respond *httpx.Responder
	logger  *slog.Logger
}

func NewHandler(from string, respond *httpx.Responder, logger *slog.Logger) *Handler {
	return &Handler{
		from:    from,
		respond: respond,
		logger:  logger,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respond.Error(w, r, err)
		return
	}

	var missing []string
	if strings.TrimSpace(req.To) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(req.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(req.Body) == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		h.respond.Error(w, r, apperror.BadRequest("missing "+strings.Join(missing, ", ")))
		return
	}

	to, err := mail.ParseAddress(req.To)
	if err != nil {
		h.respond.Error(w, r, apperror.BadRequest("invalid recipient address"))
		return
	}

	h.logger.InfoContext(r.Context(), "email sent",
		"from", h.from, "to", to.Address, "subject", req.Subject, "body_bytes", len(req.Body))

	h.respond.JSON(w, http.StatusOK, sendResponse{Status: "sent", From: h.from, To: to.Address})
}
