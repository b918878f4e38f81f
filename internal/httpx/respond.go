// Package httpx holds the JSON response helpers and the error boundary shared by the
// shop handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/joao-fontenele/meyshop/internal/apperror"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

type Responder struct {
	logger     *slog.Logger
	production bool
}

func NewResponder(logger *slog.Logger, production bool) *Responder {
	return &Responder{
		logger:     logger,
		production: production,
	}
}

func (rs *Responder) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Error("failed to encode response", "error", err)
	}
}

func (rs *Responder) Message(w http.ResponseWriter, status int, message string) {
	rs.JSON(w, status, map[string]string{"message": message})
}

// Error maps err to a status and writes {"message", "stack"}. Errors without an
// apperror code become 500s; their stack is only sent outside production.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	code := apperror.CodeOf(err)
	status := code.HTTPStatus()

	resp := errorResponse{Message: apperror.PublicMessage(err)}

	if status >= http.StatusInternalServerError {
		rs.logger.ErrorContext(r.Context(), "request failed",
			"error", err, "method", r.Method, "path", r.URL.Path)
		if !rs.production {
			resp.Stack = string(debug.Stack())
		}
	}

	rs.JSON(w, status, resp)
}

// NotFound answers unknown routes.
func (rs *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	rs.Error(w, r, apperror.NotFound("Not Found - "+r.URL.Path))
}

// DecodeJSON reads a JSON body into dst. Malformed bodies are a BadRequest.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.BadRequest("request body is empty")
		}
		return apperror.Wrap(apperror.CodeBadRequest, "invalid request body", err)
	}
	return nil
}
