package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/middleware"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPrecondition:
		return http.StatusConflict
	case domain.KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code and writes {"error": message}.
// Causes are logged but never sent to the client.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	msg := http.StatusText(status)
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.String("kind", string(kind)), slog.String("error", err.Error()))
	} else {
		log.Debug("request rejected", slog.String("kind", string(kind)), slog.String("error", err.Error()))
	}
	writeJSON(w, log, status, ErrorResponse{Error: msg})
}

// identityFrom converts the session claims into the requester identity
func identityFrom(r *http.Request) domain.Identity {
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.Identity()
	}
	return domain.Identity{}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewError(domain.KindValidation, "invalid request", err)
	}
	return nil
}
