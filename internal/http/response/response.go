// Package response writes the API's JSON envelopes. Success payloads are
// returned as-is; errors carry a stable machine code plus a human message.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// JSON writes payload with the given status. A nil payload writes just the
// status line.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "response encode failed", slog.String("error", err.Error()))
	}
}

// Error writes the error envelope. code is a stable identifier clients can
// switch on; message is for humans and must not leak internals.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	JSON(w, r, status, errorEnvelope{
		Error:     errorBody{Code: code, Message: message, Details: details},
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// InternalError is the catch-all for unexpected failures; the cause is
// logged, never returned.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", slog.String("error", err.Error()))
	Error(w, r, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
}
