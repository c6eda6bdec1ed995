package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-notification-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
	// TransactionID names the notification that was recorded when an email
	// could not be delivered.
	TransactionID string `json:"transactionId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrBadRequest
	}
	return nil
}

// httpError maps domain errors onto status codes. Server-side failures are
// logged and reported without their internal detail.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DeliveryError
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &de):
		slog.Warn("email delivery failed", "request_id", requestID(r), "notification_id", de.NotificationID, "err", err)
		writeJSON(w, http.StatusBadGateway, MessageEnvelope{
			Error:         "notification recorded but email was not delivered",
			ErrorCode:     http.StatusBadGateway,
			TransactionID: de.NotificationID,
		})
	case errors.Is(err, domain.ErrUpstream):
		slog.Warn("upstream failure", "request_id", requestID(r), "err", err)
		writeError(w, http.StatusBadGateway, "identity service unavailable")
	default:
		slog.Error("request failed", "request_id", requestID(r), "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
