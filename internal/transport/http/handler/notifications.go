package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-notification-api/internal/application/notification"
	"github.com/go-notification-api/internal/domain"
	"github.com/go-notification-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// Create records a notification. An authenticated caller becomes its sender.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var sender *string
	if uid, ok := middleware.UserIDFromContext(r.Context()); ok {
		sender = &uid
	}
	resp, err := h.svc.Create(r.Context(), sender, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List pages through the caller's notifications. Without a token the user is
// taken from the user_id query parameter.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, err := queryInt(q.Get("skip"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "skip must be an integer")
		return
	}
	take, err := queryInt(q.Get("take"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "take must be an integer")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		userID = q.Get("user_id")
	}

	page, err := h.svc.List(r.Context(), domain.ListQuery{Skip: skip, Take: take, SearchTerm: q.Get("searchTerm")}, userID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "notification deleted"})
}

func (h *NotificationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.SendEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == nil {
		if uid, ok := middleware.UserIDFromContext(r.Context()); ok {
			req.UserID = &uid
		}
	}
	resp, err := h.svc.SendEmail(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) SendText(w http.ResponseWriter, r *http.Request) {
	var req domain.SendTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.SendText(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) SendInApp(w http.ResponseWriter, r *http.Request) {
	var req domain.SendInAppRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.SendInApp(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, domain.ErrBadRequest)
	}
	return n, nil
}

func requestID(r *http.Request) string {
	return chimiddleware.GetReqID(r.Context())
}
