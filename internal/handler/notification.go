package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/response"
)

type NotificationHandler struct {
	service   NotificationManager
	retention time.Duration
}

// NewNotificationHandler builds the inbox handler. retention is the default
// age used by the cleanup endpoint.
func NewNotificationHandler(service NotificationManager, retention time.Duration) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		retention: retention,
	}
}

// List returns the caller's notifications, newest first. ?unread=true
// restricts it to unread ones.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	page, err := h.service.List(r.Context(), user.ID, unreadOnly, paginationFromQuery(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, page)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(r.Context(), user.ID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, domain.UnreadCountResponse{Unread: count})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(r.Context(), id, user.ID); err != nil {
		response.FromError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllAsRead(r.Context(), user.ID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, map[string]int64{"updated": updated})
}

// Cleanup deletes old notifications. ?older_than_days= overrides the
// configured retention.
func (h *NotificationHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	retention := h.retention
	if raw := r.URL.Query().Get("older_than_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid older_than_days", err)
			return
		}
		retention = time.Duration(days) * 24 * time.Hour
	}

	resp, err := h.service.Cleanup(r.Context(), retention)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, resp)
}
