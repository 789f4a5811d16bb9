package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/response"

	"github.com/go-playground/validator/v10"
)

// WebhookHandler receives events from other modules and re-publishes them
// to the broker. Its responses keep the plain {success}/{error} contract the
// callers expect instead of the API envelope.
type WebhookHandler struct {
	publisher WebhookPublisher
	validator *validator.Validate
}

func NewWebhookHandler(publisher WebhookPublisher) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		validator: validator.New(),
	}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req domain.WebhookRequest
	if err := jsonDecode(r.Body, &req); err != nil {
		response.Raw(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.Raw(w, http.StatusBadRequest, map[string]string{"error": "type is required"})
		return
	}

	if err := h.publisher.PublishWebhook(r.Context(), req.Type, req.Data); err != nil {
		if errors.Is(err, customError.ErrUnknownEventType) {
			response.Raw(w, http.StatusBadRequest, map[string]string{"error": "unknown event type: " + req.Type})
			return
		}
		slog.ErrorContext(r.Context(), "webhook publish failed", "type", req.Type, "error", err)
		response.Raw(w, http.StatusInternalServerError, map[string]string{"error": "failed to publish event"})
		return
	}

	response.Raw(w, http.StatusOK, map[string]bool{"success": true})
}

// JobHandler lets an external scheduler trigger the deadline sweep.
type JobHandler struct {
	sweeper SweepRunner
}

func NewJobHandler(sweeper SweepRunner) *JobHandler {
	return &JobHandler{sweeper: sweeper}
}

type sweepResult struct {
	Success bool                `json:"success"`
	Report  *domain.SweepReport `json:"report"`
}

func (h *JobHandler) DeadlineSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeper.Run(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "deadline sweep failed", "error", err)
		response.Raw(w, http.StatusInternalServerError, map[string]string{"error": "deadline sweep failed"})
		return
	}

	response.Raw(w, http.StatusOK, sweepResult{Success: true, Report: report})
}
