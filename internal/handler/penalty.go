package handler

import (
	"net/http"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/response"

	"github.com/go-playground/validator/v10"
)

type PenaltyHandler struct {
	service   PenaltyManager
	validator *validator.Validate
}

func NewPenaltyHandler(service PenaltyManager) *PenaltyHandler {
	return &PenaltyHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *PenaltyHandler) ListMyPenalties(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	status := domain.PenaltyStatus(r.URL.Query().Get("status"))
	penalties, err := h.service.ListUserPenalties(r.Context(), user.ID, status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, penalties)
}

func (h *PenaltyHandler) ListSanctions(w http.ResponseWriter, r *http.Request) {
	sanctions, err := h.service.ListSanctions(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, sanctions)
}

func (h *PenaltyHandler) CreatePenalty(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePenaltyRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	penalty, err := h.service.CreateManualPenalty(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, penalty)
}

func (h *PenaltyHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	penaltyID, ok := pathUUID(w, r, "penaltyId")
	if !ok {
		return
	}

	penalty, err := h.service.MarkPaid(r.Context(), penaltyID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, penalty)
}
