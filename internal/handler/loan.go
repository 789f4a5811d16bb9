package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type LoanHandler struct {
	service   LoanManager
	validator *validator.Validate
}

func NewLoanHandler(service LoanManager) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateReservation reserves a book for the caller.
func (h *LoanHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req domain.CreateReservationRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.CreateReservation(r.Context(), uuid.MustParse(req.BookID), user.ID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, loan)
}

// CreateStudentLoan records a loan handed out at the desk.
func (h *LoanHandler) CreateStudentLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStudentLoanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.CreateReservationForStudent(r.Context(), uuid.MustParse(req.BookID), req.StudentID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, loan)
}

// CancelReservation cancels one of the caller's reservations. Staff may
// cancel any reservation.
func (h *LoanHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	if !user.IsStaff() {
		loan, err := h.service.GetLoan(r.Context(), loanID)
		if err != nil {
			response.FromError(w, err)
			return
		}
		if loan.UserID != user.ID {
			response.NotFound(w, "Loan not found")
			return
		}
	}

	resp, err := h.service.CancelReservation(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, resp)
}

func (h *LoanHandler) ActivateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.service.ActivateLoan(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, loan)
}

// FinishLoan records a return. An empty body means the book came back fine.
func (h *LoanHandler) FinishLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var req domain.FinishLoanRequest
	if r.Body != nil {
		if err := decodeOptional(r.Body, &req); err != nil {
			response.BadRequest(w, "Invalid JSON payload", err)
			return
		}
	}

	resp, err := h.service.FinishLoan(r.Context(), loanID, req.Damaged)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, resp)
}

func (h *LoanHandler) ListMyLoans(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	status := domain.LoanStatus(r.URL.Query().Get("status"))
	page, err := h.service.ListUserLoans(r.Context(), user.ID, status, paginationFromQuery(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, page)
}

func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	status := domain.LoanStatus(r.URL.Query().Get("status"))
	page, err := h.service.ListLoans(r.Context(), status, paginationFromQuery(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, page)
}

func decodeOptional(body io.Reader, dst interface{}) error {
	err := jsonDecode(body, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
