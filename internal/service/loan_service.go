package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/config"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoanService owns the loan lifecycle. Every operation runs in one
// transaction and changes the book's availability together with the loan.
type LoanService struct {
	LoanRepo         repository.LoanRepository
	BookRepo         repository.BookRepository
	PenaltyRepo      repository.PenaltyRepository
	NotificationRepo repository.NotificationRepository
	OutboxRepo       repository.OutboxRepository
	tx               repository.Transactor
	directory        ParameterDirectory
	events           EventDispatcher
	config           config.BusinessConfig
	now              func() time.Time
	tracer           trace.Tracer
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	bookRepo repository.BookRepository,
	penaltyRepo repository.PenaltyRepository,
	notificationRepo repository.NotificationRepository,
	outboxRepo repository.OutboxRepository,
	tx repository.Transactor,
	directory ParameterDirectory,
	events EventDispatcher,
	cfg config.BusinessConfig,
) *LoanService {
	return &LoanService{
		LoanRepo:         loanRepo,
		BookRepo:         bookRepo,
		PenaltyRepo:      penaltyRepo,
		NotificationRepo: notificationRepo,
		OutboxRepo:       outboxRepo,
		tx:               tx,
		directory:        directory,
		events:           events,
		config:           cfg,
		now:              func() time.Time { return time.Now().UTC() },
		tracer:           otel.Tracer("biblioteca/service/loans"),
	}
}

func (s *LoanService) writer() penaltyWriter {
	return penaltyWriter{penalties: s.PenaltyRepo, notifications: s.NotificationRepo, outbox: s.OutboxRepo}
}

func (s *LoanService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CreateReservation places a RESERVED loan on an AVAILABLE book. The loan's
// end date is the pickup deadline.
func (s *LoanService) CreateReservation(ctx context.Context, bookID uuid.UUID, userID string) (loan *domain.Loan, err error) {
	ctx, span := s.startSpan(ctx, "loans.create_reservation", attribute.String("book.id", bookID.String()))
	defer func() { endSpan(span, err) }()

	now := s.now()
	loan = &domain.Loan{
		ID:        uuid.New(),
		BookID:    bookID,
		UserID:    userID,
		Status:    domain.LoanStatusReserved,
		EndDate:   now.Add(s.config.PickupWindow),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(q repository.Querier) error {
		return s.claimBook(ctx, q, loan)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "reservation created", "loan_id", loan.ID, "book_id", bookID, "user_id", userID)
	return loan, nil
}

// CreateReservationForStudent records a walk-in loan: the book leaves
// circulation immediately and the loan starts ACTIVE.
func (s *LoanService) CreateReservationForStudent(ctx context.Context, bookID uuid.UUID, studentID string) (loan *domain.Loan, err error) {
	ctx, span := s.startSpan(ctx, "loans.create_for_student", attribute.String("book.id", bookID.String()))
	defer func() { endSpan(span, err) }()

	now := s.now()
	loan = &domain.Loan{
		ID:        uuid.New(),
		BookID:    bookID,
		UserID:    studentID,
		Status:    domain.LoanStatusActive,
		EndDate:   utils.CalculateEndDate(now, s.config.LoanDurationDays),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(q repository.Querier) error {
		return s.claimBook(ctx, q, loan)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "loan recorded for student", "loan_id", loan.ID, "book_id", bookID, "user_id", studentID)
	return loan, nil
}

// claimBook takes an AVAILABLE book out of circulation for loan and inserts it.
func (s *LoanService) claimBook(ctx context.Context, q repository.Querier, loan *domain.Loan) error {
	// 1. Lock the book row and check it is available
	book, err := s.BookRepo.GetByIDForUpdate(ctx, q, loan.BookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapBookNotFound(loan.BookID.String())
		}
		return customError.WrapDatabaseError(err)
	}
	if book.Status != domain.BookStatusAvailable {
		return customError.WrapBookUnavailable(loan.BookID.String())
	}

	// 2. Conditional update so a concurrent claim loses at write time
	ok, err := s.BookRepo.TransitionStatus(ctx, q, loan.BookID, domain.BookStatusAvailable, domain.BookStatusFor(loan.Status))
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if !ok {
		return customError.WrapBookUnavailable(loan.BookID.String())
	}

	// 3. Insert the loan; the live-loan index backs the check above
	if err := s.LoanRepo.Create(ctx, q, loan); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

// ActivateLoan records the pickup of a reservation. The return deadline is
// set from the activation time.
func (s *LoanService) ActivateLoan(ctx context.Context, loanID uuid.UUID) (loan *domain.Loan, err error) {
	ctx, span := s.startSpan(ctx, "loans.activate", attribute.String("loan.id", loanID.String()))
	defer func() { endSpan(span, err) }()

	now := s.now()
	endDate := utils.CalculateEndDate(now, s.config.LoanDurationDays)

	err = s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		loan, err = s.LoanRepo.TransitionStatus(ctx, q, loanID, domain.LoanStatusReserved, domain.LoanStatusActive, &endDate, now)
		if err != nil {
			return s.transitionError(ctx, q, loanID, "activate", err)
		}

		if err := s.BookRepo.SetStatus(ctx, q, loan.BookID, domain.BookStatusNotAvailable); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "loan activated", "loan_id", loanID, "end_date", loan.EndDate)
	return loan, nil
}

// FinishLoan records the return of an ACTIVE loan. When the book came back
// damaged a penalty is created in the same transaction.
func (s *LoanService) FinishLoan(ctx context.Context, loanID uuid.UUID, damaged bool) (resp *domain.LoanResponse, err error) {
	ctx, span := s.startSpan(ctx, "loans.finish",
		attribute.String("loan.id", loanID.String()),
		attribute.Bool("loan.damaged", damaged),
	)
	defer func() { endSpan(span, err) }()

	// Resolve the sanction before touching the database so an unreachable
	// directory leaves nothing half written.
	var sanction *domain.Parameter
	if damaged {
		sanction, err = s.directory.GetByName(ctx, s.config.SanctionDamagedBook)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	resp = &domain.LoanResponse{}
	var event *domain.OutboxEvent

	err = s.tx.WithinTx(ctx, func(q repository.Querier) error {
		loan, err := s.LoanRepo.TransitionStatus(ctx, q, loanID, domain.LoanStatusActive, domain.LoanStatusFinished, nil, now)
		if err != nil {
			return s.transitionError(ctx, q, loanID, "finish", err)
		}
		resp.Loan = loan

		if err := s.BookRepo.SetStatus(ctx, q, loan.BookID, domain.BookStatusAvailable); err != nil {
			return customError.WrapDatabaseError(err)
		}

		if !damaged {
			return nil
		}

		penalty := domain.NewPenalty(sanction, loan.UserID, &loan.ID, now)
		event, err = s.writer().write(ctx, q, penalty, sanction, now)
		if err != nil {
			return err
		}
		resp.Penalty = penalty
		return nil
	})
	if err != nil {
		return nil, err
	}

	dispatchAfterCommit(ctx, s.events, event)

	slog.InfoContext(ctx, "loan finished", "loan_id", loanID, "damaged", damaged)
	return resp, nil
}

// CancelReservation cancels a RESERVED loan and releases the book. Reaching
// the cancellation threshold inside the policy window creates a penalty.
func (s *LoanService) CancelReservation(ctx context.Context, loanID uuid.UUID) (resp *domain.LoanResponse, err error) {
	ctx, span := s.startSpan(ctx, "loans.cancel", attribute.String("loan.id", loanID.String()))
	defer func() { endSpan(span, err) }()

	now := s.now()
	since := now.Add(-s.config.CancellationWindow)

	// The sanction is resolved outside the transaction and only when this
	// cancellation reaches the threshold. A missing sanction never blocks the
	// cancellation itself.
	var sanction *domain.Parameter
	var sanctionErr error
	if current, err := s.LoanRepo.GetByID(ctx, nil, loanID); err == nil && current.Status == domain.LoanStatusReserved {
		prior, err := s.LoanRepo.CountByUserStatusSince(ctx, nil, current.UserID, domain.LoanStatusCancelled, since)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if prior+1 >= s.config.CancellationPenaltyThreshold {
			sanction, sanctionErr = s.directory.GetByName(ctx, s.config.SanctionCancellation)
		}
	}

	resp = &domain.LoanResponse{}
	var event *domain.OutboxEvent

	err = s.tx.WithinTx(ctx, func(q repository.Querier) error {
		loan, err := s.LoanRepo.TransitionStatus(ctx, q, loanID, domain.LoanStatusReserved, domain.LoanStatusCancelled, nil, now)
		if err != nil {
			return s.transitionError(ctx, q, loanID, "cancel", err)
		}
		resp.Loan = loan

		if err := s.BookRepo.SetStatus(ctx, q, loan.BookID, domain.BookStatusAvailable); err != nil {
			return customError.WrapDatabaseError(err)
		}

		count, err := s.LoanRepo.CountByUserStatusSince(ctx, q, loan.UserID, domain.LoanStatusCancelled, since)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if count < s.config.CancellationPenaltyThreshold {
			return nil
		}

		if sanction == nil {
			slog.ErrorContext(ctx, "cancellation penalty skipped, sanction unavailable",
				"loan_id", loan.ID,
				"user_id", loan.UserID,
				"cancellations", count,
				"error", sanctionErr)
			return nil
		}

		penalty := domain.NewPenalty(sanction, loan.UserID, &loan.ID, now)
		event, err = s.writer().write(ctx, q, penalty, sanction, now)
		if err != nil {
			return err
		}
		resp.Penalty = penalty
		return nil
	})
	if err != nil {
		return nil, err
	}

	dispatchAfterCommit(ctx, s.events, event)

	slog.InfoContext(ctx, "reservation cancelled", "loan_id", loanID, "penalized", resp.Penalty != nil)
	return resp, nil
}

// transitionError explains why a conditional loan update matched nothing.
func (s *LoanService) transitionError(ctx context.Context, q repository.Querier, loanID uuid.UUID, operation string, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return customError.WrapDatabaseError(err)
	}

	current, err := s.LoanRepo.GetByID(ctx, q, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapLoanNotFound(loanID.String())
		}
		return customError.WrapDatabaseError(err)
	}

	return customError.WrapInvalidState(loanID.String(), string(current.Status), operation)
}

// GetLoan returns a single loan.
func (s *LoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByID(ctx, nil, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

// ListUserLoans returns a page of one user's loans.
func (s *LoanService) ListUserLoans(ctx context.Context, userID string, status domain.LoanStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.LoanWithBook], error) {
	return s.list(ctx, domain.LoanFilter{UserID: userID, Status: status}, params)
}

// ListLoans returns a page of all loans.
func (s *LoanService) ListLoans(ctx context.Context, status domain.LoanStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.LoanWithBook], error) {
	return s.list(ctx, domain.LoanFilter{Status: status}, params)
}

func (s *LoanService) list(ctx context.Context, filter domain.LoanFilter, params domain.PaginationParams) (*domain.PaginatedResponse[domain.LoanWithBook], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, customError.WrapValidation("unknown loan status " + string(filter.Status))
	}
	params.Validate()

	loans, total, err := s.LoanRepo.List(ctx, filter, params)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	resp := domain.NewPaginatedResponse(loans, params.Page, params.PageSize, total)
	return &resp, nil
}
