package service

import (
	"context"
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

// SweepService runs the periodic deadline pass over live loans.
//
// The pass reads the clock once. Overdue loans are expired by a single
// conditional update and only the rows that update returned get a penalty, so
// running the pass twice never penalizes a loan twice. Expiry is committed
// before any penalty is written; a crash in between leaves an expired loan
// without a penalty, never the reverse.
type SweepService struct {
	LoanRepo         repository.LoanRepository
	BookRepo         repository.BookRepository
	PenaltyRepo      repository.PenaltyRepository
	NotificationRepo repository.NotificationRepository
	OutboxRepo       repository.OutboxRepository
	tx               repository.Transactor
	directory        ParameterDirectory
	events           EventDispatcher
	config           config.BusinessConfig
	location         *time.Location
	now              func() time.Time
	tracer           trace.Tracer
}

func NewSweepService(
	loanRepo repository.LoanRepository,
	bookRepo repository.BookRepository,
	penaltyRepo repository.PenaltyRepository,
	notificationRepo repository.NotificationRepository,
	outboxRepo repository.OutboxRepository,
	tx repository.Transactor,
	directory ParameterDirectory,
	events EventDispatcher,
	cfg config.BusinessConfig,
	location *time.Location,
) *SweepService {
	return &SweepService{
		LoanRepo:         loanRepo,
		BookRepo:         bookRepo,
		PenaltyRepo:      penaltyRepo,
		NotificationRepo: notificationRepo,
		OutboxRepo:       outboxRepo,
		tx:               tx,
		directory:        directory,
		events:           events,
		config:           cfg,
		location:         location,
		now:              func() time.Time { return time.Now().UTC() },
		tracer:           otel.Tracer("biblioteca/service/sweep"),
	}
}

// Run executes one pass. Per-loan failures are logged and counted in the
// report; only a failure to expire overdue loans aborts the pass.
func (s *SweepService) Run(ctx context.Context) (*domain.SweepReport, error) {
	now := s.now()
	report := &domain.SweepReport{Now: now}

	ctx, span := s.tracer.Start(ctx, "sweep.run", trace.WithAttributes(attribute.String("sweep.now", now.Format(time.RFC3339))))
	defer span.End()

	// 1. Deadline reminders for loans due within the notice window
	s.notifyDeadlines(ctx, now, report)

	// 2. Resolve the late-return sanction once for the whole pass
	sanction, err := s.directory.GetByName(ctx, s.config.SanctionLateReturn)
	if err != nil {
		report.SanctionError = err.Error()
		span.AddEvent("sanction.unresolved")
		slog.ErrorContext(ctx, "late-return sanction unavailable, expiring loans without penalties",
			"sanction", s.config.SanctionLateReturn, "error", err)
	}

	// 3. Expire overdue loans and release their books
	expired, err := s.expire(ctx, domain.LoanStatusActive, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	report.ExpiredLoans = len(expired)

	// 4. One penalty per loan this pass expired
	if sanction != nil {
		for _, loan := range expired {
			s.penalize(ctx, loan, sanction, now, report)
		}
	}

	// 5. Reservations never picked up
	if s.config.PickupExpiryEnabled {
		s.expireReservations(ctx, now, report)
	}

	report.Duration = s.now().Sub(now).String()
	span.SetAttributes(
		attribute.Int("sweep.deadline_notices", report.DeadlineNotices),
		attribute.Int("sweep.expired_loans", report.ExpiredLoans),
		attribute.Int("sweep.expired_reservations", report.ExpiredReservations),
		attribute.Int("sweep.penalties_created", report.PenaltiesCreated),
		attribute.Int("sweep.publish_failures", report.PublishFailures),
		attribute.Int("sweep.item_errors", report.ItemErrors),
	)

	slog.InfoContext(ctx, "deadline sweep finished",
		"deadline_notices", report.DeadlineNotices,
		"expired_loans", report.ExpiredLoans,
		"expired_reservations", report.ExpiredReservations,
		"penalties_created", report.PenaltiesCreated,
		"publish_failures", report.PublishFailures,
		"item_errors", report.ItemErrors)

	return report, nil
}

func (s *SweepService) notifyDeadlines(ctx context.Context, now time.Time, report *domain.SweepReport) {
	ctx, span := s.tracer.Start(ctx, "sweep.notify_deadlines")
	defer span.End()

	window := s.config.DeadlineNoticeWindow
	due, err := s.LoanRepo.ListDueBetween(ctx, domain.LoanStatusActive, now, now.Add(window))
	if err != nil {
		report.ItemErrors++
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to list loans near deadline", "error", err)
		return
	}

	for _, loan := range due {
		if !utils.IsWithinWindow(loan.EndDate, now, window) {
			continue
		}
		inserted, err := s.NotificationRepo.CreateIfAbsent(ctx, nil, deadlineNotification(loan, now, s.location))
		if err != nil {
			report.ItemErrors++
			slog.ErrorContext(ctx, "failed to create deadline notification", "loan_id", loan.ID, "error", err)
			continue
		}
		if inserted {
			report.DeadlineNotices++
		}
	}
}

// expire moves every overdue loan in status to EXPIRED and frees their books
// in one transaction, returning the loans it changed.
func (s *SweepService) expire(ctx context.Context, status domain.LoanStatus, now time.Time) ([]domain.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "sweep.expire", trace.WithAttributes(attribute.String("loan.status", string(status))))
	defer span.End()

	var expired []domain.Loan
	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		expired, err = s.LoanRepo.ExpireOverdue(ctx, q, status, now)
		if err != nil {
			return err
		}

		bookIDs := make([]uuid.UUID, 0, len(expired))
		for _, loan := range expired {
			bookIDs = append(bookIDs, loan.BookID)
		}
		return s.BookRepo.SetStatusBulk(ctx, q, bookIDs, domain.BookStatusAvailable)
	})
	if err != nil {
		span.RecordError(err)
		return nil, customError.WrapDatabaseError(err)
	}

	span.SetAttributes(attribute.Int("loans.expired", len(expired)))
	return expired, nil
}

func (s *SweepService) penalize(ctx context.Context, loan domain.Loan, sanction *domain.Parameter, now time.Time, report *domain.SweepReport) {
	writer := penaltyWriter{penalties: s.PenaltyRepo, notifications: s.NotificationRepo, outbox: s.OutboxRepo}
	penalty := domain.NewPenalty(sanction, loan.UserID, &loan.ID, now)

	var event *domain.OutboxEvent
	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		event, err = writer.write(ctx, q, penalty, sanction, now)
		return err
	})
	if err != nil {
		report.ItemErrors++
		slog.ErrorContext(ctx, "failed to create late-return penalty", "loan_id", loan.ID, "user_id", loan.UserID, "error", err)
		return
	}
	report.PenaltiesCreated++

	if !dispatchAfterCommit(ctx, s.events, event) {
		report.PublishFailures++
	}
}

func (s *SweepService) expireReservations(ctx context.Context, now time.Time, report *domain.SweepReport) {
	expired, err := s.expire(ctx, domain.LoanStatusReserved, now)
	if err != nil {
		report.ItemErrors++
		slog.ErrorContext(ctx, "failed to expire reservations", "error", err)
		return
	}
	report.ExpiredReservations = len(expired)

	for _, loan := range expired {
		if err := s.NotificationRepo.Create(ctx, nil, reservationExpiredNotification(loan, now)); err != nil {
			report.ItemErrors++
			slog.ErrorContext(ctx, "failed to notify expired reservation", "loan_id", loan.ID, "error", err)
		}
	}
}
