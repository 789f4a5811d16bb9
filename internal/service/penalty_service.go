package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"

	"github.com/google/uuid"
)

type PenaltyService struct {
	LoanRepo         repository.LoanRepository
	PenaltyRepo      repository.PenaltyRepository
	NotificationRepo repository.NotificationRepository
	OutboxRepo       repository.OutboxRepository
	tx               repository.Transactor
	directory        ParameterDirectory
	events           EventDispatcher
	now              func() time.Time
}

func NewPenaltyService(
	loanRepo repository.LoanRepository,
	penaltyRepo repository.PenaltyRepository,
	notificationRepo repository.NotificationRepository,
	outboxRepo repository.OutboxRepository,
	tx repository.Transactor,
	directory ParameterDirectory,
	events EventDispatcher,
) *PenaltyService {
	return &PenaltyService{
		LoanRepo:         loanRepo,
		PenaltyRepo:      penaltyRepo,
		NotificationRepo: notificationRepo,
		OutboxRepo:       outboxRepo,
		tx:               tx,
		directory:        directory,
		events:           events,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// ListUserPenalties returns the user's penalties with the sanction name and
// current amount. If the directory is down the penalties come back without
// amounts.
func (s *PenaltyService) ListUserPenalties(ctx context.Context, userID string, status domain.PenaltyStatus) ([]domain.PenaltyDetail, error) {
	if status != "" && status != domain.PenaltyStatusPending && status != domain.PenaltyStatusPaid {
		return nil, customError.WrapValidation("unknown penalty status " + string(status))
	}

	penalties, err := s.PenaltyRepo.List(ctx, domain.PenaltyFilter{UserID: userID, Status: status})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	sanctions := make(map[string]domain.Parameter)
	if len(penalties) > 0 {
		params, err := s.directory.GetAll(ctx)
		if err != nil {
			slog.WarnContext(ctx, "penalties listed without amounts", "user_id", userID, "error", err)
		}
		for _, p := range params {
			sanctions[p.ID] = p
		}
	}

	details := make([]domain.PenaltyDetail, 0, len(penalties))
	for _, p := range penalties {
		detail := domain.PenaltyDetail{Penalty: p}
		if sanction, ok := sanctions[p.SanctionID]; ok {
			detail.SanctionName = sanction.Name
			detail.Amount = sanction.NumericValue
		}
		details = append(details, detail)
	}

	return details, nil
}

// CreateManualPenalty applies a named sanction to a user on behalf of staff.
func (s *PenaltyService) CreateManualPenalty(ctx context.Context, request *domain.CreatePenaltyRequest) (*domain.Penalty, error) {
	var loanID *uuid.UUID
	if request.LoanID != "" {
		id, err := uuid.Parse(request.LoanID)
		if err != nil {
			return nil, customError.WrapValidation("loan_id must be a valid uuid")
		}

		loan, err := s.LoanRepo.GetByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, customError.WrapLoanNotFound(request.LoanID)
			}
			return nil, customError.WrapDatabaseError(err)
		}
		if loan.UserID != request.UserID {
			return nil, customError.NewBusinessError(
				customError.ErrCodeValidation,
				fmt.Sprintf("Loan %s does not belong to user %s", request.LoanID, request.UserID),
				customError.ErrValidation,
			)
		}
		loanID = &id
	}

	now := s.now()
	if request.ExpiresIn != nil && !request.ExpiresIn.After(now) {
		return nil, customError.WrapValidation("expires_in must be in the future")
	}

	sanction, err := s.directory.GetByName(ctx, request.SanctionName)
	if err != nil {
		return nil, err
	}

	penalty := domain.NewPenalty(sanction, request.UserID, loanID, now)
	penalty.ExpiresIn = request.ExpiresIn

	writer := penaltyWriter{penalties: s.PenaltyRepo, notifications: s.NotificationRepo, outbox: s.OutboxRepo}
	var event *domain.OutboxEvent
	err = s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		event, err = writer.write(ctx, q, penalty, sanction, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	dispatchAfterCommit(ctx, s.events, event)

	slog.InfoContext(ctx, "manual penalty created", "penalty_id", penalty.ID, "user_id", penalty.UserID, "sanction_id", penalty.SanctionID)
	return penalty, nil
}

// MarkPaid settles a PENDING penalty and announces it on sanctions.updated.
func (s *PenaltyService) MarkPaid(ctx context.Context, penaltyID uuid.UUID) (*domain.Penalty, error) {
	now := s.now()

	var penalty *domain.Penalty
	var event *domain.OutboxEvent
	err := s.tx.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		penalty, err = s.PenaltyRepo.MarkPaid(ctx, q, penaltyID, now)
		if err != nil {
			return s.markPaidError(ctx, q, penaltyID, err)
		}

		event, err = domain.NewPenaltyOutboxEvent(penalty, domain.RoutingSanctionUpdated, now)
		if err != nil {
			return err
		}
		if err := s.OutboxRepo.Create(ctx, q, event); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dispatchAfterCommit(ctx, s.events, event)

	slog.InfoContext(ctx, "penalty paid", "penalty_id", penaltyID)
	return penalty, nil
}

func (s *PenaltyService) markPaidError(ctx context.Context, q repository.Querier, penaltyID uuid.UUID, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return customError.WrapDatabaseError(err)
	}

	if _, err := s.PenaltyRepo.GetByID(ctx, q, penaltyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapPenaltyNotFound(penaltyID.String())
		}
		return customError.WrapDatabaseError(err)
	}

	return customError.WrapPenaltyAlreadyPaid(penaltyID.String())
}

// ListSanctions returns the active sanction definitions.
func (s *PenaltyService) ListSanctions(ctx context.Context) ([]domain.Parameter, error) {
	return s.directory.GetByType(ctx, domain.ParameterTypeSanction)
}
