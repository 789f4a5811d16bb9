package repository

import (
	"context"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const penaltyColumns = `id, sanction_id, user_id, loan_id, status, expires_in, created_at, updated_at`

type penaltyRepository struct {
	db *sqlx.DB
}

func NewPenaltyRepository(db *sqlx.DB) PenaltyRepository {
	return &penaltyRepository{db: db}
}

func (r *penaltyRepository) Create(ctx context.Context, q Querier, penalty *domain.Penalty) error {
	query := `
		INSERT INTO penalties (id, sanction_id, user_id, loan_id, status, expires_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(r.db, q).ExecContext(ctx, query,
		penalty.ID,
		penalty.SanctionID,
		penalty.UserID,
		penalty.LoanID,
		penalty.Status,
		penalty.ExpiresIn,
		penalty.CreatedAt,
		penalty.UpdatedAt,
	)

	return err
}

func (r *penaltyRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Penalty, error) {
	query := `SELECT ` + penaltyColumns + ` FROM penalties WHERE id = $1`

	var penalty domain.Penalty
	if err := sqlx.GetContext(ctx, conn(r.db, q), &penalty, query, id); err != nil {
		return nil, err
	}

	return &penalty, nil
}

func (r *penaltyRepository) MarkPaid(ctx context.Context, q Querier, id uuid.UUID, now time.Time) (*domain.Penalty, error) {
	query := `
		UPDATE penalties
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + penaltyColumns

	var penalty domain.Penalty
	err := sqlx.GetContext(ctx, conn(r.db, q), &penalty, query,
		id, domain.PenaltyStatusPending, domain.PenaltyStatusPaid, now)
	if err != nil {
		return nil, err
	}

	return &penalty, nil
}

func (r *penaltyRepository) List(ctx context.Context, filter domain.PenaltyFilter) ([]domain.Penalty, error) {
	query := `
		SELECT ` + penaltyColumns + `
		FROM penalties
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`

	var penalties []domain.Penalty
	if err := r.db.SelectContext(ctx, &penalties, query, filter.UserID, string(filter.Status)); err != nil {
		return nil, err
	}

	return penalties, nil
}
