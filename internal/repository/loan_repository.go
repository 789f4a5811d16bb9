package repository

import (
	"context"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	apperrors "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	loanColumns = `id, book_id, user_id, status, end_date, created_at, updated_at`

	liveLoanIndex = "uq_loans_live_book"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, q Querier, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, book_id, user_id, status, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := conn(r.db, q).ExecContext(ctx, query,
		loan.ID,
		loan.BookID,
		loan.UserID,
		loan.Status,
		loan.EndDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if isUniqueViolation(err, liveLoanIndex) {
		return apperrors.WrapBookUnavailable(loan.BookID.String())
	}

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := sqlx.GetContext(ctx, conn(r.db, q), &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) TransitionStatus(
	ctx context.Context,
	q Querier,
	id uuid.UUID,
	from, to domain.LoanStatus,
	endDate *time.Time,
	now time.Time,
) (*domain.Loan, error) {
	query := `
		UPDATE loans
		SET status = $3, end_date = COALESCE($4, end_date), updated_at = $5
		WHERE id = $1 AND status = $2
		RETURNING ` + loanColumns

	var loan domain.Loan
	if err := sqlx.GetContext(ctx, conn(r.db, q), &loan, query, id, from, to, endDate, now); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListDueBetween(ctx context.Context, status domain.LoanStatus, from, to time.Time) ([]domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status = $1 AND end_date >= $2 AND end_date <= $3
		ORDER BY end_date
	`

	var loans []domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, status, from, to); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ExpireOverdue(ctx context.Context, q Querier, status domain.LoanStatus, now time.Time) ([]domain.Loan, error) {
	query := `
		UPDATE loans
		SET status = $3, updated_at = $2
		WHERE status = $1 AND end_date < $2
		RETURNING ` + loanColumns

	var loans []domain.Loan
	if err := sqlx.SelectContext(ctx, conn(r.db, q), &loans, query, status, now, domain.LoanStatusExpired); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) CountByUserStatusSince(ctx context.Context, q Querier, userID string, status domain.LoanStatus, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM loans WHERE user_id = $1 AND status = $2 AND updated_at >= $3`

	var count int
	err := sqlx.GetContext(ctx, conn(r.db, q), &count, query, userID, status, since)
	return count, err
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter, params domain.PaginationParams) ([]domain.LoanWithBook, int64, error) {
	params.Validate()

	where := `
		WHERE ($1 = '' OR l.user_id = $1)
		  AND ($2 = '' OR l.status = $2)
	`

	var total int64
	countQuery := `SELECT COUNT(*) FROM loans l` + where
	if err := r.db.GetContext(ctx, &total, countQuery, filter.UserID, string(filter.Status)); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT l.id, l.book_id, l.user_id, l.status, l.end_date, l.created_at, l.updated_at,
		       b.title AS book_title, b.author AS book_author
		FROM loans l
		JOIN books b ON b.id = l.book_id` + where + `
		ORDER BY l.created_at DESC
		LIMIT $3 OFFSET $4`

	var loans []domain.LoanWithBook
	err := r.db.SelectContext(ctx, &loans, query, filter.UserID, string(filter.Status), params.PageSize, params.Offset())
	return loans, total, err
}
