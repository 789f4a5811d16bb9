package repository

import (
	"context"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const bookColumns = `id, title, author, isbn, status, created_at, updated_at`

type bookRepository struct {
	db *sqlx.DB
}

func NewBookRepository(db *sqlx.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, q Querier, book *domain.Book) error {
	query := `
		INSERT INTO books (id, title, author, isbn, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := conn(r.db, q).ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Status,
		book.CreatedAt,
		book.UpdatedAt,
	)

	return err
}

func (r *bookRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	var book domain.Book
	if err := sqlx.GetContext(ctx, conn(r.db, q), &book, query, id); err != nil {
		return nil, err
	}

	return &book, nil
}

func (r *bookRepository) GetByIDForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1 FOR UPDATE`

	var book domain.Book
	if err := sqlx.GetContext(ctx, conn(r.db, q), &book, query, id); err != nil {
		return nil, err
	}

	return &book, nil
}

func (r *bookRepository) TransitionStatus(ctx context.Context, q Querier, id uuid.UUID, from, to domain.BookStatus) (bool, error) {
	query := `
		UPDATE books
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := conn(r.db, q).ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *bookRepository) SetStatus(ctx context.Context, q Querier, id uuid.UUID, status domain.BookStatus) error {
	query := `UPDATE books SET status = $2, updated_at = NOW() WHERE id = $1`

	_, err := conn(r.db, q).ExecContext(ctx, query, id, status)
	return err
}

func (r *bookRepository) SetStatusBulk(ctx context.Context, q Querier, ids []uuid.UUID, status domain.BookStatus) error {
	if len(ids) == 0 {
		return nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	query := `UPDATE books SET status = $2, updated_at = NOW() WHERE id = ANY($1::uuid[])`

	_, err := conn(r.db, q).ExecContext(ctx, query, pq.Array(strIDs), status)
	return err
}

func (r *bookRepository) List(ctx context.Context, filter domain.BookFilter, params domain.PaginationParams) ([]domain.Book, int64, error) {
	params.Validate()

	where := `
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%' OR isbn = $1)
		  AND ($2 = '' OR status = $2)
	`

	var total int64
	countQuery := `SELECT COUNT(*) FROM books` + where
	if err := r.db.GetContext(ctx, &total, countQuery, filter.Search, string(filter.Status)); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookColumns + ` FROM books` + where + `
		ORDER BY title ASC
		LIMIT $3 OFFSET $4`

	var books []domain.Book
	err := r.db.SelectContext(ctx, &books, query, filter.Search, string(filter.Status), params.PageSize, params.Offset())
	return books, total, err
}
