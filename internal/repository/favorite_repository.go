package repository

import (
	"context"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type favoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) error {
	query := `
		INSERT INTO favorites (user_id, book_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, book_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, favorite.UserID, favorite.BookID, favorite.CreatedAt)
	return err
}

func (r *favoriteRepository) Remove(ctx context.Context, userID string, bookID uuid.UUID) (bool, error) {
	query := `DELETE FROM favorites WHERE user_id = $1 AND book_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, bookID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows == 1, err
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID string) ([]domain.FavoriteBook, error) {
	query := `
		SELECT b.id, b.title, b.author, b.isbn, b.status, b.created_at, b.updated_at,
		       f.created_at AS favorited_at
		FROM favorites f
		JOIN books b ON b.id = f.book_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`

	var favorites []domain.FavoriteBook
	if err := r.db.SelectContext(ctx, &favorites, query, userID); err != nil {
		return nil, err
	}

	return favorites, nil
}
