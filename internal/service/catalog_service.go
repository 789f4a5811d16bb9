package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"

	"github.com/google/uuid"
)

type CatalogService struct {
	BookRepo     repository.BookRepository
	FavoriteRepo repository.FavoriteRepository
	now          func() time.Time
}

func NewCatalogService(bookRepo repository.BookRepository, favoriteRepo repository.FavoriteRepository) *CatalogService {
	return &CatalogService{
		BookRepo:     bookRepo,
		FavoriteRepo: favoriteRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *CatalogService) ListBooks(ctx context.Context, search string, status domain.BookStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.Book], error) {
	switch status {
	case "", domain.BookStatusAvailable, domain.BookStatusReserved, domain.BookStatusNotAvailable:
	default:
		return nil, customError.WrapValidation("unknown book status " + string(status))
	}
	params.Validate()

	books, total, err := s.BookRepo.List(ctx, domain.BookFilter{Search: strings.TrimSpace(search), Status: status}, params)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	resp := domain.NewPaginatedResponse(books, params.Page, params.PageSize, total)
	return &resp, nil
}

func (s *CatalogService) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	book, err := s.BookRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapBookNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return book, nil
}

// CreateBook adds a title to the catalog as AVAILABLE.
func (s *CatalogService) CreateBook(ctx context.Context, request *domain.CreateBookRequest) (*domain.Book, error) {
	now := s.now()
	book := &domain.Book{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(request.Title),
		Author:    strings.TrimSpace(request.Author),
		ISBN:      strings.TrimSpace(request.ISBN),
		Status:    domain.BookStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.BookRepo.Create(ctx, nil, book); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return book, nil
}

// AddFavorite marks a book as a favorite of the user. Adding it twice is a no-op.
func (s *CatalogService) AddFavorite(ctx context.Context, userID string, bookID uuid.UUID) error {
	if _, err := s.GetBook(ctx, bookID); err != nil {
		return err
	}

	favorite := &domain.Favorite{UserID: userID, BookID: bookID, CreatedAt: s.now()}
	if err := s.FavoriteRepo.Add(ctx, favorite); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

// RemoveFavorite drops a favorite. Removing a missing favorite is a no-op.
func (s *CatalogService) RemoveFavorite(ctx context.Context, userID string, bookID uuid.UUID) error {
	if _, err := s.FavoriteRepo.Remove(ctx, userID, bookID); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (s *CatalogService) ListFavorites(ctx context.Context, userID string) ([]domain.FavoriteBook, error) {
	favorites, err := s.FavoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if favorites == nil {
		favorites = []domain.FavoriteBook{}
	}
	return favorites, nil
}
