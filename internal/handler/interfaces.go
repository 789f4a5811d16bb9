package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/google/uuid"
)

// The handlers depend on these narrow views of the services so they can be
// exercised with mocks.

type LoanManager interface {
	CreateReservation(ctx context.Context, bookID uuid.UUID, userID string) (*domain.Loan, error)
	CreateReservationForStudent(ctx context.Context, bookID uuid.UUID, studentID string) (*domain.Loan, error)
	ActivateLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	FinishLoan(ctx context.Context, loanID uuid.UUID, damaged bool) (*domain.LoanResponse, error)
	CancelReservation(ctx context.Context, loanID uuid.UUID) (*domain.LoanResponse, error)
	GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	ListUserLoans(ctx context.Context, userID string, status domain.LoanStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.LoanWithBook], error)
	ListLoans(ctx context.Context, status domain.LoanStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.LoanWithBook], error)
}

type SweepRunner interface {
	Run(ctx context.Context) (*domain.SweepReport, error)
}

type PenaltyManager interface {
	ListUserPenalties(ctx context.Context, userID string, status domain.PenaltyStatus) ([]domain.PenaltyDetail, error)
	CreateManualPenalty(ctx context.Context, request *domain.CreatePenaltyRequest) (*domain.Penalty, error)
	MarkPaid(ctx context.Context, penaltyID uuid.UUID) (*domain.Penalty, error)
	ListSanctions(ctx context.Context) ([]domain.Parameter, error)
}

type NotificationManager interface {
	List(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) (*domain.PaginatedResponse[domain.Notification], error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, id uuid.UUID, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	Cleanup(ctx context.Context, retention time.Duration) (*domain.CleanupResponse, error)
}

type CatalogManager interface {
	ListBooks(ctx context.Context, search string, status domain.BookStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.Book], error)
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	CreateBook(ctx context.Context, request *domain.CreateBookRequest) (*domain.Book, error)
	AddFavorite(ctx context.Context, userID string, bookID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID string, bookID uuid.UUID) error
	ListFavorites(ctx context.Context, userID string) ([]domain.FavoriteBook, error)
}

type WebhookPublisher interface {
	PublishWebhook(ctx context.Context, eventType string, data json.RawMessage) error
}
