package repository

import (
	"context"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx. Repository methods that
// take one run on the default connection when it is nil.
type Querier interface {
	sqlx.ExtContext
}

// Transactor runs fn inside a single database transaction, committing when fn
// returns nil and rolling back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(q Querier) error) error
}

// BookRepository defines the interface for catalog data operations
type BookRepository interface {
	// Create inserts a new book
	Create(ctx context.Context, q Querier, book *domain.Book) error

	// GetByID retrieves a book by id
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Book, error)

	// GetByIDForUpdate retrieves a book and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*domain.Book, error)

	// TransitionStatus moves a book from one status to another, returning false when
	// the book was not in the expected status
	TransitionStatus(ctx context.Context, q Querier, id uuid.UUID, from, to domain.BookStatus) (bool, error)

	// SetStatus sets the status of a book unconditionally
	SetStatus(ctx context.Context, q Querier, id uuid.UUID, status domain.BookStatus) error

	// SetStatusBulk sets the status of every listed book
	SetStatusBulk(ctx context.Context, q Querier, ids []uuid.UUID, status domain.BookStatus) error

	// List returns a page of books matching the filter and the total count
	List(ctx context.Context, filter domain.BookFilter, params domain.PaginationParams) ([]domain.Book, int64, error)
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create inserts a new loan
	Create(ctx context.Context, q Querier, loan *domain.Loan) error

	// GetByID retrieves a loan by id
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Loan, error)

	// TransitionStatus moves a loan from one status to another, optionally resetting
	// its end date. Returns sql.ErrNoRows when the loan is not in the expected status.
	TransitionStatus(ctx context.Context, q Querier, id uuid.UUID, from, to domain.LoanStatus, endDate *time.Time, now time.Time) (*domain.Loan, error)

	// ListDueBetween returns loans in the given status whose end date lies in [from, to]
	ListDueBetween(ctx context.Context, status domain.LoanStatus, from, to time.Time) ([]domain.Loan, error)

	// ExpireOverdue moves every loan in the given status whose end date is before now
	// to EXPIRED and returns exactly the rows it changed
	ExpireOverdue(ctx context.Context, q Querier, status domain.LoanStatus, now time.Time) ([]domain.Loan, error)

	// CountByUserStatusSince counts a user's loans in a status updated at or after since
	CountByUserStatusSince(ctx context.Context, q Querier, userID string, status domain.LoanStatus, since time.Time) (int, error)

	// List returns a page of loans with their book titles and the total count
	List(ctx context.Context, filter domain.LoanFilter, params domain.PaginationParams) ([]domain.LoanWithBook, int64, error)
}

// PenaltyRepository defines the interface for penalty data operations
type PenaltyRepository interface {
	// Create inserts a new penalty
	Create(ctx context.Context, q Querier, penalty *domain.Penalty) error

	// GetByID retrieves a penalty by id
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Penalty, error)

	// MarkPaid moves a PENDING penalty to PAID. Returns sql.ErrNoRows when the
	// penalty is not pending.
	MarkPaid(ctx context.Context, q Querier, id uuid.UUID, now time.Time) (*domain.Penalty, error)

	// List returns penalties matching the filter, newest first
	List(ctx context.Context, filter domain.PenaltyFilter) ([]domain.Penalty, error)
}

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	// Create inserts a new notification
	Create(ctx context.Context, q Querier, notification *domain.Notification) error

	// CreateIfAbsent inserts the notification unless one of the same type already
	// exists for its loan, reporting whether a row was written
	CreateIfAbsent(ctx context.Context, q Querier, notification *domain.Notification) (bool, error)

	// ListByUser returns a page of a user's notifications and the total count
	ListByUser(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error)

	// MarkAsRead marks one of the user's notifications as read
	MarkAsRead(ctx context.Context, id uuid.UUID, userID string) (bool, error)

	// MarkAllAsRead marks every unread notification of the user as read
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)

	// CountUnread counts the user's unread notifications
	CountUnread(ctx context.Context, userID string) (int64, error)

	// DeleteOlderThan removes notifications created before cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRepository defines the interface for integration event storage
type OutboxRepository interface {
	// Create inserts a new outbox event
	Create(ctx context.Context, q Querier, event *domain.OutboxEvent) error

	// ListPending returns undelivered events below the attempt limit, oldest first
	ListPending(ctx context.Context, limit, maxAttempts int) ([]domain.OutboxEvent, error)

	// MarkProcessed records a successful delivery
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error

	// RecordFailure increments the attempt counter and stores the last error
	RecordFailure(ctx context.Context, id uuid.UUID, reason string) error
}

// FavoriteRepository defines the interface for user favorites
type FavoriteRepository interface {
	// Add stores the favorite, doing nothing if it already exists
	Add(ctx context.Context, favorite *domain.Favorite) error

	// Remove deletes the favorite, reporting whether it existed
	Remove(ctx context.Context, userID string, bookID uuid.UUID) (bool, error)

	// ListByUser returns the user's favorite books, most recent first
	ListByUser(ctx context.Context, userID string) ([]domain.FavoriteBook, error)
}
