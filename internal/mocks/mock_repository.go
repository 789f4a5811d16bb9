package mocks

import (
	"context"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// FakeTransactor runs fn directly with a nil Querier, so repository mocks
// receive the call as if it ran on the default connection.
type FakeTransactor struct {
	Begun int
}

func (f *FakeTransactor) WithinTx(ctx context.Context, fn func(q repository.Querier) error) error {
	f.Begun++
	return fn(nil)
}

type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) Create(ctx context.Context, q repository.Querier, book *domain.Book) error {
	args := m.Called(ctx, q, book)
	return args.Error(0)
}

func (m *MockBookRepository) GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookRepository) GetByIDForUpdate(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookRepository) TransitionStatus(ctx context.Context, q repository.Querier, id uuid.UUID, from, to domain.BookStatus) (bool, error) {
	args := m.Called(ctx, q, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookRepository) SetStatus(ctx context.Context, q repository.Querier, id uuid.UUID, status domain.BookStatus) error {
	args := m.Called(ctx, q, id, status)
	return args.Error(0)
}

func (m *MockBookRepository) SetStatusBulk(ctx context.Context, q repository.Querier, ids []uuid.UUID, status domain.BookStatus) error {
	args := m.Called(ctx, q, ids, status)
	return args.Error(0)
}

func (m *MockBookRepository) List(ctx context.Context, filter domain.BookFilter, params domain.PaginationParams) ([]domain.Book, int64, error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Book), args.Get(1).(int64), args.Error(2)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, q repository.Querier, loan *domain.Loan) error {
	args := m.Called(ctx, q, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) TransitionStatus(ctx context.Context, q repository.Querier, id uuid.UUID, from, to domain.LoanStatus, endDate *time.Time, now time.Time) (*domain.Loan, error) {
	args := m.Called(ctx, q, id, from, to, endDate, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListDueBetween(ctx context.Context, status domain.LoanStatus, from, to time.Time) ([]domain.Loan, error) {
	args := m.Called(ctx, status, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ExpireOverdue(ctx context.Context, q repository.Querier, status domain.LoanStatus, now time.Time) ([]domain.Loan, error) {
	args := m.Called(ctx, q, status, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) CountByUserStatusSince(ctx context.Context, q repository.Querier, userID string, status domain.LoanStatus, since time.Time) (int, error) {
	args := m.Called(ctx, q, userID, status, since)
	return args.Int(0), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context, filter domain.LoanFilter, params domain.PaginationParams) ([]domain.LoanWithBook, int64, error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.LoanWithBook), args.Get(1).(int64), args.Error(2)
}

type MockPenaltyRepository struct {
	mock.Mock
}

func (m *MockPenaltyRepository) Create(ctx context.Context, q repository.Querier, penalty *domain.Penalty) error {
	args := m.Called(ctx, q, penalty)
	return args.Error(0)
}

func (m *MockPenaltyRepository) GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Penalty, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Penalty), args.Error(1)
}

func (m *MockPenaltyRepository) MarkPaid(ctx context.Context, q repository.Querier, id uuid.UUID, now time.Time) (*domain.Penalty, error) {
	args := m.Called(ctx, q, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Penalty), args.Error(1)
}

func (m *MockPenaltyRepository) List(ctx context.Context, filter domain.PenaltyFilter) ([]domain.Penalty, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Penalty), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, q repository.Querier, notification *domain.Notification) error {
	args := m.Called(ctx, q, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) CreateIfAbsent(ctx context.Context, q repository.Querier, notification *domain.Notification) (bool, error) {
	args := m.Called(ctx, q, notification)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) ([]domain.Notification, int64, error) {
	args := m.Called(ctx, userID, unreadOnly, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID, userID string) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, q repository.Querier, event *domain.OutboxEvent) error {
	args := m.Called(ctx, q, event)
	return args.Error(0)
}

func (m *MockOutboxRepository) ListPending(ctx context.Context, limit, maxAttempts int) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, limit, maxAttempts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockOutboxRepository) RecordFailure(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

type MockFavoriteRepository struct {
	mock.Mock
}

func (m *MockFavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) error {
	args := m.Called(ctx, favorite)
	return args.Error(0)
}

func (m *MockFavoriteRepository) Remove(ctx context.Context, userID string, bookID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, bookID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepository) ListByUser(ctx context.Context, userID string) ([]domain.FavoriteBook, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FavoriteBook), args.Error(1)
}
