package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLoanManager struct {
	mock.Mock
}

func (m *MockLoanManager) CreateReservation(ctx context.Context, bookID uuid.UUID, userID string) (*domain.Loan, error) {
	args := m.Called(ctx, bookID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanManager) CreateReservationForStudent(ctx context.Context, bookID uuid.UUID, studentID string) (*domain.Loan, error) {
	args := m.Called(ctx, bookID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanManager) ActivateLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanManager) FinishLoan(ctx context.Context, loanID uuid.UUID, damaged bool) (*domain.LoanResponse, error) {
	args := m.Called(ctx, loanID, damaged)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanResponse), args.Error(1)
}

func (m *MockLoanManager) CancelReservation(ctx context.Context, loanID uuid.UUID) (*domain.LoanResponse, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanResponse), args.Error(1)
}

func (m *MockLoanManager) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanManager) ListUserLoans(ctx context.Context, userID string, status domain.LoanStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.LoanWithBook], error) {
	args := m.Called(ctx, userID, status, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaginatedResponse[domain.LoanWithBook]), args.Error(1)
}

func (m *MockLoanManager) ListLoans(ctx context.Context, status domain.LoanStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.LoanWithBook], error) {
	args := m.Called(ctx, status, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaginatedResponse[domain.LoanWithBook]), args.Error(1)
}

type MockSweepRunner struct {
	mock.Mock
}

func (m *MockSweepRunner) Run(ctx context.Context) (*domain.SweepReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepReport), args.Error(1)
}

type MockPenaltyManager struct {
	mock.Mock
}

func (m *MockPenaltyManager) ListUserPenalties(ctx context.Context, userID string, status domain.PenaltyStatus) ([]domain.PenaltyDetail, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PenaltyDetail), args.Error(1)
}

func (m *MockPenaltyManager) CreateManualPenalty(ctx context.Context, request *domain.CreatePenaltyRequest) (*domain.Penalty, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Penalty), args.Error(1)
}

func (m *MockPenaltyManager) MarkPaid(ctx context.Context, penaltyID uuid.UUID) (*domain.Penalty, error) {
	args := m.Called(ctx, penaltyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Penalty), args.Error(1)
}

func (m *MockPenaltyManager) ListSanctions(ctx context.Context) ([]domain.Parameter, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Parameter), args.Error(1)
}

type MockNotificationManager struct {
	mock.Mock
}

func (m *MockNotificationManager) List(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) (*domain.PaginatedResponse[domain.Notification], error) {
	args := m.Called(ctx, userID, unreadOnly, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaginatedResponse[domain.Notification]), args.Error(1)
}

func (m *MockNotificationManager) UnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationManager) MarkAsRead(ctx context.Context, id uuid.UUID, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationManager) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationManager) Cleanup(ctx context.Context, retention time.Duration) (*domain.CleanupResponse, error) {
	args := m.Called(ctx, retention)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CleanupResponse), args.Error(1)
}

type MockCatalogManager struct {
	mock.Mock
}

func (m *MockCatalogManager) ListBooks(ctx context.Context, search string, status domain.BookStatus, params domain.PaginationParams) (*domain.PaginatedResponse[domain.Book], error) {
	args := m.Called(ctx, search, status, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaginatedResponse[domain.Book]), args.Error(1)
}

func (m *MockCatalogManager) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockCatalogManager) CreateBook(ctx context.Context, request *domain.CreateBookRequest) (*domain.Book, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockCatalogManager) AddFavorite(ctx context.Context, userID string, bookID uuid.UUID) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *MockCatalogManager) RemoveFavorite(ctx context.Context, userID string, bookID uuid.UUID) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *MockCatalogManager) ListFavorites(ctx context.Context, userID string) ([]domain.FavoriteBook, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FavoriteBook), args.Error(1)
}

type MockWebhookPublisher struct {
	mock.Mock
}

func (m *MockWebhookPublisher) PublishWebhook(ctx context.Context, eventType string, data json.RawMessage) error {
	args := m.Called(ctx, eventType, data)
	return args.Error(0)
}
