package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/config"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/mocks"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testBusinessConfig() config.BusinessConfig {
	return config.BusinessConfig{
		LoanDurationDays:             14,
		PickupWindow:                 24 * time.Hour,
		DeadlineNoticeWindow:         24 * time.Hour,
		CancellationWindow:           30 * 24 * time.Hour,
		CancellationPenaltyThreshold: 3,
		NotificationRetention:        30 * 24 * time.Hour,
		SanctionLateReturn:           "Devolucion tardia",
		SanctionDamagedBook:          "Libro danado",
		SanctionCancellation:         "Cancelacion de reserva",
	}
}

type loanMocks struct {
	loans         *mocks.MockLoanRepository
	books         *mocks.MockBookRepository
	penalties     *mocks.MockPenaltyRepository
	notifications *mocks.MockNotificationRepository
	outbox        *mocks.MockOutboxRepository
	tx            *mocks.FakeTransactor
	directory     *mocks.MockParameterDirectory
	events        *mocks.MockEventDispatcher
}

func (m loanMocks) assertExpectations(t *testing.T) {
	m.loans.AssertExpectations(t)
	m.books.AssertExpectations(t)
	m.penalties.AssertExpectations(t)
	m.notifications.AssertExpectations(t)
	m.outbox.AssertExpectations(t)
	m.directory.AssertExpectations(t)
	m.events.AssertExpectations(t)
}

func newTestLoanService() (*LoanService, loanMocks) {
	m := loanMocks{
		loans:         &mocks.MockLoanRepository{},
		books:         &mocks.MockBookRepository{},
		penalties:     &mocks.MockPenaltyRepository{},
		notifications: &mocks.MockNotificationRepository{},
		outbox:        &mocks.MockOutboxRepository{},
		tx:            &mocks.FakeTransactor{},
		directory:     &mocks.MockParameterDirectory{},
		events:        &mocks.MockEventDispatcher{},
	}

	s := NewLoanService(m.loans, m.books, m.penalties, m.notifications, m.outbox, m.tx, m.directory, m.events, testBusinessConfig())
	s.now = func() time.Time { return fixedNow }
	return s, m
}

func sanction(id, name string, amount int64) *domain.Parameter {
	return &domain.Parameter{
		ID:           id,
		Name:         name,
		Type:         domain.ParameterTypeSanction,
		NumericValue: decimal.NewNullDecimal(decimal.NewFromInt(amount)),
		Active:       true,
	}
}

func TestCreateReservation(t *testing.T) {
	bookID := uuid.New()

	tests := []struct {
		name          string
		setupMocks    func(m loanMocks)
		expectedError error
	}{
		{
			name: "available book is reserved",
			setupMocks: func(m loanMocks) {
				m.books.On("GetByIDForUpdate", mock.Anything, mock.Anything, bookID).
					Return(&domain.Book{ID: bookID, Status: domain.BookStatusAvailable}, nil)
				m.books.On("TransitionStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusAvailable, domain.BookStatusReserved).
					Return(true, nil)
				m.loans.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
					return l.BookID == bookID &&
						l.UserID == "student-1" &&
						l.Status == domain.LoanStatusReserved &&
						l.EndDate.Equal(fixedNow.Add(24*time.Hour))
				})).Return(nil)
			},
		},
		{
			name: "book already held",
			setupMocks: func(m loanMocks) {
				m.books.On("GetByIDForUpdate", mock.Anything, mock.Anything, bookID).
					Return(&domain.Book{ID: bookID, Status: domain.BookStatusReserved}, nil)
			},
			expectedError: customError.ErrBookUnavailable,
		},
		{
			name: "lost the race on the conditional update",
			setupMocks: func(m loanMocks) {
				m.books.On("GetByIDForUpdate", mock.Anything, mock.Anything, bookID).
					Return(&domain.Book{ID: bookID, Status: domain.BookStatusAvailable}, nil)
				m.books.On("TransitionStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusAvailable, domain.BookStatusReserved).
					Return(false, nil)
			},
			expectedError: customError.ErrBookUnavailable,
		},
		{
			name: "unknown book",
			setupMocks: func(m loanMocks) {
				m.books.On("GetByIDForUpdate", mock.Anything, mock.Anything, bookID).
					Return(nil, sql.ErrNoRows)
			},
			expectedError: customError.ErrBookNotFound,
		},
		{
			name: "database failure",
			setupMocks: func(m loanMocks) {
				m.books.On("GetByIDForUpdate", mock.Anything, mock.Anything, bookID).
					Return(nil, errors.New("connection reset"))
			},
			expectedError: customError.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			s, m := newTestLoanService()
			tt.setupMocks(m)

			// Act
			loan, err := s.CreateReservation(context.Background(), bookID, "student-1")

			// Assert
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, loan)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.LoanStatusReserved, loan.Status)
			}
			m.assertExpectations(t)
		})
	}
}

func TestCreateReservation_UnavailableIsValidationError(t *testing.T) {
	s, m := newTestLoanService()
	bookID := uuid.New()
	m.books.On("GetByIDForUpdate", mock.Anything, mock.Anything, bookID).
		Return(&domain.Book{ID: bookID, Status: domain.BookStatusNotAvailable}, nil)

	_, err := s.CreateReservation(context.Background(), bookID, "student-1")

	assert.ErrorIs(t, err, customError.ErrValidation)
	assert.Equal(t, customError.ErrCodeBookUnavailable, customError.Code(err))
}

func TestCreateReservationForStudent(t *testing.T) {
	s, m := newTestLoanService()
	bookID := uuid.New()

	m.books.On("GetByIDForUpdate", mock.Anything, mock.Anything, bookID).
		Return(&domain.Book{ID: bookID, Status: domain.BookStatusAvailable}, nil)
	m.books.On("TransitionStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusAvailable, domain.BookStatusNotAvailable).
		Return(true, nil)
	m.loans.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Status == domain.LoanStatusActive && l.UserID == "walk-in"
	})).Return(nil)

	loan, err := s.CreateReservationForStudent(context.Background(), bookID, "walk-in")

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.Equal(t, fixedNow.AddDate(0, 0, 14), loan.EndDate)
	m.assertExpectations(t)
}

func TestActivateLoan(t *testing.T) {
	loanID := uuid.New()
	bookID := uuid.New()
	expectedEnd := fixedNow.AddDate(0, 0, 14)

	t.Run("reserved loan becomes active with a fourteen day deadline", func(t *testing.T) {
		s, m := newTestLoanService()

		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusReserved, domain.LoanStatusActive,
			mock.MatchedBy(func(end *time.Time) bool { return end != nil && end.Equal(expectedEnd) }),
			fixedNow,
		).Return(&domain.Loan{ID: loanID, BookID: bookID, Status: domain.LoanStatusActive, EndDate: expectedEnd}, nil)
		m.books.On("SetStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusNotAvailable).Return(nil)

		loan, err := s.ActivateLoan(context.Background(), loanID)

		require.NoError(t, err)
		assert.Equal(t, domain.LoanStatusActive, loan.Status)
		assert.Equal(t, expectedEnd, loan.EndDate)
		assert.Equal(t, 1, m.tx.Begun)
		m.assertExpectations(t)
	})

	t.Run("second activation fails with invalid state", func(t *testing.T) {
		s, m := newTestLoanService()

		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusReserved, domain.LoanStatusActive, mock.Anything, fixedNow,
		).Return(nil, sql.ErrNoRows)
		m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).
			Return(&domain.Loan{ID: loanID, Status: domain.LoanStatusActive}, nil)

		loan, err := s.ActivateLoan(context.Background(), loanID)

		assert.Nil(t, loan)
		assert.ErrorIs(t, err, customError.ErrInvalidState)
		assert.Contains(t, err.Error(), "cannot activate from status ACTIVE")
		m.books.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("unknown loan", func(t *testing.T) {
		s, m := newTestLoanService()

		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusReserved, domain.LoanStatusActive, mock.Anything, fixedNow,
		).Return(nil, sql.ErrNoRows)
		m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).Return(nil, sql.ErrNoRows)

		_, err := s.ActivateLoan(context.Background(), loanID)

		assert.ErrorIs(t, err, customError.ErrLoanNotFound)
		m.assertExpectations(t)
	})
}

func TestFinishLoan(t *testing.T) {
	loanID := uuid.New()
	bookID := uuid.New()
	active := &domain.Loan{ID: loanID, BookID: bookID, UserID: "student-1", Status: domain.LoanStatusFinished}
	damagedSanction := sanction("8", "Libro danado", 9000)

	t.Run("undamaged return creates no penalty", func(t *testing.T) {
		s, m := newTestLoanService()

		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusActive, domain.LoanStatusFinished, (*time.Time)(nil), fixedNow,
		).Return(active, nil)
		m.books.On("SetStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusAvailable).Return(nil)

		resp, err := s.FinishLoan(context.Background(), loanID, false)

		require.NoError(t, err)
		assert.Equal(t, domain.LoanStatusFinished, resp.Loan.Status)
		assert.Nil(t, resp.Penalty)
		m.penalties.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		m.directory.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("damaged return creates exactly one penalty", func(t *testing.T) {
		s, m := newTestLoanService()

		m.directory.On("GetByName", mock.Anything, "Libro danado").Return(damagedSanction, nil)
		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusActive, domain.LoanStatusFinished, (*time.Time)(nil), fixedNow,
		).Return(active, nil)
		m.books.On("SetStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusAvailable).Return(nil)
		m.penalties.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.Penalty) bool {
			return p.UserID == "student-1" &&
				p.SanctionID == "8" &&
				p.LoanID.Valid && p.LoanID.UUID == loanID &&
				p.Status == domain.PenaltyStatusPending
		})).Return(nil).Once()
		m.notifications.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotificationPenaltyApplied && n.UserID == "student-1"
		})).Return(nil).Once()
		m.outbox.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.EventType == domain.RoutingSanctionCreated
		})).Return(nil).Once()
		m.events.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()

		resp, err := s.FinishLoan(context.Background(), loanID, true)

		require.NoError(t, err)
		require.NotNil(t, resp.Penalty)
		assert.Equal(t, "8", resp.Penalty.SanctionID)
		m.assertExpectations(t)
	})

	t.Run("directory outage writes nothing", func(t *testing.T) {
		s, m := newTestLoanService()

		m.directory.On("GetByName", mock.Anything, "Libro danado").
			Return(nil, customError.WrapDependencyUnavailable("backoffice", errors.New("timeout")))

		resp, err := s.FinishLoan(context.Background(), loanID, true)

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, customError.ErrDependencyUnavailable)
		assert.Equal(t, 0, m.tx.Begun)
		m.assertExpectations(t)
	})

	t.Run("penalty write failure fails the whole operation", func(t *testing.T) {
		s, m := newTestLoanService()

		m.directory.On("GetByName", mock.Anything, "Libro danado").Return(damagedSanction, nil)
		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusActive, domain.LoanStatusFinished, (*time.Time)(nil), fixedNow,
		).Return(active, nil)
		m.books.On("SetStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusAvailable).Return(nil)
		m.penalties.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

		resp, err := s.FinishLoan(context.Background(), loanID, true)

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, customError.ErrPersistence)
		m.events.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("publish failure does not fail the return", func(t *testing.T) {
		s, m := newTestLoanService()

		m.directory.On("GetByName", mock.Anything, "Libro danado").Return(damagedSanction, nil)
		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusActive, domain.LoanStatusFinished, (*time.Time)(nil), fixedNow,
		).Return(active, nil)
		m.books.On("SetStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusAvailable).Return(nil)
		m.penalties.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.notifications.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.outbox.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.events.On("Dispatch", mock.Anything, mock.Anything).
			Return(customError.WrapDependencyUnavailable("broker", errors.New("connection refused")))

		resp, err := s.FinishLoan(context.Background(), loanID, true)

		require.NoError(t, err)
		assert.NotNil(t, resp.Penalty)
		m.assertExpectations(t)
	})

	t.Run("reserved loan cannot be finished", func(t *testing.T) {
		s, m := newTestLoanService()

		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusActive, domain.LoanStatusFinished, (*time.Time)(nil), fixedNow,
		).Return(nil, sql.ErrNoRows)
		m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).
			Return(&domain.Loan{ID: loanID, Status: domain.LoanStatusReserved}, nil)

		_, err := s.FinishLoan(context.Background(), loanID, false)

		assert.ErrorIs(t, err, customError.ErrInvalidState)
		m.assertExpectations(t)
	})
}

func TestCancelReservation(t *testing.T) {
	loanID := uuid.New()
	bookID := uuid.New()
	cancelled := &domain.Loan{ID: loanID, BookID: bookID, UserID: "student-1", Status: domain.LoanStatusCancelled}
	cancelSanction := sanction("9", "Cancelacion de reserva", 500)
	since := fixedNow.Add(-30 * 24 * time.Hour)

	setupCancel := func(m loanMocks, count int) {
		m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).
			Return(&domain.Loan{ID: loanID, BookID: bookID, UserID: "student-1", Status: domain.LoanStatusReserved}, nil)
		m.loans.On("CountByUserStatusSince", mock.Anything, mock.Anything, "student-1", domain.LoanStatusCancelled, since).
			Return(count-1, nil).Once()
		m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
			domain.LoanStatusReserved, domain.LoanStatusCancelled, (*time.Time)(nil), fixedNow,
		).Return(cancelled, nil)
		m.books.On("SetStatus", mock.Anything, mock.Anything, bookID, domain.BookStatusAvailable).Return(nil)
		m.loans.On("CountByUserStatusSince", mock.Anything, mock.Anything, "student-1", domain.LoanStatusCancelled, since).
			Return(count, nil).Once()
	}

	tests := []struct {
		name            string
		count           int
		sanctionErr     error
		expectedPenalty bool
	}{
		{name: "first cancellation", count: 1},
		{name: "second cancellation", count: 2},
		{name: "third cancellation is penalized", count: 3, expectedPenalty: true},
		{name: "fifth cancellation is penalized", count: 5, expectedPenalty: true},
		{
			name:        "sanction unavailable still cancels",
			count:       3,
			sanctionErr: customError.WrapDependencyUnavailable("backoffice", errors.New("timeout")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			s, m := newTestLoanService()
			switch {
			case tt.count < 3:
				// below the threshold the directory is never consulted
			case tt.sanctionErr != nil:
				m.directory.On("GetByName", mock.Anything, "Cancelacion de reserva").Return(nil, tt.sanctionErr)
			default:
				m.directory.On("GetByName", mock.Anything, "Cancelacion de reserva").Return(cancelSanction, nil)
			}
			setupCancel(m, tt.count)
			if tt.expectedPenalty {
				m.penalties.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.Penalty) bool {
					return p.SanctionID == "9" && p.UserID == "student-1"
				})).Return(nil).Once()
				m.notifications.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				m.outbox.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				m.events.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()
			}

			// Act
			resp, err := s.CancelReservation(context.Background(), loanID)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, domain.LoanStatusCancelled, resp.Loan.Status)
			assert.Equal(t, tt.expectedPenalty, resp.Penalty != nil)
			if !tt.expectedPenalty {
				m.penalties.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			}
			if tt.count < 3 {
				m.directory.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
			}
			m.assertExpectations(t)
		})
	}
}

func TestCancelReservation_ActiveLoan(t *testing.T) {
	s, m := newTestLoanService()
	loanID := uuid.New()

	m.loans.On("TransitionStatus", mock.Anything, mock.Anything, loanID,
		domain.LoanStatusReserved, domain.LoanStatusCancelled, (*time.Time)(nil), fixedNow,
	).Return(nil, sql.ErrNoRows)
	m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).
		Return(&domain.Loan{ID: loanID, Status: domain.LoanStatusActive}, nil)

	resp, err := s.CancelReservation(context.Background(), loanID)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, customError.ErrInvalidState)
	assert.Equal(t, customError.ErrCodeInvalidState, customError.Code(err))
	m.directory.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestListLoans(t *testing.T) {
	s, m := newTestLoanService()

	rows := []domain.LoanWithBook{{Loan: domain.Loan{ID: uuid.New(), Status: domain.LoanStatusActive}, BookTitle: "Compiladores"}}
	m.loans.On("List", mock.Anything, domain.LoanFilter{UserID: "student-1", Status: domain.LoanStatusActive},
		domain.PaginationParams{Page: 1, PageSize: 20}).Return(rows, int64(1), nil)

	page, err := s.ListUserLoans(context.Background(), "student-1", domain.LoanStatusActive, domain.PaginationParams{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalItems)
	assert.Equal(t, "Compiladores", page.Data[0].BookTitle)

	_, err = s.ListLoans(context.Background(), domain.LoanStatus("LOST"), domain.DefaultPagination())
	assert.ErrorIs(t, err, customError.ErrValidation)
	m.assertExpectations(t)
}

func TestGetLoan_NotFound(t *testing.T) {
	s, m := newTestLoanService()
	loanID := uuid.New()
	m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).Return(nil, sql.ErrNoRows)

	_, err := s.GetLoan(context.Background(), loanID)

	assert.ErrorIs(t, err, customError.ErrNotFound)
	m.assertExpectations(t)
}
