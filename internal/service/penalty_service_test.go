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

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/mocks"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"
)

func newTestPenaltyService() (*PenaltyService, loanMocks) {
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

	s := NewPenaltyService(m.loans, m.penalties, m.notifications, m.outbox, m.tx, m.directory, m.events)
	s.now = func() time.Time { return fixedNow }
	return s, m
}

func TestListUserPenalties(t *testing.T) {
	penalties := []domain.Penalty{
		{ID: uuid.New(), SanctionID: "7", UserID: "student-1", Status: domain.PenaltyStatusPending},
		{ID: uuid.New(), SanctionID: "99", UserID: "student-1", Status: domain.PenaltyStatusPending},
	}

	t.Run("enriched with sanction name and amount", func(t *testing.T) {
		s, m := newTestPenaltyService()
		m.penalties.On("List", mock.Anything, domain.PenaltyFilter{UserID: "student-1"}).Return(penalties, nil)
		m.directory.On("GetAll", mock.Anything).Return([]domain.Parameter{*sanction("7", "Devolucion tardia", 1500)}, nil)

		details, err := s.ListUserPenalties(context.Background(), "student-1", "")

		require.NoError(t, err)
		require.Len(t, details, 2)
		assert.Equal(t, "Devolucion tardia", details[0].SanctionName)
		assert.True(t, details[0].Amount.Decimal.Equal(decimal.NewFromInt(1500)))
		assert.Empty(t, details[1].SanctionName)
		assert.False(t, details[1].Amount.Valid)
		m.assertExpectations(t)
	})

	t.Run("directory outage returns penalties without amounts", func(t *testing.T) {
		s, m := newTestPenaltyService()
		m.penalties.On("List", mock.Anything, domain.PenaltyFilter{UserID: "student-1", Status: domain.PenaltyStatusPending}).Return(penalties, nil)
		m.directory.On("GetAll", mock.Anything).Return(nil, customError.WrapDependencyUnavailable("backoffice", errors.New("timeout")))

		details, err := s.ListUserPenalties(context.Background(), "student-1", domain.PenaltyStatusPending)

		require.NoError(t, err)
		assert.Len(t, details, 2)
		assert.False(t, details[0].Amount.Valid)
	})

	t.Run("no penalties skips the directory", func(t *testing.T) {
		s, m := newTestPenaltyService()
		m.penalties.On("List", mock.Anything, domain.PenaltyFilter{UserID: "student-1"}).Return([]domain.Penalty{}, nil)

		details, err := s.ListUserPenalties(context.Background(), "student-1", "")

		require.NoError(t, err)
		assert.NotNil(t, details)
		assert.Empty(t, details)
		m.directory.AssertNotCalled(t, "GetAll", mock.Anything)
	})

	t.Run("invalid status", func(t *testing.T) {
		s, _ := newTestPenaltyService()

		_, err := s.ListUserPenalties(context.Background(), "student-1", domain.PenaltyStatus("FORGIVEN"))

		assert.ErrorIs(t, err, customError.ErrValidation)
	})
}

func TestCreateManualPenalty(t *testing.T) {
	loanID := uuid.New()
	future := fixedNow.Add(72 * time.Hour)
	past := fixedNow.Add(-time.Hour)

	tests := []struct {
		name          string
		request       *domain.CreatePenaltyRequest
		setupMocks    func(m loanMocks)
		expectedError error
	}{
		{
			name:    "penalty linked to a loan",
			request: &domain.CreatePenaltyRequest{UserID: "student-1", SanctionName: "Libro danado", LoanID: loanID.String(), ExpiresIn: &future},
			setupMocks: func(m loanMocks) {
				m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).
					Return(&domain.Loan{ID: loanID, UserID: "student-1", Status: domain.LoanStatusFinished}, nil)
				m.directory.On("GetByName", mock.Anything, "Libro danado").Return(sanction("8", "Libro danado", 9000), nil)
				m.penalties.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.Penalty) bool {
					return p.SanctionID == "8" && p.LoanID.UUID == loanID && p.ExpiresIn != nil && p.ExpiresIn.Equal(future)
				})).Return(nil)
				m.notifications.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				m.outbox.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				m.events.On("Dispatch", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:          "malformed loan id",
			request:       &domain.CreatePenaltyRequest{UserID: "student-1", SanctionName: "Libro danado", LoanID: "not-a-uuid"},
			setupMocks:    func(m loanMocks) {},
			expectedError: customError.ErrValidation,
		},
		{
			name:    "unknown loan",
			request: &domain.CreatePenaltyRequest{UserID: "student-1", SanctionName: "Libro danado", LoanID: loanID.String()},
			setupMocks: func(m loanMocks) {
				m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).Return(nil, sql.ErrNoRows)
			},
			expectedError: customError.ErrLoanNotFound,
		},
		{
			name:    "loan of another user",
			request: &domain.CreatePenaltyRequest{UserID: "student-1", SanctionName: "Libro danado", LoanID: loanID.String()},
			setupMocks: func(m loanMocks) {
				m.loans.On("GetByID", mock.Anything, mock.Anything, loanID).
					Return(&domain.Loan{ID: loanID, UserID: "student-2", Status: domain.LoanStatusActive}, nil)
			},
			expectedError: customError.ErrValidation,
		},
		{
			name:          "expiry in the past",
			request:       &domain.CreatePenaltyRequest{UserID: "student-1", SanctionName: "Libro danado", ExpiresIn: &past},
			setupMocks:    func(m loanMocks) {},
			expectedError: customError.ErrValidation,
		},
		{
			name:    "unknown sanction",
			request: &domain.CreatePenaltyRequest{UserID: "student-1", SanctionName: "Inexistente"},
			setupMocks: func(m loanMocks) {
				m.directory.On("GetByName", mock.Anything, "Inexistente").Return(nil, customError.WrapSanctionNotFound("Inexistente"))
			},
			expectedError: customError.ErrSanctionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newTestPenaltyService()
			tt.setupMocks(m)

			penalty, err := s.CreateManualPenalty(context.Background(), tt.request)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, penalty)
				assert.Equal(t, 0, m.tx.Begun)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.PenaltyStatusPending, penalty.Status)
			}
			m.assertExpectations(t)
		})
	}
}

func TestMarkPaid(t *testing.T) {
	penaltyID := uuid.New()

	t.Run("pending penalty is paid and announced", func(t *testing.T) {
		s, m := newTestPenaltyService()
		paid := &domain.Penalty{ID: penaltyID, SanctionID: "7", UserID: "student-1", Status: domain.PenaltyStatusPaid}

		m.penalties.On("MarkPaid", mock.Anything, mock.Anything, penaltyID, fixedNow).Return(paid, nil)
		m.outbox.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.EventType == domain.RoutingSanctionUpdated && e.AggregateID == penaltyID
		})).Return(nil)
		m.events.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

		penalty, err := s.MarkPaid(context.Background(), penaltyID)

		require.NoError(t, err)
		assert.Equal(t, domain.PenaltyStatusPaid, penalty.Status)
		m.assertExpectations(t)
	})

	t.Run("already paid", func(t *testing.T) {
		s, m := newTestPenaltyService()

		m.penalties.On("MarkPaid", mock.Anything, mock.Anything, penaltyID, fixedNow).Return(nil, sql.ErrNoRows)
		m.penalties.On("GetByID", mock.Anything, mock.Anything, penaltyID).
			Return(&domain.Penalty{ID: penaltyID, Status: domain.PenaltyStatusPaid}, nil)

		_, err := s.MarkPaid(context.Background(), penaltyID)

		assert.ErrorIs(t, err, customError.ErrPenaltyAlreadyPaid)
		assert.ErrorIs(t, err, customError.ErrInvalidState)
		m.events.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("unknown penalty", func(t *testing.T) {
		s, m := newTestPenaltyService()

		m.penalties.On("MarkPaid", mock.Anything, mock.Anything, penaltyID, fixedNow).Return(nil, sql.ErrNoRows)
		m.penalties.On("GetByID", mock.Anything, mock.Anything, penaltyID).Return(nil, sql.ErrNoRows)

		_, err := s.MarkPaid(context.Background(), penaltyID)

		assert.ErrorIs(t, err, customError.ErrPenaltyNotFound)
	})
}

func TestListSanctions(t *testing.T) {
	s, m := newTestPenaltyService()
	m.directory.On("GetByType", mock.Anything, domain.ParameterTypeSanction).
		Return([]domain.Parameter{*sanction("7", "Devolucion tardia", 1500)}, nil)

	sanctions, err := s.ListSanctions(context.Background())

	require.NoError(t, err)
	assert.Len(t, sanctions, 1)
	m.assertExpectations(t)
}
