package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/mocks"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/testutil"
)

// Reservation through late return against a real database: the loan is
// picked up, never returned, and two sweeps run after the deadline.
func TestScenario_LateReturnIsPenalizedOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	books := repository.NewBookRepository(db)
	loans := repository.NewLoanRepository(db)
	penalties := repository.NewPenaltyRepository(db)
	notifications := repository.NewNotificationRepository(db)
	outbox := repository.NewOutboxRepository(db)
	tx := repository.NewTransactor(db)

	directory := &mocks.MockParameterDirectory{}
	directory.On("GetByName", mock.Anything, "Devolucion tardia").Return(sanction("7", "Devolucion tardia", 1500), nil)
	publisher := &mocks.MockPublisher{}
	publisher.On("Publish", mock.Anything, domain.RoutingSanctionCreated, mock.Anything).Return(nil).Once()

	events := NewEventService(outbox, publisher, 5)
	loanService := NewLoanService(loans, books, penalties, notifications, outbox, tx, directory, events, testBusinessConfig())
	sweep := NewSweepService(loans, books, penalties, notifications, outbox, tx, directory, events, testBusinessConfig(), time.UTC)

	clock := fixedNow
	now := func() time.Time { return clock }
	loanService.now, sweep.now, events.now = now, now, now

	book := &domain.Book{ID: uuid.New(), Title: "Sistemas Operativos", Author: "A. Tanenbaum", Status: domain.BookStatusAvailable, CreatedAt: clock, UpdatedAt: clock}
	require.NoError(t, books.Create(ctx, nil, book))

	// Reserve and pick up
	reservation, err := loanService.CreateReservation(ctx, book.ID, "student-1")
	require.NoError(t, err)

	_, err = loanService.CreateReservation(ctx, book.ID, "student-2")
	require.Error(t, err, "a held book cannot be reserved twice")

	active, err := loanService.ActivateLoan(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, 14), active.EndDate.UTC())

	// Fifteen days later
	clock = fixedNow.AddDate(0, 0, 15)

	report, err := sweep.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExpiredLoans)
	assert.Equal(t, 1, report.PenaltiesCreated)
	assert.Zero(t, report.PublishFailures)

	loan, err := loans.GetByID(ctx, nil, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusExpired, loan.Status)

	stored, err := books.GetByID(ctx, nil, book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookStatusAvailable, stored.Status)

	userPenalties, err := penalties.List(ctx, domain.PenaltyFilter{UserID: "student-1"})
	require.NoError(t, err)
	require.Len(t, userPenalties, 1)
	assert.Equal(t, "7", userPenalties[0].SanctionID)

	var applied int
	require.NoError(t, db.Get(&applied, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = $2`,
		"student-1", domain.NotificationPenaltyApplied))
	assert.Equal(t, 1, applied)

	pending, err := outbox.ListPending(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, pending, "the event was delivered right after commit")

	// A second pass at the same instant changes nothing
	report, err = sweep.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.ExpiredLoans)
	assert.Zero(t, report.PenaltiesCreated)

	userPenalties, err = penalties.List(ctx, domain.PenaltyFilter{UserID: "student-1"})
	require.NoError(t, err)
	assert.Len(t, userPenalties, 1)

	publisher.AssertExpectations(t)
}
