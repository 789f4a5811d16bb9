package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLoanStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     LoanStatus
		to       LoanStatus
		expected bool
	}{
		{LoanStatusReserved, LoanStatusActive, true},
		{LoanStatusReserved, LoanStatusCancelled, true},
		{LoanStatusReserved, LoanStatusExpired, true},
		{LoanStatusReserved, LoanStatusFinished, false},
		{LoanStatusActive, LoanStatusFinished, true},
		{LoanStatusActive, LoanStatusExpired, true},
		{LoanStatusActive, LoanStatusActive, false},
		{LoanStatusActive, LoanStatusCancelled, false},
		{LoanStatusFinished, LoanStatusActive, false},
		{LoanStatusExpired, LoanStatusActive, false},
		{LoanStatusCancelled, LoanStatusReserved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLoanStatus_TerminalStatesHaveNoExit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(AllLoanStatuses).Draw(t, "from")
		to := rapid.SampledFrom(AllLoanStatuses).Draw(t, "to")

		if from.IsTerminal() && from.CanTransitionTo(to) {
			t.Fatalf("terminal status %s allows transition to %s", from, to)
		}
		if from.CanTransitionTo(to) && from == to {
			t.Fatalf("self transition allowed on %s", from)
		}
	})
}

// A random walk over legal transitions never returns to a status that holds
// the book once it has been released, and never visits more than three states.
func TestLoanStatus_WalkIsOneDirectional(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.SampledFrom([]LoanStatus{LoanStatusReserved, LoanStatusActive}).Draw(t, "start")
		current := start
		visited := []LoanStatus{current}
		released := false

		for i := 0; i < 10; i++ {
			next := rapid.SampledFrom(AllLoanStatuses).Draw(t, "next")
			if !current.CanTransitionTo(next) {
				continue
			}
			current = next
			visited = append(visited, current)

			if released && current.HoldsBook() {
				t.Fatalf("status %s holds the book after release, path %v", current, visited)
			}
			if !current.HoldsBook() {
				released = true
			}
		}

		if len(visited) > 3 {
			t.Fatalf("walk visited %d states: %v", len(visited), visited)
		}
	})
}

func TestBookStatusFor(t *testing.T) {
	assert.Equal(t, BookStatusReserved, BookStatusFor(LoanStatusReserved))
	assert.Equal(t, BookStatusNotAvailable, BookStatusFor(LoanStatusActive))
	for _, s := range []LoanStatus{LoanStatusFinished, LoanStatusExpired, LoanStatusCancelled} {
		assert.Equal(t, BookStatusAvailable, BookStatusFor(s))
	}
}

func TestRoutingKeyFor(t *testing.T) {
	key, ok := RoutingKeyFor(WebhookPenaltyCreated)
	assert.True(t, ok)
	assert.Equal(t, RoutingSanctionCreated, key)

	key, ok = RoutingKeyFor(WebhookPenaltyUpdated)
	assert.True(t, ok)
	assert.Equal(t, RoutingSanctionUpdated, key)

	_, ok = RoutingKeyFor("LOAN_CREATED")
	assert.False(t, ok)
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse[int](nil, 2, 20, 45)

	assert.Equal(t, 3, resp.TotalPages)
	assert.True(t, resp.HasNext)
	assert.True(t, resp.HasPrev)
	assert.NotNil(t, resp.Data)

	p := PaginationParams{Page: 0, PageSize: 500}
	p.Validate()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 0, p.Offset())
}
