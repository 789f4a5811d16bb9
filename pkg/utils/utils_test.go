package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateEndDate(t *testing.T) {
	baseDate := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		start    time.Time
		days     int
		expected time.Time
	}{
		{
			name:     "standard loan",
			start:    baseDate,
			days:     14,
			expected: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "crosses month boundary",
			start:    time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
			days:     14,
			expected: time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "zero days",
			start:    baseDate,
			days:     0,
			expected: baseDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateEndDate(tt.start, tt.days))
		})
	}
}

func TestIsWithinWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		t        time.Time
		expected bool
	}{
		{"exactly now", now, true},
		{"in an hour", now.Add(time.Hour), true},
		{"window edge", now.Add(24 * time.Hour), true},
		{"past the window", now.Add(24*time.Hour + time.Second), false},
		{"already past", now.Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsWithinWindow(tt.t, now, 24*time.Hour))
		})
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		hours        float64
		expectedDays int
	}{
		{1, 1},
		{24, 1},
		{0.1, 1},
		{24.5, 2},
		{48, 2},
		{0, 0},
		{-5, 0},
		{176, 8},
	}
	for _, tt := range testCases {
		deadline := now.Add(time.Duration(tt.hours * float64(time.Hour)))
		assert.Equal(t, tt.expectedDays, DaysUntil(now, deadline), "hours=%v", tt.hours)
	}
}

func TestRetentionCutoff(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), RetentionCutoff(now, 30*24*time.Hour))
}

func TestFormatDeadline(t *testing.T) {
	deadline := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	loc := time.FixedZone("ART", -3*60*60)

	assert.Equal(t, "01/03/2024 12:00", FormatDeadline(deadline, loc))
	assert.Equal(t, "01/03/2024 15:00", FormatDeadline(deadline, nil))
}
