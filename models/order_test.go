package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusAdvances(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		expected bool
	}{
		{
			name:     "Forward one step",
			from:     OrderStatusReceived,
			to:       OrderStatusQuotePending,
			expected: true,
		},
		{
			name:     "Forward across several steps",
			from:     OrderStatusReceived,
			to:       OrderStatusProduction,
			expected: true,
		},
		{
			name:     "Same status is not an advance",
			from:     OrderStatusProduction,
			to:       OrderStatusProduction,
			expected: false,
		},
		{
			name:     "Backwards is rejected",
			from:     OrderStatusShipping,
			to:       OrderStatusProduction,
			expected: false,
		},
		{
			name:     "Unknown source status is rejected",
			from:     "CANCELLED",
			to:       OrderStatusCompleted,
			expected: false,
		},
		{
			name:     "Unknown target status is rejected",
			from:     OrderStatusReceived,
			to:       "REFUNDED",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OrderStatusAdvances(tt.from, tt.to))
		})
	}
}

func TestOrderStatusLifecycleOrder(t *testing.T) {
	lifecycle := []string{
		OrderStatusReceived,
		OrderStatusQuotePending,
		OrderStatusPaymentWaiting,
		OrderStatusProduction,
		OrderStatusInspection,
		OrderStatusReadyForShip,
		OrderStatusShipping,
		OrderStatusCompleted,
	}

	for i, status := range lifecycle {
		assert.True(t, IsValidOrderStatus(status))
		for j := i + 1; j < len(lifecycle); j++ {
			assert.True(t, OrderStatusAdvances(status, lifecycle[j]),
				"%s should advance to %s", status, lifecycle[j])
			assert.False(t, OrderStatusAdvances(lifecycle[j], status),
				"%s should not regress to %s", lifecycle[j], status)
		}
	}
}

func TestDefaultTimeline(t *testing.T) {
	steps := DefaultTimeline()

	assert.Len(t, steps, 6)
	assert.Equal(t, "주문 접수", steps[0].Name)
	assert.Equal(t, "출고", steps[len(steps)-1].Name)

	for i, step := range steps {
		assert.Equal(t, i+1, step.Position)
		assert.Equal(t, StepStatusWaiting, step.Status)
	}
}

func TestIssueStatusFollows(t *testing.T) {
	assert.True(t, IssueStatusFollows(IssueStatusReceived, IssueStatusReviewing))
	assert.True(t, IssueStatusFollows(IssueStatusInProgress, IssueStatusResolved))

	assert.False(t, IssueStatusFollows(IssueStatusReceived, IssueStatusResolved))
	assert.False(t, IssueStatusFollows(IssueStatusResolved, IssueStatusReceived))
	assert.False(t, IssueStatusFollows(IssueStatusResolved, IssueStatusResolved))
}
