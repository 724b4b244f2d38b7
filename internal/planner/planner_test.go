package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendaflex/collections-engine/internal/domain"
	customError "github.com/tiendaflex/collections-engine/pkg/errors"
	"github.com/tiendaflex/collections-engine/pkg/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGeneratePlan(t *testing.T) {
	tests := []struct {
		name     string
		sale     domain.Sale
		initial  domain.InitialPayment
		expected []domain.InstallmentSlot
	}{
		{
			name: "six installments with truncation remainder on the last slot",
			sale: domain.Sale{ID: "VTA-2025-002", Total: 89999, InstallmentCount: 6},
			initial: domain.InitialPayment{
				Amount: 15000,
				Date:   date(2025, time.May, 14),
			},
			expected: []domain.InstallmentSlot{
				{Number: 1, DueDate: date(2025, time.May, 14), Amount: 15000},
				{Number: 2, DueDate: date(2025, time.June, 14), Amount: 14999},
				{Number: 3, DueDate: date(2025, time.July, 14), Amount: 14999},
				{Number: 4, DueDate: date(2025, time.August, 14), Amount: 14999},
				{Number: 5, DueDate: date(2025, time.September, 14), Amount: 14999},
				{Number: 6, DueDate: date(2025, time.October, 14), Amount: 15003},
			},
		},
		{
			name: "even split without remainder",
			sale: domain.Sale{ID: "VTA-2025-005", Total: 80000, InstallmentCount: 5},
			initial: domain.InitialPayment{
				Amount: 40000,
				Date:   date(2025, time.May, 11),
			},
			expected: []domain.InstallmentSlot{
				{Number: 1, DueDate: date(2025, time.May, 11), Amount: 40000},
				{Number: 2, DueDate: date(2025, time.June, 11), Amount: 10000},
				{Number: 3, DueDate: date(2025, time.July, 11), Amount: 10000},
				{Number: 4, DueDate: date(2025, time.August, 11), Amount: 10000},
				{Number: 5, DueDate: date(2025, time.September, 11), Amount: 10000},
			},
		},
		{
			name: "paid in full at purchase yields no schedule",
			sale: domain.Sale{ID: "VTA-2025-001", Total: 129999, InstallmentCount: 0},
			initial: domain.InitialPayment{
				Amount: 129999,
				Date:   date(2025, time.April, 3),
			},
			expected: []domain.InstallmentSlot{},
		},
		{
			name: "single installment is the initial payment for the full total",
			sale: domain.Sale{ID: "VTA-2025-007", Total: 24999, InstallmentCount: 1},
			initial: domain.InitialPayment{
				Amount: 24999,
				Date:   date(2025, time.March, 20),
			},
			expected: []domain.InstallmentSlot{
				{Number: 1, DueDate: date(2025, time.March, 20), Amount: 24999},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := GeneratePlan(tt.sale, tt.initial)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, slots)

			// Slot amounts must always reconcile with the sale total.
			if len(slots) > 0 {
				var sum money.Cents
				for _, slot := range slots {
					sum += slot.Amount
				}
				assert.Equal(t, tt.sale.Total, sum)
			}
		})
	}
}

func TestGeneratePlan_Deterministic(t *testing.T) {
	sale := domain.Sale{ID: "VTA-2025-002", Total: 89999, InstallmentCount: 6}
	initial := domain.InitialPayment{Amount: 15000, Date: date(2025, time.May, 14)}

	first, err := GeneratePlan(sale, initial)
	require.NoError(t, err)
	second, err := GeneratePlan(sale, initial)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGeneratePlan_DueDatesIncrease(t *testing.T) {
	sale := domain.Sale{ID: "VTA-2025-005", Total: 79999, InstallmentCount: 12}
	initial := domain.InitialPayment{Amount: 10000, Date: date(2025, time.May, 11)}

	slots, err := GeneratePlan(sale, initial)
	require.NoError(t, err)
	require.Len(t, slots, 12)

	for k := 1; k < len(slots); k++ {
		assert.True(t, slots[k-1].DueDate.Before(slots[k].DueDate),
			"slot %d due date must come before slot %d", k, k+1)
		assert.Equal(t, AddMonths(slots[0].DueDate, k), slots[k].DueDate)
	}
}

func TestGeneratePlan_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		sale    domain.Sale
		initial domain.InitialPayment
	}{
		{
			name:    "negative installment count",
			sale:    domain.Sale{Total: 10000, InstallmentCount: -1},
			initial: domain.InitialPayment{Amount: 1000, Date: date(2025, time.May, 1)},
		},
		{
			name:    "zero total",
			sale:    domain.Sale{Total: 0, InstallmentCount: 6},
			initial: domain.InitialPayment{Amount: 1000, Date: date(2025, time.May, 1)},
		},
		{
			name:    "initial payment above total",
			sale:    domain.Sale{Total: 10000, InstallmentCount: 6},
			initial: domain.InitialPayment{Amount: 10001, Date: date(2025, time.May, 1)},
		},
		{
			name:    "zero initial payment",
			sale:    domain.Sale{Total: 10000, InstallmentCount: 6},
			initial: domain.InitialPayment{Amount: 0, Date: date(2025, time.May, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := GeneratePlan(tt.sale, tt.initial)
			assert.Nil(t, slots)
			assert.ErrorIs(t, err, customError.ErrInvalidPlan)
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{
			name:     "plain month step",
			start:    date(2025, time.May, 14),
			months:   1,
			expected: date(2025, time.June, 14),
		},
		{
			name:     "clamped to end of february",
			start:    date(2025, time.January, 31),
			months:   1,
			expected: date(2025, time.February, 28),
		},
		{
			name:     "leap february",
			start:    date(2024, time.January, 31),
			months:   1,
			expected: date(2024, time.February, 29),
		},
		{
			name:     "year rollover",
			start:    date(2025, time.November, 14),
			months:   3,
			expected: date(2026, time.February, 14),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddMonths(tt.start, tt.months))
		})
	}
}
