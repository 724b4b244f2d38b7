package query

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendaflex/collections-engine/internal/domain"
	customError "github.com/tiendaflex/collections-engine/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveStatus(t *testing.T) {
	due := date(2025, time.June, 14)

	tests := []struct {
		name     string
		payment  domain.Payment
		asOf     time.Time
		expected string
	}{
		{
			name:     "completed stays completed regardless of date",
			payment:  domain.Payment{Status: domain.PaymentStatusCompleted, Date: due},
			asOf:     date(2026, time.January, 1),
			expected: domain.DerivedStatusCompleted,
		},
		{
			name:     "pending before the due date",
			payment:  domain.Payment{Status: domain.PaymentStatusPending, Date: due},
			asOf:     date(2025, time.June, 10),
			expected: domain.DerivedStatusPending,
		},
		{
			name:     "due today is still pending",
			payment:  domain.Payment{Status: domain.PaymentStatusPending, Date: due},
			asOf:     date(2025, time.June, 14),
			expected: domain.DerivedStatusPending,
		},
		{
			name:     "due today with a later clock time is still pending",
			payment:  domain.Payment{Status: domain.PaymentStatusPending, Date: due},
			asOf:     time.Date(2025, time.June, 14, 23, 59, 0, 0, time.UTC),
			expected: domain.DerivedStatusPending,
		},
		{
			name:     "overdue the day after",
			payment:  domain.Payment{Status: domain.PaymentStatusPending, Date: due},
			asOf:     date(2025, time.June, 15),
			expected: domain.DerivedStatusOverdue,
		},
		{
			name:     "overdue well past the due date",
			payment:  domain.Payment{Status: domain.PaymentStatusPending, Date: due},
			asOf:     date(2025, time.June, 20),
			expected: domain.DerivedStatusOverdue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveStatus(tt.payment, tt.asOf))
		})
	}
}

func TestResolveStatus_MonotoneInTime(t *testing.T) {
	payment := domain.Payment{Status: domain.PaymentStatusPending, Date: date(2025, time.June, 14)}

	wasOverdue := false
	for day := 0; day < 60; day++ {
		asOf := date(2025, time.June, 1).AddDate(0, 0, day)
		status := ResolveStatus(payment, asOf)
		if wasOverdue {
			assert.Equal(t, domain.DerivedStatusOverdue, status,
				"status must not revert to pending once overdue (asOf %s)", asOf)
		}
		if status == domain.DerivedStatusOverdue {
			wasOverdue = true
		}
	}
	assert.True(t, wasOverdue)
}

func fixture() []domain.Payment {
	return []domain.Payment{
		{
			ID:                uuid.MustParse("0b84a1de-47fb-4f7e-a6a5-0a9f53a5c101"),
			SaleID:            "VTA-2025-002",
			ClientName:        "Juan Pérez",
			InstallmentNumber: 1,
			Amount:            15000,
			Method:            "Efectivo",
			Date:              date(2025, time.May, 14),
			Status:            domain.PaymentStatusCompleted,
		},
		{
			ID:                uuid.MustParse("0b84a1de-47fb-4f7e-a6a5-0a9f53a5c102"),
			SaleID:            "VTA-2025-005",
			ClientName:        "Laura Sánchez",
			InstallmentNumber: 1,
			Amount:            10000,
			Method:            "Efectivo",
			Date:              date(2025, time.May, 11),
			Status:            domain.PaymentStatusCompleted,
		},
		{
			ID:                uuid.MustParse("0b84a1de-47fb-4f7e-a6a5-0a9f53a5c103"),
			SaleID:            "VTA-2025-002",
			ClientName:        "Juan Pérez",
			InstallmentNumber: 2,
			Amount:            12500,
			Method:            "Transferencia Bancaria",
			Date:              date(2025, time.June, 14),
			Status:            domain.PaymentStatusPending,
		},
		{
			ID:                uuid.MustParse("0b84a1de-47fb-4f7e-a6a5-0a9f53a5c104"),
			SaleID:            "VTA-2025-005",
			ClientName:        "Laura Sánchez",
			InstallmentNumber: 2,
			Amount:            5833,
			Method:            "Transferencia Bancaria",
			Date:              date(2025, time.June, 11),
			Status:            domain.PaymentStatusPending,
		},
		{
			ID:                uuid.MustParse("0b84a1de-47fb-4f7e-a6a5-0a9f53a5c105"),
			SaleID:            "VTA-2025-002",
			ClientName:        "Juan Pérez",
			InstallmentNumber: 3,
			Amount:            12500,
			Method:            "Transferencia Bancaria",
			Date:              date(2025, time.July, 14),
			Status:            domain.PaymentStatusCancelled,
		},
	}
}

func TestQuery_ExcludesCancelled(t *testing.T) {
	views, err := Query(fixture(), Filter{}, Sort{}, date(2025, time.June, 1))
	require.NoError(t, err)
	require.Len(t, views, 4)
	for _, v := range views {
		assert.NotEqual(t, domain.PaymentStatusCancelled, v.Status)
	}
}

func TestQuery_SearchIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		name     string
		search   string
		expected int
	}{
		{name: "client name fragment", search: "juan", expected: 2},
		{name: "sale id fragment", search: "vta-2025-005", expected: 2},
		{name: "payment id fragment", search: "A5C103", expected: 1},
		{name: "no match", search: "zzz", expected: 0},
		{name: "empty matches all", search: "", expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := Query(fixture(), Filter{Search: tt.search}, Sort{}, date(2025, time.June, 1))
			require.NoError(t, err)
			assert.Len(t, views, tt.expected)
		})
	}
}

func TestQuery_StatusFilterIsLive(t *testing.T) {
	payments := fixture()

	// Before the slot-2 due dates pass, nothing is overdue.
	early, err := Query(payments, Filter{Status: StatusFilterOverdue}, Sort{}, date(2025, time.June, 10))
	require.NoError(t, err)
	assert.Empty(t, early)

	// The same rows, queried later, show up as overdue without any mutation.
	late, err := Query(payments, Filter{Status: StatusFilterOverdue}, Sort{}, date(2025, time.June, 20))
	require.NoError(t, err)
	require.Len(t, late, 2)
	for _, v := range late {
		assert.Equal(t, domain.DerivedStatusOverdue, v.DerivedStatus)
	}

	completed, err := Query(payments, Filter{Status: StatusFilterCompleted}, Sort{}, date(2025, time.June, 20))
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	pending, err := Query(payments, Filter{Status: StatusFilterPending}, Sort{}, date(2025, time.June, 20))
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestQuery_SortAscendingAndDescending(t *testing.T) {
	asOf := date(2025, time.June, 1)

	asc, err := Query(fixture(), Filter{}, Sort{By: SortByAmount}, asOf)
	require.NoError(t, err)
	require.Len(t, asc, 4)
	for i := 1; i < len(asc); i++ {
		assert.LessOrEqual(t, asc[i-1].Amount, asc[i].Amount)
	}

	desc, err := Query(fixture(), Filter{}, Sort{By: SortByAmount, Descending: true}, asOf)
	require.NoError(t, err)
	require.Len(t, desc, 4)
	for i := 1; i < len(desc); i++ {
		assert.GreaterOrEqual(t, desc[i-1].Amount, desc[i].Amount)
	}
}

func TestQuery_SortIsStable(t *testing.T) {
	// Two Juan Pérez rows and two Laura Sánchez rows share their sort key;
	// equal keys must keep their input order in both directions.
	views, err := Query(fixture(), Filter{}, Sort{By: SortByClientName}, date(2025, time.June, 1))
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, "Juan Pérez", views[0].ClientName)
	assert.Equal(t, 1, views[0].InstallmentNumber)
	assert.Equal(t, "Juan Pérez", views[1].ClientName)
	assert.Equal(t, 2, views[1].InstallmentNumber)
	assert.Equal(t, "Laura Sánchez", views[2].ClientName)
	assert.Equal(t, 1, views[2].InstallmentNumber)
	assert.Equal(t, "Laura Sánchez", views[3].ClientName)
	assert.Equal(t, 2, views[3].InstallmentNumber)

	reversed, err := Query(fixture(), Filter{}, Sort{By: SortByClientName, Descending: true}, date(2025, time.June, 1))
	require.NoError(t, err)
	require.Len(t, reversed, 4)

	// Descending flips the groups but not the order within a group.
	assert.Equal(t, "Laura Sánchez", reversed[0].ClientName)
	assert.Equal(t, 1, reversed[0].InstallmentNumber)
	assert.Equal(t, "Laura Sánchez", reversed[1].ClientName)
	assert.Equal(t, 2, reversed[1].InstallmentNumber)
	assert.Equal(t, "Juan Pérez", reversed[2].ClientName)
	assert.Equal(t, 1, reversed[2].InstallmentNumber)
}

func TestQuery_InvalidInputs(t *testing.T) {
	_, err := Query(fixture(), Filter{Status: "bogus"}, Sort{}, date(2025, time.June, 1))
	assert.ErrorIs(t, err, customError.ErrValidation)

	_, err = Query(fixture(), Filter{}, Sort{By: "bogus"}, date(2025, time.June, 1))
	assert.ErrorIs(t, err, customError.ErrValidation)
}
