package planner

import (
	"time"

	"github.com/tiendaflex/collections-engine/internal/domain"
	customError "github.com/tiendaflex/collections-engine/pkg/errors"
	"github.com/tiendaflex/collections-engine/pkg/money"
)

// GeneratePlan computes the installment schedule for a sale anchored on its
// initial payment. Pure and deterministic: the same inputs always yield the
// same slots.
//
// Slot 1 is the initial payment itself. The remaining balance is split evenly
// over the remaining slots, truncated to minor units; the truncation remainder
// collects on the final slot so the slot amounts always sum to the sale total
// exactly.
func GeneratePlan(sale domain.Sale, initial domain.InitialPayment) ([]domain.InstallmentSlot, error) {
	if sale.InstallmentCount < 0 {
		return nil, customError.WrapInvalidPlan("installment count must not be negative")
	}
	if sale.Total <= 0 {
		return nil, customError.WrapInvalidPlan("sale total must be greater than zero")
	}
	if initial.Amount <= 0 {
		return nil, customError.WrapInvalidPlan("initial payment must be greater than zero")
	}
	if initial.Amount > sale.Total {
		return nil, customError.WrapInvalidPlan("initial payment exceeds sale total")
	}

	// Settled in full at purchase, nothing to schedule.
	if sale.InstallmentCount == 0 {
		return []domain.InstallmentSlot{}, nil
	}

	if sale.InstallmentCount == 1 {
		return []domain.InstallmentSlot{
			{Number: 1, DueDate: initial.Date, Amount: sale.Total},
		}, nil
	}

	remaining := sale.Total - initial.Amount
	perSlot := remaining / money.Cents(sale.InstallmentCount-1)

	slots := make([]domain.InstallmentSlot, 0, sale.InstallmentCount)
	slots = append(slots, domain.InstallmentSlot{
		Number:  1,
		DueDate: initial.Date,
		Amount:  initial.Amount,
	})

	for k := 2; k <= sale.InstallmentCount; k++ {
		amount := perSlot
		if k == sale.InstallmentCount {
			amount = remaining - perSlot*money.Cents(sale.InstallmentCount-2)
		}
		slots = append(slots, domain.InstallmentSlot{
			Number:  k,
			DueDate: AddMonths(initial.Date, k-1),
			Amount:  amount,
		})
	}

	return slots, nil
}

// AddMonths steps a date forward by whole calendar months, clamping to the
// last day of shorter months (Jan 31 + 1 month = Feb 28). time.AddDate would
// normalize the overflow into the following month instead, which would break
// the monthly due-date cadence.
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
