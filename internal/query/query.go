package query

import (
	"sort"
	"strings"
	"time"

	"github.com/tiendaflex/collections-engine/internal/domain"
	customError "github.com/tiendaflex/collections-engine/pkg/errors"
)

// Status filter values accepted by Query.
const (
	StatusFilterAll       = "all"
	StatusFilterPending   = domain.DerivedStatusPending
	StatusFilterCompleted = domain.DerivedStatusCompleted
	StatusFilterOverdue   = domain.DerivedStatusOverdue
)

// Sortable columns.
const (
	SortByID          = "id"
	SortBySaleID      = "sale_id"
	SortByClientName  = "client_name"
	SortByAmount      = "amount"
	SortByMethod      = "method"
	SortByDate        = "date"
	SortByInstallment = "installment_number"
	SortByStatus      = "status"
)

type Filter struct {
	Search string
	Status string
}

type Sort struct {
	By         string
	Descending bool
}

// ResolveStatus derives the live display status of a payment at asOf.
// Completed is sticky; otherwise the scheduled date is compared at day
// granularity, and strictly earlier means overdue (a payment due today is
// still pending). Callers must resolve fresh at query time rather than
// storing the result.
func ResolveStatus(p domain.Payment, asOf time.Time) string {
	if p.Status == domain.PaymentStatusCompleted {
		return domain.DerivedStatusCompleted
	}
	if truncateToDay(p.Date).Before(truncateToDay(asOf)) {
		return domain.DerivedStatusOverdue
	}
	return domain.DerivedStatusPending
}

// Query returns the filtered, sorted view of the ledger at asOf. Cancelled
// rows never appear. The sort is stable: rows with equal keys keep their
// relative input order.
func Query(payments []domain.Payment, filter Filter, s Sort, asOf time.Time) ([]domain.PaymentView, error) {
	if err := validate(filter, s); err != nil {
		return nil, err
	}

	term := strings.ToLower(filter.Search)

	views := make([]domain.PaymentView, 0, len(payments))
	for _, p := range payments {
		if p.Status == domain.PaymentStatusCancelled {
			continue
		}
		if term != "" && !matches(p, term) {
			continue
		}
		status := ResolveStatus(p, asOf)
		if filter.Status != "" && filter.Status != StatusFilterAll && status != filter.Status {
			continue
		}
		views = append(views, domain.PaymentView{Payment: p, DerivedStatus: status})
	}

	if s.By != "" {
		sort.SliceStable(views, func(i, j int) bool {
			if s.Descending {
				return less(views[j], views[i], s.By)
			}
			return less(views[i], views[j], s.By)
		})
	}

	return views, nil
}

func validate(filter Filter, s Sort) error {
	switch filter.Status {
	case "", StatusFilterAll, StatusFilterPending, StatusFilterCompleted, StatusFilterOverdue:
	default:
		return customError.WrapValidation("unknown status filter: " + filter.Status)
	}

	switch s.By {
	case "", SortByID, SortBySaleID, SortByClientName, SortByAmount,
		SortByMethod, SortByDate, SortByInstallment, SortByStatus:
	default:
		return customError.WrapValidation("unknown sort column: " + s.By)
	}

	return nil
}

func matches(p domain.Payment, term string) bool {
	return strings.Contains(strings.ToLower(p.ID.String()), term) ||
		strings.Contains(strings.ToLower(p.SaleID), term) ||
		strings.Contains(strings.ToLower(p.ClientName), term)
}

func less(a, b domain.PaymentView, by string) bool {
	switch by {
	case SortByID:
		return a.ID.String() < b.ID.String()
	case SortBySaleID:
		return a.SaleID < b.SaleID
	case SortByClientName:
		return a.ClientName < b.ClientName
	case SortByAmount:
		return a.Amount < b.Amount
	case SortByMethod:
		return a.Method < b.Method
	case SortByDate:
		return a.Date.Before(b.Date)
	case SortByInstallment:
		return a.InstallmentNumber < b.InstallmentNumber
	case SortByStatus:
		return a.DerivedStatus < b.DerivedStatus
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
