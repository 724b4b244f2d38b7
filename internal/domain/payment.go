package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiendaflex/collections-engine/pkg/money"
)

// Lifecycle states stored on the ledger. Overdue is never stored; it is
// derived at read time from the scheduled date.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusCancelled = "cancelled"
)

// Derived (display) statuses produced by the status resolver.
const (
	DerivedStatusPending   = "pending"
	DerivedStatusCompleted = "completed"
	DerivedStatusOverdue   = "overdue"
)

// Payment is one ledger row against an installment slot. Rows are append-only:
// cancellation frees the slot but the row remains. While a row is pending its
// Date is the scheduled due date; completion overwrites it with the actual
// payment date.
type Payment struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	SaleID            string      `json:"sale_id" db:"sale_id"`
	ClientName        string      `json:"client_name" db:"client_name"`
	InstallmentNumber int         `json:"installment_number" db:"installment_number"`
	TotalInstallments int         `json:"total_installments" db:"total_installments"`
	Amount            money.Cents `json:"amount" db:"amount"`
	Method            string      `json:"method" db:"method"`
	Date              time.Time   `json:"date" db:"date"`
	Notes             string      `json:"notes" db:"notes"`
	Status            string      `json:"status" db:"status"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// PaymentView is a ledger row annotated with its live derived status.
type PaymentView struct {
	Payment
	DerivedStatus string `json:"derived_status"`
}

// DTOs for requests and responses

type RecordPaymentRequest struct {
	SaleID            string          `json:"sale_id" validate:"required"`
	InstallmentNumber int             `json:"installment_number" validate:"required,gte=1"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	Method            string          `json:"method" validate:"required"`
	Date              string          `json:"date" validate:"required"`
	Notes             string          `json:"notes"`
}

type ProcessPaymentRequest struct {
	Method string `json:"method" validate:"required"`
	Date   string `json:"date" validate:"required"`
	Notes  string `json:"notes"`
}

type QueryPaymentsResponse struct {
	Payments []PaymentView `json:"payments"`
	Total    int           `json:"total"`
}
