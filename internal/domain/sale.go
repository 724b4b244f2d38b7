package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiendaflex/collections-engine/pkg/money"
)

// Sale is a financed retail sale, produced by the sales subsystem.
// Immutable once registered; InstallmentCount 0 means paid in full at purchase.
type Sale struct {
	ID               string      `json:"id" db:"id"`
	ClientID         string      `json:"client_id" db:"client_id"`
	ClientName       string      `json:"client_name" db:"client_name"`
	Total            money.Cents `json:"total" db:"total"`
	InstallmentCount int         `json:"installment_count" db:"installment_count"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
}

// InstallmentSlot is one scheduled payment of a sale's financing plan.
// Slots are derived on demand and never persisted.
type InstallmentSlot struct {
	Number  int         `json:"number"`
	DueDate time.Time   `json:"due_date"`
	Amount  money.Cents `json:"amount"`
}

// InitialPayment is the down payment made at sale time, always slot 1.
type InitialPayment struct {
	Amount money.Cents
	Date   time.Time
}

// DTOs for requests and responses

type RegisterSaleRequest struct {
	SaleID           string          `json:"sale_id" validate:"required"`
	ClientID         string          `json:"client_id" validate:"required"`
	ClientName       string          `json:"client_name" validate:"required"`
	Total            decimal.Decimal `json:"total" validate:"required"`
	InstallmentCount int             `json:"installment_count" validate:"gte=0"`
	InitialAmount    decimal.Decimal `json:"initial_amount" validate:"required"`
	InitialDate      string          `json:"initial_date" validate:"required"`
	Method           string          `json:"method" validate:"required"`
	Notes            string          `json:"notes"`
}

type RegisterSaleResponse struct {
	Sale           *Sale             `json:"sale"`
	Schedule       []InstallmentSlot `json:"schedule"`
	InitialPayment *Payment          `json:"initial_payment,omitempty"`
}

type PlanResponse struct {
	SaleID   string            `json:"sale_id"`
	Schedule []InstallmentSlot `json:"schedule"`
}
