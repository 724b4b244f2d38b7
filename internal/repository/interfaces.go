package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tiendaflex/collections-engine/internal/domain"
)

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	// Create registers a new sale
	Create(ctx context.Context, sale *domain.Sale) error

	// GetBySaleID retrieves a sale by its sale ID
	GetBySaleID(ctx context.Context, saleID string) (*domain.Sale, error)

	// List retrieves all registered sales
	List(ctx context.Context) ([]*domain.Sale, error)
}

// PaymentRepository defines the interface for payment ledger operations
type PaymentRepository interface {
	// Create appends a new payment row
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// GetBySaleID retrieves all payments for a sale, cancelled included
	GetBySaleID(ctx context.Context, saleID string) ([]*domain.Payment, error)

	// GetActiveBySlot retrieves the non-cancelled payment occupying a slot
	GetActiveBySlot(ctx context.Context, saleID string, installment int) (*domain.Payment, error)

	// ListActive retrieves all non-cancelled payments
	ListActive(ctx context.Context) ([]*domain.Payment, error)

	// ListPending retrieves all pending payments
	ListPending(ctx context.Context) ([]*domain.Payment, error)

	// Update persists a status transition (method, date, notes, status)
	Update(ctx context.Context, payment *domain.Payment) error
}
