package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tiendaflex/collections-engine/internal/domain"
	customError "github.com/tiendaflex/collections-engine/pkg/errors"
)

const uniqueViolation = "23505"

const paymentColumns = `
	id, sale_id, client_name, installment_number, total_installments,
	amount, method, date, notes, status, created_at, updated_at
`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.SaleID,
		payment.ClientName,
		payment.InstallmentNumber,
		payment.TotalInstallments,
		payment.Amount,
		payment.Method,
		payment.Date,
		payment.Notes,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	// The partial unique index on (sale_id, installment_number) where
	// status <> 'cancelled' is the backstop for concurrent recorders.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return customError.ErrDuplicateInstallment
	}

	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, id)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) GetBySaleID(ctx context.Context, saleID string) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE sale_id = $1
		ORDER BY installment_number, created_at
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, saleID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) GetActiveBySlot(ctx context.Context, saleID string, installment int) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE sale_id = $1 AND installment_number = $2 AND status <> 'cancelled'
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, saleID, installment)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) ListActive(ctx context.Context) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status <> 'cancelled'
		ORDER BY created_at
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) ListPending(ctx context.Context) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending'
		ORDER BY date
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET method = $2, date = $3, notes = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.Method,
		payment.Date,
		payment.Notes,
		payment.Status,
		payment.UpdatedAt,
	)

	return err
}
