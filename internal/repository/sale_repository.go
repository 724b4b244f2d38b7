package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/tiendaflex/collections-engine/internal/domain"
)

type saleRepository struct {
	db *sqlx.DB
}

func NewSaleRepository(db *sqlx.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	query := `
		INSERT INTO sales (id, client_id, client_name, total, installment_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		sale.ID,
		sale.ClientID,
		sale.ClientName,
		sale.Total,
		sale.InstallmentCount,
		sale.CreatedAt,
	)

	return err
}

func (r *saleRepository) GetBySaleID(ctx context.Context, saleID string) (*domain.Sale, error) {
	query := `
		SELECT id, client_id, client_name, total, installment_count, created_at
		FROM sales
		WHERE id = $1
	`

	var sale domain.Sale
	err := r.db.GetContext(ctx, &sale, query, saleID)
	if err != nil {
		return nil, err
	}

	return &sale, nil
}

func (r *saleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	query := `
		SELECT id, client_id, client_name, total, installment_count, created_at
		FROM sales
		ORDER BY created_at
	`

	var sales []*domain.Sale
	err := r.db.SelectContext(ctx, &sales, query)
	if err != nil {
		return nil, err
	}

	return sales, nil
}
