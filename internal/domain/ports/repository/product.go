package repository

import (
	"context"

	"egas-delivery/internal/domain/model"
)

type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Product, error)
	Delete(ctx context.Context, tx Tx, id string) error
	// DecrementStock removes qty units only when enough stock remains.
	// Returns domain.ErrInsufficientStock otherwise.
	DecrementStock(ctx context.Context, tx Tx, id string, qty int) error
}
