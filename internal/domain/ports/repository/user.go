package repository

import (
	"context"

	"egas-delivery/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	CountByRole(ctx context.Context, tx Tx) (map[model.Role]int, error)
	// AdjustWallet adds delta to the wallet balance and returns the new balance.
	AdjustWallet(ctx context.Context, tx Tx, id string, delta int64) (int64, error)
}
