package repository

import (
	"context"
	"time"

	"egas-delivery/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Payment, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Payment, error)
	DailyStats(ctx context.Context, tx Tx, since time.Time) ([]model.DailyStat, error)
}
