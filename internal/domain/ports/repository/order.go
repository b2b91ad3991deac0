package repository

import (
	"context"
	"time"

	"egas-delivery/internal/domain/model"
)

type OrderFilter struct {
	UserID         string
	SubscriptionID string
	AssignedTo     string
	Statuses       []model.OrderStatus
	Offset         int
	Limit          int
}

type OrderRepository interface {
	// Create inserts o. A taken order code yields domain.ErrDuplicateCode and
	// leaves the transaction usable; a second order for the same subscription
	// billing period yields domain.ErrAlreadyExists.
	Create(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	List(ctx context.Context, tx Tx, f OrderFilter) ([]*model.Order, error)

	// UpdateStatusIf persists status, tracking and delivery date only when the
	// stored status still equals expected.
	UpdateStatusIf(ctx context.Context, tx Tx, o *model.Order, expected model.OrderStatus) (bool, error)
	Assign(ctx context.Context, tx Tx, id, staffID string) error
	UpdatePaymentStatus(ctx context.Context, tx Tx, id string, status model.OrderPaymentStatus) error

	// ExistsForBillingPeriod reports whether an order was already produced for
	// the subscription's due date.
	ExistsForBillingPeriod(ctx context.Context, tx Tx, subscriptionID string, period time.Time) (bool, error)

	// DailyStats aggregates orders created since the given time by UTC day.
	DailyStats(ctx context.Context, tx Tx, since time.Time) ([]model.DailyStat, error)
}
