package repository

import (
	"context"
	"time"

	"egas-delivery/internal/domain/model"
)

type SubscriptionFilter struct {
	UserID string
	Status model.SubscriptionStatus
	Offset int
	Limit  int
}

// SubscriptionRepository is the port for recurring subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	// FindByID locks the row when tx is a transaction.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindActiveByUserAndProduct(ctx context.Context, tx Tx, userID, productID string) (*model.Subscription, error)
	List(ctx context.Context, tx Tx, f SubscriptionFilter) ([]*model.Subscription, error)

	// FindDue returns active subscriptions with next_delivery <= now ordered by
	// next_delivery then id. limit <= 0 means no limit.
	FindDue(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Subscription, error)

	// AdvanceSchedule sets next_delivery to next and billing_anchor to anchor
	// only if the subscription is still active and next_delivery still equals
	// expectedPrev. It reports false when no row matched.
	AdvanceSchedule(ctx context.Context, tx Tx, id string, expectedPrev, next, anchor time.Time) (bool, error)

	// --- Statistics read-only methods ---
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
