package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)

type PostgresSubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriptionRepo(pool *pgxpool.Pool) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{pool: pool}
}

var subscriptionColumns = []string{
	"id", "user_id", "product_id", "price", "frequency", "next_delivery", "billing_anchor",
	"status", "auto_renew", "created_at", "updated_at",
}

func scanSub(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	if err := row.Scan(&s.ID, &s.UserID, &s.ProductID, &s.Price, &s.Frequency, &s.NextDelivery, &s.BillingAnchor,
		&s.Status, &s.AutoRenew, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.NextDelivery = s.NextDelivery.UTC()
	s.BillingAnchor = s.BillingAnchor.UTC()
	return &s, nil
}

func (r *PostgresSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, user_id, product_id, price, frequency, next_delivery, billing_anchor, status, auto_renew, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  frequency=$5, next_delivery=$6, billing_anchor=$7, status=$8, auto_renew=$9, updated_at=$11;
`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.ProductID, s.Price, s.Frequency,
		s.NextDelivery, s.Anchor(), s.Status, s.AutoRenew, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	b := sq.Select(subscriptionColumns...).From("subscriptions").Where(sq.Eq{"id": id})
	if inTx(tx) {
		b = b.Suffix("FOR UPDATE")
	}
	return r.queryOne(ctx, tx, b)
}

func (r *PostgresSubscriptionRepo) FindActiveByUserAndProduct(ctx context.Context, tx repository.Tx, userID, productID string) (*model.Subscription, error) {
	b := sq.Select(subscriptionColumns...).From("subscriptions").
		Where(sq.Eq{"user_id": userID, "product_id": productID, "status": model.SubscriptionStatusActive}).
		OrderBy("created_at DESC").Limit(1)
	return r.queryOne(ctx, tx, b)
}

func (r *PostgresSubscriptionRepo) List(ctx context.Context, tx repository.Tx, f repository.SubscriptionFilter) ([]*model.Subscription, error) {
	off, lim := pageBounds(f.Offset, f.Limit)
	b := sq.Select(subscriptionColumns...).From("subscriptions").
		OrderBy("created_at DESC", "id").Offset(off).Limit(lim)
	if f.UserID != "" {
		b = b.Where(sq.Eq{"user_id": f.UserID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	return r.queryMany(ctx, tx, b)
}

// FindDue returns active subscriptions whose next delivery is at or before
// now, oldest first with id as the tie-breaker.
func (r *PostgresSubscriptionRepo) FindDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	b := sq.Select(subscriptionColumns...).From("subscriptions").
		Where(sq.Eq{"status": model.SubscriptionStatusActive}).
		Where(sq.LtOrEq{"next_delivery": now}).
		OrderBy("next_delivery", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return r.queryMany(ctx, tx, b)
}

func (r *PostgresSubscriptionRepo) AdvanceSchedule(ctx context.Context, tx repository.Tx, id string, expectedPrev, next, anchor time.Time) (bool, error) {
	const q = `
UPDATE subscriptions SET next_delivery=$3, billing_anchor=$4, updated_at=NOW()
 WHERE id=$1 AND status='active' AND next_delivery=$2`
	tag, err := execSQL(ctx, r.pool, tx, q, id, expectedPrev, next, anchor)
	if err != nil {
		return false, fmt.Errorf("advance schedule: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM subscriptions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	defer rows.Close()

	out := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var st model.SubscriptionStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, scanErr(err)
		}
		out[st] = n
	}
	return out, rows.Err()
}

func (r *PostgresSubscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, b sq.SelectBuilder) (*model.Subscription, error) {
	q, args, err := b.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	s, err := scanSub(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return s, nil
}

func (r *PostgresSubscriptionRepo) queryMany(ctx context.Context, tx repository.Tx, b sq.SelectBuilder) ([]*model.Subscription, error) {
	q, args, err := b.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSub(rows)
		if err != nil {
			return nil, scanErr(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
