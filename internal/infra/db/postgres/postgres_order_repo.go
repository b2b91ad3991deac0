package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*PostgresOrderRepo)(nil)

type PostgresOrderRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepo(pool *pgxpool.Pool) *PostgresOrderRepo {
	return &PostgresOrderRepo{pool: pool}
}

var orderColumns = []string{
	"id", "code", "user_id", "items", "street", "city", "state",
	"delivery_option", "delivery_fee", "total_amount", "payment_method", "payment_status",
	"status", "tracking_location", "tracking_progress", "subscription_id", "billing_period",
	"assigned_to", "delivery_date", "created_at", "updated_at",
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o     model.Order
		items []byte
	)
	if err := row.Scan(
		&o.ID, &o.Code, &o.UserID, &items, &o.Address.Street, &o.Address.City, &o.Address.State,
		&o.DeliveryOption, &o.DeliveryFee, &o.TotalAmount, &o.PaymentMethod, &o.PaymentStatus,
		&o.Status, &o.Tracking.Location, &o.Tracking.Progress, &o.SubscriptionID, &o.BillingPeriod,
		&o.AssignedTo, &o.DeliveryDate, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	o.Tracking.Status = o.Status
	if o.BillingPeriod != nil {
		bp := o.BillingPeriod.UTC()
		o.BillingPeriod = &bp
	}
	return &o, nil
}

func (r *PostgresOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	q, args, err := sq.Insert("orders").Columns(orderColumns...).Values(
		o.ID, o.Code, o.UserID, items, o.Address.Street, o.Address.City, o.Address.State,
		o.DeliveryOption, o.DeliveryFee, o.TotalAmount, o.PaymentMethod, o.PaymentStatus,
		o.Status, o.Tracking.Location, o.Tracking.Progress, o.SubscriptionID, o.BillingPeriod,
		o.AssignedTo, o.DeliveryDate, o.CreatedAt, o.UpdatedAt,
	).Suffix("ON CONFLICT (code) DO NOTHING").PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateCode
	}
	return nil
}

func (r *PostgresOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	b := sq.Select(orderColumns...).From("orders").Where(sq.Eq{"id": id})
	if inTx(tx) {
		b = b.Suffix("FOR UPDATE")
	}
	q, args, err := b.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return o, nil
}

func (r *PostgresOrderRepo) List(ctx context.Context, tx repository.Tx, f repository.OrderFilter) ([]*model.Order, error) {
	off, lim := pageBounds(f.Offset, f.Limit)
	b := sq.Select(orderColumns...).From("orders").OrderBy("created_at DESC", "id").Offset(off).Limit(lim)
	if f.UserID != "" {
		b = b.Where(sq.Eq{"user_id": f.UserID})
	}
	if f.SubscriptionID != "" {
		b = b.Where(sq.Eq{"subscription_id": f.SubscriptionID})
	}
	if f.AssignedTo != "" {
		b = b.Where(sq.Eq{"assigned_to": f.AssignedTo})
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	q, args, err := b.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, scanErr(err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresOrderRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, o *model.Order, expected model.OrderStatus) (bool, error) {
	const q = `
UPDATE orders SET status=$2, tracking_location=$3, tracking_progress=$4, delivery_date=$5, updated_at=$6
 WHERE id=$1 AND status=$7`
	tag, err := execSQL(ctx, r.pool, tx, q, o.ID, o.Status, o.Tracking.Location, o.Tracking.Progress,
		o.DeliveryDate, o.UpdatedAt, expected)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresOrderRepo) Assign(ctx context.Context, tx repository.Tx, id, staffID string) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE orders SET assigned_to=$2, updated_at=NOW() WHERE id=$1`, id, staffID)
	if err != nil {
		return fmt.Errorf("assign order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresOrderRepo) UpdatePaymentStatus(ctx context.Context, tx repository.Tx, id string, status model.OrderPaymentStatus) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE orders SET payment_status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresOrderRepo) ExistsForBillingPeriod(ctx context.Context, tx repository.Tx, subscriptionID string, period time.Time) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE subscription_id=$1 AND billing_period=$2)`, subscriptionID, period)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, scanErr(err)
	}
	return exists, nil
}

func (r *PostgresOrderRepo) DailyStats(ctx context.Context, tx repository.Tx, since time.Time) ([]model.DailyStat, error) {
	const q = `
SELECT to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day,
       COUNT(*), COALESCE(SUM(total_amount), 0)
  FROM orders
 WHERE created_at >= $1
 GROUP BY day
 ORDER BY day`
	return dailyStats(ctx, r.pool, tx, q, since)
}

func dailyStats(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, since time.Time) ([]model.DailyStat, error) {
	rows, err := queryRows(ctx, pool, tx, q, since)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	defer rows.Close()

	var out []model.DailyStat
	for rows.Next() {
		var s model.DailyStat
		if err := rows.Scan(&s.Date, &s.Count, &s.Amount); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
