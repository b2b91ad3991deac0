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

var _ repository.PaymentRepository = (*PostgresPaymentRepo)(nil)

type PostgresPaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentRepo(pool *pgxpool.Pool) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{pool: pool}
}

var paymentColumns = []string{
	"id", "transaction_id", "user_id", "amount", "description", "reference",
	"type", "method", "status", "order_id", "subscription_id", "created_at",
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	if err := row.Scan(&p.ID, &p.TransactionID, &p.UserID, &p.Amount, &p.Description, &p.Reference,
		&p.Type, &p.Method, &p.Status, &p.OrderID, &p.SubscriptionID, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, transaction_id, user_id, amount, description, reference, type, method, status, order_id, subscription_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET status=$9, reference=$6;
`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.TransactionID, p.UserID, p.Amount, p.Description, p.Reference,
		p.Type, p.Method, p.Status, p.OrderID, p.SubscriptionID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

func (r *PostgresPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q, args, err := sq.Select(paymentColumns...).From("payments").Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *PostgresPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	return r.list(ctx, tx, sq.Eq{"user_id": userID}, offset, limit)
}

func (r *PostgresPaymentRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Payment, error) {
	return r.list(ctx, tx, nil, offset, limit)
}

func (r *PostgresPaymentRepo) list(ctx context.Context, tx repository.Tx, where sq.Sqlizer, offset, limit int) ([]*model.Payment, error) {
	off, lim := pageBounds(offset, limit)
	b := sq.Select(paymentColumns...).From("payments").OrderBy("created_at DESC", "id").Offset(off).Limit(lim)
	if where != nil {
		b = b.Where(where)
	}
	q, args, err := b.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, scanErr(err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DailyStats sums completed payments per UTC day.
func (r *PostgresPaymentRepo) DailyStats(ctx context.Context, tx repository.Tx, since time.Time) ([]model.DailyStat, error) {
	const q = `
SELECT to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day,
       COUNT(*), COALESCE(SUM(amount), 0)
  FROM payments
 WHERE created_at >= $1 AND status = 'completed'
 GROUP BY day
 ORDER BY day`
	return dailyStats(ctx, r.pool, tx, q, since)
}
