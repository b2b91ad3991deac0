package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, first_name, last_name, email, phone, password_hash, role,
       street, city, state, wallet_balance, is_active, login_attempts, lock_until,
       created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.Address.Street, &u.Address.City, &u.Address.State, &u.WalletBalance, &u.IsActive,
		&u.LoginAttempts, &u.LockUntil, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// Save upserts the user. The wallet balance is owned by AdjustWallet and is
// only written on insert.
func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, first_name, last_name, email, phone, password_hash, role,
  street, city, state, wallet_balance, is_active, login_attempts, lock_until,
  created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (id) DO UPDATE SET
  first_name=$2, last_name=$3, email=$4, phone=$5, password_hash=$6, role=$7,
  street=$8, city=$9, state=$10, is_active=$12, login_attempts=$13, lock_until=$14,
  updated_at=$16;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.Role,
		u.Address.Street, u.Address.City, u.Address.State, u.WalletBalance, u.IsActive,
		u.LoginAttempts, u.LockUntil, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	return r.queryOne(ctx, tx, q, id)
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	return r.queryOne(ctx, tx, q, model.NormalizeEmail(email))
}

func (r *PostgresUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	off, lim := pageBounds(offset, limit)
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id OFFSET $1 LIMIT $2`
	rows, err := queryRows(ctx, r.pool, tx, q, off, lim)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, scanErr(err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) CountByRole(ctx context.Context, tx repository.Tx) (map[model.Role]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	defer rows.Close()

	out := make(map[model.Role]int)
	for rows.Next() {
		var role model.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, scanErr(err)
		}
		out[role] = n
	}
	return out, rows.Err()
}

// AdjustWallet applies delta atomically and refuses to go below zero.
func (r *PostgresUserRepo) AdjustWallet(ctx context.Context, tx repository.Tx, id string, delta int64) (int64, error) {
	const q = `
UPDATE users SET wallet_balance = wallet_balance + $2, updated_at = NOW()
 WHERE id=$1 AND wallet_balance + $2 >= 0
RETURNING wallet_balance`
	row, err := pickRow(ctx, r.pool, tx, q, id, delta)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := row.Scan(&balance); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, mapErr(err)
		}
		// distinguish a missing user from an overdraft
		if _, ferr := r.FindByID(ctx, tx, id); ferr != nil {
			return 0, ferr
		}
		return 0, domain.ErrInsufficientFunds
	}
	return balance, nil
}

func (r *PostgresUserRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return u, nil
}
