package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*PostgresProductRepo)(nil)

type PostgresProductRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProductRepo(pool *pgxpool.Pool) *PostgresProductRepo {
	return &PostgresProductRepo{pool: pool}
}

const productColumns = `id, name, description, price, weight, image, stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Weight, &p.Image, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (id, name, description, price, weight, image, stock, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, price=$4, weight=$5, image=$6, stock=$7, is_active=$8, updated_at=$10;
`
	if _, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Description, p.Price, p.Weight, p.Image, p.Stock, p.IsActive, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (r *PostgresProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanProduct(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *PostgresProductRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, scanErr(err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresProductRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresProductRepo) DecrementStock(ctx context.Context, tx repository.Tx, id string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidArgument
	}
	tag, err := execSQL(ctx, r.pool, tx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id=$1 AND stock >= $2`, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.FindByID(ctx, tx, id); err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrProductNotFound
		}
		return err
	}
	return domain.ErrInsufficientStock
}
