package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/infra/metrics"
	red "egas-delivery/internal/infra/redis"
)

var _ repository.ProductRepository = (*productRepoCacheDecorator)(nil)

const productListKey = "products:active"

// productRepoCacheDecorator caches catalog reads. Reads inside a transaction
// always go to the database so row locks are taken.
type productRepoCacheDecorator struct {
	inner repository.ProductRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewProductRepoCacheDecorator(inner repository.ProductRepository, cache red.RedisClient, ttl time.Duration) repository.ProductRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &productRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func productKey(id string) string { return fmt.Sprintf("product:%s", id) }

func (d *productRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	_ = d.cache.Del(ctx, productKey(id), productListKey)
}

func (d *productRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	if tx != nil {
		metrics.IncCacheRequest("product", "bypass")
		return d.inner.FindByID(ctx, tx, id)
	}
	key := productKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var p model.Product
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("product", "hit")
			return &p, nil
		}
	} else if err != redis.Nil {
		metrics.IncCacheRequest("product", "error")
	}

	metrics.IncCacheRequest("product", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}

func (d *productRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	if tx != nil {
		metrics.IncCacheRequest("product_list", "bypass")
		return d.inner.ListActive(ctx, tx)
	}
	val, err := d.cache.Get(ctx, productListKey)
	if err == nil {
		var products []*model.Product
		if json.Unmarshal([]byte(val), &products) == nil {
			metrics.IncCacheRequest("product_list", "hit")
			return products, nil
		}
	}

	metrics.IncCacheRequest("product_list", "miss")
	products, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(products); err == nil {
		_ = d.cache.Set(ctx, productListKey, bytes, d.ttl)
	}
	return products, nil
}

// For write operations, we must invalidate the cache.
func (d *productRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	d.invalidate(ctx, p.ID)
	return d.inner.Save(ctx, tx, p)
}

func (d *productRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	d.invalidate(ctx, id)
	return d.inner.Delete(ctx, tx, id)
}

func (d *productRepoCacheDecorator) DecrementStock(ctx context.Context, tx repository.Tx, id string, qty int) error {
	d.invalidate(ctx, id)
	return d.inner.DecrementStock(ctx, tx, id, qty)
}
