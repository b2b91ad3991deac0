package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

// Compile-time check
var _ ProductUseCase = (*productUC)(nil)

type ProductUseCase interface {
	List(ctx context.Context) ([]*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, actor Actor, id string, in ProductInput) (*model.Product, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type ProductInput struct {
	Name        *string
	Description *string
	Price       *int64
	Weight      *float64
	Image       *string
	Stock       *int
	IsActive    *bool
}

type productUC struct {
	products repository.ProductRepository
	log      *zerolog.Logger
}

func NewProductUseCase(products repository.ProductRepository, logger *zerolog.Logger) *productUC {
	return &productUC{products: products, log: logger}
}

func (uc *productUC) List(ctx context.Context) ([]*model.Product, error) {
	return uc.products.ListActive(ctx, repository.NoTX)
}

func (uc *productUC) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.products.FindByID(ctx, repository.NoTX, id)
	if err == domain.ErrNotFound {
		return nil, domain.ErrProductNotFound
	}
	return p, err
}

func (uc *productUC) Create(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if in.Name == nil || in.Price == nil {
		return nil, domain.ErrInvalidArgument
	}
	p, err := model.NewProduct("", *in.Name, deref(in.Description), *in.Price, derefFloat(in.Weight), derefInt(in.Stock))
	if err != nil {
		return nil, err
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}
	if err := uc.products.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", p.ID).Str("name", p.Name).Msg("product created")
	return p, nil
}

func (uc *productUC) Update(ctx context.Context, actor Actor, id string, in ProductInput) (*model.Product, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	p, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Weight != nil {
		p.Weight = *in.Weight
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	if err := uc.products.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the catalog entry. Subscriptions that still reference it
// are reported as "product not found" by the billing cycle.
func (uc *productUC) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := uc.products.Delete(ctx, repository.NoTX, id); err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrProductNotFound
		}
		return err
	}
	uc.log.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
