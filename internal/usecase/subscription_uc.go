// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/infra/logging"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	Create(ctx context.Context, actor Actor, productID, frequency string) (*model.Subscription, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Subscription, error)
	List(ctx context.Context, actor Actor, f repository.SubscriptionFilter) ([]*model.Subscription, error)
	Update(ctx context.Context, actor Actor, id string, in SubscriptionUpdate) (*model.Subscription, error)
	Cancel(ctx context.Context, actor Actor, id string) (*model.Subscription, error)
}

// SubscriptionUpdate carries optional changes; nil fields are left alone.
type SubscriptionUpdate struct {
	Frequency *string
	Status    *string
	AutoRenew *bool
}

type subscriptionUC struct {
	subs     repository.SubscriptionRepository
	products repository.ProductRepository
	tm       repository.TransactionManager
	now      func() time.Time

	log *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, products repository.ProductRepository, tm repository.TransactionManager, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{subs: subs, products: products, tm: tm, now: time.Now, log: logger}
}

// Create snapshots the product price and schedules the first delivery one
// period from now. A customer holds at most one active subscription per product.
func (uc *subscriptionUC) Create(ctx context.Context, actor Actor, productID, frequency string) (*model.Subscription, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	freq, err := model.ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}

	var sub *model.Subscription
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		product, err := uc.products.FindByID(ctx, tx, productID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return err
		}
		if !product.IsActive {
			return domain.ErrProductNotFound
		}
		existing, err := uc.subs.FindActiveByUserAndProduct(ctx, tx, actor.UserID, product.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyExists
		}
		sub, err = model.NewSubscription(uuid.NewString(), actor.UserID, product, freq, uc.now().UTC())
		if err != nil {
			return err
		}
		return uc.subs.Save(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}
	logging.With(ctx, uc.log).Info().Str("subscription_id", sub.ID).Str("frequency", string(sub.Frequency)).Msg("subscription created")
	return sub, nil
}

func (uc *subscriptionUC) Get(ctx context.Context, actor Actor, id string) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := actor.canAccess(sub.UserID); err != nil {
		return nil, err
	}
	return sub, nil
}

func (uc *subscriptionUC) List(ctx context.Context, actor Actor, f repository.SubscriptionFilter) ([]*model.Subscription, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		f.UserID = actor.UserID
	}
	f.Offset, f.Limit = Page(f.Offset, f.Limit)
	return uc.subs.List(ctx, repository.NoTX, f)
}

func (uc *subscriptionUC) Update(ctx context.Context, actor Actor, id string, in SubscriptionUpdate) (*model.Subscription, error) {
	var out *model.Subscription
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := uc.subs.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := actor.canAccess(sub.UserID); err != nil {
			return err
		}
		if sub.Status == model.SubscriptionStatusCancelled {
			return domain.ErrInvalidTransition
		}
		now := uc.now().UTC()
		if in.Frequency != nil {
			freq, err := model.ParseFrequency(*in.Frequency)
			if err != nil {
				return err
			}
			if freq != sub.Frequency {
				sub.Frequency = freq
				sub.Reschedule(now)
			}
		}
		if in.Status != nil {
			status := model.SubscriptionStatus(*in.Status)
			switch status {
			case model.SubscriptionStatusActive, model.SubscriptionStatusPaused, model.SubscriptionStatusCancelled:
				sub.Status = status
			default:
				return domain.ErrInvalidArgument
			}
		}
		if in.AutoRenew != nil {
			sub.AutoRenew = *in.AutoRenew
		}
		sub.UpdatedAt = now
		out = sub
		return uc.subs.Save(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel marks the subscription cancelled. Records are never deleted.
func (uc *subscriptionUC) Cancel(ctx context.Context, actor Actor, id string) (*model.Subscription, error) {
	status := string(model.SubscriptionStatusCancelled)
	sub, err := uc.Update(ctx, actor, id, SubscriptionUpdate{Status: &status})
	if err != nil {
		return nil, err
	}
	logging.With(ctx, uc.log).Info().Str("subscription_id", sub.ID).Msg("subscription cancelled")
	return sub, nil
}
