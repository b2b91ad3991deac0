// File: internal/usecase/billing_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/adapter"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/infra/logging"
	"egas-delivery/internal/infra/metrics"
)

const billingLockKey = "billing:cycle"

// Compile-time check
var _ BillingUseCase = (*billingUC)(nil)

// BillingUseCase turns due subscriptions into orders.
type BillingUseCase interface {
	// RunBillingCycle bills every active subscription due at asOf. A zero asOf
	// means the current time. Per-subscription problems are reported in the
	// result; storage failures abort the whole run and return no result.
	RunBillingCycle(ctx context.Context, asOf time.Time) (*model.BillingResult, error)
}

type BillingOptions struct {
	Policy      model.SchedulePolicy
	Concurrency int
	BatchLimit  int
	LockTTL     time.Duration
	// Now overrides the clock; used by tests.
	Now func() time.Time
}

type billingUC struct {
	subs     repository.SubscriptionRepository
	products repository.ProductRepository
	users    repository.UserRepository
	orders   repository.OrderRepository
	tm       repository.TransactionManager
	locker   adapter.Locker // optional
	opts     BillingOptions

	log *zerolog.Logger
}

func NewBillingUseCase(
	subs repository.SubscriptionRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	orders repository.OrderRepository,
	tm repository.TransactionManager,
	locker adapter.Locker,
	opts BillingOptions,
	logger *zerolog.Logger,
) *billingUC {
	if opts.Policy == "" {
		opts.Policy = model.ScheduleFromPrevious
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &billingUC{
		subs:     subs,
		products: products,
		users:    users,
		orders:   orders,
		tm:       tm,
		locker:   locker,
		opts:     opts,
		log:      logger,
	}
}

func (uc *billingUC) RunBillingCycle(ctx context.Context, asOf time.Time) (*model.BillingResult, error) {
	if asOf.IsZero() {
		asOf = uc.opts.Now()
	}
	asOf = asOf.UTC()
	runID := model.NewRunID()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "BillingUC.RunBillingCycle")()

	if uc.locker != nil {
		token, err := uc.locker.TryLock(ctx, billingLockKey, uc.opts.LockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			metrics.IncBillingCycle("busy")
			return nil, domain.ErrBillingInProgress
		case err != nil:
			// The lock only prevents wasted work; row locks and the conditional
			// advance keep concurrent runs correct.
			log.Warn().Err(err).Msg("billing lock unavailable, continuing without it")
		default:
			defer func() {
				if err := uc.locker.Unlock(context.Background(), billingLockKey, token); err != nil {
					log.Warn().Err(err).Msg("billing lock release failed")
				}
			}()
		}
	}

	start := time.Now()
	result, err := uc.run(ctx, runID, asOf)
	metrics.ObserveBillingCycle(time.Since(start).Seconds())
	if err != nil {
		metrics.IncBillingCycle("error")
		log.Error().Err(err).Time("as_of", asOf).Msg("billing cycle failed")
		return nil, err
	}
	metrics.IncBillingCycle("ok")
	log.Info().
		Time("as_of", asOf).
		Int("processed", result.ProcessedCount).
		Int("billed", len(result.Successes)).
		Int("failed", len(result.Failures)).
		Msg("billing cycle finished")
	return result, nil
}

func (uc *billingUC) run(ctx context.Context, runID string, asOf time.Time) (*model.BillingResult, error) {
	due, err := uc.subs.FindDue(ctx, repository.NoTX, asOf, uc.opts.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("select due subscriptions: %w", err)
	}

	result := model.NewBillingResult(runID, asOf)
	result.ProcessedCount = len(due)
	if len(due) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)
	for _, sub := range due {
		if gctx.Err() != nil {
			break
		}
		sub := sub
		g.Go(func() error {
			orderID, err := uc.billOne(gctx, sub, asOf)
			reason, fatal := classifyBillingError(err)
			if fatal {
				return fmt.Errorf("bill subscription %s: %w", sub.ID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				metrics.IncBillingSubscription("billed")
				result.Successes = append(result.Successes, model.BillingSuccess{SubscriptionID: sub.ID, OrderID: orderID})
				return nil
			}
			metrics.IncBillingSubscription(metricLabel(reason))
			uc.log.Debug().Str("run_id", runID).Str("subscription_id", sub.ID).Str("reason", reason).Msg("subscription skipped")
			result.Failures = append(result.Failures, model.BillingFailure{SubscriptionID: sub.ID, Reason: reason})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Successes, func(i, j int) bool { return result.Successes[i].SubscriptionID < result.Successes[j].SubscriptionID })
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].SubscriptionID < result.Failures[j].SubscriptionID })
	return result, nil
}

// billOne materializes the order and advances the schedule of one
// subscription as a single unit of work.
func (uc *billingUC) billOne(ctx context.Context, selected *model.Subscription, asOf time.Time) (string, error) {
	var orderID string
	err := uc.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		// Re-read under a row lock: status and due date may have changed since selection.
		sub, err := uc.subs.FindByID(ctx, tx, selected.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrConflict
		}
		if err != nil {
			return err
		}
		if sub.Status != model.SubscriptionStatusActive || !sub.NextDelivery.Equal(selected.NextDelivery) {
			return domain.ErrConflict
		}

		product, err := uc.products.FindByID(ctx, tx, sub.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return err
		}
		owner, err := uc.users.FindByID(ctx, tx, sub.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCustomerNotFound
		}
		if err != nil {
			return err
		}

		period := sub.NextDelivery
		exists, err := uc.orders.ExistsForBillingPeriod(ctx, tx, sub.ID, period)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrConflict
		}

		subID := sub.ID
		order, err := model.NewOrder(uuid.NewString(), model.OrderDraft{
			UserID:         sub.UserID,
			Items:          []model.OrderItem{{ProductID: product.ID, Name: product.Name, Quantity: 1, UnitPrice: sub.Price}},
			Address:        owner.Address,
			DeliveryOption: model.DeliveryStandard,
			PaymentMethod:  model.PaymentMethodWallet,
			PaymentStatus:  model.OrderPaymentCompleted,
			SubscriptionID: &subID,
			BillingPeriod:  &period,
		}, uc.opts.Now().UTC())
		if err != nil {
			return err
		}
		if err := createOrder(ctx, uc.orders, tx, order); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrConflict
			}
			return err
		}

		next, anchor := sub.NextDeliveryAfter(asOf, uc.opts.Policy)
		ok, err := uc.subs.AdvanceSchedule(ctx, tx, sub.ID, period, next, anchor)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflict
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	metrics.IncOrderCreated("subscription")
	return orderID, nil
}

// classifyBillingError maps a per-subscription error to a failure reason.
// fatal is true for errors that must abort the whole cycle.
func classifyBillingError(err error) (reason string, fatal bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, domain.ErrProductNotFound):
		return model.ReasonProductNotFound, false
	case errors.Is(err, domain.ErrCustomerNotFound):
		return model.ReasonCustomerNotFound, false
	case errors.Is(err, domain.ErrConflict):
		return model.ReasonConflict, false
	default:
		return "", true
	}
}

func metricLabel(reason string) string {
	switch reason {
	case model.ReasonProductNotFound:
		return "product_not_found"
	case model.ReasonCustomerNotFound:
		return "customer_not_found"
	default:
		return "conflict"
	}
}
