// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/infra/logging"
	"egas-delivery/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Create records a payment. Wallet credits top up the balance and wallet
	// debits draw it down in the same transaction.
	Create(ctx context.Context, actor Actor, in PaymentInput) (*model.Payment, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Payment, error)
	List(ctx context.Context, actor Actor, offset, limit int) ([]*model.Payment, error)
	// Callback acknowledges a gateway notification. No gateway is integrated.
	Callback(ctx context.Context, reference string) error
	Stats(ctx context.Context, actor Actor) ([]model.DailyStat, error)
}

type PaymentInput struct {
	Amount      int64
	Type        string
	Method      string
	Description string
	Reference   string
	OrderID     string
}

type paymentUC struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
	orders   repository.OrderRepository
	tm       repository.TransactionManager
	now      func() time.Time

	log *zerolog.Logger
}

func NewPaymentUseCase(payments repository.PaymentRepository, users repository.UserRepository, orders repository.OrderRepository, tm repository.TransactionManager, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{payments: payments, users: users, orders: orders, tm: tm, now: time.Now, log: logger}
}

func (u *paymentUC) Create(ctx context.Context, actor Actor, in PaymentInput) (*model.Payment, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	typ := model.PaymentType(strings.ToLower(in.Type))
	if typ == "" {
		typ = model.PaymentTypeCredit
	}
	p, err := model.NewPayment(uuid.NewString(), actor.UserID, in.Amount, typ, model.PaymentMethod(strings.ToLower(in.Method)), in.Description, u.now().UTC())
	if err != nil {
		return nil, err
	}
	p.Reference = in.Reference

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if in.OrderID != "" {
			o, err := u.orders.FindByID(ctx, tx, in.OrderID)
			if err != nil {
				return err
			}
			if err := actor.canAccess(o.UserID); err != nil {
				return err
			}
			p.OrderID = &o.ID
		}
		if p.Method == model.PaymentMethodWallet {
			delta := p.Amount
			if p.Type == model.PaymentTypeDebit {
				delta = -delta
			}
			if _, err := u.users.AdjustWallet(ctx, tx, actor.UserID, delta); err != nil {
				return err
			}
		}
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		if p.OrderID != nil {
			return u.orders.UpdatePaymentStatus(ctx, tx, *p.OrderID, model.OrderPaymentCompleted)
		}
		return nil
	})
	if err != nil {
		metrics.IncPayment(string(model.PaymentStatusFailed))
		return nil, err
	}
	metrics.IncPayment(string(p.Status))
	metrics.AddPaymentAmount(string(p.Type), p.Amount)
	logging.With(ctx, u.log).Info().Str("payment_id", p.ID).Str("tx", p.TransactionID).Int64("amount", p.Amount).Msg("payment recorded")
	return p, nil
}

func (u *paymentUC) Get(ctx context.Context, actor Actor, id string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := actor.canAccess(p.UserID); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *paymentUC) List(ctx context.Context, actor Actor, offset, limit int) ([]*model.Payment, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	offset, limit = Page(offset, limit)
	if actor.IsAdmin() {
		return u.payments.List(ctx, repository.NoTX, offset, limit)
	}
	return u.payments.ListByUser(ctx, repository.NoTX, actor.UserID, offset, limit)
}

func (u *paymentUC) Callback(ctx context.Context, reference string) error {
	logging.With(ctx, u.log).Info().Str("reference", reference).Msg("payment callback received")
	return nil
}

func (u *paymentUC) Stats(ctx context.Context, actor Actor) ([]model.DailyStat, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return u.payments.DailyStats(ctx, repository.NoTX, u.now().UTC().Add(-statsWindow))
}
