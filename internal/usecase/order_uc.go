// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
var _ OrderUseCase = (*orderUC)(nil)

type OrderUseCase interface {
	Checkout(ctx context.Context, actor Actor, in CheckoutInput) (*model.Order, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Order, error)
	List(ctx context.Context, actor Actor, f repository.OrderFilter) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, id string, status model.OrderStatus, location string) (*model.Order, error)
	Cancel(ctx context.Context, actor Actor, id string) (*model.Order, error)
	Assign(ctx context.Context, actor Actor, id, staffID string) (*model.Order, error)
	Stats(ctx context.Context, actor Actor) ([]model.DailyStat, error)
}

type CheckoutItem struct {
	ProductID string
	Quantity  int
}

type CheckoutInput struct {
	Items          []CheckoutItem
	DeliveryOption string
	PaymentMethod  string
	// Address overrides the profile address when set.
	Address *model.Address
}

// statsWindow is the look-back of dashboard aggregates.
const statsWindow = 30 * 24 * time.Hour

type orderUC struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	users      repository.UserRepository
	tm         repository.TransactionManager
	expressFee int64
	now        func() time.Time

	log *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, products repository.ProductRepository, users repository.UserRepository, tm repository.TransactionManager, expressFee int64, logger *zerolog.Logger) *orderUC {
	if expressFee <= 0 {
		expressFee = model.DefaultExpressFee
	}
	return &orderUC{orders: orders, products: products, users: users, tm: tm, expressFee: expressFee, now: time.Now, log: logger}
}

// Checkout prices every line from the catalog, reserves stock and stores the
// order in one transaction.
func (uc *orderUC) Checkout(ctx context.Context, actor Actor, in CheckoutInput) (*model.Order, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	lines := mergeLines(in.Items)

	var order *model.Order
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		owner, err := uc.users.FindByID(ctx, tx, actor.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCustomerNotFound
		}
		if err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(lines))
		for _, line := range lines {
			if line.Quantity <= 0 {
				return domain.ErrInvalidArgument
			}
			p, err := uc.products.FindByID(ctx, tx, line.ProductID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrProductNotFound
			}
			if err != nil {
				return err
			}
			if !p.IsActive {
				return domain.ErrProductNotFound
			}
			if !p.InStock(line.Quantity) {
				return domain.ErrInsufficientStock
			}
			if err := uc.products.DecrementStock(ctx, tx, p.ID, line.Quantity); err != nil {
				return err
			}
			items = append(items, model.OrderItem{ProductID: p.ID, Name: p.Name, Quantity: line.Quantity, UnitPrice: p.Price})
		}

		addr := owner.Address
		if in.Address != nil && !in.Address.IsZero() {
			addr = *in.Address
		}
		order, err = model.NewOrder(uuid.NewString(), model.OrderDraft{
			UserID:         owner.ID,
			Items:          items,
			Address:        addr,
			DeliveryOption: model.DeliveryOption(in.DeliveryOption),
			ExpressFee:     uc.expressFee,
			PaymentMethod:  model.PaymentMethod(in.PaymentMethod),
		}, uc.now().UTC())
		if err != nil {
			return err
		}
		return createOrder(ctx, uc.orders, tx, order)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncOrderCreated("checkout")
	logging.With(ctx, uc.log).Info().Str("order_id", order.ID).Str("code", order.Code).Int64("total", order.TotalAmount).Msg("order placed")
	return order, nil
}

// mergeLines folds repeated products together and orders lines by product id
// so concurrent checkouts lock stock rows in the same order.
func mergeLines(items []CheckoutItem) []CheckoutItem {
	qty := make(map[string]int, len(items))
	for _, it := range items {
		qty[it.ProductID] += it.Quantity
	}
	out := make([]CheckoutItem, 0, len(qty))
	for id, q := range qty {
		out = append(out, CheckoutItem{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (uc *orderUC) Get(ctx context.Context, actor Actor, id string) (*model.Order, error) {
	o, err := uc.orders.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleStaff && o.IsAssignedTo(actor.UserID) {
		return o, nil
	}
	if err := actor.canAccess(o.UserID); err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *orderUC) List(ctx context.Context, actor Actor, f repository.OrderFilter) ([]*model.Order, error) {
	switch {
	case actor.UserID == "":
		return nil, domain.ErrUnauthorized
	case actor.IsAdmin():
	case actor.Role == model.RoleStaff:
		f.AssignedTo = actor.UserID
	default:
		f.UserID = actor.UserID
	}
	f.Offset, f.Limit = Page(f.Offset, f.Limit)
	return uc.orders.List(ctx, repository.NoTX, f)
}

// UpdateStatus applies a fulfilment transition. Staff may only move orders
// assigned to them.
func (uc *orderUC) UpdateStatus(ctx context.Context, actor Actor, id string, status model.OrderStatus, location string) (*model.Order, error) {
	if !actor.IsSupport() {
		return nil, domain.ErrForbidden
	}
	o, err := uc.orders.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleStaff && !o.IsAssignedTo(actor.UserID) {
		return nil, domain.ErrForbidden
	}
	return uc.transition(ctx, o, status, location)
}

// Cancel lets a customer withdraw an order that has not left the depot.
func (uc *orderUC) Cancel(ctx context.Context, actor Actor, id string) (*model.Order, error) {
	o, err := uc.orders.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := actor.canAccess(o.UserID); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && o.Status != model.OrderStatusProcessing {
		return nil, domain.ErrInvalidTransition
	}
	return uc.transition(ctx, o, model.OrderStatusCancelled, "")
}

func (uc *orderUC) transition(ctx context.Context, o *model.Order, status model.OrderStatus, location string) (*model.Order, error) {
	expected := o.Status
	if err := o.Transition(status, location, uc.now().UTC()); err != nil {
		return nil, err
	}
	ok, err := uc.orders.UpdateStatusIf(ctx, repository.NoTX, o, expected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConflict
	}
	metrics.IncOrderTransition(string(status))
	logging.With(ctx, uc.log).Info().Str("order_id", o.ID).Str("from", string(expected)).Str("to", string(status)).Msg("order status changed")
	return o, nil
}

func (uc *orderUC) Assign(ctx context.Context, actor Actor, id, staffID string) (*model.Order, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	staff, err := uc.users.FindByID(ctx, repository.NoTX, staffID)
	if err != nil {
		return nil, err
	}
	if staff.Role != model.RoleStaff || !staff.IsActive {
		return nil, domain.ErrInvalidArgument
	}
	o, err := uc.orders.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, domain.ErrInvalidTransition
	}
	if err := uc.orders.Assign(ctx, repository.NoTX, id, staffID); err != nil {
		return nil, err
	}
	o.AssignedTo = &staff.ID
	return o, nil
}

func (uc *orderUC) Stats(ctx context.Context, actor Actor) ([]model.DailyStat, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return uc.orders.DailyStats(ctx, repository.NoTX, uc.now().UTC().Add(-statsWindow))
}

// maxCodeAttempts bounds how often an order is re-coded after a collision.
const maxCodeAttempts = 3

// createOrder inserts o, drawing a fresh order code when the generated one
// is already taken.
func createOrder(ctx context.Context, orders repository.OrderRepository, tx repository.Tx, o *model.Order) error {
	var err error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if attempt > 0 {
			o.Code = model.NewCode(model.OrderCodePrefix)
		}
		if err = orders.Create(ctx, tx, o); !errors.Is(err, domain.ErrDuplicateCode) {
			return err
		}
	}
	return fmt.Errorf("order code retries exhausted: %w", err)
}
