package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

// memStore is an in-memory backend shared by all mem repositories. WithTx
// runs units of work one at a time and restores a snapshot when fn fails,
// which gives tests the same all-or-nothing behavior as Postgres.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users    map[string]*model.User
	products map[string]*model.Product
	subs     map[string]*model.Subscription
	orders   map[string]*model.Order
	payments map[string]*model.Payment
	tickets  map[string]*model.SupportTicket

	// failOn makes the named operation return the given error.
	failOn map[string]error
	// calls counts invocations of operations that consult failOn.
	calls map[string]int
	// afterFindDue runs after due subscriptions were selected.
	afterFindDue func(s *memStore)
	// beforeAdvance runs inside AdvanceSchedule before the conditional check.
	beforeAdvance func(s *memStore, id string)
	// beforeCreateOrder may rewrite an order before it is inserted.
	beforeCreateOrder func(o *model.Order)
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*model.User{},
		products: map[string]*model.Product{},
		subs:     map[string]*model.Subscription{},
		orders:   map[string]*model.Order{},
		payments: map[string]*model.Payment{},
		tickets:  map[string]*model.SupportTicket{},
		failOn:   map[string]error{},
		calls:    map[string]int{},
	}
}

func cloneMap[T any](m map[string]*T) map[string]*T {
	out := make(map[string]*T, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

func (s *memStore) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.failOn[op]
}

// --- TransactionManager ---

type memTxManager struct{ s *memStore }

var _ repository.TransactionManager = (*memTxManager)(nil)

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	m.s.mu.Lock()
	users, products, subs := cloneMap(m.s.users), cloneMap(m.s.products), cloneMap(m.s.subs)
	orders, payments, tickets := cloneMap(m.s.orders), cloneMap(m.s.payments), cloneMap(m.s.tickets)
	m.s.mu.Unlock()

	if err := fn(ctx, repository.NoTX); err != nil {
		m.s.mu.Lock()
		m.s.users, m.s.products, m.s.subs = users, products, subs
		m.s.orders, m.s.payments, m.s.tickets = orders, payments, tickets
		m.s.mu.Unlock()
		return err
	}
	return nil
}

// --- Users ---

type memUserRepo struct{ s *memStore }

var _ repository.UserRepository = (*memUserRepo)(nil)

func (r *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if err := r.s.fail("Users.Save"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.users {
		if id != u.ID && other.Email == u.Email {
			return domain.ErrAlreadyExists
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if err := r.s.fail("Users.FindByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, offset, limit), nil
}

func (r *memUserRepo) CountByRole(ctx context.Context, tx repository.Tx) (map[model.Role]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[model.Role]int{}
	for _, u := range r.s.users {
		out[u.Role]++
	}
	return out, nil
}

func (r *memUserRepo) AdjustWallet(ctx context.Context, tx repository.Tx, id string, delta int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if u.WalletBalance+delta < 0 {
		return 0, domain.ErrInsufficientFunds
	}
	u.WalletBalance += delta
	return u.WalletBalance, nil
}

// --- Products ---

type memProductRepo struct{ s *memStore }

var _ repository.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	if err := r.s.fail("Products.FindByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Product
	for _, p := range r.s.products {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProductRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *memProductRepo) DecrementStock(ctx context.Context, tx repository.Tx, id string, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Stock < qty {
		return domain.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

// --- Subscriptions ---

type memSubRepo struct{ s *memStore }

var _ repository.SubscriptionRepository = (*memSubRepo)(nil)

func (r *memSubRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sub
	r.s.subs[sub.ID] = &cp
	return nil
}

func (r *memSubRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	if err := r.s.fail("Subs.FindByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r *memSubRepo) FindActiveByUserAndProduct(ctx context.Context, tx repository.Tx, userID, productID string) (*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.subs {
		if sub.UserID == userID && sub.ProductID == productID && sub.Status == model.SubscriptionStatusActive {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memSubRepo) List(ctx context.Context, tx repository.Tx, f repository.SubscriptionFilter) ([]*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Subscription
	for _, sub := range r.s.subs {
		if f.UserID != "" && sub.UserID != f.UserID {
			continue
		}
		if f.Status != "" && sub.Status != f.Status {
			continue
		}
		cp := *sub
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, f.Offset, f.Limit), nil
}

func (r *memSubRepo) FindDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	if err := r.s.fail("Subs.FindDue"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	var out []*model.Subscription
	for _, sub := range r.s.subs {
		if sub.IsDue(now) {
			cp := *sub
			out = append(out, &cp)
		}
	}
	hook := r.s.afterFindDue
	r.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDelivery.Equal(out[j].NextDelivery) {
			return out[i].NextDelivery.Before(out[j].NextDelivery)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if hook != nil {
		hook(r.s)
	}
	return out, nil
}

func (r *memSubRepo) AdvanceSchedule(ctx context.Context, tx repository.Tx, id string, expectedPrev, next, anchor time.Time) (bool, error) {
	if err := r.s.fail("Subs.AdvanceSchedule"); err != nil {
		return false, err
	}
	if r.s.beforeAdvance != nil {
		r.s.beforeAdvance(r.s, id)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[id]
	if !ok || sub.Status != model.SubscriptionStatusActive || !sub.NextDelivery.Equal(expectedPrev) {
		return false, nil
	}
	sub.NextDelivery = next
	sub.BillingAnchor = anchor
	return true, nil
}

func (r *memSubRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[model.SubscriptionStatus]int{}
	for _, sub := range r.s.subs {
		out[sub.Status]++
	}
	return out, nil
}

// --- Orders ---

type memOrderRepo struct{ s *memStore }

var _ repository.OrderRepository = (*memOrderRepo)(nil)

func (r *memOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if err := r.s.fail("Orders.Create"); err != nil {
		return err
	}
	if r.s.beforeCreateOrder != nil {
		r.s.beforeCreateOrder(o)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.orders {
		if other.Code == o.Code {
			return domain.ErrDuplicateCode
		}
	}
	if o.SubscriptionID != nil && o.BillingPeriod != nil {
		for _, other := range r.s.orders {
			if other.SubscriptionID != nil && *other.SubscriptionID == *o.SubscriptionID &&
				other.BillingPeriod != nil && other.BillingPeriod.Equal(*o.BillingPeriod) {
				return domain.ErrAlreadyExists
			}
		}
	}
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) List(ctx context.Context, tx repository.Tx, f repository.OrderFilter) ([]*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Order
	for _, o := range r.s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.SubscriptionID != "" && (o.SubscriptionID == nil || *o.SubscriptionID != f.SubscriptionID) {
			continue
		}
		if f.AssignedTo != "" && !o.IsAssignedTo(f.AssignedTo) {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, f.Offset, f.Limit), nil
}

func containsStatus(list []model.OrderStatus, s model.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *memOrderRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, o *model.Order, expected model.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.orders[o.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	cur.Status = o.Status
	cur.Tracking = o.Tracking
	cur.DeliveryDate = o.DeliveryDate
	cur.UpdatedAt = o.UpdatedAt
	return true, nil
}

func (r *memOrderRepo) Assign(ctx context.Context, tx repository.Tx, id, staffID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.AssignedTo = &staffID
	return nil
}

func (r *memOrderRepo) UpdatePaymentStatus(ctx context.Context, tx repository.Tx, id string, status model.OrderPaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (r *memOrderRepo) ExistsForBillingPeriod(ctx context.Context, tx repository.Tx, subscriptionID string, period time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.SubscriptionID != nil && *o.SubscriptionID == subscriptionID && o.BillingPeriod != nil && o.BillingPeriod.Equal(period) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memOrderRepo) DailyStats(ctx context.Context, tx repository.Tx, since time.Time) ([]model.DailyStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byDay := map[string]*model.DailyStat{}
	for _, o := range r.s.orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		d := o.CreatedAt.UTC().Format("2006-01-02")
		st, ok := byDay[d]
		if !ok {
			st = &model.DailyStat{Date: d}
			byDay[d] = st
		}
		st.Count++
		st.Amount += o.TotalAmount
	}
	out := make([]model.DailyStat, 0, len(byDay))
	for _, st := range byDay {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// --- Payments ---

type memPaymentRepo struct{ s *memStore }

var _ repository.PaymentRepository = (*memPaymentRepo)(nil)

func (r *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.payments[p.ID] = &cp
	return nil
}

func (r *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	all, _ := r.List(ctx, tx, 0, 0)
	var out []*model.Payment
	for _, p := range all {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return paginate(out, offset, limit), nil
}

func (r *memPaymentRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Payment, 0, len(r.s.payments))
	for _, p := range r.s.payments {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, offset, limit), nil
}

func (r *memPaymentRepo) DailyStats(ctx context.Context, tx repository.Tx, since time.Time) ([]model.DailyStat, error) {
	return []model.DailyStat{}, nil
}

// --- Support tickets ---

type memTicketRepo struct{ s *memStore }

var _ repository.SupportTicketRepository = (*memTicketRepo)(nil)

func (r *memTicketRepo) Save(ctx context.Context, tx repository.Tx, t *model.SupportTicket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	cp.Responses = append([]model.TicketResponse(nil), t.Responses...)
	r.s.tickets[t.ID] = &cp
	return nil
}

func (r *memTicketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SupportTicket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	cp.Responses = append([]model.TicketResponse(nil), t.Responses...)
	return &cp, nil
}

func (r *memTicketRepo) List(ctx context.Context, tx repository.Tx, f repository.TicketFilter) ([]*model.SupportTicket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.SupportTicket
	for _, t := range r.s.tickets {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, st := range f.Statuses {
				match = match || st == t.Status
			}
			if !match {
				continue
			}
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, f.Offset, f.Limit), nil
}

func (r *memTicketRepo) CountByCategory(ctx context.Context, tx repository.Tx) (map[model.TicketCategory]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[model.TicketCategory]int{}
	for _, t := range r.s.tickets {
		out[t.Category]++
	}
	return out, nil
}

func paginate[T any](in []T, offset, limit int) []T {
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}

// --- Locker / RateLimiter ---

type memLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]string{}} }

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLockHeld
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *memLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type memLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *memLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
