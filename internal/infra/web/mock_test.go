//go:build !integration

package web

import (
	"context"
	"time"

	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/usecase"
)

// --- Mock use cases ---
// Each mock embeds its interface; calling a method without a Func panics.

type mockUserUC struct {
	usecase.UserUseCase
	RegisterFunc func(ctx context.Context, in usecase.RegisterInput) (*model.User, error)
	LoginFunc    func(ctx context.Context, email, password string) (*model.User, error)
	MeFunc       func(ctx context.Context, actor usecase.Actor) (*model.User, error)
}

func (m *mockUserUC) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, error) {
	return m.RegisterFunc(ctx, in)
}

func (m *mockUserUC) Login(ctx context.Context, email, password string) (*model.User, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *mockUserUC) Me(ctx context.Context, actor usecase.Actor) (*model.User, error) {
	return m.MeFunc(ctx, actor)
}

type mockProductUC struct {
	usecase.ProductUseCase
	ListFunc func(ctx context.Context) ([]*model.Product, error)
	GetFunc  func(ctx context.Context, id string) (*model.Product, error)
}

func (m *mockProductUC) List(ctx context.Context) ([]*model.Product, error) { return m.ListFunc(ctx) }

func (m *mockProductUC) Get(ctx context.Context, id string) (*model.Product, error) {
	return m.GetFunc(ctx, id)
}

type mockOrderUC struct {
	usecase.OrderUseCase
	CheckoutFunc func(ctx context.Context, actor usecase.Actor, in usecase.CheckoutInput) (*model.Order, error)
	ListFunc     func(ctx context.Context, actor usecase.Actor, f repository.OrderFilter) ([]*model.Order, error)
}

func (m *mockOrderUC) Checkout(ctx context.Context, actor usecase.Actor, in usecase.CheckoutInput) (*model.Order, error) {
	return m.CheckoutFunc(ctx, actor, in)
}

func (m *mockOrderUC) List(ctx context.Context, actor usecase.Actor, f repository.OrderFilter) ([]*model.Order, error) {
	return m.ListFunc(ctx, actor, f)
}

type mockBillingUC struct {
	RunFunc func(ctx context.Context, asOf time.Time) (*model.BillingResult, error)
	calls   int
	lastAt  time.Time
	lastCtx context.Context
}

func (m *mockBillingUC) RunBillingCycle(ctx context.Context, asOf time.Time) (*model.BillingResult, error) {
	m.calls++
	m.lastAt = asOf
	m.lastCtx = ctx
	return m.RunFunc(ctx, asOf)
}

type mockPaymentUC struct {
	usecase.PaymentUseCase
	CallbackFunc func(ctx context.Context, reference string) error
}

func (m *mockPaymentUC) Callback(ctx context.Context, reference string) error {
	return m.CallbackFunc(ctx, reference)
}
