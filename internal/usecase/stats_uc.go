package usecase

import (
	"context"
	"time"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Overview(ctx context.Context, actor Actor) (*Overview, error)
	SubscriptionCounts(ctx context.Context) (map[model.SubscriptionStatus]int, error)
}

// Overview is the admin dashboard summary.
type Overview struct {
	UsersByRole          map[model.Role]int               `json:"usersByRole"`
	SubscriptionsByState map[model.SubscriptionStatus]int `json:"subscriptionsByStatus"`
	TicketsByCategory    map[model.TicketCategory]int     `json:"ticketsByCategory"`
	Orders               []model.DailyStat                `json:"orders"`
	Payments             []model.DailyStat                `json:"payments"`
}

type statsUC struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	tickets  repository.SupportTicketRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, subs repository.SubscriptionRepository, orders repository.OrderRepository, payments repository.PaymentRepository, tickets repository.SupportTicketRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, subs: subs, orders: orders, payments: payments, tickets: tickets, log: logger}
}

func (s *statsUC) Overview(ctx context.Context, actor Actor) (*Overview, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	since := time.Now().UTC().Add(-statsWindow)
	var out Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.UsersByRole, err = s.users.CountByRole(ctx, repository.NoTX)
		return err
	})
	g.Go(func() (err error) {
		out.SubscriptionsByState, err = s.subs.CountByStatus(ctx, repository.NoTX)
		return err
	})
	g.Go(func() (err error) {
		out.TicketsByCategory, err = s.tickets.CountByCategory(ctx, repository.NoTX)
		return err
	})
	g.Go(func() (err error) {
		out.Orders, err = s.orders.DailyStats(ctx, repository.NoTX, since)
		return err
	})
	g.Go(func() (err error) {
		out.Payments, err = s.payments.DailyStats(ctx, repository.NoTX, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *statsUC) SubscriptionCounts(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	return s.subs.CountByStatus(ctx, repository.NoTX)
}
