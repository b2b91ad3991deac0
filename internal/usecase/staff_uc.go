package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

// Compile-time check
var _ StaffUseCase = (*staffUC)(nil)

type StaffUseCase interface {
	Dashboard(ctx context.Context, actor Actor) (*StaffDashboard, error)
}

// StaffDashboard is the work queue of one staff member.
type StaffDashboard struct {
	Orders  []*model.Order         `json:"orders"`
	Tickets []*model.SupportTicket `json:"tickets"`
}

type staffUC struct {
	orders  repository.OrderRepository
	tickets repository.SupportTicketRepository
	log     *zerolog.Logger
}

func NewStaffUseCase(orders repository.OrderRepository, tickets repository.SupportTicketRepository, logger *zerolog.Logger) *staffUC {
	return &staffUC{orders: orders, tickets: tickets, log: logger}
}

// Dashboard lists active orders assigned to the caller and tickets that are
// still open or in progress.
func (uc *staffUC) Dashboard(ctx context.Context, actor Actor) (*StaffDashboard, error) {
	if !actor.IsSupport() {
		return nil, domain.ErrForbidden
	}
	orders, err := uc.orders.List(ctx, repository.NoTX, repository.OrderFilter{
		AssignedTo: actor.UserID,
		Statuses:   []model.OrderStatus{model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusInTransit},
		Limit:      100,
	})
	if err != nil {
		return nil, err
	}
	tickets, err := uc.tickets.List(ctx, repository.NoTX, repository.TicketFilter{
		Statuses: []model.TicketStatus{model.TicketStatusOpen, model.TicketStatusInProgress},
		Limit:    100,
	})
	if err != nil {
		return nil, err
	}
	return &StaffDashboard{Orders: orders, Tickets: tickets}, nil
}
