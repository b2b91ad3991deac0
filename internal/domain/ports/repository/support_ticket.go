package repository

import (
	"context"

	"egas-delivery/internal/domain/model"
)

type TicketFilter struct {
	UserID     string
	AssignedTo string
	Statuses   []model.TicketStatus
	Offset     int
	Limit      int
}

type SupportTicketRepository interface {
	Save(ctx context.Context, tx Tx, t *model.SupportTicket) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SupportTicket, error)
	List(ctx context.Context, tx Tx, f TicketFilter) ([]*model.SupportTicket, error)
	CountByCategory(ctx context.Context, tx Tx) (map[model.TicketCategory]int, error)
}
