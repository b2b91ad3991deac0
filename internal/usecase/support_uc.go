package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

// Compile-time check
var _ SupportUseCase = (*supportUC)(nil)

type SupportUseCase interface {
	Create(ctx context.Context, actor Actor, subject, category, description string, attachments []string) (*model.SupportTicket, error)
	Get(ctx context.Context, actor Actor, id string) (*model.SupportTicket, error)
	List(ctx context.Context, actor Actor, f repository.TicketFilter) ([]*model.SupportTicket, error)
	AddResponse(ctx context.Context, actor Actor, id, message string) (*model.SupportTicket, error)
	UpdateStatus(ctx context.Context, actor Actor, id string, status model.TicketStatus, assignTo string) (*model.SupportTicket, error)
	Stats(ctx context.Context, actor Actor) (map[model.TicketCategory]int, error)
}

type supportUC struct {
	tickets repository.SupportTicketRepository
	tm      repository.TransactionManager
	now     func() time.Time

	log *zerolog.Logger
}

func NewSupportUseCase(tickets repository.SupportTicketRepository, tm repository.TransactionManager, logger *zerolog.Logger) *supportUC {
	return &supportUC{tickets: tickets, tm: tm, now: time.Now, log: logger}
}

func (uc *supportUC) Create(ctx context.Context, actor Actor, subject, category, description string, attachments []string) (*model.SupportTicket, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	t, err := model.NewSupportTicket(uuid.NewString(), actor.UserID, subject, model.TicketCategory(category), description, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	if len(attachments) > 0 {
		t.Attachments = append(t.Attachments, attachments...)
	}
	if err := uc.tickets.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	uc.log.Info().Str("ticket_id", t.TicketID).Str("category", string(t.Category)).Msg("support ticket opened")
	return t, nil
}

func (uc *supportUC) Get(ctx context.Context, actor Actor, id string) (*model.SupportTicket, error) {
	t, err := uc.tickets.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if actor.IsSupport() {
		return t, nil
	}
	if err := actor.canAccess(t.UserID); err != nil {
		return nil, err
	}
	return t, nil
}

func (uc *supportUC) List(ctx context.Context, actor Actor, f repository.TicketFilter) ([]*model.SupportTicket, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsSupport() {
		f.UserID = actor.UserID
	}
	f.Offset, f.Limit = Page(f.Offset, f.Limit)
	return uc.tickets.List(ctx, repository.NoTX, f)
}

func (uc *supportUC) AddResponse(ctx context.Context, actor Actor, id, message string) (*model.SupportTicket, error) {
	var out *model.SupportTicket
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		t, err := uc.tickets.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.IsSupport() {
			if err := actor.canAccess(t.UserID); err != nil {
				return err
			}
		}
		if t.Status == model.TicketStatusClosed {
			return domain.ErrInvalidTransition
		}
		if err := t.AddResponse(actor.UserID, actor.Role, message, uc.now().UTC()); err != nil {
			return err
		}
		out = t
		return uc.tickets.Save(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *supportUC) UpdateStatus(ctx context.Context, actor Actor, id string, status model.TicketStatus, assignTo string) (*model.SupportTicket, error) {
	if !actor.IsSupport() {
		return nil, domain.ErrForbidden
	}
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.SupportTicket
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		t, err := uc.tickets.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if status != "" {
			t.Status = status
		}
		if assignTo != "" {
			t.AssignedTo = &assignTo
		}
		t.UpdatedAt = uc.now().UTC()
		out = t
		return uc.tickets.Save(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *supportUC) Stats(ctx context.Context, actor Actor) (map[model.TicketCategory]int, error) {
	if !actor.IsSupport() {
		return nil, domain.ErrForbidden
	}
	return uc.tickets.CountByCategory(ctx, repository.NoTX)
}
