//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/usecase"
)

func TestSupportUseCase_Flow(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	uc := usecase.NewSupportUseCase(&memTicketRepo{s}, &memTxManager{s}, newTestLogger())
	customer := usecase.Actor{UserID: "u1", Role: model.RoleCustomer}
	other := usecase.Actor{UserID: "u2", Role: model.RoleCustomer}
	admin := usecase.Actor{UserID: "a1", Role: model.RoleAdmin}
	staff := usecase.Actor{UserID: "st1", Role: model.RoleStaff}

	tk, err := uc.Create(ctx, customer, "Cylinder leaking", "product", "valve hisses", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := uc.Create(ctx, customer, "x", "weather", "y", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unknown category, got %v", err)
	}

	if _, err := uc.Get(ctx, other, tk.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := uc.AddResponse(ctx, other, tk.ID, "me too"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	got, err := uc.AddResponse(ctx, admin, tk.ID, "technician dispatched")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.TicketStatusInProgress {
		t.Errorf("admin response should move ticket to in-progress, got %s", got.Status)
	}

	if _, err := uc.UpdateStatus(ctx, customer, tk.ID, model.TicketStatusClosed, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("customers cannot change status, got %v", err)
	}
	got, err = uc.UpdateStatus(ctx, staff, tk.ID, model.TicketStatusResolved, "st1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.TicketStatusResolved || got.AssignedTo == nil {
		t.Errorf("unexpected ticket %+v", got)
	}

	list, err := uc.List(ctx, staff, repository.TicketFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("staff should see all tickets, got %d", len(list))
	}
	stats, err := uc.Stats(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	if stats[model.TicketCategoryProduct] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
}
