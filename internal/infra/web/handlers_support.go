package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

func (s *Server) createTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject     string   `json:"subject"`
		Category    string   `json:"category"`
		Description string   `json:"description"`
		Attachments []string `json:"attachments"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	t, err := s.svc.Support.Create(r.Context(), actor, req.Subject, req.Category, req.Description, req.Attachments)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, t)
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, limit := pageParams(r)
	f := repository.TicketFilter{UserID: q.Get("user"), AssignedTo: q.Get("assignedTo"), Offset: offset, Limit: limit}
	if st := q.Get("status"); st != "" {
		for _, v := range strings.Split(st, ",") {
			f.Statuses = append(f.Statuses, model.TicketStatus(strings.TrimSpace(v)))
		}
	}
	actor, _ := actorFrom(r.Context())
	list, err := s.svc.Support.List(r.Context(), actor, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	okList(w, list, len(list))
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	t, err := s.svc.Support.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, t)
}

func (s *Server) addTicketResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	actor, _ := actorFrom(r.Context())
	t, err := s.svc.Support.AddResponse(r.Context(), actor, chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, t)
}

func (s *Server) updateTicketStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status     string `json:"status"`
		AssignedTo string `json:"assignedTo"`
	}
	if err := decode(r, &req); err != nil || req.Status == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	actor, _ := actorFrom(r.Context())
	t, err := s.svc.Support.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), model.TicketStatus(req.Status), req.AssignedTo)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, t)
}

func (s *Server) ticketStats(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	stats, err := s.svc.Support.Stats(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, stats)
}
