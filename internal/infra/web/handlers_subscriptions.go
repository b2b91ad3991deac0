package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/usecase"
)

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Product   string `json:"product"`
		Frequency string `json:"frequency"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	sub, err := s.svc.Subscriptions.Create(r.Context(), actor, req.Product, req.Frequency)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, sub)
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	f := repository.SubscriptionFilter{
		UserID: r.URL.Query().Get("user"),
		Status: model.SubscriptionStatus(r.URL.Query().Get("status")),
		Offset: offset,
		Limit:  limit,
	}
	actor, _ := actorFrom(r.Context())
	subs, err := s.svc.Subscriptions.List(r.Context(), actor, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	okList(w, subs, len(subs))
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	sub, err := s.svc.Subscriptions.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, sub)
}

func (s *Server) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Frequency   *string `json:"frequency"`
		Status      *string `json:"status"`
		IsAutoRenew *bool   `json:"isAutoRenew"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	sub, err := s.svc.Subscriptions.Update(r.Context(), actor, chi.URLParam(r, "id"), usecase.SubscriptionUpdate{
		Frequency: req.Frequency,
		Status:    req.Status,
		AutoRenew: req.IsAutoRenew,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, sub)
}

func (s *Server) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	sub, err := s.svc.Subscriptions.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, sub)
}

// processSubscriptions triggers one billing cycle. An optional asOf query
// parameter (RFC 3339) bills as of that instant. The cycle keeps running
// when the client disconnects or the request timeout fires.
func (s *Server) processSubscriptions(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if v := r.URL.Query().Get("asOf"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.fail(w, r, domain.ErrInvalidArgument)
			return
		}
		asOf = t
	}
	res, err := s.svc.Billing.RunBillingCycle(context.WithoutCancel(r.Context()), asOf)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.ProcessedCount == 0 {
		ok(w, http.StatusOK, "No subscriptions to process")
		return
	}
	okList(w, res, len(res.Successes))
}
