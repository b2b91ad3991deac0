package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/usecase"
)

type paymentRequest struct {
	Amount      int64  `json:"amount"`
	Type        string `json:"type"`
	Method      string `json:"paymentMethod"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	Order       string `json:"order"`
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	p, err := s.svc.Payments.Create(r.Context(), actor, usecase.PaymentInput{
		Amount:      req.Amount,
		Type:        req.Type,
		Method:      req.Method,
		Description: req.Description,
		Reference:   req.Reference,
		OrderID:     req.Order,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, p)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	actor, _ := actorFrom(r.Context())
	list, err := s.svc.Payments.List(r.Context(), actor, offset, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	okList(w, list, len(list))
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	p, err := s.svc.Payments.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, p)
}

func (s *Server) paymentStats(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	stats, err := s.svc.Payments.Stats(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, stats)
}

// paymentCallback is called by the payment provider. The reference may come
// in the JSON body or as a query parameter.
func (s *Server) paymentCallback(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("reference")
	if ref == "" {
		var req struct {
			Reference string `json:"reference"`
		}
		if err := decode(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
		ref = req.Reference
	}
	if ref == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	if err := s.svc.Payments.Callback(r.Context(), ref); err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Payment callback processed")
}
