package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/usecase"
)

type checkoutRequest struct {
	Products []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	} `json:"products"`
	DeliveryOption  string `json:"deliveryOption"`
	PaymentMethod   string `json:"paymentMethod"`
	DeliveryAddress *struct {
		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
	} `json:"deliveryAddress"`
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	in := usecase.CheckoutInput{DeliveryOption: req.DeliveryOption, PaymentMethod: req.PaymentMethod}
	for _, p := range req.Products {
		in.Items = append(in.Items, usecase.CheckoutItem{ProductID: p.Product, Quantity: p.Quantity})
	}
	if a := req.DeliveryAddress; a != nil {
		in.Address = &model.Address{Street: a.Address, City: a.City, State: a.State}
	}
	actor, _ := actorFrom(r.Context())
	o, err := s.svc.Orders.Checkout(r.Context(), actor, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, o)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, limit := pageParams(r)
	f := repository.OrderFilter{
		UserID:         q.Get("user"),
		SubscriptionID: q.Get("subscription"),
		Offset:         offset,
		Limit:          limit,
	}
	if st := q.Get("status"); st != "" {
		for _, v := range strings.Split(st, ",") {
			f.Statuses = append(f.Statuses, model.OrderStatus(strings.TrimSpace(v)))
		}
	}
	actor, _ := actorFrom(r.Context())
	orders, err := s.svc.Orders.List(r.Context(), actor, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	okList(w, orders, len(orders))
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	o, err := s.svc.Orders.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, o)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status   string `json:"status"`
		Location string `json:"location"`
	}
	if err := decode(r, &req); err != nil || req.Status == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	actor, _ := actorFrom(r.Context())
	o, err := s.svc.Orders.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), model.OrderStatus(req.Status), req.Location)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, o)
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	o, err := s.svc.Orders.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, o)
}

func (s *Server) assignOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffID string `json:"staffId"`
	}
	if err := decode(r, &req); err != nil || req.StaffID == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	actor, _ := actorFrom(r.Context())
	o, err := s.svc.Orders.Assign(r.Context(), actor, chi.URLParam(r, "id"), req.StaffID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, o)
}

func (s *Server) orderStats(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	stats, err := s.svc.Orders.Stats(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, stats)
}
