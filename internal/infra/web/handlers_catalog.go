package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"egas-delivery/internal/usecase"
)

type productRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *int64   `json:"price"`
	Weight      *float64 `json:"weight"`
	Image       *string  `json:"image"`
	Stock       *int     `json:"stock"`
	IsActive    *bool    `json:"isActive"`
}

func (p productRequest) input() usecase.ProductInput {
	return usecase.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Weight:      p.Weight,
		Image:       p.Image,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.svc.Products.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	okList(w, products, len(products))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, p)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	p, err := s.svc.Products.Create(r.Context(), actor, req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	p, err := s.svc.Products.Update(r.Context(), actor, chi.URLParam(r, "id"), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	if err := s.svc.Products.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{})
}
