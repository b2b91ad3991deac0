package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/usecase"
)

type registerRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.svc.Users.Register(r.Context(), usecase.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Address:         model.Address{Street: req.Address, City: req.City, State: req.State},
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.sendToken(w, r, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	u, err := s.svc.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.sendToken(w, r, http.StatusOK, u)
}

func (s *Server) sendToken(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	token, err := s.auth.Mint(w, u)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, envelope{Success: true, Token: token, Data: u})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	ok(w, http.StatusOK, map[string]any{})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	u, err := s.svc.Users.Me(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, u)
}

type profileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	State     *string `json:"state"`
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	in := usecase.ProfileInput{FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone}
	if req.Address != nil || req.City != nil || req.State != nil {
		addr := model.Address{}
		if req.Address != nil {
			addr.Street = *req.Address
		}
		if req.City != nil {
			addr.City = *req.City
		}
		if req.State != nil {
			addr.State = *req.State
		}
		in.Address = &addr
	}
	actor, _ := actorFrom(r.Context())
	u, err := s.svc.Users.UpdateProfile(r.Context(), actor, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	offset, limit := pageParams(r)
	users, err := s.svc.Users.List(r.Context(), actor, offset, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	okList(w, users, len(users))
}

func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	counts, err := s.svc.Users.Stats(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, counts)
}

func (s *Server) setUserActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decode(r, &req); err != nil || req.IsActive == nil {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	actor, _ := actorFrom(r.Context())
	u, err := s.svc.Users.SetActive(r.Context(), actor, chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, u)
}

func (s *Server) setUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	u, err := s.svc.Users.SetRole(r.Context(), actor, chi.URLParam(r, "id"), model.Role(req.Role))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, u)
}
