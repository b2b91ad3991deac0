package web

import "net/http"

func (s *Server) staffDashboard(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	d, err := s.svc.Staff.Dashboard(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, d)
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	ov, err := s.svc.Stats.Overview(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, ov)
}
