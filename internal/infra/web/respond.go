package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/infra/logging"
)

type envelope struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func okList(w http.ResponseWriter, data any, n int) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Count: &n, Data: data})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrAccountInactive):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrBillingInProgress):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusLocked, err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, err.Error()
	}
	return http.StatusInternalServerError, "Server Error"
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return domain.ErrInvalidArgument
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}

func pageParams(r *http.Request) (offset, limit int) {
	q := r.URL.Query()
	offset, _ = strconv.Atoi(q.Get("offset"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	if page, _ := strconv.Atoi(q.Get("page")); page > 1 && limit > 0 && offset == 0 {
		offset = (page - 1) * limit
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
