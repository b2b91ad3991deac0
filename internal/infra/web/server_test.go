//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
	"egas-delivery/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

const testSecret = "test-jwt-secret-please-change"

func newTestServer(svc Services) (*Server, *AuthManager) {
	auth := NewAuthManager(testSecret, false, time.Hour)
	return NewServer(svc, auth, Options{}, newTestLogger()), auth
}

func tokenFor(t *testing.T, auth *AuthManager, id string, role model.Role) string {
	t.Helper()
	tok, err := auth.Mint(httptest.NewRecorder(), &model.User{ID: id, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok
}

func do(h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json body %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(Services{})
	rr := do(s.Routes(), http.MethodGet, "/health", "", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	orders := &mockOrderUC{ListFunc: func(ctx context.Context, actor usecase.Actor, f repository.OrderFilter) ([]*model.Order, error) {
		return []*model.Order{{ID: "o1", UserID: actor.UserID}}, nil
	}}
	s, auth := newTestServer(Services{Orders: orders})
	h := s.Routes()

	t.Run("no credentials -> 401", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/v1/orders", "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if env := decodeEnvelope(t, rr); env["success"] != false {
			t.Errorf("expected success=false, got %v", env)
		}
	})

	t.Run("token signed with another secret -> 401", func(t *testing.T) {
		other := NewAuthManager("another-secret", false, time.Hour)
		rr := do(h, http.MethodGet, "/api/v1/orders", tokenFor(t, other, "u1", model.RoleCustomer), "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("valid bearer token -> 200 with count", func(t *testing.T) {
		rr := do(h, http.MethodGet, "/api/v1/orders", tokenFor(t, auth, "u1", model.RoleCustomer), "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		env := decodeEnvelope(t, rr)
		if env["count"] != float64(1) {
			t.Errorf("expected count 1, got %v", env["count"])
		}
	})

	t.Run("session cookie is accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: tokenFor(t, auth, "u1", model.RoleCustomer)})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestProcessSubscriptions(t *testing.T) {
	newFixture := func(fn func(ctx context.Context, asOf time.Time) (*model.BillingResult, error)) (http.Handler, *AuthManager, *mockBillingUC) {
		billing := &mockBillingUC{RunFunc: fn}
		s, auth := newTestServer(Services{Billing: billing})
		return s.Routes(), auth, billing
	}

	t.Run("customers are forbidden", func(t *testing.T) {
		h, auth, billing := newFixture(nil)
		rr := do(h, http.MethodPost, "/api/v1/subscriptions/process", tokenFor(t, auth, "u1", model.RoleCustomer), "")
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
		if billing.calls != 0 {
			t.Error("billing must not run for a forbidden caller")
		}
	})

	t.Run("nothing due", func(t *testing.T) {
		h, auth, _ := newFixture(func(ctx context.Context, asOf time.Time) (*model.BillingResult, error) {
			return model.NewBillingResult("r1", time.Now()), nil
		})
		rr := do(h, http.MethodGet, "/api/v1/subscriptions/process", tokenFor(t, auth, "a1", model.RoleAdmin), "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		env := decodeEnvelope(t, rr)
		if env["data"] != "No subscriptions to process" {
			t.Errorf("unexpected body %v", env)
		}
		if _, ok := env["count"]; ok {
			t.Error("count must be omitted when nothing was processed")
		}
	})

	t.Run("reports successes and failures", func(t *testing.T) {
		asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		h, auth, billing := newFixture(func(ctx context.Context, at time.Time) (*model.BillingResult, error) {
			res := model.NewBillingResult("r2", at)
			res.ProcessedCount = 2
			res.Successes = append(res.Successes, model.BillingSuccess{SubscriptionID: "s1", OrderID: "o1"})
			res.Failures = append(res.Failures, model.BillingFailure{SubscriptionID: "s2", Reason: model.ReasonProductNotFound})
			return res, nil
		})
		target := fmt.Sprintf("/api/v1/subscriptions/process?asOf=%s", asOf.Format(time.RFC3339))
		rr := do(h, http.MethodPost, target, tokenFor(t, auth, "a1", model.RoleAdmin), "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if !billing.lastAt.Equal(asOf) {
			t.Errorf("asOf not forwarded, got %v", billing.lastAt)
		}
		env := decodeEnvelope(t, rr)
		if env["count"] != float64(1) {
			t.Errorf("count should be the number of orders created, got %v", env["count"])
		}
		data := env["data"].(map[string]any)
		if data["processedCount"] != float64(2) || len(data["failures"].([]any)) != 1 {
			t.Errorf("unexpected result %v", data)
		}
	})

	t.Run("cycle outlives the request deadline", func(t *testing.T) {
		billing := &mockBillingUC{RunFunc: func(ctx context.Context, at time.Time) (*model.BillingResult, error) {
			return model.NewBillingResult("r3", at), nil
		}}
		auth := NewAuthManager(testSecret, false, time.Hour)
		h := NewServer(Services{Billing: billing}, auth, Options{RequestTimeout: time.Second}, newTestLogger()).Routes()

		rr := do(h, http.MethodPost, "/api/v1/subscriptions/process", tokenFor(t, auth, "a1", model.RoleAdmin), "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if billing.lastCtx == nil {
			t.Fatal("billing was not called")
		}
		if _, ok := billing.lastCtx.Deadline(); ok {
			t.Error("billing context must not carry the request deadline")
		}
		if billing.lastCtx.Done() != nil {
			t.Error("billing context must not be cancelable by the client")
		}
		if a, ok := actorFrom(billing.lastCtx); !ok || a.UserID != "a1" {
			t.Errorf("request values should survive, got %+v", a)
		}
	})

	t.Run("invalid asOf -> 400", func(t *testing.T) {
		h, auth, billing := newFixture(nil)
		rr := do(h, http.MethodPost, "/api/v1/subscriptions/process?asOf=yesterday", tokenFor(t, auth, "a1", model.RoleAdmin), "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if billing.calls != 0 {
			t.Error("billing must not run on a bad request")
		}
	})

	t.Run("concurrent run -> 409", func(t *testing.T) {
		h, auth, _ := newFixture(func(ctx context.Context, asOf time.Time) (*model.BillingResult, error) {
			return nil, domain.ErrBillingInProgress
		})
		rr := do(h, http.MethodPost, "/api/v1/subscriptions/process", tokenFor(t, auth, "a1", model.RoleAdmin), "")
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rr.Code)
		}
	})

	t.Run("storage failure -> 500 without details", func(t *testing.T) {
		h, auth, _ := newFixture(func(ctx context.Context, asOf time.Time) (*model.BillingResult, error) {
			return nil, fmt.Errorf("%w: connection reset", domain.ErrOperationFailed)
		})
		rr := do(h, http.MethodPost, "/api/v1/subscriptions/process", tokenFor(t, auth, "a1", model.RoleAdmin), "")
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
		if env := decodeEnvelope(t, rr); env["error"] != "Server Error" {
			t.Errorf("internal errors must not leak, got %v", env["error"])
		}
	})
}

func TestRegisterAndLogin(t *testing.T) {
	users := &mockUserUC{
		RegisterFunc: func(ctx context.Context, in usecase.RegisterInput) (*model.User, error) {
			if in.Address.City != "Lagos" {
				return nil, errors.New("address not mapped")
			}
			return &model.User{ID: "u1", Email: in.Email, Role: model.RoleCustomer, PasswordHash: "secret-hash"}, nil
		},
		LoginFunc: func(ctx context.Context, email, password string) (*model.User, error) {
			return nil, domain.ErrAccountLocked
		},
	}
	s, auth := newTestServer(Services{Users: users})
	h := s.Routes()

	body := `{"firstName":"Ada","lastName":"Obi","email":"ada@x.io","password":"s3cret!","confirmPassword":"s3cret!","city":"Lagos"}`
	rr := do(h, http.MethodPost, "/api/v1/auth/register", "", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "secret-hash") {
		t.Error("password hash must never be serialised")
	}
	env := decodeEnvelope(t, rr)
	tok, _ := env["token"].(string)
	claims, err := auth.parse(tok)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != "u1" || claims.Role != model.RoleCustomer {
		t.Errorf("unexpected claims %+v", claims)
	}
	if len(rr.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	rr = do(h, http.MethodPost, "/api/v1/auth/login", "", `{"email":"ada@x.io","password":"x"}`)
	if rr.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rr.Code)
	}

	rr = do(h, http.MethodPost, "/api/v1/auth/login", "", `{"email":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCheckoutMapsRequest(t *testing.T) {
	var got usecase.CheckoutInput
	orders := &mockOrderUC{CheckoutFunc: func(ctx context.Context, actor usecase.Actor, in usecase.CheckoutInput) (*model.Order, error) {
		got = in
		if len(in.Items) > 0 && in.Items[0].Quantity > 5 {
			return nil, domain.ErrInsufficientStock
		}
		return &model.Order{ID: "o1", UserID: actor.UserID}, nil
	}}
	s, auth := newTestServer(Services{Orders: orders})
	h := s.Routes()
	tok := tokenFor(t, auth, "u1", model.RoleCustomer)

	body := `{"products":[{"product":"p1","quantity":2}],"deliveryOption":"express","deliveryAddress":{"address":"1 Main","city":"Abuja"}}`
	rr := do(h, http.MethodPost, "/api/v1/orders", tok, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(got.Items) != 1 || got.Items[0].ProductID != "p1" || got.Items[0].Quantity != 2 {
		t.Errorf("items not mapped: %+v", got.Items)
	}
	if got.Address == nil || got.Address.Street != "1 Main" || got.DeliveryOption != "express" {
		t.Errorf("unexpected input %+v", got)
	}

	rr = do(h, http.MethodPost, "/api/v1/orders", tok, `{"products":[{"product":"p1","quantity":9}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for insufficient stock, got %d", rr.Code)
	}

	rr = do(h, http.MethodPost, "/api/v1/orders", tok, `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}
}

func TestPublicRoutes(t *testing.T) {
	products := &mockProductUC{
		ListFunc: func(ctx context.Context) ([]*model.Product, error) {
			return []*model.Product{{ID: "p1"}, {ID: "p2"}}, nil
		},
		GetFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return nil, domain.ErrProductNotFound
		},
	}
	var ref string
	payments := &mockPaymentUC{CallbackFunc: func(ctx context.Context, reference string) error {
		ref = reference
		return nil
	}}
	s, _ := newTestServer(Services{Products: products, Payments: payments})
	h := s.Routes()

	rr := do(h, http.MethodGet, "/api/v1/products", "", "")
	if env := decodeEnvelope(t, rr); rr.Code != http.StatusOK || env["count"] != float64(2) {
		t.Fatalf("unexpected product list %d %v", rr.Code, env)
	}
	if rr := do(h, http.MethodGet, "/api/v1/products/missing", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = do(h, http.MethodPost, "/api/v1/payments/callback?reference=REF-1", "", "")
	if rr.Code != http.StatusOK || ref != "REF-1" {
		t.Fatalf("callback not processed: %d ref=%q", rr.Code, ref)
	}
	if env := decodeEnvelope(t, rr); env["data"] != "Payment callback processed" {
		t.Errorf("unexpected body %v", env)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidArgument, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", domain.ErrInvalidTransition), http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrAccountInactive, http.StatusForbidden},
		{domain.ErrCustomerNotFound, http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got, _ := statusFor(c.err); got != c.want {
			t.Errorf("statusFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
