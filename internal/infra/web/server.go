package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/usecase"
)

// Services groups the use cases exposed over HTTP.
type Services struct {
	Users         usecase.UserUseCase
	Products      usecase.ProductUseCase
	Orders        usecase.OrderUseCase
	Subscriptions usecase.SubscriptionUseCase
	Billing       usecase.BillingUseCase
	Payments      usecase.PaymentUseCase
	Support       usecase.SupportUseCase
	Staff         usecase.StaffUseCase
	Stats         usecase.StatsUseCase
}

type Options struct {
	StaticDir      string
	RequestTimeout time.Duration
	CORSOrigins    []string
	MetricsPath    string // empty disables /metrics
	Dev            bool
}

type Server struct {
	svc  Services
	auth *AuthManager
	opts Options
	log  *zerolog.Logger
}

func NewServer(svc Services, auth *AuthManager, opts Options, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http").Logger()
	return &Server{svc: svc, auth: auth, opts: opts, log: &l}
}

// Routes builds the full router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(Timeout(s.opts.RequestTimeout))

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: len(s.opts.CORSOrigins) > 0,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, promhttp.Handler())
	}

	admin := s.Authorize(model.RoleAdmin)
	backOffice := s.Authorize(model.RoleAdmin, model.RoleStaff)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Get("/logout", s.logout)
			r.Group(func(r chi.Router) {
				r.Use(s.Protect)
				r.Get("/me", s.me)
				r.Put("/me", s.updateMe)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(s.Protect, admin)
			r.Get("/", s.listUsers)
			r.Get("/stats", s.userStats)
			r.Put("/{id}/status", s.setUserActive)
			r.Put("/{id}/role", s.setUserRole)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Get("/{id}", s.getProduct)
			r.Group(func(r chi.Router) {
				r.Use(s.Protect, admin)
				r.Post("/", s.createProduct)
				r.Put("/{id}", s.updateProduct)
				r.Delete("/{id}", s.deleteProduct)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(s.Protect)
			r.Get("/", s.listOrders)
			r.Post("/", s.checkout)
			r.With(admin).Get("/stats", s.orderStats)
			r.Get("/{id}", s.getOrder)
			r.Put("/{id}/cancel", s.cancelOrder)
			r.With(backOffice).Put("/{id}/status", s.updateOrderStatus)
			r.With(admin).Put("/{id}/assign", s.assignOrder)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(s.Protect)
			r.Get("/", s.listSubscriptions)
			r.Post("/", s.createSubscription)
			r.With(admin).Get("/process", s.processSubscriptions)
			r.With(admin).Post("/process", s.processSubscriptions)
			r.Get("/{id}", s.getSubscription)
			r.Put("/{id}", s.updateSubscription)
			r.Put("/{id}/cancel", s.cancelSubscription)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/callback", s.paymentCallback)
			r.Group(func(r chi.Router) {
				r.Use(s.Protect)
				r.Get("/", s.listPayments)
				r.Post("/", s.createPayment)
				r.With(admin).Get("/stats", s.paymentStats)
				r.Get("/{id}", s.getPayment)
			})
		})

		r.Route("/support", func(r chi.Router) {
			r.Use(s.Protect)
			r.Get("/", s.listTickets)
			r.Post("/", s.createTicket)
			r.With(admin).Get("/stats", s.ticketStats)
			r.Get("/{id}", s.getTicket)
			r.Put("/{id}/response", s.addTicketResponse)
			r.With(backOffice).Put("/{id}/status", s.updateTicketStatus)
		})

		r.With(s.Protect, backOffice).Get("/staff/dashboard", s.staffDashboard)
		r.With(s.Protect, admin).Get("/admin/dashboard", s.adminDashboard)
	})

	if s.opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.opts.StaticDir)))
	}
	return r
}
