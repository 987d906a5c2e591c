package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	authhttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/category"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/driver"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/export"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/importcsv"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/payment"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/vehicle"
)

type Handlers struct {
	Auth       *authhttp.Handler
	Vehicles   *vehicle.Handler
	Expenses   *expense.Handler
	Payments   *payment.Handler
	Drivers    *driver.Handler
	Categories *category.Handler
	Import     *importcsv.Handler
	Export     *export.Handler
}

type Options struct {
	Timeout        time.Duration
	AllowedOrigins []string
}

func New(h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", h.Auth.Routes)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)

			r.Route("/session", h.Auth.PrivateRoutes)

			r.Route("/vehicles", h.Vehicles.Routes)
			r.Route("/expenses", h.Expenses.Routes)
			r.Route("/drivers", h.Drivers.Routes)
			r.Route("/categories", h.Categories.Routes)

			r.Group(func(r chi.Router) {
				r.Use(authhttp.RequireRole(auth.RoleOperator))

				r.Route("/payments", h.Payments.Routes)
				r.Route("/import", h.Import.Routes)

				r.Route("/export", func(r chi.Router) {
					r.Use(middleware.AllowContentType("application/json"))
					h.Export.Routes(r)
				})
			})
		})
	})

	return router
}
