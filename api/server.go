/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RealIP:        Client address behind proxies
  3. RequestLogger: Access log through the logrus logger
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. CORS:          Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/employees/*      Employees, their attendance and salaries
  /api/uploads/*        Attendance uploads
  /api/salaries         Salaries of a month
  /api/salary/*         Stateless calculation
  /api/working-days     Working-day breakdown
  /api/holidays/*       Holiday calendar and admin holidays
  /api/admin/*          Location, month settings, cache
  /api/attendance/*     Parser preview
  /api/health           Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// RouterOptions configures the router.
type RouterOptions struct {
	CORSOrigins []string
	Logger      logrus.FieldLogger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = h.Logger
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/attendance/{month}", h.GetAttendance)
			r.Get("/{id}/salaries/{month}", h.GetSalary)
			r.Post("/{id}/salaries/{month}/recalculate", h.RecalculateSalary)
			r.Put("/{id}/salaries/{month}/adjusted", h.AdjustSalary)
		})

		// Upload routes
		r.Route("/uploads", func(r chi.Router) {
			r.Get("/", h.ListUploads)
			r.Post("/", h.Upload)
			r.Get("/{id}", h.GetUpload)
		})

		// Salary routes
		r.Get("/salaries", h.ListSalaries)
		r.Post("/salary/calculate", h.CalculateSalary)

		// Calendar routes
		r.Get("/working-days", h.GetWorkingDays)
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Get("/custom", h.ListCustomHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/holidays/cache/clear", h.ClearHolidayCache)
			r.Get("/location", h.GetLocation)
			r.Put("/location", h.SetLocation)
			r.Get("/months/{month}/holidays", h.GetMonthHolidays)
			r.Put("/months/{month}/holidays", h.SetMonthHolidays)
		})

		// Attendance routes
		r.Post("/attendance/parse", h.ParseAttendance)
	})

	return r
}
