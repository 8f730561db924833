/*
server.go - HTTP router and middleware stack

PURPOSE:
  Wires the chi router: request logging, panic recovery, CORS, and the
  /api route tree. The router is pure wiring; all behavior lives in
  handlers.go.

MIDDLEWARE ORDER (matters):
  1. CleanPath     - normalize double slashes before routing
  2. RequestLogger - structured ECS access logs, recovers panics
  3. CORS          - browser clients on configured origins
  4. Heartbeat     - /ping for load balancers, skips logging

SEE ALSO:
  - handlers.go: The route implementations
  - config package: CORS origins and log level
*/
package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// =============================================================================
// LOGGER
// =============================================================================

// NewLogger builds the process-wide structured logger: JSON lines in the
// Elastic Common Schema field layout, so access logs and application logs
// land in the same index shape.
func NewLogger(env string, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: httplog.SchemaECS.Concise(env == "development").ReplaceAttr,
	})).With(
		slog.String("service", "payroll-engine"),
		slog.String("env", env),
	)
}

// =============================================================================
// ROUTER
// =============================================================================

// RouterConfig carries the transport-level knobs the router needs.
type RouterConfig struct {
	Env         string
	CORSOrigins []string
}

// NewRouter assembles the middleware stack and the /api route tree.
func NewRouter(h *Handler, logger *slog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:         slog.LevelInfo,
		Schema:        httplog.SchemaECS.Concise(cfg.Env == "development"),
		RecoverPanics: true,
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/ping"
		},
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/attendance", h.ListEmployeeAttendance)
			r.Get("/{id}/loans", h.ListEmployeeLoans)
		})

		r.Route("/positions", func(r chi.Router) {
			r.Get("/", h.ListPositions)
			r.Post("/", h.CreatePosition)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", h.ListAttendanceByDate)
			r.Post("/clock", h.Clock)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/", h.ListLoans)
			r.Post("/", h.CreateLoan)
			r.Post("/{id}/approve", h.ApproveLoan)
			r.Post("/{id}/reject", h.RejectLoan)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})

		r.Route("/payroll/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Post("/", h.ComputeRun)
			r.Get("/{id}", h.GetRun)
			r.Post("/{id}/approve", h.ApproveRun)
			r.Get("/{id}/export.csv", h.ExportRunCSV)
			r.Get("/{id}/export.xlsx", h.ExportRunXLSX)
		})
	})

	return r
}
