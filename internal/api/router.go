package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/queue"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

type RouterConfig struct {
	Schedule      *schedule.Service
	Queue         *queue.Service
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Env           string
	Version       string
	Logger        zerolog.Logger
	AvgConsultMin int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment request endpoints
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Schedule))
		r.Get("/", listAppointmentsHandler(cfg.Schedule))
		r.Get("/conflicts", checkConflictsHandler(cfg.Schedule))
		r.Get("/suggestions", suggestSlotsHandler(cfg.Schedule))
		r.Get("/counts", appointmentCountsHandler(cfg.Schedule))
		r.Post("/bulk-approve", bulkApproveHandler(cfg.Schedule))
		r.Post("/bulk-decline", bulkDeclineHandler(cfg.Schedule))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getAppointmentHandler(cfg.Schedule))
			r.Post("/approve", approveAppointmentHandler(cfg.Schedule))
			r.Post("/decline", declineAppointmentHandler(cfg.Schedule))
			r.Post("/cancel", cancelAppointmentHandler(cfg.Schedule))
			r.Post("/reschedule", rescheduleAppointmentHandler(cfg.Schedule))
			r.Post("/status", updateAppointmentStatusHandler(cfg.Schedule))
		})
	})

	// Live queue endpoints
	r.Route("/queue", func(r chi.Router) {
		r.Post("/", addQueueItemHandler(cfg.Queue, cfg.Schedule))
		r.Get("/", listQueueHandler(cfg.Queue))
		r.Get("/stats", queueStatsHandler(cfg.Queue))
		r.Get("/notifications", listNotificationsHandler(cfg.Queue))
		r.Delete("/notifications", clearNotificationsHandler(cfg.Queue))
		r.Post("/refresh", refreshQueueHandler(cfg.Queue))
		r.Post("/estimate-call-times", estimateCallTimesHandler(cfg.Queue, cfg.AvgConsultMin))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getQueueItemHandler(cfg.Queue))
			r.Post("/status", updateQueueStatusHandler(cfg.Queue))
			r.Post("/move", moveQueueItemHandler(cfg.Queue))
			r.Post("/call-time", setCallTimeHandler(cfg.Queue))
		})
	})

	return r
}
