package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Service ScheduleProvider
	PgPool  *pgxpool.Pool
	Redis   *redis.Client // may be nil
	Env     string
	Version string
}

// NewRouter builds the read-only ops surface: health checks plus
// schedule and vaccine lookups.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/schedule/{date}", getScheduleHandler(cfg.Service))
	r.Get("/vaccines", listVaccinesHandler(cfg.Service))

	return r
}
