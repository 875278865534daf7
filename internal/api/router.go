// Package api serves the health, readiness, metrics and recommend routes
// next to the Zeebe workers.
package api

import (
	"context"
	"net/http"
	"time"

	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/pipeline"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckFunc is one readiness dependency.
type CheckFunc func(ctx context.Context) error

// PredictionRecorder receives the outcome of every HTTP prediction.
type PredictionRecorder interface {
	RecordPrediction(ctx context.Context, clusterName string, success bool)
}

type Options struct {
	// Pipeline enables the recommend routes when non-nil.
	Pipeline        *pipeline.Pipeline
	ValidateInput   bool
	MaxRequestBytes int64
	RateLimit       int // requests per minute per client IP, 0 disables
	Checks          map[string]CheckFunc
	CheckTimeout    time.Duration
	Recorder        PredictionRecorder
	Logger          logger.Logger
}

type Server struct {
	opts Options
	log  logger.Logger
}

func NewServer(opts Options) *Server {
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = 1 << 20
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 2 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Server{opts: opts, log: log.WithFields(map[string]interface{}{"component": "http"})}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.Health)
	r.Get("/ready", s.Ready)
	r.Handle("/metrics", promhttp.Handler())

	if s.opts.Pipeline != nil {
		r.Route("/api/recommend", func(r chi.Router) {
			if s.opts.RateLimit > 0 {
				r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
			}
			r.Post("/", s.Recommend)
			r.Post("/rules", s.RecommendRules)
		})
	}

	return r
}
