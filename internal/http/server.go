package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"moneymanager/internal/amqp"
	"moneymanager/internal/core"
	"moneymanager/internal/log"
	"moneymanager/internal/search"
	"moneymanager/internal/services"
)

type (
	// Reporter builds the read-only report views.
	Reporter interface {
		Dashboard(ctx context.Context, year, month int) services.DashboardReport
		Summary(ctx context.Context, kind core.Kind, year, month, topN int) services.KindReport
		Series(ctx context.Context, kind core.Kind, label core.LabelFunc) services.SeriesReport
		Top(ctx context.Context, kind core.Kind, n int) services.TopReport
	}

	// Searcher runs filter submissions per client.
	Searcher interface {
		Search(ctx context.Context, clientID string, c core.FilterCriteria, supersede bool) (search.Outcome, error)
		State(clientID string) (search.Outcome, bool)
		Reset(clientID string) (search.Outcome, bool)
	}

	// Publisher queues refresh requests for the worker.
	Publisher interface {
		PublishRefresh(ctx context.Context, msg *amqp.RefreshMessage) error
	}

	// ReadinessCheck reports whether a dependency is usable.
	ReadinessCheck func(ctx context.Context) error
)

// Options wires the server's collaborators. Publisher and ReadinessChecks
// are optional.
type Options struct {
	Reports         Reporter
	Search          Searcher
	Publisher       Publisher
	ReadinessChecks []ReadinessCheck
	Logger          *log.Logger
	// Currency is the ISO 4217 code used for display strings.
	Currency string
	TopN     int
	// RateLimit is the number of API requests allowed per client IP per
	// minute. Zero disables limiting.
	RateLimit int
}

type Server struct {
	http.Server
	opts    Options
	pres    presenter
	limiter *rateLimiter
	now     func() time.Time
}

func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.TopN <= 0 {
		opts.TopN = services.DefaultTopN
	}
	s := &Server{
		opts: opts,
		pres: presenter{currency: opts.Currency},
		now:  time.Now,
	}
	if opts.RateLimit > 0 {
		s.limiter = newRateLimiter(opts.RateLimit, time.Minute)
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.opts.Logger))
	r.Use(securityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/search", s.handleSearchState)
		r.Delete("/search", s.handleSearchReset)
		r.Post("/refresh", s.handleRefresh)
		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/series", s.handleSeries)
			r.Get("/top", s.handleTop)
			r.Post("/search", s.handleSearch)
		})
	})
	return r
}

// Shutdown stops background work and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	return s.Server.Shutdown(ctx)
}
