package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fines/internal/log"
	"fines/internal/middleware/security"
	"fines/internal/middleware/trace"
)

// LivenessBody is returned by / and /healthz.
const LivenessBody = "Bot is running!"

const readyTimeout = 2 * time.Second

// Pinger is satisfied by ledger stores and the session backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one named readiness dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server exposes liveness, readiness and metrics for the bot and the
// worker processes.
type Server struct {
	http.Server
	shutdownOnce sync.Once
}

// NewServer wires the ops routes. gatherer may be nil to serve the default
// Prometheus registry.
func NewServer(addr string, logger *log.Logger, gatherer prometheus.Gatherer, checks ...Check) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(trace.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/", handleLiveness)
	r.Head("/", handleLiveness)
	r.Get("/healthz", handleLiveness)
	r.Get("/readyz", handleReady(checks))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// PingCheck adapts a Pinger.
func PingCheck(name string, p Pinger) Check {
	return Check{Name: name, Ping: p.Ping}
}

// Shutdown is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(LivenessBody))
	}
}

func handleReady(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "check", c.Name, log.FieldError, err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(c.Name + " unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
