package devtools

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/hookrt/internal/errors"
	"github.com/vango-dev/hookrt/pkg/hooks"
	"golang.org/x/time/rate"
)

// SnapshotFunc returns the current instance tree.
type SnapshotFunc func(ctx context.Context) ([]hooks.InstanceInfo, error)

// Snapshotter returns a SnapshotFunc that takes the snapshot on the render
// thread through rt.Dispatch. Something must be draining the runtime's
// mailbox, such as driver.Run.
func Snapshotter(rt *hooks.Runtime) SnapshotFunc {
	return func(ctx context.Context) ([]hooks.InstanceInfo, error) {
		result := make(chan []hooks.InstanceInfo, 1)
		rt.Dispatch(func() {
			result <- rt.Snapshot()
		})
		select {
		case snap := <-result:
			return snap, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// ServerConfig configures the devtools server.
type ServerConfig struct {
	// Hub streams events. Required.
	Hub *Hub

	// Snapshot serves /instances. If nil the route returns 404.
	Snapshot SnapshotFunc

	// Gatherer serves /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// SnapshotTimeout bounds a /instances request. Default: 2s.
	SnapshotTimeout time.Duration

	// SnapshotLimiter throttles /instances, since every snapshot waits for
	// the render thread. Default: 20 per second, burst 10.
	SnapshotLimiter *rate.Limiter

	// Logger for request errors. Default: slog.Default().
	Logger *slog.Logger
}

// Server is the devtools HTTP server.
type Server struct {
	config ServerConfig
	router chi.Router
	logger *slog.Logger
}

// NewServer creates a devtools server.
func NewServer(config ServerConfig) *Server {
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	if config.SnapshotTimeout <= 0 {
		config.SnapshotTimeout = 2 * time.Second
	}
	if config.SnapshotLimiter == nil {
		config.SnapshotLimiter = rate.NewLimiter(rate.Limit(20), 10)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Hub == nil {
		config.Hub = NewHub(WithHubLogger(config.Logger))
	}

	s := &Server{config: config, logger: config.Logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/instances", s.handleInstances)
	r.Get("/events", config.Hub.HandleWebSocket)
	r.Get("/events/recent", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, config.Hub.Recent())
	})
	r.Get("/errors/{code}", s.handleErrorCode)
	r.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the server's event hub.
func (s *Server) Hub() *Hub {
	return s.config.Hub
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. ready, if not nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New("C020").WithDetail("listen " + addr).Wrap(err)
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("devtools listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return errors.New("C020").Wrap(err)
	case <-ctx.Done():
	}

	s.config.Hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("C020").WithDetail("shutdown").Wrap(err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.New("C020").Wrap(err)
	}
	return nil
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	if s.config.Snapshot == nil {
		http.NotFound(w, r)
		return
	}
	if !s.config.SnapshotLimiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many snapshot requests"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.config.SnapshotTimeout)
	defer cancel()

	snap, err := s.config.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("snapshot failed", slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleErrorCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	tmpl, ok := errors.GetTemplate(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown code " + code})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"code":       code,
		"category":   string(tmpl.Category),
		"message":    tmpl.Message,
		"detail":     tmpl.Detail,
		"suggestion": tmpl.Suggestion,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
