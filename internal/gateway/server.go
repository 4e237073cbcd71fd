package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SebastienMelki/linededup/internal/dedup"
	"github.com/SebastienMelki/linededup/internal/observability"
)

// HealthChecker is implemented by dependencies whose availability gates
// readiness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies are the collaborators the server wires into its handlers.
// Only Processor is required.
type Dependencies struct {
	Processor dedup.Processor
	Publisher SummaryPublisher
	Archiver  ContentArchiver

	// Metrics enables HTTP and rejection metrics when non-nil.
	Metrics *observability.Metrics

	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler

	// ReadinessChecks are consulted by /ready, keyed by name.
	ReadinessChecks map[string]HealthChecker
}

// downloadFormOverhead covers the field name and separators of a download form.
const downloadFormOverhead = 4 << 10

// downloadBodyLimit caps /download bodies. They carry url-encoded text that
// already passed ingestion: three bytes per escaped byte, six per newline once
// a browser sends it as CRLF. The cap never drops below the general body cap,
// and a disabled general cap disables it too.
func downloadBodyLimit(limit dedup.SizeLimit, floor int64) int64 {
	if floor <= 0 {
		return 0
	}
	return max(6*int64(limit)+downloadFormOverhead, floor)
}

// routes lists the mux patterns' paths, used to label HTTP metrics.
var routes = []string{"/", "/static/", "/upload", "/download", "/api/v1/dedup", "/health", "/ready", "/metrics"}

// Server is the HTTP server.
type Server struct {
	config     Config
	httpServer *http.Server
	handler    http.Handler
	checks     map[string]HealthChecker
	logger     *slog.Logger
}

// NewServer builds the mux and middleware chain.
func NewServer(cfg Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Processor == nil {
		return nil, errors.New("gateway: processor is required")
	}

	renderer, err := NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create template renderer: %w", err)
	}

	svc := NewDedupService(deps.Processor, deps.Publisher, deps.Archiver, logger)
	h := NewHandler(svc, renderer, deps.Processor.Limit(), deps.Metrics, logger)

	s := &Server{
		config: cfg,
		checks: deps.ReadinessChecks,
		logger: logger.With("component", "http-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.Handle("GET /static/", StaticHandler())
	mux.HandleFunc("POST /upload", h.Upload)
	mux.Handle("POST /download", BodySizeLimit(downloadBodyLimit(deps.Processor.Limit(), cfg.MaxBodyBytes))(http.HandlerFunc(h.Download)))
	mux.Handle("POST /api/v1/dedup", ContentType(http.HandlerFunc(h.APIDedup)))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}

	mws := []func(http.Handler) http.Handler{
		Recovery(logger),
		RequestID,
		Logging(logger),
	}
	if deps.Metrics != nil {
		mws = append(mws, observability.HTTPMetrics(deps.Metrics, routes...))
	}
	mws = append(mws,
		CORS(cfg.CORS),
		RateLimit(cfg.RateLimit),
		PerClientRateLimit(cfg.RateLimit),
		BodySizeLimit(cfg.MaxBodyBytes, "/download"),
	)
	s.handler = Chain(mux, mws...)

	s.httpServer = &http.Server{
		Addr:           cfg.Addr,
		Handler:        s.handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.config.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ready"}
	status := http.StatusOK

	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check.HealthCheck(ctx); err != nil {
				s.logger.Warn("readiness check failed", "check", name, "error", err)
				resp.Checks[name] = err.Error()
				resp.Status = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	writeJSON(w, status, resp)
}
