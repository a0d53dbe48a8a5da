// Package server exposes the audit pipeline over HTTP.
//
// Routes:
//
//	POST /v1/audit   resolve and audit a set of root coordinates
//	GET  /healthz    liveness check
//	GET  /metrics    Prometheus metrics (when configured)
//
// Every audit request gets its own [audit.Collector] and [audit.Request];
// collectors are single-owner. The report cache is shared by all requests.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/stackaudit/pkg/audit"
	"github.com/matzehuels/stackaudit/pkg/buildinfo"
	"github.com/matzehuels/stackaudit/pkg/cache"
	"github.com/matzehuels/stackaudit/pkg/deps"
	"github.com/matzehuels/stackaudit/pkg/errors"
)

const (
	// DefaultMaxPackages bounds the roots accepted by one audit request.
	DefaultMaxPackages = 256

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server serves the audit API.
type Server struct {
	resolver    audit.Resolver
	service     audit.Service
	cache       cache.Cache
	logger      *log.Logger
	metrics     http.Handler
	maxPackages int
	timeout     time.Duration

	collectorOpts []audit.Option
	requestOpts   []audit.RequestOption
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger used for request logs and audit diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithMaxPackages bounds the number of roots per request.
func WithMaxPackages(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxPackages = n
		}
	}
}

// WithTimeout bounds the time spent on one audit request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithCollectorOptions passes opts to every per-request collector.
func WithCollectorOptions(opts ...audit.Option) Option {
	return func(s *Server) { s.collectorOpts = append(s.collectorOpts, opts...) }
}

// WithRequestOptions passes opts to every per-request audit batch.
func WithRequestOptions(opts ...audit.RequestOption) Option {
	return func(s *Server) { s.requestOpts = append(s.requestOpts, opts...) }
}

// New creates a server. c is shared across requests and is never closed by
// the server; a nil c disables report caching.
func New(resolver audit.Resolver, service audit.Service, c cache.Cache, opts ...Option) *Server {
	if c == nil {
		c = cache.NewNullCache()
	}
	s := &Server{
		resolver:    resolver,
		service:     service,
		cache:       c,
		logger:      log.New(io.Discard),
		maxPackages: DefaultMaxPackages,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with the standard middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/audit", s.handleAudit)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Version)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// Handlers
// =============================================================================

type rootRequest struct {
	Coordinate string   `json:"coordinate"`
	Exclude    []string `json:"exclude,omitempty"`
}

type auditRequest struct {
	Packages []rootRequest `json:"packages"`
}

type failure struct {
	Coordinate string      `json:"coordinate"`
	Code       errors.Code `json:"code"`
	Error      string      `json:"error"`
}

type auditResponse struct {
	ID         string          `json:"id"`
	Packages   int             `json:"packages"`
	Vulnerable int             `json:"vulnerable"`
	Reports    []*audit.Report `json:"reports"`
	Failed     []failure       `json:"failed"`
}

type errorResponse struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Cause   errors.Code `json:"cause,omitempty"`
		Message string      `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type parsedRoot struct {
	coord      deps.Coordinate
	exclusions audit.Exclusions
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}

	roots, err := s.parseRoots(req.Packages)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	id := uuid.NewString()
	logger := s.logger.With("run", id)

	batch := audit.NewRequest(s.service, cache.NoClose(s.cache),
		append(slices.Clone(s.requestOpts), audit.WithRequestLogger(logger))...)
	col := audit.NewCollector(s.resolver, batch,
		append(slices.Clone(s.collectorOpts), audit.WithLogger(logger))...)
	defer col.Close()

	resp := auditResponse{ID: id, Failed: []failure{}}
	for _, root := range roots {
		res := col.Add(ctx, root.coord.Group, root.coord.Artifact, root.coord.Version, root.exclusions)
		if res.Failed() {
			resp.Failed = append(resp.Failed, failure{
				Coordinate: res.Root.String(),
				Code:       errors.GetCode(res.Err()),
				Error:      res.Err().Error(),
			})
		}
	}

	reports, err := col.Run(ctx)
	if err != nil {
		logger.Error("audit failed", "err", err)
		s.writeError(w, r, http.StatusBadGateway, err)
		return
	}

	resp.Reports = reports
	resp.Packages = len(reports)
	resp.Vulnerable = audit.CountVulnerable(reports)
	logger.Debug("audit complete", "packages", resp.Packages, "vulnerable", resp.Vulnerable, "failed", len(resp.Failed))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseRoots(in []rootRequest) ([]parsedRoot, error) {
	if len(in) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no packages given")
	}
	if len(in) > s.maxPackages {
		return nil, errors.New(errors.ErrCodeInvalidInput, "too many packages: %d (max %d)", len(in), s.maxPackages)
	}

	roots := make([]parsedRoot, 0, len(in))
	for _, p := range in {
		coord, err := deps.ParseCoordinate(p.Coordinate)
		if err != nil {
			return nil, err
		}
		if coord.Version == "" {
			return nil, errors.New(errors.ErrCodeInvalidCoordinate, "%s: version is required", p.Coordinate)
		}
		roots = append(roots, parsedRoot{coord: coord, exclusions: audit.NewExclusions(p.Exclude...)})
	}
	return roots, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var resp errorResponse
	resp.Error.Code = errors.GetCode(err)
	if resp.Error.Code == "" {
		resp.Error.Code = errors.ErrCodeInternal
	}
	if cause := errors.Cause(err); cause != resp.Error.Code {
		resp.Error.Cause = cause
	}
	resp.Error.Message = errors.UserMessage(err)
	resp.RequestID = middleware.GetReqID(r.Context())
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request at debug level, or at warn level
// for server errors.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			kv := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Millisecond),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if ww.Status() >= http.StatusInternalServerError {
				s.logger.Warn("request", kv...)
				return
			}
			s.logger.Debug("request", kv...)
		}()
		next.ServeHTTP(ww, r)
	})
}
