// Package httpapi exposes the engine over HTTP: dedicated endpoints for
// simplification and differentiation, the generic tool endpoint, the tool
// schema, health and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/njchilds90/symcore"
	"github.com/njchilds90/symcore/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Server routes requests to a shared engine.
type Server struct {
	engine   *symcore.Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer serves /metrics from g. Without it /metrics is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewHandler builds the router.
func NewHandler(engine *symcore.Engine, opts ...Option) http.Handler {
	s := &Server{engine: engine, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Post("/simplify", s.simplify)
	r.Post("/differentiate", s.differentiate)
	r.Post("/batch", s.batch)
	r.Post("/tool", s.tool)
	r.Get("/schema", s.schema)
	r.Get("/health", s.health)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// ============================================================
// Handlers
// ============================================================

type exprRequest struct {
	Expr map[string]any `json:"expr"`
	Var  string         `json:"var,omitempty"`
	N    int            `json:"n,omitempty"`
}

type exprResponse struct {
	Result     string         `json:"result"`
	JSON       map[string]any `json:"json"`
	Guard      string         `json:"guard,omitempty"`
	Iterations int            `json:"iterations,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) simplify(w http.ResponseWriter, r *http.Request) {
	var req exprRequest
	if !s.decode(w, r, &req) {
		return
	}
	e, err := symcore.UnmarshalExpr(req.Expr)
	if err != nil {
		s.fail(w, err)
		return
	}
	res, err := s.engine.Simplify(r.Context(), e)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.write(w, http.StatusOK, toResponse(res))
}

func (s *Server) differentiate(w http.ResponseWriter, r *http.Request) {
	var req exprRequest
	if !s.decode(w, r, &req) {
		return
	}
	e, err := symcore.UnmarshalExpr(req.Expr)
	if err != nil {
		s.fail(w, err)
		return
	}
	n := req.N
	if n == 0 {
		n = 1
	}
	res, err := s.engine.DiffN(r.Context(), e, req.Var, n)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.write(w, http.StatusOK, toResponse(res))
}

type batchRequest struct {
	Exprs []map[string]any `json:"exprs"`
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, &req) {
		return
	}
	exprs := make([]symcore.Expr, len(req.Exprs))
	for i, m := range req.Exprs {
		e, err := symcore.UnmarshalExpr(m)
		if err != nil {
			s.fail(w, fmt.Errorf("exprs[%d]: %w", i, err))
			return
		}
		exprs[i] = e
	}
	results, err := s.engine.SimplifyAll(r.Context(), exprs)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]exprResponse, len(results))
	for i, res := range results {
		out[i] = toResponse(res)
	}
	s.write(w, http.StatusOK, map[string]any{"results": out})
}

// tool always answers 200 once the request parses; failures are reported in
// the response body.
func (s *Server) tool(w http.ResponseWriter, r *http.Request) {
	var req symcore.ToolRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.write(w, http.StatusOK, s.engine.HandleTool(r.Context(), req))
}

func (s *Server) schema(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]any{"tools": symcore.ToolSchemas()})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ============================================================
// Helpers
// ============================================================

func toResponse(res symcore.Result) exprResponse {
	out := exprResponse{
		Result:     res.Expr.String(),
		JSON:       symcore.MarshalExpr(res.Expr),
		Iterations: res.Iterations,
	}
	if res.Tripped() {
		out.Guard = res.Guard.String()
	}
	return out
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.write(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: "malformed"})
		return false
	}
	if dec.More() {
		s.write(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: trailing data", Kind: "malformed"})
		return false
	}
	return true
}

// statusOf maps engine errors to HTTP status codes. Caller mistakes are 400,
// a canceled request is 503 and anything else is 500.
func statusOf(err error) int {
	switch {
	case errors.Is(err, symcore.ErrMalformedExpression),
		errors.Is(err, symcore.ErrArithmetic),
		errors.Is(err, symcore.ErrNoDerivativeRule):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "err", err)
	}
	s.write(w, status, errorResponse{Error: err.Error(), Kind: symcore.ErrorKind(err)})
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
