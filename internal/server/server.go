// Package server exposes frames, self-check results and source control over
// HTTP, with a websocket frame stream.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/selfcheck"
	"github.com/litescript/ls-orrery/internal/state"
)

// Options configure a Server.
type Options struct {
	Addr       string
	Refresh    time.Duration // stream cadence
	RateLimit  float64       // requests/s per client
	RateBurst  int
	TrustProxy bool
	Engine     engine.Config
	SelfCheck  selfcheck.Options
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	source     *ephem.Source
	state      *state.Manager
	opts       Options
	logger     *logging.Logger
	upgrader   websocket.Upgrader
	now        func() time.Time
}

// New creates a configured HTTP server.
func New(src *ephem.Source, mgr *state.Manager, opts Options, logger *logging.Logger) *Server {
	if opts.Refresh <= 0 {
		opts.Refresh = time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	s := &Server{
		source: src,
		state:  mgr,
		opts:   opts,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		now: time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/frame", s.handleFrame)
	api.HandleFunc("GET /api/v1/selfcheck", s.handleSelfCheck)
	api.HandleFunc("GET /api/v1/events", s.handleEvents)
	api.HandleFunc("GET /api/v1/stream", s.handleStream)
	api.HandleFunc("POST /api/v1/source", s.handleSetSource)

	limiter := newIPRateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
	mux.Handle("/api/", limiter.middleware(opts.TrustProxy, api))

	// Build middleware chain: metrics -> logging -> mux.
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// instant parses the optional utc query parameter.
func (s *Server) instant(r *http.Request) (time.Time, bool, error) {
	v := r.URL.Query().Get("utc")
	if v == "" {
		return s.now(), false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, true, err
	}
	return t, true, nil
}

// handleFrame returns the latest frame, or evaluates one for ?utc=.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	t, explicit, err := s.instant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "utc must be RFC 3339")
		return
	}

	if !explicit {
		if snap := s.state.Snapshot(); snap.Frame != nil {
			writeJSON(w, http.StatusOK, snap.Frame)
			return
		}
	}

	frame := state.Frame{
		Snapshot: engine.Evaluate(t, s.opts.Engine),
		Table:    s.source.Resolve(r.Context(), t, bodies.Orbital()),
	}
	writeJSON(w, http.StatusOK, frame)
}

type selfCheckResponse struct {
	Instant time.Time          `json:"instant"`
	Passed  int                `json:"passed"`
	Total   int                `json:"total"`
	Results []selfcheck.Result `json:"results"`
}

func (s *Server) handleSelfCheck(w http.ResponseWriter, r *http.Request) {
	t, explicit, err := s.instant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "utc must be RFC 3339")
		return
	}

	results := selfcheck.Run(t, s.opts.SelfCheck)
	passed, total := selfcheck.Summary(results)
	if !explicit {
		s.state.SetSelfCheck(results)
		metrics.SetSelfCheckFailures(total - passed)
	}

	writeJSON(w, http.StatusOK, selfCheckResponse{
		Instant: t,
		Passed:  passed,
		Total:   total,
		Results: results,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.state.RecentEvents(50)
	if events == nil {
		events = []state.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

type sourceRequest struct {
	Mode *ephem.Mode `json:"mode"`
}

type sourceResponse struct {
	Mode     ephem.Mode   `json:"mode"`
	Status   ephem.Status `json:"status"`
	External string       `json:"external,omitempty"`
}

func (s *Server) handleSetSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode == nil {
		writeError(w, http.StatusBadRequest, "mode is required")
		return
	}

	s.source.SetMode(*req.Mode)
	writeJSON(w, http.StatusOK, sourceResponse{
		Mode:     s.source.Mode(),
		Status:   s.source.Status(),
		External: s.source.ExternalName(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func loggingMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			// Health probes and scrapes only at debug.
			logf := logger.Info
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				logf = logger.Debug
			}
			logf("%s %s %d %dms %s", r.Method, r.URL.Path, sr.statusCode,
				time.Since(start).Milliseconds(), r.RemoteAddr)
		})
	}
}
