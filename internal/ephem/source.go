package ephem

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
)

// Source selects between the model and an external provider and owns the
// latest row table.
//
// A tick is Begin, then Fetch (which may block), then Complete. Every Begin
// and every SetMode bumps the generation; Complete discards results whose
// generation is no longer current, so a superseded response never replaces
// newer rows. External failures are replaced with model rows for the same
// instant and reported as StatusExternalError.
type Source struct {
	model    *ModelProvider
	external Provider
	timeout  time.Duration
	logger   *logging.Logger
	metrics  bool

	mu         sync.Mutex
	mode       Mode
	status     Status
	generation uint64
	latest     Table
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithExternal sets the external provider.
func WithExternal(p Provider) SourceOption {
	return func(s *Source) {
		s.external = p
	}
}

// WithMode sets the initial mode.
func WithMode(m Mode) SourceOption {
	return func(s *Source) {
		s.mode = m
	}
}

// WithRequestTimeout bounds each external fetch.
func WithRequestTimeout(d time.Duration) SourceOption {
	return func(s *Source) {
		s.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) SourceOption {
	return func(s *Source) {
		s.logger = l
	}
}

// WithMetrics controls reporting to the process-wide Prometheus collectors.
// It defaults to on. Scratch sources must turn it off or they overwrite the
// live source's status gauge.
func WithMetrics(enabled bool) SourceOption {
	return func(s *Source) {
		s.metrics = enabled
	}
}

// NewSource creates a source. The model provider is mandatory.
func NewSource(model *ModelProvider, opts ...SourceOption) *Source {
	s := &Source{
		model:   model,
		timeout: DefaultTimeout,
		metrics: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.status = StatusModel
	if s.metrics {
		metrics.SetSourceStatus(s.status.String(), statusNames())
	}
	return s
}

// Mode returns the selected mode.
func (s *Source) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Status returns the current status.
func (s *Source) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Pending reports whether an external request is in flight. Callers that
// drive ticks from a timer skip a tick while Pending is true.
func (s *Source) Pending() bool {
	return s.Status() == StatusExternalLoading
}

// ExternalName returns the external provider name, or "" if none is set.
func (s *Source) ExternalName() string {
	if s.external == nil {
		return ""
	}
	return s.external.Name()
}

// SetMode switches the active mode. Any in-flight request becomes stale.
func (s *Source) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m == s.mode {
		return
	}
	s.logger.Info("mode %s -> %s", s.mode, m)
	s.mode = m
	s.generation++
	if m == ModeModel {
		s.setStatus(StatusModel)
	}
}

// Latest returns the most recently completed table.
func (s *Source) Latest() Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Begin issues a request for the current mode and makes it the only
// generation Complete will accept.
func (s *Source) Begin(t time.Time, bs []bodies.Body) Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	req := Request{
		Generation: s.generation,
		Instant:    t,
		Bodies:     append([]bodies.Body(nil), bs...),
		Mode:       s.mode,
	}
	if req.Mode == ModeExternal {
		s.setStatus(StatusExternalLoading)
	}
	return req
}

// Fetch runs the provider for req. External fetches are bounded by the
// request timeout. Fetch does not touch source state.
func (s *Source) Fetch(ctx context.Context, req Request) FetchResult {
	if req.Mode != ModeExternal {
		return s.model.Fetch(ctx, req)
	}
	if s.external == nil {
		return FetchResult{Provider: "none", FetchedAt: time.Now(), Error: ErrNoExternalProvider}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.external.Fetch(ctx, req)
}

// Complete applies a fetch result. It returns the new table and true, or the
// previous table and false when req has been superseded.
func (s *Source) Complete(req Request, res FetchResult) (Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Generation != s.generation {
		s.logger.Debug("discarding generation %d (current %d) from %s", req.Generation, s.generation, res.Provider)
		if s.metrics {
			metrics.CountStale(res.Provider)
		}
		return s.latest, false
	}

	table := s.resolve(req, res)

	s.setStatus(table.Status)
	s.latest = table
	if s.metrics {
		metrics.SetRows(len(table.Rows))
	}
	return table, true
}

// resolve turns a fetch result into a table, substituting model rows when an
// external fetch failed or mapped no bodies.
func (s *Source) resolve(req Request, res FetchResult) Table {
	table := Table{
		Generation: req.Generation,
		Instant:    req.Instant,
		Mode:       req.Mode,
		Provider:   res.Provider,
	}

	switch {
	case req.Mode != ModeExternal:
		table.Status = StatusModel
		table.Rows = res.Rows
		s.observe(res.Provider, metrics.OutcomeOK, res.Duration)

	case res.Error == nil && len(res.Rows) > 0:
		table.Status = StatusExternalOk
		table.Rows = res.Rows
		s.observe(res.Provider, metrics.OutcomeOK, res.Duration)

	default:
		err := res.Error
		if err == nil {
			err = ErrNoBodiesMapped
		}
		s.logger.Warn("%s fetch failed, serving model rows: %v", res.Provider, err)
		s.observe(res.Provider, metrics.OutcomeError, res.Duration)
		s.observe(s.model.Name(), metrics.OutcomeFallback, 0)

		table.Status = StatusExternalError
		table.Provider = s.model.Name()
		table.Rows = s.model.Rows(req.Instant, req.Bodies)
		table.Err = describe(err)
	}
	return table
}

// Resolve fetches rows for an arbitrary instant in the current mode with the
// same fallback policy as Tick, without touching the source's generation,
// status or latest table.
func (s *Source) Resolve(ctx context.Context, t time.Time, bs []bodies.Body) Table {
	req := Request{
		Instant: t,
		Bodies:  append([]bodies.Body(nil), bs...),
		Mode:    s.Mode(),
	}
	return s.resolve(req, s.Fetch(ctx, req))
}

// Tick runs a full request cycle synchronously.
func (s *Source) Tick(ctx context.Context, t time.Time, bs []bodies.Body) Table {
	req := s.Begin(t, bs)
	table, _ := s.Complete(req, s.Fetch(ctx, req))
	return table
}

// setStatus must be called with s.mu held.
func (s *Source) setStatus(next Status) {
	if next == s.status {
		return
	}
	s.logger.Info("status %s -> %s", s.status, next)
	s.status = next
	if s.metrics {
		metrics.SetSourceStatus(next.String(), statusNames())
	}
}

func (s *Source) observe(provider, outcome string, d time.Duration) {
	if s.metrics {
		metrics.ObserveFetch(provider, outcome, d)
	}
}

func statusNames() []string {
	all := AllStatuses()
	names := make([]string, len(all))
	for i, st := range all {
		names[i] = st.String()
	}
	return names
}

// describe flattens timeouts into a stable message.
func describe(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "ephemeris request timed out"
	}
	return err.Error()
}
