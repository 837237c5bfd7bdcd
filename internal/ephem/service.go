package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

const (
	// DefaultServiceURL is the default state-vector endpoint.
	DefaultServiceURL = "http://localhost:8787/ephemeris"

	// DefaultTimeout bounds a single external request.
	DefaultTimeout = 10 * time.Second

	// maxResponseBytes caps the response body read from the service.
	maxResponseBytes = 1 << 20

	// requestTimeLayout is ISO-8601 UTC with millisecond precision.
	requestTimeLayout = "2006-01-02T15:04:05.000Z"
)

// ServiceProvider queries an HTTP state-vector service.
//
// The service is called as GET <url>?utc=<instant>&bodies=<Name,Name,...> and
// answers with a JSON array of heliocentric ecliptic state vectors in km and km/s.
type ServiceProvider struct {
	client  *http.Client
	url     string
	timeout time.Duration
}

// ServiceOption configures a ServiceProvider.
type ServiceOption func(*ServiceProvider)

// WithURL sets the service endpoint.
func WithURL(u string) ServiceOption {
	return func(p *ServiceProvider) {
		p.url = u
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ServiceOption {
	return func(p *ServiceProvider) {
		p.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(p *ServiceProvider) {
		p.client = client
	}
}

// NewServiceProvider creates a state-vector service client.
func NewServiceProvider(opts ...ServiceOption) *ServiceProvider {
	p := &ServiceProvider{
		url:     DefaultServiceURL,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		p.client = &http.Client{
			Timeout: p.timeout,
		}
	}

	return p
}

// Name implements Provider.
func (p *ServiceProvider) Name() string {
	return "service"
}

// URL returns the configured endpoint.
func (p *ServiceProvider) URL() string {
	return p.url
}

// Fetch implements Provider.
func (p *ServiceProvider) Fetch(ctx context.Context, req Request) FetchResult {
	start := time.Now()
	result := FetchResult{
		Provider:  p.Name(),
		FetchedAt: start,
	}

	body, err := p.fetchRaw(ctx, req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}

	rows, err := parseStateVectors(body, req.Bodies)
	if err != nil {
		result.Error = err
		return result
	}
	result.Rows = rows

	return result
}

func (p *ServiceProvider) fetchRaw(ctx context.Context, req Request) ([]byte, error) {
	params := url.Values{}
	params.Set("utc", req.Instant.UTC().Format(requestTimeLayout))
	params.Set("bodies", strings.Join(bodies.Names(req.Bodies), ","))

	sep := "?"
	if strings.Contains(p.url, "?") {
		sep = "&"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+sep+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ephemeris request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("ephemeris service returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// stateVector is one element of the service response.
type stateVector struct {
	Name     string   `json:"name"`
	XKm      *float64 `json:"x_km"`
	YKm      *float64 `json:"y_km"`
	ZKm      *float64 `json:"z_km"`
	VXKmS    *float64 `json:"vx_km_s"`
	VYKmS    *float64 `json:"vy_km_s"`
	VZKmS    *float64 `json:"vz_km_s"`
	EpochUTC string   `json:"epochUTC"`
}

// planar reports whether the fields needed for a row are present.
func (v stateVector) planar() bool {
	return v.XKm != nil && v.YKm != nil && v.VXKmS != nil && v.VYKmS != nil
}

// parseStateVectors maps a service response onto the requested bodies, in
// request order. Vectors for bodies not requested, with unknown names, or
// missing planar components are dropped.
func parseStateVectors(body []byte, want []bodies.Body) ([]OrbitalRow, error) {
	var vectors []stateVector
	if err := json.Unmarshal(body, &vectors); err != nil {
		return nil, fmt.Errorf("parse ephemeris response: %w", err)
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyResponse
	}

	byBody := make(map[bodies.Body]stateVector, len(vectors))
	for _, v := range vectors {
		b, err := bodies.Parse(v.Name)
		if err != nil || !v.planar() {
			continue
		}
		byBody[b] = v
	}

	rows := make([]OrbitalRow, 0, len(want))
	for _, b := range want {
		v, ok := byBody[b]
		if !ok {
			continue
		}
		pos := astro.Vec3{X: astro.KmToAU(*v.XKm), Y: astro.KmToAU(*v.YKm)}
		vel := astro.Vec3{X: *v.VXKmS, Y: *v.VYKmS}
		rows = append(rows, externalRow(b, pos, vel))
	}

	if len(rows) == 0 {
		return nil, ErrNoBodiesMapped
	}
	return rows, nil
}
