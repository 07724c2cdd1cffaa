// Package backend is the JSON-over-HTTP client for the external coffee shop backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	apperrors "github.com/target/coffeehouse/internal/errors"
	obserrors "github.com/target/coffeehouse/internal/observability/errors"
	"github.com/target/coffeehouse/internal/observability/metrics"
	"github.com/target/coffeehouse/internal/ports"
)

// Header names the backend trusts for caller identity.
const (
	HeaderUserID         = "X-User-ID"
	HeaderUserRole       = "X-User-Role"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// BreakerConfig tunes the circuit breaker around backend calls.
type BreakerConfig struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state count reset period
	Timeout      time.Duration // open-state wait before probing
	MinRequests  uint32        // requests needed before the ratio is considered
	FailureRatio float64
}

// Config configures Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // per request; default 10s
	HTTPClient *http.Client
	Breaker    BreakerConfig
	Logger     *slog.Logger
}

// Client implements ports.Backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[*response]
	logger  *slog.Logger
}

var _ ports.Backend = (*Client)(nil)

type response struct {
	status int
	body   []byte
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", cfg.BaseURL)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "backend_client")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{base: base, http: httpClient, timeout: timeout, logger: logger}
	c.cb = gobreaker.NewCircuitBreaker[*response](breakerSettings(cfg.Breaker, logger))
	metrics.BackendBreakerState.WithLabelValues(breakerName).Set(0)
	return c, nil
}

const breakerName = "backend"

func breakerSettings(bc BreakerConfig, logger *slog.Logger) gobreaker.Settings {
	if bc.MaxRequests == 0 {
		bc.MaxRequests = 3
	}
	if bc.Interval <= 0 {
		bc.Interval = time.Minute
	}
	if bc.Timeout <= 0 {
		bc.Timeout = 30 * time.Second
	}
	if bc.MinRequests == 0 {
		bc.MinRequests = 10
	}
	if bc.FailureRatio <= 0 || bc.FailureRatio > 1 {
		bc.FailureRatio = 0.6
	}
	return gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("backend circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.BackendBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// Client errors are the caller's fault and must not open the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || !serverFault(err)
		},
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// serverFault reports whether err reflects a backend or transport failure.
func serverFault(err error) bool {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return true
	}
	switch appErr.Code {
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeValidation, apperrors.ErrCodeConflict,
		apperrors.ErrCodeUnauthenticated, apperrors.ErrCodeForbidden, apperrors.ErrCodeCanceled:
		return false
	default:
		return true
	}
}

// request describes one backend call.
type request struct {
	op      string // metric label
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

func (c *Client) do(ctx context.Context, req request) (*response, error) {
	start := time.Now()
	res, err := c.cb.Execute(func() (*response, error) {
		return c.roundTrip(ctx, req)
	})
	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = metrics.OutcomeRejected
		err = apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "backend is temporarily unavailable")
	case err != nil:
		outcome = metrics.OutcomeError
	}
	metrics.ObserveBackend(req.op, outcome, time.Since(start))
	if err != nil {
		c.logger.DebugContext(ctx, "backend call failed",
			"op", req.op, "path", req.path, "error", err, "error_class", obserrors.Classify(err))
		return nil, err
	}
	return res, nil
}

func (c *Client) roundTrip(ctx context.Context, req request) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	// req.path is already escaped; keep RawPath so escaped ids survive.
	u.RawPath = c.base.EscapedPath() + req.path
	if p, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = p
	}
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", req.op, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if actor, ok := ports.ActorFrom(ctx); ok {
		httpReq.Header.Set(HeaderUserID, actor.UserID)
		if actor.Role.Valid() {
			httpReq.Header.Set(HeaderUserRole, string(actor.Role))
		}
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperrors.FromHTTPStatus(resp.StatusCode, errorMessage(msg))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "backend request canceled")
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "backend request timed out")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "backend request failed")
	}
}

// errorMessage pulls a human message out of a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	return ""
}

// call performs req and decodes the JSON response into T.
func call[T any](ctx context.Context, c *Client, req request) (T, error) {
	var out T
	res, err := c.do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(res.body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(res.body, &out); err != nil {
		return out, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode %s response", req.op)
	}
	return out, nil
}

func escape(id string) string { return url.PathEscape(id) }
