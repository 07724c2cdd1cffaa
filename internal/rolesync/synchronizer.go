// Package rolesync keeps the role cookie fresh from the client side.
//
// A Synchronizer is told when a session has been observed. After a settling
// delay it calls the role endpoint once, using an http.Client whose cookie jar
// holds the session cookie, and lets the endpoint set the role cookie in that
// same jar. Failures are logged and not retried; the next observation retries
// naturally.
package rolesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/target/coffeehouse/internal/observability/metrics"
)

// DefaultDelay is the settling delay between observing a session and calling the endpoint.
const DefaultDelay = time.Second

// maxBody bounds how much of the endpoint response is read.
const maxBody = 64 << 10

// ErrUnauthenticated is reported when the endpoint answers 401.
var ErrUnauthenticated = errors.New("role endpoint: no active session")

// Result is the role endpoint response body.
type Result struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Options configures a Synchronizer.
type Options struct {
	Client   *http.Client // Required: its Jar must carry the session cookie
	Endpoint string       // Required: absolute URL of the role endpoint
	Delay    time.Duration
	Logger   *slog.Logger
	// OnResult, when set, is called after every completed call.
	OnResult func(Result, error)
}

// Synchronizer schedules debounced calls to the role endpoint.
type Synchronizer struct {
	client   *http.Client
	endpoint string
	delay    time.Duration
	logger   *slog.Logger
	onResult func(Result, error)

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	pending sync.WaitGroup
}

// New validates opts and returns a Synchronizer.
func New(opts Options) (*Synchronizer, error) {
	if opts.Client == nil {
		return nil, errors.New("http client is required")
	}
	if opts.Client.Jar == nil {
		return nil, errors.New("http client needs a cookie jar")
	}
	u, err := url.Parse(opts.Endpoint)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("role endpoint must be an absolute URL: %q", opts.Endpoint)
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		client:   opts.Client,
		endpoint: u.String(),
		delay:    delay,
		logger:   logger.With("component", "role_sync"),
		onResult: opts.OnResult,
	}, nil
}

// SessionObserved schedules one call after the settling delay. A call that
// has not fired yet is replaced, so repeated observations never stack.
// Canceling ctx before the delay elapses drops the call.
func (s *Synchronizer) SessionObserved(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()

	callCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.pending.Add(1)
	s.timer = time.AfterFunc(s.delay, func() {
		defer s.pending.Done()
		s.fire(callCtx)
	})
}

// Close cancels any pending call and waits for a call already running to finish.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()
	s.pending.Wait()
}

func (s *Synchronizer) stopLocked() {
	if s.timer != nil && s.timer.Stop() {
		s.pending.Done()
		metrics.RoleSyncAttempts.WithLabelValues(metrics.OutcomeCanceled).Inc()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.timer = nil
	s.cancel = nil
}

func (s *Synchronizer) fire(ctx context.Context) {
	if ctx.Err() != nil {
		metrics.RoleSyncAttempts.WithLabelValues(metrics.OutcomeCanceled).Inc()
		s.logger.Debug("role sync dropped, observer went away")
		return
	}
	res, err := s.call(ctx)
	if err != nil {
		metrics.RoleSyncAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.WarnContext(ctx, "role sync failed", "error", err)
	} else {
		metrics.RoleSyncAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
		s.logger.InfoContext(ctx, "role cookie synchronized", "role", res.Role)
	}
	if s.onResult != nil {
		s.onResult(res, err)
	}
}

func (s *Synchronizer) call(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call role endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return Result{}, ErrUnauthenticated
	}
	var res Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode role endpoint response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !res.Success {
		return res, fmt.Errorf("role endpoint returned %d: %s", resp.StatusCode, res.Message)
	}
	return res, nil
}
