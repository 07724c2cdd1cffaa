package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/coffeehouse/config"
	obserrors "github.com/target/coffeehouse/internal/observability/errors"
	"github.com/target/coffeehouse/internal/observability/metrics"
)

// CartPurger deletes expired carts in batches and reports how many went.
type CartPurger interface {
	PurgeExpired(ctx context.Context, batchSize int) (int64, error)
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Carts  CartPurger          // Required: cart store with expiry
	Config config.ReaperConfig // Required: reaper configuration
	Logger *slog.Logger        // Optional: structured logger
}

// ReaperService removes expired carts from stores that do not expire keys on their own.
type ReaperService struct {
	carts  CartPurger
	config config.ReaperConfig
	logger *slog.Logger
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Carts == nil {
		return nil, errors.New("cart purger is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"batch_size", opts.Config.BatchSize,
		)
	}

	return &ReaperService{carts: opts.Carts, config: opts.Config, logger: logger}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.PurgeOnce(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.PurgeOnce(ctx); err != nil {
				s.logCleanupError(err, "cleanup")
			}
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval so replicas started together spread out.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// PurgeOnce deletes expired carts batch by batch until a batch comes back empty.
func (s *ReaperService) PurgeOnce(ctx context.Context) (int64, error) {
	var total int64
	for {
		n, err := s.carts.PurgeExpired(ctx, s.config.BatchSize)
		total += n
		if err != nil {
			metrics.ReaperPurged.Add(float64(total))
			return total, fmt.Errorf("purge expired carts: %w", err)
		}
		if n == 0 || n < int64(s.config.BatchSize) {
			break
		}
		if ctx.Err() != nil {
			metrics.ReaperPurged.Add(float64(total))
			return total, ctx.Err()
		}
	}

	metrics.ReaperPurged.Add(float64(total))
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "purged expired carts", "count", total)
	}
	return total, nil
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err, "error_class", obserrors.Classify(err))
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
