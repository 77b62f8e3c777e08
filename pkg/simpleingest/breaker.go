package simpleingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings tune the circuit breaker and retry policy wrapping the
// ingestion entry point.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker once this many ingest calls in a
	// row fail with an unexpected error.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// MaxAttempts is the number of whole-pipeline attempts per call.
	MaxAttempts int
	// RetryDelay is the base delay between whole-pipeline attempts.
	RetryDelay time.Duration
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = 2
	}
	if s.RetryDelay == 0 {
		s.RetryDelay = 200 * time.Millisecond
	}
	return s
}

// ResilientService wraps a Service with a circuit breaker and a bounded
// retry policy on IngestContent. While the breaker is open, a fallback
// SERVICE_UNAVAILABLE result is returned instead of running the pipeline.
// The other operations pass through untouched.
type ResilientService struct {
	inner    Service
	breaker  *gobreaker.CircuitBreaker[*ContentIngestionResult]
	settings BreakerSettings
	logger   *slog.Logger
}

// NewResilientService wraps inner with breaker and retry policies.
func NewResilientService(inner Service, settings BreakerSettings, logger *slog.Logger) *ResilientService {
	settings = settings.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[*ContentIngestionResult](gobreaker.Settings{
		Name:    "content-ingest",
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
	})

	return &ResilientService{
		inner:    inner,
		breaker:  cb,
		settings: settings,
		logger:   logger,
	}
}

// IngestContent runs the pipeline through the breaker, retrying unexpected
// failures up to MaxAttempts times. Validation failures are normal results
// and neither trip the breaker nor trigger retries.
func (r *ResilientService) IngestContent(ctx context.Context, req IngestContentRequest) (*ContentIngestionResult, error) {
	var lastErr error
	for attempt := 0; attempt < r.settings.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.settings.RetryDelay * (1 << (attempt - 1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return unavailableResult(), ctx.Err()
			case <-timer.C:
			}
		}

		result, err := r.breaker.Execute(func() (*ContentIngestionResult, error) {
			return r.inner.IngestContent(ctx, req)
		})
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.logger.Warn("ingest breaker open, serving fallback")
			return unavailableResult(), nil
		}
		r.logger.Warn("ingest attempt failed", "attempt", attempt+1, "error", err)
	}
	return failedResult(lastErr), lastErr
}

// UpdateContent passes through to the wrapped service.
func (r *ResilientService) UpdateContent(ctx context.Context, req UpdateContentRequest) (*StoredContent, error) {
	return r.inner.UpdateContent(ctx, req)
}

// DeleteContent passes through to the wrapped service.
func (r *ResilientService) DeleteContent(ctx context.Context, req DeleteContentRequest) error {
	return r.inner.DeleteContent(ctx, req)
}

// GetContent passes through to the wrapped service.
func (r *ResilientService) GetContent(ctx context.Context, id uuid.UUID) (*StoredContent, error) {
	return r.inner.GetContent(ctx, id)
}

// ListContent passes through to the wrapped service.
func (r *ResilientService) ListContent(ctx context.Context, req ListContentRequest) (*ListContentResponse, error) {
	return r.inner.ListContent(ctx, req)
}

func unavailableResult() *ContentIngestionResult {
	return &ContentIngestionResult{
		Success: false,
		Errors: []ValidationError{{
			Code:    CodeServiceUnavailable,
			Message: "content ingestion is temporarily unavailable",
		}},
		Timestamp: time.Now().UTC(),
	}
}

func failedResult(err error) *ContentIngestionResult {
	msg := "content ingestion failed"
	if err != nil {
		msg = err.Error()
	}
	return &ContentIngestionResult{
		Success: false,
		Errors: []ValidationError{{
			Code:    CodeIngestionFailed,
			Message: msg,
		}},
		Timestamp: time.Now().UTC(),
	}
}
