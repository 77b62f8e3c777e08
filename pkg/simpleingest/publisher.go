package simpleingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultInitialDelay = 100 * time.Millisecond
	defaultMaxAttempts  = 3
)

// Publisher serializes content events and publishes them to the broker,
// routing by event kind. Serialization failures are non-retryable; broker
// failures are retried with exponential backoff.
type Publisher struct {
	broker       Broker
	logger       *slog.Logger
	initialDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithInitialDelay sets the base retry delay; attempt n waits
// initialDelay * 2^n.
func WithInitialDelay(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.initialDelay = d
	}
}

// WithSleeper overrides the delay function (tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) PublisherOption {
	return func(p *Publisher) {
		p.sleep = sleep
	}
}

// NewPublisher creates a Publisher over the given broker.
func NewPublisher(broker Broker, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		broker:       broker,
		logger:       slog.Default(),
		initialDelay: defaultInitialDelay,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishEvent serializes and publishes a single event to its logical topic,
// keyed by the subject content id.
func (p *Publisher) PublishEvent(ctx context.Context, event ContentEvent) EventPublicationResult {
	payload, err := json.Marshal(event)
	if err != nil {
		return EventPublicationResult{
			EventID: event.ID,
			Error: &PublicationError{
				Code:      CodeSerializationError,
				Message:   err.Error(),
				Retryable: false,
			},
		}
	}

	if err := p.broker.Publish(ctx, event.Topic(), event.ContentID.String(), payload); err != nil {
		return EventPublicationResult{
			EventID: event.ID,
			Error:   classifyPublishError(err),
		}
	}

	return EventPublicationResult{
		Success:     true,
		EventID:     event.ID,
		PublishedAt: time.Now().UTC(),
	}
}

// PublishEventWithRetry retries retryable failures up to maxAttempts total
// attempts, waiting initialDelay * 2^attempt between tries. It stops early on
// success or on a non-retryable error, and reports the number of retries
// used.
func (p *Publisher) PublishEventWithRetry(ctx context.Context, event ContentEvent, maxAttempts int) EventPublicationResult {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}

	var res EventPublicationResult
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.initialDelay * (1 << (attempt - 1))
			if err := p.sleep(ctx, delay); err != nil {
				res.RetryCount = attempt - 1
				return res
			}
		}

		res = p.PublishEvent(ctx, event)
		res.RetryCount = attempt
		if res.Success || !res.Error.Retryable {
			return res
		}
		p.logger.Warn("event publish attempt failed",
			"event_id", event.ID, "kind", event.Kind,
			"attempt", attempt+1, "error", res.Error.Message)
	}
	return res
}

// PublishEventsBatch publishes each event independently; one failure never
// blocks the rest. Results are returned in input order.
func (p *Publisher) PublishEventsBatch(ctx context.Context, events []ContentEvent) []EventPublicationResult {
	results := make([]EventPublicationResult, 0, len(events))
	for _, event := range events {
		results = append(results, p.PublishEvent(ctx, event))
	}
	return results
}

// classifyPublishError maps a broker error to a publication error. Transports
// wrap permanent failures in NonRetryableError; everything else is treated as
// a transient broker/network fault.
func classifyPublishError(err error) *PublicationError {
	var perm *NonRetryableError
	if errors.As(err, &perm) {
		return &PublicationError{
			Code:      CodePublishAuthError,
			Message:   err.Error(),
			Retryable: false,
		}
	}
	return &PublicationError{
		Code:      CodeBrokerError,
		Message:   err.Error(),
		Retryable: true,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
