package simpleingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultMaxParallelMedia = 4
	defaultListLimit        = 20
)

// service implements the Service interface: the ingestion orchestrator.
type service struct {
	repository ContentRepository
	media      MediaProcessor
	publisher  *Publisher
	enricher   LinkEnricher
	validator  *Validator
	sanitizer  *Sanitizer
	extractor  *Extractor
	logger     *slog.Logger

	maxParallelMedia int
	publishAttempts  int
}

// Option represents a functional option for configuring the service.
type Option func(*service)

// WithRepository sets the content repository (required).
func WithRepository(repo ContentRepository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithMediaProcessor sets the media processor (required).
func WithMediaProcessor(mp MediaProcessor) Option {
	return func(s *service) {
		s.media = mp
	}
}

// WithPublisher sets the event publisher (required).
func WithPublisher(p *Publisher) Option {
	return func(s *service) {
		s.publisher = p
	}
}

// WithLinkEnricher sets the link metadata enricher. Without one, extracted
// links are kept without enrichment.
func WithLinkEnricher(e LinkEnricher) Option {
	return func(s *service) {
		s.enricher = e
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *Validator) Option {
	return func(s *service) {
		s.validator = v
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithMaxParallelMedia bounds the per-request media worker pool.
func WithMaxParallelMedia(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.maxParallelMedia = n
		}
	}
}

// WithPublishAttempts sets the retry budget for the creation event.
func WithPublishAttempts(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.publishAttempts = n
		}
	}
}

// New creates a new ingestion service with the given options.
func New(options ...Option) (Service, error) {
	s := &service{
		validator:        NewValidator(),
		sanitizer:        NewSanitizer(),
		extractor:        NewExtractor(),
		logger:           slog.Default(),
		maxParallelMedia: defaultMaxParallelMedia,
		publishAttempts:  defaultMaxAttempts,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.media == nil {
		return nil, fmt.Errorf("media processor is required")
	}
	if s.publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}

	return s, nil
}

// IngestContent runs the pipeline: validate, sanitize, process media,
// extract metadata, persist, publish. Validation failure is the single fatal
// gate; every later stage degrades rather than aborts.
func (s *service) IngestContent(ctx context.Context, req IngestContentRequest) (*ContentIngestionResult, error) {
	sub := req.Submission

	validation := s.validator.Validate(sub)
	if !validation.Valid {
		s.logger.Debug("submission rejected by validation",
			"actor_id", req.ActorID, "errors", len(validation.Errors))
		return &ContentIngestionResult{
			Success:   false,
			Errors:    validation.Errors,
			Warnings:  validation.Warnings,
			Timestamp: time.Now().UTC(),
		}, nil
	}

	var sanitization *SanitizationResult
	if sub.Text != "" {
		r := s.sanitizer.Sanitize(sub.Text)
		sanitization = &r
		sub.Text = r.SanitizedText
	}

	processed := s.processAttachments(ctx, sub.Media)

	metadata := s.extractor.Extract(sub)
	s.enrichLinks(ctx, metadata.Links)

	content := composeContent(req.ActorID, sub, processed, &metadata)
	if err := s.repository.Save(ctx, content); err != nil {
		err = &IngestError{ContentID: content.ID, Op: "persist", Err: err}
		s.logger.Error("persist failed", "content_id", content.ID, "error", err)
		return failedResult(err), err
	}

	s.publishIngestEvents(ctx, req.ActorID, content, processed, metadata.Metrics)

	return &ContentIngestionResult{
		Success:      true,
		ContentID:    content.ID,
		Media:        processed,
		Metadata:     &metadata,
		Sanitization: sanitization,
		Warnings:     validation.Warnings,
		Timestamp:    time.Now().UTC(),
	}, nil
}

// processAttachments fans processing out across attachments, bounded by the
// worker pool. Attachments share no state, so failures stay isolated: a
// failed attachment is logged and omitted, never surfaced as a pipeline
// error.
func (s *service) processAttachments(ctx context.Context, attachments []MediaAttachment) []ProcessedMedia {
	if len(attachments) == 0 {
		return nil
	}

	outcomes := make([]ProcessedMedia, len(attachments))
	sem := make(chan struct{}, s.maxParallelMedia)
	var wg sync.WaitGroup

	for i, att := range attachments {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, att MediaAttachment) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Warn("media processing panicked",
						"source_url", att.SourceURL, "panic", r)
					outcomes[i] = ProcessedMedia{
						SourceURL: att.SourceURL,
						MediaType: att.Type,
						Status:    ProcessingStatusFailed,
					}
				}
			}()
			outcomes[i] = s.media.Process(ctx, att)
		}(i, att)
	}
	wg.Wait()

	processed := make([]ProcessedMedia, 0, len(outcomes))
	for _, out := range outcomes {
		if out.Status == ProcessingStatusCompleted {
			processed = append(processed, out)
			continue
		}
		s.logger.Warn("media attachment dropped",
			"source_url", out.SourceURL, "status", out.Status,
			"errors", len(out.Details.Errors))
	}
	return processed
}

// enrichLinks fetches page metadata for each extracted link, keeping the
// link without enrichment when an individual fetch fails.
func (s *service) enrichLinks(ctx context.Context, links []ExtractedLink) {
	if s.enricher == nil {
		return
	}
	for i := range links {
		links[i].Metadata = s.enricher.Fetch(ctx, links[i].URL)
	}
}

func composeContent(actorID uuid.UUID, sub ContentSubmission, media []ProcessedMedia, metadata *ExtractedMetadata) *StoredContent {
	now := time.Now().UTC()
	status := ContentStatusPublished
	if sub.ScheduledAt != nil && sub.ScheduledAt.After(now) {
		status = ContentStatusScheduled
	}

	return &StoredContent{
		ID:          uuid.New(),
		AuthorID:    actorID,
		Type:        sub.Type,
		Text:        sub.Text,
		LinkURL:     sub.LinkURL,
		Media:       media,
		Metadata:    metadata,
		Visibility:  sub.Visibility,
		Tags:        sub.Tags,
		Mentions:    sub.Mentions,
		Poll:        sub.Poll,
		Sensitive:   sub.Sensitive,
		Language:    sub.Language,
		ScheduledAt: sub.ScheduledAt,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// publishIngestEvents emits the creation event, one media event per
// processed attachment, a published event when the record is immediately
// visible, and a metrics snapshot. Publication is best-effort; persistence
// already happened.
func (s *service) publishIngestEvents(ctx context.Context, actorID uuid.UUID, content *StoredContent, media []ProcessedMedia, metrics ContentMetrics) {
	created := NewContentEvent(EventContentCreated, actorID, content.ID)
	created.Created = &CreatedPayload{
		Type:       content.Type,
		Visibility: content.Visibility,
		MediaCount: len(media),
		Scheduled:  content.Status == ContentStatusScheduled,
		Language:   content.Language,
	}
	s.logPublish(s.publisher.PublishEventWithRetry(ctx, created, s.publishAttempts))

	for _, m := range media {
		ev := NewContentEvent(EventMediaProcessed, actorID, content.ID)
		ev.Media = &MediaProcessedPayload{
			MediaID:      m.ID,
			MediaType:    m.MediaType,
			Status:       m.Status,
			URL:          m.URL,
			ThumbnailURL: m.ThumbnailURL,
			VariantCount: len(m.Variants),
		}
		s.logPublish(s.publisher.PublishEvent(ctx, ev))
	}

	if content.Visible() {
		ev := NewContentEvent(EventContentPublished, actorID, content.ID)
		ev.Published = &PublishedPayload{Visibility: content.Visibility}
		s.logPublish(s.publisher.PublishEvent(ctx, ev))
	}

	ev := NewContentEvent(EventMetricsUpdated, actorID, content.ID)
	ev.Metrics = &MetricsPayload{Metrics: metrics}
	s.logPublish(s.publisher.PublishEvent(ctx, ev))
}

func (s *service) logPublish(res EventPublicationResult) {
	if !res.Success {
		msg := "unknown error"
		if res.Error != nil {
			msg = res.Error.Message
		}
		s.logger.Warn("event publication failed", "event_id", res.EventID, "error", msg)
	}
}

// UpdateContent applies a partial update after checking that the actor is
// the original author, then publishes an updated event. Persist happens
// before publish.
func (s *service) UpdateContent(ctx context.Context, req UpdateContentRequest) (*StoredContent, error) {
	content, err := s.repository.FindByID(ctx, req.ContentID)
	if err != nil {
		return nil, err
	}
	if content.AuthorID != req.ActorID {
		return nil, ErrNotAuthorized
	}

	var changed []string
	if req.Text != nil {
		r := s.sanitizer.Sanitize(*req.Text)
		content.Text = r.SanitizedText
		changed = append(changed, "text")
	}
	if req.Visibility != nil {
		content.Visibility = *req.Visibility
		changed = append(changed, "visibility")
	}
	if req.Tags != nil {
		content.Tags = *req.Tags
		changed = append(changed, "tags")
	}
	if req.Sensitive != nil {
		content.Sensitive = *req.Sensitive
		changed = append(changed, "sensitive")
	}
	content.UpdatedAt = time.Now().UTC()

	if err := s.repository.Update(ctx, content); err != nil {
		return nil, &IngestError{ContentID: content.ID, Op: "update", Err: err}
	}

	ev := NewContentEvent(EventContentUpdated, req.ActorID, content.ID)
	ev.Updated = &UpdatedPayload{ChangedFields: changed}
	s.logPublish(s.publisher.PublishEvent(ctx, ev))

	return content, nil
}

// DeleteContent soft-deletes after the author check, then publishes a
// deleted event.
func (s *service) DeleteContent(ctx context.Context, req DeleteContentRequest) error {
	content, err := s.repository.FindByID(ctx, req.ContentID)
	if err != nil {
		return err
	}
	if content.AuthorID != req.ActorID {
		return ErrNotAuthorized
	}

	if err := s.repository.SoftDelete(ctx, req.ContentID); err != nil {
		return &IngestError{ContentID: req.ContentID, Op: "delete", Err: err}
	}

	ev := NewContentEvent(EventContentDeleted, req.ActorID, req.ContentID)
	ev.Deleted = &DeletedPayload{Soft: true}
	s.logPublish(s.publisher.PublishEvent(ctx, ev))

	return nil
}

func (s *service) GetContent(ctx context.Context, id uuid.UUID) (*StoredContent, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *service) ListContent(ctx context.Context, req ListContentRequest) (*ListContentResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	items, next, err := s.repository.FindByFilters(ctx, req.Filters, limit, req.Cursor)
	if err != nil {
		return nil, err
	}
	return &ListContentResponse{Items: items, NextCursor: next}, nil
}
