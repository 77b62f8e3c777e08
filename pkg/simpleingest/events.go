package simpleingest

import (
	"time"

	"github.com/google/uuid"
)

// EventKind is the domain type for content event variants.
type EventKind string

// Event kind constants (typed).
const (
	EventContentCreated   EventKind = "content.created"
	EventContentUpdated   EventKind = "content.updated"
	EventContentDeleted   EventKind = "content.deleted"
	EventContentPublished EventKind = "content.published"
	EventMediaProcessed   EventKind = "media.processed"
	EventMetricsUpdated   EventKind = "metrics.updated"
)

// Logical topic names for event routing.
const (
	TopicContentEvents = "content.events"
	TopicMediaEvents   = "media.events"
	TopicMetricsEvents = "metrics.events"
)

// ContentEvent is an immutable fact about a content. Exactly one of the
// payload pointers matching Kind is set.
type ContentEvent struct {
	ID         uuid.UUID              `json:"id"`
	Kind       EventKind              `json:"kind"`
	OccurredAt time.Time              `json:"occurred_at"`
	ActorID    uuid.UUID              `json:"actor_id"`
	ContentID  uuid.UUID              `json:"content_id"`
	Created    *CreatedPayload        `json:"created,omitempty"`
	Updated    *UpdatedPayload        `json:"updated,omitempty"`
	Deleted    *DeletedPayload        `json:"deleted,omitempty"`
	Published  *PublishedPayload      `json:"published,omitempty"`
	Media      *MediaProcessedPayload `json:"media,omitempty"`
	Metrics    *MetricsPayload        `json:"metrics,omitempty"`
}

// CreatedPayload describes a newly ingested content.
type CreatedPayload struct {
	Type       ContentType `json:"type"`
	Visibility Visibility  `json:"visibility"`
	MediaCount int         `json:"media_count"`
	Scheduled  bool        `json:"scheduled"`
	Language   string      `json:"language,omitempty"`
}

// UpdatedPayload lists the fields changed by an update.
type UpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
}

// DeletedPayload marks whether the delete was soft.
type DeletedPayload struct {
	Soft bool `json:"soft"`
}

// PublishedPayload describes a content becoming visible.
type PublishedPayload struct {
	Visibility Visibility `json:"visibility"`
}

// MediaProcessedPayload describes one successfully processed attachment.
type MediaProcessedPayload struct {
	MediaID      uuid.UUID        `json:"media_id"`
	MediaType    MediaType        `json:"media_type"`
	Status       ProcessingStatus `json:"status"`
	URL          string           `json:"url,omitempty"`
	ThumbnailURL string           `json:"thumbnail_url,omitempty"`
	VariantCount int              `json:"variant_count"`
}

// MetricsPayload carries the content metrics snapshot.
type MetricsPayload struct {
	Metrics ContentMetrics `json:"metrics"`
}

// Topic returns the logical topic an event kind routes to: content lifecycle,
// media lifecycle, or metrics.
func (e ContentEvent) Topic() string {
	switch e.Kind {
	case EventMediaProcessed:
		return TopicMediaEvents
	case EventMetricsUpdated:
		return TopicMetricsEvents
	default:
		return TopicContentEvents
	}
}

// NewContentEvent creates an event with a fresh id and timestamp.
func NewContentEvent(kind EventKind, actorID, contentID uuid.UUID) ContentEvent {
	return ContentEvent{
		ID:         uuid.New(),
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		ContentID:  contentID,
	}
}

// EventPublicationResult is the outcome of publishing one event.
type EventPublicationResult struct {
	Success     bool              `json:"success"`
	EventID     uuid.UUID         `json:"event_id"`
	PublishedAt time.Time         `json:"published_at,omitempty"`
	RetryCount  int               `json:"retry_count"`
	Error       *PublicationError `json:"error,omitempty"`
}

// PublicationError describes why a publish failed and whether retrying the
// same operation may succeed.
type PublicationError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Retryable bool              `json:"retryable"`
}
