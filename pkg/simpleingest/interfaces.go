package simpleingest

import (
	"context"

	"github.com/google/uuid"
)

// ContentRepository defines the interface for stored content persistence.
// Implementations live under repo/ (memory, postgres).
type ContentRepository interface {
	Save(ctx context.Context, content *StoredContent) error
	FindByID(ctx context.Context, id uuid.UUID) (*StoredContent, error)
	Update(ctx context.Context, content *StoredContent) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// FindByAuthor returns up to limit records for an author, newest first,
	// along with an opaque cursor for the next page ("" when exhausted).
	FindByAuthor(ctx context.Context, authorID uuid.UUID, limit int, cursor string) ([]*StoredContent, string, error)

	// FindByFilters returns up to limit records matching the filters, newest
	// first, with the same cursor contract as FindByAuthor.
	FindByFilters(ctx context.Context, filters ContentFilters, limit int, cursor string) ([]*StoredContent, string, error)
}

// ContentFilters defines filtering options for listing stored content.
type ContentFilters struct {
	AuthorID   *uuid.UUID
	Type       *ContentType
	Status     *ContentStatus
	Visibility *Visibility
	Tag        *string
	Sensitive  *bool
}

// Broker is the keyed publish primitive over the message transport.
// Implementations live under broker/ (memory, nats).
type Broker interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// BlobStore holds processed media bytes and mints delivery URLs.
// Implementations live under storage/ (memory, fs, s3).
type BlobStore interface {
	Upload(ctx context.Context, objectKey, contentType string, data []byte) error
	URL(ctx context.Context, objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

// MediaProcessor turns one declared attachment into a ProcessedMedia. It
// never returns an error: all failures are captured in the result's status
// and error list.
type MediaProcessor interface {
	Process(ctx context.Context, attachment MediaAttachment) ProcessedMedia
}

// LinkEnricher fetches page metadata for an extracted link. A fetch failure
// degrades to a minimal record; it never fails the caller.
type LinkEnricher interface {
	Fetch(ctx context.Context, url string) *LinkMetadata
}
