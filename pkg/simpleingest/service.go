package simpleingest

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-ingest library.
type Service interface {
	// IngestContent runs the full pipeline for one submission. It always
	// returns a structured result: either a content id with best-effort
	// artifacts, or a non-empty error list. The error return is non-nil only
	// when an unexpected failure aborted the pipeline (the result then
	// carries an INGESTION_FAILED error as well); validation failures return
	// a failure result with a nil error.
	IngestContent(ctx context.Context, req IngestContentRequest) (*ContentIngestionResult, error)

	// UpdateContent applies a partial update and publishes an updated event.
	UpdateContent(ctx context.Context, req UpdateContentRequest) (*StoredContent, error)

	// DeleteContent soft-deletes a content and publishes a deleted event.
	DeleteContent(ctx context.Context, req DeleteContentRequest) error

	// GetContent returns a stored content by id.
	GetContent(ctx context.Context, id uuid.UUID) (*StoredContent, error)

	// ListContent pages through stored content, newest first.
	ListContent(ctx context.Context, req ListContentRequest) (*ListContentResponse, error)
}
