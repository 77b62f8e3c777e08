package simpleingest

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrContentNotFound indicates a stored content was not found
	ErrContentNotFound = errors.New("content not found")

	// ErrNotAuthorized indicates the actor is not the author of the content
	ErrNotAuthorized = errors.New("actor is not authorized for this content")

	// ErrInvalidCursor indicates a malformed pagination cursor
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrBrokerUnavailable indicates the broker rejected or never received a publish
	ErrBrokerUnavailable = errors.New("broker unavailable")
)

// Validation and result error codes.
const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeContentTooLong       = "CONTENT_TOO_LONG"
	CodeInvalidURL           = "INVALID_URL"
	CodeMaliciousContent     = "MALICIOUS_CONTENT_DETECTED"
	CodeInvalidMedia         = "INVALID_MEDIA"
	CodeTooManyTags          = "TOO_MANY_TAGS"
	CodeInvalidTag           = "INVALID_TAG"
	CodeTooManyMentions      = "TOO_MANY_MENTIONS"
	CodeInvalidMention       = "INVALID_MENTION"
	CodeInvalidPoll          = "INVALID_POLL"
	CodeInvalidSchedule      = "INVALID_SCHEDULE"
	CodeInvalidLanguage      = "INVALID_LANGUAGE"
	CodeShortenedURL         = "SHORTENED_URL"
	CodeIngestionFailed      = "INGESTION_FAILED"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
)

// Media processing error codes.
const (
	CodeDownloadFailed    = "DOWNLOAD_FAILED"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeLargeFileSize     = "LARGE_FILE_SIZE"
	CodeProcessingTimeout = "PROCESSING_TIMEOUT"
)

// Publication error codes.
const (
	CodeSerializationError = "SERIALIZATION_ERROR"
	CodeBrokerError        = "BROKER_ERROR"
	CodePublishAuthError   = "PUBLISH_AUTH_ERROR"
)

// IngestError represents an error raised by a pipeline stage for a given
// content.
type IngestError struct {
	ContentID uuid.UUID
	Op        string
	Err       error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest operation %s failed for content %s: %v", e.Op, e.ContentID, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// NonRetryableError marks a broker error that must not be retried (bad
// credentials, permanent rejection). Transports return it wrapped so the
// publisher can classify via errors.As.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable publish error: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}
