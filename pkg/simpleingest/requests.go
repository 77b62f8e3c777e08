package simpleingest

import (
	"github.com/google/uuid"
)

// IngestContentRequest carries a submission plus the already-authenticated
// actor who made it.
type IngestContentRequest struct {
	ActorID    uuid.UUID
	Submission ContentSubmission
}

// UpdateContentRequest carries a partial update. Nil fields are left
// untouched. Only the original author may update.
type UpdateContentRequest struct {
	ActorID    uuid.UUID
	ContentID  uuid.UUID
	Text       *string
	Visibility *Visibility
	Tags       *[]string
	Sensitive  *bool
}

// DeleteContentRequest soft-deletes a content. Only the original author may
// delete.
type DeleteContentRequest struct {
	ActorID   uuid.UUID
	ContentID uuid.UUID
}

// ListContentRequest pages through stored content, newest first. Cursor is
// the opaque value returned by a previous call ("" for the first page).
type ListContentRequest struct {
	Filters ContentFilters
	Limit   int
	Cursor  string
}

// ListContentResponse is one page of stored content.
type ListContentResponse struct {
	Items      []*StoredContent `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
