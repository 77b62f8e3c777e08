// Package memory provides an in-memory simpleingest.ContentRepository,
// useful for tests and development.
package memory

import (
	"context"
	"encoding/base64"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-ingest/pkg/simpleingest"
)

// Repository implements simpleingest.ContentRepository using in-memory maps.
type Repository struct {
	mu       sync.RWMutex
	contents map[uuid.UUID]*simpleingest.StoredContent
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{
		contents: make(map[uuid.UUID]*simpleingest.StoredContent),
	}
}

func (r *Repository) Save(ctx context.Context, content *simpleingest.StoredContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications.
	contentCopy := *content
	r.contents[content.ID] = &contentCopy
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*simpleingest.StoredContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	content, exists := r.contents[id]
	if !exists || content.DeletedAt != nil {
		return nil, simpleingest.ErrContentNotFound
	}
	contentCopy := *content
	return &contentCopy, nil
}

func (r *Repository) Update(ctx context.Context, content *simpleingest.StoredContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contents[content.ID]; !exists {
		return simpleingest.ErrContentNotFound
	}
	contentCopy := *content
	r.contents[content.ID] = &contentCopy
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, exists := r.contents[id]
	if !exists || content.DeletedAt != nil {
		return simpleingest.ErrContentNotFound
	}
	now := time.Now().UTC()
	content.DeletedAt = &now
	content.Status = simpleingest.ContentStatusDeleted
	return nil
}

func (r *Repository) FindByAuthor(ctx context.Context, authorID uuid.UUID, limit int, cursor string) ([]*simpleingest.StoredContent, string, error) {
	filters := simpleingest.ContentFilters{AuthorID: &authorID}
	return r.FindByFilters(ctx, filters, limit, cursor)
}

func (r *Repository) FindByFilters(ctx context.Context, filters simpleingest.ContentFilters, limit int, cursor string) ([]*simpleingest.StoredContent, string, error) {
	before, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	r.mu.RLock()
	var matched []*simpleingest.StoredContent
	for _, c := range r.contents {
		if c.DeletedAt != nil {
			continue
		}
		if !matches(c, filters) {
			continue
		}
		if before != nil && !c.CreatedAt.Before(*before) {
			continue
		}
		contentCopy := *c
		matched = append(matched, &contentCopy)
	}
	r.mu.RUnlock()

	// Newest first.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	next := ""
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
		next = encodeCursor(matched[len(matched)-1].CreatedAt)
	}
	return matched, next, nil
}

func matches(c *simpleingest.StoredContent, f simpleingest.ContentFilters) bool {
	if f.AuthorID != nil && c.AuthorID != *f.AuthorID {
		return false
	}
	if f.Type != nil && c.Type != *f.Type {
		return false
	}
	if f.Status != nil && c.Status != *f.Status {
		return false
	}
	if f.Visibility != nil && c.Visibility != *f.Visibility {
		return false
	}
	if f.Sensitive != nil && c.Sensitive != *f.Sensitive {
		return false
	}
	if f.Tag != nil {
		found := false
		for _, t := range c.Tags {
			if t == *f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func encodeCursor(t time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(t.Format(time.RFC3339Nano)))
}

func decodeCursor(cursor string) (*time.Time, error) {
	if cursor == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, simpleingest.ErrInvalidCursor
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return nil, simpleingest.ErrInvalidCursor
	}
	return &t, nil
}
