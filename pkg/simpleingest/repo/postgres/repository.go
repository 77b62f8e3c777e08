// Package postgres provides a PostgreSQL-backed
// simpleingest.ContentRepository. Media, metadata and poll payloads are
// stored as JSONB alongside the scalar columns used for filtering.
package postgres

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-ingest/pkg/simpleingest"
)

// DBTX allows using either a connection pool or a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simpleingest.ContentRepository using PostgreSQL.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository.
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const insertQuery = `
	INSERT INTO stored_content (
		id, author_id, content_type, body_text, link_url, media, metadata,
		visibility, tags, mentions, poll, sensitive, language,
		scheduled_at, status, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const selectColumns = `
	id, author_id, content_type, body_text, link_url, media, metadata,
	visibility, tags, mentions, poll, sensitive, language,
	scheduled_at, status, created_at, updated_at, deleted_at`

func (r *Repository) Save(ctx context.Context, content *simpleingest.StoredContent) error {
	media, metadata, poll, err := marshalPayloads(content)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, insertQuery,
		content.ID, content.AuthorID, string(content.Type), content.Text,
		content.LinkURL, media, metadata, string(content.Visibility),
		content.Tags, content.Mentions, poll, content.Sensitive,
		content.Language, content.ScheduledAt, string(content.Status),
		content.CreatedAt, content.UpdatedAt)
	if err != nil {
		return wrapPgError("save", err)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*simpleingest.StoredContent, error) {
	query := `SELECT ` + selectColumns + ` FROM stored_content WHERE id = $1 AND deleted_at IS NULL`
	content, err := scanContent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleingest.ErrContentNotFound
		}
		return nil, wrapPgError("find", err)
	}
	return content, nil
}

func (r *Repository) Update(ctx context.Context, content *simpleingest.StoredContent) error {
	media, metadata, poll, err := marshalPayloads(content)
	if err != nil {
		return err
	}

	query := `
		UPDATE stored_content SET
			body_text = $2, link_url = $3, media = $4, metadata = $5,
			visibility = $6, tags = $7, mentions = $8, poll = $9,
			sensitive = $10, language = $11, scheduled_at = $12,
			status = $13, updated_at = $14
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		content.ID, content.Text, content.LinkURL, media, metadata,
		string(content.Visibility), content.Tags, content.Mentions, poll,
		content.Sensitive, content.Language, content.ScheduledAt,
		string(content.Status), content.UpdatedAt)
	if err != nil {
		return wrapPgError("update", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleingest.ErrContentNotFound
	}
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE stored_content
		SET deleted_at = $2, status = $3, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, time.Now().UTC(), string(simpleingest.ContentStatusDeleted))
	if err != nil {
		return wrapPgError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleingest.ErrContentNotFound
	}
	return nil
}

func (r *Repository) FindByAuthor(ctx context.Context, authorID uuid.UUID, limit int, cursor string) ([]*simpleingest.StoredContent, string, error) {
	filters := simpleingest.ContentFilters{AuthorID: &authorID}
	return r.FindByFilters(ctx, filters, limit, cursor)
}

func (r *Repository) FindByFilters(ctx context.Context, filters simpleingest.ContentFilters, limit int, cursor string) ([]*simpleingest.StoredContent, string, error) {
	conds := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.AuthorID != nil {
		conds = append(conds, "author_id = "+arg(*filters.AuthorID))
	}
	if filters.Type != nil {
		conds = append(conds, "content_type = "+arg(string(*filters.Type)))
	}
	if filters.Status != nil {
		conds = append(conds, "status = "+arg(string(*filters.Status)))
	}
	if filters.Visibility != nil {
		conds = append(conds, "visibility = "+arg(string(*filters.Visibility)))
	}
	if filters.Sensitive != nil {
		conds = append(conds, "sensitive = "+arg(*filters.Sensitive))
	}
	if filters.Tag != nil {
		conds = append(conds, arg(*filters.Tag)+" = ANY(tags)")
	}
	if cursor != "" {
		before, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		conds = append(conds, "created_at < "+arg(before))
	}

	query := `SELECT ` + selectColumns + ` FROM stored_content WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY created_at DESC`
	if limit > 0 {
		// Fetch one extra row to learn whether a next page exists.
		query += " LIMIT " + arg(limit+1)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, "", wrapPgError("list", err)
	}
	defer rows.Close()

	var items []*simpleingest.StoredContent
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, "", wrapPgError("list", err)
		}
		items = append(items, content)
	}
	if err := rows.Err(); err != nil {
		return nil, "", wrapPgError("list", err)
	}

	next := ""
	if limit > 0 && len(items) > limit {
		items = items[:limit]
		next = encodeCursor(items[len(items)-1].CreatedAt)
	}
	return items, next, nil
}

func marshalPayloads(content *simpleingest.StoredContent) ([]byte, []byte, []byte, error) {
	media, err := json.Marshal(content.Media)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal media: %w", err)
	}
	metadata, err := json.Marshal(content.Metadata)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal metadata: %w", err)
	}
	poll, err := json.Marshal(content.Poll)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal poll: %w", err)
	}
	return media, metadata, poll, nil
}

func scanContent(row pgx.Row) (*simpleingest.StoredContent, error) {
	var (
		c                     simpleingest.StoredContent
		contentType           string
		visibility            string
		status                string
		media, metadata, poll []byte
	)
	err := row.Scan(&c.ID, &c.AuthorID, &contentType, &c.Text, &c.LinkURL,
		&media, &metadata, &visibility, &c.Tags, &c.Mentions, &poll,
		&c.Sensitive, &c.Language, &c.ScheduledAt, &status,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		return nil, err
	}
	c.Type = simpleingest.ContentType(contentType)
	c.Visibility = simpleingest.Visibility(visibility)
	c.Status = simpleingest.ContentStatus(status)

	if len(media) > 0 {
		if err := json.Unmarshal(media, &c.Media); err != nil {
			return nil, fmt.Errorf("unmarshal media: %w", err)
		}
	}
	if len(metadata) > 0 && string(metadata) != "null" {
		c.Metadata = &simpleingest.ExtractedMetadata{}
		if err := json.Unmarshal(metadata, c.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if len(poll) > 0 && string(poll) != "null" {
		c.Poll = &simpleingest.PollData{}
		if err := json.Unmarshal(poll, c.Poll); err != nil {
			return nil, fmt.Errorf("unmarshal poll: %w", err)
		}
	}
	return &c, nil
}

func wrapPgError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("duplicate content in %s", operation)
		case "42P01":
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func encodeCursor(t time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(t.Format(time.RFC3339Nano)))
}

func decodeCursor(cursor string) (time.Time, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, simpleingest.ErrInvalidCursor
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, simpleingest.ErrInvalidCursor
	}
	return t, nil
}
