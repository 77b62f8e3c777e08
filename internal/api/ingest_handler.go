// Package api exposes the ingestion service over HTTP. The handlers are a
// thin mapping: all pipeline semantics live in pkg/simpleingest.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-ingest/pkg/simpleingest"
)

// actorHeader carries the already-authenticated actor id. Authentication
// itself happens upstream.
const actorHeader = "X-Actor-ID"

// IngestHandler handles HTTP requests for content ingestion.
type IngestHandler struct {
	service simpleingest.Service
}

// NewIngestHandler creates a new ingestion handler.
func NewIngestHandler(service simpleingest.Service) *IngestHandler {
	return &IngestHandler{service: service}
}

// Routes returns the routes for content ingestion.
func (h *IngestHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.IngestContent)
	r.Get("/", h.ListContent)
	r.Get("/{id}", h.GetContent)
	r.Put("/{id}", h.UpdateContent)
	r.Delete("/{id}", h.DeleteContent)

	return r
}

// UpdateContentBody is the request body for a partial update.
type UpdateContentBody struct {
	Text       *string                  `json:"text,omitempty"`
	Visibility *simpleingest.Visibility `json:"visibility,omitempty"`
	Tags       *[]string                `json:"tags,omitempty"`
	Sensitive  *bool                    `json:"sensitive,omitempty"`
}

// IngestContent runs the full pipeline for a submitted content.
func (h *IngestHandler) IngestContent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}

	var sub simpleingest.ContentSubmission
	if err := render.DecodeJSON(r.Body, &sub); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, _ := h.service.IngestContent(r.Context(), simpleingest.IngestContentRequest{
		ActorID:    actorID,
		Submission: sub,
	})

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
		for _, e := range result.Errors {
			if e.Code == simpleingest.CodeServiceUnavailable {
				status = http.StatusServiceUnavailable
			}
			if e.Code == simpleingest.CodeIngestionFailed {
				status = http.StatusInternalServerError
			}
		}
	}
	render.Status(r, status)
	render.JSON(w, r, result)
}

// GetContent returns a stored content by id.
func (h *IngestHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	content, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		h.renderError(w, err)
		return
	}
	render.JSON(w, r, content)
}

// UpdateContent applies a partial update as the acting author.
func (h *IngestHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	var body UpdateContentBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	content, err := h.service.UpdateContent(r.Context(), simpleingest.UpdateContentRequest{
		ActorID:    actorID,
		ContentID:  id,
		Text:       body.Text,
		Visibility: body.Visibility,
		Tags:       body.Tags,
		Sensitive:  body.Sensitive,
	})
	if err != nil {
		h.renderError(w, err)
		return
	}
	render.JSON(w, r, content)
}

// DeleteContent soft-deletes a content as the acting author.
func (h *IngestHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteContent(r.Context(), simpleingest.DeleteContentRequest{
		ActorID:   actorID,
		ContentID: id,
	}); err != nil {
		h.renderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListContent pages through stored content, optionally filtered by author.
func (h *IngestHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	var filters simpleingest.ContentFilters
	if author := r.URL.Query().Get("author_id"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			http.Error(w, "invalid author id", http.StatusBadRequest)
			return
		}
		filters.AuthorID = &id
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	resp, err := h.service.ListContent(r.Context(), simpleingest.ListContentRequest{
		Filters: filters,
		Limit:   limit,
		Cursor:  r.URL.Query().Get("cursor"),
	})
	if err != nil {
		h.renderError(w, err)
		return
	}
	render.JSON(w, r, resp)
}

func (h *IngestHandler) actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actorID, err := uuid.Parse(r.Header.Get(actorHeader))
	if err != nil {
		http.Error(w, "missing or invalid "+actorHeader+" header", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return actorID, true
}

func (h *IngestHandler) renderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, simpleingest.ErrContentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, simpleingest.ErrNotAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, simpleingest.ErrInvalidCursor):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
