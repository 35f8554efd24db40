package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kartik-py12/NoteScript/internal/identity"
	"github.com/kartik-py12/NoteScript/internal/notes"
)

// Store abstracts user lookups for handler tests.
type Store interface {
	FindByID(ctx context.Context, id string) (User, error)
}

// NoteEngine is the slice of the notes engine the user endpoints use.
type NoteEngine interface {
	List(ctx context.Context, q notes.Query) ([]notes.Note, notes.PageMeta, error)
	Count(ctx context.Context, f notes.Filter) (int, error)
	Stats(ctx context.Context, authorID, callerID string) (notes.AuthorStats, error)
}

type Handlers struct {
	store Store
	notes NoteEngine
}

func NewHandlers(store Store, engine NoteEngine) *Handlers {
	return &Handlers{store: store, notes: engine}
}

func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.profile)
		r.Get("/notes", h.publicNotes)
		r.Get("/stats", h.stats)
	})

	return r
}

// profile returns the public view of a user together with the count of
// their public notes.
func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadActive(w, r)
	if !ok {
		return
	}

	public := true
	count, err := h.notes.Count(r.Context(), notes.Filter{Public: &public, Author: u.ID})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errBody("Service temporarily unavailable"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": Profile{
			ID:               u.ID,
			Name:             u.Name,
			Email:            u.Email,
			CreatedAt:        u.CreatedAt,
			PublicNotesCount: count,
		},
	})
}

// publicNotes lists a user's public notes through the same query
// engine that backs /api/notes, with the visibility pinned.
func (h *Handlers) publicNotes(w http.ResponseWriter, r *http.Request) {
	u, ok := h.loadActive(w, r)
	if !ok {
		return
	}

	q, err := notes.ParseQuery(r.URL.Query())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	public := true
	q.Filter.Public = &public
	q.Filter.Author = u.ID

	items, meta, err := h.notes.List(r.Context(), q)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":       map[string]string{"id": u.ID, "name": u.Name, "email": u.Email},
		"notes":      items,
		"pagination": meta,
	})
}

// stats is owner-only: requesting another user's dashboard is refused.
func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	callerID, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errBody("authentication required"))
		return
	}

	stats, err := h.notes.Stats(r.Context(), chi.URLParam(r, "id"), callerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handlers) loadActive(w http.ResponseWriter, r *http.Request) (User, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("Invalid user ID format"))
		return User{}, false
	}

	u, err := h.store.FindByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errBody("User not found"))
		return User{}, false
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errBody("Service temporarily unavailable"))
		return User{}, false
	}
	if !u.IsActive {
		writeJSON(w, http.StatusNotFound, errBody("User not found"))
		return User{}, false
	}
	return u, true
}

func errBody(msg string) map[string]string {
	return map[string]string{"message": msg}
}

func writeEngineError(w http.ResponseWriter, err error) {
	var ve *notes.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation failed",
			"errors":  []map[string]string{{"field": ve.Field, "message": ve.Message}},
		})
	case errors.Is(err, notes.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errBody("Not authorized to view these statistics"))
	case errors.Is(err, notes.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody("Not found"))
	default:
		writeJSON(w, http.StatusServiceUnavailable, errBody("Service temporarily unavailable"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
