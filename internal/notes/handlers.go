package notes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kartik-py12/NoteScript/internal/identity"
)

// QueryEngine is the engine surface the handlers need. It allows
// unit-testing handlers against a light in-memory engine.
type QueryEngine interface {
	List(ctx context.Context, q Query) ([]Note, PageMeta, error)
	GetOne(ctx context.Context, id string) (Note, error)
	Create(ctx context.Context, authorID string, in NewNote) (Note, error)
	Update(ctx context.Context, id, callerID string, p NotePatch) (Note, error)
	Delete(ctx context.Context, id, callerID string) error
	ToggleLike(ctx context.Context, id, callerID string) (Note, bool, error)
	TagCounts(ctx context.Context) ([]TagCount, error)
}

type Handlers struct {
	engine   QueryEngine
	validate *validator.Validate
}

func NewHandlers(engine QueryEngine) *Handlers {
	return &Handlers{engine: engine, validate: validator.New()}
}

func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/tags/all", h.tags)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/like", h.toggleLike)
	})

	return r
}

// ParseQuery builds a Query from List's URL parameters. Range and enum
// validation happens in the engine; only syntax is checked here.
func ParseQuery(values map[string][]string) (Query, error) {
	get := func(key string) string {
		if vs := values[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	var q Query
	if s := get("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return q, invalid("page", "must be a positive integer")
		}
		q.Page = v
	}
	if s := get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return q, invalid("limit", "must be an integer")
		}
		q.Limit = v
	}
	if s := get("isPublic"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return q, invalid("isPublic", "must be true or false")
		}
		q.Filter.Public = &v
	}
	q.Filter.Author = get("author")
	if s := get("tags"); s != "" {
		q.Filter.Tags = strings.Split(s, ",")
	}
	q.Filter.Search = get("search")
	q.SortBy = SortKey(get("sortBy"))
	q.Order = SortOrder(get("sortOrder"))
	return q, nil
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	// Private notes are listable only by their owner. Unless the caller
	// is authenticated and filtering by their own author id, the query
	// is pinned to public notes, whatever isPublic said.
	caller, authed := identity.FromContext(r.Context())
	if !authed || q.Filter.Author != caller {
		public := true
		q.Filter.Public = &public
	}

	items, meta, err := h.engine.List(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes":      items,
		"pagination": meta,
	})
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.GetOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": n})
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errBody("authentication required"))
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("invalid json"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}

	n, err := h.engine.Create(r.Context(), callerID, NewNote{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Note created successfully",
		"note":    n,
	})
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errBody("authentication required"))
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("invalid json"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}

	n, err := h.engine.Update(r.Context(), chi.URLParam(r, "id"), callerID, NotePatch{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Note updated successfully",
		"note":    n,
	})
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errBody("authentication required"))
		return
	}

	if err := h.engine.Delete(r.Context(), chi.URLParam(r, "id"), callerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, errBody("Note deleted successfully"))
}

func (h *Handlers) toggleLike(w http.ResponseWriter, r *http.Request) {
	callerID, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errBody("authentication required"))
		return
	}

	n, liked, err := h.engine.ToggleLike(r.Context(), chi.URLParam(r, "id"), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	msg := "Note unliked"
	if liked {
		msg = "Note liked"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": msg,
		"note":    n,
		"isLiked": liked,
	})
}

func (h *Handlers) tags(w http.ResponseWriter, r *http.Request) {
	counts, err := h.engine.TagCounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": counts})
}

func errBody(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation failed",
			"errors":  []map[string]string{{"field": ve.Field, "message": ve.Message}},
		})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody("Note not found"))
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, errBody("Not authorized"))
	case errors.Is(err, ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errBody("Service temporarily unavailable"))
	default:
		writeJSON(w, http.StatusInternalServerError, errBody("Server error"))
	}
}

// writeValidation renders validator.v10 failures with field messages,
// matching writeError's shape for engine-side validation.
func writeValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errBody("Validation failed"))
		return
	}
	fields := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, map[string]string{
			"field":   strings.ToLower(fe.Field()),
			"message": "failed " + fe.Tag() + " validation",
		})
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation failed",
		"errors":  fields,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
