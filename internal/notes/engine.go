package notes

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kartik-py12/NoteScript/internal/mathx"
	"github.com/kartik-py12/NoteScript/internal/stringsx"
)

// Query is the full specification of a List call.
type Query struct {
	Filter Filter
	SortBy SortKey
	Order  SortOrder
	Page   int
	Limit  int
}

// normalized fills defaults and validates ranges. Returned errors are
// *ValidationError.
func (q Query) normalized() (Query, error) {
	if q.SortBy == "" {
		q.SortBy = SortUpdatedAt
	} else if _, err := ParseSortKey(string(q.SortBy)); err != nil {
		return q, err
	}
	if q.Order == "" {
		q.Order = OrderDesc
	} else if _, err := ParseSortOrder(string(q.Order)); err != nil {
		return q, err
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	} else if q.Page < 1 {
		return q, invalid("page", "must be a positive integer")
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	} else if q.Limit < 1 || q.Limit > MaxLimit {
		return q, invalid("limit", "must be between 1 and 100")
	}
	q.Filter = q.Filter.Normalized()
	return q, nil
}

// Store is the storage collaborator behind the engine. Implementations
// must make IncrementViews, AddLike and RemoveLike atomic read-modify-
// write operations so concurrent requests on the same note do not lose
// updates.
type Store interface {
	// Find returns the active notes matching q.Filter, ordered by
	// q.SortBy/q.Order and windowed to q.Page/q.Limit.
	Find(ctx context.Context, q Query) ([]Note, error)
	// Count returns the number of active notes matching f.
	Count(ctx context.Context, f Filter) (int, error)
	// FindByID returns the note (active or not) or ErrNotFound.
	FindByID(ctx context.Context, id string) (Note, error)
	Insert(ctx context.Context, n Note) (Note, error)
	// Update applies the patch and refreshes updatedAt in a single
	// atomic write against an active note.
	Update(ctx context.Context, id string, p NotePatch, updatedAt time.Time) (Note, error)
	// Deactivate soft-deletes an active note.
	Deactivate(ctx context.Context, id string) error
	// IncrementViews bumps views by one on an active note and
	// returns the updated note.
	IncrementViews(ctx context.Context, id string) (Note, error)
	// AddLike and RemoveLike adjust the likes set of an active note,
	// keyed by user id; a user appears at most once.
	AddLike(ctx context.Context, id, userID string) (Note, error)
	RemoveLike(ctx context.Context, id, userID string) (Note, error)
	// TagCounts aggregates tags over active notes, most used first.
	TagCounts(ctx context.Context, limit int) ([]TagCount, error)
	// AuthorStats aggregates one author's active notes.
	AuthorStats(ctx context.Context, authorID string) (AuthorStats, error)
}

// Engine is the authoritative query engine: it validates input, applies
// the authorization guard and delegates reads and atomic writes to the
// storage collaborator.
type Engine struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewEngine(store Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, log: log, now: time.Now}
}

// List returns the filtered, sorted, paginated note sequence with its
// metadata. Empty results are not an error.
func (e *Engine) List(ctx context.Context, q Query) ([]Note, PageMeta, error) {
	q, err := q.normalized()
	if err != nil {
		return nil, PageMeta{}, err
	}

	items, err := e.store.Find(ctx, q)
	if err != nil {
		return nil, PageMeta{}, unavailable("list notes", err)
	}
	for i := range items {
		items[i] = items[i].withLikeCount()
	}
	total, err := e.store.Count(ctx, q.Filter)
	if err != nil {
		return nil, PageMeta{}, unavailable("count notes", err)
	}

	meta := PageMeta{
		Current: q.Page,
		Pages:   mathx.CeilDiv(total, q.Limit),
		Total:   total,
		Limit:   q.Limit,
	}
	return items, meta, nil
}

// GetOne returns the single active note, atomically incrementing its
// view counter. The increment is committed before the response is
// written, so a retried request counts twice. No visibility gating
// happens here; whether a private note is shown to a non-owner is the
// caller's policy.
func (e *Engine) GetOne(ctx context.Context, id string) (Note, error) {
	if err := validateID("id", id); err != nil {
		return Note{}, err
	}
	n, err := e.store.IncrementViews(ctx, id)
	if err != nil {
		return Note{}, storeErr("get note", err)
	}
	return n.withLikeCount(), nil
}

// Create stores a new note owned by authorID. Tags are normalized;
// timestamps and the id are assigned here.
func (e *Engine) Create(ctx context.Context, authorID string, in NewNote) (Note, error) {
	if err := validateID("author", authorID); err != nil {
		return Note{}, err
	}
	if stringsx.IsEmpty(in.Title) {
		return Note{}, invalid("title", "is required")
	}
	if utf8.RuneCountInString(in.Title) > 200 {
		return Note{}, invalid("title", "must be at most 200 characters")
	}
	if in.Content == "" {
		return Note{}, invalid("content", "is required")
	}

	now := e.now().UTC()
	n := Note{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Tags:      NormalizeTags(in.Tags),
		IsPublic:  in.IsPublic,
		Author:    Author{ID: authorID},
		Likes:     []string{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	stored, err := e.store.Insert(ctx, n)
	if err != nil {
		return Note{}, storeErr("create note", err)
	}
	e.log.Info("note created", "note_id", stored.ID, "author_id", authorID, "public", stored.IsPublic)
	return stored.withLikeCount(), nil
}

// Update applies the patch after the guard passes. The inactive check
// runs before the ownership check, so a non-owner probing a deleted
// note sees NotFound, never Forbidden. The write is all-or-nothing:
// updatedAt refreshes only together with the field changes.
func (e *Engine) Update(ctx context.Context, id, callerID string, p NotePatch) (Note, error) {
	if err := validateID("id", id); err != nil {
		return Note{}, err
	}
	if p.Title != nil {
		if stringsx.IsEmpty(*p.Title) {
			return Note{}, invalid("title", "is required")
		}
		if utf8.RuneCountInString(*p.Title) > 200 {
			return Note{}, invalid("title", "must be at most 200 characters")
		}
	}
	if p.Content != nil && *p.Content == "" {
		return Note{}, invalid("content", "is required")
	}
	if p.Tags != nil {
		normalized := NormalizeTags(*p.Tags)
		p.Tags = &normalized
	}

	if err := e.guardOwner(ctx, id, callerID); err != nil {
		return Note{}, err
	}

	n, err := e.store.Update(ctx, id, p, e.now().UTC())
	if err != nil {
		return Note{}, storeErr("update note", err)
	}
	return n.withLikeCount(), nil
}

// Delete soft-deletes the note. The record is retained; the flag is
// terminal and no operation reactivates it.
func (e *Engine) Delete(ctx context.Context, id, callerID string) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	if err := e.guardOwner(ctx, id, callerID); err != nil {
		return err
	}
	if err := e.store.Deactivate(ctx, id); err != nil {
		return storeErr("delete note", err)
	}
	e.log.Info("note deactivated", "note_id", id, "caller_id", callerID)
	return nil
}

// ToggleLike flips callerID's membership in the likes set of a public
// note. Private notes refuse with Forbidden even for the owner. The
// returned bool reports whether the note is liked after the call.
func (e *Engine) ToggleLike(ctx context.Context, id, callerID string) (Note, bool, error) {
	if err := validateID("id", id); err != nil {
		return Note{}, false, err
	}
	if err := validateID("caller", callerID); err != nil {
		return Note{}, false, err
	}

	n, err := e.store.FindByID(ctx, id)
	if err != nil {
		return Note{}, false, storeErr("toggle like", err)
	}
	if !n.IsActive {
		return Note{}, false, ErrNotFound
	}
	if !n.IsPublic {
		return Note{}, false, ErrForbidden
	}

	var updated Note
	liked := !n.LikedBy(callerID)
	if liked {
		updated, err = e.store.AddLike(ctx, id, callerID)
	} else {
		updated, err = e.store.RemoveLike(ctx, id, callerID)
	}
	if err != nil {
		return Note{}, false, storeErr("toggle like", err)
	}
	return updated.withLikeCount(), liked, nil
}

// TagCounts lists the distinct tags across active notes with usage
// counts, most used first, capped at 100 entries.
func (e *Engine) TagCounts(ctx context.Context) ([]TagCount, error) {
	counts, err := e.store.TagCounts(ctx, 100)
	if err != nil {
		return nil, unavailable("aggregate tags", err)
	}
	return counts, nil
}

// Stats returns the dashboard aggregate for authorID. Callers may only
// read their own stats.
func (e *Engine) Stats(ctx context.Context, authorID, callerID string) (AuthorStats, error) {
	if err := validateID("id", authorID); err != nil {
		return AuthorStats{}, err
	}
	if authorID != callerID {
		return AuthorStats{}, ErrForbidden
	}
	s, err := e.store.AuthorStats(ctx, authorID)
	if err != nil {
		return AuthorStats{}, unavailable("author stats", err)
	}
	return s, nil
}

// Count exposes the storage count for callers composing their own
// filters (user profile public-note counts).
func (e *Engine) Count(ctx context.Context, f Filter) (int, error) {
	total, err := e.store.Count(ctx, f.Normalized())
	if err != nil {
		return 0, unavailable("count notes", err)
	}
	return total, nil
}

// guardOwner enforces the mutation guard: active first, then owner.
func (e *Engine) guardOwner(ctx context.Context, id, callerID string) error {
	n, err := e.store.FindByID(ctx, id)
	if err != nil {
		return storeErr("load note", err)
	}
	if !n.IsActive {
		return ErrNotFound
	}
	if n.Author.ID != callerID {
		return ErrForbidden
	}
	return nil
}

func validateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid(field, "invalid id format")
	}
	return nil
}

// storeErr keeps the sentinel taxonomy: NotFound passes through,
// anything else becomes Unavailable.
func storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return unavailable(op, err)
}
