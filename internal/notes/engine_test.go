package notes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	alice = Author{ID: uuid.NewString(), Name: "Alice", Email: "alice@example.com"}
	bob   = Author{ID: uuid.NewString(), Name: "Bob", Email: "bob@example.com"}
)

func testEngine(t *testing.T) (*Engine, *MemStore) {
	t.Helper()
	store := NewMemStore()
	store.PutAuthor(alice)
	store.PutAuthor(bob)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(store, log), store
}

func mustCreate(t *testing.T, e *Engine, authorID string, in NewNote) Note {
	t.Helper()
	n, err := e.Create(context.Background(), authorID, in)
	require.NoError(t, err)
	return n
}

func TestEngine_Create_NormalizesTags(t *testing.T) {
	e, _ := testEngine(t)

	n := mustCreate(t, e, alice.ID, NewNote{
		Title:   "Tagged",
		Content: "<p>x</p>",
		Tags:    []string{"  Work ", "WORK", "urgent"},
	})
	require.Equal(t, []string{"work", "urgent"}, n.Tags)
	require.Equal(t, alice.Name, n.Author.Name)
	require.False(t, n.IsPublic)
	require.Equal(t, n.CreatedAt, n.UpdatedAt)
}

func TestEngine_Create_Validation(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	var ve *ValidationError

	_, err := e.Create(ctx, alice.ID, NewNote{Title: "  ", Content: "x"})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "title", ve.Field)

	_, err = e.Create(ctx, alice.ID, NewNote{Title: "t", Content: ""})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "content", ve.Field)

	_, err = e.Create(ctx, "not-a-uuid", NewNote{Title: "t", Content: "c"})
	require.ErrorAs(t, err, &ve)

	_, err = e.Create(ctx, alice.ID, NewNote{Title: strings.Repeat("x", 201), Content: "c"})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "title", ve.Field)
}

func TestEngine_TitleLimitCountsCharacters(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	// 150 two-byte runes exceed 200 bytes but not 200 characters.
	title := strings.Repeat("é", 150)
	n := mustCreate(t, e, alice.ID, NewNote{Title: title, Content: "c"})
	require.Equal(t, title, n.Title)

	long := strings.Repeat("é", 201)
	_, err := e.Update(ctx, n.ID, alice.ID, NotePatch{Title: &long})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "title", ve.Field)
}

func TestEngine_List_DefaultsAndValidation(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	t.Run("defaults on empty query", func(t *testing.T) {
		_, meta, err := e.List(ctx, Query{})
		require.NoError(t, err)
		require.Equal(t, 1, meta.Current)
		require.Equal(t, 10, meta.Limit)
	})

	t.Run("bad page", func(t *testing.T) {
		_, _, err := e.List(ctx, Query{Page: -1})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, "page", ve.Field)
	})

	t.Run("limit out of range", func(t *testing.T) {
		_, _, err := e.List(ctx, Query{Limit: 101})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, "limit", ve.Field)
	})

	t.Run("unknown sort key", func(t *testing.T) {
		_, _, err := e.List(ctx, Query{SortBy: "likes"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, "sortBy", ve.Field)
	})
}

func TestEngine_List_PaginatesAcrossCollection(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		mustCreate(t, e, alice.ID, NewNote{Title: "note", Content: "c", IsPublic: true})
	}

	items, meta, err := e.List(ctx, Query{Page: 3, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 5)
	require.Equal(t, PageMeta{Current: 3, Pages: 3, Total: 25, Limit: 10}, meta)

	items, meta, err = e.List(ctx, Query{Page: 7, Limit: 10})
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, 3, meta.Pages)
}

func TestEngine_List_EmptySearchEqualsNoSearch(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	mustCreate(t, e, alice.ID, NewNote{Title: "a", Content: "c"})
	mustCreate(t, e, bob.ID, NewNote{Title: "b", Content: "c"})

	plain, _, err := e.List(ctx, Query{})
	require.NoError(t, err)
	blank, _, err := e.List(ctx, Query{Filter: Filter{Search: ""}})
	require.NoError(t, err)
	require.Equal(t, idsOf(plain), idsOf(blank))
}

func TestEngine_List_NeverReturnsDeleted(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	kept := mustCreate(t, e, alice.ID, NewNote{Title: "kept", Content: "c", IsPublic: true})
	gone := mustCreate(t, e, alice.ID, NewNote{Title: "gone", Content: "c", IsPublic: true, Tags: []string{"x"}})
	require.NoError(t, e.Delete(ctx, gone.ID, alice.ID))

	for _, q := range []Query{
		{},
		{Filter: Filter{Public: boolPtr(true)}},
		{Filter: Filter{Author: alice.ID}},
		{Filter: Filter{Tags: []string{"x"}}},
		{Filter: Filter{Search: "gone"}},
	} {
		items, _, err := e.List(ctx, q)
		require.NoError(t, err)
		for _, n := range items {
			require.Equal(t, kept.ID, n.ID)
		}
	}

	_, err := e.GetOne(ctx, gone.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_GetOne_IncrementsViewsExactly(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "seen", Content: "c"})
	require.EqualValues(t, 0, n.Views)

	got, err := e.GetOne(ctx, n.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.Views)

	got, err = e.GetOne(ctx, n.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.Views)
}

func TestEngine_GetOne_NoVisibilityGate(t *testing.T) {
	e, _ := testEngine(t)

	// Private notes are fetchable by id; gating is caller policy.
	n := mustCreate(t, e, alice.ID, NewNote{Title: "private", Content: "c", IsPublic: false})
	got, err := e.GetOne(context.Background(), n.ID)
	require.NoError(t, err)
	require.Equal(t, n.ID, got.ID)
}

func TestEngine_GetOne_InvalidID(t *testing.T) {
	e, _ := testEngine(t)
	_, err := e.GetOne(context.Background(), "42")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestEngine_Update_OwnerOnly(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "original", Content: "c"})

	title := "hijacked"
	_, err := e.Update(ctx, n.ID, bob.ID, NotePatch{Title: &title})
	require.ErrorIs(t, err, ErrForbidden)

	// The note is unchanged after the refused attempt.
	got, err := e.GetOne(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, "original", got.Title)
}

func TestEngine_Update_PatchSemantics(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "t", Content: "c", Tags: []string{"old"}})

	pub := true
	tags := []string{" NEW ", "new"}
	updated, err := e.Update(ctx, n.ID, alice.ID, NotePatch{IsPublic: &pub, Tags: &tags})
	require.NoError(t, err)

	require.Equal(t, "t", updated.Title)
	require.Equal(t, "c", updated.Content)
	require.True(t, updated.IsPublic)
	require.Equal(t, []string{"new"}, updated.Tags)
	require.True(t, updated.UpdatedAt.After(n.UpdatedAt) || updated.UpdatedAt.Equal(n.UpdatedAt))
	require.Equal(t, n.CreatedAt, updated.CreatedAt)
}

func TestEngine_Mutations_NotFoundBeforeForbidden(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "t", Content: "c"})
	require.NoError(t, e.Delete(ctx, n.ID, alice.ID))

	// A non-owner probing the deleted note must see NotFound, not
	// Forbidden, so deletion does not leak through error codes.
	title := "x"
	_, err := e.Update(ctx, n.ID, bob.ID, NotePatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)

	err = e.Delete(ctx, n.ID, bob.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = e.ToggleLike(ctx, n.ID, bob.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_Delete_IsTerminal(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "t", Content: "c"})
	require.NoError(t, e.Delete(ctx, n.ID, alice.ID))

	// Even the owner cannot touch it again.
	require.ErrorIs(t, e.Delete(ctx, n.ID, alice.ID), ErrNotFound)
	title := "back"
	_, err := e.Update(ctx, n.ID, alice.ID, NotePatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_ToggleLike_PublicNote(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "t", Content: "c", IsPublic: true})

	liked, isLiked, err := e.ToggleLike(ctx, n.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, isLiked)
	require.Equal(t, []string{bob.ID}, liked.Likes)
	require.Equal(t, 1, liked.LikeCount)

	// The second toggle returns the set to its original membership.
	unliked, isLiked, err := e.ToggleLike(ctx, n.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, isLiked)
	require.Empty(t, unliked.Likes)
}

func TestEngine_ToggleLike_PrivateForbiddenEvenForOwner(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "t", Content: "c", IsPublic: false})

	_, _, err := e.ToggleLike(ctx, n.ID, alice.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, _, err = e.ToggleLike(ctx, n.ID, bob.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestEngine_ToggleLike_FrozenWhenMadePrivate(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "t", Content: "c", IsPublic: true})
	_, _, err := e.ToggleLike(ctx, n.ID, bob.ID)
	require.NoError(t, err)

	priv := false
	updated, err := e.Update(ctx, n.ID, alice.ID, NotePatch{IsPublic: &priv})
	require.NoError(t, err)

	// Existing likes persist while private, but no further toggles.
	require.Equal(t, []string{bob.ID}, updated.Likes)
	_, _, err = e.ToggleLike(ctx, n.ID, bob.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestMemStore_LikeOnDeactivatedNote(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	n := mustCreate(t, e, alice.ID, NewNote{Title: "t", Content: "c", IsPublic: true})
	require.NoError(t, e.Delete(ctx, n.ID, alice.ID))

	// A like racing a delete must surface NotFound, never the dead row.
	_, err := store.AddLike(ctx, n.ID, bob.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.RemoveLike(ctx, n.ID, bob.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_TagCounts(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	mustCreate(t, e, alice.ID, NewNote{Title: "a", Content: "c", Tags: []string{"go", "notes"}})
	mustCreate(t, e, alice.ID, NewNote{Title: "b", Content: "c", Tags: []string{"go"}})
	deleted := mustCreate(t, e, alice.ID, NewNote{Title: "d", Content: "c", Tags: []string{"dead"}})
	require.NoError(t, e.Delete(ctx, deleted.ID, alice.ID))

	counts, err := e.TagCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []TagCount{{Name: "go", Count: 2}, {Name: "notes", Count: 1}}, counts)
}

func TestEngine_Stats_OwnerOnly(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	pub := mustCreate(t, e, alice.ID, NewNote{Title: "pub", Content: "c", IsPublic: true})
	mustCreate(t, e, alice.ID, NewNote{Title: "priv", Content: "c"})
	_, err := e.GetOne(ctx, pub.ID)
	require.NoError(t, err)
	_, _, err = e.ToggleLike(ctx, pub.ID, bob.ID)
	require.NoError(t, err)

	_, err = e.Stats(ctx, alice.ID, bob.ID)
	require.ErrorIs(t, err, ErrForbidden)

	stats, err := e.Stats(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalNotes)
	require.Equal(t, 1, stats.PublicNotes)
	require.Equal(t, 1, stats.PrivateNotes)
	require.EqualValues(t, 1, stats.TotalViews)
	require.Equal(t, 1, stats.TotalLikes)
	require.NotNil(t, stats.MostPopular)
	require.Equal(t, pub.ID, stats.MostPopular.ID)
}

// stubStore fails every call; the engine must surface Unavailable
// without partial effects.
type stubStore struct {
	err error
}

func (s stubStore) Find(context.Context, Query) ([]Note, error)    { return nil, s.err }
func (s stubStore) Count(context.Context, Filter) (int, error)     { return 0, s.err }
func (s stubStore) FindByID(context.Context, string) (Note, error) { return Note{}, s.err }
func (s stubStore) Insert(context.Context, Note) (Note, error)     { return Note{}, s.err }
func (s stubStore) Update(context.Context, string, NotePatch, time.Time) (Note, error) {
	return Note{}, s.err
}
func (s stubStore) Deactivate(context.Context, string) error { return s.err }
func (s stubStore) IncrementViews(context.Context, string) (Note, error) {
	return Note{}, s.err
}
func (s stubStore) AddLike(context.Context, string, string) (Note, error) {
	return Note{}, s.err
}
func (s stubStore) RemoveLike(context.Context, string, string) (Note, error) {
	return Note{}, s.err
}
func (s stubStore) TagCounts(context.Context, int) ([]TagCount, error) { return nil, s.err }
func (s stubStore) AuthorStats(context.Context, string) (AuthorStats, error) {
	return AuthorStats{}, s.err
}

func TestEngine_StorageFailuresBecomeUnavailable(t *testing.T) {
	boom := errors.New("connection refused")
	e := NewEngine(stubStore{err: boom}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	id := uuid.NewString()

	_, _, err := e.List(ctx, Query{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, boom)

	_, err = e.GetOne(ctx, id)
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = e.Create(ctx, id, NewNote{Title: "t", Content: "c"})
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = e.Count(ctx, Filter{})
	require.ErrorIs(t, err, ErrUnavailable)
}
