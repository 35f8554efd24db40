package notes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func fixtureNotes() []Note {
	at := func(day int) time.Time {
		return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
	}
	return []Note{
		{
			ID: "n1", Title: "Welcome to NoteScript",
			Content:  "<p>Rich text <strong>editing</strong></p>",
			Tags:     []string{"welcome", "tutorial"},
			IsPublic: true, IsActive: true,
			Author:    Author{ID: "u1", Name: "System"},
			CreatedAt: at(1), UpdatedAt: at(1),
		},
		{
			ID: "n2", Title: "My Private Thoughts",
			Content:  "<p>only you can see this</p>",
			Tags:     []string{"personal"},
			IsPublic: false, IsActive: true,
			Author:    Author{ID: "u2", Name: "Dana"},
			CreatedAt: at(10), UpdatedAt: at(15),
		},
		{
			ID: "n3", Title: "JavaScript Best Practices",
			Content:  "<h2>Modern JavaScript Tips</h2>",
			Tags:     []string{"javascript", "programming"},
			IsPublic: true, IsActive: true,
			Author:    Author{ID: "u2", Name: "Dana"},
			CreatedAt: at(12), UpdatedAt: at(12),
		},
		{
			ID: "n4", Title: "Deleted draft",
			Content:  "<p>gone</p>",
			Tags:     []string{"welcome"},
			IsPublic: true, IsActive: false,
			Author:    Author{ID: "u1", Name: "System"},
			CreatedAt: at(2), UpdatedAt: at(2),
		},
	}
}

func idsOf(ns []Note) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestFilter_InactiveNeverMatches(t *testing.T) {
	ns := fixtureNotes()

	// Even an exact-match filter never surfaces a soft-deleted note.
	for _, f := range []Filter{
		{},
		{Public: boolPtr(true)},
		{Author: "u1"},
		{Tags: []string{"welcome"}},
		{Search: "Deleted draft"},
	} {
		for _, n := range f.Apply(ns) {
			require.NotEqual(t, "n4", n.ID)
		}
	}
}

func TestFilter_Visibility(t *testing.T) {
	ns := fixtureNotes()

	t.Run("public only", func(t *testing.T) {
		require.Equal(t, []string{"n1", "n3"}, idsOf(Filter{Public: boolPtr(true)}.Apply(ns)))
	})

	t.Run("owned by, regardless of visibility", func(t *testing.T) {
		require.Equal(t, []string{"n2", "n3"}, idsOf(Filter{Author: "u2"}.Apply(ns)))
	})

	t.Run("unrestricted", func(t *testing.T) {
		require.Equal(t, []string{"n1", "n2", "n3"}, idsOf(Filter{}.Apply(ns)))
	})
}

func TestFilter_TagsOrSemantics(t *testing.T) {
	ns := fixtureNotes()

	// A note matches with at least one tag in common, not all.
	got := Filter{Tags: []string{"personal", "javascript"}}.Apply(ns)
	require.Equal(t, []string{"n2", "n3"}, idsOf(got))
}

func TestFilter_Search(t *testing.T) {
	ns := fixtureNotes()

	t.Run("title, case-insensitive", func(t *testing.T) {
		require.Equal(t, []string{"n1"}, idsOf(Filter{Search: "notescript"}.Apply(ns)))
	})

	t.Run("content including markup", func(t *testing.T) {
		require.Equal(t, []string{"n1"}, idsOf(Filter{Search: "<strong>"}.Apply(ns)))
	})

	t.Run("author display name", func(t *testing.T) {
		require.Equal(t, []string{"n2", "n3"}, idsOf(Filter{Search: "dana"}.Apply(ns)))
	})

	t.Run("no match", func(t *testing.T) {
		require.Empty(t, Filter{Search: "zzz-nothing"}.Apply(ns))
	})
}

func TestFilter_EmptyPredicatesAreAbsent(t *testing.T) {
	ns := fixtureNotes()
	all := Filter{}.Apply(ns)

	require.Equal(t, idsOf(all), idsOf(Filter{Search: ""}.Normalized().Apply(ns)))
	require.Equal(t, idsOf(all), idsOf(Filter{Search: "   "}.Normalized().Apply(ns)))
	require.Equal(t, idsOf(all), idsOf(Filter{Tags: []string{}}.Apply(ns)))
}

func TestFilter_Composition(t *testing.T) {
	ns := fixtureNotes()

	got := Filter{
		Public: boolPtr(true),
		Author: "u2",
		Tags:   []string{"javascript"},
		Search: "tips",
	}.Apply(ns)
	require.Equal(t, []string{"n3"}, idsOf(got))
}

func TestFilter_NormalizedCanonicalizesTags(t *testing.T) {
	f := Filter{Tags: []string{"  JavaScript ", "javascript"}}.Normalized()
	require.Equal(t, []string{"javascript"}, f.Tags)
}
