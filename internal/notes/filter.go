package notes

import "github.com/kartik-py12/NoteScript/internal/stringsx"

// Filter is the declarative filter specification shared by the server
// query path and the client view cache. Zero values mean "predicate
// absent"; predicates combine with AND, tags match with OR inside the
// set. Inactive notes never match, regardless of the other fields.
type Filter struct {
	// Public, when set, keeps only notes with a matching IsPublic.
	Public *bool
	// Author, when non-empty, keeps only notes owned by that user,
	// regardless of visibility.
	Author string
	// Tags keeps notes having at least one tag in common.
	Tags []string
	// Search keeps notes whose title, raw HTML content or author
	// display name contains the term, case-insensitively.
	Search string
}

// Normalized returns a copy with tags canonicalized and the search
// term trimmed, so Match and the SQL pushdown agree on semantics.
func (f Filter) Normalized() Filter {
	f.Tags = NormalizeTags(f.Tags)
	if stringsx.IsEmpty(f.Search) {
		f.Search = ""
	}
	return f
}

// Match reports whether the note passes every active predicate.
// Call Normalized first when the filter comes from user input.
func (f Filter) Match(n Note) bool {
	if !n.IsActive {
		return false
	}
	if f.Public != nil && n.IsPublic != *f.Public {
		return false
	}
	if f.Author != "" && n.Author.ID != f.Author {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(n, f.Tags) {
		return false
	}
	if f.Search != "" && !matchesSearch(n, f.Search) {
		return false
	}
	return true
}

// Apply narrows notes to those matching the filter, preserving order.
func (f Filter) Apply(ns []Note) []Note {
	out := make([]Note, 0, len(ns))
	for _, n := range ns {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

func hasAnyTag(n Note, tags []string) bool {
	for _, want := range tags {
		for _, have := range n.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

func matchesSearch(n Note, term string) bool {
	return stringsx.ContainsFold(n.Title, term) ||
		stringsx.ContainsFold(n.Content, term) ||
		stringsx.ContainsFold(n.Author.Name, term)
}
