package notes

import (
	"sort"
	"strings"
)

// SortKey selects the field notes are ordered by.
type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortUpdatedAt SortKey = "updatedAt"
	SortTitle     SortKey = "title"
	SortViews     SortKey = "views"
)

// SortOrder selects the direction. It flips the comparison only, never
// the key.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortKey validates a user-supplied sort field.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortCreatedAt, SortUpdatedAt, SortTitle, SortViews:
		return SortKey(s), nil
	}
	return "", invalid("sortBy", "must be one of createdAt, updatedAt, title, views")
}

// ParseSortOrder validates a user-supplied direction.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case OrderAsc, OrderDesc:
		return SortOrder(s), nil
	}
	return "", invalid("sortOrder", "must be asc or desc")
}

// SortNotes orders ns in place by key and direction. The sort is
// stable, so ties keep their input order and repeated queries over the
// same input are deterministic.
func SortNotes(ns []Note, key SortKey, order SortOrder) {
	sort.SliceStable(ns, func(i, j int) bool {
		if order == OrderDesc {
			return lessByKey(ns[j], ns[i], key)
		}
		return lessByKey(ns[i], ns[j], key)
	})
}

func lessByKey(a, b Note, key SortKey) bool {
	switch key {
	case SortTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	case SortCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt)
	case SortViews:
		return a.Views < b.Views
	default:
		return a.UpdatedAt.Before(b.UpdatedAt)
	}
}
