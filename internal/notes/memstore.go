package notes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store. It backs local development without a
// database and the engine's unit tests. All operations hold the mutex
// for their full read-modify-write, giving the same atomicity the
// Postgres repository gets from single-statement updates.
type MemStore struct {
	mu      sync.RWMutex
	notes   map[string]Note
	order   []string // insertion order, the tie-break for stable sorts
	authors map[string]Author
}

func NewMemStore() *MemStore {
	return &MemStore{
		notes:   make(map[string]Note),
		authors: make(map[string]Author),
	}
}

// PutAuthor registers an author so Insert can resolve the reference.
func (s *MemStore) PutAuthor(a Author) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[a.ID] = a
}

func (s *MemStore) snapshot() []Note {
	out := make([]Note, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.notes[id])
	}
	return out
}

func (s *MemStore) Find(_ context.Context, q Query) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := q.Filter.Apply(s.snapshot())
	SortNotes(matched, q.SortBy, q.Order)
	items, _ := Paginate(matched, q.Page, q.Limit)
	return items, nil
}

func (s *MemStore) Count(_ context.Context, f Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, n := range s.notes {
		if f.Match(n) {
			total++
		}
	}
	return total, nil
}

func (s *MemStore) FindByID(_ context.Context, id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}
	return n, nil
}

func (s *MemStore) Insert(_ context.Context, n Note) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.authors[n.Author.ID]; ok {
		n.Author = a
	}
	s.notes[n.ID] = n
	s.order = append(s.order, n.ID)
	return n, nil
}

func (s *MemStore) Update(_ context.Context, id string, p NotePatch, updatedAt time.Time) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || !n.IsActive {
		return Note{}, ErrNotFound
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Tags != nil {
		n.Tags = *p.Tags
	}
	if p.IsPublic != nil {
		n.IsPublic = *p.IsPublic
	}
	n.UpdatedAt = updatedAt
	s.notes[id] = n
	return n, nil
}

func (s *MemStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || !n.IsActive {
		return ErrNotFound
	}
	n.IsActive = false
	s.notes[id] = n
	return nil
}

func (s *MemStore) IncrementViews(_ context.Context, id string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || !n.IsActive {
		return Note{}, ErrNotFound
	}
	n.Views++
	s.notes[id] = n
	return n, nil
}

func (s *MemStore) AddLike(_ context.Context, id, userID string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || !n.IsActive {
		return Note{}, ErrNotFound
	}
	if !n.LikedBy(userID) {
		// Copy before append: returned notes share the old backing array.
		n.Likes = append(append(make([]string, 0, len(n.Likes)+1), n.Likes...), userID)
	}
	s.notes[id] = n
	return n, nil
}

func (s *MemStore) RemoveLike(_ context.Context, id, userID string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || !n.IsActive {
		return Note{}, ErrNotFound
	}
	kept := make([]string, 0, len(n.Likes))
	for _, u := range n.Likes {
		if u != userID {
			kept = append(kept, u)
		}
	}
	n.Likes = kept
	s.notes[id] = n
	return n, nil
}

func (s *MemStore) TagCounts(_ context.Context, limit int) ([]TagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, n := range s.notes {
		if !n.IsActive {
			continue
		}
		for _, t := range n.Tags {
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, TagCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) AuthorStats(_ context.Context, authorID string) (AuthorStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats AuthorStats
	for _, n := range s.notes {
		if !n.IsActive || n.Author.ID != authorID {
			continue
		}
		stats.TotalNotes++
		if n.IsPublic {
			stats.PublicNotes++
		} else {
			stats.PrivateNotes++
		}
		stats.TotalViews += n.Views
		stats.TotalLikes += len(n.Likes)
		if stats.MostPopular == nil || n.Views > stats.MostPopular.Views {
			stats.MostPopular = &NoteRef{ID: n.ID, Title: n.Title, Views: n.Views}
		}
	}
	return stats, nil
}
