package notes

import (
	"sort"
	"sync"
	"time"

	"github.com/kartik-py12/NoteScript/internal/mathx"
)

// EventKind classifies an optimistic local mutation.
type EventKind int

const (
	EventCreated EventKind = iota + 1
	EventUpdated
	EventDeleted
	EventLiked
)

// Event is one optimistic mutation recorded by the view cache. Events
// update the local snapshot immediately and are re-applied on top of
// every authoritative reload until acknowledged, so an edit in flight
// is never stomped by a background refresh of the list.
type Event struct {
	Seq    uint64
	Kind   EventKind
	NoteID string
	Note   Note      // EventCreated
	Patch  NotePatch // EventUpdated
	UserID string    // EventLiked
	At     time.Time
}

// NoteCounts is the per-user dashboard tally over the cached snapshot.
type NoteCounts struct {
	Total   int `json:"total"`
	Public  int `json:"public"`
	Private int `json:"private"`
}

// Cache is the client-side view engine. It evaluates the same filter,
// sort and pagination contract as the server engine, against a locally
// cached snapshot refreshed by explicit Reload calls. Each Reload
// replaces the snapshot wholesale; pending events carry local edits
// across the replacement.
type Cache struct {
	mu      sync.Mutex
	notes   []Note
	pending []Event
	seq     uint64
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// Reload replaces the snapshot with the authoritative listing, then
// re-applies pending events so unacknowledged local mutations survive.
func (c *Cache) Reload(notes []Note) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notes = append([]Note(nil), notes...)
	for _, e := range c.pending {
		c.apply(e)
	}
}

// Invalidate drops the snapshot and any pending events.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = nil
	c.pending = nil
}

// Ack marks an event as reflected by the server; it will no longer be
// re-applied on reload.
func (c *Cache) Ack(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.pending[:0]
	for _, e := range c.pending {
		if e.Seq != seq {
			kept = append(kept, e)
		}
	}
	c.pending = kept
}

// Create records and applies an optimistic note creation.
func (c *Cache) Create(n Note) Event {
	return c.record(Event{Kind: EventCreated, NoteID: n.ID, Note: n})
}

// Update records and applies an optimistic partial update.
func (c *Cache) Update(id string, p NotePatch) Event {
	return c.record(Event{Kind: EventUpdated, NoteID: id, Patch: p})
}

// Delete records and applies an optimistic removal.
func (c *Cache) Delete(id string) Event {
	return c.record(Event{Kind: EventDeleted, NoteID: id})
}

// ToggleLike records and applies an optimistic like toggle for userID.
func (c *Cache) ToggleLike(id, userID string) Event {
	return c.record(Event{Kind: EventLiked, NoteID: id, UserID: userID})
}

func (c *Cache) record(e Event) Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	e.Seq = c.seq
	e.At = c.now().UTC()
	c.pending = append(c.pending, e)
	c.apply(e)
	return e
}

// apply mutates the snapshot in place. Must hold c.mu.
func (c *Cache) apply(e Event) {
	switch e.Kind {
	case EventCreated:
		if c.indexOf(e.NoteID) >= 0 {
			return // reload already carried it
		}
		n := e.Note
		n.IsActive = true
		c.notes = append([]Note{n}, c.notes...)
	case EventUpdated:
		i := c.indexOf(e.NoteID)
		if i < 0 {
			return
		}
		n := c.notes[i]
		if e.Patch.Title != nil {
			n.Title = *e.Patch.Title
		}
		if e.Patch.Content != nil {
			n.Content = *e.Patch.Content
		}
		if e.Patch.Tags != nil {
			n.Tags = NormalizeTags(*e.Patch.Tags)
		}
		if e.Patch.IsPublic != nil {
			n.IsPublic = *e.Patch.IsPublic
		}
		n.UpdatedAt = e.At
		c.notes[i] = n
	case EventDeleted:
		i := c.indexOf(e.NoteID)
		if i < 0 {
			return
		}
		c.notes = append(c.notes[:i:i], c.notes[i+1:]...)
	case EventLiked:
		i := c.indexOf(e.NoteID)
		if i < 0 {
			return
		}
		n := c.notes[i]
		if n.LikedBy(e.UserID) {
			kept := make([]string, 0, len(n.Likes))
			for _, u := range n.Likes {
				if u != e.UserID {
					kept = append(kept, u)
				}
			}
			n.Likes = kept
		} else {
			n.Likes = append(append(make([]string, 0, len(n.Likes)+1), n.Likes...), e.UserID)
		}
		n.LikeCount = len(n.Likes)
		c.notes[i] = n
	}
}

func (c *Cache) indexOf(id string) int {
	for i, n := range c.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Query evaluates the shared filter/sort/pagination contract over the
// snapshot. Semantics are identical to Engine.List.
func (c *Cache) Query(q Query) ([]Note, PageMeta, error) {
	q, err := q.normalized()
	if err != nil {
		return nil, PageMeta{}, err
	}

	c.mu.Lock()
	snapshot := append([]Note(nil), c.notes...)
	c.mu.Unlock()

	matched := q.Filter.Apply(snapshot)
	SortNotes(matched, q.SortBy, q.Order)
	items, meta := Paginate(matched, q.Page, q.Limit)
	return items, meta, nil
}

// Get returns the cached note by id, if present and active.
func (c *Cache) Get(id string) (Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 || !c.notes[i].IsActive {
		return Note{}, false
	}
	return c.notes[i], true
}

// AllTags returns the distinct tags across active cached notes, sorted.
func (c *Cache) AllTags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := make(map[string]struct{})
	for _, n := range c.notes {
		if !n.IsActive {
			continue
		}
		for _, t := range n.Tags {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Counts tallies the snapshot, optionally restricted to one author.
func (c *Cache) Counts(userID string) NoteCounts {
	c.mu.Lock()
	defer c.mu.Unlock()

	var counts NoteCounts
	for _, n := range c.notes {
		if !n.IsActive || (userID != "" && n.Author.ID != userID) {
			continue
		}
		counts.Total++
		if n.IsPublic {
			counts.Public++
		} else {
			counts.Private++
		}
	}
	return counts
}

// Recent returns the most recently updated notes, optionally for one
// author. limit defaults to 5.
func (c *Cache) Recent(limit int, userID string) []Note {
	if limit <= 0 {
		limit = 5
	}
	limit = mathx.Clamp(limit, 1, MaxLimit)

	items, _, _ := c.Query(Query{
		Filter: Filter{Author: userID},
		SortBy: SortUpdatedAt,
		Order:  OrderDesc,
		Limit:  limit,
	})
	return items
}
