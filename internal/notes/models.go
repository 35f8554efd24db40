package notes

import "time"

// Author is the resolved reference to the user owning a note.
// It is filled in once at the storage boundary; everything above
// compares authors by ID only.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Note is the central entity. Content is opaque HTML produced by the
// rich-text editor; it is stored and searched as a plain string, never
// parsed.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	IsPublic  bool      `json:"isPublic"`
	Author    Author    `json:"author"`
	Likes     []string  `json:"likes"`
	LikeCount int       `json:"likeCount"`
	Views     int64     `json:"views"`
	IsActive  bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikedBy reports whether the given user is in the likes set.
func (n Note) LikedBy(userID string) bool {
	for _, id := range n.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// withLikeCount returns a copy with LikeCount synced to the likes set.
func (n Note) withLikeCount() Note {
	n.LikeCount = len(n.Likes)
	return n
}

// NewNote is the validated input for creating a note.
type NewNote struct {
	Title    string
	Content  string
	Tags     []string
	IsPublic bool
}

// NotePatch carries the fields of a partial update. Nil means
// "leave unchanged".
type NotePatch struct {
	Title    *string
	Content  *string
	Tags     *[]string
	IsPublic *bool
}

// TagCount is one row of the tag aggregation.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AuthorStats is the dashboard aggregate over one author's active notes.
type AuthorStats struct {
	TotalNotes   int      `json:"totalNotes"`
	PublicNotes  int      `json:"publicNotes"`
	PrivateNotes int      `json:"privateNotes"`
	TotalViews   int64    `json:"totalViews"`
	TotalLikes   int      `json:"totalLikes"`
	MostPopular  *NoteRef `json:"mostPopularNote"`
}

// NoteRef is a thin note reference used inside aggregates.
type NoteRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}

// CreateNoteRequest is the POST /api/notes payload.
type CreateNoteRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required"`
	Tags     []string `json:"tags"`
	IsPublic bool     `json:"isPublic"`
}

// UpdateNoteRequest is the PUT /api/notes/{id} payload. All fields are
// optional; present fields must still be valid.
type UpdateNoteRequest struct {
	Title    *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Content  *string   `json:"content" validate:"omitempty,min=1"`
	Tags     *[]string `json:"tags"`
	IsPublic *bool     `json:"isPublic"`
}
