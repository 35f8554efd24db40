package notes

import "github.com/kartik-py12/NoteScript/internal/mathx"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageMeta accompanies every List result. The field names mirror the
// wire format the client expects.
type PageMeta struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

// Paginate windows a filtered-and-sorted sequence. page is 1-indexed;
// a page beyond the last returns an empty slice, not an error.
func Paginate(ns []Note, page, limit int) ([]Note, PageMeta) {
	meta := PageMeta{
		Current: page,
		Pages:   mathx.CeilDiv(len(ns), limit),
		Total:   len(ns),
		Limit:   limit,
	}

	start := (page - 1) * limit
	if start >= len(ns) {
		return []Note{}, meta
	}
	end := start + limit
	if end > len(ns) {
		end = len(ns)
	}
	return ns[start:end], meta
}
