package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres Store. Tags and likes live in array
// columns so view increments and like toggles are single-statement,
// atomic updates; concurrent requests on the same note cannot lose
// writes.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const noteColumns = `
	n.id, n.title, n.content, n.tags, n.is_public, n.likes, n.views,
	n.is_active, n.created_at, n.updated_at, u.id, u.name, u.email`

const fromNotes = ` FROM notes n JOIN users u ON u.id = n.author_id`

func scanNote(row pgx.Row) (Note, error) {
	var n Note
	err := row.Scan(
		&n.ID, &n.Title, &n.Content, &n.Tags, &n.IsPublic, &n.Likes,
		&n.Views, &n.IsActive, &n.CreatedAt, &n.UpdatedAt,
		&n.Author.ID, &n.Author.Name, &n.Author.Email,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	return n, err
}

// whereClause renders the filter as SQL, mirroring Filter.Match.
// Search is a case-insensitive substring over title, raw content and
// author name, the same containment the in-memory path applies.
func whereClause(f Filter, args []any) (string, []any) {
	conds := []string{"n.is_active"}

	if f.Public != nil {
		args = append(args, *f.Public)
		conds = append(conds, fmt.Sprintf("n.is_public = $%d", len(args)))
	}
	if f.Author != "" {
		args = append(args, f.Author)
		conds = append(conds, fmt.Sprintf("n.author_id = $%d", len(args)))
	}
	if len(f.Tags) > 0 {
		args = append(args, f.Tags)
		conds = append(conds, fmt.Sprintf("n.tags && $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := len(args)
		conds = append(conds, fmt.Sprintf("(n.title ILIKE $%d OR n.content ILIKE $%d OR u.name ILIKE $%d)", p, p, p))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause maps the sort key to its column. The id tie-break keeps
// the order deterministic across requests; SQL rows have no input
// order for a stable sort to preserve.
func orderClause(key SortKey, order SortOrder) string {
	col := map[SortKey]string{
		SortCreatedAt: "n.created_at",
		SortUpdatedAt: "n.updated_at",
		SortTitle:     "lower(n.title)",
		SortViews:     "n.views",
	}[key]
	if col == "" {
		col = "n.updated_at"
	}
	dir := "DESC"
	if order == OrderAsc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, n.id %s", col, dir, dir)
}

func (r *Repository) Find(ctx context.Context, q Query) ([]Note, error) {
	where, args := whereClause(q.Filter, nil)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	sql := "SELECT" + noteColumns + fromNotes + where +
		orderClause(q.SortBy, q.Order) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	defer rows.Close()

	out := make([]Note, 0, q.Limit)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n.withLikeCount())
	}
	return out, rows.Err()
}

func (r *Repository) Count(ctx context.Context, f Filter) (int, error) {
	where, args := whereClause(f, nil)
	var total int
	err := r.pool.QueryRow(ctx, "SELECT count(*)"+fromNotes+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return total, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (Note, error) {
	row := r.pool.QueryRow(ctx, "SELECT"+noteColumns+fromNotes+" WHERE n.id = $1", id)
	return scanNote(row)
}

func (r *Repository) Insert(ctx context.Context, n Note) (Note, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notes (id, title, content, tags, is_public, author_id, likes, views, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, true, $8, $8)`,
		n.ID, n.Title, n.Content, n.Tags, n.IsPublic, n.Author.ID, n.Likes, n.CreatedAt,
	)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return r.FindByID(ctx, n.ID)
}

// Update is a single UPDATE so updatedAt can never refresh without the
// field changes landing with it.
func (r *Repository) Update(ctx context.Context, id string, p NotePatch, updatedAt time.Time) (Note, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notes n SET
			title      = COALESCE($2, n.title),
			content    = COALESCE($3, n.content),
			tags       = COALESCE($4, n.tags),
			is_public  = COALESCE($5, n.is_public),
			updated_at = $6
		FROM users u
		WHERE n.id = $1 AND n.is_active AND u.id = n.author_id
		RETURNING`+noteColumns,
		id, p.Title, p.Content, tagsArg(p.Tags), p.IsPublic, updatedAt,
	)
	return scanNote(row)
}

func tagsArg(tags *[]string) any {
	if tags == nil {
		return nil
	}
	return *tags
}

func (r *Repository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notes SET is_active = false WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("deactivate note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) IncrementViews(ctx context.Context, id string) (Note, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notes n SET views = n.views + 1
		FROM users u
		WHERE n.id = $1 AND n.is_active AND u.id = n.author_id
		RETURNING`+noteColumns, id)
	return scanNote(row)
}

// AddLike is guarded in SQL so a raced duplicate add is a no-op; the
// current row is re-read in that case.
func (r *Repository) AddLike(ctx context.Context, id, userID string) (Note, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notes n SET likes = array_append(n.likes, $2)
		FROM users u
		WHERE n.id = $1 AND n.is_active AND u.id = n.author_id
		  AND NOT $2 = ANY(n.likes)
		RETURNING`+noteColumns, id, userID)
	n, err := scanNote(row)
	if errors.Is(err, ErrNotFound) {
		n, err = r.FindByID(ctx, id)
		if err == nil && !n.IsActive {
			return Note{}, ErrNotFound
		}
		return n, err
	}
	return n, err
}

func (r *Repository) RemoveLike(ctx context.Context, id, userID string) (Note, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notes n SET likes = array_remove(n.likes, $2)
		FROM users u
		WHERE n.id = $1 AND n.is_active AND u.id = n.author_id
		RETURNING`+noteColumns, id, userID)
	return scanNote(row)
}

func (r *Repository) TagCounts(ctx context.Context, limit int) ([]TagCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tag, count(*) AS uses
		FROM notes, unnest(tags) AS tag
		WHERE is_active
		GROUP BY tag
		ORDER BY uses DESC, tag ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}
	defer rows.Close()

	out := make([]TagCount, 0, 32)
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (r *Repository) AuthorStats(ctx context.Context, authorID string) (AuthorStats, error) {
	var s AuthorStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE is_public),
			count(*) FILTER (WHERE NOT is_public),
			COALESCE(sum(views), 0),
			COALESCE(sum(cardinality(likes)), 0)
		FROM notes
		WHERE author_id = $1 AND is_active`, authorID).
		Scan(&s.TotalNotes, &s.PublicNotes, &s.PrivateNotes, &s.TotalViews, &s.TotalLikes)
	if err != nil {
		return AuthorStats{}, fmt.Errorf("author stats: %w", err)
	}

	var ref NoteRef
	err = r.pool.QueryRow(ctx, `
		SELECT id, title, views
		FROM notes
		WHERE author_id = $1 AND is_active
		ORDER BY views DESC, id
		LIMIT 1`, authorID).Scan(&ref.ID, &ref.Title, &ref.Views)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// author has no active notes
	case err != nil:
		return AuthorStats{}, fmt.Errorf("popular note: %w", err)
	default:
		s.MostPopular = &ref
	}
	return s, nil
}
