// Package targets stores booking targets in Postgres so recurring bookings
// do not need a targets file.
package targets

import (
	"context"
	"time"

	"github.com/example/hsp-booker/internal/db"
	"github.com/example/hsp-booker/internal/domain/course"
)

type Entry struct {
	course.Target
	CreatedAt time.Time
}

type Repo struct{ db db.Querier }

func NewRepo(d db.Querier) *Repo { return &Repo{db: d} }

// Save inserts t or replaces the stored target with the same course id.
func (r *Repo) Save(ctx context.Context, t course.Target) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.db.Exec(ctx, `
INSERT INTO targets(course_id,url,password,label)
VALUES ($1,$2,$3,$4)
ON CONFLICT (course_id) DO UPDATE SET url=EXCLUDED.url, password=EXCLUDED.password, label=EXCLUDED.label`,
		t.ID, t.URL, t.Password, t.Label)
}

func (r *Repo) Get(ctx context.Context, id string) (Entry, error) {
	var e Entry
	err := r.db.QueryRow(ctx, `
SELECT course_id,url,password,label,created_at
FROM targets
WHERE course_id=$1`, id).
		Scan(&e.ID, &e.URL, &e.Password, &e.Label, &e.CreatedAt)
	if err != nil {
		return Entry{}, db.WrapNotFound(err)
	}
	return e, nil
}

func (r *Repo) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `
SELECT course_id,url,password,label,created_at
FROM targets
ORDER BY created_at ASC, course_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.URL, &e.Password, &e.Label, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Remove deletes the target with course id id, or returns ErrNotFound.
func (r *Repo) Remove(ctx context.Context, id string) error {
	var removed string
	err := r.db.QueryRow(ctx, `DELETE FROM targets WHERE course_id=$1 RETURNING course_id`, id).Scan(&removed)
	return db.WrapNotFound(err)
}

// Targets returns the stored targets as plain booking targets.
func (r *Repo) Targets(ctx context.Context) ([]course.Target, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]course.Target, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Target)
	}
	return out, nil
}
