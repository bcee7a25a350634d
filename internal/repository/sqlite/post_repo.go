package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Tgfeed/internal/domain/post"
)

var _ post.Repo = (*PostRepo)(nil)

type PostRepo struct {
	db  *DB
	now func() time.Time
}

func NewPostRepo(db *DB) *PostRepo {
	return &PostRepo{db: db, now: time.Now}
}

// Timestamps are stored as unix nanoseconds.
const (
	qPostUpsert = `
INSERT INTO channel_posts (channel_username, message_id, posted_at, deliveries, created_at, updated_at)
VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT (channel_username, message_id) DO UPDATE
SET posted_at  = excluded.posted_at,
    deliveries = channel_posts.deliveries + 1,
    updated_at = excluded.updated_at
RETURNING deliveries, created_at, updated_at;`

	qPostRange = `
SELECT channel_username, message_id, posted_at, deliveries, created_at, updated_at
FROM channel_posts
WHERE channel_username = ?
  AND (? IS NULL OR message_id < ?)
  AND (? IS NULL OR message_id > ?)
ORDER BY message_id DESC
LIMIT ?;`
)

func (r *PostRepo) Upsert(ctx context.Context, p *post.Post) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	now := r.now().UnixNano()
	var created, updated int64
	err := r.db.SQL.QueryRowContext(ctx, qPostUpsert,
		p.Channel, p.MessageID, p.PostedAt.UnixNano(), now, now,
	).Scan(&p.Deliveries, &created, &updated)
	if err != nil {
		return false, fmt.Errorf("post upsert: %w", err)
	}
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = fromNanos(updated)
	return p.Deliveries == 1, nil
}

func (r *PostRepo) Query(ctx context.Context, q post.Query) ([]*post.Post, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.SQL.QueryContext(ctx, qPostRange,
		q.Channel, q.Before, q.Before, q.After, q.After, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	out := make([]*post.Post, 0, q.Limit)
	for rows.Next() {
		var (
			p                        post.Post
			posted, created, updated int64
		)
		if err := rows.Scan(&p.Channel, &p.MessageID, &posted, &p.Deliveries, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.PostedAt = fromNanos(posted)
		p.CreatedAt = fromNanos(created)
		p.UpdatedAt = fromNanos(updated)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PostRepo) Ping(ctx context.Context) error { return r.db.Ping(ctx) }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }
