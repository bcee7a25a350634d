package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Tgfeed/internal/domain/post"
	"github.com/jackc/pgx/v5"
)

var _ post.Repo = (*PostRepo)(nil)

type PostRepo struct{ db *DB }

func NewPostRepo(db *DB) *PostRepo { return &PostRepo{db: db} }

const (
	qPostUpsert = `
INSERT INTO channel_posts (channel_username, message_id, posted_at)
VALUES ($1, $2, $3)
ON CONFLICT (channel_username, message_id) DO UPDATE
SET posted_at  = EXCLUDED.posted_at,
    deliveries = channel_posts.deliveries + 1,
    updated_at = NOW()
RETURNING deliveries, created_at, updated_at;`

	qPostRange = `
SELECT channel_username, message_id, posted_at, deliveries, created_at, updated_at
FROM channel_posts
WHERE channel_username = $1
  AND ($2::bigint IS NULL OR message_id < $2)
  AND ($3::bigint IS NULL OR message_id > $3)
ORDER BY message_id DESC
LIMIT $4;`
)

func (r *PostRepo) Upsert(ctx context.Context, p *post.Post) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	err := eq.QueryRow(ctx, qPostUpsert, p.Channel, p.MessageID, p.PostedAt.UTC()).
		Scan(&p.Deliveries, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("post upsert: %w", mapPgErr(err))
	}
	return p.Deliveries == 1, nil
}

func (r *PostRepo) Query(ctx context.Context, q post.Query) ([]*post.Post, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qPostRange, q.Channel, q.Before, q.After, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	out := make([]*post.Post, 0, q.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PostRepo) Ping(ctx context.Context) error { return r.db.Ping(ctx) }

func scanPost(row pgx.Row) (*post.Post, error) {
	var p post.Post
	if err := row.Scan(&p.Channel, &p.MessageID, &p.PostedAt, &p.Deliveries, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &p, nil
}
