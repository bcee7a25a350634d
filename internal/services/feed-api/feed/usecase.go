package feed

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NordCoder/Tgfeed/internal/domain/post"
)

type Config struct {
	Channel      string
	DefaultLimit int
	MaxLimit     int
}

// Params are the caller's cursors; nil means "not given".
type Params struct {
	Limit  *int
	Before *int64
	After  *int64
}

type Item struct {
	MessageID int64  `json:"message_id"`
	Key       string `json:"key"`
}

type Page struct {
	Items []Item `json:"items"`
}

type Usecase struct {
	repo post.Repo
	cfg  Config
}

func NewUsecase(repo post.Repo, cfg Config) *Usecase {
	if cfg.MaxLimit < 1 {
		cfg.MaxLimit = 1
	}
	if cfg.DefaultLimit < 1 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	return &Usecase{repo: repo, cfg: cfg}
}

func (u *Usecase) clamp(limit *int) int {
	if limit == nil {
		return u.cfg.DefaultLimit
	}
	switch {
	case *limit < 1:
		return 1
	case *limit > u.cfg.MaxLimit:
		return u.cfg.MaxLimit
	default:
		return *limit
	}
}

// List returns one page, newest first. Clients derive the next cursors from
// the smallest and largest message ids of the page.
func (u *Usecase) List(ctx context.Context, p Params) (*Page, error) {
	ctx, span := otel.Tracer("feed.uc").Start(ctx, "feed.list")
	defer span.End()

	q := post.Query{
		Channel: u.cfg.Channel,
		Before:  p.Before,
		After:   p.After,
		Limit:   u.clamp(p.Limit),
	}
	span.SetAttributes(attribute.Int("feed.limit", q.Limit))

	posts, err := u.repo.Query(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", post.ErrQuery, err)
	}
	if len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}

	page := &Page{Items: make([]Item, 0, len(posts))}
	for i, row := range posts {
		if i > 0 && row.MessageID >= posts[i-1].MessageID {
			return nil, fmt.Errorf("%w: rows out of order at %d", post.ErrQuery, row.MessageID)
		}
		page.Items = append(page.Items, Item{
			MessageID: row.MessageID,
			Key:       post.Key(u.cfg.Channel, row.MessageID),
		})
	}
	span.SetAttributes(attribute.Int("feed.items", len(page.Items)))
	return page, nil
}
