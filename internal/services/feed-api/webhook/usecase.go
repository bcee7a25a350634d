package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	tele "gopkg.in/telebot.v4"

	"github.com/NordCoder/Tgfeed/internal/domain/outbox"
	"github.com/NordCoder/Tgfeed/internal/domain/post"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Config struct {
	Secret  string
	Channel string
	Clock   func() time.Time
}

// Usecase accepts Telegram channel posts for exactly one channel.
type Usecase struct {
	repo    post.Repo
	secret  []byte
	channel string
	clk     func() time.Time

	tx     Transactor
	events outbox.Repository
	newID  func() string
}

func NewUsecase(repo post.Repo, cfg Config) *Usecase {
	clk := cfg.Clock
	if clk == nil {
		clk = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{
		repo:    repo,
		secret:  []byte(cfg.Secret),
		channel: cfg.Channel,
		clk:     clk,
		newID:   uuid.NewString,
	}
}

// WithEvents makes first deliveries enqueue a post.PublishedEvent in the same
// transaction as the upsert.
func (u *Usecase) WithEvents(tx Transactor, events outbox.Repository) *Usecase {
	cp := *u
	cp.tx = tx
	cp.events = events
	return &cp
}

// Authorize compares the supplied secret token in constant time.
func (u *Usecase) Authorize(token string) error {
	if len(u.secret) == 0 || subtle.ConstantTimeCompare([]byte(token), u.secret) != 1 {
		return post.ErrUnauthorized
	}
	return nil
}

// Ingest stores the channel post carried by upd. Updates this service does
// not model come back as post.ErrMalformedEvent and must be acknowledged.
func (u *Usecase) Ingest(ctx context.Context, upd *tele.Update) (inserted bool, err error) {
	ctx, span := otel.Tracer("webhook.uc").Start(ctx, "webhook.ingest")
	defer span.End()

	p, err := u.extract(upd)
	if err != nil {
		span.SetAttributes(attribute.String("ingest.result", "ignored"))
		return false, err
	}
	span.SetAttributes(
		attribute.String("post.channel", p.Channel),
		attribute.Int64("post.message_id", p.MessageID),
	)

	if u.events == nil {
		inserted, err = u.repo.Upsert(ctx, p)
	} else {
		err = u.tx.WithTx(ctx, func(ctx context.Context) error {
			var txErr error
			inserted, txErr = u.repo.Upsert(ctx, p)
			if txErr != nil || !inserted {
				return txErr
			}
			return u.enqueuePublished(ctx, p)
		})
	}
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("%w: %w", post.ErrPersistence, err)
	}
	span.SetAttributes(attribute.Bool("post.inserted", inserted))
	return inserted, nil
}

func (u *Usecase) extract(upd *tele.Update) (*post.Post, error) {
	if upd == nil || upd.ChannelPost == nil {
		return nil, fmt.Errorf("%w: no channel_post", post.ErrMalformedEvent)
	}
	msg := upd.ChannelPost
	if msg.Chat == nil || !post.SameChannel(msg.Chat.Username, u.channel) {
		return nil, fmt.Errorf("%w: foreign channel", post.ErrMalformedEvent)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("%w: message_id %d", post.ErrMalformedEvent, msg.ID)
	}
	return &post.Post{
		Channel:   u.channel,
		MessageID: int64(msg.ID),
		PostedAt:  resolvePostedAt(msg.Unixtime, u.clk),
	}, nil
}

// resolvePostedAt prefers the event's own unix timestamp; Telegram omits it
// (zero) only for synthetic updates, which get the receive time instead.
func resolvePostedAt(unix int64, now func() time.Time) time.Time {
	if unix > 0 {
		return time.Unix(unix, 0).UTC()
	}
	return now()
}

func (u *Usecase) enqueuePublished(ctx context.Context, p *post.Post) error {
	data, err := json.Marshal(post.PublishedEvent{
		EventID:   u.newID(),
		Channel:   p.Channel,
		MessageID: p.MessageID,
		Key:       p.Key(),
		PostedAt:  p.PostedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return u.events.Enqueue(ctx, "post_published:"+p.Key(), outbox.KindPostPublished, data)
}
