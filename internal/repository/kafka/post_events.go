package kafka

import (
	"context"
	"encoding/json"

	"github.com/NordCoder/Tgfeed/internal/domain/post"
)

type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// PostEvents publishes post.PublishedEvent values keyed by message id, so all
// events of one post land on the same partition.
type PostEvents struct {
	p Publisher
}

func NewPostEvents(p Publisher) *PostEvents { return &PostEvents{p: p} }

func (e *PostEvents) PublishPublished(ctx context.Context, ev post.PublishedEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return e.p.Publish(ctx, KeyFromInt64(ev.MessageID), value)
}
