package post

import "context"

type Repo interface {
	// Upsert inserts p or refreshes the row with the same (Channel, MessageID)
	// in one statement. inserted is true only for the first delivery.
	Upsert(ctx context.Context, p *Post) (inserted bool, err error)
	Query(ctx context.Context, q Query) ([]*Post, error)
	Ping(ctx context.Context) error
}
