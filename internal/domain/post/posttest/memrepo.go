// Package posttest provides an in-memory post.Repo for handler and usecase tests.
package posttest

import (
	"context"
	"sort"
	"sync"

	"github.com/NordCoder/Tgfeed/internal/domain/post"
)

var _ post.Repo = (*MemRepo)(nil)

type key struct {
	channel string
	id      int64
}

type MemRepo struct {
	mu      sync.Mutex
	rows    map[key]post.Post
	Err     error // returned by every call when set
	Upserts int
	Queries int
}

func NewMemRepo() *MemRepo { return &MemRepo{rows: map[key]post.Post{}} }

func (m *MemRepo) Upsert(_ context.Context, p *post.Post) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Upserts++
	if m.Err != nil {
		return false, m.Err
	}
	k := key{p.Channel, p.MessageID}
	row, ok := m.rows[k]
	if ok {
		row.PostedAt = p.PostedAt
		row.Deliveries++
	} else {
		row = *p
		row.Deliveries = 1
	}
	m.rows[k] = row
	p.Deliveries = row.Deliveries
	return !ok, nil
}

func (m *MemRepo) Query(_ context.Context, q post.Query) ([]*post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries++
	if m.Err != nil {
		return nil, m.Err
	}
	out := []*post.Post{}
	for k, row := range m.rows {
		if k.channel != q.Channel {
			continue
		}
		if q.Before != nil && k.id >= *q.Before {
			continue
		}
		if q.After != nil && k.id <= *q.After {
			continue
		}
		r := row
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID > out[j].MessageID })
	if q.Limit >= 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemRepo) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// Len is the number of stored rows.
func (m *MemRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Get returns a copy of the stored row.
func (m *MemRepo) Get(channel string, id int64) (post.Post, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key{channel, id}]
	return row, ok
}

// SetErr switches failure injection on (err != nil) or off.
func (m *MemRepo) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
