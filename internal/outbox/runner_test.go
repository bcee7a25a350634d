package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Tgfeed/internal/domain/outbox"
	"github.com/NordCoder/Tgfeed/internal/domain/post"
	"github.com/NordCoder/Tgfeed/internal/obs/retry"
)

type fakeRepo struct {
	mu      sync.Mutex
	pending []outbox.Message
	marked  []string
	pickErr error
}

func (f *fakeRepo) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, outbox.Message{IdempotencyKey: key, Kind: kind, Data: data})
	return nil
}

func (f *fakeRepo) PickBatch(_ context.Context, batch int, _ time.Duration) ([]outbox.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pickErr != nil {
		return nil, f.pickErr
	}
	n := min(batch, len(f.pending))
	out := f.pending[:n]
	f.pending = f.pending[n:]
	return out, nil
}

func (f *fakeRepo) MarkSuccess(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, keys...)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	got  []post.PublishedEvent
	fail map[int64]bool
}

func (p *fakePublisher) PublishPublished(_ context.Context, ev post.PublishedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[ev.MessageID] {
		return errors.New("broker down")
	}
	p.got = append(p.got, ev)
	return nil
}

func oneShot() retry.Policy { return retry.Policy{Name: "test", Attempts: 1} }

func enqueuePost(t *testing.T, repo *fakeRepo, id int64) {
	t.Helper()
	p := &post.Post{Channel: "chan", MessageID: id}
	data, err := json.Marshal(post.PublishedEvent{EventID: "e", Channel: p.Channel, MessageID: id, Key: p.Key()})
	require.NoError(t, err)
	require.NoError(t, repo.Enqueue(context.Background(), "post_published:"+p.Key(), outbox.KindPostPublished, data))
}

func TestRunner_PublishesAndMarks(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	enqueuePost(t, repo, 1)
	enqueuePost(t, repo, 2)

	r := NewRunner(nil, repo, Dispatcher(pub, oneShot()), RunnerConfig{BatchSize: 10})
	n := r.Tick(context.Background())

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"post_published:chan/1", "post_published:chan/2"}, repo.marked)
	require.Len(t, pub.got, 2)
	assert.Equal(t, "chan/2", pub.got[1].Key)
}

func TestRunner_FailedPublishStaysUnmarked(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{fail: map[int64]bool{2: true}}
	enqueuePost(t, repo, 1)
	enqueuePost(t, repo, 2)

	r := NewRunner(nil, repo, Dispatcher(pub, oneShot()), RunnerConfig{})
	assert.Equal(t, 1, r.Tick(context.Background()))
	assert.Equal(t, []string{"post_published:chan/1"}, repo.marked)
}

func TestRunner_PickError(t *testing.T) {
	repo := &fakeRepo{pickErr: errors.New("db down")}
	r := NewRunner(nil, repo, Dispatcher(&fakePublisher{}, oneShot()), RunnerConfig{})
	assert.Zero(t, r.Tick(context.Background()))
	assert.Empty(t, repo.marked)
}

func TestRunner_StartStop(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	enqueuePost(t, repo, 7)

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(nil, repo, Dispatcher(pub, oneShot()), RunnerConfig{Workers: 2, Interval: 5 * time.Millisecond})
	r.Start(ctx)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.marked) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	r.Wait()
}

func TestDispatcher(t *testing.T) {
	d := Dispatcher(&fakePublisher{}, oneShot())

	_, err := d(outbox.Kind(99))
	assert.Error(t, err)

	h, err := d(outbox.KindPostPublished)
	require.NoError(t, err)
	err = h(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, retry.ErrPermanent)
}
