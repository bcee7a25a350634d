package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/Tgfeed/internal/domain/outbox"
	"github.com/NordCoder/Tgfeed/internal/domain/post/posttest"
)

const (
	secret  = "s3cret-token"
	channel = "MyChannel"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newHandler(repo *posttest.MemRepo) *Handler {
	uc := NewUsecase(repo, Config{Secret: secret, Channel: channel, Clock: func() time.Time { return fixedNow }})
	return NewHandler(uc, zap.NewNop(), 0)
}

func channelPost(username string, id int, date int64) string {
	return fmt.Sprintf(`{"update_id":%d,"channel_post":{"message_id":%d,"date":%d,"chat":{"id":-1001,"type":"channel","username":%q}}}`,
		1000+id, id, date, username)
}

func deliver(h http.Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(SecretHeader, token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_StoresPost(t *testing.T) {
	repo := posttest.NewMemRepo()
	h := newHandler(repo)

	rec := deliver(h, secret, channelPost("mychannel", 42, 1_700_000_000))

	require.Equal(t, http.StatusOK, rec.Code)
	row, ok := repo.Get(channel, 42)
	require.True(t, ok)
	assert.Equal(t, channel, row.Channel, "configured channel name is stored")
	assert.True(t, row.PostedAt.Equal(time.Unix(1_700_000_000, 0)))
}

func TestWebhook_MissingDateUsesReceiveTime(t *testing.T) {
	repo := posttest.NewMemRepo()
	h := newHandler(repo)

	rec := deliver(h, secret, `{"update_id":1,"channel_post":{"message_id":9,"chat":{"id":-1,"type":"channel","username":"MyChannel"}}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	row, ok := repo.Get(channel, 9)
	require.True(t, ok)
	assert.True(t, row.PostedAt.Equal(fixedNow))
}

func TestWebhook_AuthIsolation(t *testing.T) {
	for _, token := range []string{"", "wrong", secret + "x", strings.ToUpper(secret)} {
		t.Run("token="+token, func(t *testing.T) {
			repo := posttest.NewMemRepo()
			h := newHandler(repo)

			rec := deliver(h, token, channelPost(channel, 1, 1))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Body.String())
			assert.Zero(t, repo.Upserts, "store must not be touched")
		})
	}
}

func TestWebhook_IgnoredShapesAreAcknowledged(t *testing.T) {
	cases := map[string]string{
		"not json":        `{{{`,
		"private message": `{"update_id":1,"message":{"message_id":3,"date":1,"chat":{"id":5,"type":"private"}}}`,
		"empty object":    `{}`,
		"no chat":         `{"update_id":1,"channel_post":{"message_id":3,"date":1}}`,
		"zero id":         channelPost(channel, 0, 1),
		"foreign channel": channelPost("somebodyelse", 3, 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			repo := posttest.NewMemRepo()
			h := newHandler(repo)

			rec := deliver(h, secret, body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Zero(t, repo.Len())
		})
	}
}

func TestWebhook_StoreFailureIs500(t *testing.T) {
	repo := posttest.NewMemRepo()
	repo.SetErr(errors.New("connection refused"))
	h := newHandler(repo)

	rec := deliver(h, secret, channelPost(channel, 5, 1))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhook_OversizedBodyIgnored(t *testing.T) {
	repo := posttest.NewMemRepo()
	uc := NewUsecase(repo, Config{Secret: secret, Channel: channel})
	h := NewHandler(uc, zap.NewNop(), 64)

	rec := deliver(h, secret, channelPost(channel, 5, 1)+strings.Repeat(" ", 128))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_Idempotent(t *testing.T) {
	repo := posttest.NewMemRepo()
	h := newHandler(repo)

	for i := 0; i < 5; i++ {
		rec := deliver(h, secret, channelPost(channel, 77, int64(100+i)))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 1, repo.Len())
	row, _ := repo.Get(channel, 77)
	assert.Equal(t, 5, row.Deliveries)
	assert.True(t, row.PostedAt.Equal(time.Unix(104, 0)), "latest timestamp wins")
}

func TestWebhook_ConcurrentDuplicates(t *testing.T) {
	repo := posttest.NewMemRepo()
	h := newHandler(repo)
	body := channelPost(channel, 11, 500)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := deliver(h, secret, body)
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.Len())
}

type fakeTx struct{ calls int }

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeOutbox struct {
	keys []string
	err  error
}

func (f *fakeOutbox) Enqueue(_ context.Context, key string, kind outbox.Kind, _ []byte) error {
	if f.err != nil {
		return f.err
	}
	if kind == outbox.KindPostPublished {
		f.keys = append(f.keys, key)
	}
	return nil
}

func (f *fakeOutbox) PickBatch(context.Context, int, time.Duration) ([]outbox.Message, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkSuccess(context.Context, []string) error { return nil }

func TestWebhook_EventsOnlyOnFirstDelivery(t *testing.T) {
	repo := posttest.NewMemRepo()
	tx := &fakeTx{}
	ob := &fakeOutbox{}
	uc := NewUsecase(repo, Config{Secret: secret, Channel: channel}).WithEvents(tx, ob)
	h := NewHandler(uc, zap.NewNop(), 0)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, deliver(h, secret, channelPost(channel, 8, 1)).Code)
	}

	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, []string{"post_published:MyChannel/8"}, ob.keys)
}

func TestWebhook_OutboxFailureIs500(t *testing.T) {
	repo := posttest.NewMemRepo()
	uc := NewUsecase(repo, Config{Secret: secret, Channel: channel}).
		WithEvents(&fakeTx{}, &fakeOutbox{err: errors.New("disk full")})
	h := NewHandler(uc, zap.NewNop(), 0)

	rec := deliver(h, secret, channelPost(channel, 8, 1))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthorize_EmptySecretRejectsEverything(t *testing.T) {
	uc := NewUsecase(posttest.NewMemRepo(), Config{Channel: channel})
	assert.Error(t, uc.Authorize(""))
	assert.Error(t, uc.Authorize("anything"))
}

func TestResolvePostedAt(t *testing.T) {
	now := func() time.Time { return fixedNow }
	assert.True(t, resolvePostedAt(0, now).Equal(fixedNow))
	assert.True(t, resolvePostedAt(-5, now).Equal(fixedNow))
	assert.True(t, resolvePostedAt(60, now).Equal(time.Unix(60, 0)))
}
