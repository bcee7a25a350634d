package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Tgfeed/internal/domain/post"
)

type unorderedRepo struct{ rows []*post.Post }

func (r unorderedRepo) Upsert(context.Context, *post.Post) (bool, error) { return false, nil }
func (r unorderedRepo) Query(context.Context, post.Query) ([]*post.Post, error) {
	return r.rows, nil
}
func (r unorderedRepo) Ping(context.Context) error { return nil }

func TestList_RejectsOutOfOrderRows(t *testing.T) {
	uc := NewUsecase(unorderedRepo{rows: []*post.Post{{MessageID: 2}, {MessageID: 5}}},
		Config{Channel: channel, DefaultLimit: 8, MaxLimit: 30})

	_, err := uc.List(context.Background(), Params{})
	require.ErrorIs(t, err, post.ErrQuery)
}

func TestList_TrimsOverlongResult(t *testing.T) {
	uc := NewUsecase(unorderedRepo{rows: []*post.Post{{MessageID: 9}, {MessageID: 5}, {MessageID: 1}}},
		Config{Channel: channel, DefaultLimit: 2, MaxLimit: 30})

	page, err := uc.List(context.Background(), Params{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestNewUsecase_FixesInconsistentLimits(t *testing.T) {
	uc := NewUsecase(unorderedRepo{}, Config{DefaultLimit: 50, MaxLimit: 30})
	assert.Equal(t, 30, uc.clamp(nil))

	uc = NewUsecase(unorderedRepo{}, Config{DefaultLimit: 0, MaxLimit: 0})
	assert.Equal(t, 1, uc.clamp(nil))
}
