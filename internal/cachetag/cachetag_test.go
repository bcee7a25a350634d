package cachetag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	MessageID int64  `json:"message_id"`
	Key       string `json:"key"`
}

func TestEncode_Deterministic(t *testing.T) {
	a := []item{{3, "news/3"}, {2, "news/2"}}
	b := []item{{3, "news/3"}, {2, "news/2"}}

	_, ta, err := Encode(a)
	require.NoError(t, err)
	_, tb, err := Encode(b)
	require.NoError(t, err)
	assert.Equal(t, ta, tb)
	assert.Len(t, ta, 64+2)
	assert.Equal(t, byte('"'), ta[0])
}

func TestEncode_OrderAndMembershipChangeTag(t *testing.T) {
	_, base, err := Encode([]item{{3, "news/3"}, {2, "news/2"}})
	require.NoError(t, err)

	_, reordered, err := Encode([]item{{2, "news/2"}, {3, "news/3"}})
	require.NoError(t, err)
	_, grown, err := Encode([]item{{5, "news/5"}, {3, "news/3"}, {2, "news/2"}})
	require.NoError(t, err)
	_, empty, err := Encode([]item{})
	require.NoError(t, err)

	assert.NotEqual(t, base, reordered)
	assert.NotEqual(t, base, grown)
	assert.NotEqual(t, base, empty)
}

func TestOf_OverTransmittedBytes(t *testing.T) {
	body, tag, err := Encode(map[string]any{"items": []item{{1, "news/1"}}})
	require.NoError(t, err)
	assert.Equal(t, Of(body), tag)
}

func TestMatches(t *testing.T) {
	tag := Of([]byte(`{"items":[]}`))

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"empty header", "", false},
		{"exact", tag, true},
		{"weak form", "W/" + tag, true},
		{"in list", `"abc", ` + tag, true},
		{"wildcard", "*", true},
		{"other tag", `"abc"`, false},
		{"unquoted", tag[1 : len(tag)-1], false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.header, tag))
		})
	}
}
