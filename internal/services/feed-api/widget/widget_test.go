package widget

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidget_RendersFeedSettings(t *testing.T) {
	h, err := NewHandler(Config{Title: "News", FeedURL: "/api/feed", Limit: 5})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widget", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>News</title>")
	assert.Regexp(t, `var feedURL = "\\?/api\\?/feed";`, body)
	assert.Regexp(t, `var limit =\s*5\s*;`, body)
	assert.Contains(t, body, "data-telegram-post")
}

func TestWidget_ConditionalRequest(t *testing.T) {
	h, err := NewHandler(Config{})
	require.NoError(t, err)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/widget", nil))
	tag := first.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest(http.MethodGet, "/widget", nil)
	req.Header.Set("If-None-Match", tag)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}
