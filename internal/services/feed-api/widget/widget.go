package widget

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/NordCoder/Tgfeed/internal/cachetag"
)

//go:embed widget.html
var page string

var tmpl = template.Must(template.New("widget").Parse(page))

type Config struct {
	Title   string
	FeedURL string
	Limit   int
}

// Handler serves the embeddable page. It is rendered once; the page pulls
// items from FeedURL and pages backwards with before=<oldest id>.
type Handler struct {
	body []byte
	etag string
}

func NewHandler(cfg Config) (*Handler, error) {
	if cfg.FeedURL == "" {
		cfg.FeedURL = "/api/feed"
	}
	if cfg.Title == "" {
		cfg.Title = "Channel feed"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 8
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return nil, err
	}
	return &Handler{body: buf.Bytes(), etag: cachetag.Of(buf.Bytes())}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if cachetag.Matches(r.Header.Get("If-None-Match"), h.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.body)
}
