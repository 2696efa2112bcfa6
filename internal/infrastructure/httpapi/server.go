package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/ports"
	"RelatedNews/internal/usecase"
)

const (
	cacheTagHeader    = "Cache-Tag"
	cacheStatusHeader = "X-Cache"

	// MaxCount bounds the count query parameter.
	MaxCount = 100
)

// Deps wires the use cases and cache behind the page routes.
type Deps struct {
	Presenter *usecase.Presenter
	Editor    *usecase.Editor
	Cache     ports.BundleCache
	CacheTag  string
	PageCount int
	TermCount int
	Logger    *slog.Logger
}

// Server serves the related-news block and news updates.
type Server struct {
	presenter *usecase.Presenter
	editor    *usecase.Editor
	cache     ports.BundleCache
	cacheTag  string
	pageCount int
	termCount int
	logger    *slog.Logger
}

// NewServer constructs the HTTP layer.
func NewServer(deps Deps) *Server {
	return &Server{
		presenter: deps.Presenter,
		editor:    deps.Editor,
		cache:     deps.Cache,
		cacheTag:  deps.CacheTag,
		pageCount: deps.PageCount,
		termCount: deps.TermCount,
		logger:    deps.Logger,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/related", s.relatedByTerms)
	r.Route("/news/{id}", func(r chi.Router) {
		r.Get("/related", s.relatedByNode)
		r.Put("/", s.saveNews)
	})
	return r
}

type fragmentPayload struct {
	ID   domain.ItemID `json:"id"`
	Mode string        `json:"mode"`
	HTML string        `json:"html"`
}

type bundlePayload struct {
	Items []fragmentPayload `json:"items"`
	Tags  []string          `json:"tags"`
}

type newsPayload struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Body          string         `json:"body"`
	NewsTypes     []domain.TagID `json:"newsTypes"`
	NewsLocations []domain.TagID `json:"newsLocations"`
	Published     bool           `json:"published"`
	Created       time.Time      `json:"created"`
}

func (s *Server) relatedByNode(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	count, err := parseCount(r.URL.Query().Get("count"), s.pageCount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("node:%d:%d:%s", id, count, format(r))
	s.serveBlock(w, r, key, func(ctx context.Context) (domain.Bundle, error) {
		return s.presenter.BuildRelatedByID(ctx, id, count)
	})
}

func (s *Server) relatedByTerms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	types, err := parseIDList[domain.TagID](q.Get("type"))
	if err != nil {
		http.Error(w, "type: "+err.Error(), http.StatusBadRequest)
		return
	}
	locations, err := parseIDList[domain.TagID](q.Get("location"))
	if err != nil {
		http.Error(w, "location: "+err.Error(), http.StatusBadRequest)
		return
	}
	excluded, err := parseIDList[domain.ItemID](q.Get("exclude"))
	if err != nil {
		http.Error(w, "exclude: "+err.Error(), http.StatusBadRequest)
		return
	}
	count, err := parseCount(q.Get("count"), s.termCount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("terms:%v:%v:%v:%d:%s", types, locations, excluded, count, format(r))
	s.serveBlock(w, r, key, func(ctx context.Context) (domain.Bundle, error) {
		return s.presenter.BuildRelatedByTerms(ctx, types, locations, excluded, count)
	})
}

// serveBlock renders the related block, caching it under the related-news tag
// even when the bundle is empty so a later news change can fill it.
func (s *Server) serveBlock(w http.ResponseWriter, r *http.Request, key string, build func(context.Context) (domain.Bundle, error)) {
	asJSON := format(r) == "json"

	var mark uint64
	if s.cache != nil {
		if payload, tags, ok := s.cache.Get(key); ok {
			w.Header().Set(cacheTagHeader, strings.Join(tags, " "))
			s.writeBlock(w, asJSON, payload, "HIT")
			return
		}
		mark = s.cache.Mark()
	}

	bundle, err := build(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tags := append([]string(nil), bundle.Tags...)
	if s.cacheTag != "" && !contains(tags, s.cacheTag) {
		tags = append(tags, s.cacheTag)
	}

	var payload []byte
	if asJSON {
		payload, err = encodeBundle(bundle, tags)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		payload = renderContainer(bundle)
	}

	if s.cache != nil && !s.cache.SetIfFresh(key, payload, tags, mark) && s.logger != nil {
		s.logger.Debug("skip caching block invalidated during build", "key", key)
	}
	w.Header().Set(cacheTagHeader, strings.Join(tags, " "))
	s.writeBlock(w, asJSON, payload, "MISS")
}

func (s *Server) saveNews(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body newsPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "decode body: "+err.Error(), http.StatusBadRequest)
		return
	}

	item := domain.NewsItem{
		ID:            id,
		Type:          body.Type,
		Title:         body.Title,
		Body:          body.Body,
		NewsTypes:     body.NewsTypes,
		NewsLocations: body.NewsLocations,
		Published:     body.Published,
		CreatedAt:     body.Created,
	}
	if err := s.editor.Save(r.Context(), item); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeBlock(w http.ResponseWriter, asJSON bool, payload []byte, status string) {
	if asJSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.Header().Set(cacheStatusHeader, status)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "news item not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvalidTargetCount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		if s.logger != nil {
			s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func renderContainer(bundle domain.Bundle) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<div class="related-news-container">`)
	for _, f := range bundle.Fragments {
		buf.WriteString(string(f.HTML))
	}
	buf.WriteString(`</div>`)
	return buf.Bytes()
}

func encodeBundle(bundle domain.Bundle, tags []string) ([]byte, error) {
	payload := bundlePayload{Items: make([]fragmentPayload, 0, len(bundle.Fragments)), Tags: tags}
	for _, f := range bundle.Fragments {
		payload.Items = append(payload.Items, fragmentPayload{ID: f.ItemID, Mode: f.Mode, HTML: string(f.HTML)})
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return out, nil
}

func format(r *http.Request) string {
	if strings.EqualFold(r.URL.Query().Get("format"), "json") {
		return "json"
	}
	return "html"
}

func parseID(raw string) (domain.ItemID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid news id %q", raw)
	}
	return domain.ItemID(id), nil
}

func parseCount(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", raw)
	}
	if count > MaxCount {
		return 0, fmt.Errorf("count %d exceeds maximum %d", count, MaxCount)
	}
	return count, nil
}

func parseIDList[T ~int64](raw string) ([]T, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]T, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		out = append(out, T(v))
	}
	return out, nil
}

func contains(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}
