package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/view"
)

const (
	ModeTeaser = "teaser"
	ModeTitle  = "title"

	defaultPathPattern = "/node/%d"
)

var teaserTemplate = template.Must(template.New("teaser").Parse(
	`<article class="node node--news node--teaser" data-id="{{.ID}}">` +
		`<h3 class="node__title"><a href="{{.URL}}">{{.Title}}</a></h3>` +
		`<time datetime="{{.Datetime}}">{{.Date}}</time>` +
		`{{if .Excerpt}}<p class="node__summary">{{.Excerpt}}</p>{{end}}` +
		`</article>`))

var titleTemplate = template.Must(template.New("title").Parse(
	`<a class="node node--news node--title" data-id="{{.ID}}" href="{{.URL}}">{{.Title}}</a>`))

type teaserData struct {
	ID       domain.ItemID
	URL      string
	Title    string
	Datetime string
	Date     string
	Excerpt  string
}

// TeaserBuilder renders the list-friendly teaser: title link, date and a short excerpt.
type TeaserBuilder struct {
	pathPattern   string
	excerptLength int
}

var _ view.Builder = (*TeaserBuilder)(nil)

// NewTeaserBuilder sets the excerpt length in runes; pathPattern formats the item link from its id.
func NewTeaserBuilder(pathPattern string, excerptLength int) *TeaserBuilder {
	if pathPattern == "" {
		pathPattern = defaultPathPattern
	}
	return &TeaserBuilder{pathPattern: pathPattern, excerptLength: excerptLength}
}

// Mode identifies the builder inside the registry.
func (b *TeaserBuilder) Mode() string {
	return ModeTeaser
}

// Build renders the teaser markup.
func (b *TeaserBuilder) Build(_ context.Context, item domain.NewsItem) (template.HTML, error) {
	excerpt, err := Excerpt(item.Body, b.excerptLength)
	if err != nil {
		return "", fmt.Errorf("excerpt: %w", err)
	}

	created := item.CreatedAt.UTC()
	return execute(teaserTemplate, teaserData{
		ID:       item.ID,
		URL:      fmt.Sprintf(b.pathPattern, item.ID),
		Title:    item.Title,
		Datetime: created.Format(time.RFC3339),
		Date:     created.Format("2 January 2006"),
		Excerpt:  excerpt,
	})
}

// TitleBuilder renders a bare title link.
type TitleBuilder struct {
	pathPattern string
}

var _ view.Builder = (*TitleBuilder)(nil)

// NewTitleBuilder builds a title-only view.
func NewTitleBuilder(pathPattern string) *TitleBuilder {
	if pathPattern == "" {
		pathPattern = defaultPathPattern
	}
	return &TitleBuilder{pathPattern: pathPattern}
}

// Mode identifies the builder inside the registry.
func (b *TitleBuilder) Mode() string {
	return ModeTitle
}

// Build renders the title link.
func (b *TitleBuilder) Build(_ context.Context, item domain.NewsItem) (template.HTML, error) {
	return execute(titleTemplate, teaserData{
		ID:    item.ID,
		URL:   fmt.Sprintf(b.pathPattern, item.ID),
		Title: item.Title,
	})
}

func execute(tmpl *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", tmpl.Name(), err)
	}
	return template.HTML(buf.String()), nil
}
