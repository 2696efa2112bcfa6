package render

import (
	"context"
	"fmt"
	"log/slog"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/ports"
	"RelatedNews/internal/view"
)

// Renderer implements ports.Renderer via registered view builders.
type Renderer struct {
	registry *view.Registry
	logger   *slog.Logger
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer wires the view registry.
func NewRenderer(reg *view.Registry, log *slog.Logger) *Renderer {
	return &Renderer{registry: reg, logger: log}
}

// NewDefaultRenderer registers the teaser and title views.
func NewDefaultRenderer(pathPattern string, excerptLength int, log *slog.Logger) *Renderer {
	reg := view.NewRegistry()
	reg.Register(NewTeaserBuilder(pathPattern, excerptLength))
	reg.Register(NewTitleBuilder(pathPattern))
	return NewRenderer(reg, log)
}

// Render builds a fragment for item in the requested view mode.
func (r *Renderer) Render(ctx context.Context, item domain.NewsItem, mode string) (domain.Fragment, error) {
	if r.registry == nil {
		return domain.Fragment{}, fmt.Errorf("view registry is not configured")
	}

	builder, err := r.registry.Resolve(mode)
	if err != nil {
		return domain.Fragment{}, err
	}

	html, err := builder.Build(ctx, item)
	if err != nil {
		return domain.Fragment{}, fmt.Errorf("build %s view of %d: %w", mode, item.ID, err)
	}

	if r.logger != nil {
		r.logger.Debug("rendered item", "id", item.ID, "mode", mode)
	}
	return domain.Fragment{ItemID: item.ID, Mode: mode, HTML: html}, nil
}
