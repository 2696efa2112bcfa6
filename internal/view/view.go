package view

import (
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"RelatedNews/internal/domain"
)

// Builder renders one item in a single presentation mode (teaser, title, etc.).
type Builder interface {
	Mode() string
	Build(ctx context.Context, item domain.NewsItem) (template.HTML, error)
}

// Registry keeps a mapping from view mode names to their builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]Builder{}}
}

// Register adds or replaces a builder.
func (r *Registry) Register(builder Builder) {
	if r.builders == nil {
		r.builders = map[string]Builder{}
	}
	r.builders[builder.Mode()] = builder
}

// Resolve returns a builder by mode or an error if it is absent.
func (r *Registry) Resolve(mode string) (Builder, error) {
	if builder, ok := r.builders[mode]; ok {
		return builder, nil
	}
	return nil, fmt.Errorf("view mode %s is not registered (available: %s)", mode, strings.Join(r.Modes(), ", "))
}

// Modes lists registered mode names in sorted order.
func (r *Registry) Modes() []string {
	modes := make([]string, 0, len(r.builders))
	for mode := range r.builders {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}
