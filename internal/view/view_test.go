package view

import (
	"context"
	"html/template"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"RelatedNews/internal/domain"
)

type namedBuilder string

func (n namedBuilder) Mode() string { return string(n) }

func (n namedBuilder) Build(context.Context, domain.NewsItem) (template.HTML, error) {
	return template.HTML(n), nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(namedBuilder("teaser"))
	reg.Register(namedBuilder("title"))

	builder, err := reg.Resolve("teaser")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if builder.Mode() != "teaser" {
		t.Fatalf("unexpected builder %s", builder.Mode())
	}

	_, err = reg.Resolve("full")
	if err == nil {
		t.Fatalf("expected error for unregistered mode")
	}
	if !strings.Contains(err.Error(), "available: teaser, title") {
		t.Fatalf("error should list registered modes, got %v", err)
	}

	if diff := cmp.Diff([]string{"teaser", "title"}, reg.Modes()); diff != "" {
		t.Fatalf("modes (-want +got):\n%s", diff)
	}
}

func TestRegistryZeroValue(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(namedBuilder("teaser"))
	if _, err := reg.Resolve("teaser"); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
}
