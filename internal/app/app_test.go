package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"RelatedNews/internal/config"
	"RelatedNews/internal/domain"
)

const sampleImport = `
items:
  - id: 1
    title: Bridge closed
    body: "<p>The bridge is closed for repairs.</p>"
    newsTypes: [10]
    newsLocations: [20]
    published: true
    created: 2025-11-01T08:00:00Z
  - id: 2
    title: Bridge reopens
    newsTypes: [10]
    published: true
    created: 2025-11-02T08:00:00Z
  - id: 3
    title: Harbour festival
    newsLocations: [20]
    published: true
    created: 2025-11-03T08:00:00Z
  - id: 4
    title: Draft
    published: false
    created: 2025-11-04T08:00:00Z
  - id: 5
    type: basic_page
    title: About us
    published: true
    created: 2025-11-05T08:00:00Z
`

func testApp(t *testing.T) *Application {
	t.Helper()

	cfg := config.LoadFile("")
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "news.db")

	application, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { application.Close() })

	if err := application.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return application
}

func TestImportAndRelated(t *testing.T) {
	application := testApp(t)

	path := filepath.Join(t.TempDir(), "items.yaml")
	if err := os.WriteFile(path, []byte(sampleImport), 0o600); err != nil {
		t.Fatalf("write import: %v", err)
	}

	n, err := application.Import(context.Background(), path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 imported items, got %d", n)
	}

	bundle, err := application.Related(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}

	ids := make([]domain.ItemID, 0, len(bundle.Fragments))
	for _, f := range bundle.Fragments {
		ids = append(ids, f.ItemID)
	}
	if diff := cmp.Diff([]domain.ItemID{2, 3}, ids); diff != "" {
		t.Fatalf("related ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"related_news_tag"}, bundle.Tags); diff != "" {
		t.Fatalf("tags (-want +got):\n%s", diff)
	}
}

func TestParseImportDefaultsType(t *testing.T) {
	t.Parallel()

	items, err := ParseImport([]byte(sampleImport), "news_page")
	if err != nil {
		t.Fatalf("ParseImport: %v", err)
	}
	if items[0].Type != "news_page" || items[4].Type != "basic_page" {
		t.Fatalf("unexpected types: %q %q", items[0].Type, items[4].Type)
	}
	if diff := cmp.Diff([]domain.TagID{10}, items[0].NewsTypes); diff != "" {
		t.Fatalf("news types (-want +got):\n%s", diff)
	}

	if _, err := ParseImport([]byte("items: {"), "news_page"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := config.LoadFile("")
	cfg.Database.Driver = "oracle"
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
