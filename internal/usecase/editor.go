package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/ports"
)

// Editor persists news items and invalidates cached related blocks.
type Editor struct {
	writer   ports.ContentWriter
	cache    ports.BundleCache
	cacheTag string
	logger   *slog.Logger
}

// NewEditor wires the writer; cache may be nil when nothing is cached.
func NewEditor(writer ports.ContentWriter, cache ports.BundleCache, cacheTag string, logger *slog.Logger) *Editor {
	return &Editor{writer: writer, cache: cache, cacheTag: cacheTag, logger: logger}
}

// Save validates and stores item. Any change to a news item may alter every
// related block, so all entries carrying the related-news tag are dropped.
func (e *Editor) Save(ctx context.Context, item domain.NewsItem) error {
	if e.writer == nil {
		return fmt.Errorf("content writer is not configured")
	}
	if item.ID <= 0 {
		return fmt.Errorf("item id must be positive, got %d", item.ID)
	}
	if strings.TrimSpace(item.Type) == "" {
		return fmt.Errorf("item %d: type is required", item.ID)
	}

	if err := e.writer.Save(ctx, item); err != nil {
		return fmt.Errorf("save item %d: %w", item.ID, err)
	}

	if e.cache != nil && e.cacheTag != "" {
		dropped := e.cache.Invalidate(e.cacheTag)
		if e.logger != nil {
			e.logger.Debug("invalidated related blocks", "id", item.ID, "tag", e.cacheTag, "dropped", dropped)
		}
	}
	return nil
}
