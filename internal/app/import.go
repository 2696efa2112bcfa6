package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"RelatedNews/internal/domain"
)

// importItem is the YAML shape of one news item in an import file.
type importItem struct {
	ID            int64     `yaml:"id"`
	Type          string    `yaml:"type"`
	Title         string    `yaml:"title"`
	Body          string    `yaml:"body"`
	NewsTypes     []int64   `yaml:"newsTypes"`
	NewsLocations []int64   `yaml:"newsLocations"`
	Published     bool      `yaml:"published"`
	Created       time.Time `yaml:"created"`
}

type importFile struct {
	Items []importItem `yaml:"items"`
}

// ParseImport decodes news items from YAML; items without a type default to contentType.
func ParseImport(raw []byte, contentType string) ([]domain.NewsItem, error) {
	var file importFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse import: %w", err)
	}

	items := make([]domain.NewsItem, 0, len(file.Items))
	for _, in := range file.Items {
		itemType := in.Type
		if itemType == "" {
			itemType = contentType
		}
		items = append(items, domain.NewsItem{
			ID:            domain.ItemID(in.ID),
			Type:          itemType,
			Title:         in.Title,
			Body:          in.Body,
			NewsTypes:     toTags(in.NewsTypes),
			NewsLocations: toTags(in.NewsLocations),
			Published:     in.Published,
			CreatedAt:     in.Created,
		})
	}
	return items, nil
}

// Import saves every item of a YAML file through the editor.
func (a *Application) Import(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	items, err := ParseImport(raw, a.cfg.Related.ContentType)
	if err != nil {
		return 0, err
	}

	for i, item := range items {
		if err := a.editor.Save(ctx, item); err != nil {
			return i, err
		}
	}
	a.logger.Info("imported news items", "path", path, "count", len(items))
	return len(items), nil
}

func toTags(ids []int64) []domain.TagID {
	if len(ids) == 0 {
		return nil
	}
	tags := make([]domain.TagID, len(ids))
	for i, id := range ids {
		tags[i] = domain.TagID(id)
	}
	return tags
}
