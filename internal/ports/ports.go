package ports

import (
	"context"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/query"
)

// ContentStore answers filtered lookups and loads single items.
type ContentStore interface {
	Query(ctx context.Context, q query.Query) ([]domain.ItemID, error)
	// Load returns domain.ErrNotFound when the id does not resolve.
	Load(ctx context.Context, id domain.ItemID) (domain.NewsItem, error)
}

// ContentWriter persists news items (imports, editorial updates).
type ContentWriter interface {
	Save(ctx context.Context, item domain.NewsItem) error
}

// Renderer turns an item into a display fragment using a named view mode.
type Renderer interface {
	Render(ctx context.Context, item domain.NewsItem, mode string) (domain.Fragment, error)
}

// BundleCache keeps rendered output keyed by request and drops it by tag.
// Writers take a Mark before building and store with SetIfFresh so output
// built before an invalidation is never cached after it.
type BundleCache interface {
	Get(key string) (payload []byte, tags []string, ok bool)
	Mark() uint64
	SetIfFresh(key string, payload []byte, tags []string, mark uint64) bool
	Invalidate(tags ...string) int
}
