package domain

import (
	"errors"
	"html/template"
	"time"
)

// ErrNotFound is returned by stores when an item id no longer resolves.
var ErrNotFound = errors.New("news item not found")

// ItemID identifies a content item inside the store.
type ItemID int64

// TagID identifies a taxonomy term.
type TagID int64

// NewsItem is a published (or draft) news article together with its taxonomy.
type NewsItem struct {
	ID            ItemID
	Type          string
	Title         string
	Body          string
	NewsTypes     []TagID
	NewsLocations []TagID
	Published     bool
	CreatedAt     time.Time
}

// Fragment is a display-ready rendering of one item.
type Fragment struct {
	ItemID ItemID
	Mode   string
	HTML   template.HTML
}

// Bundle is the ordered list of rendered related items plus the cache tags
// that invalidate it.
type Bundle struct {
	Fragments []Fragment
	Tags      []string
}

// AttachTag marks the bundle as invalidated whenever content tagged name changes.
func (b *Bundle) AttachTag(name string) {
	for _, tag := range b.Tags {
		if tag == name {
			return
		}
	}
	b.Tags = append(b.Tags, name)
}

// Empty reports whether nothing was rendered.
func (b Bundle) Empty() bool {
	return len(b.Fragments) == 0
}
