package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/ports"
)

// PresenterDeps wires the collaborators used to build related-news bundles.
type PresenterDeps struct {
	Selector *Selector
	Store    ports.ContentStore
	Renderer ports.Renderer
	ViewMode string
	CacheTag string
	Logger   *slog.Logger
}

// Presenter turns a selection of related ids into rendered fragments.
type Presenter struct {
	selector *Selector
	store    ports.ContentStore
	renderer ports.Renderer
	viewMode string
	cacheTag string
	logger   *slog.Logger
}

// NewPresenter constructs the presenter.
func NewPresenter(deps PresenterDeps) *Presenter {
	return &Presenter{
		selector: deps.Selector,
		store:    deps.Store,
		renderer: deps.Renderer,
		viewMode: deps.ViewMode,
		cacheTag: deps.CacheTag,
		logger:   deps.Logger,
	}
}

// BuildRelated renders up to count news items related to source.
func (p *Presenter) BuildRelated(ctx context.Context, source domain.NewsItem, count int) (domain.Bundle, error) {
	return p.BuildRelatedByTerms(ctx, source.NewsTypes, source.NewsLocations, []domain.ItemID{source.ID}, count)
}

// BuildRelatedByID loads the source item first; a missing source yields domain.ErrNotFound.
func (p *Presenter) BuildRelatedByID(ctx context.Context, id domain.ItemID, count int) (domain.Bundle, error) {
	if p.store == nil {
		return domain.Bundle{}, fmt.Errorf("content store is not configured")
	}
	source, err := p.store.Load(ctx, id)
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("load source %d: %w", id, err)
	}
	return p.BuildRelated(ctx, source, count)
}

// BuildRelatedByTerms selects and renders items matching the given taxonomy terms.
func (p *Presenter) BuildRelatedByTerms(ctx context.Context, newsTypes, newsLocations []domain.TagID, excluded []domain.ItemID, count int) (domain.Bundle, error) {
	if p.selector == nil {
		return domain.Bundle{}, fmt.Errorf("selector is not configured")
	}

	ids, err := p.selector.SelectRelated(ctx, SelectionRequest{
		NewsTypes:     newsTypes,
		NewsLocations: newsLocations,
		Excluded:      excluded,
		TargetCount:   count,
	})
	if err != nil {
		return domain.Bundle{}, fmt.Errorf("select related: %w", err)
	}

	return p.RenderItems(ctx, ids)
}

// RenderItems renders ids in order, skipping items deleted since selection.
// The cache tag is attached only when something was rendered.
func (p *Presenter) RenderItems(ctx context.Context, ids []domain.ItemID) (domain.Bundle, error) {
	var bundle domain.Bundle
	if len(ids) == 0 {
		return bundle, nil
	}
	if p.store == nil || p.renderer == nil {
		return domain.Bundle{}, fmt.Errorf("presenter is not fully configured")
	}

	bundle.Fragments = make([]domain.Fragment, 0, len(ids))
	for _, id := range ids {
		item, err := p.store.Load(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			p.debug("skip missing item", "id", id)
			continue
		}
		if err != nil {
			return domain.Bundle{}, fmt.Errorf("load item %d: %w", id, err)
		}

		fragment, err := p.renderer.Render(ctx, item, p.viewMode)
		if err != nil {
			return domain.Bundle{}, fmt.Errorf("render item %d: %w", id, err)
		}
		bundle.Fragments = append(bundle.Fragments, fragment)
	}

	if !bundle.Empty() && p.cacheTag != "" {
		bundle.AttachTag(p.cacheTag)
	}

	return bundle, nil
}

func (p *Presenter) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
