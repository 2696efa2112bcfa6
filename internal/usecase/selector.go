package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/ports"
	"RelatedNews/internal/query"
)

// ErrInvalidTargetCount is returned for negative target counts.
var ErrInvalidTargetCount = errors.New("target count must not be negative")

const maxPrealloc = 64

// SelectionRequest carries the taxonomy of the source item and the ids that
// must never appear in the result.
type SelectionRequest struct {
	NewsTypes     []domain.TagID
	NewsLocations []domain.TagID
	Excluded      []domain.ItemID
	TargetCount   int
}

// Selector fills a fixed-size list of related items from three tiers:
// news type match, news location match, then any published item.
type Selector struct {
	store       ports.ContentStore
	contentType string
	logger      *slog.Logger
}

// NewSelector wires the content store; contentType is the bundle queried in every tier.
func NewSelector(store ports.ContentStore, contentType string, logger *slog.Logger) *Selector {
	return &Selector{store: store, contentType: contentType, logger: logger}
}

type tier struct {
	name   string
	filter *query.Condition
}

// SelectRelated returns at most req.TargetCount ids, tier by tier, oldest first
// within each tier.
func (s *Selector) SelectRelated(ctx context.Context, req SelectionRequest) ([]domain.ItemID, error) {
	if req.TargetCount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTargetCount, req.TargetCount)
	}
	if req.TargetCount == 0 {
		return []domain.ItemID{}, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("content store is not configured")
	}

	// Capacity is only a hint; the store LIMIT bounds the result.
	hint := min(req.TargetCount, maxPrealloc)
	excluded := make([]domain.ItemID, 0, len(req.Excluded)+hint)
	seen := make(map[domain.ItemID]struct{}, len(req.Excluded)+hint)
	for _, id := range req.Excluded {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		excluded = append(excluded, id)
	}

	tiers := make([]tier, 0, 3)
	if len(req.NewsTypes) > 0 {
		cond := query.InTags(query.FieldNewsType, req.NewsTypes)
		tiers = append(tiers, tier{name: "news type", filter: &cond})
	}
	if len(req.NewsLocations) > 0 {
		cond := query.InTags(query.FieldNewsLocation, req.NewsLocations)
		tiers = append(tiers, tier{name: "news location", filter: &cond})
	}
	tiers = append(tiers, tier{name: "recent"})

	selected := make([]domain.ItemID, 0, hint)
	for _, t := range tiers {
		remaining := req.TargetCount - len(selected)
		if remaining <= 0 {
			break
		}

		ids, err := s.store.Query(ctx, s.buildQuery(t.filter, excluded, remaining))
		if err != nil {
			return nil, fmt.Errorf("%s tier: %w", t.name, err)
		}

		added := 0
		for _, id := range ids {
			if added == remaining {
				break
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			selected = append(selected, id)
			excluded = append(excluded, id)
			added++
		}
		s.debug("tier selected", "tier", t.name, "quota", remaining, "added", added)
	}

	return selected, nil
}

func (s *Selector) buildQuery(filter *query.Condition, excluded []domain.ItemID, limit int) query.Query {
	conds := []query.Condition{
		query.Eq(query.FieldStatus, true),
		query.Eq(query.FieldType, s.contentType),
	}
	if filter != nil {
		conds = append(conds, *filter)
	}
	conds = append(conds, query.NotInIDs(excluded))

	return query.Query{
		Entity:     query.EntityNode,
		Conditions: conds,
		Sort:       query.Sort{Field: query.FieldCreated, Direction: query.Asc},
		Limit:      limit,
	}
}

func (s *Selector) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
