package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/query"
)

// fakeStore evaluates queries against an in-memory item list and records them.
type fakeStore struct {
	items    []domain.NewsItem
	queries  []query.Query
	queryErr error
	failAt   int
	loadErr  map[domain.ItemID]error
}

func (f *fakeStore) Query(_ context.Context, q query.Query) ([]domain.ItemID, error) {
	f.queries = append(f.queries, q)
	if f.queryErr != nil && len(f.queries) >= f.failAt {
		return nil, f.queryErr
	}

	var matched []domain.NewsItem
	for _, item := range f.items {
		if matches(item, q.Conditions) {
			matched = append(matched, item)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if q.Sort.Direction == query.Desc {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	ids := make([]domain.ItemID, 0, len(matched))
	for _, item := range matched {
		if q.Limit > 0 && len(ids) == q.Limit {
			break
		}
		ids = append(ids, item.ID)
	}
	return ids, nil
}

func (f *fakeStore) Load(_ context.Context, id domain.ItemID) (domain.NewsItem, error) {
	if err, ok := f.loadErr[id]; ok {
		return domain.NewsItem{}, err
	}
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.NewsItem{}, domain.ErrNotFound
}

func matches(item domain.NewsItem, conds []query.Condition) bool {
	for _, cond := range conds {
		switch cond.Field {
		case query.FieldStatus:
			if item.Published != cond.Value.(bool) {
				return false
			}
		case query.FieldType:
			if item.Type != cond.Value.(string) {
				return false
			}
		case query.FieldNewsType:
			if !intersects(item.NewsTypes, cond.Values) {
				return false
			}
		case query.FieldNewsLocation:
			if !intersects(item.NewsLocations, cond.Values) {
				return false
			}
		case query.FieldID:
			found := false
			for _, v := range cond.Values {
				if int64(item.ID) == v {
					found = true
				}
			}
			if (cond.Op == query.OpNotIn) == found {
				return false
			}
		}
	}
	return true
}

func intersects(tags []domain.TagID, values []int64) bool {
	for _, tag := range tags {
		for _, v := range values {
			if int64(tag) == v {
				return true
			}
		}
	}
	return false
}

var errStoreDown = errors.New("store unavailable")

func news(id domain.ItemID, created int, types, locations []domain.TagID) domain.NewsItem {
	return domain.NewsItem{
		ID:            id,
		Type:          "news_page",
		Title:         "item",
		NewsTypes:     types,
		NewsLocations: locations,
		Published:     true,
		CreatedAt:     time.Unix(int64(created), 0).UTC(),
	}
}

func tags(ids ...domain.TagID) []domain.TagID {
	return ids
}
