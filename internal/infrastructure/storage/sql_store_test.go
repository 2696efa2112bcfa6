package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/query"
)

func testStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "news.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := NewSQLStore(db, DriverSQLite)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func seed(t *testing.T, store *SQLStore, items ...domain.NewsItem) {
	t.Helper()
	for _, item := range items {
		if err := store.Save(context.Background(), item); err != nil {
			t.Fatalf("save %d: %v", item.ID, err)
		}
	}
}

func newsItem(id domain.ItemID, created int64, types, locations []domain.TagID) domain.NewsItem {
	return domain.NewsItem{
		ID:            id,
		Type:          "news_page",
		Title:         "News",
		Body:          "<p>Body</p>",
		NewsTypes:     types,
		NewsLocations: locations,
		Published:     true,
		CreatedAt:     time.Unix(created, 0).UTC(),
	}
}

func listing(extra ...query.Condition) query.Query {
	conds := []query.Condition{
		query.Eq(query.FieldStatus, true),
		query.Eq(query.FieldType, "news_page"),
	}
	return query.Query{
		Entity:     query.EntityNode,
		Conditions: append(conds, extra...),
		Sort:       query.Sort{Field: query.FieldCreated, Direction: query.Asc},
	}
}

func TestSQLStoreQueryFilters(t *testing.T) {
	t.Parallel()

	store := testStore(t)

	draft := newsItem(4, 400, []domain.TagID{1}, nil)
	draft.Published = false
	page := newsItem(5, 500, []domain.TagID{1}, nil)
	page.Type = "basic_page"

	seed(t, store,
		newsItem(1, 300, []domain.TagID{1, 2}, []domain.TagID{9}),
		newsItem(2, 100, []domain.TagID{2}, nil),
		newsItem(3, 200, nil, []domain.TagID{9}),
		draft,
		page,
	)

	tests := []struct {
		name string
		q    query.Query
		want []domain.ItemID
	}{
		{name: "all published news oldest first", q: listing(), want: []domain.ItemID{2, 3, 1}},
		{name: "news type intersection", q: listing(query.InTags(query.FieldNewsType, []domain.TagID{1, 7})), want: []domain.ItemID{1}},
		{name: "news type matches any term", q: listing(query.InTags(query.FieldNewsType, []domain.TagID{2})), want: []domain.ItemID{2, 1}},
		{name: "news location", q: listing(query.InTags(query.FieldNewsLocation, []domain.TagID{9})), want: []domain.ItemID{3, 1}},
		{name: "exclusions", q: listing(query.NotInIDs([]domain.ItemID{2, 3})), want: []domain.ItemID{1}},
		{name: "empty exclusions keep everything", q: listing(query.NotInIDs(nil)), want: []domain.ItemID{2, 3, 1}},
		{name: "empty tag set matches nothing", q: listing(query.InTags(query.FieldNewsType, nil)), want: nil},
	}

	for _, tc := range tests {
		got, err := store.Query(context.Background(), tc.q)
		if err != nil {
			t.Fatalf("%s: query error: %v", tc.name, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: ids (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestSQLStoreQuerySortAndLimit(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	seed(t, store,
		newsItem(1, 30, nil, nil),
		newsItem(2, 10, nil, nil),
		newsItem(3, 20, nil, nil),
		newsItem(4, 20, nil, nil),
	)

	q := listing()
	q.Limit = 3
	got, err := store.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if diff := cmp.Diff([]domain.ItemID{2, 3, 4}, got); diff != "" {
		t.Fatalf("ascending (-want +got):\n%s", diff)
	}

	q.Sort.Direction = query.Desc
	got, err = store.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if diff := cmp.Diff([]domain.ItemID{1, 4, 3}, got); diff != "" {
		t.Fatalf("descending (-want +got):\n%s", diff)
	}
}

func TestSQLStoreRejectsUnknownEntity(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	q := listing()
	q.Entity = "user"
	if _, err := store.Query(context.Background(), q); err == nil {
		t.Fatalf("expected error for unknown entity")
	}
}

func TestSQLStoreLoadAndSave(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	item := newsItem(7, 1700000000, []domain.TagID{3, 1, 3}, []domain.TagID{8})
	item.Title = "Harbour reopens"
	seed(t, store, item)

	got, err := store.Load(context.Background(), 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := item
	want.NewsTypes = []domain.TagID{1, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("loaded item (-want +got):\n%s", diff)
	}

	item.NewsTypes = nil
	item.Published = false
	seed(t, store, item)

	got, err = store.Load(context.Background(), 7)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Published || len(got.NewsTypes) != 0 {
		t.Fatalf("expected update to replace status and terms, got %+v", got)
	}
}

func TestSQLStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	if _, err := store.Load(context.Background(), 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSelectIDsPostgresPlaceholders(t *testing.T) {
	t.Parallel()

	store := NewSQLStore(nil, DriverPostgres)
	q := listing(
		query.InTags(query.FieldNewsType, []domain.TagID{4, 5}),
		query.NotInIDs([]domain.ItemID{1}),
	)
	q.Limit = 2

	stmt, args, err := store.selectIDs(q).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	if strings.Contains(stmt, "?") {
		t.Fatalf("expected dollar placeholders, got %s", stmt)
	}
	for _, fragment := range []string{"n.id IN (SELECT t.item_id FROM node_terms t", "n.id NOT IN", "ORDER BY n.created ASC, n.id ASC", "LIMIT 2"} {
		if !strings.Contains(stmt, fragment) {
			t.Fatalf("expected %q in %s", fragment, stmt)
		}
	}
	if len(args) != 6 {
		t.Fatalf("expected 6 args, got %d: %v", len(args), args)
	}
}
