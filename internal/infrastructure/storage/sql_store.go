package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"RelatedNews/internal/domain"
	"RelatedNews/internal/ports"
	"RelatedNews/internal/query"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	nodeTable  = "node"
	termsTable = "node_terms"
)

const schema = `
CREATE TABLE IF NOT EXISTS node (
	id      BIGINT PRIMARY KEY,
	type    TEXT NOT NULL,
	title   TEXT NOT NULL,
	body    TEXT NOT NULL DEFAULT '',
	status  INTEGER NOT NULL DEFAULT 0,
	created BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_node_listing ON node(type, status, created);
CREATE TABLE IF NOT EXISTS node_terms (
	item_id BIGINT NOT NULL,
	field   TEXT NOT NULL,
	term_id BIGINT NOT NULL,
	PRIMARY KEY (item_id, field, term_id)
);
CREATE INDEX IF NOT EXISTS idx_node_terms_term ON node_terms(field, term_id);
`

// SQLStore serves news items from a relational database.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.ContentStore  = (*SQLStore)(nil)
	_ ports.ContentWriter = (*SQLStore)(nil)
)

// NewSQLStore wires a sql.DB; driver selects the placeholder dialect.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLStore{db: db, builder: sq.StatementBuilder.PlaceholderFormat(format)}
}

// Migrate creates the tables when they are missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Query returns the ids matching q in the requested order.
func (s *SQLStore) Query(ctx context.Context, q query.Query) ([]domain.ItemID, error) {
	if q.Entity != "" && q.Entity != query.EntityNode {
		return nil, fmt.Errorf("unsupported entity %q", q.Entity)
	}

	stmt, args, err := s.selectIDs(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	var ids []domain.ItemID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, domain.ItemID(id))
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return ids, nil
}

func (s *SQLStore) selectIDs(q query.Query) sq.SelectBuilder {
	sel := s.builder.Select("n.id").From(nodeTable + " n")
	for _, cond := range q.Conditions {
		sel = sel.Where(conditionSQL(cond))
	}

	if q.Sort.Field != "" {
		dir := q.Sort.Direction
		if dir != query.Desc {
			dir = query.Asc
		}
		sel = sel.OrderBy(fmt.Sprintf("n.%s %s", columnFor(q.Sort.Field), dir), fmt.Sprintf("n.id %s", dir))
	}
	if q.Limit > 0 {
		sel = sel.Limit(uint64(q.Limit))
	}
	return sel
}

func conditionSQL(cond query.Condition) sq.Sqlizer {
	switch cond.Field {
	case query.FieldNewsType, query.FieldNewsLocation:
		return termSubquery(string(cond.Field), cond.Op, cond.Values)
	case query.FieldStatus:
		return compare("n.status", cond.Op, statusValue(cond.Value), cond.Values)
	default:
		return compare("n."+columnFor(cond.Field), cond.Op, cond.Value, cond.Values)
	}
}

func compare(column string, op query.Operator, value any, values []int64) sq.Sqlizer {
	switch op {
	case query.OpIn:
		return sq.Eq{column: values}
	case query.OpNotIn:
		return sq.NotEq{column: values}
	default:
		return sq.Eq{column: value}
	}
}

// termSubquery matches items with at least one term of field among values.
// Empty value lists follow squirrel semantics: IN () is false, NOT IN () is true.
func termSubquery(field string, op query.Operator, values []int64) sq.Sqlizer {
	sub := sq.Select("t.item_id").From(termsTable + " t").
		Where(sq.Eq{"t.field": field, "t.term_id": values})
	stmt, args, err := sub.ToSql()
	if err != nil {
		return sq.Expr("1=0")
	}
	if op == query.OpNotIn {
		return sq.Expr("n.id NOT IN ("+stmt+")", args...)
	}
	return sq.Expr("n.id IN ("+stmt+")", args...)
}

func columnFor(field query.Field) string {
	switch field {
	case query.FieldCreated:
		return "created"
	case query.FieldID:
		return "id"
	case query.FieldType:
		return "type"
	case query.FieldStatus:
		return "status"
	default:
		return string(field)
	}
}

func statusValue(v any) any {
	if published, ok := v.(bool); ok {
		return boolToInt(published)
	}
	return v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// Load fetches one item with its taxonomy terms.
func (s *SQLStore) Load(ctx context.Context, id domain.ItemID) (domain.NewsItem, error) {
	stmt, args, err := s.builder.
		Select("id", "type", "title", "body", "status", "created").
		From(nodeTable).
		Where(sq.Eq{"id": int64(id)}).
		ToSql()
	if err != nil {
		return domain.NewsItem{}, fmt.Errorf("build load: %w", err)
	}

	var (
		item    domain.NewsItem
		rawID   int64
		status  int
		created int64
	)
	err = s.db.QueryRowContext(ctx, stmt, args...).Scan(&rawID, &item.Type, &item.Title, &item.Body, &status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewsItem{}, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.NewsItem{}, fmt.Errorf("load item %d: %w", id, err)
	}
	item.ID = domain.ItemID(rawID)
	item.Published = status == 1
	item.CreatedAt = time.Unix(created, 0).UTC()

	if err := s.loadTerms(ctx, &item); err != nil {
		return domain.NewsItem{}, err
	}
	return item, nil
}

func (s *SQLStore) loadTerms(ctx context.Context, item *domain.NewsItem) error {
	stmt, args, err := s.builder.
		Select("field", "term_id").
		From(termsTable).
		Where(sq.Eq{"item_id": int64(item.ID)}).
		OrderBy("field", "term_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build terms: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("query terms %d: %w", item.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			field string
			term  int64
		)
		if err := rows.Scan(&field, &term); err != nil {
			return fmt.Errorf("scan term: %w", err)
		}
		switch query.Field(field) {
		case query.FieldNewsType:
			item.NewsTypes = append(item.NewsTypes, domain.TagID(term))
		case query.FieldNewsLocation:
			item.NewsLocations = append(item.NewsLocations, domain.TagID(term))
		}
	}
	return rows.Err()
}

// Save upserts the item and replaces its taxonomy terms.
func (s *SQLStore) Save(ctx context.Context, item domain.NewsItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	created := item.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	stmt, args, err := s.builder.
		Insert(nodeTable).
		Columns("id", "type", "title", "body", "status", "created").
		Values(int64(item.ID), item.Type, item.Title, item.Body, boolToInt(item.Published), created.Unix()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			type = excluded.type,
			title = excluded.title,
			body = excluded.body,
			status = excluded.status,
			created = excluded.created`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert item %d: %w", item.ID, err)
	}

	stmt, args, err = s.builder.Delete(termsTable).Where(sq.Eq{"item_id": int64(item.ID)}).ToSql()
	if err != nil {
		return fmt.Errorf("build terms delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("clear terms %d: %w", item.ID, err)
	}

	insert := s.builder.Insert(termsTable).Columns("item_id", "field", "term_id")
	rows := 0
	for _, tag := range dedupeTags(item.NewsTypes) {
		insert = insert.Values(int64(item.ID), string(query.FieldNewsType), int64(tag))
		rows++
	}
	for _, tag := range dedupeTags(item.NewsLocations) {
		insert = insert.Values(int64(item.ID), string(query.FieldNewsLocation), int64(tag))
		rows++
	}
	if rows > 0 {
		stmt, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build terms insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert terms %d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item %d: %w", item.ID, err)
	}
	return nil
}

func dedupeTags(tags []domain.TagID) []domain.TagID {
	seen := make(map[domain.TagID]struct{}, len(tags))
	out := make([]domain.TagID, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
