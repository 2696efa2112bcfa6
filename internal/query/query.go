// Package query describes store-agnostic content lookups.
package query

import "RelatedNews/internal/domain"

// Field names a filterable attribute of a content item.
type Field string

const (
	FieldStatus       Field = "status"
	FieldType         Field = "type"
	FieldNewsType     Field = "news_type"
	FieldNewsLocation Field = "news_location"
	FieldID           Field = "id"
	FieldCreated      Field = "created"
)

// Operator is the comparison applied by a Condition.
type Operator string

const (
	OpEq    Operator = "="
	OpIn    Operator = "IN"
	OpNotIn Operator = "NOT IN"
)

// EntityNode is the entity kind holding news items.
const EntityNode = "node"

// Direction orders results on the sort field.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Condition restricts results. Eq uses Value; In and NotIn use Values.
type Condition struct {
	Field  Field
	Op     Operator
	Value  any
	Values []int64
}

// Sort selects the ordering of results.
type Sort struct {
	Field     Field
	Direction Direction
}

// Query is one lookup against a content store. Entity names the kind of
// content searched; the bundle is filtered with a FieldType condition.
// Limit <= 0 means unbounded.
type Query struct {
	Entity     string
	Conditions []Condition
	Sort       Sort
	Limit      int
}

// Eq matches items whose field equals value.
func Eq(field Field, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// InTags matches items carrying at least one of the given terms in field.
func InTags(field Field, tags []domain.TagID) Condition {
	values := make([]int64, len(tags))
	for i, tag := range tags {
		values[i] = int64(tag)
	}
	return Condition{Field: field, Op: OpIn, Values: values}
}

// NotInIDs excludes the given item ids.
func NotInIDs(ids []domain.ItemID) Condition {
	values := make([]int64, len(ids))
	for i, id := range ids {
		values[i] = int64(id)
	}
	return Condition{Field: FieldID, Op: OpNotIn, Values: values}
}

// Excluded returns the ids removed by NOT IN conditions on the id field.
func (q Query) Excluded() []domain.ItemID {
	var ids []domain.ItemID
	for _, cond := range q.Conditions {
		if cond.Field != FieldID || cond.Op != OpNotIn {
			continue
		}
		for _, v := range cond.Values {
			ids = append(ids, domain.ItemID(v))
		}
	}
	return ids
}
