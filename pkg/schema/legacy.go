package schema

import (
	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
)

// Names used by the synthetic legacy definition. Legacy collections are
// normalized into these before resolution, so downstream consumers only
// ever see the current-generation shape.
const (
	LegacyItemType     = "item"
	LegacyCategoryType = "category"

	// LegacyCategoryField is the field the category reference is
	// promoted to on normalized items.
	LegacyCategoryField = "category"
)

// LegacyDefinition builds the synthetic definition equivalent to the
// legacy items + categories format: two entity types and a single
// one-cardinality item→category relationship.
func LegacyDefinition() *CollectionDefinition {
	return &CollectionDefinition{
		SchemaVersion: 1,
		PrimaryType:   LegacyItemType,
		EntityTypes: map[string]EntityTypeDefinition{
			LegacyItemType:     {Source: "items.json"},
			LegacyCategoryType: {Source: "categories.json"},
		},
		Relationships: []RelationshipDefinition{
			{
				SourceType:  LegacyItemType,
				SourceField: LegacyCategoryField,
				TargetType:  LegacyCategoryType,
				Cardinality: CardinalityOne,
			},
		},
		typeOrder: []string{LegacyItemType, LegacyCategoryType},
	}
}

// NormalizeLegacyItems promotes the legacy nested category reference
// (metadata.category) to a top-level field so the resolver can stay
// format-agnostic. Input entities are not mutated; items that need no
// promotion are passed through unchanged.
func NormalizeLegacyItems(items []*entity.Entity) []*entity.Entity {
	out := make([]*entity.Entity, len(items))
	for i, item := range items {
		out[i] = normalizeLegacyItem(item)
	}
	return out
}

func normalizeLegacyItem(item *entity.Entity) *entity.Entity {
	if _, ok := item.Fields[LegacyCategoryField]; ok {
		return item // already flat
	}
	meta, ok := item.Fields["metadata"]
	if !ok {
		return item
	}
	cat, ok := meta.Field(LegacyCategoryField)
	if !ok || cat.IsNull() {
		return item
	}

	fields := make(map[string]entity.Value, len(item.Fields)+1)
	for k, v := range item.Fields {
		fields[k] = v
	}
	fields[LegacyCategoryField] = cat
	return &entity.Entity{ID: item.ID, Type: item.Type, Fields: fields}
}
