// Package resolve turns raw per-type entity sets into a resolved entity
// graph: relationship fields are rewritten to live references, implicit
// relationships are inferred from field names, and unresolvable target
// ids are marked rather than dropped.
package resolve

import (
	"fmt"
	"log"

	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
	"github.com/REPPL/itemdeck.app-sub011/pkg/schema"
)

// Warning records a relationship reference whose target id was not
// found. Non-fatal: the load still succeeds and the field carries an
// unresolved marker.
type Warning struct {
	SourceType string `json:"sourceType"`
	SourceID   string `json:"sourceId"`
	Field      string `json:"field"`
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s/%s: field %q references missing %s %q",
		w.SourceType, w.SourceID, w.Field, w.TargetType, w.TargetID)
}

// Result is a resolved entity graph plus the unresolved-reference
// warnings collected while building it.
type Result struct {
	Graph    *entity.Graph
	Warnings []Warning
}

// Resolve builds a resolved graph from raw entity sets. It is read-only
// over its inputs and produces a brand-new graph each call, so running
// it twice over the same inputs yields structurally equal results.
//
// Explicit relationship declarations are indexed first; implicit
// inference (a string field named exactly like an entity type) applies
// only to fields with no explicit declaration.
func Resolve(def *schema.CollectionDefinition, raw map[string][]*entity.Entity) (*Result, error) {
	graph := entity.NewGraph()

	// Pass 0: shell entities and the per-type id index. Field maps are
	// copied so the raw inputs stay untouched.
	for _, typeName := range def.TypeOrder() {
		graph.AddType(typeName)
		for _, e := range raw[typeName] {
			fields := make(map[string]entity.Value, len(e.Fields))
			for k, v := range e.Fields {
				fields[k] = v
			}
			graph.Add(&entity.ResolvedEntity{ID: e.ID, Type: e.Type, Fields: fields})
		}
	}

	explicit := indexExplicit(def)
	for sourceType := range explicit {
		if !graph.HasType(sourceType) {
			return nil, fmt.Errorf("relationship source type %q has no loaded entities", sourceType)
		}
	}

	r := &resolver{def: def, graph: graph}

	// Pass 1: declared relationships.
	for _, typeName := range def.TypeOrder() {
		rels := explicit[typeName]
		for _, e := range graph.Entities(typeName) {
			for field, rel := range rels {
				if v, ok := e.Fields[field]; ok && !v.IsNull() {
					e.Fields[field] = r.resolveField(e, field, v, rel)
				}
			}
		}
	}

	// Pass 2: implicit inference, only for fields the explicit index
	// does not cover.
	for _, typeName := range def.TypeOrder() {
		rels := explicit[typeName]
		for _, e := range graph.Entities(typeName) {
			for field, v := range e.Fields {
				if _, declared := rels[field]; declared {
					continue
				}
				if !graph.HasType(field) || field == "id" {
					continue
				}
				if _, isString := v.AsString(); !isString {
					continue
				}
				inferred := &schema.RelationshipDefinition{
					SourceType:  typeName,
					SourceField: field,
					TargetType:  field,
					Cardinality: schema.CardinalityOne,
				}
				e.Fields[field] = r.resolveField(e, field, v, inferred)
			}
		}
	}

	return &Result{Graph: graph, Warnings: r.warnings}, nil
}

type resolver struct {
	def      *schema.CollectionDefinition
	graph    *entity.Graph
	warnings []Warning
}

// resolveField rewrites one relationship field value. The declared
// cardinality is authoritative: a data shape that disagrees with it is
// coerced and logged, never guessed around.
func (r *resolver) resolveField(e *entity.ResolvedEntity, field string, v entity.Value, rel *schema.RelationshipDefinition) entity.Value {
	ids, shapeOK := referenceIDs(v)
	if !shapeOK {
		// Not an id or id list (e.g. nested object); leave untouched.
		return v
	}

	switch rel.Cardinality {
	case schema.CardinalityMany:
		if v.Kind() != entity.KindArray {
			log.Printf("resolve: %s/%s field %q is scalar but relationship is declared many; coercing to one-element list",
				e.Type, e.ID, field)
		}
		refs := make([]*entity.ResolvedEntity, len(ids))
		for i, id := range ids {
			target, ok := r.graph.Lookup(rel.TargetType, id)
			if !ok {
				r.warn(e, field, rel.TargetType, id)
				continue
			}
			refs[i] = target
		}
		return entity.RefList(ids, refs)

	default: // CardinalityOne
		if len(ids) == 0 {
			return v
		}
		id := ids[0]
		if v.Kind() == entity.KindArray {
			log.Printf("resolve: %s/%s field %q is a list but relationship is declared one; using first id",
				e.Type, e.ID, field)
		}
		target, ok := r.graph.Lookup(rel.TargetType, id)
		if !ok {
			r.warn(e, field, rel.TargetType, id)
			return entity.Unresolved(id)
		}
		return entity.Ref(id, target)
	}
}

func (r *resolver) warn(e *entity.ResolvedEntity, field, targetType, targetID string) {
	r.warnings = append(r.warnings, Warning{
		SourceType: e.Type,
		SourceID:   e.ID,
		Field:      field,
		TargetType: targetType,
		TargetID:   targetID,
	})
}

// referenceIDs extracts the target id list from a raw reference value:
// a single string id, or an array of string ids.
func referenceIDs(v entity.Value) ([]string, bool) {
	if id, ok := v.AsString(); ok {
		return []string{id}, true
	}
	items, ok := v.Items()
	if !ok {
		return nil, false
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id, ok := item.AsString()
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// indexExplicit builds the (sourceType, sourceField) → relationship
// index consulted before any implicit inference.
func indexExplicit(def *schema.CollectionDefinition) map[string]map[string]*schema.RelationshipDefinition {
	idx := make(map[string]map[string]*schema.RelationshipDefinition)
	for i := range def.Relationships {
		rel := &def.Relationships[i]
		fields, ok := idx[rel.SourceType]
		if !ok {
			fields = make(map[string]*schema.RelationshipDefinition)
			idx[rel.SourceType] = fields
		}
		fields[rel.SourceField] = rel
	}
	return idx
}
