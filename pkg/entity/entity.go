package entity

import (
	"encoding/json"
	"fmt"
)

// Entity is a raw record parsed from an entity document. It is never
// mutated after parsing; the resolver builds new ResolvedEntity values
// instead of rewriting these in place.
type Entity struct {
	ID     string
	Type   string
	Fields map[string]Value
}

// ResolvedEntity is an entity whose relationship fields have been
// rewritten to live references into the owning Graph. Reference fields
// retain their source ids for round-tripping.
type ResolvedEntity struct {
	ID     string
	Type   string
	Fields map[string]Value
}

// Field returns the named field value.
func (e *ResolvedEntity) Field(name string) (Value, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// MarshalJSON emits the entity in its raw document shape, with
// relationship fields collapsed back to their source ids.
func (e *ResolvedEntity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields)
}

// ParseEntities decodes an entity document: a JSON array of objects,
// each carrying a unique string "id". All other fields are opaque and
// preserved as tagged values.
func ParseEntities(typeName string, data []byte) ([]*Entity, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("entity document for %q is not a JSON array of objects: %w", typeName, err)
	}

	entities := make([]*Entity, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		rawID, ok := row["id"]
		if !ok {
			return nil, fmt.Errorf("entity %d of type %q is missing required field \"id\"", i, typeName)
		}
		id, ok := rawID.(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("entity %d of type %q has a non-string or empty id", i, typeName)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate id %q in entity type %q", id, typeName)
		}
		seen[id] = true

		fields := make(map[string]Value, len(row))
		for k, v := range row {
			fields[k] = FromJSON(v)
		}
		entities = append(entities, &Entity{ID: id, Type: typeName, Fields: fields})
	}
	return entities, nil
}
