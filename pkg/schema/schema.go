// Package schema defines the collection definition document: the entity
// types a collection declares, the relationships between them, and the
// optional display configuration. It also detects which of the two
// historical document formats a collection uses.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Format identifies a schema generation. It is decided once per load
// and never changes after resolution begins.
type Format int

const (
	// FormatCurrent is the multi-entity-type format ("entityTypes" map).
	FormatCurrent Format = iota
	// FormatLegacy is the historical flat items + categories format.
	FormatLegacy
)

func (f Format) String() string {
	if f == FormatLegacy {
		return "legacy"
	}
	return "current"
}

// Cardinality says whether a relationship points at one target or many.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// FieldDefinition describes one declared field of an entity type.
type FieldDefinition struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// EntityTypeDefinition describes one entity type. Source optionally
// names the entity document explicitly; when empty the loader probes
// the filename conventions instead.
type EntityTypeDefinition struct {
	Fields []FieldDefinition `json:"fields,omitempty"`
	Source string            `json:"source,omitempty"`
}

// RelationshipDefinition declares a reference field between two entity
// types. OrdinalField optionally names a numeric field on the source
// entity whose value ranks the source within the group sharing the same
// target; the engine preserves it untouched.
type RelationshipDefinition struct {
	SourceType   string      `json:"sourceType"`
	SourceField  string      `json:"sourceField"`
	TargetType   string      `json:"targetType"`
	Cardinality  Cardinality `json:"cardinality"`
	OrdinalField string      `json:"ordinalField,omitempty"`
}

// SortSpec is a display sort: field path plus direction ("asc"/"desc").
type SortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

// CardConfig maps display slots (title, subtitle, image, ...) to
// expressions in the field-path / image-selector languages.
type CardConfig struct {
	Front map[string]string `json:"front,omitempty"`
	Back  map[string]string `json:"back,omitempty"`
}

// DisplayConfig carries the caller-facing presentation hints. The
// engine stores it verbatim; expressions are evaluated at read time.
type DisplayConfig struct {
	GroupBy         string      `json:"groupBy,omitempty"`
	SortWithinGroup *SortSpec   `json:"sortWithinGroup,omitempty"`
	Card            *CardConfig `json:"card,omitempty"`
}

// CollectionDefinition is the parsed top-level definition document.
// Immutable once loaded.
type CollectionDefinition struct {
	SchemaVersion int                             `json:"schemaVersion"`
	EntityTypes   map[string]EntityTypeDefinition `json:"entityTypes"`
	PrimaryType   string                          `json:"primaryType"`
	Relationships []RelationshipDefinition        `json:"relationships,omitempty"`
	Display       *DisplayConfig                  `json:"display,omitempty"`

	typeOrder []string
}

// TypeOrder returns the entity types in declaration order. Error
// reporting and fetch scheduling follow this order so diagnostics are
// reproducible.
func (d *CollectionDefinition) TypeOrder() []string { return d.typeOrder }

// DetectFormat decides which schema generation a definition document
// uses: a well-formed "entityTypes" object selects the current
// generation, anything else is legacy. Deterministic and side-effect
// free.
func DetectFormat(doc []byte) Format {
	var probe struct {
		EntityTypes json.RawMessage `json:"entityTypes"`
	}
	if err := json.Unmarshal(doc, &probe); err != nil {
		return FormatLegacy
	}
	trimmed := bytes.TrimSpace(probe.EntityTypes)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return FormatLegacy
	}
	var types map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &types); err != nil {
		return FormatLegacy
	}
	return FormatCurrent
}

// ParseDefinition decodes and validates a current-generation definition
// document. The declaration order of entityTypes is preserved.
func ParseDefinition(doc []byte) (*CollectionDefinition, error) {
	var def CollectionDefinition
	if err := json.Unmarshal(doc, &def); err != nil {
		return nil, fmt.Errorf("definition document is not valid JSON: %w", err)
	}

	var raw struct {
		EntityTypes json.RawMessage `json:"entityTypes"`
	}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("definition document is not valid JSON: %w", err)
	}
	order, err := objectKeys(raw.EntityTypes)
	if err != nil {
		return nil, fmt.Errorf("entityTypes is not a JSON object: %w", err)
	}
	def.typeOrder = order

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition for internal consistency.
func (d *CollectionDefinition) Validate() error {
	if len(d.EntityTypes) == 0 {
		return fmt.Errorf("definition declares no entity types")
	}
	if d.PrimaryType == "" {
		return fmt.Errorf("definition declares no primary type")
	}
	if _, ok := d.EntityTypes[d.PrimaryType]; !ok {
		return fmt.Errorf("primary type %q is not declared in entityTypes", d.PrimaryType)
	}
	for _, rel := range d.Relationships {
		if _, ok := d.EntityTypes[rel.SourceType]; !ok {
			return fmt.Errorf("relationship %s.%s references undeclared source type %q",
				rel.SourceType, rel.SourceField, rel.SourceType)
		}
		if _, ok := d.EntityTypes[rel.TargetType]; !ok {
			return fmt.Errorf("relationship %s.%s references undeclared target type %q",
				rel.SourceType, rel.SourceField, rel.TargetType)
		}
		if rel.SourceField == "" {
			return fmt.Errorf("relationship on %q declares no source field", rel.SourceType)
		}
		if rel.Cardinality != CardinalityOne && rel.Cardinality != CardinalityMany {
			return fmt.Errorf("relationship %s.%s has invalid cardinality %q",
				rel.SourceType, rel.SourceField, rel.Cardinality)
		}
	}
	return nil
}

// objectKeys returns the member names of a JSON object in document
// order. encoding/json maps lose ordering, so the keys are re-scanned
// from the raw bytes.
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return keys, nil
}

// skipValue consumes one complete JSON value from the decoder.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil // scalar
	}
	for dec.More() {
		if d == '{' {
			if _, err := dec.Token(); err != nil { // member key
				return err
			}
		}
		if err := skipValue(dec); err != nil {
			return err
		}
	}
	_, err = dec.Token() // closing delimiter
	return err
}
