package entity

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject

	// Resolution outcomes. These never appear on raw entities; the
	// resolver produces them when it rewrites relationship fields.
	KindRef        // single resolved relationship
	KindRefList    // many-cardinality resolved relationship
	KindUnresolved // relationship whose target id was not found
)

// Value is a tagged union over the JSON value space plus the three
// resolution outcomes. Field traversal code switches on Kind and can
// therefore be exhaustive; there is no open interface{} escape hatch.
//
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	arr  []Value
	obj  map[string]Value

	// Relationship payload. rawIDs always preserves the ids exactly as
	// they appeared in the source document so a resolved entity can be
	// round-tripped. refs runs parallel to rawIDs for KindRefList; a nil
	// element marks an id that did not resolve.
	rawIDs []string
	ref    *ResolvedEntity
	refs   []*ResolvedEntity
}

// Constructors.

func Null() Value                 { return Value{kind: KindNull} }
func String(s string) Value       { return Value{kind: KindString, str: s} }
func Number(f float64) Value      { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Array(items []Value) Value   { return Value{kind: KindArray, arr: items} }
func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

// Ref builds a resolved single reference. The raw id is retained.
func Ref(rawID string, target *ResolvedEntity) Value {
	return Value{kind: KindRef, rawIDs: []string{rawID}, ref: target}
}

// RefList builds a resolved many reference. refs must run parallel to
// rawIDs; nil entries mark ids that did not resolve.
func RefList(rawIDs []string, refs []*ResolvedEntity) Value {
	return Value{kind: KindRefList, rawIDs: rawIDs, refs: refs}
}

// Unresolved marks a relationship field whose target id was not found.
// It is distinguishable from "was never a relationship" (which keeps its
// original kind) and from null.
func Unresolved(rawID string) Value {
	return Value{kind: KindUnresolved, rawIDs: []string{rawID}}
}

// FromJSON converts a value produced by encoding/json (interface{} form)
// into a tagged Value.
func FromJSON(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case bool:
		return Bool(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromJSON(e)
		}
		return Array(items)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromJSON(e)
		}
		return Object(m)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	default:
		// encoding/json never hands us anything else.
		return String(fmt.Sprintf("%v", t))
	}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload for KindString.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric payload for KindNumber.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean payload for KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Items returns the elements of a KindArray value.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Field returns the named member of a KindObject value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[name]
	return f, ok
}

// Target returns the resolved entity behind a KindRef value.
func (v Value) Target() (*ResolvedEntity, bool) {
	if v.kind != KindRef || v.ref == nil {
		return nil, false
	}
	return v.ref, true
}

// Targets returns the resolved entities behind a KindRefList value.
// Elements are nil where the corresponding raw id did not resolve.
func (v Value) Targets() ([]*ResolvedEntity, bool) {
	if v.kind != KindRefList {
		return nil, false
	}
	return v.refs, true
}

// RawID returns the source id of a KindRef or KindUnresolved value.
func (v Value) RawID() (string, bool) {
	if (v.kind == KindRef || v.kind == KindUnresolved) && len(v.rawIDs) == 1 {
		return v.rawIDs[0], true
	}
	return "", false
}

// RawIDs returns the source ids of a relationship value in document order.
func (v Value) RawIDs() []string { return v.rawIDs }

// HasUnresolved reports whether any id in a KindRefList failed to resolve.
func (v Value) HasUnresolved() bool {
	if v.kind == KindUnresolved {
		return true
	}
	if v.kind != KindRefList {
		return false
	}
	for _, r := range v.refs {
		if r == nil {
			return true
		}
	}
	return false
}

// MarshalJSON emits the raw JSON shape. Relationship variants collapse
// back to their source ids, so marshalling a resolved entity reproduces
// the raw document's reference fields.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindArray:
		return json.Marshal(v.arr)
	case KindObject:
		return json.Marshal(v.obj)
	case KindRef, KindUnresolved:
		return json.Marshal(v.rawIDs[0])
	case KindRefList:
		return json.Marshal(v.rawIDs)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}
