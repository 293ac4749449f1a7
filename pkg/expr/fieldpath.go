package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
)

// A path is a sequence of steps over a resolved entity: plain field
// reads, array indexing, and traversal through resolved relationship
// references. A double-quoted candidate is a constant, so expressions
// like `platform.title ?? "Unknown"` have a guaranteed final value.

type stepKind int

const (
	stepField stepKind = iota
	stepIndex
)

type step struct {
	kind  stepKind
	field string
	index int
}

// ResolveValue evaluates a field-path expression (a ??-chain of paths)
// against a resolved entity. The boolean result distinguishes "no
// value" from a present value; a miss is not an error. Errors are
// reserved for malformed expressions.
func ResolveValue(e *entity.ResolvedEntity, expression string) (entity.Value, bool, error) {
	return firstHit(expression, func(candidate string) (entity.Value, bool, error) {
		if lit, ok := stringLiteral(candidate); ok {
			return entity.String(lit), true, nil
		}
		steps, err := parsePath(candidate)
		if err != nil {
			return entity.Value{}, false, err
		}
		return walk(e, steps)
	})
}

// ResolveString evaluates the expression and coerces the result to a
// string. Numbers and booleans are formatted; resolved references
// collapse to their raw id. def is returned when every path misses or
// the value has no string form.
func ResolveString(e *entity.ResolvedEntity, expression, def string) string {
	v, ok, err := ResolveValue(e, expression)
	if err != nil || !ok {
		return def
	}
	if s, ok := stringify(v); ok {
		return s
	}
	return def
}

// ResolveNumber evaluates the expression and coerces the result to a
// number. Numeric strings are parsed. def is returned when every path
// misses or the value is not numeric.
func ResolveNumber(e *entity.ResolvedEntity, expression string, def float64) float64 {
	v, ok, err := ResolveValue(e, expression)
	if err != nil || !ok {
		return def
	}
	if n, ok := v.AsNumber(); ok {
		return n
	}
	if s, ok := v.AsString(); ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return def
}

// walk applies path steps to the entity. Any dead end (missing field,
// unresolved reference, wrong kind, index out of range) is a miss for
// this path only.
func walk(e *entity.ResolvedEntity, steps []step) (entity.Value, bool, error) {
	if len(steps) == 0 || steps[0].kind != stepField {
		return entity.Value{}, false, fmt.Errorf("path must start with a field name")
	}

	cur, ok := e.Field(steps[0].field)
	if !ok {
		return entity.Value{}, false, nil
	}

	for _, s := range steps[1:] {
		switch s.kind {
		case stepIndex:
			next, ok := indexInto(cur, s.index)
			if !ok {
				return entity.Value{}, false, nil
			}
			cur = next
		case stepField:
			next, ok := fieldOf(cur, s.field)
			if !ok {
				return entity.Value{}, false, nil
			}
			cur = next
		}
	}

	if cur.IsNull() || cur.Kind() == entity.KindUnresolved {
		return entity.Value{}, false, nil
	}
	return cur, true, nil
}

// fieldOf reads a named member, traversing through resolved references.
func fieldOf(v entity.Value, name string) (entity.Value, bool) {
	switch v.Kind() {
	case entity.KindObject:
		return v.Field(name)
	case entity.KindRef:
		target, ok := v.Target()
		if !ok {
			return entity.Value{}, false
		}
		return target.Field(name)
	default:
		// Unresolved references and scalars cannot be traversed.
		return entity.Value{}, false
	}
}

// indexInto selects an element of an array or a resolved many
// reference. Out of range is a miss, not an error.
func indexInto(v entity.Value, i int) (entity.Value, bool) {
	if i < 0 {
		return entity.Value{}, false
	}
	switch v.Kind() {
	case entity.KindArray:
		items, _ := v.Items()
		if i >= len(items) {
			return entity.Value{}, false
		}
		return items[i], true
	case entity.KindRefList:
		refs, _ := v.Targets()
		ids := v.RawIDs()
		if i >= len(ids) {
			return entity.Value{}, false
		}
		if refs[i] == nil {
			return entity.Unresolved(ids[i]), true
		}
		return entity.Ref(ids[i], refs[i]), true
	default:
		return entity.Value{}, false
	}
}

// parsePath splits a single path candidate into steps:
// "platform.images[0].url" → field platform, field images, index 0,
// field url.
func parsePath(candidate string) ([]step, error) {
	var steps []step
	rest := strings.TrimSpace(candidate)
	if rest == "" {
		return nil, fmt.Errorf("empty path")
	}

	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			if rest == "" {
				return nil, fmt.Errorf("path ends with a dot")
			}
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated index in %q", candidate)
			}
			idx, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
			if err != nil {
				return nil, fmt.Errorf("invalid index %q in %q", rest[1:end], candidate)
			}
			steps = append(steps, step{kind: stepIndex, index: idx})
			rest = rest[end+1:]
		default:
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			name := strings.TrimSpace(rest[:end])
			if name == "" {
				return nil, fmt.Errorf("empty field name in %q", candidate)
			}
			steps = append(steps, step{kind: stepField, field: name})
			rest = rest[end:]
		}
	}
	return steps, nil
}

// stringLiteral recognizes a double-quoted constant candidate.
func stringLiteral(candidate string) (string, bool) {
	c := strings.TrimSpace(candidate)
	if len(c) >= 2 && c[0] == '"' && c[len(c)-1] == '"' {
		return c[1 : len(c)-1], true
	}
	return "", false
}

// stringify gives a Value its display-string form, if it has one.
func stringify(v entity.Value) (string, bool) {
	switch v.Kind() {
	case entity.KindString:
		s, _ := v.AsString()
		return s, true
	case entity.KindNumber:
		n, _ := v.AsNumber()
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case entity.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), true
	case entity.KindRef, entity.KindUnresolved:
		return v.RawID()
	default:
		return "", false
	}
}
