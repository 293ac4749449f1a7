package expr

import (
	"testing"

	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
)

// testEntity builds a resolved game with a live platform reference, a
// dangling reference, and the usual scalar fields.
func testEntity() *entity.ResolvedEntity {
	snes := &entity.ResolvedEntity{
		ID:   "snes",
		Type: "platform",
		Fields: map[string]entity.Value{
			"title": entity.String("SNES"),
			"year":  entity.Number(1990),
		},
	}
	return &entity.ResolvedEntity{
		ID:   "sm",
		Type: "game",
		Fields: map[string]entity.Value{
			"title":    entity.String("Super Metroid"),
			"rank":     entity.Number(2),
			"beaten":   entity.Bool(true),
			"verdict":  entity.Null(),
			"platform": entity.Ref("snes", snes),
			"ghost":    entity.Unresolved("jaguar"),
			"tags":     entity.Array([]entity.Value{entity.String("classic"), entity.String("long")}),
			"genres": entity.RefList(
				[]string{"action", "rhythm"},
				[]*entity.ResolvedEntity{
					{ID: "action", Type: "genre", Fields: map[string]entity.Value{"title": entity.String("Action")}},
					nil,
				},
			),
			"meta": entity.Object(map[string]entity.Value{
				"region": entity.String("PAL"),
			}),
		},
	}
}

func TestResolveValueSimpleField(t *testing.T) {
	v, ok, err := ResolveValue(testEntity(), "title")
	if err != nil || !ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	if s, _ := v.AsString(); s != "Super Metroid" {
		t.Errorf("got %q", s)
	}
}

func TestResolveValueTraversesReference(t *testing.T) {
	e := testEntity()

	v, ok, err := ResolveValue(e, "platform.title")
	if err != nil || !ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	if s, _ := v.AsString(); s != "SNES" {
		t.Errorf("platform.title: got %q", s)
	}

	v, ok, _ = ResolveValue(e, "meta.region")
	if !ok {
		t.Fatal("meta.region missed")
	}
	if s, _ := v.AsString(); s != "PAL" {
		t.Errorf("meta.region: got %q", s)
	}
}

func TestResolveValueIndexing(t *testing.T) {
	e := testEntity()

	v, ok, _ := ResolveValue(e, "tags[1]")
	if !ok {
		t.Fatal("tags[1] missed")
	}
	if s, _ := v.AsString(); s != "long" {
		t.Errorf("tags[1]: got %q", s)
	}

	// Indexing into a many-reference traverses the resolved target.
	v, ok, _ = ResolveValue(e, "genres[0].title")
	if !ok {
		t.Fatal("genres[0].title missed")
	}
	if s, _ := v.AsString(); s != "Action" {
		t.Errorf("genres[0].title: got %q", s)
	}
}

func TestResolveValueMisses(t *testing.T) {
	e := testEntity()
	missing := []string{
		"nope",             // absent field
		"verdict",          // null terminal value
		"ghost",            // unresolved terminal value
		"ghost.title",      // traversal through an unresolved ref
		"title.upper",      // traversal through a scalar
		"tags[9]",          // index out of range
		"genres[1].title",  // unresolved entry in a many-reference
		"platform.nothing", // absent field on the target
	}
	for _, expr := range missing {
		if _, ok, err := ResolveValue(e, expr); ok || err != nil {
			t.Errorf("%q: expected clean miss, got ok=%v err=%v", expr, ok, err)
		}
	}
}

func TestResolveValueFallbackChain(t *testing.T) {
	e := testEntity()

	v, ok, _ := ResolveValue(e, "subtitle ?? title ?? id")
	if !ok {
		t.Fatal("chain missed")
	}
	if s, _ := v.AsString(); s != "Super Metroid" {
		t.Errorf("got %q", s)
	}
}

func TestResolveValueQuotedLiteralFallback(t *testing.T) {
	e := testEntity()

	v, ok, _ := ResolveValue(e, `publisher.title ?? "Unknown"`)
	if !ok {
		t.Fatal("literal fallback missed")
	}
	if s, _ := v.AsString(); s != "Unknown" {
		t.Errorf("got %q", s)
	}

	// A hit earlier in the chain wins over the literal.
	v, _, _ = ResolveValue(e, `platform.title ?? "Unknown"`)
	if s, _ := v.AsString(); s != "SNES" {
		t.Errorf("got %q, want SNES", s)
	}
}

func TestResolveValueShortCircuitSkipsMalformedTail(t *testing.T) {
	// The second candidate is unparseable, but the first one hits, so the
	// chain must succeed without ever parsing the tail.
	v, ok, err := ResolveValue(testEntity(), "title ?? bad[[")
	if err != nil {
		t.Fatalf("short circuit failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if s, _ := v.AsString(); s != "Super Metroid" {
		t.Errorf("got %q", s)
	}
}

func TestResolveValueMalformedExpression(t *testing.T) {
	bad := []string{"bad[[", "tags[x]", "title.", "[0]"}
	for _, expr := range bad {
		if _, _, err := ResolveValue(testEntity(), expr); err == nil {
			t.Errorf("%q: expected parse error", expr)
		}
	}
}

func TestResolveString(t *testing.T) {
	e := testEntity()
	cases := []struct {
		expr string
		want string
	}{
		{"title", "Super Metroid"},
		{"rank", "2"},
		{"beaten", "true"},
		{"platform", "snes"}, // ref collapses to its raw id
		{"missing ?? also-missing", "fallback"},
		{"tags", "fallback"}, // arrays have no string form
	}
	for _, tc := range cases {
		if got := ResolveString(e, tc.expr, "fallback"); got != tc.want {
			t.Errorf("ResolveString(%q) = %q, want %q", tc.expr, got, tc.want)
		}
	}
}

func TestResolveNumber(t *testing.T) {
	e := testEntity()
	e.Fields["score"] = entity.String("9.5")

	if got := ResolveNumber(e, "rank", -1); got != 2 {
		t.Errorf("rank: got %v", got)
	}
	if got := ResolveNumber(e, "score", -1); got != 9.5 {
		t.Errorf("numeric string: got %v", got)
	}
	if got := ResolveNumber(e, "title", -1); got != -1 {
		t.Errorf("non-numeric: got %v, want default", got)
	}
	if got := ResolveNumber(e, "missing", 7); got != 7 {
		t.Errorf("miss: got %v, want default", got)
	}
}
