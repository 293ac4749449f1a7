package resolve

import (
	"testing"

	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
	"github.com/REPPL/itemdeck.app-sub011/pkg/schema"
)

func mustDefinition(t *testing.T, doc string) *schema.CollectionDefinition {
	t.Helper()
	def, err := schema.ParseDefinition([]byte(doc))
	if err != nil {
		t.Fatalf("bad definition fixture: %v", err)
	}
	return def
}

func mustEntities(t *testing.T, typeName, doc string) []*entity.Entity {
	t.Helper()
	entities, err := entity.ParseEntities(typeName, []byte(doc))
	if err != nil {
		t.Fatalf("bad %s fixture: %v", typeName, err)
	}
	return entities
}

const gamesDefinition = `{
	"schemaVersion": 2,
	"entityTypes": {"game": {}, "platform": {}, "genre": {}},
	"primaryType": "game",
	"relationships": [
		{"sourceType": "game", "sourceField": "platform", "targetType": "platform", "cardinality": "one", "ordinalField": "rank"},
		{"sourceType": "game", "sourceField": "genres", "targetType": "genre", "cardinality": "many"}
	]
}`

func gamesFixture(t *testing.T) map[string][]*entity.Entity {
	t.Helper()
	return map[string][]*entity.Entity{
		"game": mustEntities(t, "game", `[
			{"id": "sm", "title": "Super Metroid", "platform": "snes", "rank": 2, "genres": ["action", "adventure"]},
			{"id": "sotn", "title": "Symphony of the Night", "platform": "psx", "rank": 1}
		]`),
		"platform": mustEntities(t, "platform", `[
			{"id": "snes", "title": "SNES"},
			{"id": "psx", "title": "PlayStation"}
		]`),
		"genre": mustEntities(t, "genre", `[
			{"id": "action", "title": "Action"},
			{"id": "adventure", "title": "Adventure"}
		]`),
	}
}

func TestResolveExplicitOne(t *testing.T) {
	def := mustDefinition(t, gamesDefinition)
	res, err := Resolve(def, gamesFixture(t))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}

	sm, ok := res.Graph.Lookup("game", "sm")
	if !ok {
		t.Fatal("game sm missing from graph")
	}

	platform, _ := sm.Field("platform")
	if platform.Kind() != entity.KindRef {
		t.Fatalf("platform field: expected ref, got kind %d", platform.Kind())
	}
	target, _ := platform.Target()
	title, _ := target.Field("title")
	if s, _ := title.AsString(); s != "SNES" {
		t.Errorf("platform target title: got %q", s)
	}

	// The ordinal field is carried through untouched.
	rank, _ := sm.Field("rank")
	if n, ok := rank.AsNumber(); !ok || n != 2 {
		t.Errorf("rank: expected number 2 untouched, got %v ok=%v", n, ok)
	}
}

func TestResolveExplicitMany(t *testing.T) {
	def := mustDefinition(t, gamesDefinition)
	res, err := Resolve(def, gamesFixture(t))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	sm, _ := res.Graph.Lookup("game", "sm")
	genres, _ := sm.Field("genres")
	if genres.Kind() != entity.KindRefList {
		t.Fatalf("genres: expected ref list, got kind %d", genres.Kind())
	}
	targets, _ := genres.Targets()
	if len(targets) != 2 || targets[0] == nil || targets[1] == nil {
		t.Fatalf("genres targets: %v", targets)
	}
	if targets[0].ID != "action" || targets[1].ID != "adventure" {
		t.Errorf("genres order not preserved: %s, %s", targets[0].ID, targets[1].ID)
	}
}

func TestResolveUnresolvedReferenceWarns(t *testing.T) {
	def := mustDefinition(t, gamesDefinition)
	raw := gamesFixture(t)
	raw["game"] = mustEntities(t, "game", `[
		{"id": "lost", "title": "Lost Game", "platform": "jaguar", "genres": ["action", "rhythm"]}
	]`)

	res, err := Resolve(def, raw)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", res.Warnings)
	}

	lost, _ := res.Graph.Lookup("game", "lost")
	platform, _ := lost.Field("platform")
	if platform.Kind() != entity.KindUnresolved {
		t.Errorf("platform: expected unresolved marker, got kind %d", platform.Kind())
	}
	if id, _ := platform.RawID(); id != "jaguar" {
		t.Errorf("unresolved raw id: got %q", id)
	}

	genres, _ := lost.Field("genres")
	if !genres.HasUnresolved() {
		t.Error("genres: expected unresolved entry for rhythm")
	}
	targets, _ := genres.Targets()
	if targets[0] == nil || targets[0].ID != "action" {
		t.Errorf("resolved entry lost its target: %v", targets[0])
	}
	if targets[1] != nil {
		t.Errorf("missing target should be nil, got %v", targets[1])
	}

	w := res.Warnings[0]
	if w.SourceID != "lost" || w.TargetType != "platform" || w.TargetID != "jaguar" {
		t.Errorf("unexpected warning: %+v", w)
	}
}

func TestResolveImplicitInference(t *testing.T) {
	// No declared relationships; "platform" matches a type name and is a
	// string, so it is inferred as a one-reference.
	def := mustDefinition(t, `{
		"entityTypes": {"game": {}, "platform": {}},
		"primaryType": "game"
	}`)
	raw := map[string][]*entity.Entity{
		"game": mustEntities(t, "game", `[
			{"id": "sm", "platform": "snes", "title": "Super Metroid"}
		]`),
		"platform": mustEntities(t, "platform", `[{"id": "snes", "title": "SNES"}]`),
	}

	res, err := Resolve(def, raw)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	sm, _ := res.Graph.Lookup("game", "sm")
	platform, _ := sm.Field("platform")
	if platform.Kind() != entity.KindRef {
		t.Fatalf("platform: expected inferred ref, got kind %d", platform.Kind())
	}
	// "title" is a string but no entity type is named title, so it stays
	// a plain string.
	title, _ := sm.Field("title")
	if _, ok := title.AsString(); !ok {
		t.Errorf("title should stay a string, got kind %d", title.Kind())
	}
}

func TestResolveExplicitWinsOverImplicit(t *testing.T) {
	// The declared relationship sends game.platform at "maker", not at
	// the type sharing the field name.
	def := mustDefinition(t, `{
		"entityTypes": {"game": {}, "platform": {}, "maker": {}},
		"primaryType": "game",
		"relationships": [
			{"sourceType": "game", "sourceField": "platform", "targetType": "maker", "cardinality": "one"}
		]
	}`)
	raw := map[string][]*entity.Entity{
		"game":     mustEntities(t, "game", `[{"id": "g", "platform": "nintendo"}]`),
		"platform": mustEntities(t, "platform", `[{"id": "nintendo", "title": "Platform Nintendo"}]`),
		"maker":    mustEntities(t, "maker", `[{"id": "nintendo", "title": "Nintendo Co."}]`),
	}

	res, err := Resolve(def, raw)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	g, _ := res.Graph.Lookup("game", "g")
	platform, _ := g.Field("platform")
	target, ok := platform.Target()
	if !ok {
		t.Fatalf("platform: expected ref, got kind %d", platform.Kind())
	}
	if target.Type != "maker" {
		t.Errorf("explicit declaration ignored: resolved into %q", target.Type)
	}
}

func TestResolveCardinalityCoercion(t *testing.T) {
	def := mustDefinition(t, gamesDefinition)
	raw := gamesFixture(t)
	raw["game"] = mustEntities(t, "game", `[
		{"id": "scalar-many", "genres": "action"},
		{"id": "list-one", "platform": ["snes", "psx"]}
	]`)

	res, err := Resolve(def, raw)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Declared many, scalar data: coerced to a one-element list.
	sm, _ := res.Graph.Lookup("game", "scalar-many")
	genres, _ := sm.Field("genres")
	if genres.Kind() != entity.KindRefList {
		t.Fatalf("genres: expected ref list, got kind %d", genres.Kind())
	}
	if targets, _ := genres.Targets(); len(targets) != 1 || targets[0].ID != "action" {
		t.Errorf("coerced list: %v", targets)
	}

	// Declared one, list data: first id wins.
	lo, _ := res.Graph.Lookup("game", "list-one")
	platform, _ := lo.Field("platform")
	target, ok := platform.Target()
	if !ok || target.ID != "snes" {
		t.Errorf("platform: expected first id snes, got %v ok=%v", target, ok)
	}
}

func TestResolveLeavesNonReferenceShapesAlone(t *testing.T) {
	def := mustDefinition(t, gamesDefinition)
	raw := gamesFixture(t)
	raw["game"] = mustEntities(t, "game", `[
		{"id": "odd", "platform": {"nested": true}, "genres": [1, 2]}
	]`)

	res, err := Resolve(def, raw)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	odd, _ := res.Graph.Lookup("game", "odd")
	platform, _ := odd.Field("platform")
	if platform.Kind() != entity.KindObject {
		t.Errorf("nested object rewritten: kind %d", platform.Kind())
	}
	genres, _ := odd.Field("genres")
	if genres.Kind() != entity.KindArray {
		t.Errorf("non-string array rewritten: kind %d", genres.Kind())
	}
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	def := mustDefinition(t, gamesDefinition)
	raw := gamesFixture(t)
	before := raw["game"][0].Fields["platform"]

	if _, err := Resolve(def, raw); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	after := raw["game"][0].Fields["platform"]
	if s, ok := after.AsString(); !ok || s != "snes" {
		t.Errorf("raw input mutated: was %v, now kind %d", before, after.Kind())
	}
}

func TestResolveIsRepeatable(t *testing.T) {
	def := mustDefinition(t, gamesDefinition)
	raw := gamesFixture(t)

	first, err := Resolve(def, raw)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := Resolve(def, raw)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if first.Graph.Total() != second.Graph.Total() {
		t.Errorf("entity counts differ: %d vs %d", first.Graph.Total(), second.Graph.Total())
	}
	if len(first.Warnings) != len(second.Warnings) {
		t.Errorf("warning counts differ: %d vs %d", len(first.Warnings), len(second.Warnings))
	}
	a, _ := first.Graph.Lookup("game", "sm")
	b, _ := second.Graph.Lookup("game", "sm")
	pa, _ := a.Field("platform")
	pb, _ := b.Field("platform")
	ta, _ := pa.Target()
	tb, _ := pb.Target()
	if ta.ID != tb.ID {
		t.Errorf("resolution differs between runs: %q vs %q", ta.ID, tb.ID)
	}
}
