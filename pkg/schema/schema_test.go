package schema

import (
	"testing"

	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
)

const currentDoc = `{
	"schemaVersion": 2,
	"entityTypes": {
		"game": {"fields": [{"name": "title", "required": true}]},
		"platform": {},
		"genre": {"source": "genres-custom.json"}
	},
	"primaryType": "game",
	"relationships": [
		{"sourceType": "game", "sourceField": "platform", "targetType": "platform", "cardinality": "one"},
		{"sourceType": "game", "sourceField": "genres", "targetType": "genre", "cardinality": "many"}
	],
	"display": {
		"groupBy": "platform.title",
		"sortWithinGroup": {"field": "rank", "direction": "asc"}
	}
}`

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want Format
	}{
		{"current", currentDoc, FormatCurrent},
		{"empty entityTypes object", `{"entityTypes": {}}`, FormatCurrent},
		{"no entityTypes member", `{"items": [], "categories": []}`, FormatLegacy},
		{"entityTypes is an array", `{"entityTypes": []}`, FormatLegacy},
		{"entityTypes is a string", `{"entityTypes": "game"}`, FormatLegacy},
		{"entityTypes is null", `{"entityTypes": null}`, FormatLegacy},
		{"invalid JSON", `{not json`, FormatLegacy},
	}
	for _, tc := range cases {
		if got := DetectFormat([]byte(tc.doc)); got != tc.want {
			t.Errorf("%s: DetectFormat = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDetectFormatIsDeterministic(t *testing.T) {
	doc := []byte(currentDoc)
	first := DetectFormat(doc)
	for i := 0; i < 10; i++ {
		if got := DetectFormat(doc); got != first {
			t.Fatalf("DetectFormat flipped from %v to %v on run %d", first, got, i)
		}
	}
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(currentDoc))
	if err != nil {
		t.Fatalf("ParseDefinition failed: %v", err)
	}
	if def.SchemaVersion != 2 {
		t.Errorf("schemaVersion: got %d, want 2", def.SchemaVersion)
	}
	if def.PrimaryType != "game" {
		t.Errorf("primaryType: got %q, want game", def.PrimaryType)
	}
	if len(def.Relationships) != 2 {
		t.Errorf("relationships: got %d, want 2", len(def.Relationships))
	}
	if def.EntityTypes["genre"].Source != "genres-custom.json" {
		t.Errorf("genre source: got %q", def.EntityTypes["genre"].Source)
	}
	if def.Display == nil || def.Display.GroupBy != "platform.title" {
		t.Errorf("display: %+v", def.Display)
	}
}

func TestParseDefinitionPreservesDeclarationOrder(t *testing.T) {
	def, err := ParseDefinition([]byte(currentDoc))
	if err != nil {
		t.Fatalf("ParseDefinition failed: %v", err)
	}
	want := []string{"game", "platform", "genre"}
	got := def.TypeOrder()
	if len(got) != len(want) {
		t.Fatalf("TypeOrder: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TypeOrder[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseDefinitionRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not JSON", `{broken`},
		{"no entity types", `{"entityTypes": {}, "primaryType": "game"}`},
		{"no primary type", `{"entityTypes": {"game": {}}}`},
		{"primary not declared", `{"entityTypes": {"game": {}}, "primaryType": "album"}`},
		{"relationship source undeclared", `{
			"entityTypes": {"game": {}},
			"primaryType": "game",
			"relationships": [{"sourceType": "album", "sourceField": "artist", "targetType": "game", "cardinality": "one"}]
		}`},
		{"relationship target undeclared", `{
			"entityTypes": {"game": {}},
			"primaryType": "game",
			"relationships": [{"sourceType": "game", "sourceField": "platform", "targetType": "platform", "cardinality": "one"}]
		}`},
		{"relationship without source field", `{
			"entityTypes": {"game": {}},
			"primaryType": "game",
			"relationships": [{"sourceType": "game", "targetType": "game", "cardinality": "one"}]
		}`},
		{"invalid cardinality", `{
			"entityTypes": {"game": {}},
			"primaryType": "game",
			"relationships": [{"sourceType": "game", "sourceField": "sequel", "targetType": "game", "cardinality": "several"}]
		}`},
	}
	for _, tc := range cases {
		if _, err := ParseDefinition([]byte(tc.doc)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestLegacyDefinition(t *testing.T) {
	def := LegacyDefinition()
	if err := def.Validate(); err != nil {
		t.Fatalf("synthesised legacy definition is invalid: %v", err)
	}
	if def.PrimaryType != LegacyItemType {
		t.Errorf("primary type: got %q, want %q", def.PrimaryType, LegacyItemType)
	}
	if len(def.Relationships) != 1 {
		t.Fatalf("relationships: got %d, want 1", len(def.Relationships))
	}
	rel := def.Relationships[0]
	if rel.SourceField != LegacyCategoryField || rel.TargetType != LegacyCategoryType {
		t.Errorf("unexpected legacy relationship: %+v", rel)
	}
	order := def.TypeOrder()
	if len(order) != 2 || order[0] != LegacyItemType || order[1] != LegacyCategoryType {
		t.Errorf("type order: got %v", order)
	}
}

func TestNormalizeLegacyItems(t *testing.T) {
	items := []*entity.Entity{
		{
			ID:   "pacman",
			Type: LegacyItemType,
			Fields: map[string]entity.Value{
				"title": entity.String("Pac-Man"),
				"metadata": entity.Object(map[string]entity.Value{
					"category": entity.String("arcade"),
				}),
			},
		},
		{
			ID:   "tetris",
			Type: LegacyItemType,
			Fields: map[string]entity.Value{
				"title":    entity.String("Tetris"),
				"category": entity.String("puzzle"),
			},
		},
	}

	normalized := NormalizeLegacyItems(items)

	cat, ok := normalized[0].Fields[LegacyCategoryField]
	if !ok {
		t.Fatal("metadata.category was not promoted")
	}
	if s, _ := cat.AsString(); s != "arcade" {
		t.Errorf("promoted category: got %q, want arcade", s)
	}

	// An existing top-level category is left alone.
	cat2 := normalized[1].Fields[LegacyCategoryField]
	if s, _ := cat2.AsString(); s != "puzzle" {
		t.Errorf("existing category clobbered: got %q", s)
	}

	// Inputs are not mutated.
	if _, ok := items[0].Fields[LegacyCategoryField]; ok {
		t.Error("NormalizeLegacyItems mutated its input")
	}
}
