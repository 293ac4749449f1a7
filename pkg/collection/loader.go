// Package collection orchestrates a collection load: it fetches the
// definition document, detects the schema generation, fans out the
// per-type entity fetches, and hands the raw sets to the relationship
// resolver. The output is a plain resolved data structure; callers
// decide how to cache, display, or overlay edits on it.
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
	"github.com/REPPL/itemdeck.app-sub011/pkg/fetch"
	"github.com/REPPL/itemdeck.app-sub011/pkg/resolve"
	"github.com/REPPL/itemdeck.app-sub011/pkg/schema"
)

// DefinitionDocument is the location of the top-level definition,
// relative to the fetcher's base.
const DefinitionDocument = "collection.json"

// Legacy document locations, fetched when the definition document lacks
// an entityTypes declaration (or is absent entirely).
const (
	legacyItemsDocument      = "items.json"
	legacyCategoriesDocument = "categories.json"
)

// Collection is a fully loaded and resolved collection. Immutable once
// built; a reload produces a new Collection rather than mutating this
// one.
type Collection struct {
	ID         string
	Format     schema.Format
	Definition *schema.CollectionDefinition
	Graph      *entity.Graph
	Warnings   []resolve.Warning
	LoadedAt   time.Time
}

// Display returns the display configuration, which may be nil.
func (c *Collection) Display() *schema.DisplayConfig {
	return c.Definition.Display
}

// PrimaryEntities returns the browsable entities of the primary type.
func (c *Collection) PrimaryEntities() []*entity.ResolvedEntity {
	return c.Graph.Entities(c.Definition.PrimaryType)
}

// Loader drives collection loads through a fetch capability.
type Loader struct {
	fetcher fetch.Fetcher
}

// NewLoader creates a loader over the given fetch capability.
func NewLoader(f fetch.Fetcher) *Loader {
	return &Loader{fetcher: f}
}

// Load fetches, parses, and resolves one collection. It returns either
// a complete Collection or a *LoadError identifying the failed stage;
// nothing is retried internally.
func (l *Loader) Load(ctx context.Context) (*Collection, error) {
	start := time.Now()
	col, err := l.load(ctx)
	observeLoad(time.Since(start), col, err)
	return col, err
}

func (l *Loader) load(ctx context.Context) (*Collection, error) {
	doc, defErr := l.fetcher.Fetch(ctx, DefinitionDocument)

	var (
		def    *schema.CollectionDefinition
		raw    map[string][]*entity.Entity
		format schema.Format
		err    error
	)
	switch {
	case defErr == nil && schema.DetectFormat(doc) == schema.FormatCurrent:
		format = schema.FormatCurrent
		def, raw, err = l.loadCurrent(ctx, doc)
	case defErr == nil || errors.Is(defErr, fetch.ErrNotFound):
		// A definition document without entityTypes (or no definition
		// document at all) switches the whole load to the legacy
		// strategy. The format is fixed here, before resolution begins.
		format = schema.FormatLegacy
		def, raw, err = l.loadLegacy(ctx, doc)
	default:
		return nil, fetchError(DefinitionDocument, "", defErr)
	}
	if err != nil {
		return nil, err
	}

	result, rerr := resolve.Resolve(def, raw)
	if rerr != nil {
		return nil, definitionError(rerr)
	}

	return &Collection{
		ID:         uuid.NewString(),
		Format:     format,
		Definition: def,
		Graph:      result.Graph,
		Warnings:   result.Warnings,
		LoadedAt:   time.Now().UTC(),
	}, nil
}

// loadCurrent handles the multi-entity-type generation: parse and
// validate the definition, then fetch every declared type concurrently.
func (l *Loader) loadCurrent(ctx context.Context, doc []byte) (*schema.CollectionDefinition, map[string][]*entity.Entity, error) {
	def, err := schema.ParseDefinition(doc)
	if err != nil {
		return nil, nil, definitionError(err)
	}

	raw, err := l.fetchEntityTypes(ctx, def)
	if err != nil {
		return nil, nil, err
	}
	return def, raw, nil
}

// loadLegacy handles the historical items + categories pair. Inline
// arrays in the definition document are accepted first; otherwise the
// two documents are fetched. The synthetic definition and the item
// normalization keep legacy support out of caller-facing types.
func (l *Loader) loadLegacy(ctx context.Context, doc []byte) (*schema.CollectionDefinition, map[string][]*entity.Entity, error) {
	def := schema.LegacyDefinition()

	items, err := l.legacyEntities(ctx, doc, "items", schema.LegacyItemType, legacyItemsDocument)
	if err != nil {
		return nil, nil, err
	}
	categories, err := l.legacyEntities(ctx, doc, "categories", schema.LegacyCategoryType, legacyCategoriesDocument)
	if err != nil {
		return nil, nil, err
	}

	raw := map[string][]*entity.Entity{
		schema.LegacyItemType:     schema.NormalizeLegacyItems(items),
		schema.LegacyCategoryType: categories,
	}
	return def, raw, nil
}

// legacyEntities reads one legacy entity set, preferring an inline
// array in the definition document over a separate file.
func (l *Loader) legacyEntities(ctx context.Context, doc []byte, inlineKey, typeName, location string) ([]*entity.Entity, error) {
	if inline, ok := inlineArray(doc, inlineKey); ok {
		entities, err := entity.ParseEntities(typeName, inline)
		if err != nil {
			return nil, parseError(DefinitionDocument, typeName, err)
		}
		return entities, nil
	}

	data, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, fetchError(location, typeName, err)
	}
	entities, err := entity.ParseEntities(typeName, data)
	if err != nil {
		return nil, parseError(location, typeName, err)
	}
	return entities, nil
}

// fetchEntityTypes fans out one fetch per declared entity type and
// joins on all of them: a fast type never short-circuits a slow one,
// and when several fail the first failing type in declaration order is
// reported, for reproducible diagnostics.
func (l *Loader) fetchEntityTypes(ctx context.Context, def *schema.CollectionDefinition) (map[string][]*entity.Entity, error) {
	order := def.TypeOrder()

	type typeResult struct {
		entities []*entity.Entity
		err      error
	}
	results := make([]typeResult, len(order))

	var wg sync.WaitGroup
	for i, name := range order {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			entities, err := l.loadEntityType(ctx, name, def.EntityTypes[name])
			results[i] = typeResult{entities: entities, err: err}
		}(i, name)
	}
	wg.Wait()

	raw := make(map[string][]*entity.Entity, len(order))
	for i, name := range order {
		if results[i].err != nil {
			return nil, results[i].err
		}
		raw[name] = results[i].entities
	}
	return raw, nil
}

// loadEntityType fetches and parses one entity type's document, probing
// the filename conventions until one is found. Only a transport failure
// or every candidate missing fails the type.
func (l *Loader) loadEntityType(ctx context.Context, name string, typeDef schema.EntityTypeDefinition) ([]*entity.Entity, error) {
	candidates := sourceCandidates(name, typeDef)

	for _, location := range candidates {
		data, err := l.fetcher.Fetch(ctx, location)
		if err != nil {
			if errors.Is(err, fetch.ErrNotFound) {
				continue
			}
			return nil, fetchError(location, name, err)
		}
		entities, err := entity.ParseEntities(name, data)
		if err != nil {
			return nil, parseError(location, name, err)
		}
		return entities, nil
	}

	return nil, fetchError(strings.Join(candidates, ", "), name,
		fmt.Errorf("no source document found: %w", fetch.ErrNotFound))
}

// sourceCandidates lists the locations tried for an entity type: an
// explicit source wins outright, otherwise the singular filename then
// the pluralised one.
func sourceCandidates(name string, typeDef schema.EntityTypeDefinition) []string {
	if typeDef.Source != "" {
		return []string{typeDef.Source}
	}
	return []string{name + ".json", pluralize(name) + ".json"}
}

// inlineArray extracts a top-level JSON array member from the legacy
// definition document, if present.
func inlineArray(doc []byte, key string) (json.RawMessage, bool) {
	if len(doc) == 0 {
		return nil, false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, false
	}
	raw, ok := top[key]
	if !ok {
		return nil, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	return raw, true
}

// pluralize covers the filename conventions the catalogues actually
// use: trailing y becomes ies, everything else takes a plain s.
func pluralize(name string) string {
	if strings.HasSuffix(name, "y") && len(name) > 1 {
		return name[:len(name)-1] + "ies"
	}
	return name + "s"
}
