package entity

// Graph is the resolved entity graph for one loaded collection: every
// resolved entity, indexed by type and id, plus the document order of
// each type's entities. It is built once per load and treated as
// immutable afterwards, so any number of readers may share it without
// locking.
type Graph struct {
	typeNames []string
	byType    map[string]map[string]*ResolvedEntity
	order     map[string][]*ResolvedEntity
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byType: make(map[string]map[string]*ResolvedEntity),
		order:  make(map[string][]*ResolvedEntity),
	}
}

// AddType registers an entity type. Types keep registration order.
func (g *Graph) AddType(name string) {
	if _, ok := g.byType[name]; ok {
		return
	}
	g.typeNames = append(g.typeNames, name)
	g.byType[name] = make(map[string]*ResolvedEntity)
}

// Add inserts an entity under its type, preserving insertion order.
func (g *Graph) Add(e *ResolvedEntity) {
	if _, ok := g.byType[e.Type]; !ok {
		g.AddType(e.Type)
	}
	g.byType[e.Type][e.ID] = e
	g.order[e.Type] = append(g.order[e.Type], e)
}

// TypeNames returns the entity types in registration order.
func (g *Graph) TypeNames() []string { return g.typeNames }

// HasType reports whether the type is registered.
func (g *Graph) HasType(name string) bool {
	_, ok := g.byType[name]
	return ok
}

// Entities returns the entities of a type in document order.
func (g *Graph) Entities(typeName string) []*ResolvedEntity {
	return g.order[typeName]
}

// Lookup finds an entity by type and id.
func (g *Graph) Lookup(typeName, id string) (*ResolvedEntity, bool) {
	idx, ok := g.byType[typeName]
	if !ok {
		return nil, false
	}
	e, ok := idx[id]
	return e, ok
}

// Count returns the number of entities of a type.
func (g *Graph) Count(typeName string) int {
	return len(g.order[typeName])
}

// Total returns the number of entities across all types.
func (g *Graph) Total() int {
	n := 0
	for _, list := range g.order {
		n += len(list)
	}
	return n
}
