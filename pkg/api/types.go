package api

import (
	"time"

	"github.com/REPPL/itemdeck.app-sub011/pkg/resolve"
)

// CollectionSummary describes the loaded collection.
type CollectionSummary struct {
	ID          string            `json:"id"`
	Format      string            `json:"format"`
	PrimaryType string            `json:"primary_type"`
	EntityTypes map[string]int    `json:"entity_types"` // type name -> entity count
	Warnings    []resolve.Warning `json:"warnings,omitempty"`
	LoadedAt    time.Time         `json:"loaded_at"`
}

// CardDetail is the full read-time view of one card: the entity in its
// raw round-trippable shape plus the rendered card faces.
type CardDetail struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"`
	Fields map[string]interface{} `json:"fields"`
	Front  map[string]string      `json:"front"`
	Back   map[string]string      `json:"back"`
}

// FieldResult is the response of a field-path evaluation. Found is
// false when every path in the fallback chain missed; that is the
// designed absence outcome, not an error.
type FieldResult struct {
	ID    string      `json:"id"`
	Path  string      `json:"path"`
	Found bool        `json:"found"`
	Value interface{} `json:"value,omitempty"`
}

// ReloadRequest asks the daemon to switch to another collection.
type ReloadRequest struct {
	Base string `json:"base"`
}
