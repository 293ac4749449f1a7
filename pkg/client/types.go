package client

import (
	"encoding/json"
	"time"
)

// API types mirrored from pkg/api so SDK consumers do not pull in the
// engine packages.

// Status is the daemon health response.
type Status struct {
	Status           string `json:"status"`
	CollectionLoaded bool   `json:"collection_loaded"`
	LastLoadError    string `json:"last_load_error,omitempty"`
}

// CollectionSummary describes the loaded collection.
type CollectionSummary struct {
	ID          string         `json:"id"`
	Format      string         `json:"format"`
	PrimaryType string         `json:"primary_type"`
	EntityTypes map[string]int `json:"entity_types"`
	LoadedAt    time.Time      `json:"loaded_at"`
}

// Card is the display-ready projection of one entity.
type Card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Group    string `json:"group,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

// CardDetail is the full view of one card.
type CardDetail struct {
	ID     string                     `json:"id"`
	Type   string                     `json:"type"`
	Fields map[string]json.RawMessage `json:"fields"`
	Front  map[string]string          `json:"front"`
	Back   map[string]string          `json:"back"`
}

// FieldResult is a field-path evaluation response. Found false means
// every path in the fallback chain missed.
type FieldResult struct {
	ID    string          `json:"id"`
	Path  string          `json:"path"`
	Found bool            `json:"found"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Image mirrors the engine's image value.
type Image struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
	Alt  string `json:"alt,omitempty"`
}

// CardsOptions filter a card listing.
type CardsOptions struct {
	Group string
	Limit int
}
