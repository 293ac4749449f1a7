// Package fetch supplies the engine's single external I/O boundary: a
// capability that retrieves a document by location. Transport (HTTP,
// local files, anything wrapped in a Func) is the caller's choice; the
// loader only ever sees relative locations like "collection.json".
package fetch

import (
	"context"
	"errors"
)

// ErrNotFound reports that the location does not exist. The loader
// distinguishes it from transport failure when probing the entity-file
// naming conventions: not-found means try the next candidate, anything
// else fails the load.
var ErrNotFound = errors.New("document not found")

// Fetcher retrieves a document by relative location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, location string) ([]byte, error)

// Fetch implements Fetcher.
func (f Func) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}
