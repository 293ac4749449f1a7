package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local fetches documents from a directory on the local filesystem.
type Local struct {
	root string
}

// NewLocal creates a filesystem fetcher rooted at root.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Fetch reads root/location. A missing file maps to ErrNotFound.
func (l *Local) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(l.root, filepath.FromSlash(location))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
