package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spherical/figure-extractor/internal/domain"
)

// LocalStore writes figures below a root directory, with a JSON sidecar
// holding the metadata.
type LocalStore struct {
	root string
}

var _ domain.ImageStore = (*LocalStore)(nil)

// NewLocalStore creates a store rooted at root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Save writes root/dir/name and root/dir/name.json.
func (s *LocalStore) Save(ctx context.Context, dir, name string, data []byte, meta domain.ImageMetadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", domain.ValidationError(fmt.Sprintf("invalid figure name %q", name), nil)
	}

	target := filepath.Join(s.root, filepath.Clean("/"+dir))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", domain.StorageError("create figure directory", err)
	}

	imagePath := filepath.Join(target, name)
	if err := os.WriteFile(imagePath, data, 0o644); err != nil {
		return "", domain.StorageError("write figure", err)
	}

	sidecar, err := json.MarshalIndent(meta.Map(), "", "  ")
	if err != nil {
		return "", domain.StorageError("encode figure metadata", err)
	}
	if err := os.WriteFile(imagePath+".json", sidecar, 0o644); err != nil {
		return "", domain.StorageError("write figure metadata", err)
	}

	return imagePath, nil
}
