// Package storage provides the product cache backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/ports"
)

// FileStore keeps one YAML document per key in a directory. Two processes sharing the
// directory overwrite each other's records for the same key.
type FileStore struct {
	dir string
}

var _ ports.ProductCache = (*FileStore)(nil)

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Get reads the record for key; a missing file is a miss.
func (s *FileStore) Get(_ context.Context, key domain.CacheKey) (domain.ProductRecord, bool, error) {
	raw, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ProductRecord{}, false, nil
	}
	if err != nil {
		return domain.ProductRecord{}, false, fmt.Errorf("read %s: %w", key, err)
	}

	var record domain.ProductRecord
	if err := yaml.Unmarshal(raw, &record); err != nil {
		return domain.ProductRecord{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return record, true, nil
}

// Put writes the record for key.
func (s *FileStore) Put(_ context.Context, key domain.CacheKey, record domain.ProductRecord) error {
	raw, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) path(key domain.CacheKey) string {
	return filepath.Join(s.dir, key.String()+".yaml")
}
