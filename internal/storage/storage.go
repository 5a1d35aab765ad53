package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/pkg/config"

	"go.uber.org/zap"
)

// ErrStorageFailure wraps read/write/delete failures against object storage.
var ErrStorageFailure = errors.New("storage failure")

// Storage is the durable object store for long-lived receipt files.
// Delete is idempotent: removing a missing object is not an error.
type Storage interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New selects the storage driver from configuration.
func New(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(cfg, logger)
	case "local", "":
		return NewLocalStorage(cfg.LocalPath)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// LocalStorage keeps objects on the local filesystem under a base path.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating storage directory: %v", ErrStorageFailure, err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (l *LocalStorage) Save(ctx context.Context, key string, data []byte) error {
	path := filepath.Join(l.basePath, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageFailure, key, err)
	}
	return nil
}

func (l *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, key))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageFailure, key, err)
	}
	return data, nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(l.basePath, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: deleting %s: %v", ErrStorageFailure, key, err)
	}
	return nil
}
