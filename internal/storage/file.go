package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"minihub/internal/domain"

	"github.com/sirupsen/logrus"
)

type fileStore struct {
	dir string
	log *logrus.Logger
}

// NewFileStore writes one <key>.json file per slice under dir.
func NewFileStore(dir string, logger *logrus.Logger) (domain.KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create store directory %s: %w", dir, err)
	}
	logger.Infof("Repository: file store rooted at %s", dir)
	return &fileStore{dir: dir, log: logger}, nil
}

func (f *fileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *fileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		f.log.Errorf("Repository: failed to read slice %s: %v", key, err)
		return nil, false, fmt.Errorf("could not read %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the file atomically through a rename.
func (f *fileStore) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("could not write %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		f.log.Errorf("Repository: failed to store slice %s: %v", key, err)
		return fmt.Errorf("could not write %s: %w", key, err)
	}
	return nil
}

func (f *fileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not delete %s: %w", key, err)
	}
	return nil
}
