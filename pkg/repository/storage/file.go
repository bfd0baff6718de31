// Package storage holds the durable backends: the postgres booking repo and
// the key/value slots used to persist the store between runs.
package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/eduardlon/torresbarber/pkg/domain/persist"
	"github.com/eduardlon/torresbarber/pkg/utils/errs"
)

// FileStorage writes every key to <dir>/<key>.json.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.New("failed to create storage dir").Arg("dir", dir).Wrap(err)
	}
	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, strings.ReplaceAll(key, string(filepath.Separator), "_")+".json")
}

func (f *FileStorage) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persist.ErrNotFound
		}
		return nil, errs.New("failed to read state file").Arg("key", key).Wrap(err)
	}
	return data, nil
}

// Save replaces the file atomically so a crash never leaves half a document behind.
func (f *FileStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".state-*")
	if err != nil {
		return errs.New("failed to create temp file").Wrap(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.New("failed to write state file").Arg("key", key).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return errs.New("failed to close state file").Arg("key", key).Wrap(err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return errs.New("failed to replace state file").Arg("key", key).Wrap(err)
	}
	return nil
}
