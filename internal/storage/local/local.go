package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/dev-tams/deltapurge/internal/storage/prunable"
)

// Storage serves file:// tables. Keys are slash-separated paths relative to
// base.
type Storage struct {
	name string
	base string
	fs   afero.Fs
}

func New(name, basePath string) *Storage {
	return NewWithFs(name, basePath, afero.NewOsFs())
}

func NewWithFs(name, basePath string, fs afero.Fs) *Storage {
	return &Storage{name: name, base: basePath, fs: fs}
}

func (s *Storage) Name() string { return s.name }

func (s *Storage) BasePath() string { return s.base }

func (s *Storage) path(key string) string {
	return filepath.Join(s.base, filepath.FromSlash(key))
}

func (s *Storage) List(_ context.Context, prefix string) ([]prunable.ObjectInfo, error) {
	dir := s.path(prefix)
	if !strings.HasSuffix(prefix, "/") && prefix != "" {
		dir = filepath.Dir(dir)
	}

	var out []prunable.ObjectInfo
	err := afero.Walk(s.fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.base, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		out = append(out, prunable.ObjectInfo{
			Key:     key,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list dir: %w", err)
	}
	return out, nil
}

func (s *Storage) ReadObject(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key, prunable.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// DeleteObjects removes every key, skipping ones that no longer exist, and
// reports the keys it could not remove.
func (s *Storage) DeleteObjects(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.fs.Remove(s.path(key)); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
