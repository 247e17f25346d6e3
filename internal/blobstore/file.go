package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one file per key under a root directory
type FileStore struct {
	root string
}

// NewFile creates a file-backed store rooted at dir, creating it if needed
func NewFile(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob dir is required")
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("stat blob dir %s: %w", dir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("blob dir %s is not a directory", dir)
	}

	return &FileStore{root: dir}, nil
}

// fullPath maps a key to a file inside root, rejecting keys that escape it
func (f *FileStore) fullPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(f.root, key+".blob"), nil
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: blob %q", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read blob %q: %w", key, err)
	}
	return data, nil
}

// Put writes to a temp file and renames it into place so readers never see
// a partial value.
func (f *FileStore) Put(_ context.Context, key string, data []byte) error {
	path, err := f.fullPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close blob %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit blob %q: %w", key, err)
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	path, err := f.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

func (f *FileStore) Type() string { return "file" }

func (f *FileStore) Close() error { return nil }
