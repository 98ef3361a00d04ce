package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileCollection keeps a collection as one JSON array on disk. Every write snapshots the current
// file into the backup directory first, then replaces the primary file atomically.
type FileCollection[T any] struct {
	path      string
	backupDir string
	keep      int
	key       KeyFunc[T]
	mu        sync.Mutex
}

// NewFileCollection creates a collection stored at path. Backups go to backupDir and are pruned
// to the newest keep files; keep <= 0 disables backups.
func NewFileCollection[T any](path, backupDir string, keep int, key KeyFunc[T]) (*FileCollection[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if keep > 0 {
		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create backup directory: %w", err)
		}
	}
	return &FileCollection[T]{path: path, backupDir: backupDir, keep: keep, key: key}, nil
}

// Path returns the primary file location.
func (c *FileCollection[T]) Path() string { return c.path }

func (c *FileCollection[T]) All(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

func (c *FileCollection[T]) Get(ctx context.Context, id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	items, err := c.read()
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if c.key(item) == id {
			return item, nil
		}
	}
	return zero, ErrNotFound
}

func (c *FileCollection[T]) Put(ctx context.Context, items ...T) error {
	if len(items) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.read()
	if err != nil {
		return err
	}
	index := make(map[string]int, len(current))
	for i, item := range current {
		index[c.key(item)] = i
	}
	for _, item := range items {
		k := c.key(item)
		if k == "" {
			return errors.New("record key is empty")
		}
		if i, ok := index[k]; ok {
			current[i] = item
			continue
		}
		index[k] = len(current)
		current = append(current, item)
	}
	return c.write(current)
}

func (c *FileCollection[T]) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.read()
	if err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := current[:0]
	for _, item := range current {
		if _, ok := drop[c.key(item)]; !ok {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(current) {
		return nil
	}
	return c.write(kept)
}

func (c *FileCollection[T]) Replace(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if items == nil {
		items = []T{}
	}
	return c.write(items)
}

func (c *FileCollection[T]) read() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", c.path, err)
	}
	return items, nil
}

func (c *FileCollection[T]) write(items []T) error {
	if c.keep > 0 {
		if err := c.backup(); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.path, err)
	}
	return WriteFileAtomic(c.path, data)
}

// backup copies the current primary file, if any, into the backup directory.
func (c *FileCollection[T]) backup() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s for backup: %w", c.path, err)
	}
	_, err = WriteBackup(c.backupDir, BackupName(c.path), data, c.keep)
	return err
}
