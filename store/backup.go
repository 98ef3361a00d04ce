package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// backupStamp sorts lexically in chronological order.
const backupStamp = "20060102T150405.000000000"

// BackupName derives the backup prefix from a data file path: data/inventory.json -> inventory.
func BackupName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// WriteBackup stores data as <dir>/<name>-<timestamp>.json and prunes older files of the same
// name so that at most keep remain. It returns the path written.
func WriteBackup(dir, name string, data []byte, keep int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	target := filepath.Join(dir, fmt.Sprintf("%s-%s.json", name, time.Now().UTC().Format(backupStamp)))
	if err := WriteFileAtomic(target, data); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := PruneBackups(dir, name, keep); err != nil {
		return target, err
	}
	return target, nil
}

// ListBackups returns the backup files for name, newest first.
func ListBackups(dir, name string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	prefix := name + "-"
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// PruneBackups deletes all but the newest keep backups of name.
func PruneBackups(dir, name string, keep int) error {
	files, err := ListBackups(dir, name)
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	for i := keep; i < len(files); i++ {
		if err := os.Remove(files[i]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to prune backup %s: %w", files[i], err)
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory and renames it over path,
// so a crash mid-write never leaves a truncated primary file.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
