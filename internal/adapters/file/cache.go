package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/pageflow/pkg/domain"
)

// Cache implements ports.SequenceCache using the local filesystem.
// It stores results as JSON files in a configured directory.
type Cache struct {
	BasePath string
}

// NewCache creates a new Cache with the given base path.
// If basePath is empty, it defaults to ".pageflow/cache".
func NewCache(basePath string) *Cache {
	if basePath == "" {
		basePath = filepath.Join(".pageflow", "cache")
	}
	return &Cache{BasePath: basePath}
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.BasePath, key+".json")
}

// Put persists the result to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (c *Cache) Put(_ context.Context, key string, res domain.Result) error {
	if key == "" {
		return fmt.Errorf("cache key cannot be empty")
	}

	if err := os.MkdirAll(c.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure cache directory: %w", err)
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// Same directory as the destination, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(c.BasePath, "tmp-"+key+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := c.path(key)
	if _, err := os.Stat(dest); err == nil {
		// os.Rename does not replace existing files on Windows.
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove existing cache file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get reads a result from its JSON file.
func (c *Cache) Get(_ context.Context, key string) (domain.Result, error) {
	if key == "" {
		return domain.Result{}, domain.ErrCacheMiss
	}

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Result{}, domain.ErrCacheMiss
		}
		return domain.Result{}, fmt.Errorf("failed to read cache file: %w", err)
	}

	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.Result{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return res, nil
}

// Delete removes the cache file.
func (c *Cache) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Keys lists the cached keys. Leftover temp files are skipped.
func (c *Cache) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "tmp-") || filepath.Ext(name) != ".json" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// Purge removes every cache file, temp files included.
func (c *Cache) Purge(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(c.BasePath, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list cache files: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to purge cache file: %w", err)
		}
	}
	return nil
}
