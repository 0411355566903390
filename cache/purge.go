package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// PurgeOldCache deletes every generation directory under the driver storage
// root except the active one and returns how many were removed.
func (c *Cache) PurgeOldCache() (int, error) {
	root := c.storage.Driver
	if root == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cache root: %w", err)
	}

	count := 0
	var errs []error
	for _, e := range entries {
		if !e.IsDir() || e.Name() == c.ns.Generation {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}

	if count > 0 {
		c.log.Info().Int("folders", count).Str("root", root).Msg("purged old cache generations")
	}
	return count, errors.Join(errs...)
}
