package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaborage/pagebricks/events"
)

// ClearCategory names a set of storage locations removed together.
type ClearCategory string

const (
	ClearStandard   ClearCategory = "standard"
	ClearAll        ClearCategory = "all"
	ClearAssetsOnly ClearCategory = "assets-only"
	ClearImagesOnly ClearCategory = "images-only"
	ClearCacheOnly  ClearCategory = "cache-only"
	ClearTmpOnly    ClearCategory = "tmp-only"
	ClearInvalidate ClearCategory = "invalidate"
)

// ParseClearCategory validates a category name. Empty means standard.
func ParseClearCategory(s string) (ClearCategory, error) {
	switch c := ClearCategory(s); c {
	case "":
		return ClearStandard, nil
	case ClearStandard, ClearAll, ClearAssetsOnly, ClearImagesOnly, ClearCacheOnly, ClearTmpOnly, ClearInvalidate:
		return c, nil
	default:
		return "", fmt.Errorf("unknown cache clear category %q", s)
	}
}

// BeforeClearEvent is published before any location is swept. Listeners may
// rewrite Locations.
type BeforeClearEvent struct {
	Category  ClearCategory
	Locations []string
}

// AfterClearEvent is published once sweeping is done. Listeners may rewrite Output.
type AfterClearEvent struct {
	Category ClearCategory
	Output   []string
}

// Locations returns the locations swept for category.
func (c *Cache) Locations(category ClearCategory) []string {
	switch category {
	case ClearAll:
		return []string{SchemeCache, SchemeDriver, SchemeCache + "images", SchemeAsset, SchemeTmp}
	case ClearAssetsOnly:
		return []string{SchemeAsset}
	case ClearImagesOnly:
		return []string{SchemeCache + "images"}
	case ClearCacheOnly:
		return []string{SchemeCache}
	case ClearTmpOnly:
		return []string{SchemeTmp}
	case ClearInvalidate:
		return nil
	default:
		locs := []string{SchemeDriver, SchemeCache + "templates", SchemeCache + "compiled", SchemeCache + "validated"}
		if c.clearImagesByDefault {
			locs = append(locs, SchemeCache+"images")
		}
		return append(locs, SchemeAsset)
	}
}

// Clear sweeps the locations of category and returns a human-readable report.
// Failures on one location are reported and the sweep moves on; Clear itself
// never fails.
func (c *Cache) Clear(ctx context.Context, category ClearCategory) []string {
	if category == "" {
		category = ClearStandard
	}
	var output []string

	if category == ClearStandard || category == ClearAll {
		c.clearDriver(ctx)
	}

	before := &BeforeClearEvent{Category: category, Locations: c.Locations(category)}
	if _, err := c.publisher.Dispatch(ctx, events.CacheBeforeClear, before); err != nil {
		output = append(output, "Error: "+err.Error())
	}

	for _, loc := range before.Locations {
		output = append(output, c.sweep(loc)...)
	}
	output = append(output, "")

	if category == ClearStandard || category == ClearAll || category == ClearInvalidate {
		if touched, err := c.touchConfig(); err != nil {
			output = append(output, "Error: "+err.Error(), "")
		} else if touched {
			output = append(output, "Touched: "+c.configFile, "")
		}
	}
	c.runResetters()

	after := &AfterClearEvent{Category: category, Output: output}
	if _, err := c.publisher.Dispatch(ctx, events.CacheAfterClear, after); err != nil {
		after.Output = append(after.Output, "Error: "+err.Error())
	}

	c.log.Info().Str("category", string(category)).Int("lines", len(after.Output)).Msg("cache cleared")
	return after.Output
}

// Invalidate forces namespace rotation on the next boot and drops in-process
// compiled caches without removing anything from storage.
func (c *Cache) Invalidate() error {
	_, err := c.touchConfig()
	c.runResetters()
	return err
}

func (c *Cache) sweep(location string) []string {
	dir, err := c.storage.Resolve(location)
	if err != nil {
		return []string{"Error: " + err.Error()}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return []string{"Error: " + err.Error()}
	}

	var out []string
	anything := false
	for _, e := range entries {
		// hidden entries such as .gitkeep survive a sweep
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		full := filepath.Join(dir, e.Name())

		info, err := os.Lstat(full)
		if err != nil {
			out = append(out, "Error: "+err.Error())
			continue
		}
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			out = append(out, "Skipped symlink:  "+full)
		case info.IsDir():
			if err := os.RemoveAll(full); err != nil {
				out = append(out, "Error: "+err.Error())
				continue
			}
			anything = true
		default:
			if err := os.Remove(full); err != nil {
				out = append(out, "Error: "+err.Error())
				continue
			}
			anything = true
		}
	}

	if anything {
		out = append(out, "Cleared:  "+dir+string(filepath.Separator)+"*")
	}
	return out
}

func (c *Cache) touchConfig() (bool, error) {
	if c.configFile == "" {
		return false, nil
	}
	if _, err := os.Stat(c.configFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	now := c.now()
	if err := os.Chtimes(c.configFile, now, now); err != nil {
		return false, fmt.Errorf("touch %s: %w", c.configFile, err)
	}
	return true, nil
}
