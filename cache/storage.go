package cache

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Location schemes understood by Storage.Resolve.
const (
	SchemeCache  = "cache://"
	SchemeDriver = "driver://"
	SchemeAsset  = "asset://"
	SchemeTmp    = "tmp://"
)

// Storage maps location schemes to directories.
type Storage struct {
	Cache  string // cache://
	Driver string // driver:// root holding one directory per generation
	Assets string // asset://
	Tmp    string // tmp://
}

// Resolve turns a location such as "cache://images" into a directory path.
func (s Storage) Resolve(location string) (string, error) {
	schemes := []struct {
		prefix string
		base   string
	}{
		{SchemeCache, s.Cache},
		{SchemeDriver, s.Driver},
		{SchemeAsset, s.Assets},
		{SchemeTmp, s.Tmp},
	}
	for _, sc := range schemes {
		if !strings.HasPrefix(location, sc.prefix) {
			continue
		}
		if sc.base == "" {
			return "", fmt.Errorf("location %s is not configured", location)
		}
		rest := strings.Trim(strings.TrimPrefix(location, sc.prefix), "/")
		if rest == "" {
			return filepath.Clean(sc.base), nil
		}
		return filepath.Join(sc.base, filepath.FromSlash(rest)), nil
	}
	return "", fmt.Errorf("unknown location scheme in %q", location)
}
