package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
)

// processLocalKeys only shape how the current process runs. A one-shot command
// and a long-lived server reading the same files must agree on the cache
// generation, so these never reach the fingerprint.
var processLocalKeys = []string{
	"cache.cli_compatibility",
	"log.",
}

func isProcessLocal(key string) bool {
	for _, k := range processLocalKeys {
		if key == k || (strings.HasSuffix(k, ".") && strings.HasPrefix(key, k)) {
			return true
		}
	}
	return false
}

// Fingerprint digests the effective configuration values together with the
// path and modification time of each loaded file. Any change to either yields
// a different fingerprint, so touching a loaded file is enough to rotate it.
// Process-local keys (log settings, cache.cli_compatibility) are left out.
func (c *Config) Fingerprint() string {
	h := sha256.New()

	if c.k != nil {
		all := c.k.All()
		keys := make([]string, 0, len(all))
		for key := range all {
			if isProcessLocal(key) {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(h, "%s=%v\n", key, all[key])
		}
	}

	for _, f := range c.files {
		var stamp int64
		if fi, err := os.Stat(f); err == nil {
			stamp = fi.ModTime().UnixNano()
		}
		fmt.Fprintf(h, "file:%s@%d\n", f, stamp)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Files lists the configuration files that were loaded, in load order.
func (c *Config) Files() []string {
	out := make([]string, len(c.files))
	copy(out, c.files)
	return out
}

// PrimaryFile is the file touched to force namespace rotation. Empty when no
// file was loaded.
func (c *Config) PrimaryFile() string {
	if len(c.files) == 0 {
		return ""
	}
	return c.files[0]
}

// GetString reads an arbitrary key, including ones outside the typed structs.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if c.k != nil && c.k.Exists(key) {
		return c.k.String(key)
	}
	if len(defaultVal) > 0 {
		return defaultVal[0]
	}
	return ""
}
