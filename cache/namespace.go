package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Namespace is the key scope of one configuration generation.
type Namespace struct {
	// Prefix is the configured namespace prefix.
	Prefix string
	// Generation identifies the configuration generation. It names the file
	// driver's storage directory as well.
	Generation string
}

// String renders the namespace as "<prefix>-<generation>".
func (n Namespace) String() string {
	return n.Prefix + "-" + n.Generation
}

// BuildNamespace derives the namespace from the prefix, the site base URL, the
// configuration fingerprint and the build version. Changing any input yields a
// different generation, which makes every earlier entry unreachable.
func BuildNamespace(prefix, baseURL, fingerprint, version string) Namespace {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	sum := sha256.Sum256([]byte(baseURL + fingerprint + version))
	return Namespace{Prefix: prefix, Generation: hex.EncodeToString(sum[:])[2:10]}
}
