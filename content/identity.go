package content

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"
)

// ComputeID derives a page identity from its modification stamp (unix
// nanoseconds) and path, prefixed with the active locale.
func ComputeID(path string, modified int64, locale string) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(modified, 10) + path))
	return locale + hex.EncodeToString(sum[:16])
}

// CacheKey is the key a page's rendered artifact is stored under.
func CacheKey(id string) string {
	sum := sha256.Sum256([]byte("content" + id))
	return hex.EncodeToString(sum[:])
}

var lastStamp atomic.Int64

// nextStamp returns a unix-nano stamp strictly greater than any it returned
// before, so two mutations within one clock tick still get distinct ids.
func nextStamp(now time.Time) int64 {
	candidate := now.UnixNano()
	for {
		last := lastStamp.Load()
		next := candidate
		if next <= last {
			next = last + 1
		}
		if lastStamp.CompareAndSwap(last, next) {
			return next
		}
	}
}
