// Package hash computes the 64-bit keys used to index cached object descriptors.
package hash

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// ObjectKey computes the cache key of an object id.
//
// Surrounding whitespace and a trailing slash are ignored so that
// "https://host/objects/abc/" and "https://host/objects/abc" share a key.
func ObjectKey(objectID string) uint64 {
	return ID(strings.TrimSuffix(strings.TrimSpace(objectID), "/"))
}
