// Package fingerprint provides the native acceleration core's fast content
// hashing and cache-key formatting primitives.
//
// # Hashing
//
// Hash uses xxhash (64-bit, non-cryptographic) rather than a SHA-family
// digest: cache keys need collision resistance proportional to the number
// of distinct build inputs, not cryptographic security, and xxhash is
// orders of magnitude faster on the source sizes a build graph touches.
//
// # Thread Safety
//
// Every function in this package is stateless and safe for concurrent use.
package fingerprint

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hash returns the lowercase hex xxhash64 digest of content, with no prefix.
func Hash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// BatchHash hashes each element of contents independently.
func BatchHash(contents []string) []string {
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = Hash(c)
	}
	return out
}

// StableID mints a deterministic identifier of the form "<prefix>:<16-hex>".
// Equal (content, prefix) pairs always yield equal IDs, across processes
// and runs.
func StableID(content, prefix string) string {
	return fmt.Sprintf("%s:%s", prefix, Hash(content))
}

// BatchStableIDs mints a StableID for each element of contents using the
// same prefix.
func BatchStableIDs(contents []string, prefix string) []string {
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = StableID(c, prefix)
	}
	return out
}

// InputKey formats a cache key memoizing a per-source-file transform:
// "input:<path>:<contentHash>".
func InputKey(path, contentHash string) string {
	return fmt.Sprintf("input:%s:%s", path, contentHash)
}

// GraphKey formats a cache key memoizing graph analysis output:
// "graph:<graphHash>".
func GraphKey(graphHash string) string {
	return fmt.Sprintf("graph:%s", graphHash)
}

// PlanKey formats a cache key memoizing a build plan for a target:
// "plan:<target>:<planHash>". Target is always the second colon-delimited
// segment, which is the contract ClearTarget relies on.
func PlanKey(target, planHash string) string {
	return fmt.Sprintf("plan:%s:%s", target, planHash)
}

// ArtifactKey formats a cache key for a final emitted artifact:
// "artifact:<target>:<artifactID>". Target is always the second
// colon-delimited segment.
func ArtifactKey(target, artifactID string) string {
	return fmt.Sprintf("artifact:%s:%s", target, artifactID)
}

// NormalizePath replaces backslashes with forward slashes, the module
// resolver's canonical path form.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
