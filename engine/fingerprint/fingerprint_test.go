package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	a := Hash("hello world")
	b := Hash("hello world")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestHashDiffersOnContent(t *testing.T) {
	assert.NotEqual(t, Hash("a"), Hash("b"))
}

func TestBatchHash(t *testing.T) {
	in := []string{"a", "b", "c"}
	out := BatchHash(in)
	require.Len(t, out, 3)
	for i, c := range in {
		assert.Equal(t, Hash(c), out[i])
	}
}

func TestStableIDFormat(t *testing.T) {
	id := StableID("payload", "artifact")
	assert.Regexp(t, `^artifact:[0-9a-f]{16}$`, id)
}

func TestStableIDDeterministicAcrossCalls(t *testing.T) {
	assert.Equal(t, StableID("x", "plan"), StableID("x", "plan"))
}

func TestBatchStableIDs(t *testing.T) {
	ids := BatchStableIDs([]string{"x", "y"}, "task")
	require.Len(t, ids, 2)
	assert.Equal(t, StableID("x", "task"), ids[0])
	assert.Equal(t, StableID("y", "task"), ids[1])
}

func TestKeyConstructors(t *testing.T) {
	assert.Equal(t, "input:/src/x.ts:abc123", InputKey("/src/x.ts", "abc123"))
	assert.Equal(t, "graph:deadbeef", GraphKey("deadbeef"))
	assert.Equal(t, "plan:dev:1", PlanKey("dev", "1"))
	assert.Equal(t, "artifact:dev:3", ArtifactKey("dev", "3"))
}

func TestPlanAndArtifactKeyTargetIsSecondSegment(t *testing.T) {
	// Regardless of how the caller names its hash/id, target must land as
	// the second colon-delimited token so prefix-scoped clearing works.
	k := PlanKey("prod", "plan-hash-with-no-colons")
	parts := splitColon(k)
	require.Len(t, parts, 3)
	assert.Equal(t, "prod", parts[1])
}

func splitColon(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ':' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	return out
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "a/b/c", NormalizePath(`a\b\c`))
	assert.Equal(t, "a/b/c", NormalizePath("a/b/c"))
}

func TestScanImportsAllForms(t *testing.T) {
	code := `
import { foo } from 'pkg-a';
export { bar } from "pkg-b";
const x = import('pkg-c');
const y = require('pkg-d');
import { foo2 } from 'pkg-a';
`
	specs := ScanImports(code)
	assert.ElementsMatch(t, []string{"pkg-a", "pkg-b", "pkg-c", "pkg-d"}, specs)
}

func TestScanImportsEmpty(t *testing.T) {
	assert.Empty(t, ScanImports("const x = 1;"))
}
