package delta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeAndApplyDeltaRoundTrip(t *testing.T) {
	old := map[string]any{"word": "run", "definitions": []any{"to move fast"}, "pos": "verb"}
	newer := map[string]any{"word": "run", "definitions": []any{"to move fast", "a jog"}, "pos": "verb", "tags": []any{"common"}}

	d, err := ComputeDelta(old, newer)
	require.NoError(t, err)
	require.NotEmpty(t, d.Patch)

	reconstructed, err := ApplyDelta(newer, d)
	require.NoError(t, err)
	require.Equal(t, "run", reconstructed["word"])
	require.Equal(t, "verb", reconstructed["pos"])
	_, hasTags := reconstructed["tags"]
	require.False(t, hasTags)
}

func TestApplyDeltaMalformedPatch(t *testing.T) {
	newer := map[string]any{"word": "run"}
	_, err := ApplyDelta(newer, Delta{Patch: []byte("not json")})
	require.Error(t, err)
}

func TestPolicyShouldSnapshot(t *testing.T) {
	p := DefaultPolicy()
	require.True(t, p.ShouldSnapshot(1))
	require.False(t, p.ShouldSnapshot(2))
	require.True(t, p.ShouldSnapshot(10))
	require.True(t, p.ShouldSnapshot(20))
	require.False(t, p.ShouldSnapshot(21))
}

func TestReconstructFromNearestSnapshot(t *testing.T) {
	v1 := map[string]any{"word": "cat", "definitions": []any{"a feline"}}
	v2 := map[string]any{"word": "cat", "definitions": []any{"a feline", "informal: a person"}}
	v3 := map[string]any{"word": "cat", "definitions": []any{"a feline", "informal: a person", "slang: cool person"}}

	d2to1, err := ComputeDelta(v1, v2)
	require.NoError(t, err)
	d3to2, err := ComputeDelta(v2, v3)
	require.NoError(t, err)

	chain := []Link{
		{Version: "1.0.2", IsSnapshot: true, Content: v3},
		{Version: "1.0.1", IsSnapshot: false, Delta: d3to2},
		{Version: "1.0.0", IsSnapshot: false, Delta: d2to1},
	}

	got, err := Reconstruct("res-1", chain, "1.0.0", DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, v1["definitions"], got["definitions"])
}

func TestReconstructUnknownVersion(t *testing.T) {
	chain := []Link{{Version: "1.0.0", IsSnapshot: true, Content: map[string]any{"word": "dog"}}}
	_, err := Reconstruct("res-1", chain, "9.9.9", DefaultPolicy())
	require.Error(t, err)
}

func TestReconstructChainBrokenWithoutSnapshot(t *testing.T) {
	chain := []Link{
		{Version: "1.0.1", IsSnapshot: false, Delta: Delta{Patch: []byte(`{}`)}},
		{Version: "1.0.0", IsSnapshot: false, Delta: Delta{Patch: []byte(`{}`)}},
	}
	_, err := Reconstruct("res-1", chain, "1.0.0", DefaultPolicy())
	require.Error(t, err)
}

func TestComputeDiffBetweenCategorizesLines(t *testing.T) {
	from := map[string]any{"word": "run", "pos": "verb"}
	to := map[string]any{"word": "run", "pos": "noun"}

	changes, err := ComputeDiffBetween("1.0.0", "1.0.1", from, to)
	require.NoError(t, err)

	var added, removed bool
	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			added = true
		case ChangeRemoved:
			removed = true
		}
	}
	require.True(t, added)
	require.True(t, removed)
}
