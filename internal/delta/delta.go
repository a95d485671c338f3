// Package delta implements bidirectional diffs between versions'
// content, backed by github.com/evanphx/json-patch. It speaks RFC 7396
// JSON Merge Patch rather than RFC 6902 JSON Patch — evanphx's diff side
// (CreateMergePatch) only emits merge patches, and a merge patch is
// enough to turn newer content back into older content for the
// JSON-object payloads this system stores.
package delta

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/dictcore/dictcore/internal/codec"
	"github.com/dictcore/dictcore/internal/coreerrors"
)

// Delta is an opaque, serializable backward diff: applying it to the newer
// content reproduces the older content ("snapshots are kept for
// the newest; older versions reconstructed by chaining backward deltas").
type Delta struct {
	Patch []byte `json:"patch"`
}

// ComputeDelta returns a Delta such that ApplyDelta(new, delta) reproduces
// old. old and new must be JSON-compatible values, per codec.Canonicalize's
// contract.
func ComputeDelta(old, new any) (Delta, error) {
	oldCanonical, err := codec.Canonicalize(old)
	if err != nil {
		return Delta{}, err
	}
	newCanonical, err := codec.Canonicalize(new)
	if err != nil {
		return Delta{}, err
	}
	patch, err := jsonpatch.CreateMergePatch(newCanonical, oldCanonical)
	if err != nil {
		return Delta{}, coreerrors.New(coreerrors.ErrCodeDeltaApply, "failed to compute delta", err)
	}
	return Delta{Patch: patch}, nil
}

// ApplyDelta applies delta to newContent (a JSON-compatible value) and
// returns the reconstructed older content as a generic JSON object. Fails
// with coreerrors.DeltaApplyError when the delta is malformed or does not
// apply cleanly to newContent.
func ApplyDelta(newContent any, d Delta) (map[string]any, error) {
	newCanonical, err := codec.Canonicalize(newContent)
	if err != nil {
		return nil, err
	}

	reconstructed, err := jsonpatch.MergePatch(newCanonical, d.Patch)
	if err != nil {
		return nil, coreerrors.DeltaApplyError("<merge-patch>", err)
	}

	var result map[string]any
	if err := json.Unmarshal(reconstructed, &result); err != nil {
		return nil, coreerrors.DeltaApplyError("<result>", err)
	}
	return result, nil
}
