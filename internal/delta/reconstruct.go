package delta

import "github.com/dictcore/dictcore/internal/coreerrors"

// Link is one entry in a resource's version chain, ordered newest-first.
// A snapshot link carries full Content; a delta link carries a Delta that,
// applied to the content of the next-newer link in the chain, reproduces
// this link's own content (a backward delta).
type Link struct {
	Version    string
	IsSnapshot bool
	Content    any
	Delta      Delta
}

// Reconstruct recovers the content at targetVersion by walking chain
// (newest-first) from the nearest snapshot forward, applying each
// intervening delta in turn. It fails with ChainBroken if more than
// policy.MaxChainLength deltas must be applied without encountering a
// snapshot.
func Reconstruct(resourceID string, chain []Link, targetVersion string, policy Policy) (map[string]any, error) {
	targetIdx := indexOfVersion(chain, targetVersion)
	if targetIdx == -1 {
		return nil, coreerrors.VersionNotFound(resourceID, targetVersion)
	}
	if chain[targetIdx].IsSnapshot {
		return coerceToMap(chain[targetIdx].Content)
	}

	// Walk backward (toward the newer end of the slice, index 0) to find
	// the nearest snapshot, counting the deltas that must then be
	// replayed forward from it.
	snapshotIdx := -1
	for i := targetIdx; i >= 0; i-- {
		if chain[i].IsSnapshot {
			snapshotIdx = i
			break
		}
	}
	if snapshotIdx == -1 {
		return nil, coreerrors.ChainBroken(resourceID, nil)
	}
	deltaCount := targetIdx - snapshotIdx
	if deltaCount > policy.MaxChainLength {
		return nil, coreerrors.ChainBroken(resourceID, nil)
	}

	content, err := coerceToMap(chain[snapshotIdx].Content)
	if err != nil {
		return nil, err
	}
	for i := snapshotIdx + 1; i <= targetIdx; i++ {
		content, err = ApplyDelta(content, chain[i].Delta)
		if err != nil {
			return nil, err
		}
	}
	return content, nil
}

func indexOfVersion(chain []Link, version string) int {
	for i, l := range chain {
		if l.Version == version {
			return i
		}
	}
	return -1
}

func coerceToMap(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, coreerrors.New(coreerrors.ErrCodeDeltaApply, "snapshot content is not a JSON object", nil)
	}
	return m, nil
}
