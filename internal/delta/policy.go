package delta

// Policy governs when a version is stored as a full snapshot versus a
// backward delta, and how long a reconstruction chain may grow before a
// new snapshot is forced.
type Policy struct {
	// SnapshotInterval: every Nth version in a chain is stored as a full
	// snapshot regardless of delta size, bounding worst-case
	// reconstruction cost. Default 10
	SnapshotInterval int
	// MaxChainLength: a reconstruction may traverse at most this many
	// deltas before giving up with ChainBroken. Default 50
	MaxChainLength int
}

// DefaultPolicy returns the default snapshot/chain bounds.
func DefaultPolicy() Policy {
	return Policy{SnapshotInterval: 10, MaxChainLength: 50}
}

// ShouldSnapshot reports whether the version at the given 1-indexed
// position in a resource's version chain should be stored as a full
// snapshot rather than a delta against its predecessor.
func (p Policy) ShouldSnapshot(versionIndex int) bool {
	if p.SnapshotInterval <= 0 {
		return versionIndex == 1
	}
	return versionIndex == 1 || versionIndex%p.SnapshotInterval == 0
}
