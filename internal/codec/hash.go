package codec

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the 64-hex SHA-256 digest of canonical-encoded bytes.
func Hash(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// HashContent canonicalizes v and hashes the result in one step, returning
// both the canonical bytes (needed by callers that also persist the
// payload) and the digest. Content at or above LargeContentThreshold, or
// carrying a binary_data field, returns SkipLargeContentChecksum instead of
// a real digest and is never dedup-eligible.
func HashContent(v any) (canonical []byte, digest string, skipLarge bool, err error) {
	canonical, err = Canonicalize(v)
	if err != nil {
		return nil, "", false, err
	}
	if len(canonical) >= LargeContentThreshold || HasBinaryDataField(v) {
		return canonical, SkipLargeContentChecksum, true, nil
	}
	return canonical, Hash(canonical), false, nil
}

// Size returns the canonical encoded size in bytes, used for size
// accounting in VersionedRecord/ContentLocation.
func Size(canonical []byte) int {
	return len(canonical)
}
