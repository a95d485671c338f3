// Package version implements the version manager: save, get_latest,
// get_by_version, list_versions, and delete_version over append-only
// semver chains, layered on the two-tier cache and the delta engine.
package version

import (
	"time"

	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/registry"
)

// StorageMode records how a version's content is physically held.
type StorageMode string

const (
	StorageInline   StorageMode = "inline"
	StorageSnapshot StorageMode = "snapshot"
	StorageDelta    StorageMode = "delta"
)

// VersionInfo is the per-version header of a chain entry.
type VersionInfo struct {
	Version   string `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	DataHash  string `json:"data_hash"`
	// Ordinal is this version's 1-indexed creation order within its
	// (resource_id, kind) chain, fixed at save time and never renumbered
	// by later deletes. The snapshot/delta policy keys off Ordinal rather
	// than current chain position so deleting an old version never shifts
	// which surviving versions count as snapshot anchors.
	Ordinal      int               `json:"ordinal"`
	StorageMode  StorageMode       `json:"storage_mode"`
	IsLatest     bool              `json:"is_latest"`
	Supersedes   string            `json:"supersedes,omitempty"`
	SupersededBy string            `json:"superseded_by,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ContentLocation points at the physical storage of a version's payload
// when it is not held inline
type ContentLocation struct {
	Storage        string             `json:"storage"`
	Namespace      coreconfig.Namespace `json:"namespace,omitempty"`
	Key            string             `json:"key,omitempty"`
	Path           string             `json:"path,omitempty"`
	ContentType    string             `json:"content_type,omitempty"`
	Compression    string             `json:"compression,omitempty"`
	SizeBytes      int                `json:"size_bytes"`
	SizeCompressed int                `json:"size_compressed,omitempty"`
	Checksum       string             `json:"checksum"`
}

// VersionedRecord is the full versioned envelope around one piece of
// content
type VersionedRecord struct {
	ResourceID      string                `json:"resource_id"`
	Kind            registry.ResourceKind `json:"kind"`
	Namespace       coreconfig.Namespace  `json:"namespace"`
	VersionInfo     VersionInfo           `json:"version_info"`
	ContentInline   map[string]any        `json:"content_inline,omitempty"`
	ContentLocation *ContentLocation      `json:"content_location,omitempty"`
	TTL             *time.Duration        `json:"ttl,omitempty"`
	Metadata        map[string]string     `json:"metadata,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// VersionSummary is the lightweight projection list_versions returns.
type VersionSummary struct {
	Version      string      `json:"version"`
	CreatedAt    time.Time   `json:"created_at"`
	IsLatest     bool        `json:"is_latest"`
	StorageMode  StorageMode `json:"storage_mode"`
	DataHash     string      `json:"data_hash"`
}
