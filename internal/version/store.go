package version

import (
	"context"
	"encoding/json"

	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/dictcore/dictcore/internal/delta"
)

// storedVersion is the on-disk shape of one chain entry: either full
// content (storage_mode ∈ {inline, snapshot}) or a backward delta against
// the next-newer entry (storage_mode == delta).
type storedVersion struct {
	Info       VersionInfo    `json:"info"`
	Content    map[string]any `json:"content,omitempty"`
	DeltaPatch json.RawMessage `json:"delta_patch,omitempty"`
}

func chainKey(resourceID string) string {
	return resourceID + "::chain"
}

func versionKey(resourceID, version string) string {
	return resourceID + "::v::" + version
}

// toJSONAny round-trips v through encoding/json so it satisfies the plain
// JSON-compatible shapes (map[string]any, []any, ...) that cache.TwoTier's
// codec.Canonicalize-based encoder accepts, regardless of the concrete Go
// struct type v started as.
func toJSONAny(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, coreerrors.EncodeError("version-chain-entry")
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, coreerrors.DecodeError("version", "")
	}
	return generic, nil
}

func fromJSONAny[T any](v any) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, coreerrors.DecodeError("version", "")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, coreerrors.DecodeError("version", "")
	}
	return out, nil
}

// loadChain reads the newest-first VersionInfo index for resourceID, or an
// empty chain if none has ever been written.
func (m *Manager) loadChain(ctx context.Context, ns coreconfig.Namespace, resourceID string) ([]VersionInfo, error) {
	raw, err := m.cache.Get(ctx, ns, chainKey(resourceID), nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return fromJSONAny[[]VersionInfo](raw)
}

func (m *Manager) saveChain(ctx context.Context, ns coreconfig.Namespace, resourceID string, chain []VersionInfo) error {
	generic, err := toJSONAny(chain)
	if err != nil {
		return err
	}
	return m.cache.Set(ctx, ns, chainKey(resourceID), generic, nil)
}

func (m *Manager) saveVersionEntry(ctx context.Context, ns coreconfig.Namespace, resourceID string, entry storedVersion) error {
	generic, err := toJSONAny(entry)
	if err != nil {
		return err
	}
	return m.cache.Set(ctx, ns, versionKey(resourceID, entry.Info.Version), generic, nil)
}

func (m *Manager) loadVersionEntry(ctx context.Context, ns coreconfig.Namespace, resourceID, version string) (storedVersion, error) {
	raw, err := m.cache.Get(ctx, ns, versionKey(resourceID, version), nil)
	if err != nil {
		return storedVersion{}, err
	}
	if raw == nil {
		return storedVersion{}, coreerrors.VersionNotFound(resourceID, version)
	}
	return fromJSONAny[storedVersion](raw)
}

func (m *Manager) deleteVersionEntry(ctx context.Context, ns coreconfig.Namespace, resourceID, version string) {
	if _, err := m.cache.Delete(ctx, ns, versionKey(resourceID, version)); err != nil {
		m.logWarn("failed to delete version content", resourceID, version, err)
	}
}

// loadLinks materializes chain (as persisted) into delta.Link values
// suitable for delta.Reconstruct.
func (m *Manager) loadLinks(ctx context.Context, ns coreconfig.Namespace, resourceID string, chain []VersionInfo) ([]delta.Link, error) {
	links := make([]delta.Link, 0, len(chain))
	for _, info := range chain {
		entry, err := m.loadVersionEntry(ctx, ns, resourceID, info.Version)
		if err != nil {
			return nil, err
		}
		link := delta.Link{Version: info.Version}
		if entry.Info.StorageMode == StorageDelta {
			link.IsSnapshot = false
			link.Delta = delta.Delta{Patch: entry.DeltaPatch}
		} else {
			link.IsSnapshot = true
			link.Content = entry.Content
		}
		links = append(links, link)
	}
	return links, nil
}

func (m *Manager) reconstructContent(ctx context.Context, ns coreconfig.Namespace, resourceID string, chain []VersionInfo, version string) (map[string]any, error) {
	links, err := m.loadLinks(ctx, ns, resourceID, chain)
	if err != nil {
		return nil, err
	}
	return delta.Reconstruct(resourceID, links, version, m.deltaPolicy)
}
