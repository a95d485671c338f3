package version

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dictcore/dictcore/internal/cache"
	"github.com/dictcore/dictcore/internal/codec"
	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/dictcore/dictcore/internal/delta"
	"github.com/dictcore/dictcore/internal/registry"
)

// Manager is the version manager. One Manager instance is shared by
// every producer/consumer in the process; per-(resource_id, kind)
// serialization is internal.
type Manager struct {
	cache       *cache.TwoTier
	deltaPolicy delta.Policy
	log         *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New builds a Manager over an already-wired two-tier cache.
func New(c *cache.TwoTier, policy delta.Policy, log *slog.Logger) *Manager {
	return &Manager{cache: c, deltaPolicy: policy, log: log, locks: make(map[string]*sync.Mutex)}
}

func lockKey(resourceID string, kind registry.ResourceKind) string {
	return string(kind) + "|" + resourceID
}

func (m *Manager) resourceLock(resourceID string, kind registry.ResourceKind) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	key := lockKey(resourceID, kind)
	lk, ok := m.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		m.locks[key] = lk
	}
	return lk
}

// Save performs dedup-by-hash, version assignment, the snapshot/delta
// storage-mode decision, and the atomic is_latest flip, all serialized
// under the (resource_id, kind) lock.
func (m *Manager) Save(ctx context.Context, resourceID string, kind registry.ResourceKind, content map[string]any, cfg coreconfig.VersionConfig, metadata map[string]string, dependencies []string) (*VersionedRecord, error) {
	ns, err := registry.NamespaceFor(kind)
	if err != nil {
		return nil, err
	}

	_, dataHash, skipLarge, err := codec.HashContent(content)
	if err != nil {
		return nil, err
	}

	lock := m.resourceLock(resourceID, kind)
	lock.Lock()
	defer lock.Unlock()

	chain, err := m.loadChain(ctx, ns, resourceID)
	if err != nil {
		return nil, err
	}

	// Sentinel skip-large-content hashes are never dedup-eligible: every
	// such record is treated as distinct.
	if !cfg.ForceRebuild && !skipLarge {
		if existing, found := findByHash(chain, dataHash); found {
			existingContent, err := m.reconstructContent(ctx, ns, resourceID, chain, existing.Version)
			if err != nil {
				return nil, err
			}
			return m.toRecord(resourceID, kind, ns, existing, existingContent, metadata), nil
		}
	}

	nextVersion, err := m.resolveNextVersion(chain, cfg, resourceID)
	if err != nil {
		return nil, err
	}

	// The version being saved is always materialized in full: nothing
	// newer exists yet for it to delta against. The newest version is
	// always a snapshot; older entries are compacted into backward
	// deltas lazily, below, as they're superseded.
	ordinal := len(chain) + 1
	storageMode := StorageSnapshot
	if ordinal == 1 {
		storageMode = StorageInline
	}

	now := time.Now()
	newInfo := VersionInfo{
		Version:      nextVersion,
		CreatedAt:    now,
		DataHash:     dataHash,
		Ordinal:      ordinal,
		StorageMode:  storageMode,
		IsLatest:     true,
		Dependencies: dependencies,
		Metadata:     metadata,
	}

	if len(chain) > 0 {
		newInfo.Supersedes = chain[0].Version
		chain[0].IsLatest = false
		chain[0].SupersededBy = nextVersion

		if err := m.compactIfDue(ctx, ns, resourceID, &chain[0], content); err != nil {
			return nil, err
		}
	}

	entry := storedVersion{Info: newInfo, Content: content}

	if cfg.UseCache {
		if err := m.saveVersionEntry(ctx, ns, resourceID, entry); err != nil {
			return nil, err
		}
		newChain := append([]VersionInfo{newInfo}, chain...)
		if err := m.saveChain(ctx, ns, resourceID, newChain); err != nil {
			return nil, err
		}
	}

	return m.toRecord(resourceID, kind, ns, newInfo, content, metadata), nil
}

// compactIfDue converts prev (the version just superseded) from a full
// snapshot into a backward delta against newerContent, unless prev's
// Ordinal marks it as a permanent snapshot anchor per the snapshot-interval
// policy. prev is updated in place so the in-memory chain slice being
// persisted by the caller reflects the new storage_mode immediately.
func (m *Manager) compactIfDue(ctx context.Context, ns coreconfig.Namespace, resourceID string, prev *VersionInfo, newerContent map[string]any) error {
	if prev.StorageMode == StorageDelta || m.deltaPolicy.ShouldSnapshot(prev.Ordinal) {
		return nil
	}
	prevEntry, err := m.loadVersionEntry(ctx, ns, resourceID, prev.Version)
	if err != nil {
		return err
	}
	if prevEntry.Info.StorageMode == StorageDelta {
		return nil
	}
	d, err := delta.ComputeDelta(prevEntry.Content, newerContent)
	if err != nil {
		return err
	}
	prev.StorageMode = StorageDelta
	compacted := storedVersion{Info: *prev, DeltaPatch: d.Patch}
	return m.saveVersionEntry(ctx, ns, resourceID, compacted)
}

// GetLatest returns the current latest version's fully materialized
// record, or VersionNotFound if resourceID has no chain under kind.
func (m *Manager) GetLatest(ctx context.Context, resourceID string, kind registry.ResourceKind) (*VersionedRecord, error) {
	ns, err := registry.NamespaceFor(kind)
	if err != nil {
		return nil, err
	}
	chain, err := m.loadChain(ctx, ns, resourceID)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, coreerrors.VersionNotFound(resourceID, "")
	}
	content, err := m.reconstructContent(ctx, ns, resourceID, chain, chain[0].Version)
	if err != nil {
		return nil, err
	}
	return m.toRecord(resourceID, kind, ns, chain[0], content, chain[0].Metadata), nil
}

// GetByVersion resolves a specific version, materializing its content via
// the snapshot+delta chain.
func (m *Manager) GetByVersion(ctx context.Context, resourceID string, kind registry.ResourceKind, version string) (*VersionedRecord, error) {
	ns, err := registry.NamespaceFor(kind)
	if err != nil {
		return nil, err
	}
	chain, err := m.loadChain(ctx, ns, resourceID)
	if err != nil {
		return nil, err
	}
	idx := infoIndex(chain, version)
	if idx == -1 {
		return nil, coreerrors.VersionNotFound(resourceID, version)
	}
	content, err := m.reconstructContent(ctx, ns, resourceID, chain, version)
	if err != nil {
		return nil, err
	}
	return m.toRecord(resourceID, kind, ns, chain[idx], content, chain[idx].Metadata), nil
}

// ListVersions returns every version's summary, newest-first.
func (m *Manager) ListVersions(ctx context.Context, resourceID string, kind registry.ResourceKind) ([]VersionSummary, error) {
	ns, err := registry.NamespaceFor(kind)
	if err != nil {
		return nil, err
	}
	chain, err := m.loadChain(ctx, ns, resourceID)
	if err != nil {
		return nil, err
	}
	out := make([]VersionSummary, 0, len(chain))
	for _, info := range chain {
		out = append(out, VersionSummary{Version: info.Version, CreatedAt: info.CreatedAt, IsLatest: info.IsLatest, StorageMode: info.StorageMode, DataHash: info.DataHash})
	}
	return out, nil
}

// DeleteVersion removes one version from the chain, stitching the
// surrounding supersedes/superseded_by pointers and promoting the
// predecessor to latest if the removed version was latest. A neighbor
// stored as a delta against the removed version is rewritten as a full
// snapshot first so the rest of the chain stays reconstructable.
func (m *Manager) DeleteVersion(ctx context.Context, resourceID string, kind registry.ResourceKind, version string) (bool, error) {
	ns, err := registry.NamespaceFor(kind)
	if err != nil {
		return false, err
	}

	lock := m.resourceLock(resourceID, kind)
	lock.Lock()
	defer lock.Unlock()

	chain, err := m.loadChain(ctx, ns, resourceID)
	if err != nil {
		return false, err
	}
	idx := infoIndex(chain, version)
	if idx == -1 {
		return false, nil
	}
	removed := chain[idx]

	if idx > 0 {
		chain[idx-1].Supersedes = removed.Supersedes
	}
	if idx < len(chain)-1 {
		chain[idx+1].SupersededBy = removed.SupersededBy
		if removed.IsLatest {
			chain[idx+1].IsLatest = true
		}
		// The next-older version's delta reconstructs against the removed
		// version's content. Re-materialize it as a full snapshot while
		// that content is still reachable, or every older version between
		// it and the next snapshot becomes unreconstructable.
		if chain[idx+1].StorageMode == StorageDelta {
			content, err := m.reconstructContent(ctx, ns, resourceID, chain, chain[idx+1].Version)
			if err != nil {
				return false, err
			}
			chain[idx+1].StorageMode = StorageSnapshot
			if err := m.saveVersionEntry(ctx, ns, resourceID, storedVersion{Info: chain[idx+1], Content: content}); err != nil {
				return false, err
			}
		}
	}
	chain = append(chain[:idx], chain[idx+1:]...)

	if err := m.saveChain(ctx, ns, resourceID, chain); err != nil {
		return false, err
	}
	m.deleteVersionEntry(ctx, ns, resourceID, version)
	return true, nil
}

// Rollback materializes targetVersion and re-saves it as a new,
// forced-snapshot latest version, preserving history rather than
// mutating it.
func (m *Manager) Rollback(ctx context.Context, resourceID string, kind registry.ResourceKind, targetVersion string) (*VersionedRecord, error) {
	target, err := m.GetByVersion(ctx, resourceID, kind, targetVersion)
	if err != nil {
		return nil, err
	}
	cfg := coreconfig.VersionConfig{ForceRebuild: true, IncrementVersion: true, UseCache: true, Metadata: map[string]string{"rollback_from": targetVersion}}
	return m.Save(ctx, resourceID, kind, target.ContentInline, cfg, cfg.Metadata, target.VersionInfo.Dependencies)
}

func (m *Manager) resolveNextVersion(chain []VersionInfo, cfg coreconfig.VersionConfig, resourceID string) (string, error) {
	if cfg.Version != "" {
		if infoIndex(chain, cfg.Version) != -1 {
			return "", coreerrors.ConflictingVersion(resourceID, cfg.Version)
		}
		return cfg.Version, nil
	}
	if cfg.IncrementVersion && len(chain) > 0 {
		return bumpPatch(chain[0].Version)
	}
	return "1.0.0", nil
}

func bumpPatch(v string) (string, error) {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return "", coreerrors.New(coreerrors.ErrCodeConflictingVersion, "malformed semver in chain", nil).WithDetail("version", v)
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", coreerrors.New(coreerrors.ErrCodeConflictingVersion, "malformed semver patch component", err).WithDetail("version", v)
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1), nil
}

func findByHash(chain []VersionInfo, hash string) (VersionInfo, bool) {
	for _, info := range chain {
		if info.DataHash == hash {
			return info, true
		}
	}
	return VersionInfo{}, false
}

func infoIndex(chain []VersionInfo, version string) int {
	for i, info := range chain {
		if info.Version == version {
			return i
		}
	}
	return -1
}

func (m *Manager) toRecord(resourceID string, kind registry.ResourceKind, ns coreconfig.Namespace, info VersionInfo, content map[string]any, metadata map[string]string) *VersionedRecord {
	return &VersionedRecord{
		ResourceID:    resourceID,
		Kind:          kind,
		Namespace:     ns,
		VersionInfo:   info,
		ContentInline: content,
		Metadata:      metadata,
		CreatedAt:     info.CreatedAt,
		UpdatedAt:     time.Now(),
	}
}

func (m *Manager) logWarn(msg, resourceID, version string, err error) {
	if m.log == nil {
		return
	}
	m.log.Warn(msg, "resource_id", resourceID, "version", version, "error", err)
}
