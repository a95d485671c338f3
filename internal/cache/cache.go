// Package cache implements the two-tier cache facade: cascade read (L1 → L2 → loader), write-through, promotion, and
// namespace/global invalidation, composed directly over memcache and
// diskstore.
package cache

import (
	"context"
	"log/slog"

	"github.com/dictcore/dictcore/internal/compress"
	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/dictcore/dictcore/internal/diskstore"
	"github.com/dictcore/dictcore/internal/memcache"
)

// Loader is invoked on an L2 miss to produce a value. Loader failures are
// swallowed into (nil, nil) and never corrupt cached state.
type Loader func(ctx context.Context) (any, error)

// Encoder/Decoder let callers control how a value round-trips through L2's
// byte-oriented storage; the two-tier cache only knows how to compress,
// not how to marshal domain objects.
type Encoder func(value any) ([]byte, error)
type Decoder func(data []byte) (any, error)

// TwoTier is the cache facade every producer and consumer in the system
// uses uniformly.
type TwoTier struct {
	l1      *memcache.L1
	l2      *diskstore.Store
	table   map[coreconfig.Namespace]coreconfig.NamespaceConfig
	log     *slog.Logger
	encode  Encoder
	decode  Decoder
}

// New wires an L1+L2 pair behind the facade. encode/decode are typically
// codec.Canonicalize + a JSON decode, supplied by the caller so cache
// stays agnostic of the domain payload shape.
func New(l1 *memcache.L1, l2 *diskstore.Store, table map[coreconfig.Namespace]coreconfig.NamespaceConfig, log *slog.Logger, encode Encoder, decode Decoder) *TwoTier {
	return &TwoTier{l1: l1, l2: l2, table: table, log: log, encode: encode, decode: decode}
}

func (c *TwoTier) namespaceConfig(ns coreconfig.Namespace) (coreconfig.NamespaceConfig, error) {
	cfg, ok := c.table[ns]
	if !ok {
		return coreconfig.NamespaceConfig{}, coreerrors.UnknownNamespace(string(ns))
	}
	return cfg, nil
}

// Get cascades L1 → L2 → loader, promoting L2 hits into L1 and
// writing loader results through both tiers.
func (c *TwoTier) Get(ctx context.Context, ns coreconfig.Namespace, key string, loader Loader) (any, error) {
	if _, err := c.namespaceConfig(ns); err != nil {
		return nil, err
	}

	if v, ok := c.l1.Get(ns, key); ok {
		return v, nil
	}

	raw, codec, ok, err := c.l2.Get(ctx, string(ns), key)
	if err != nil {
		c.logWarn("l2 get failed", ns, key, err)
	} else if ok {
		// Decode with the codec the row was written with, not the
		// namespace's configured algorithm: the size bands on the write
		// path may have picked a different one.
		comp := compress.New(coreconfig.Compression(codec))
		plain, derr := comp.Decode(raw)
		if derr != nil {
			c.logWarn("l2 decode failed", ns, key, derr)
		} else {
			value, derr := c.decode(plain)
			if derr == nil {
				c.l1.Set(ns, key, value)
				return value, nil
			}
			c.logWarn("value decode failed", ns, key, derr)
		}
	}

	if loader == nil {
		return nil, nil
	}

	value, err := loader(ctx)
	if err != nil {
		// Loader failures never propagate or corrupt cached state.
		c.logWarn("loader failed", ns, key, err)
		return nil, nil
	}
	if value == nil {
		return nil, nil
	}
	if err := c.Set(ctx, ns, key, value, nil); err != nil {
		c.logWarn("write-through after load failed", ns, key, err)
	}
	return value, nil
}

// Set evicts-until-under-limit in L1 synchronously, then persists to L2.
// An L2 write failure is surfaced only through the returned error; L1
// retains the value regardless.
func (c *TwoTier) Set(ctx context.Context, ns coreconfig.Namespace, key string, value any, ttlOverride *coreconfig.NamespaceConfig) error {
	cfg, err := c.namespaceConfig(ns)
	if err != nil {
		return err
	}
	c.l1.Set(ns, key, value)

	plain, err := c.encode(value)
	if err != nil {
		return coreerrors.EncodeError("cache-value")
	}
	comp := compress.ForSize(cfg.Compression, len(plain))
	encoded, err := comp.Encode(plain)
	if err != nil {
		c.logWarn("l2 encode failed, value remains L1-only", ns, key, err)
		return err
	}
	ttl := cfg.DiskTTL
	if ttlOverride != nil && ttlOverride.DiskTTL != nil {
		ttl = ttlOverride.DiskTTL
	}
	if err := c.l2.Set(ctx, string(ns), key, encoded, string(comp.Name()), ttl); err != nil {
		c.logWarn("l2 set failed, L1 retains value", ns, key, err)
		return err
	}
	return nil
}

// Delete removes the key from both tiers.
func (c *TwoTier) Delete(ctx context.Context, ns coreconfig.Namespace, key string) (bool, error) {
	if _, err := c.namespaceConfig(ns); err != nil {
		return false, err
	}
	l1Deleted := c.l1.Delete(ns, key)
	l2Deleted, err := c.l2.Delete(ctx, string(ns), key)
	if err != nil {
		return l1Deleted, err
	}
	return l1Deleted || l2Deleted, nil
}

// ClearNamespace empties both tiers for one namespace.
func (c *TwoTier) ClearNamespace(ctx context.Context, ns coreconfig.Namespace) error {
	if _, err := c.namespaceConfig(ns); err != nil {
		return err
	}
	c.l1.ClearNamespace(ns)
	return c.l2.ClearPattern(ctx, string(ns))
}

// ClearAll empties every namespace in both tiers.
func (c *TwoTier) ClearAll(ctx context.Context) error {
	c.l1.ClearAll()
	return c.l2.ClearAll(ctx)
}

// CleanupExpiredEntries scans all L1 namespaces and evicts expired
// entries, returning the total evicted. Safe to call concurrently with
// other operations.
func (c *TwoTier) CleanupExpiredEntries() int {
	return c.l1.CleanupExpiredEntries()
}

// Stats aggregates L1 stats and L2 stats for a namespace (or, with ns=="",
// the disk backend's global stats only).
type Stats struct {
	L1         memcache.Stats
	L1Size     int
	L2         diskstore.Stats
}

func (c *TwoTier) GetStats(ctx context.Context, ns coreconfig.Namespace) (Stats, error) {
	l2stats, err := c.l2.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	if ns == "" {
		return Stats{L2: l2stats}, nil
	}
	return Stats{L1: c.l1.Stats(ns), L1Size: c.l1.Len(ns), L2: l2stats}, nil
}

func (c *TwoTier) logWarn(msg string, ns coreconfig.Namespace, key string, err error) {
	if c.log == nil {
		return
	}
	c.log.Warn(msg, "namespace", string(ns), "key", key, "error", err)
}
