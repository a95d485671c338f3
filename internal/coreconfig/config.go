package coreconfig

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DeltaConfig drives the snapshot/delta chain policy of the delta engine.
type DeltaConfig struct {
	SnapshotInterval int  `yaml:"snapshot_interval" json:"snapshot_interval"`
	MaxChainLength   int  `yaml:"max_chain_length" json:"max_chain_length"`
	Enabled          bool `yaml:"enabled" json:"enabled"`
}

// DefaultDeltaConfig returns the built-in snapshot/chain policy.
func DefaultDeltaConfig() DeltaConfig {
	return DeltaConfig{SnapshotInterval: 10, MaxChainLength: 50, Enabled: true}
}

// DiskConfig drives the L2 disk backend.
type DiskConfig struct {
	SizeLimitBytes int64  `yaml:"size_limit_bytes" json:"size_limit_bytes"`
	Eviction       string `yaml:"eviction" json:"eviction"`
	TagIndex       bool   `yaml:"tag_index" json:"tag_index"`
	Path           string `yaml:"path" json:"path"`
}

const giB = 1 << 30

// DefaultDiskConfig returns the built-in disk policy: 10 GiB, LRU, tag index on.
func DefaultDiskConfig() DiskConfig {
	return DiskConfig{SizeLimitBytes: 10 * giB, Eviction: "lru", TagIndex: true, Path: "dictcore.db"}
}

// VersionConfig controls a single version-manager save call.
type VersionConfig struct {
	Version           string            `json:"version,omitempty"`
	IncrementVersion  bool              `json:"increment_version"`
	ForceRebuild      bool              `json:"force_rebuild"`
	UseCache          bool              `json:"use_cache"`
	CrossKindDedup    bool              `json:"cross_kind_dedup"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// DefaultVersionConfig is the save() default: dedup within kind, cache
// write-through on, no forced rebuild.
func DefaultVersionConfig() VersionConfig {
	return VersionConfig{IncrementVersion: true, UseCache: true}
}

// Config is the top-level configuration object, layered from defaults,
// then a YAML file, then environment variables (highest priority).
type Config struct {
	Namespaces map[Namespace]NamespaceConfig `yaml:"namespaces" json:"namespaces"`
	Delta      DeltaConfig                   `yaml:"delta" json:"delta"`
	Disk       DiskConfig                    `yaml:"disk" json:"disk"`
}

// Default returns the full default configuration.
func Default() Config {
	return Config{
		Namespaces: DefaultNamespaceTable(),
		Delta:      DefaultDeltaConfig(),
		Disk:       DefaultDiskConfig(),
	}
}

// Load reads a YAML file over the defaults, then applies environment
// variable overrides (DICTCORE_DISK_SIZE_LIMIT_BYTES, DICTCORE_DISK_PATH,
// DICTCORE_DELTA_MAX_CHAIN_LENGTH).
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyEnv(cfg), nil
			}
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if v := os.Getenv("DICTCORE_DISK_SIZE_LIMIT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Disk.SizeLimitBytes = n
		}
	}
	if v := os.Getenv("DICTCORE_DISK_PATH"); v != "" {
		cfg.Disk.Path = v
	}
	if v := os.Getenv("DICTCORE_DELTA_MAX_CHAIN_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Delta.MaxChainLength = n
		}
	}
	return cfg
}

// NamespaceConfigFor resolves a namespace to its config. The bool result
// lets the cache facade produce coreerrors.UnknownNamespace itself.
func (c Config) NamespaceConfigFor(ns Namespace) (NamespaceConfig, bool) {
	nc, ok := c.Namespaces[ns]
	return nc, ok
}
