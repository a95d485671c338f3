// Package diskstore implements the L2 disk backend: a content-addressed,
// size-bounded store with LRU eviction, TTL, and a tag index for bulk
// removal, built on modernc.org/sqlite (pure Go, no CGO).
package diskstore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dictcore/dictcore/internal/coreerrors"
	"github.com/dictcore/dictcore/internal/corework"
	"github.com/dictcore/dictcore/internal/procfence"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	namespace    TEXT NOT NULL,
	key          TEXT NOT NULL,
	value        BLOB NOT NULL,
	codec        TEXT NOT NULL DEFAULT '',
	tag          TEXT NOT NULL,
	size_bytes   INTEGER NOT NULL,
	expires_at   INTEGER,
	accessed_at  INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
);
CREATE INDEX IF NOT EXISTS idx_kv_tag_accessed ON kv(tag, accessed_at);
CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at);
`

// Stats reports the backend's current size, configured limit, and the
// (fixed) eviction policy name.
type Stats struct {
	SizeBytes      int64
	SizeLimitBytes int64
	Eviction       string
}

// Store is the content-addressed on-disk backend.
type Store struct {
	db       *sql.DB
	dir      string
	fence    *procfence.Fence
	pool     *corework.Pool
	limit    int64

	// keyLocks stripes per-key serialization so concurrent reads to
	// different keys proceed in parallel while same-key access is ordered.
	keyLocksMu sync.Mutex
	keyLocks   map[string]*sync.Mutex

	reinitOnce sync.Mutex
}

// Open creates/opens the backend at dir/filename, acquiring the
// cross-process fence before touching the database file.
func Open(ctx context.Context, dir, filename string, sizeLimitBytes int64, pool *corework.Pool) (*Store, error) {
	fence := procfence.New(dir)
	if err := fence.Acquire(); err != nil {
		return nil, coreerrors.BackendError("open", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, filename)+"?_pragma=journal_mode(WAL)")
	if err != nil {
		_ = fence.Release()
		return nil, coreerrors.BackendError("open", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = fence.Release()
		return nil, coreerrors.BackendError("migrate", err)
	}

	return &Store{
		db:       db,
		dir:      dir,
		fence:    fence,
		pool:     pool,
		limit:    sizeLimitBytes,
		keyLocks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) lockFor(composite string) *sync.Mutex {
	s.keyLocksMu.Lock()
	defer s.keyLocksMu.Unlock()
	m, ok := s.keyLocks[composite]
	if !ok {
		m = &sync.Mutex{}
		s.keyLocks[composite] = m
	}
	return m
}

func compositeKey(namespace, key string) string {
	return namespace + ":" + key
}

// Get returns the stored bytes and the codec they were written with for
// namespace:key, or ok=false on miss or expiry. Blocking I/O runs on the
// bounded pool.
func (s *Store) Get(ctx context.Context, namespace, key string) (value []byte, codec string, ok bool, err error) {
	composite := compositeKey(namespace, key)
	lock := s.lockFor(composite)
	lock.Lock()
	defer lock.Unlock()

	var expiresAt sql.NullInt64
	err = s.runOp(ctx, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `SELECT value, codec, expires_at FROM kv WHERE namespace=? AND key=?`, namespace, key)
		return row.Scan(&value, &codec, &expiresAt)
	})
	if err == sql.ErrNoRows {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	if expiresAt.Valid && time.Now().Unix() > expiresAt.Int64 {
		_, _ = s.deleteLocked(ctx, namespace, key)
		return nil, "", false, nil
	}
	_ = s.runOp(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `UPDATE kv SET accessed_at=? WHERE namespace=? AND key=?`, time.Now().Unix(), namespace, key)
		return err
	})
	return value, codec, true, nil
}

// Set stores value under namespace:key with an optional TTL, recording the
// codec the payload was encoded with so reads decode with the same one,
// then enforces the size-bounded LRU policy.
func (s *Store) Set(ctx context.Context, namespace, key string, value []byte, codec string, ttl *time.Duration) error {
	composite := compositeKey(namespace, key)
	lock := s.lockFor(composite)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	var expiresAt sql.NullInt64
	if ttl != nil {
		expiresAt = sql.NullInt64{Int64: now.Add(*ttl).Unix(), Valid: true}
	}
	err := s.runOp(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO kv(namespace,key,value,codec,tag,size_bytes,expires_at,accessed_at)
			 VALUES(?,?,?,?,?,?,?,?)
			 ON CONFLICT(namespace,key) DO UPDATE SET value=excluded.value, codec=excluded.codec,
			   size_bytes=excluded.size_bytes, expires_at=excluded.expires_at, accessed_at=excluded.accessed_at`,
			namespace, key, value, codec, namespace, len(value), expiresAt, now.Unix())
		return err
	})
	if err != nil {
		return err
	}
	return s.evictUntilUnderLimit(ctx)
}

// Delete removes namespace:key, reporting whether a row existed.
func (s *Store) Delete(ctx context.Context, namespace, key string) (bool, error) {
	composite := compositeKey(namespace, key)
	lock := s.lockFor(composite)
	lock.Lock()
	defer lock.Unlock()
	return s.deleteLocked(ctx, namespace, key)
}

func (s *Store) deleteLocked(ctx context.Context, namespace, key string) (bool, error) {
	var affected int64
	err := s.runOp(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE namespace=? AND key=?`, namespace, key)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected > 0, err
}

// ClearPattern removes every key whose namespace equals tag. The tag
// index doubles as the namespace prefix in this schema, since each
// entry's primary tag IS its namespace.
func (s *Store) ClearPattern(ctx context.Context, tag string) error {
	return s.runOp(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE tag=?`, tag)
		return err
	})
}

// ClearAll truncates the entire backend.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.runOp(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM kv`)
		return err
	})
}

// Stats reports current total size, limit, and the fixed LRU policy name.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var total sql.NullInt64
	err := s.runOp(ctx, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `SELECT SUM(size_bytes) FROM kv`)
		return row.Scan(&total)
	})
	if err != nil {
		return Stats{}, err
	}
	return Stats{SizeBytes: total.Int64, SizeLimitBytes: s.limit, Eviction: "lru"}, nil
}

// evictUntilUnderLimit removes the least-recently-accessed rows until
// total size is back under the configured limit.
func (s *Store) evictUntilUnderLimit(ctx context.Context) error {
	if s.limit <= 0 {
		return nil
	}
	return s.runOp(ctx, func(ctx context.Context) error {
		for {
			var total sql.NullInt64
			if err := s.db.QueryRowContext(ctx, `SELECT SUM(size_bytes) FROM kv`).Scan(&total); err != nil {
				return err
			}
			if total.Int64 <= s.limit {
				return nil
			}
			res, err := s.db.ExecContext(ctx,
				`DELETE FROM kv WHERE rowid = (SELECT rowid FROM kv ORDER BY accessed_at ASC LIMIT 1)`)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
		}
	})
}

// runOp dispatches fn through the bounded worker pool. A recoverable
// corruption error (a locked, missing or malformed table) triggers exactly
// one recovery attempt: the process fence is re-acquired, the schema is
// re-applied on the existing handle, and fn is retried once. A failed
// retry surfaces as coreerrors.Corruption; any other error surfaces as
// coreerrors.BackendError.
func (s *Store) runOp(ctx context.Context, fn func(ctx context.Context) error) error {
	var firstErr error
	_ = s.pool.Run(ctx, func(ctx context.Context) error {
		firstErr = fn(ctx)
		return firstErr
	})
	if firstErr == nil || firstErr == sql.ErrNoRows {
		return firstErr
	}
	if !isRecoverable(firstErr) {
		return coreerrors.BackendError("query", firstErr)
	}
	if err := s.reinitOnceAndRetry(ctx, fn); err != nil {
		return coreerrors.Corruption("query", err)
	}
	return nil
}

func (s *Store) reinitOnceAndRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	s.reinitOnce.Lock()
	defer s.reinitOnce.Unlock()
	if err := s.fence.Reacquire(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return fn(ctx)
}

// isRecoverable classifies a small set of sqlite errors as the
// locked/missing-table recoverable-corruption case. Anything else is
// treated as a hard backend fault.
func isRecoverable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "locked") || strings.Contains(msg, "no such table") || strings.Contains(msg, "malformed")
}

// Close releases the database handle and the process fence.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close disk backend: %w", err)
	}
	return s.fence.Release()
}
