package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dictcore/dictcore/internal/cache"
	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/corework"
	"github.com/dictcore/dictcore/internal/delta"
	"github.com/dictcore/dictcore/internal/diskstore"
	"github.com/dictcore/dictcore/internal/memcache"
	"github.com/dictcore/dictcore/internal/registry"
	"github.com/dictcore/dictcore/internal/version"
)

func newTestServer(t *testing.T) (*chi.Mux, *version.Manager) {
	t.Helper()
	table := coreconfig.DefaultNamespaceTable()
	l1 := memcache.New(table)
	dir := t.TempDir()
	pool := corework.New(4)
	l2, err := diskstore.Open(context.Background(), dir, "test.db", 0, pool)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l2.Close() })

	encode := func(v any) ([]byte, error) { return json.Marshal(v) }
	decode := func(data []byte) (any, error) {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	tc := cache.New(l1, l2, table, slog.Default(), encode, decode)
	mgr := version.New(tc, delta.DefaultPolicy(), slog.Default())

	srv := NewServer(mgr, registry.KindDictionary)
	r := chi.NewRouter()
	srv.Routes(r)
	return r, mgr
}

func TestListVersionsEndpoint(t *testing.T) {
	r, mgr := newTestServer(t)
	ctx := context.Background()
	_, err := mgr.Save(ctx, "run", registry.KindDictionary, map[string]any{"pos": "verb"}, coreconfig.DefaultVersionConfig(), nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/run/versions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var versions []version.VersionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &versions))
	require.Len(t, versions, 1)
}

func TestGetVersionEndpointNotFound(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/missing/versions/1.0.0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRollbackEndpointMissingVersionParam(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/run/rollback", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRollbackEndpointCreatesNewVersion(t *testing.T) {
	r, mgr := newTestServer(t)
	ctx := context.Background()
	cfg := coreconfig.DefaultVersionConfig()
	_, err := mgr.Save(ctx, "run", registry.KindDictionary, map[string]any{"pos": "verb"}, cfg, nil, nil)
	require.NoError(t, err)
	_, err = mgr.Save(ctx, "run", registry.KindDictionary, map[string]any{"pos": "noun"}, cfg, nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/run/rollback?version=1.0.0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var record version.VersionedRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	require.Equal(t, "1.0.2", record.VersionInfo.Version)
	require.Equal(t, "verb", record.ContentInline["pos"])
}

func TestDiffEndpointMissingParams(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/run/diff", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDiffEndpointReturnsChanges(t *testing.T) {
	r, mgr := newTestServer(t)
	ctx := context.Background()
	cfg := coreconfig.DefaultVersionConfig()
	_, err := mgr.Save(ctx, "run", registry.KindDictionary, map[string]any{"pos": "verb"}, cfg, nil, nil)
	require.NoError(t, err)
	_, err = mgr.Save(ctx, "run", registry.KindDictionary, map[string]any{"pos": "noun"}, cfg, nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/run/diff?from=1.0.0&to=1.0.1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var changes []delta.Change
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &changes))
	require.NotEmpty(t, changes)
}
