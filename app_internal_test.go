package mypet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	t.Setenv("DB_DSN", "file:"+uuid.NewString()+"?mode=memory&cache=shared")

	app, err := NewApp(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		app.close(context.Background())
	})

	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/post/create", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestNewApp_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Setenv("SESSION_STORE", SessionStoreRedis)
	t.Setenv("REDIS_ADDR", mr.Addr())

	app := newTestApp(t)
	require.NotNil(t, app.rdb)
}

func TestNewApp_UnknownSessionStore(t *testing.T) {
	t.Setenv("DB_DSN", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	t.Setenv("SESSION_STORE", "memcached")

	_, err := NewApp(context.Background())
	require.Error(t, err)
}

func TestLoadPolicyContent(t *testing.T) {
	content, err := loadPolicyContent()
	require.NoError(t, err)
	assert.Equal(t, defaultAuthorizationPolicyContent, content)

	file := filepath.Join(t.TempDir(), "policy.csv")
	require.NoError(t, os.WriteFile(file, []byte("p, a, b, c, d\n"), 0o600))

	t.Setenv("AUTHORIZATION_POLICY_FILE", file)

	content, err = loadPolicyContent()
	require.NoError(t, err)
	assert.Equal(t, "p, a, b, c, d\n", content)

	t.Setenv("AUTHORIZATION_POLICY_FILE", filepath.Join(t.TempDir(), "missing.csv"))

	_, err = loadPolicyContent()
	require.Error(t, err)
}
