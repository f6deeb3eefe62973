package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/logiroute/internal/config"
)

func testConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	cfg, err := config.FromEnv(func(k string) string { return env[k] })
	require.NoError(t, err)
	return cfg
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger
}

func TestLoadState_Default(t *testing.T) {
	s, err := loadState("")
	require.NoError(t, err)
	assert.Len(t, s.Vehicles, 3)
}

func TestLoadState_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
locations:
  - {id: w, name: Depot, kind: warehouse, lat: 1, lon: 1}
vehicles:
  - {id: truck, warehouse_id: w, fuel_capacity: 100, current_fuel: 50, status: available}
deliveries: []
`), 0o600))

	s, err := loadState(path)
	require.NoError(t, err)
	require.Len(t, s.Vehicles, 1)
	assert.Equal(t, "truck", s.Vehicles[0].ID)

	_, err = loadState(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewServer_OpenAPI(t *testing.T) {
	srv, err := newServer(context.Background(), testConfig(t, nil), quietLogger())
	require.NoError(t, err)
	defer srv.close()

	assert.Equal(t, ":8080", srv.http.Addr)

	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/vehicles/available", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var vehicles []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vehicles))
	assert.Len(t, vehicles, 2)

	// auth routes are not mounted without a user store
	w = httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/auth/login", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewServer_BadFixture(t *testing.T) {
	cfg := testConfig(t, map[string]string{"FIXTURE_PATH": filepath.Join(t.TempDir(), "missing.yaml")})
	_, err := newServer(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestNewServer_UnreachableBroker(t *testing.T) {
	cfg := testConfig(t, map[string]string{"MQTT_BROKER": "tcp://127.0.0.1:1"})
	_, err := newServer(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

