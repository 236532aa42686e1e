package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

func testConfig() types.ServerConfig {
	return types.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ShutdownTimeout: time.Second,
		CORS: types.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		},
	}
}

func TestRoutes(t *testing.T) {
	src, err := sources.NewLocalSource(t.TempDir())
	require.NoError(t, err)
	s := NewServer(testConfig(), src)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/outputs/filter",
		strings.NewReader(`{"filenames":["hazard_uhs-mean_0.csv"],"mode":"psha","query":{"seed":[0]}}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hazard_uhs-mean_0.csv")
}

func TestAuthToken(t *testing.T) {
	cfg := testConfig()
	cfg.AuthToken = "token"
	s := NewServer(cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/outputs/parse?filename=hazard_uhs-mean_0.csv", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer token")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := NewServer(testConfig(), nil)
	assert.Equal(t, "127.0.0.1:0", s.Addr())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	url := fmt.Sprintf("http://%s/api/v1/health", lis.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(body), "ok")
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
