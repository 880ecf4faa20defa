package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	// Note: Init uses sync.Once, so it can only be called once per test run.
	// We test the behavior after initialization.
	Init()

	assert.NotNil(t, operationsTotal)
	assert.NotNil(t, decryptFailuresTotal)
	assert.NotNil(t, operationDuration)
}

func TestRecordOperation(t *testing.T) {
	Init()

	RecordOperation("put", nil)
	RecordOperation("get", errors.New("boom"))

	// Verify no panic and counter exists
	assert.NotNil(t, operationsTotal)
}

func TestRecordDecryptFailure(t *testing.T) {
	Init()

	RecordDecryptFailure("integrity")
	RecordDecryptFailure("context")

	assert.NotNil(t, decryptFailuresTotal)
}

func TestObserveOperation(t *testing.T) {
	Init()

	ObserveOperation("list", time.Now().Add(-50*time.Millisecond))

	assert.NotNil(t, operationDuration)
}

func TestDefaultServerConfig(t *testing.T) {
	t.Parallel()

	config := DefaultServerConfig()

	assert.False(t, config.Enabled)
	assert.Equal(t, 9090, config.Port)
	assert.Equal(t, "/metrics", config.Path)
	assert.Equal(t, 5*time.Second, config.ReadTimeout)
	assert.Equal(t, 10*time.Second, config.WriteTimeout)
}

func TestServer_StartDisabled(t *testing.T) {
	t.Parallel()

	server := NewServer(DefaultServerConfig())

	err := server.Start()
	assert.NoError(t, err)
	assert.Empty(t, server.Addr())
}

func TestServer_ExposesRecordedMetrics(t *testing.T) {
	Init()
	RecordOperation("put", nil)
	RecordDecryptFailure("integrity")

	config := DefaultServerConfig()
	config.Enabled = true
	config.Port = 19095 // Use high port to avoid conflicts

	server := NewServer(config)

	err := server.Start()
	require.NoError(t, err)

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:19095/metrics")
	if err != nil {
		// Port might be in use, skip test
		t.Skipf("skipping test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	bodyStr := string(body)
	assert.Contains(t, bodyStr, "credstore_operations_total")
	assert.Contains(t, bodyStr, "credstore_decrypt_failures_total")
	assert.True(t, strings.Contains(bodyStr, `operation="put"`),
		"expected the recorded put operation in the scrape output")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Stop(ctx)
	assert.NoError(t, err)
}

func TestServer_HealthEndpoint(t *testing.T) {
	config := DefaultServerConfig()
	config.Enabled = true
	config.Port = 19096

	server := NewServer(config)

	err := server.Start()
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:19096/health")
	if err != nil {
		t.Skipf("skipping test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Stop(ctx)
	assert.NoError(t, err)
}
