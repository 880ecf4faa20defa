package logging_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/credstore/internal/logging"
)

// captureStderr captures stderr output for testing
func captureStderr(fn func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// TestLogLevels verifies each level carries its prefix
func TestLogLevels(t *testing.T) {
	// Note: cannot use t.Parallel() because captureStderr() modifies global os.Stderr

	logger := logging.New(false, true)

	output := captureStderr(func() {
		logger.Info("stored %s", "db-password")
		logger.Warn("table nearly at capacity")
		logger.Error("decryption failed")
	})

	assert.Contains(t, output, "✓ stored db-password")
	assert.Contains(t, output, "⚠ table nearly at capacity")
	assert.Contains(t, output, "✗ decryption failed")
}

// TestDebugSuppressedByDefault verifies debug output needs opting in
func TestDebugSuppressedByDefault(t *testing.T) {
	quiet := logging.New(false, true)
	verbose := logging.New(true, true)

	output := captureStderr(func() {
		quiet.Debug("hidden")
		verbose.Debug("shown")
	})

	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "[DEBUG] shown")
}

// TestNoColorStripsEscapes verifies plain output for non-terminal consumers
func TestNoColorStripsEscapes(t *testing.T) {
	logger := logging.New(false, true)

	output := captureStderr(func() {
		logger.Info("plain")
	})

	assert.False(t, strings.Contains(output, "\033["), "expected no ANSI escapes, got %q", output)
}

// TestSecretRedaction verifies Secret values never reach the output
func TestSecretRedaction(t *testing.T) {
	logger := logging.New(true, true)

	secretValue := "super-secret-password-12345"
	secret := logging.Secret(secretValue)

	output := captureStderr(func() {
		logger.Info("retrieved value: %s", secret)
		logger.Debug("raw: %v, go: %#v", secret, secret)
	})

	assert.NotContains(t, output, secretValue)
	assert.Contains(t, output, "[REDACTED]")

	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", secret))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", secret))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", secret))
}
