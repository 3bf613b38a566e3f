package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IvanTurko/httpmediator/sdkerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MEDIATOR_TEST_VAR", "hello")

	tests := []struct {
		input    string
		expected string
	}{
		{"${MEDIATOR_TEST_VAR}", "hello"},
		{"${MEDIATOR_TEST_VAR:default}", "hello"},
		{"${MEDIATOR_MISSING:fallback}", "fallback"},
		{"${MEDIATOR_MISSING}", ""},
		{"prefix-${MEDIATOR_TEST_VAR}-suffix", "prefix-hello-suffix"},
		{"no vars here", "no vars here"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestParse(t *testing.T) {
	t.Setenv("MEDIATOR_RELAY", "ws://monitor:9000/events")

	cfg, err := Parse([]byte(`
transfer:
  emit_io: true
  chunk_size: 4096
  timeout: 5s
relay:
  url: ${MEDIATOR_RELAY}
  encoding: proto
log:
  level: debug
`))
	require.NoError(t, err)

	assert.True(t, cfg.Transfer.EmitIO)
	assert.Equal(t, 4096, cfg.Transfer.ChunkSize)
	assert.Equal(t, 5*time.Second, cfg.Transfer.Timeout)
	assert.Equal(t, "ws://monitor:9000/events", cfg.Relay.URL)
	assert.Equal(t, "proto", cfg.Relay.Encoding)
	assert.Equal(t, 300*time.Millisecond, cfg.Relay.WriteTimeout)
	assert.Equal(t, "httpmediator", cfg.Telemetry.Namespace)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParse_Errors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Parse([]byte("transfer: [unclosed"))
		assert.ErrorIs(t, err, sdkerr.ErrConfiguration)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Parse([]byte(`
transfer:
  chunk_size: 0
relay:
  url: http://nope
  encoding: xml
log:
  level: loud
`))
		require.ErrorIs(t, err, sdkerr.ErrValidation)

		var sdkErr *sdkerr.SDKError
		require.ErrorAs(t, err, &sdkErr)
		assert.Contains(t, sdkErr.Message(), "transfer.chunk_size must be positive")
		assert.Contains(t, sdkErr.Message(), "relay.url must use ws:// or wss://")
		assert.Contains(t, sdkErr.Message(), `relay.encoding "xml" must be json or proto`)
		assert.Contains(t, sdkErr.Message(), `log.level "loud" is unknown`)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(dir, "fetch.yaml")
		require.NoError(t, os.WriteFile(path, []byte("transfer:\n  emit_io: true\n"), 0o600))

		cfg, err := LoadFile(path, false)
		require.NoError(t, err)
		assert.True(t, cfg.Transfer.EmitIO)
		assert.Equal(t, 16<<10, cfg.Transfer.ChunkSize)
	})

	t.Run("missing optional file", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(dir, "absent.yaml"), true)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing required file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "absent.yaml"), false)
		assert.ErrorIs(t, err, sdkerr.ErrConfiguration)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
