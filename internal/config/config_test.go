package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Source.Backend)
	assert.Equal(t, 100*time.Millisecond, cfg.Runner.Period)
	assert.Equal(t, uint32(domain.PriorityHighestMaskable), cfg.Block.Priority)
	assert.Equal(t, "simevents", cfg.Params()[domain.ParamConnectionName])
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "simevents.yaml", `
block:
  connection_name: autopilot
  configuration_index: 2
source:
  backend: redis
  redis:
    address: redis:6379
    db: 1
runner:
  period: 50ms
  max_steps: 10
  output: text
http:
  listen: ":8080"
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "autopilot", cfg.Block.ConnectionName)
	assert.Equal(t, 2, cfg.Block.ConfigurationIndex)
	assert.Equal(t, BackendRedis, cfg.Source.Backend)
	assert.Equal(t, "redis:6379", cfg.Source.Redis.Address)
	assert.Equal(t, 1, cfg.Source.Redis.DB)
	assert.Equal(t, "simevents:", cfg.Source.Redis.Prefix, "unset keys keep their defaults")
	assert.Equal(t, 50*time.Millisecond, cfg.Runner.Period)
	assert.Equal(t, uint64(10), cfg.Runner.MaxSteps)
	assert.Equal(t, OutputText, cfg.Runner.Output)
	assert.Equal(t, ":8080", cfg.HTTP.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "simevents.json", `{
		"block": {"connection_name": "json-block"},
		"source": {"backend": "websocket", "websocket": {"url": "ws://sim:9000/ws", "timeout": "2s"}}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json-block", cfg.Block.ConnectionName)
	assert.Equal(t, BackendWebsocket, cfg.Source.Backend)
	assert.Equal(t, "ws://sim:9000/ws", cfg.Source.Websocket.URL)
	assert.Equal(t, 2*time.Second, cfg.Source.Websocket.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "block: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("Unknown Key", func(t *testing.T) {
		_, err := Load(writeFile(t, "typo.yaml", "runner:\n  perod: 1s\n"))
		assert.ErrorContains(t, err, "perod")
	})

	t.Run("Aggregated Validation", func(t *testing.T) {
		_, err := Load(writeFile(t, "invalid.yaml", `
block:
  connection_name: ""
source:
  backend: carrier-pigeon
runner:
  output: xml
`))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Len(t, multierr.Errors(err), 3)
	})
}
