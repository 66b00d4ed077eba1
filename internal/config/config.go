package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/simevents/pkg/adapters/memory"
	"github.com/aretw0/simevents/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Source backends.
const (
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendWebsocket = "websocket"
)

// Runner output formats.
const (
	OutputJSON = "json"
	OutputText = "text"
	OutputNone = "none"
)

// Config is the simevents command configuration.
type Config struct {
	Block  BlockConfig  `mapstructure:"block"`
	Source SourceConfig `mapstructure:"source"`
	Runner RunnerConfig `mapstructure:"runner"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Log    LogConfig    `mapstructure:"log"`
}

// BlockConfig holds the engine parameters and registry settings of the block.
type BlockConfig struct {
	ID                 string `mapstructure:"id"`
	ConfigurationIndex int    `mapstructure:"configuration_index"`
	ConnectionName     string `mapstructure:"connection_name"`
	Group              uint32 `mapstructure:"group"`
	Priority           uint32 `mapstructure:"priority"`
}

// SourceConfig selects and configures the event source.
type SourceConfig struct {
	Backend   string          `mapstructure:"backend"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
}

// RedisConfig configures the Redis Streams source.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// WebsocketConfig configures the websocket bridge source.
type WebsocketConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RunnerConfig configures the standalone step loop.
type RunnerConfig struct {
	Period      time.Duration `mapstructure:"period"`
	MaxSteps    uint64        `mapstructure:"max_steps"`
	Output      string        `mapstructure:"output"`
	ChangesOnly bool          `mapstructure:"changes_only"`
}

// HTTPConfig configures the status surface. An empty Listen disables it.
type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Block: BlockConfig{
			ConnectionName: "simevents",
			Group:          uint32(domain.DefaultGroup),
			Priority:       uint32(domain.PriorityHighestMaskable),
		},
		Source: SourceConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Address: "localhost:6379",
				Prefix:  "simevents:",
			},
			Websocket: WebsocketConfig{
				URL:     "ws://localhost:8765/ws",
				Timeout: 5 * time.Second,
			},
		},
		Runner: RunnerConfig{
			Period: 100 * time.Millisecond,
			Output: OutputJSON,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML or JSON file (by extension) over the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := Decode(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Decode applies a generic map onto cfg. Durations accept strings such as "50ms".
// Unknown keys are rejected.
func Decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error
	if c.Block.ConnectionName == "" {
		errs = multierr.Append(errs, &domain.ParameterError{
			Name:   domain.ParamConnectionName,
			Reason: "must not be empty",
		})
	}
	if c.Block.ConfigurationIndex < 0 {
		errs = multierr.Append(errs, &domain.ParameterError{
			Name:   domain.ParamConfigurationIndex,
			Reason: "must not be negative",
			Value:  c.Block.ConfigurationIndex,
		})
	}
	switch c.Source.Backend {
	case BackendMemory, BackendRedis, BackendWebsocket:
	default:
		errs = multierr.Append(errs, fmt.Errorf("%w: unknown source backend %q", domain.ErrConfiguration, c.Source.Backend))
	}
	if c.Runner.Period <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: runner period must be positive", domain.ErrConfiguration))
	}
	switch c.Runner.Output {
	case OutputJSON, OutputText, OutputNone:
	default:
		errs = multierr.Append(errs, fmt.Errorf("%w: unknown runner output %q", domain.ErrConfiguration, c.Runner.Output))
	}
	return errs
}

// Params returns the block's engine parameters as a parameter store.
func (c *Config) Params() memory.Params {
	return memory.Params{
		domain.ParamConfigurationIndex: c.Block.ConfigurationIndex,
		domain.ParamConnectionName:     c.Block.ConnectionName,
	}
}
