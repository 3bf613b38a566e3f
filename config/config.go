package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/IvanTurko/httpmediator/sdkerr"
	"gopkg.in/yaml.v3"
)

const subsys = "config"

type Config struct {
	Transfer  TransferConfig  `yaml:"transfer"`
	Relay     RelayConfig     `yaml:"relay"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type TransferConfig struct {
	EmitIO    bool          `yaml:"emit_io"`
	ChunkSize int           `yaml:"chunk_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RelayConfig struct {
	URL          string        `yaml:"url"`
	Encoding     string        `yaml:"encoding"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type TelemetryConfig struct {
	Namespace string `yaml:"namespace"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Transfer: TransferConfig{
			ChunkSize: 16 << 10,
			Timeout:   30 * time.Second,
		},
		Relay: RelayConfig{
			Encoding:     "json",
			WriteTimeout: 300 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Namespace: "httpmediator",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []string
	if c.Transfer.ChunkSize <= 0 {
		errs = append(errs, "transfer.chunk_size must be positive")
	}
	if c.Transfer.Timeout < 0 {
		errs = append(errs, "transfer.timeout must not be negative")
	}
	switch c.Relay.Encoding {
	case "json", "proto":
	default:
		errs = append(errs, fmt.Sprintf("relay.encoding %q must be json or proto", c.Relay.Encoding))
	}
	if c.Relay.URL != "" && !strings.HasPrefix(c.Relay.URL, "ws://") && !strings.HasPrefix(c.Relay.URL, "wss://") {
		errs = append(errs, "relay.url must use ws:// or wss://")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is unknown", c.Log.Level))
	}

	if len(errs) > 0 {
		return sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp("Config.Validate").
			WithKind(sdkerr.ErrValidation).
			WithMessage(strings.Join(errs, "; "))
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:default} patterns in a string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(submatch[1]); ok {
			return val
		}
		return submatch[2]
	})
}

// Parse expands env vars in data and unmarshals it over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp("Parse").
			WithKind(sdkerr.ErrConfiguration).
			WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and parses the YAML file at path. A missing file yields the
// defaults when optional is true.
func LoadFile(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp("LoadFile").
			WithKind(sdkerr.ErrConfiguration).
			WithMessage(path).
			WithCause(err)
	}
	return Parse(data)
}
