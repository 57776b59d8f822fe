// Package config loads comfyforge settings from a YAML file, a .env file and
// COMFYFORGE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aretw0/comfyforge/internal/logging"
	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/wire"
)

// EnvPrefix is prepended to every environment override, e.g. COMFYFORGE_SERVER_ADDR.
const EnvPrefix = "COMFYFORGE"

// Config is the full application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Output   OutputConfig   `mapstructure:"output"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	MetricsPath  string        `mapstructure:"metrics_path"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ExecutorConfig describes the execution engine graphs are meant for.
type ExecutorConfig struct {
	// AvailableNodeTypes are the non-core opcodes the executor has installed.
	AvailableNodeTypes []string `mapstructure:"available_node_types"`
	// ClientID is reused in submission envelopes when set.
	ClientID string `mapstructure:"client_id"`
}

// ClassTypes returns AvailableNodeTypes as opcodes.
func (e ExecutorConfig) ClassTypes() []domain.ClassType {
	out := make([]domain.ClassType, 0, len(e.AvailableNodeTypes))
	for _, s := range e.AvailableNodeTypes {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, domain.ClassType(s))
		}
	}
	return out
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. When empty, comfyforge.yaml is searched in the
	// working directory and in $HOME/.config/comfyforge, and a missing file is not an error.
	File string
	// EnvFile is loaded into the process environment when it exists. Defaults to ".env".
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("executor.available_node_types", []string{})
	v.SetDefault("executor.client_id", "")
	v.SetDefault("output.format", "json")
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("comfyforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/comfyforge")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if _, err := wire.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return fmt.Errorf("server.metrics_path must start with /, got %q", c.Server.MetricsPath)
	}
	return nil
}
