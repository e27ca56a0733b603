package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	launcherrors "github.com/ehsaniara/launchlet/pkg/errors"
)

// Config holds the complete launcher configuration
type Config struct {
	Version    string            `yaml:"version" json:"version"`
	Rendezvous RendezvousConfig  `yaml:"rendezvous" json:"rendezvous"`
	Tuning     map[string]string `yaml:"tuning" json:"tuning"`
	Logging    LoggingConfig     `yaml:"logging" json:"logging"`
}

// RendezvousConfig holds the coordination-port derivation policy.
// The port is computed as base + (trailing job-id digits mod span); every
// process of a job derives the same port independently, and concurrent jobs
// sharing the base land on different ports.
type RendezvousConfig struct {
	PortBase int `yaml:"portBase" json:"portBase"`
	PortSpan int `yaml:"portSpan" json:"portSpan"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// DefaultConfig mirrors the tuning the site batch scripts export. The
// tuning values are opaque pass-through constants from the launcher's
// perspective; it forwards them to the workload without interpretation.
var DefaultConfig = Config{
	Version: "1.0",
	Rendezvous: RendezvousConfig{
		PortBase: 10000,
		PortSpan: 16384,
	},
	Tuning: map[string]string{
		"OMP_NUM_THREADS":    "1",
		"NCCL_SOCKET_IFNAME": "hsn",
	},
	Logging: LoggingConfig{
		Level: "INFO",
	},
}

// LoadConfig loads the launcher configuration from file and environment.
//  1. Path specified in LAUNCHLET_CONFIG_PATH environment variable
//  2. ./launchlet-config.yml
//  3. /etc/launchlet/launchlet-config.yml
//
// Applies environment variable overrides for logging and port policy,
// then validates the final configuration.
// Returns (config, configPath, error) - configPath indicates source of configuration.
func LoadConfig() (*Config, string, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom is LoadConfig with an explicit file path taking precedence
// over the search locations. A missing explicit file is an error, unlike
// the search locations which fall through to defaults.
func LoadConfigFrom(explicitPath string) (*Config, string, error) {
	config := DefaultConfig
	config.Tuning = make(map[string]string, len(DefaultConfig.Tuning))
	for k, v := range DefaultConfig.Tuning {
		config.Tuning[k] = v
	}

	path, err := loadFromFile(&config, explicitPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	if val := os.Getenv("LAUNCHLET_LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv("LAUNCHLET_PORT_BASE"); val != "" {
		base, err := strconv.Atoi(val)
		if err != nil {
			return nil, "", launcherrors.WrapConfigError("LAUNCHLET_PORT_BASE",
				fmt.Errorf("%w: %v", launcherrors.ErrInvalidConfig, err))
		}
		config.Rendezvous.PortBase = base
	}
	if val := os.Getenv("LAUNCHLET_PORT_SPAN"); val != "" {
		span, err := strconv.Atoi(val)
		if err != nil {
			return nil, "", launcherrors.WrapConfigError("LAUNCHLET_PORT_SPAN",
				fmt.Errorf("%w: %v", launcherrors.ErrInvalidConfig, err))
		}
		config.Rendezvous.PortSpan = span
	}

	if e := config.Validate(); e != nil {
		return nil, "", e
	}

	return &config, path, nil
}

// loadFromFile loads configuration from the first available YAML file.
// Returns the path of the loaded file or "built-in defaults" if no file found.
// Does not return error if no file is found - uses defaults instead.
func loadFromFile(config *Config, explicitPath string) (string, error) {
	if explicitPath != "" {
		data, err := os.ReadFile(explicitPath)
		if err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", explicitPath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	configPaths := []string{
		os.Getenv("LAUNCHLET_CONFIG_PATH"),
		"./launchlet-config.yml",
		"/etc/launchlet/launchlet-config.yml",
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		return path, nil
	}

	return "built-in defaults (no config file found)", nil
}

// Validate checks that the port policy yields valid TCP ports and that the
// logging level is one of the recognized names.
func (c *Config) Validate() error {
	if c.Rendezvous.PortBase < 1024 || c.Rendezvous.PortBase > 65535 {
		return launcherrors.WrapConfigError("rendezvous.portBase",
			fmt.Errorf("%w: port base %d outside 1024-65535", launcherrors.ErrInvalidConfig, c.Rendezvous.PortBase))
	}

	if c.Rendezvous.PortSpan < 1 {
		return launcherrors.WrapConfigError("rendezvous.portSpan",
			fmt.Errorf("%w: port span must be positive, got %d", launcherrors.ErrInvalidConfig, c.Rendezvous.PortSpan))
	}

	// The whole derivable window must stay inside the valid port range
	if c.Rendezvous.PortBase+c.Rendezvous.PortSpan-1 > 65535 {
		return launcherrors.WrapConfigError("rendezvous.portSpan",
			fmt.Errorf("%w: base %d + span %d exceeds 65535", launcherrors.ErrInvalidConfig,
				c.Rendezvous.PortBase, c.Rendezvous.PortSpan))
	}

	switch c.Logging.Level {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR",
		"debug", "info", "warn", "warning", "error":
	default:
		return launcherrors.WrapConfigError("logging.level",
			fmt.Errorf("%w: unknown log level %q", launcherrors.ErrInvalidConfig, c.Logging.Level))
	}

	return nil
}
