package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Manager handles loading and hot-reloading configuration. Long batch
// runs watch the file so selection policies can be adjusted mid-run.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("platform", defaults.Platform)
	viper.SetDefault("selection", defaults.Selection)
	viper.SetDefault("region_model", defaults.RegionModel)
	viper.SetDefault("line_model", defaults.LineModel)
	viper.SetDefault("recognition", defaults.Recognition)
	viper.SetDefault("validation", defaults.Validation)
	viper.SetDefault("status_change", defaults.StatusChange)
	viper.SetDefault("replace", defaults.Replace)
	viper.SetDefault("download", defaults.Download)

	// Environment variables with INKWELL_ prefix
	viper.SetEnvPrefix("INKWELL")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.inkwell")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct and runs the
// schema validation, so a malformed file is rejected at startup instead
// of failing mid-batch.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A file that fails
// validation on reload is ignored and the previous config stays active.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// Timeout converts the configured seconds to a duration.
func (p PlatformCfg) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// PollInterval converts the configured seconds to a duration.
func (p PlatformCfg) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

// PollTimeout converts the configured minutes to a duration.
func (p PlatformCfg) PollTimeout() time.Duration {
	return time.Duration(p.PollTimeoutMinutes) * time.Minute
}

// DownloadDelay converts the configured seconds to a duration.
func (p PlatformCfg) DownloadDelay() time.Duration {
	return time.Duration(p.DownloadDelaySeconds) * time.Second
}

// Print writes the configuration as YAML, for `config show`.
func Print(w io.Writer, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# inkwell configuration
# Model identifiers (region_model, line_model, recognition) are account
# specific and must be filled in before running transcription jobs.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
