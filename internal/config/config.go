package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// configDirs are searched for config.yaml when cfgFile is empty.
func NewManager(cfgFile string, configDirs ...string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, configDirs); err != nil {
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
func (cm *Manager) initViper(cfgFile string, configDirs []string) error {
	v := cm.v
	d := DefaultConfig()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("extraction.confidence_threshold", d.Extraction.ConfidenceThreshold)
	v.SetDefault("extraction.rules_file", d.Extraction.RulesFile)
	v.SetDefault("extraction.parallelism", d.Extraction.Parallelism)
	v.SetDefault("training.min_samples", d.Training.MinSamples)
	v.SetDefault("training.max_passes", d.Training.MaxPasses)
	v.SetDefault("normalizer.substitutions_file", d.Normalizer.SubstitutionsFile)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.open_attempts", d.Store.OpenAttempts)
	v.SetDefault("ocr.enabled", d.OCR.Enabled)
	v.SetDefault("ocr.provider", d.OCR.Provider)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.max_pages", d.OCR.MaxPages)
	v.SetDefault("ocr.workers", d.OCR.Workers)
	v.SetDefault("ocr.preprocess.min_height", d.OCR.Preprocess.MinHeight)
	v.SetDefault("ocr.preprocess.contrast", d.OCR.Preprocess.Contrast)
	v.SetDefault("ocr.preprocess.sharpen", d.OCR.Preprocess.Sharpen)
	v.SetDefault("ocr.preprocess.threshold", d.OCR.Preprocess.Threshold)
	v.SetDefault("ocr.mistral.api_key", d.OCR.Mistral.APIKey)
	v.SetDefault("ocr.mistral.base_url", d.OCR.Mistral.BaseURL)
	v.SetDefault("ocr.mistral.model", d.OCR.Mistral.Model)
	v.SetDefault("ocr.mistral.rate_limit", d.OCR.Mistral.RateLimit)
	v.SetDefault("ocr.mistral.confidence", d.OCR.Mistral.Confidence)
	v.SetDefault("log.level", d.Log.Level)

	// Environment variables with FIRSCAN_ prefix, e.g. FIRSCAN_SERVER_PORT
	v.SetEnvPrefix("FIRSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		for _, dir := range configDirs {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("$HOME/.firscan")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Extraction.RulesFile = ResolveEnvVars(cfg.Extraction.RulesFile)
	cfg.Normalizer.SubstitutionsFile = ResolveEnvVars(cfg.Normalizer.SubstitutionsFile)
	cfg.Store.Path = ResolveEnvVars(cfg.Store.Path)
	cfg.OCR.Mistral.APIKey = ResolveEnvVars(cfg.OCR.Mistral.APIKey)
	if err := cfg.Validate(); err != nil {
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

// ConfigFile returns the file the configuration was read from, if any.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A changed file that
// fails validation is ignored and the previous configuration stays in effect.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			slog.Warn("config reload rejected", "file", e.Name, "error", err)
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
	cm.v.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# firscan configuration
# Every key can be overridden from the environment, e.g. FIRSCAN_EXTRACTION_CONFIDENCE_THRESHOLD=0.7
# Paths support ${ENV_VAR} references.
# extraction.confidence_threshold and training.* are reloaded while the server runs.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
