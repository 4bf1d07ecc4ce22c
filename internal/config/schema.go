package config

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/firscan/internal/ocr"
)

// Config holds firscan configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
	Extraction ExtractionCfg `mapstructure:"extraction" yaml:"extraction"`
	Training   TrainingCfg   `mapstructure:"training" yaml:"training"`
	Normalizer NormalizerCfg `mapstructure:"normalizer" yaml:"normalizer"`
	Store      StoreCfg      `mapstructure:"store" yaml:"store"`
	OCR        OCRCfg        `mapstructure:"ocr" yaml:"ocr"`
	Log        LogCfg        `mapstructure:"log" yaml:"log"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host        string  `mapstructure:"host" yaml:"host"`
	Port        string  `mapstructure:"port" yaml:"port"`
	RateLimit   float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second on extract/upload, 0 disables
	RateBurst   int     `mapstructure:"rate_burst" yaml:"rate_burst"`
	MaxUploadMB int     `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// ExtractionCfg configures field extraction.
type ExtractionCfg struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	RulesFile           string  `mapstructure:"rules_file" yaml:"rules_file"` // Bootstrap rule set (YAML); empty uses the built-in rules
	Parallelism         int     `mapstructure:"parallelism" yaml:"parallelism"`
}

// TrainingCfg configures retraining.
type TrainingCfg struct {
	MinSamples int `mapstructure:"min_samples" yaml:"min_samples"`
	MaxPasses  int `mapstructure:"max_passes" yaml:"max_passes"`
}

// NormalizerCfg configures OCR text cleanup.
type NormalizerCfg struct {
	SubstitutionsFile string `mapstructure:"substitutions_file" yaml:"substitutions_file"`
}

// StoreCfg configures the SQLite database.
type StoreCfg struct {
	Path         string `mapstructure:"path" yaml:"path"` // Empty uses {home}/data/firscan.db
	OpenAttempts uint   `mapstructure:"open_attempts" yaml:"open_attempts"`
}

// OCRCfg configures the upload pipeline.
type OCRCfg struct {
	Enabled    bool                  `mapstructure:"enabled" yaml:"enabled"`
	Provider   string                `mapstructure:"provider" yaml:"provider"`
	Language   string                `mapstructure:"language" yaml:"language"` // Tesseract languages joined by '+'
	MaxPages   int                   `mapstructure:"max_pages" yaml:"max_pages"`
	Workers    int                   `mapstructure:"workers" yaml:"workers"`
	Preprocess ocr.PreprocessOptions `mapstructure:"preprocess" yaml:"preprocess"`
	Mistral    MistralCfg            `mapstructure:"mistral" yaml:"mistral"`
}

// MistralCfg configures the mistral OCR provider.
type MistralCfg struct {
	APIKey     string  `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR}
	BaseURL    string  `mapstructure:"base_url" yaml:"base_url"`
	Model      string  `mapstructure:"model" yaml:"model"`
	RateLimit  float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	Confidence float64 `mapstructure:"confidence" yaml:"confidence"` // Assigned to every recognized line
}

// ProviderOptions maps the section onto OCR provider options.
func (c OCRCfg) ProviderOptions() ocr.ProviderOptions {
	return ocr.ProviderOptions{
		Languages: c.Languages(),
		Mistral: ocr.MistralConfig{
			APIKey:            c.Mistral.APIKey,
			BaseURL:           c.Mistral.BaseURL,
			Model:             c.Mistral.Model,
			RequestsPerSecond: c.Mistral.RateLimit,
			Confidence:        c.Mistral.Confidence,
		},
	}
}

// Languages splits Language into Tesseract language codes.
func (c OCRCfg) Languages() []string {
	var out []string
	for _, l := range strings.Split(c.Language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:        "127.0.0.1",
			Port:        "8080",
			RateLimit:   10,
			RateBurst:   20,
			MaxUploadMB: 25,
		},
		Extraction: ExtractionCfg{
			ConfidenceThreshold: 0.5,
		},
		Training: TrainingCfg{
			MinSamples: 5,
			MaxPasses:  4,
		},
		Store: StoreCfg{
			OpenAttempts: 5,
		},
		OCR: OCRCfg{
			Enabled:    true,
			Provider:   "tesseract",
			Language:   "eng+hin+mar",
			MaxPages:   50,
			Workers:    2,
			Preprocess: ocr.DefaultPreprocess,
			Mistral: MistralCfg{
				APIKey:     "${MISTRAL_API_KEY}",
				BaseURL:    ocr.MistralBaseURL,
				Model:      ocr.MistralModel,
				RateLimit:  6,
				Confidence: 0.9,
			},
		},
		Log: LogCfg{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if t := c.Extraction.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("extraction.confidence_threshold %v outside [0,1]", t)
	}
	if c.Training.MinSamples < 1 {
		return fmt.Errorf("training.min_samples must be at least 1, got %d", c.Training.MinSamples)
	}
	if c.Training.MaxPasses < 1 {
		return fmt.Errorf("training.max_passes must be at least 1, got %d", c.Training.MaxPasses)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1, got %d", c.Server.MaxUploadMB)
	}
	if conf := c.OCR.Mistral.Confidence; conf < 0 || conf > 1 {
		return fmt.Errorf("ocr.mistral.confidence %v outside [0,1]", conf)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}
