package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Extraction.ConfidenceThreshold != 0.5 {
		t.Errorf("confidence_threshold = %v, want 0.5", cfg.Extraction.ConfidenceThreshold)
	}
	if cfg.Training.MinSamples != 5 {
		t.Errorf("min_samples = %d, want 5", cfg.Training.MinSamples)
	}
	if diff := cmp.Diff([]string{"eng", "hin", "mar"}, cfg.OCR.Languages()); diff != "" {
		t.Errorf("Languages() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.Extraction.ConfidenceThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.Extraction.ConfidenceThreshold = -0.1 }},
		{"zero min samples", func(c *Config) { c.Training.MinSamples = 0 }},
		{"zero passes", func(c *Config) { c.Training.MaxPasses = 0 }},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }},
		{"no upload size", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"mistral confidence above one", func(c *Config) { c.OCR.Mistral.Confidence = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil")
			}
		})
	}
}

func TestManager_MistralKeyFromEnv(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "sk-test")
	cm, err := NewManager(writeConfig(t, "ocr:\n  provider: mistral\n"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	opts := cm.Get().OCR.ProviderOptions()
	if opts.Mistral.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", opts.Mistral.APIKey)
	}
	if opts.Mistral.Confidence != 0.9 || opts.Mistral.RequestsPerSecond != 6 {
		t.Errorf("Mistral options = %+v", opts.Mistral)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_FIRSCAN_DIR", "/srv/firscan")

		result := ResolveEnvVars("${TEST_FIRSCAN_DIR}/rules.yaml")
		if result != "/srv/firscan/rules.yaml" {
			t.Errorf("expected /srv/firscan/rules.yaml, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
extraction:
  confidence_threshold: 0.7
training:
  min_samples: 8
`)
		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}

		cfg := mgr.Get()
		if cfg.Extraction.ConfidenceThreshold != 0.7 {
			t.Errorf("confidence_threshold = %v, want 0.7", cfg.Extraction.ConfidenceThreshold)
		}
		if cfg.Training.MinSamples != 8 {
			t.Errorf("min_samples = %d, want 8", cfg.Training.MinSamples)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("server.port = %q, want default 8080", cfg.Server.Port)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		configFile := writeConfig(t, "server:\n  port: \"9000\"\n")
		t.Setenv("FIRSCAN_SERVER_PORT", "9100")

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if got := mgr.Get().Server.Port; got != "9100" {
			t.Errorf("server.port = %q, want 9100", got)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		configFile := writeConfig(t, "extraction:\n  confidence_threshold: 3\n")
		if _, err := NewManager(configFile); err == nil {
			t.Error("NewManager() error = nil, want validation failure")
		}
	})
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "log:\n  level: info\n"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "log:\n  level: info\n"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().Extraction.ConfidenceThreshold
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watcher test in short mode")
	}
	configFile := writeConfig(t, "extraction:\n  confidence_threshold: 0.5\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value
	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.Extraction.ConfidenceThreshold)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("extraction:\n  confidence_threshold: 0.8\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Extraction.ConfidenceThreshold; got != 0.8 {
		t.Errorf("config not updated: got %v, want 0.8", got)
	}
	if v := lastValue.Load(); v != 0.8 {
		t.Errorf("callback received %v, want 0.8", v)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), mgr.Get()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
