// Package testutil holds helpers shared by server and endpoint tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/firscan/internal/types"
)

// ServerConfig returns configuration values for creating a test server.
// This avoids importing the server package directly.
type ServerConfig struct {
	Host       string
	Port       string
	HomePath   string
	ConfigFile string
	Logger     *slog.Logger
}

// NewServerConfig creates configuration for a test server on a free port
// with its own home directory. extraYAML is appended to the generated
// config file.
func NewServerConfig(t *testing.T, extraYAML string) ServerConfig {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	tempDir := t.TempDir()

	httpPort, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for HTTP: %v", err)
	}

	configFile := filepath.Join(tempDir, "config.yaml")
	content := fmt.Sprintf("server:\n  host: 127.0.0.1\n  port: %q\n", httpPort) + extraYAML
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return ServerConfig{
		Host:       "127.0.0.1",
		Port:       httpPort,
		HomePath:   filepath.Join(tempDir, "home"),
		ConfigFile: configFile,
		Logger:     logger,
	}
}

// URL returns the server URL for the given config.
func (c ServerConfig) URL() string {
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}

// WaitForServer polls the /ready endpoint until the store is open and a rule
// set is active.
func WaitForServer(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url + "/ready")
		if err == nil {
			var ready struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&ready); err == nil && ready.Status == "ok" {
				resp.Body.Close()
				return nil
			}
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}

// WaitForShutdown waits for a channel to receive a value or timeout.
func WaitForShutdown(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for shutdown")
	}
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}

// StartServer is a helper type for managing server lifecycle in tests.
// Usage:
//
//	cfg := testutil.NewServerConfig(t, "")
//	srv, err := server.New(server.Config{...from cfg...})
//	starter := testutil.StartServer{Cancel: cancel, Done: done}
//	t.Cleanup(func() { starter.Stop() })
type StartServer struct {
	Cancel context.CancelFunc
	Done   <-chan error
}

// Stop cancels the server context and waits for shutdown.
func (s *StartServer) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
	if s.Done != nil {
		<-s.Done
	}
}

// FIRSpans returns the OCR spans of a short FIR header with the given FIR
// number, each line read at the given confidence.
func FIRSpans(firNo string, confidence float64) []types.TextSpan {
	lines := []string{
		"FIRST INFORMATION REPORT",
		"District: Pune",
		"Police Station: Shivajinagar",
		"FIR No. " + firNo,
		"Date: 01/07/2025 14:16",
	}
	spans := make([]types.TextSpan, len(lines))
	for i, l := range lines {
		spans[i] = types.TextSpan{
			Text:       l,
			Confidence: confidence,
			Position:   types.Position{Page: 1, BBox: types.BBox{40, float64(40 + 30*i), 600, float64(64 + 30*i)}},
		}
	}
	return spans
}
