package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/firscan/internal/config"
	"github.com/jackzampolin/firscan/internal/home"
	"github.com/jackzampolin/firscan/internal/testutil"
)

func newTestServer(t *testing.T, extraYAML string) *Server {
	t.Helper()
	return newTestServerFrom(t, testutil.NewServerConfig(t, extraYAML))
}

func newTestServerFrom(t *testing.T, cfg testutil.ServerConfig) *Server {
	t.Helper()
	cm, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	h, err := home.New(cfg.HomePath)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	srv, err := New(Config{Home: h, ConfigManager: cm, Logger: cfg.Logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func TestNew_RequiresHomeAndConfig(t *testing.T) {
	cfg := testutil.NewServerConfig(t, "")
	cm, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	h, _ := home.New(cfg.HomePath)

	if _, err := New(Config{ConfigManager: cm}); err == nil {
		t.Error("New() without home succeeded")
	}
	if _, err := New(Config{Home: h}); err == nil {
		t.Error("New() without config manager succeeded")
	}

	srv, err := New(Config{Home: h, ConfigManager: cm})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if want := "127.0.0.1:" + cfg.Port; srv.Addr() != want {
		t.Errorf("Addr() = %q, want %q", srv.Addr(), want)
	}
}

func TestRequireInit_BeforeStart(t *testing.T) {
	srv := newTestServer(t, "")
	handler := srv.httpServer.Handler

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/ready", http.StatusServiceUnavailable},
		{"POST", "/api/extract", http.StatusServiceUnavailable},
		{"GET", "/api/rulesets", http.StatusServiceUnavailable},
		{"POST", "/api/train/retrain", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	send := func(h http.Handler, method, path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec.Code
	}

	t.Run("throttles limited routes", func(t *testing.T) {
		l := newLimiter(0.001, 2)
		h := l.middleware(ok)
		for i := 0; i < 2; i++ {
			if code := send(h, "POST", "/api/extract"); code != http.StatusOK {
				t.Fatalf("request %d status = %d, want 200", i, code)
			}
		}
		if code := send(h, "POST", "/api/upload"); code != http.StatusTooManyRequests {
			t.Errorf("over burst status = %d, want 429", code)
		}
		if code := send(h, "GET", "/api/rulesets"); code != http.StatusOK {
			t.Errorf("unlimited route status = %d, want 200", code)
		}
	})

	t.Run("zero rate disables", func(t *testing.T) {
		l := newLimiter(0, 0)
		h := l.middleware(ok)
		for i := 0; i < 50; i++ {
			if code := send(h, "POST", "/api/extract"); code != http.StatusOK {
				t.Fatalf("request %d status = %d, want 200", i, code)
			}
		}
	})

	t.Run("set applies new limits", func(t *testing.T) {
		l := newLimiter(0, 0)
		l.set(0.001, 1)
		h := l.middleware(ok)
		send(h, "POST", "/api/extract")
		if code := send(h, "POST", "/api/extract"); code != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429 after set", code)
		}
	})
}

func TestLearnerOptions(t *testing.T) {
	c := config.DefaultConfig()
	c.Training.MinSamples = 8
	c.Extraction.ConfidenceThreshold = 0.7
	got := LearnerOptions(c)
	if got.MinSamples != 8 || got.Threshold != 0.7 || got.MaxPasses != c.Training.MaxPasses {
		t.Errorf("LearnerOptions() = %+v", got)
	}
}
