package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Store   string `json:"store,omitempty"`
	RuleSet int    `json:"rule_set,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Health check
//	@Description	Returns ok while the HTTP server is responding
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Returns ok once the store answers and a rule set is active
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Store: "ok"}

	db := svcctx.DBFrom(r.Context())
	if db == nil {
		resp.Status = "degraded"
		resp.Store = "not_initialized"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	if err := db.PingContext(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Store = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	active := svcctx.RulesFrom(r.Context())
	if active == nil {
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.RuleSet = active.Load().Version()

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (store and active rule set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status:   %s\n", resp.Status)
			if resp.Store != "" {
				fmt.Printf("Store:    %s\n", resp.Store)
			}
			if resp.RuleSet != 0 {
				fmt.Printf("Rule set: v%d\n", resp.RuleSet)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server   string         `json:"server"`
	RuleSet  RuleSetStatus  `json:"rule_set"`
	Corpus   CorpusStatus   `json:"corpus"`
	OCR      OCRStatus      `json:"ocr"`
	Settings SettingsStatus `json:"settings"`
}

// RuleSetStatus describes the active rule set.
type RuleSetStatus struct {
	Version int `json:"version"`
	Parent  int `json:"parent,omitempty"`
	Rules   int `json:"rules"`
}

// CorpusStatus describes the training corpus.
type CorpusStatus struct {
	Samples    int `json:"samples"`
	MinSamples int `json:"min_samples"`
}

// OCRStatus shows whether uploads can be processed.
type OCRStatus struct {
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

// SettingsStatus shows the live extraction settings.
type SettingsStatus struct {
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	ConfigFile          string  `json:"config_file,omitempty"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Server status
//	@Description	Active rule set, corpus size, OCR availability and live settings
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{Server: "running"}

	if active := svcctx.RulesFrom(ctx); active != nil {
		rs := active.Load()
		resp.RuleSet = RuleSetStatus{Version: rs.Version(), Parent: rs.Parent(), Rules: rs.Len()}
	} else {
		resp.Server = "starting"
	}

	if store := svcctx.CorpusFrom(ctx); store != nil {
		if n, err := store.Count(ctx); err == nil {
			resp.Corpus.Samples = n
		}
	}
	if trainer := svcctx.TrainerFrom(ctx); trainer != nil {
		resp.Corpus.MinSamples = trainer.Learner().Options().MinSamples
	}

	cfg := settings(ctx)
	resp.OCR.Provider = cfg.OCR.Provider
	if pipeline := svcctx.OCRFrom(ctx); pipeline != nil {
		resp.OCR.Provider = pipeline.Provider().Name()
		resp.OCR.Available = true
	}

	resp.Settings.ConfidenceThreshold = cfg.Extraction.ConfidenceThreshold
	if cm := svcctx.ConfigManagerFrom(ctx); cm != nil {
		resp.Settings.ConfigFile = cm.ConfigFile()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Server: %s\n", resp.Server)
			fmt.Printf("Rule set:\n")
			fmt.Printf("  Version: %d\n", resp.RuleSet.Version)
			fmt.Printf("  Rules:   %d\n", resp.RuleSet.Rules)
			fmt.Printf("Corpus:\n")
			fmt.Printf("  Samples: %d (retrain needs %d)\n", resp.Corpus.Samples, resp.Corpus.MinSamples)
			fmt.Printf("OCR:\n")
			fmt.Printf("  Provider:  %s\n", resp.OCR.Provider)
			fmt.Printf("  Available: %v\n", resp.OCR.Available)
			fmt.Printf("Confidence threshold: %.2f\n", resp.Settings.ConfidenceThreshold)
			return nil
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the body of every error reply. Field is set for
// validation failures; Count and Required for insufficient training data.
type ErrorResponse struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Count    int    `json:"count,omitempty"`
	Required int    `json:"required,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
