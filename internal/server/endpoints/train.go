package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/corpus"
	"github.com/jackzampolin/firscan/internal/learner"
	"github.com/jackzampolin/firscan/internal/metrics"
	"github.com/jackzampolin/firscan/internal/svcctx"
)

// maxSampleBody bounds a training sample submission.
const maxSampleBody = 8 << 20

// SubmitSampleResponse is returned after a sample is stored.
type SubmitSampleResponse struct {
	ID         string `json:"id"`
	Count      int    `json:"count"`
	MinSamples int    `json:"min_samples"`
}

// SubmitSampleEndpoint handles POST /api/train/sample.
type SubmitSampleEndpoint struct{}

var _ api.Endpoint = (*SubmitSampleEndpoint)(nil)

func (e *SubmitSampleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/train/sample", e.handler
}

func (e *SubmitSampleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Submit a training sample
//	@Description	Store OCR spans with their corrected field values. Every correction must satisfy its field contract.
//	@Tags			train
//	@Accept			json
//	@Produce		json
//	@Param			request	body		corpus.Submission	true	"Spans and corrections"
//	@Success		201		{object}	SubmitSampleResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/train/sample [post]
func (e *SubmitSampleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.CorpusFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "corpus not initialized")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSampleBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read body: %v", err))
		return
	}
	sample, err := corpus.DecodeSubmission(raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	id, err := store.Append(r.Context(), sample)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	count, err := store.Count(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := SubmitSampleResponse{ID: id, Count: count}
	if trainer := svcctx.TrainerFrom(r.Context()); trainer != nil {
		resp.MinSamples = trainer.Learner().Options().MinSamples
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (e *SubmitSampleEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "sample <sample.json>",
		Short: "Submit a corrected training sample",
		Long: `Submit OCR spans together with the corrected field values.

The file is a JSON object:

  {
    "file_id": "optional upload id",
    "spans": [{"text": "FIR No. 0569/2025", "confidence": 0.92, "position": {"page": 1}}],
    "corrections": {"fir_number": "0569/2025", "legal_section": ["379", "Arms Act|25"]}
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp SubmitSampleResponse
			if err := client.Post(cmd.Context(), "/api/train/sample", json.RawMessage(raw), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ListSamplesResponse is the stored corpus.
type ListSamplesResponse struct {
	Count   int             `json:"count"`
	Samples []corpus.Sample `json:"samples"`
}

// ListSamplesEndpoint handles GET /api/train/samples.
type ListSamplesEndpoint struct{}

func (e *ListSamplesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/train/samples", e.handler
}

func (e *ListSamplesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List training samples
//	@Description	List every stored sample in submission order
//	@Tags			train
//	@Produce		json
//	@Success		200	{object}	ListSamplesResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/train/samples [get]
func (e *ListSamplesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.CorpusFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "corpus not initialized")
		return
	}

	samples, err := store.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if samples == nil {
		samples = []corpus.Sample{}
	}
	writeJSON(w, http.StatusOK, ListSamplesResponse{Count: len(samples), Samples: samples})
}

func (e *ListSamplesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "List training samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]any
			if err := client.Get(cmd.Context(), "/api/train/samples", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// RetrainEndpoint handles POST /api/train/retrain.
type RetrainEndpoint struct{}

func (e *RetrainEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/train/retrain", e.handler
}

func (e *RetrainEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Retrain the rule set
//	@Description	Learn rules from the corpus and publish a new active rule set when any were added
//	@Tags			train
//	@Produce		json
//	@Success		200	{object}	learner.Report
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/train/retrain [post]
func (e *RetrainEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	trainer := svcctx.TrainerFrom(r.Context())
	if trainer == nil {
		writeError(w, http.StatusServiceUnavailable, "trainer not initialized")
		return
	}

	start := time.Now()
	report, err := trainer.Retrain(r.Context())
	m := metrics.Metric{Operation: metrics.OpRetrain}
	if report != nil {
		m.RuleSetVersion, m.Fields = report.Version, report.RulesAdded
	}
	observe(r.Context(), m, nil, start, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (e *RetrainEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Learn new rules from the training corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp learner.Report
			if err := client.Post(cmd.Context(), "/api/train/retrain", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
