package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/extract"
	"github.com/jackzampolin/firscan/internal/metrics"
	"github.com/jackzampolin/firscan/internal/svcctx"
	"github.com/jackzampolin/firscan/internal/types"
)

// maxExtractBody bounds the JSON body of an extract request.
const maxExtractBody = 8 << 20

// ExtractRequest is the body of POST /api/extract.
type ExtractRequest struct {
	Spans []types.TextSpan `json:"spans"`
	// Threshold overrides the configured confidence threshold.
	Threshold *float64 `json:"threshold,omitempty"`
}

// ExtractResponse is the normalized text and the extraction result.
type ExtractResponse struct {
	Text string `json:"text"`
	*extract.Result
}

// ExtractEndpoint handles POST /api/extract.
type ExtractEndpoint struct{}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract fields from OCR spans
//	@Description	Normalize the spans and apply the active rule set
//	@Tags			extract
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ExtractRequest	true	"OCR spans"
//	@Success		200		{object}	ExtractResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExtractBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Spans) == 0 {
		writeError(w, http.StatusBadRequest, "spans are required")
		return
	}

	threshold := settings(r.Context()).Extraction.ConfidenceThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	start := time.Now()
	resp, err := runExtract(r.Context(), req.Spans, threshold)
	observe(r.Context(), metrics.Metric{Operation: metrics.OpExtract, Spans: len(req.Spans)}, resp, start, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// runExtract normalizes spans and extracts against the active rule set.
func runExtract(ctx context.Context, spans []types.TextSpan, threshold float64) (*ExtractResponse, error) {
	normalizer := svcctx.NormalizerFrom(ctx)
	active := svcctx.RulesFrom(ctx)
	if normalizer == nil || active == nil {
		return nil, errors.New("extraction services not initialized")
	}
	for i, s := range spans {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: span %d: %v", extract.ErrInvalidDocument, i, err)
		}
	}

	doc := normalizer.Normalize(spans)
	result, err := extract.Extract(doc, active.Load(), threshold)
	if err != nil {
		return nil, err
	}
	return &ExtractResponse{Text: doc.Text(), Result: result}, nil
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var text string
	var threshold float64
	cmd := &cobra.Command{
		Use:   "extract [spans.json]",
		Short: "Extract FIR fields from OCR spans",
		Long: `Send OCR spans to the server and print the extracted fields.

The file holds either a JSON array of spans or an object with a "spans" key.
Use --text to send plain text instead; each line becomes one span with
confidence 1.0.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			spans, err := ReadSpans(path, text)
			if err != nil {
				return err
			}
			req := ExtractRequest{Spans: spans}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}

			client := api.NewClient(getServerURL())
			// Values are decoded generically; fields.Value is an interface.
			var resp map[string]any
			if err := client.Post(cmd.Context(), "/api/extract", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Plain text to extract from instead of a spans file")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Override the confidence threshold")
	return cmd
}

// ReadSpans loads spans from a JSON file, or builds them from text with one
// span per non-empty line.
func ReadSpans(path, text string) ([]types.TextSpan, error) {
	if text != "" {
		var spans []types.TextSpan
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			spans = append(spans, types.TextSpan{Text: line, Confidence: 1, Position: types.Position{Page: 1}})
		}
		return spans, nil
	}
	if path == "" {
		return nil, errors.New("a spans file or --text is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	var spans []types.TextSpan
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Spans []types.TextSpan `json:"spans"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		spans = wrapped.Spans
	} else if err := json.Unmarshal(data, &spans); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("%s holds no spans", path)
	}
	return spans, nil
}
