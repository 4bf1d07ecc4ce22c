package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/corpus"
	"github.com/jackzampolin/firscan/internal/extract"
	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/learner"
	"github.com/jackzampolin/firscan/internal/metrics"
	"github.com/jackzampolin/firscan/internal/ocr"
	"github.com/jackzampolin/firscan/internal/svcctx"
)

// ListMetricsResponse is the response for listing metrics.
type ListMetricsResponse struct {
	Metrics []metrics.Metric `json:"metrics"`
	Count   int              `json:"count"`
}

// MetricsSummaryResponse holds stats per operation.
type MetricsSummaryResponse struct {
	Operations map[metrics.Operation]*metrics.Stats `json:"operations"`
}

// ListMetricsEndpoint handles GET /api/metrics.
type ListMetricsEndpoint struct{}

var _ api.Endpoint = (*ListMetricsEndpoint)(nil)

func (e *ListMetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics", e.handler
}

func (e *ListMetricsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List metrics
//	@Description	List recorded extract, upload and retrain operations, newest first
//	@Tags			metrics
//	@Produce		json
//	@Param			operation	query		string	false	"Filter by operation (extract, upload, retrain)"
//	@Param			provider	query		string	false	"Filter by OCR provider"
//	@Param			success		query		bool	false	"Only successes (true) or failures (false)"
//	@Param			limit		query		int		false	"Maximum results (default 100)"
//	@Success		200			{object}	ListMetricsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/api/metrics [get]
func (e *ListMetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	if db == nil {
		writeError(w, http.StatusServiceUnavailable, "database not initialized")
		return
	}

	f, err := metricsFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := metrics.NewQuery(db).List(r.Context(), f, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ListMetricsResponse{
		Metrics: result,
		Count:   len(result),
	})
}

func (e *ListMetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var operation, provider string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if operation != "" {
				params.Set("operation", operation)
			}
			if provider != "" {
				params.Set("provider", provider)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}

			client := api.NewClient(getServerURL())
			var resp ListMetricsResponse
			if err := client.Get(cmd.Context(), "/api/metrics?"+params.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().StringVar(&operation, "operation", "", "Filter by operation")
	cmd.Flags().StringVar(&provider, "provider", "", "Filter by OCR provider")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum results")
	return cmd
}

// MetricsSummaryEndpoint handles GET /api/metrics/summary.
type MetricsSummaryEndpoint struct{}

var _ api.Endpoint = (*MetricsSummaryEndpoint)(nil)

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Summarize metrics
//	@Description	Count, outcome and latency percentiles per operation
//	@Tags			metrics
//	@Produce		json
//	@Param			operation	query		string	false	"Filter by operation"
//	@Param			provider	query		string	false	"Filter by OCR provider"
//	@Success		200			{object}	MetricsSummaryResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/api/metrics/summary [get]
func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	if db == nil {
		writeError(w, http.StatusServiceUnavailable, "database not initialized")
		return
	}

	f, err := metricsFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := metrics.NewQuery(db).Summary(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MetricsSummaryResponse{Operations: summary})
}

func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var operation string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize recorded operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/metrics/summary"
			if operation != "" {
				path += "?" + url.Values{"operation": {operation}}.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp MetricsSummaryResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().StringVar(&operation, "operation", "", "Filter by operation")
	return cmd
}

func metricsFilter(q url.Values) (metrics.Filter, error) {
	f := metrics.Filter{
		Operation: metrics.Operation(q.Get("operation")),
		Provider:  q.Get("provider"),
	}
	switch f.Operation {
	case "", metrics.OpExtract, metrics.OpUpload, metrics.OpRetrain:
	default:
		return f, fmt.Errorf("unknown operation %q", f.Operation)
	}
	if s := q.Get("success"); s != "" {
		ok, err := strconv.ParseBool(s)
		if err != nil {
			return f, fmt.Errorf("invalid success filter %q", s)
		}
		f.Success = &ok
	}
	return f, nil
}

// observe records one operation. res, when present, supplies the rule set
// version and the number of extracted values.
func observe(ctx context.Context, m metrics.Metric, res *ExtractResponse, start time.Time, err error) {
	if res != nil && res.Result != nil {
		m.RuleSetVersion = res.RuleSetVersion
		for _, cs := range res.Fields {
			m.Fields += len(cs)
		}
	}
	if err != nil {
		m.ErrorType = errorKind(err)
	}
	svcctx.MetricsFrom(ctx).Observe(ctx, m, start, err)
}

// errorKind names the class of a failed operation for metrics.
func errorKind(err error) string {
	var verr *fields.ValidationError
	var insufficient *learner.InsufficientDataError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, corpus.ErrInvalidPayload),
		errors.Is(err, corpus.ErrInvalidSample),
		errors.Is(err, extract.ErrInvalidDocument),
		errors.Is(err, extract.ErrInvalidThreshold):
		return "invalid_input"
	case errors.As(err, &insufficient):
		return "insufficient_data"
	case errors.Is(err, learner.ErrRetrainInProgress):
		return "retrain_in_progress"
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ocr.ErrInvalidPDF):
		return "invalid_pdf"
	case errors.Is(err, ocr.ErrNoPages), errors.Is(err, ocr.ErrTooManyPages):
		return "page_count"
	case errors.Is(err, ocr.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "internal"
}
