package endpoints

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackzampolin/firscan/internal/config"
	"github.com/jackzampolin/firscan/internal/corpus"
	"github.com/jackzampolin/firscan/internal/extract"
	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/learner"
	"github.com/jackzampolin/firscan/internal/ocr"
	"github.com/jackzampolin/firscan/internal/rules"
	"github.com/jackzampolin/firscan/internal/svcctx"
)

// writeServiceError maps errors from the domain packages onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *fields.ValidationError
	var insufficient *learner.InsufficientDataError
	var cerr *rules.ConfigurationError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Field: string(verr.Field)})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:    insufficient.Error(),
			Count:    insufficient.Count,
			Required: insufficient.Required,
		})
	case errors.Is(err, learner.ErrRetrainInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, corpus.ErrInvalidPayload),
		errors.Is(err, corpus.ErrInvalidSample),
		errors.Is(err, extract.ErrInvalidDocument),
		errors.Is(err, extract.ErrInvalidThreshold):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ocr.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, ocr.ErrInvalidPDF):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ocr.ErrNoPages), errors.Is(err, ocr.ErrTooManyPages):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ocr.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, corpus.ErrNotFound), errors.Is(err, rules.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &cerr):
		svcctx.LoggerFrom(r.Context()).Error("rule set misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client is gone or the request timed out; nothing was published.
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		svcctx.LoggerFrom(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// settings returns the live configuration, or the defaults when the server
// runs without a config manager.
func settings(ctx context.Context) *config.Config {
	if cm := svcctx.ConfigManagerFrom(ctx); cm != nil {
		return cm.Get()
	}
	return config.DefaultConfig()
}
