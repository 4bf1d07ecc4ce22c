package endpoints

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/metrics"
	"github.com/jackzampolin/firscan/internal/ocr"
	"github.com/jackzampolin/firscan/internal/svcctx"
	"github.com/jackzampolin/firscan/internal/types"
)

// UploadResponse is the result of OCR and extraction on an uploaded FIR.
type UploadResponse struct {
	FileID string           `json:"file_id"`
	Pages  int              `json:"pages"`
	Spans  []types.TextSpan `json:"spans"`
	ExtractResponse
}

// UploadEndpoint handles POST /api/upload with a multipart PDF or page image.
type UploadEndpoint struct{}

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/upload", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Upload a scanned FIR
//	@Description	Store the scan, run OCR on every page and extract fields
//	@Tags			extract
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Scanned FIR, PDF or page image"
//	@Success		200		{object}	UploadResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/upload [post]
func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pipeline := svcctx.OCRFrom(ctx)
	if pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "ocr is not available on this server")
		return
	}
	homeDir := svcctx.HomeFrom(ctx)
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}
	logger := svcctx.LoggerFrom(ctx)
	cfg := settings(ctx)

	maxBytes := int64(cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", cfg.Server.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	src, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}
	if !scanType(data) {
		observe(ctx, metrics.Metric{Operation: metrics.OpUpload, Provider: pipeline.Provider().Name()}, nil, time.Now(), ocr.ErrUnsupportedFormat)
		writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("file %s is not a PDF or page image", fh.Filename))
		return
	}

	fileID := uuid.New().String()
	dest := homeDir.UploadPath(fileID)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create uploads dir: %v", err))
		return
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save file: %v", err))
		return
	}
	logger.Info("upload stored", "file_id", fileID, "name", fh.Filename, "bytes", len(data))

	start := time.Now()
	m := metrics.Metric{Operation: metrics.OpUpload, Provider: pipeline.Provider().Name()}
	spans, err := pipeline.Process(ctx, data)
	if err != nil {
		logger.Warn("ocr failed", "file_id", fileID, "error", err)
		observe(ctx, m, nil, start, err)
		writeServiceError(w, r, err)
		return
	}

	resp := UploadResponse{FileID: fileID, Spans: spans, Pages: pageCount(spans)}
	if resp.Spans == nil {
		resp.Spans = []types.TextSpan{}
	}
	m.Pages, m.Spans = resp.Pages, len(spans)
	if len(spans) > 0 {
		extracted, err := runExtract(ctx, spans, cfg.Extraction.ConfidenceThreshold)
		observe(ctx, m, extracted, start, err)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp.ExtractResponse = *extracted
	} else {
		observe(ctx, m, nil, start, nil)
	}

	writeJSON(w, http.StatusOK, resp)
}

// scanType reports whether data is a PDF or an image format the OCR
// pipeline decodes.
func scanType(data []byte) bool {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return true
	}
	switch http.DetectContentType(data) {
	case "image/png", "image/jpeg", "image/gif", "image/bmp", "image/webp":
		return true
	}
	return false
}

func pageCount(spans []types.TextSpan) int {
	pages := 0
	for _, s := range spans {
		pages = max(pages, s.Position.Page)
	}
	return pages
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <scan>",
		Short: "Upload a scanned FIR for OCR and extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			client := api.NewClient(getServerURL())
			var resp map[string]any
			if err := client.Upload(cmd.Context(), "/api/upload", filepath.Base(args[0]), f, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
