package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/disintegration/imaging"
	"golang.org/x/time/rate"

	"github.com/jackzampolin/firscan/internal/types"
)

const (
	MistralName    = "mistral"
	MistralBaseURL = "https://api.mistral.ai/v1"
	MistralModel   = "mistral-ocr-latest"
)

// MistralConfig holds configuration for the Mistral OCR client.
type MistralConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// RequestsPerSecond paces calls across all pages (default 6).
	RequestsPerSecond float64
	// Confidence is assigned to every line. Mistral reports none.
	Confidence float64
	// Attempts bounds retries on 429 and 5xx responses (default 3).
	Attempts uint
	// RetryDelay is the base backoff between attempts (default 2s).
	RetryDelay time.Duration
}

// Mistral recognizes pages with the Mistral OCR API. The returned markdown is
// split into one span per line.
type Mistral struct {
	cfg     MistralConfig
	limiter *rate.Limiter
	client  *http.Client
}

// NewMistral creates a Mistral OCR provider.
func NewMistral(cfg MistralConfig) (*Mistral, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: mistral api key not set", ErrProviderUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = MistralModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 6.0
	}
	if cfg.Confidence <= 0 || cfg.Confidence > 1 {
		cfg.Confidence = 0.9
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	return &Mistral{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name implements Provider.
func (m *Mistral) Name() string { return MistralName }

// Recognize implements Provider.
func (m *Mistral) Recognize(ctx context.Context, img image.Image, page int) ([]types.TextSpan, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}

	reqBody := mistralOCRRequest{
		Model: m.cfg.Model,
		Document: mistralDocument{
			Type: "image_url",
			ImageURL: &mistralImageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
			},
		},
	}

	var resp *mistralOCRResponse
	err := retry.Do(
		func() error {
			if err := m.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			var err error
			resp, err = m.doRequest(ctx, "/ocr", reqBody)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(m.cfg.Attempts),
		retry.Delay(m.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *mistralStatusError
			return errors.As(err, &se) && se.retryable()
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Pages) == 0 {
		return nil, errors.New("mistral: no pages in OCR response")
	}

	bounds := img.Bounds()
	return markdownSpans(resp.Pages[0].Markdown, m.cfg.Confidence, page, bounds.Dx(), bounds.Dy()), nil
}

func (m *Mistral) doRequest(ctx context.Context, path string, body any) (*mistralOCRResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.cfg.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &mistralStatusError{Status: resp.StatusCode, Message: string(respBody)}
		var errResp mistralErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			se.Message = errResp.Error.Message
		}
		return nil, se
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &ocrResp, nil
}

type mistralStatusError struct {
	Status  int
	Message string
}

func (e *mistralStatusError) Error() string {
	return fmt.Sprintf("mistral OCR error (status %d): %s", e.Status, e.Message)
}

func (e *mistralStatusError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

var (
	mdImage     = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdTableRule = regexp.MustCompile(`^\|?[\s:|-]+\|?$`)
	mdHeading   = regexp.MustCompile(`^#{1,6}\s+`)
	mdListItem  = regexp.MustCompile(`^([-*+]|\d+\.)\s+`)
)

// markdownSpans turns OCR markdown into one span per text line. Table rows
// become one line with the cells joined by spaces. The API gives no line
// geometry, so lines get equal horizontal bands down the page.
func markdownSpans(md string, confidence float64, page, width, height int) []types.TextSpan {
	var lines []string
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(mdImage.ReplaceAllString(line, ""))
		if line == "" || mdTableRule.MatchString(line) {
			continue
		}
		line = mdHeading.ReplaceAllString(line, "")
		line = mdListItem.ReplaceAllString(line, "")
		if strings.HasPrefix(line, "|") {
			var cells []string
			for _, c := range strings.Split(strings.Trim(line, "|"), "|") {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			line = strings.Join(cells, " ")
		}
		line = strings.NewReplacer("**", "", "__", "", "`", "").Replace(line)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	spans := make([]types.TextSpan, len(lines))
	band := float64(height) / float64(max(len(lines), 1))
	for i, l := range lines {
		spans[i] = types.TextSpan{
			Text:       l,
			Confidence: confidence,
			Position: types.Position{
				Page: page,
				BBox: types.BBox{0, band * float64(i), float64(width), band * float64(i+1)},
			},
		}
	}
	return spans
}

// Mistral OCR API types

type mistralOCRRequest struct {
	Model              string          `json:"model"`
	Document           mistralDocument `json:"document"`
	IncludeImageBase64 bool            `json:"include_image_base64,omitempty"`
}

type mistralDocument struct {
	Type     string           `json:"type"` // "image_url" or "document_url"
	ImageURL *mistralImageURL `json:"image_url,omitempty"`
}

type mistralImageURL struct {
	URL string `json:"url"`
}

type mistralOCRResponse struct {
	Model string           `json:"model"`
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type mistralErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Verify interface
var _ Provider = (*Mistral)(nil)
