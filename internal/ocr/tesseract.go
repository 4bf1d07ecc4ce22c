//go:build tesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/jackzampolin/firscan/internal/types"
)

// Tesseract recognizes pages with the Tesseract engine, one text line per
// span.
type Tesseract struct {
	languages []string
}

// NewTesseract creates a Tesseract provider. FIR forms mix English and
// Marathi, so the default is both.
func NewTesseract(languages []string) (Provider, error) {
	if len(languages) == 0 {
		languages = []string{"eng", "mar"}
	}
	return &Tesseract{languages: languages}, nil
}

// Name implements Provider.
func (t *Tesseract) Name() string { return "tesseract" }

// Recognize implements Provider.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, page int) ([]types.TextSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	spans := make([]types.TextSpan, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		spans = append(spans, types.TextSpan{
			Text:       text,
			Confidence: clamp(b.Confidence / 100),
			Position: types.Position{
				Page: page,
				BBox: types.BBox{float64(b.Box.Min.X), float64(b.Box.Min.Y), float64(b.Box.Max.X), float64(b.Box.Max.Y)},
			},
		})
	}
	return spans, nil
}

func clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
