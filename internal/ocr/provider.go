// Package ocr turns uploaded scans into text spans.
//
// A Pipeline pulls page images out of a PDF (or takes a single image),
// cleans them up for recognition and hands them to a Provider. Providers
// are the only place OCR engines are called.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/jackzampolin/firscan/internal/types"
)

// ErrProviderUnavailable is returned when the configured OCR engine is not
// compiled into this binary.
var ErrProviderUnavailable = errors.New("ocr provider unavailable")

// Provider recognizes the text on one page image. Span positions are in the
// pixel coordinates of img and page is 1-indexed.
type Provider interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, page int) ([]types.TextSpan, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, img image.Image, page int) ([]types.TextSpan, error)

// Name implements Provider.
func (f ProviderFunc) Name() string { return "func" }

// Recognize implements Provider.
func (f ProviderFunc) Recognize(ctx context.Context, img image.Image, page int) ([]types.TextSpan, error) {
	return f(ctx, img, page)
}

// ProviderOptions configure the providers NewProvider can build.
type ProviderOptions struct {
	// Languages are Tesseract language codes.
	Languages []string
	Mistral   MistralConfig
}

// NewProvider returns the provider registered under name.
func NewProvider(name string, opts ProviderOptions) (Provider, error) {
	switch name {
	case "tesseract":
		return NewTesseract(opts.Languages)
	case MistralName:
		return NewMistral(opts.Mistral)
	default:
		return nil, fmt.Errorf("%w: %q", ErrProviderUnavailable, name)
	}
}
