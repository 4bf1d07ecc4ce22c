package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/firscan/internal/types"
)

// ErrUnsupportedFormat is returned for uploads that are neither a PDF nor a
// decodable image.
var ErrUnsupportedFormat = errors.New("unsupported upload format")

// Options configure a Pipeline.
type Options struct {
	Preprocess PreprocessOptions
	// MaxPages rejects longer PDFs; 0 means no limit.
	MaxPages int
	// Workers bounds pages recognized at once.
	Workers int
}

// Pipeline runs uploads through page extraction, preprocessing and
// recognition.
type Pipeline struct {
	provider Provider
	opts     Options
	logger   *slog.Logger
}

// NewPipeline creates a Pipeline around provider.
func NewPipeline(provider Provider, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{provider: provider, opts: opts, logger: logger}
}

// Provider returns the recognition provider.
func (p *Pipeline) Provider() Provider {
	return p.provider
}

// Process recognizes an uploaded file, either a PDF or a single page image,
// and returns its spans in page order.
func (p *Pipeline) Process(ctx context.Context, data []byte) ([]types.TextSpan, error) {
	start := time.Now()
	var pages []Page
	if bytes.HasPrefix(data, []byte("%PDF")) {
		var err error
		pages, err = PageImages(bytes.NewReader(data), p.opts.MaxPages)
		if err != nil {
			return nil, err
		}
	} else {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		pages = []Page{{Number: 1, Image: img}}
	}

	spans, err := p.Recognize(ctx, pages)
	if err != nil {
		return nil, err
	}
	p.logger.Info("ocr complete",
		"provider", p.provider.Name(),
		"pages", len(pages),
		"spans", len(spans),
		"duration", time.Since(start))
	return spans, nil
}

// Recognize preprocesses and recognizes pages concurrently. Spans keep page
// order and the provider's order within a page.
func (p *Pipeline) Recognize(ctx context.Context, pages []Page) ([]types.TextSpan, error) {
	perPage := make([][]types.TextSpan, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			clean := Preprocess(page.Image, p.opts.Preprocess)
			spans, err := p.provider.Recognize(gctx, clean, page.Number)
			if err != nil {
				return fmt.Errorf("page %d: %w", page.Number, err)
			}
			for j := range spans {
				spans[j].Position.Page = page.Number
				if err := spans[j].Validate(); err != nil {
					return fmt.Errorf("page %d span %d: %w", page.Number, j, err)
				}
			}
			perPage[i] = spans
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.TextSpan
	for _, spans := range perPage {
		out = append(out, spans...)
	}
	return out, nil
}
