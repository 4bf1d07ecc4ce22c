package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/firscan/internal/types"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestPreprocess(t *testing.T) {
	out := Preprocess(testImage(50, 100), PreprocessOptions{MinHeight: 200, Contrast: 20, Sharpen: 1})
	if got := out.Bounds().Dy(); got != 200 {
		t.Errorf("height = %d, want 200", got)
	}
	if got := out.Bounds().Dx(); got != 100 {
		t.Errorf("width = %d, want 100", got)
	}
	c := out.NRGBAAt(50, 100)
	if c.R != c.G || c.G != c.B {
		t.Errorf("pixel %v is not gray", c)
	}

	bw := Preprocess(testImage(10, 10), PreprocessOptions{Threshold: 250})
	if c := bw.NRGBAAt(5, 5); c.R != 0 {
		t.Errorf("binarized pixel = %v, want black", c)
	}
}

func TestPipeline_ProcessImage(t *testing.T) {
	var calls atomic.Int32
	provider := ProviderFunc(func(_ context.Context, img image.Image, page int) ([]types.TextSpan, error) {
		calls.Add(1)
		if img.Bounds().Dy() != 40 {
			t.Errorf("provider got height %d, want 40", img.Bounds().Dy())
		}
		return []types.TextSpan{
			{Text: "FIR No. 0569/2025", Confidence: 0.93},
			{Text: "District: Pune", Confidence: 0.88},
		}, nil
	})
	p := NewPipeline(provider, Options{}, nil)

	got, err := p.Process(context.Background(), encodePNG(t, testImage(30, 40)))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := []types.TextSpan{
		{Text: "FIR No. 0569/2025", Confidence: 0.93, Position: types.Position{Page: 1}},
		{Text: "District: Pune", Confidence: 0.88, Position: types.Position{Page: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Process() mismatch (-want +got):\n%s", diff)
	}
	if calls.Load() != 1 {
		t.Errorf("provider called %d times, want 1", calls.Load())
	}
}

func TestPipeline_RecognizeKeepsPageOrder(t *testing.T) {
	provider := ProviderFunc(func(_ context.Context, _ image.Image, page int) ([]types.TextSpan, error) {
		return []types.TextSpan{{Text: string(rune('a' + page)), Confidence: 1}}, nil
	})
	p := NewPipeline(provider, Options{Workers: 3}, nil)

	pages := make([]Page, 5)
	for i := range pages {
		pages[i] = Page{Number: i + 1, Image: testImage(4, 4)}
	}
	got, err := p.Recognize(context.Background(), pages)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	var texts []string
	for _, s := range got {
		texts = append(texts, s.Text)
	}
	if diff := cmp.Diff([]string{"b", "c", "d", "e", "f"}, texts); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_Errors(t *testing.T) {
	ok := ProviderFunc(func(context.Context, image.Image, int) ([]types.TextSpan, error) {
		return nil, nil
	})
	tests := []struct {
		name     string
		provider Provider
		data     []byte
		check    func(error) bool
	}{
		{"not an image", ok, []byte("hello"), func(err error) bool { return errors.Is(err, ErrUnsupportedFormat) }},
		{"broken pdf", ok, []byte("%PDF-1.4 garbage"), func(err error) bool { return errors.Is(err, ErrInvalidPDF) }},
		{"bad confidence", ProviderFunc(func(context.Context, image.Image, int) ([]types.TextSpan, error) {
			return []types.TextSpan{{Text: "x", Confidence: 7}}, nil
		}), nil, func(err error) bool { return err != nil }},
		{"provider failure", ProviderFunc(func(context.Context, image.Image, int) ([]types.TextSpan, error) {
			return nil, errors.New("engine crashed")
		}), nil, func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			if data == nil {
				data = encodePNG(t, testImage(8, 8))
			}
			_, err := NewPipeline(tt.provider, Options{}, nil).Process(context.Background(), data)
			if !tt.check(err) {
				t.Errorf("Process() error = %v", err)
			}
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider("abbyy", ProviderOptions{}); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("NewProvider() error = %v, want ErrProviderUnavailable", err)
	}
}
