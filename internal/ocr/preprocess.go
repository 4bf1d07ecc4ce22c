package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// PreprocessOptions control page cleanup before recognition.
type PreprocessOptions struct {
	// MinHeight upscales pages shorter than this many pixels.
	MinHeight int `mapstructure:"min_height" yaml:"min_height"`
	// Contrast is passed to imaging.AdjustContrast, in [-100, 100].
	Contrast float64 `mapstructure:"contrast" yaml:"contrast"`
	// Sharpen is the sigma of the sharpening filter; 0 disables it.
	Sharpen float64 `mapstructure:"sharpen" yaml:"sharpen"`
	// Threshold binarizes the page at this brightness; 0 disables it.
	Threshold uint8 `mapstructure:"threshold" yaml:"threshold"`
}

// DefaultPreprocess suits 200-300 dpi scans of printed FIR forms.
var DefaultPreprocess = PreprocessOptions{
	MinHeight: 2000,
	Contrast:  40,
	Sharpen:   1.0,
}

// Preprocess returns a grayscale, optionally upscaled, sharpened and
// binarized copy of img.
func Preprocess(img image.Image, opts PreprocessOptions) *image.NRGBA {
	out := imaging.Grayscale(img)
	if h := out.Bounds().Dy(); opts.MinHeight > 0 && h > 0 && h < opts.MinHeight {
		out = imaging.Resize(out, 0, opts.MinHeight, imaging.Lanczos)
	}
	if opts.Sharpen > 0 {
		out = imaging.Sharpen(out, opts.Sharpen)
	}
	if opts.Contrast != 0 {
		out = imaging.AdjustContrast(out, opts.Contrast)
	}
	if opts.Threshold > 0 {
		t := opts.Threshold
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			if c.R > t {
				return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			return color.NRGBA{A: 255}
		})
	}
	return out
}
