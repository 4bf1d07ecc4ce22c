//go:build !tesseract

package ocr

import "fmt"

// NewTesseract reports that this binary was built without the tesseract tag.
func NewTesseract([]string) (Provider, error) {
	return nil, fmt.Errorf("%w: built without the tesseract tag", ErrProviderUnavailable)
}
