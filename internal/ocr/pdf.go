package ocr

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrNoPages is returned for a PDF without any page images.
	ErrNoPages = errors.New("pdf has no page images")
	// ErrInvalidPDF is returned when the PDF cannot be read.
	ErrInvalidPDF = errors.New("invalid pdf")
	// ErrTooManyPages is returned when a PDF exceeds the page limit.
	ErrTooManyPages = errors.New("pdf exceeds page limit")
)

// Page is one page image of a scanned document.
type Page struct {
	Number int
	Image  image.Image
}

// pdfConfig relaxes validation; scanner firmware writes sloppy PDFs.
func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageImages extracts the scanned image of every page of a PDF. When a page
// embeds several images the largest is taken. Pages without an image are
// skipped.
func PageImages(rs io.ReadSeeker, maxPages int) ([]Page, error) {
	conf := pdfConfig()
	count, err := api.PageCount(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: page count: %v", ErrInvalidPDF, err)
	}
	if maxPages > 0 && count > maxPages {
		return nil, fmt.Errorf("%w: %d pages, limit is %d", ErrTooManyPages, count, maxPages)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind pdf: %w", err)
	}

	largest := make(map[int]image.Image)
	err = api.ExtractImages(rs, nil, func(img model.Image, _ bool, _ int) error {
		decoded, err := imaging.Decode(img)
		if err != nil {
			// Masks and exotic filters are not page scans.
			return nil
		}
		if cur, ok := largest[img.PageNr]; ok && area(cur) >= area(decoded) {
			return nil
		}
		largest[img.PageNr] = decoded
		return nil
	}, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: extract images: %v", ErrInvalidPDF, err)
	}
	if len(largest) == 0 {
		return nil, ErrNoPages
	}

	pages := make([]Page, 0, len(largest))
	for n, img := range largest {
		pages = append(pages, Page{Number: n, Image: img})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}
