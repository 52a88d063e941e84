package ingestion

import (
	"context"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/rotisserie/eris"
)

// DefaultDPI is the resolution pages are rendered at for OCR.
const DefaultDPI = 300

// FitzRasterizer renders PDF pages with MuPDF. A MuPDF document must not be
// used from several goroutines, so renders are serialized.
type FitzRasterizer struct {
	mu  sync.Mutex
	doc *fitz.Document
	dpi float64
}

func NewFitzRasterizer(data []byte, dpi int) (*FitzRasterizer, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open PDF for rendering")
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRasterizer{doc: doc, dpi: float64(dpi)}, nil
}

// RenderPage renders a 0-based page.
func (r *FitzRasterizer) RenderPage(ctx context.Context, page int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	img, err := r.doc.ImageDPI(page, r.dpi)
	if err != nil {
		return nil, eris.Wrapf(err, "rendering page %d", page+1)
	}
	return img, nil
}

func (r *FitzRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Close()
}
