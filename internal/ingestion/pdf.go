package ingestion

import (
	"bytes"
	"sync"

	pdf "github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"

	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

// PDFDocument reads the text layer of an in-memory PDF.
type PDFDocument struct {
	mu     sync.Mutex
	reader *pdf.Reader
	info   Info
}

// OpenPDF validates the PDF and prepares it for text-layer extraction.
// It fails only when neither pdfcpu nor the text-layer reader can read it.
func OpenPDF(data []byte) (*PDFDocument, error) {
	return openPDF(data, Inspect)
}

func openPDF(data []byte, inspect func([]byte) (Info, error)) (*PDFDocument, error) {
	info, inspectErr := inspect(data)

	r, err := newReader(data)
	if err != nil {
		if inspectErr != nil {
			return nil, eris.Wrapf(err, "failed to open PDF (%v)", inspectErr)
		}
		return nil, eris.Wrap(err, "failed to open PDF")
	}
	if inspectErr != nil {
		info = Info{ReadErr: inspectErr}
	}
	if info.Pages == 0 {
		info.Pages = r.NumPage()
	}
	return &PDFDocument{reader: r, info: info}, nil
}

// newReader opens the text layer. A document pdfcpu rejected can still reach
// here, and ledongthuc panics on some broken structures.
func newReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, eris.Errorf("reading PDF structure: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func (d *PDFDocument) Info() Info { return d.info }

func (d *PDFDocument) NumPage() int { return d.reader.NumPage() }

// ExtractTables returns the column-aligned tables found on a 0-based page.
func (d *PDFDocument) ExtractTables(page int) ([]tables.RawTable, error) {
	gs, err := d.glyphs(page)
	if err != nil {
		return nil, err
	}
	return detectTables(gs), nil
}

// ExtractText returns the plain text of a 0-based page.
func (d *PDFDocument) ExtractText(page int) (string, error) {
	gs, err := d.glyphs(page)
	if err != nil {
		return "", err
	}
	return plainText(gs), nil
}

func (d *PDFDocument) glyphs(page int) (out []glyph, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if page < 0 || page >= d.reader.NumPage() {
		return nil, eris.Errorf("page index %d out of range [0, %d)", page, d.reader.NumPage())
	}

	// the content stream parser panics on malformed input
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = eris.Errorf("page %d: reading content: %v", page+1, r)
		}
	}()

	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return nil, nil
	}
	for _, t := range p.Content().Text {
		out = append(out, glyph{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
	}
	return out, nil
}
