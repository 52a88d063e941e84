// Package pipeline converts the pages of one PDF into a merged dataset: text-layer
// tables first, OCR for the pages that had none.
package pipeline

import (
	"context"
	"image"
	"runtime"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sanjaay57/pdf2excel/internal/ingestion"
	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

// TextLayer reads tables and text straight from the PDF. Pages are 0-based.
type TextLayer interface {
	NumPage() int
	ExtractTables(page int) ([]tables.RawTable, error)
	ExtractText(page int) (string, error)
}

// Describer is implemented by text layers that know the document metadata.
type Describer interface {
	Info() ingestion.Info
}

// Rasterizer renders pages to images for OCR.
type Rasterizer interface {
	RenderPage(ctx context.Context, page int) (image.Image, error)
	Close() error
}

// Recognizer returns the words found on an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]tables.Word, error)
}

type Pipeline struct {
	OpenText   func(pdf []byte) (TextLayer, error)
	OpenRaster func(pdf []byte) (Rasterizer, error)
	OCR        Recognizer

	// Preprocess, when set, is applied to every rendered page before OCR.
	Preprocess func(image.Image) image.Image
	// LineFilter selects OCR lines that may be table rows. Nil means tables.ContainsDigit.
	LineFilter tables.LineFilter
	// MinConfidence drops OCR words scored below it.
	MinConfidence float64
	Workers       int

	Log *logrus.Entry
}

// Result is a finished run.
type Result struct {
	Dataset       *tables.Dataset
	Pages         int
	Tables        int
	TextPages     []int // 1-based pages with text-layer tables
	OCRPages      []int // 1-based pages OCR was applied to
	TextOnlyPages []int // 1-based pages with text but no table
	OCRFailures   []int // 1-based pages whose OCR failed
	Elapsed       time.Duration
}

// Run converts one PDF. It returns ErrNoTablesFound when nothing was extracted
// and an error matching ErrPipelineFailure when the run was aborted.
func (p *Pipeline) Run(ctx context.Context, pdf []byte, ocrEnabled bool) (*Result, error) {
	start := time.Now()
	s := &State{PDF: pdf, OCREnabled: ocrEnabled}

	nodes := []node{
		{"open", p.openNode},
		{"text extraction", p.textNode},
		{"ocr", p.ocrNode},
		{"merge", p.mergeNode},
	}
	if err := RunWorkflow(ctx, s, nodes); err != nil {
		return nil, err
	}

	res := &Result{
		Dataset:     s.Dataset,
		Pages:       len(s.Pages),
		Tables:      s.Collector.Len(),
		OCRPages:    oneBased(s.OCRPages),
		OCRFailures: oneBased(s.OCRFailures),
		Elapsed:     time.Since(start),
	}
	for _, pr := range s.Pages {
		switch {
		case pr.Kind == tables.TextTables:
			res.TextPages = append(res.TextPages, pr.Page+1)
		case pr.HasText:
			res.TextOnlyPages = append(res.TextOnlyPages, pr.Page+1)
		}
	}

	p.log().WithFields(logrus.Fields{
		"pages":     res.Pages,
		"tables":    res.Tables,
		"rows":      res.Dataset.Len(),
		"ocr_pages": res.OCRPages,
		"elapsed":   res.Elapsed,
	}).Info("conversion finished")
	return res, nil
}

func (p *Pipeline) openNode(ctx context.Context, s *State) error {
	if p.OpenText == nil {
		return eris.New("no text extractor configured")
	}
	doc, err := p.OpenText(s.PDF)
	if err != nil {
		return err
	}
	s.Text = doc

	if d, ok := doc.(Describer); ok {
		p.logInfo(d.Info())
	}
	return nil
}

func (p *Pipeline) logInfo(info ingestion.Info) {
	log := p.log().WithFields(logrus.Fields{
		"pages":    info.Pages,
		"title":    info.Title,
		"author":   info.Author,
		"producer": info.Producer,
	})
	switch {
	case info.ReadErr != nil:
		log.WithError(info.ReadErr).Warn("PDF structure unreadable, using text layer only")
	case info.ValidationErr != nil:
		log.WithError(info.ValidationErr).Warn("PDF is not standard conforming")
	default:
		log.Debug("document opened")
	}
}

func (p *Pipeline) textNode(ctx context.Context, s *State) error {
	n := s.Text.NumPage()
	s.Pages = make([]tables.PageResult, n)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := p.classifyPage(s.Text, i)
		s.Pages[i] = res
		s.Collector.Add(res.Tables...)
	}
	return nil
}

func (p *Pipeline) classifyPage(doc TextLayer, page int) tables.PageResult {
	log := p.log().WithField("page", page+1)

	raw, err := doc.ExtractTables(page)
	if err != nil {
		log.WithError(err).Warn("text extraction failed")
		return tables.PageResult{Page: page, Kind: tables.NotAttempted}
	}

	res := tables.ClassifyPage(page, raw, false)
	if res.Kind == tables.TextTables {
		log.WithField("tables", len(res.Tables)).Debug("text-layer tables found")
		return res
	}

	text, err := doc.ExtractText(page)
	if err == nil && strings.TrimSpace(text) != "" {
		res.HasText = true
		log.Info("page has text but no tables")
	}
	return res
}

func (p *Pipeline) ocrNode(ctx context.Context, s *State) error {
	if !s.OCREnabled {
		return nil
	}

	var candidates []int
	for _, pr := range s.Pages {
		if pr.NeedsOCR() {
			candidates = append(candidates, pr.Page)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	if p.OpenRaster == nil || p.OCR == nil {
		return eris.New("OCR enabled but no OCR engine configured")
	}

	raster, err := p.OpenRaster(s.PDF)
	if err != nil {
		return err
	}
	defer raster.Close()

	applied := make([]bool, len(s.Pages))
	failed := make([]bool, len(s.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for _, page := range candidates {
		page := page
		g.Go(func() error {
			ok, err := p.ocrPage(gctx, raster, page, &s.Collector)
			if err != nil {
				failed[page] = true
				p.log().WithField("page", page+1).WithError(err).Warn("OCR failed")
				return nil
			}
			applied[page] = true
			if !ok {
				p.log().WithField("page", page+1).Debug("no usable OCR lines")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range applied {
		if applied[i] {
			s.OCRPages = append(s.OCRPages, i)
		}
		if failed[i] {
			s.OCRFailures = append(s.OCRFailures, i)
		}
	}
	return nil
}

func (p *Pipeline) ocrPage(ctx context.Context, raster Rasterizer, page int, c *tables.Collector) (bool, error) {
	img, err := raster.RenderPage(ctx, page)
	if err != nil {
		return false, err
	}
	if p.Preprocess != nil {
		img = p.Preprocess(img)
	}

	words, err := p.OCR.Recognize(ctx, img)
	if err != nil {
		return false, err
	}

	t, ok := tables.BuildOCRTable(tables.ReconstructLines(words, p.MinConfidence), p.LineFilter)
	if !ok {
		return false, nil
	}
	t.Page = page
	c.Add(t)
	return true, nil
}

func (p *Pipeline) mergeNode(ctx context.Context, s *State) error {
	ts := s.Collector.Tables()
	if len(ts) == 0 {
		return ErrNoTablesFound
	}
	ds, err := tables.Merge(ts)
	if err != nil {
		return err
	}
	s.Dataset = ds
	return nil
}

func (p *Pipeline) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

func (p *Pipeline) log() *logrus.Entry {
	if p.Log != nil {
		return p.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func oneBased(pages []int) []int {
	if len(pages) == 0 {
		return nil
	}
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p + 1
	}
	return out
}
