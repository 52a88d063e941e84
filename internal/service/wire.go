package service

import (
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/Sanjaay57/pdf2excel/internal/config"
	"github.com/Sanjaay57/pdf2excel/internal/ingestion"
	"github.com/Sanjaay57/pdf2excel/internal/pipeline"
	"github.com/Sanjaay57/pdf2excel/internal/processing"
	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

// OpenText opens the text layer of a PDF for the pipeline.
func OpenText(pdf []byte) (pipeline.TextLayer, error) {
	doc, err := ingestion.OpenPDF(pdf)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// OpenRaster returns a rasterizer factory rendering at dpi.
func OpenRaster(dpi int) func([]byte) (pipeline.Rasterizer, error) {
	return func(pdf []byte) (pipeline.Rasterizer, error) {
		r, err := ingestion.NewFitzRasterizer(pdf, dpi)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// NewPipeline builds the extraction pipeline described by cfg. ocr may be nil,
// in which case runs with OCR enabled fail on the first page without a table.
func NewPipeline(cfg config.Config, ocr pipeline.Recognizer, log *logrus.Entry) (*pipeline.Pipeline, error) {
	p := &pipeline.Pipeline{
		OpenText:      OpenText,
		OpenRaster:    OpenRaster(cfg.OCR.DPI),
		OCR:           ocr,
		MinConfidence: cfg.OCR.MinConfidence,
		Workers:       cfg.Workers,
		Log:           log,
	}
	if cfg.OCR.Preprocess {
		p.Preprocess = processing.Preprocess
	}
	if cfg.OCR.LinePattern != "" {
		filter, err := tables.PatternFilter(cfg.OCR.LinePattern)
		if err != nil {
			return nil, eris.Wrapf(err, "ocr.line_pattern %q", cfg.OCR.LinePattern)
		}
		p.LineFilter = filter
	}
	return p, nil
}
