// Package service ties one conversion together: cache, pipeline, spreadsheet
// encoding, optional Postgres export and history. The CLI and the HTTP server
// both go through Converter.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/Sanjaay57/pdf2excel/internal/export"
	"github.com/Sanjaay57/pdf2excel/internal/ingestion"
	"github.com/Sanjaay57/pdf2excel/internal/pipeline"
	"github.com/Sanjaay57/pdf2excel/internal/storage"
)

// Runner runs the extraction pipeline over one PDF.
type Runner interface {
	Run(ctx context.Context, pdf []byte, ocrEnabled bool) (*pipeline.Result, error)
}

type Converter struct {
	Pipeline Runner
	Cache    *storage.Cache
	History  *storage.History
	ExportDB *sql.DB
	Log      *logrus.Entry
}

type Request struct {
	Document *ingestion.Document
	OCR      bool
	// ExportTable, when set, also copies the dataset into this Postgres table.
	// Cached results are bypassed so the dataset is available.
	ExportTable string
}

type Output struct {
	ID          string
	OutputName  string
	XLSX        []byte
	Rows        int
	Columns     int
	Pages       int
	OCRPages    []int
	OCRFailures []int // empty for cached results
	Cached      bool
	Elapsed     time.Duration
}

// Convert turns req.Document into a spreadsheet. It returns
// pipeline.ErrNoTablesFound when the PDF has no table, and no bytes with it.
func (c *Converter) Convert(ctx context.Context, req Request) (*Output, error) {
	if req.Document == nil || len(req.Document.Data) == 0 {
		return nil, pipeline.Fail("input", eris.New("empty document"))
	}
	if req.ExportTable != "" && c.ExportDB == nil {
		return nil, eris.New("export requested but no export database is configured")
	}
	if req.ExportTable != "" && !storage.ValidTableName(req.ExportTable) {
		return nil, eris.Errorf("invalid export table name %q", req.ExportTable)
	}

	doc := req.Document
	rec := storage.NewConversion(doc.Name, doc.Source, doc.ImportedAt)
	log := c.log().WithFields(logrus.Fields{
		"job_id": rec.ID,
		"file":   doc.Name,
		"ocr":    req.OCR,
	})

	out, err := c.convert(ctx, req, rec.ID, log)
	switch {
	case err == nil:
		rec.Status = storage.StatusDone
		rec.Pages, rec.Rows, rec.Columns = out.Pages, out.Rows, out.Columns
		rec.OCRPages, rec.Cached, rec.Elapsed = out.OCRPages, out.Cached, out.Elapsed
	case errors.Is(err, pipeline.ErrNoTablesFound):
		rec.Status = storage.StatusNoTables
		log.Warn("no tables found")
	default:
		rec.Status = storage.StatusFailed
		rec.Error = err.Error()
		log.WithError(err).Error("conversion failed")
	}

	if herr := c.History.Record(ctx, rec); herr != nil {
		log.WithError(herr).Warn("failed to record conversion")
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Converter) convert(ctx context.Context, req Request, id string, log *logrus.Entry) (*Output, error) {
	start := time.Now()
	doc := req.Document
	key := storage.Key(doc.Data, req.OCR)

	if req.ExportTable == "" {
		cached, err := c.Cache.Get(ctx, key)
		if err == nil {
			log.Info("served from cache")
			return &Output{
				ID:         id,
				OutputName: export.OutputName(doc.Name),
				XLSX:       cached.XLSX,
				Rows:       cached.Rows,
				Columns:    cached.Columns,
				Pages:      cached.Pages,
				OCRPages:   cached.OCRPages,
				Cached:     true,
				Elapsed:    time.Since(start),
			}, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			log.WithError(err).Warn("cache lookup failed")
		}
	}

	if c.Pipeline == nil {
		return nil, pipeline.Fail("setup", eris.New("no pipeline configured"))
	}
	res, err := c.Pipeline.Run(ctx, doc.Data, req.OCR)
	if err != nil {
		return nil, err
	}

	data, err := export.XLSX(res.Dataset)
	if err != nil {
		return nil, pipeline.Fail("serialize", err)
	}

	if req.ExportTable != "" {
		if err := storage.ExportDataset(ctx, c.ExportDB, req.ExportTable, res.Dataset); err != nil {
			return nil, eris.Wrapf(err, "export to table %s", req.ExportTable)
		}
		log.WithField("table", req.ExportTable).Info("dataset exported to Postgres")
	}

	out := &Output{
		ID:          id,
		OutputName:  export.OutputName(doc.Name),
		XLSX:        data,
		Rows:        res.Dataset.Len(),
		Columns:     len(res.Dataset.Columns),
		Pages:       res.Pages,
		OCRPages:    res.OCRPages,
		OCRFailures: res.OCRFailures,
		Elapsed:     time.Since(start),
	}

	if err := c.Cache.Set(ctx, key, &storage.CachedResult{
		XLSX:     out.XLSX,
		Pages:    out.Pages,
		Rows:     out.Rows,
		Columns:  out.Columns,
		OCRPages: out.OCRPages,
	}); err != nil {
		log.WithError(err).Warn("failed to cache result")
	}
	return out, nil
}

func (c *Converter) log() *logrus.Entry {
	if c.Log != nil {
		return c.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
