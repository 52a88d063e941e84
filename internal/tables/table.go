// Package tables holds the table model and the pure steps of the conversion:
// header normalization, page classification, OCR line reconstruction and merging.
package tables

import "image"

// RawTable is a table as it comes out of an extractor: row 0 is the header,
// the rest are data rows. Rows may have different lengths.
type RawTable [][]string

// Source records which extraction path produced a table.
type Source int

const (
	SourceText Source = iota
	SourceOCR
)

func (s Source) String() string {
	if s == SourceOCR {
		return "ocr"
	}
	return "text"
}

// Table is a table whose header has been normalized.
type Table struct {
	Header []string
	Rows   [][]string
	Page   int // 0-based
	Index  int // position of the table on its page
	Source Source
}

// Word is one recognized OCR fragment.
type Word struct {
	Text       string
	Block      int
	Par        int
	Line       int
	Box        image.Rectangle
	Confidence float64
}

// PageKind classifies a page after text extraction.
type PageKind int

const (
	NotAttempted PageKind = iota
	NoTables
	TextTables
)

func (k PageKind) String() string {
	switch k {
	case TextTables:
		return "text_tables"
	case NoTables:
		return "no_tables"
	default:
		return "not_attempted"
	}
}

type PageResult struct {
	Page    int
	Kind    PageKind
	Tables  []Table
	HasText bool
}

// NeedsOCR reports whether the page is a candidate for the OCR fallback.
func (r PageResult) NeedsOCR() bool {
	return r.Kind != TextTables
}

// Cell is a single dataset value. Null marks a column the source table did not have.
type Cell struct {
	Value string
	Null  bool
}

// Dataset is the merged result of all collected tables.
type Dataset struct {
	Columns []string
	Rows    [][]Cell
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}
