// Package tesseract adapts gosseract to word-level recognition of page images.
// It needs libtesseract at build time.
package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strconv"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

// Engine recognizes words on page images. A new gosseract client is created
// for every image, so one Engine may serve several goroutines.
type Engine struct {
	Languages []string
	// PSM defaults to PSM_SINGLE_BLOCK.
	PSM gosseract.PageSegMode
	DPI int

	newClient func() *gosseract.Client
}

func New(languages []string, psm, dpi int) *Engine {
	if psm <= 0 {
		psm = int(gosseract.PSM_SINGLE_BLOCK)
	}
	return &Engine{
		Languages: languages,
		PSM:       gosseract.PageSegMode(psm),
		DPI:       dpi,
		newClient: gosseract.NewClient,
	}
}

// Recognize returns every recognized word with its block, paragraph and line numbers.
func (t *Engine) Recognize(ctx context.Context, img image.Image) ([]tables.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, eris.Wrap(err, "encode page image")
	}

	c := t.newClient()
	defer c.Close()

	if len(t.Languages) > 0 {
		if err := c.SetLanguage(t.Languages...); err != nil {
			return nil, eris.Wrap(err, "set languages")
		}
	}
	if err := c.SetPageSegMode(t.PSM); err != nil {
		return nil, eris.Wrap(err, "set page segmentation mode")
	}
	if t.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(t.DPI)); err != nil {
			return nil, eris.Wrap(err, "set dpi")
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, eris.Wrap(err, "set image")
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, eris.Wrap(err, "recognize words")
	}

	words := make([]tables.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, tables.Word{
			Text:       norm.NFC.String(b.Word),
			Block:      b.BlockNum,
			Par:        b.ParNum,
			Line:       b.LineNum,
			Box:        b.Box,
			Confidence: b.Confidence,
		})
	}
	return words, nil
}
