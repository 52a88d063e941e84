package ingestion

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// Info is what pdfcpu can tell about a document before extraction starts.
type Info struct {
	Pages    int
	Title    string
	Author   string
	Producer string
	// ValidationErr is set when the document parsed but is not standard conforming.
	ValidationErr error
	// ReadErr is set when pdfcpu could not parse the document and only the
	// text-layer reader accepted it.
	ReadErr error
}

// Inspect parses the PDF with pdfcpu in relaxed mode. A document that cannot be
// parsed is an error; a document that only fails validation is reported in Info.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, eris.New("empty PDF")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return Info{}, eris.Wrap(err, "failed to read PDF")
	}

	var info Info
	if err := api.ValidateContext(ctx); err != nil {
		info.ValidationErr = err
	}
	if ctx.XRefTable != nil {
		info.Pages = ctx.PageCount
		info.Title = ctx.Title
		info.Author = ctx.Author
		info.Producer = ctx.Producer
	}
	return info, nil
}
