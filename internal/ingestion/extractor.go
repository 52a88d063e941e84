package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DrivePrefix marks a source reference as a Google Drive file id.
const DrivePrefix = "gdrive:"

// ErrUnsupported is returned for inputs that are not PDFs.
var ErrUnsupported = eris.New("unsupported file type")

// Document is a PDF loaded into memory together with where it came from.
type Document struct {
	Name       string
	Source     string // "local", "gdrive" or "upload"
	Data       []byte
	ImportedAt time.Time
}

// Load reads a local path or a "gdrive:<id>" reference.
func Load(ctx context.Context, ref string, drive *DriveClient) (*Document, error) {
	if id, ok := strings.CutPrefix(ref, DrivePrefix); ok {
		name, data, err := drive.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Document{Name: name, Source: "gdrive", Data: data, ImportedAt: time.Now()}, nil
	}

	if !isAllowed(ref) {
		return nil, eris.Wrapf(ErrUnsupported, "%s", ref)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, eris.Wrapf(err, "reading %s", ref)
	}
	return &Document{Name: filepath.Base(ref), Source: "local", Data: data, ImportedAt: time.Now()}, nil
}

// FromUpload wraps bytes received over HTTP.
func FromUpload(name string, data []byte) (*Document, error) {
	if !isAllowed(name) {
		return nil, eris.Wrapf(ErrUnsupported, "%s", name)
	}
	return &Document{Name: filepath.Base(name), Source: "upload", Data: data, ImportedAt: time.Now()}, nil
}
