package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// ErrHistoryDisabled is returned by History reads when no database is configured.
var ErrHistoryDisabled = eris.New("conversion history is not configured")

const (
	StatusDone     = "done"
	StatusNoTables = "no_tables"
	StatusFailed   = "failed"
)

// Conversion is one row of the conversions table.
type Conversion struct {
	ID         string        `json:"id"`
	FileName   string        `json:"file_name"`
	Source     string        `json:"source"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Pages      int           `json:"pages"`
	Rows       int           `json:"rows"`
	Columns    int           `json:"columns"`
	OCRPages   []int         `json:"ocr_pages"`
	Cached     bool          `json:"cached"`
	Elapsed    time.Duration `json:"elapsed"`
	ImportedAt time.Time     `json:"imported_at"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewConversion starts a record with a fresh id. importedAt is when the PDF was
// read in; a zero value means now.
func NewConversion(fileName, source string, importedAt time.Time) *Conversion {
	now := time.Now().UTC()
	if importedAt.IsZero() {
		importedAt = now
	}
	return &Conversion{
		ID:         uuid.NewString(),
		FileName:   fileName,
		Source:     source,
		ImportedAt: importedAt.UTC(),
		CreatedAt:  now,
	}
}

// History records conversions in Postgres. A History without a pool drops writes.
type History struct {
	pool *pgxpool.Pool
}

// InitDB connects to Postgres at url.
func InitDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to Postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "failed to reach Postgres")
	}
	return pool, nil
}

func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool}
}

func (h *History) Enabled() bool { return h != nil && h.pool != nil }

const createConversionsSQL = `
CREATE TABLE IF NOT EXISTS conversions (
	id          UUID PRIMARY KEY,
	file_name   TEXT NOT NULL,
	source      TEXT NOT NULL,
	status      VARCHAR(20) NOT NULL,
	error       TEXT,
	pages       INTEGER NOT NULL DEFAULT 0,
	row_count   INTEGER NOT NULL DEFAULT 0,
	col_count   INTEGER NOT NULL DEFAULT 0,
	ocr_pages   INTEGER[],
	cached      BOOLEAN NOT NULL DEFAULT FALSE,
	elapsed_ms  BIGINT NOT NULL DEFAULT 0,
	imported_at TIMESTAMP,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
ALTER TABLE conversions ADD COLUMN IF NOT EXISTS imported_at TIMESTAMP;
CREATE INDEX IF NOT EXISTS conversions_created_at_idx ON conversions (created_at DESC);
`

func (h *History) EnsureSchema(ctx context.Context) error {
	if !h.Enabled() {
		return nil
	}
	_, err := h.pool.Exec(ctx, createConversionsSQL)
	return eris.Wrap(err, "create conversions table")
}

func (h *History) Record(ctx context.Context, c *Conversion) error {
	if !h.Enabled() || c == nil {
		return nil
	}
	_, err := h.pool.Exec(ctx,
		`INSERT INTO conversions
			(id, file_name, source, status, error, pages, row_count, col_count, ocr_pages, cached, elapsed_ms, imported_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.FileName, c.Source, c.Status, c.Error, c.Pages, c.Rows, c.Columns,
		c.OCRPages, c.Cached, c.Elapsed.Milliseconds(), c.ImportedAt, c.CreatedAt)
	return eris.Wrap(err, "insert conversion")
}

// Recent returns the newest conversions first.
func (h *History) Recent(ctx context.Context, limit int) ([]Conversion, error) {
	if !h.Enabled() {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.pool.Query(ctx,
		`SELECT id::text, file_name, source, status, COALESCE(error, ''), pages, row_count, col_count,
			ocr_pages, cached, elapsed_ms, COALESCE(imported_at, created_at), created_at
		FROM conversions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "query conversions")
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var (
			c         Conversion
			elapsedMS int64
		)
		if err := rows.Scan(&c.ID, &c.FileName, &c.Source, &c.Status, &c.Error, &c.Pages, &c.Rows, &c.Columns,
			&c.OCRPages, &c.Cached, &elapsedMS, &c.ImportedAt, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "scan conversion")
		}
		c.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "iterate conversions")
}

func (h *History) Close() {
	if h.Enabled() {
		h.pool.Close()
	}
}
