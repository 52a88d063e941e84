package storage

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/rotisserie/eris"

	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// OpenExportDB opens the database datasets are exported to.
func OpenExportDB(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, eris.Wrap(err, "open export database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "ping export database")
	}
	return db, nil
}

// ValidTableName reports whether name can be used as an export table.
func ValidTableName(name string) bool {
	return tableNameRe.MatchString(name)
}

// createTableSQL builds a table with one nullable TEXT column per dataset column.
func createTableSQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pq.QuoteIdentifier(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pq.QuoteIdentifier(c))
		b.WriteString(" TEXT")
	}
	b.WriteString(")")
	return b.String()
}

// ExportDataset copies ds into table, creating it when missing. Null cells are
// stored as SQL NULL. The copy runs in one transaction.
func ExportDataset(ctx context.Context, db *sql.DB, table string, ds *tables.Dataset) error {
	if !ValidTableName(table) {
		return eris.Errorf("invalid table name %q", table)
	}
	if ds == nil || len(ds.Columns) == 0 {
		return eris.New("empty dataset")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin export")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL(table, ds.Columns)); err != nil {
		return eris.Wrapf(err, "create table %s", table)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, ds.Columns...))
	if err != nil {
		return eris.Wrap(err, "prepare copy")
	}

	for _, row := range ds.Rows {
		if _, err := stmt.ExecContext(ctx, rowValues(row)...); err != nil {
			stmt.Close()
			return eris.Wrap(err, "copy row")
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return eris.Wrap(err, "flush copy")
	}
	if err := stmt.Close(); err != nil {
		return eris.Wrap(err, "close copy")
	}

	return eris.Wrap(tx.Commit(), "commit export")
}

func rowValues(row []tables.Cell) []interface{} {
	vals := make([]interface{}, len(row))
	for i, c := range row {
		if !c.Null {
			vals[i] = c.Value
		}
	}
	return vals
}
