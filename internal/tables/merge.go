package tables

import (
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrNoTables is returned by Merge when there is nothing to merge.
var ErrNoTables = eris.New("no tables to merge")

// Collector gathers tables from both extraction paths. It is safe for
// concurrent use; Tables always returns a deterministic order.
type Collector struct {
	mu     sync.Mutex
	tables []Table
}

func (c *Collector) Add(ts ...Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = append(c.tables, ts...)
}

// Tables returns text tables ordered by page and position, followed by OCR
// tables ordered by page.
func (c *Collector) Tables() []Table {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := append([]Table(nil), c.tables...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.Index < b.Index
	})
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tables)
}

// Merge concatenates tables into one dataset. Columns are the union of all
// headers in first-seen order; cells for columns a table does not have are null.
func Merge(ts []Table) (*Dataset, error) {
	if len(ts) == 0 {
		return nil, ErrNoTables
	}

	var columns []string
	index := make(map[string]int)
	total := 0
	for _, t := range ts {
		for _, h := range t.Header {
			if _, ok := index[h]; !ok {
				index[h] = len(columns)
				columns = append(columns, h)
			}
		}
		total += len(t.Rows)
	}

	rows := make([][]Cell, 0, total)
	for _, t := range ts {
		for _, row := range t.Rows {
			rec := make([]Cell, len(columns))
			for i := range rec {
				rec[i].Null = true
			}
			for i, h := range t.Header {
				if i < len(row) {
					rec[index[h]] = Cell{Value: row[i]}
				}
			}
			rows = append(rows, rec)
		}
	}

	return &Dataset{Columns: columns, Rows: rows}, nil
}
