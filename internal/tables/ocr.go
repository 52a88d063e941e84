package tables

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// LineFilter decides whether an OCR line may belong to a table.
type LineFilter func(line string) bool

// ContainsDigit keeps lines with at least one digit. Result tables in this domain
// always carry a numeric id, roll number or score on every row.
func ContainsDigit(line string) bool {
	return strings.IndexFunc(line, unicode.IsDigit) >= 0
}

// PatternFilter builds a LineFilter from a regular expression.
func PatternFilter(pattern string) (LineFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.MatchString, nil
}

type lineKey struct {
	block, par, line int
}

func (k lineKey) less(o lineKey) bool {
	if k.block != o.block {
		return k.block < o.block
	}
	if k.par != o.par {
		return k.par < o.par
	}
	return k.line < o.line
}

// ReconstructLines joins OCR words that share a line into one string per line.
// Lines come back in ascending line order, words left to right. Words with a
// confidence below minConfidence are dropped; zero keeps everything.
func ReconstructLines(words []Word, minConfidence float64) []string {
	groups := make(map[lineKey][]Word)
	var keys []lineKey

	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" || w.Confidence < minConfidence {
			continue
		}
		k := lineKey{w.Block, w.Par, w.Line}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], w)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		ws := groups[k]
		sort.SliceStable(ws, func(i, j int) bool { return ws[i].Box.Min.X < ws[j].Box.Min.X })

		parts := make([]string, len(ws))
		for i, w := range ws {
			parts[i] = strings.TrimSpace(w.Text)
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

// BuildOCRTable turns reconstructed OCR lines into a table. The first line that
// passes keep is the header; later lines are data rows only when they split into
// exactly as many tokens as the header. It reports false when no table is found.
func BuildOCRTable(lines []string, keep LineFilter) (Table, bool) {
	if keep == nil {
		keep = ContainsDigit
	}

	var candidates []string
	for _, l := range lines {
		if keep(l) {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) < 2 {
		return Table{}, false
	}

	header := NormalizeHeaders(strings.Fields(candidates[0]))

	var rows [][]string
	for _, l := range candidates[1:] {
		tokens := strings.Fields(l)
		if len(tokens) != len(header) {
			continue
		}
		rows = append(rows, tokens)
	}
	if len(rows) == 0 {
		return Table{}, false
	}

	return Table{Header: header, Rows: rows, Source: SourceOCR}, true
}
