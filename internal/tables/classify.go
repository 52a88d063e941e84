package tables

// ClassifyPage turns the raw tables found on one page into normalized tables.
// Tables without at least a header and one data row are ignored. A page with no
// usable table is classified NoTables and becomes an OCR candidate.
func ClassifyPage(page int, raw []RawTable, hasText bool) PageResult {
	res := PageResult{Page: page, Kind: NoTables, HasText: hasText}

	for _, rt := range raw {
		if len(rt) <= 1 {
			continue
		}
		res.Tables = append(res.Tables, normalizeRaw(rt, page, len(res.Tables)))
	}
	if len(res.Tables) > 0 {
		res.Kind = TextTables
	}
	return res
}

func normalizeRaw(rt RawTable, page, index int) Table {
	width := len(rt[0])
	for _, row := range rt[1:] {
		if len(row) > width {
			width = len(row)
		}
	}

	header := make([]string, width)
	copy(header, rt[0])

	rows := make([][]string, 0, len(rt)-1)
	for _, row := range rt[1:] {
		rows = append(rows, append([]string(nil), row...))
	}

	return Table{
		Header: NormalizeHeaders(header),
		Rows:   rows,
		Page:   page,
		Index:  index,
		Source: SourceText,
	}
}
