package ingestion

import (
	"math"
	"sort"
	"strings"

	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

// glyph is a positioned run of text on a page, in PDF user space (Y grows upward).
type glyph struct {
	X, Y, W float64
	Size    float64
	S       string
}

type cell struct {
	x0, x1 float64
	text   string
}

type textLine struct {
	y     float64
	size  float64
	cells []cell
}

// detectTables finds column-aligned blocks of text. A block starts at a line
// that splits into two or more cells; the line with the most cells defines the
// columns. A single-cell line stays in an open block when it sits under exactly
// one column at the block's line spacing, so sparse rows keep their place.
func detectTables(glyphs []glyph) []tables.RawTable {
	var out []tables.RawTable
	var block []textLine

	flush := func() {
		if len(block) >= 2 {
			out = append(out, alignBlock(block))
		}
		block = nil
	}

	for _, l := range groupLines(glyphs) {
		switch {
		case len(l.cells) >= 2:
			block = append(block, l)
		case len(block) > 0 && continuesBlock(block, l):
			block = append(block, l)
		default:
			flush()
		}
	}
	flush()
	return out
}

// continuesBlock reports whether a single-cell line belongs to the open block.
func continuesBlock(block []textLine, l textLine) bool {
	if len(l.cells) != 1 {
		return false
	}

	prev := block[len(block)-1]
	if prev.y-l.y > maxLineGap(block) {
		return false
	}

	hits := 0
	for _, a := range widestLine(block).cells {
		if overlap(l.cells[0], a) > 0 {
			hits++
		}
	}
	return hits == 1
}

// maxLineGap is the largest vertical step that still counts as the next row.
func maxLineGap(block []textLine) float64 {
	step := math.Inf(1)
	for i := 1; i < len(block); i++ {
		step = math.Min(step, block[i-1].y-block[i].y)
	}
	if math.IsInf(step, 1) || step <= 0 {
		return block[0].size * 2
	}
	return step * 1.5
}

// plainText renders the glyphs line by line, top to bottom.
func plainText(glyphs []glyph) string {
	var sb strings.Builder
	for _, l := range groupLines(glyphs) {
		parts := make([]string, len(l.cells))
		for i, c := range l.cells {
			parts[i] = c.text
		}
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func fontSize(g glyph) float64 {
	if g.Size <= 0 {
		return 10
	}
	return g.Size
}

func groupLines(glyphs []glyph) []textLine {
	gs := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			gs = append(gs, g)
		}
	}
	if len(gs) == 0 {
		return nil
	}

	sort.SliceStable(gs, func(i, j int) bool { return gs[i].Y > gs[j].Y })

	var lines []textLine
	cur := []glyph{gs[0]}
	y := gs[0].Y
	for _, g := range gs[1:] {
		if math.Abs(g.Y-y) <= math.Max(2, fontSize(g)*0.4) {
			cur = append(cur, g)
			continue
		}
		lines = append(lines, splitCells(y, cur))
		cur = []glyph{g}
		y = g.Y
	}
	lines = append(lines, splitCells(y, cur))

	kept := lines[:0]
	for _, l := range lines {
		if len(l.cells) > 0 {
			kept = append(kept, l)
		}
	}
	return kept
}

// splitCells walks a line left to right. Small gaps separate words, gaps wider
// than about one em separate cells.
func splitCells(y float64, gs []glyph) textLine {
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].X < gs[j].X })

	line := textLine{y: y}
	for _, g := range gs {
		line.size = math.Max(line.size, fontSize(g))
	}
	var sb strings.Builder
	var cur cell
	open := false
	pendingSpace := false
	end := 0.0

	closeCell := func() {
		if open {
			cur.text = strings.TrimSpace(sb.String())
			if cur.text != "" {
				line.cells = append(line.cells, cur)
			}
		}
		sb.Reset()
		open = false
		pendingSpace = false
	}

	for _, g := range gs {
		if strings.TrimSpace(g.S) == "" {
			pendingSpace = open
			continue
		}
		size := fontSize(g)
		gap := g.X - end
		switch {
		case !open:
		case gap > math.Max(size, 4):
			closeCell()
		case gap > size*0.2 || pendingSpace:
			sb.WriteByte(' ')
		}
		if !open {
			cur = cell{x0: g.X}
			open = true
		}
		pendingSpace = false
		sb.WriteString(g.S)
		end = g.X + g.W
		cur.x1 = end
	}
	closeCell()
	return line
}

func widestLine(block []textLine) textLine {
	widest := block[0]
	for _, l := range block[1:] {
		if len(l.cells) > len(widest.cells) {
			widest = l
		}
	}
	return widest
}

func overlap(a, b cell) float64 {
	return math.Min(a.x1, b.x1) - math.Max(a.x0, b.x0)
}

func alignBlock(block []textLine) tables.RawTable {
	anchors := widestLine(block).cells

	rt := make(tables.RawTable, 0, len(block))
	for _, l := range block {
		row := make([]string, len(anchors))
		for _, c := range l.cells {
			i := nearestColumn(c, anchors)
			if row[i] != "" {
				row[i] += " "
			}
			row[i] += c.text
		}
		rt = append(rt, row)
	}
	return rt
}

func nearestColumn(c cell, anchors []cell) int {
	best, bestOverlap := -1, 0.0
	for i, a := range anchors {
		if o := overlap(c, a); o > bestOverlap {
			best, bestOverlap = i, o
		}
	}
	if best >= 0 {
		return best
	}

	mid := (c.x0 + c.x1) / 2
	best, dist := 0, math.Inf(1)
	for i, a := range anchors {
		if d := math.Abs(mid - (a.x0+a.x1)/2); d < dist {
			best, dist = i, d
		}
	}
	return best
}
