// Package pdftest builds small single-font PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Text is one string drawn at (X, Y) in 10pt Helvetica. Every glyph is 5pt wide.
type Text struct {
	X, Y int
	S    string
}

// Build returns a PDF with one page per entry. A nil page is blank.
func Build(pages ...[]Text) []byte {
	widths := strings.TrimSpace(strings.Repeat("500 ", 126-32+1))

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
	}
	for i, texts := range pages {
		var content bytes.Buffer
		for _, t := range texts {
			fmt.Fprintf(&content, "BT /F1 10 Tf %d %d Td (%s) Tj ET\n", t.X, t.Y, escape(t.S))
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// Table lays rows out as a grid: columns 100pt apart starting at x=50,
// rows 15pt apart starting at y=700.
func Table(rows ...[]string) []Text {
	var out []Text
	for r, row := range rows {
		for c, s := range row {
			out = append(out, Text{X: 50 + 100*c, Y: 700 - 15*r, S: s})
		}
	}
	return out
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
