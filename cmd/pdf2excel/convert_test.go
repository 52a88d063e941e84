package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/Sanjaay57/pdf2excel/internal/service"
	"github.com/Sanjaay57/pdf2excel/internal/storage"
)

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, filepath.Join("in", "a.xlsx"), outputPath(filepath.Join("in", "a.pdf"), "a.xlsx", "", false))
	assert.Equal(t, "scan.xlsx", outputPath("gdrive:abc", "scan.xlsx", "", false))
	assert.Equal(t, "custom.xlsx", outputPath("a.pdf", "a.xlsx", "custom.xlsx", false))
	assert.Equal(t, filepath.Join(dir, "a.xlsx"), outputPath("a.pdf", "a.xlsx", dir, false))
	assert.Equal(t, filepath.Join("out", "b.xlsx"), outputPath("x/b.pdf", "b.xlsx", "out", true))
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, "scan.pdf", "scan.xlsx", &service.Output{
		Rows:        12,
		Columns:     4,
		OCRPages:    []int{2, 3},
		OCRFailures: []int{5},
	})

	assert.Equal(t, "scan.pdf -> scan.xlsx (12 rows, 4 columns)\n"+
		"  OCR applied to pages: 2, 3\n"+
		"  OCR failed on pages: 5\n", buf.String())
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printHistory(cmd, nil)
	assert.Equal(t, "No conversions recorded yet.\n", buf.String())

	buf.Reset()
	printHistory(cmd, []storage.Conversion{{
		FileName:  "marks.pdf",
		Source:    "upload",
		Status:    storage.StatusDone,
		Rows:      2,
		OCRPages:  []int{1},
		Elapsed:   1500 * time.Millisecond,
		CreatedAt: time.Now(),
	}})
	assert.Contains(t, buf.String(), "marks.pdf")
	assert.Contains(t, buf.String(), "1.5s")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["convert"])
	assert.True(t, names["serve"])
	assert.True(t, names["history"])
}
