package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Sanjaay57/pdf2excel/internal/ingestion"
	"github.com/Sanjaay57/pdf2excel/internal/pipeline"
	"github.com/Sanjaay57/pdf2excel/internal/service"
)

var errExportNotConfigured = eris.New("--export-table needs EXPORT_DATABASE_URL")

var convertCmd = &cobra.Command{
	Use:   "convert <file.pdf|dir|gdrive:ID>",
	Short: "Convert a PDF, or every PDF in a folder, to .xlsx",
	Long: `Convert a PDF, or every PDF in a folder, to .xlsx.

Each input gets a workbook with a single "Extracted Data" sheet, written next
to the input or into --out. Pages converted with OCR are reported.

Examples:
  pdf2excel convert results.pdf
  pdf2excel convert ./scans --out ./xlsx --ocr=false
  pdf2excel convert gdrive:1AbC... --export-table results_2024`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("out", "o", "", "output file, or directory when converting a folder")
	convertCmd.Flags().Bool("ocr", true, "run OCR on pages without a text-layer table; unset means ocr.enabled")
	convertCmd.Flags().String("export-table", "", "also copy the dataset into this Postgres table")
}

func runConvert(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	exportTable, _ := cmd.Flags().GetString("export-table")

	a, err := newApp(cmd, exportTable != "")
	if err != nil {
		return reportError(cmd.ErrOrStderr(), err)
	}
	defer a.Close()

	ocr := a.cfg.OCR.Enabled
	if cmd.Flags().Changed("ocr") {
		ocr, _ = cmd.Flags().GetBool("ocr")
	}

	ref := args[0]
	var docs []string
	if strings.HasPrefix(ref, ingestion.DrivePrefix) {
		docs = []string{ref}
	} else {
		docs, err = ingestion.LoadLocalFiles(ref)
		if err != nil {
			return reportError(cmd.ErrOrStderr(), err)
		}
		if len(docs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No PDF files found in %s\n", ref)
			return nil
		}
	}
	batch := len(docs) > 1 || isDir(ref)

	var failed int
	for _, d := range docs {
		doc, err := ingestion.Load(cmd.Context(), d, a.drive)
		if err != nil {
			reportError(cmd.ErrOrStderr(), err)
			failed++
			continue
		}

		res, err := a.converter.Convert(cmd.Context(), service.Request{
			Document:    doc,
			OCR:         ocr,
			ExportTable: exportTable,
		})
		if errors.Is(err, pipeline.ErrNoTablesFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "Warning: no tables found in %s\n", doc.Name)
			continue
		}
		if err != nil {
			reportError(cmd.ErrOrStderr(), err)
			failed++
			continue
		}

		dest := outputPath(d, res.OutputName, out, batch)
		if err := os.WriteFile(dest, res.XLSX, 0o644); err != nil {
			reportError(cmd.ErrOrStderr(), eris.Wrapf(err, "writing %s", dest))
			failed++
			continue
		}
		printReport(cmd.OutOrStdout(), doc.Name, dest, res)
	}

	if failed > 0 {
		return eris.Errorf("%d of %d conversions failed", failed, len(docs))
	}
	return nil
}

// outputPath picks where a workbook goes. In batch mode out is a directory;
// otherwise it is the file itself.
func outputPath(input, name, out string, batch bool) string {
	switch {
	case out == "" && strings.HasPrefix(input, ingestion.DrivePrefix):
		return name
	case out == "":
		return filepath.Join(filepath.Dir(input), name)
	case batch || isDir(out):
		return filepath.Join(out, name)
	default:
		return out
	}
}

func printReport(w io.Writer, name, dest string, res *service.Output) {
	fmt.Fprintf(w, "%s -> %s (%d rows, %d columns)\n", name, dest, res.Rows, res.Columns)
	if len(res.OCRPages) > 0 {
		fmt.Fprintf(w, "  OCR applied to pages: %s\n", joinInts(res.OCRPages))
	}
	if len(res.OCRFailures) > 0 {
		fmt.Fprintf(w, "  OCR failed on pages: %s\n", joinInts(res.OCRFailures))
	}
	if res.Cached {
		fmt.Fprintln(w, "  (served from cache)")
	}
}

func reportError(w io.Writer, err error) error {
	fmt.Fprintf(w, "An error occurred: %v\n", err)
	return err
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
