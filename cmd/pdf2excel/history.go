package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sanjaay57/pdf2excel/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversions recorded in Postgres",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "number of conversions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := newApp(cmd, false)
	if err != nil {
		return reportError(cmd.ErrOrStderr(), err)
	}
	defer a.Close()

	list, err := a.history.Recent(cmd.Context(), limit)
	if err != nil {
		return reportError(cmd.ErrOrStderr(), err)
	}
	printHistory(cmd, list)
	return nil
}

func printHistory(cmd *cobra.Command, list []storage.Conversion) {
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversions recorded yet.")
		return
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tFILE\tSOURCE\tSTATUS\tROWS\tOCR PAGES\tELAPSED")
	for _, c := range list {
		ocr := "-"
		if len(c.OCRPages) > 0 {
			ocr = joinInts(c.OCRPages)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.CreatedAt.Local().Format(time.DateTime), c.FileName, c.Source, c.Status,
			c.Rows, ocr, c.Elapsed.Round(time.Millisecond))
	}
	tw.Flush()
}
