package main

import (
	"github.com/spf13/cobra"

	"github.com/Sanjaay57/pdf2excel/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "port to listen on (default from PORT or config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return reportError(cmd.ErrOrStderr(), err)
	}
	defer a.Close()

	port := a.cfg.Port
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}

	srv := &server.Server{
		Converter:      a.converter,
		History:        a.history,
		Cache:          a.cache,
		OAuth:          a.oauth,
		DefaultOCR:     a.cfg.OCR.Enabled,
		MaxUploadBytes: a.cfg.MaxUploadMB << 20,
		Log:            a.log.WithField("component", "server"),
	}
	return srv.Run(cmd.Context(), ":"+port)
}
