package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/Sanjaay57/pdf2excel/internal/config"
	"github.com/Sanjaay57/pdf2excel/internal/ingestion"
	"github.com/Sanjaay57/pdf2excel/internal/ingestion/tesseract"
	"github.com/Sanjaay57/pdf2excel/internal/service"
	"github.com/Sanjaay57/pdf2excel/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "pdf2excel",
	Short: "Convert tables in PDF files to Excel spreadsheets",
	Long: `Convert tables in PDF files to Excel spreadsheets.

Tables are read from the PDF text layer first. Pages without a table are
rendered and run through Tesseract OCR when OCR is enabled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app holds everything a command needs, built from the loaded configuration.
type app struct {
	cfg       config.Config
	log       *logrus.Logger
	converter *service.Converter
	cache     *storage.Cache
	history   *storage.History
	exportDB  *sql.DB
	oauth     *oauth2.Config
	drive     *ingestion.DriveClient
}

func newApp(cmd *cobra.Command, requireExport bool) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := config.NewLogger(cfg.Log)
	entry := logrus.NewEntry(logger)

	a := &app{cfg: cfg, log: logger}

	a.cache = storage.NewCache(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, cfg.CacheTTL, entry)

	a.history = storage.NewHistory(nil)
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		pool, err := storage.InitDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Warn("conversion history disabled")
		} else {
			a.history = storage.NewHistory(pool)
			if err := a.history.EnsureSchema(ctx); err != nil {
				logger.WithError(err).Warn("failed to create conversions table")
			}
		}
	}

	switch {
	case cfg.ExportDatabaseURL != "":
		db, err := storage.OpenExportDB(cfg.ExportDatabaseURL)
		if err != nil {
			if requireExport {
				return nil, err
			}
			logger.WithError(err).Warn("dataset export disabled")
		} else {
			a.exportDB = db
		}
	case requireExport:
		return nil, errExportNotConfigured
	}

	a.oauth = ingestion.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	if cfg.Google.AccessToken != "" {
		a.drive = &ingestion.DriveClient{
			Config: a.oauth,
			Token:  &oauth2.Token{AccessToken: cfg.Google.AccessToken},
		}
	}

	ocr := tesseract.New(strings.Split(cfg.OCR.Language, "+"), cfg.OCR.PSM, cfg.OCR.DPI)
	p, err := service.NewPipeline(cfg, ocr, entry)
	if err != nil {
		return nil, err
	}

	a.converter = &service.Converter{
		Pipeline: p,
		Cache:    a.cache,
		History:  a.history,
		ExportDB: a.exportDB,
		Log:      entry,
	}
	return a, nil
}

func (a *app) Close() {
	a.cache.Close()
	a.history.Close()
	if a.exportDB != nil {
		a.exportDB.Close()
	}
}
