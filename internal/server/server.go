// Package server exposes the converter over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/Sanjaay57/pdf2excel/internal/export"
	"github.com/Sanjaay57/pdf2excel/internal/ingestion"
	"github.com/Sanjaay57/pdf2excel/internal/pipeline"
	"github.com/Sanjaay57/pdf2excel/internal/service"
	"github.com/Sanjaay57/pdf2excel/internal/storage"
)

// Converter is the part of service.Converter the server needs.
type Converter interface {
	Convert(ctx context.Context, req service.Request) (*service.Output, error)
}

type Server struct {
	Converter Converter
	History   *storage.History
	Cache     *storage.Cache
	OAuth     *oauth2.Config

	DefaultOCR     bool
	MaxUploadBytes int64

	Log *logrus.Entry
}

// Handler returns the router wrapped with tracing middleware.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/convert", s.handleConvert).Methods("POST")
	router.HandleFunc("/conversions", s.handleConversions).Methods("GET")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Google Drive OAuth endpoints
	router.HandleFunc("/auth/google", s.handleAuth).Methods("GET")
	router.HandleFunc("/callback", s.handleCallback).Methods("GET")

	router.Handle("/metrics", promhttp.Handler())

	return otelhttp.NewHandler(router, "pdf2excel")
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log().WithField("addr", addr).Info("pdf2excel server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server forced to shutdown")
	}
	s.log().Info("server exited")
	return nil
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("POST", "/convert").Observe(time.Since(start).Seconds())
	}()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload())
	if err := r.ParseMultipartForm(s.maxUpload()); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "failed to read upload")
		return
	}

	doc, err := ingestion.FromUpload(header.Filename, data)
	if err != nil {
		s.fail(w, r, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	ocr := s.DefaultOCR
	if v := r.FormValue("ocr"); v != "" {
		ocr, err = strconv.ParseBool(v)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, "ocr must be true or false")
			return
		}
	}

	out, err := s.Converter.Convert(r.Context(), service.Request{
		Document:    doc,
		OCR:         ocr,
		ExportTable: r.FormValue("export_table"),
	})
	conversionDuration.WithLabelValues(strconv.FormatBool(ocr)).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrNoTablesFound):
		conversionsTotal.WithLabelValues("no_tables").Inc()
		requestsTotal.WithLabelValues("POST", "/convert", "no_tables").Inc()
		writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]string{"warning": err.Error()})
		return
	default:
		conversionsTotal.WithLabelValues("failed").Inc()
		s.fail(w, r, http.StatusInternalServerError, "An error occurred: "+err.Error())
		return
	}

	conversionsTotal.WithLabelValues("done").Inc()
	requestsTotal.WithLabelValues("POST", "/convert", "success").Inc()
	ocrPagesTotal.Add(float64(len(out.OCRPages)))
	ocrFailuresTotal.Add(float64(len(out.OCRFailures)))
	if out.Cached {
		cacheHitsTotal.Inc()
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.OutputName))
	w.Header().Set("X-Conversion-ID", out.ID)
	w.Header().Set("X-OCR-Pages", joinPages(out.OCRPages))
	if out.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Write(out.XLSX)
}

func (s *Server) handleConversions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues("GET", "/conversions").Observe(time.Since(start).Seconds())
	}()

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.fail(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := s.History.Recent(r.Context(), limit)
	if errors.Is(err, storage.ErrHistoryDisabled) {
		s.fail(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "failed to load conversions")
		return
	}
	if list == nil {
		list = []storage.Conversion{}
	}

	requestsTotal.WithLabelValues("GET", "/conversions", "success").Inc()
	writeJSONResponse(w, list)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":   "healthy",
		"redis":    "disconnected",
		"database": "disconnected",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.Cache.Ping(ctx) == nil {
		health["redis"] = "connected"
	}
	if s.History.Enabled() {
		health["database"] = "connected"
	}

	writeJSONResponse(w, health)
}

// stateCookie carries the OAuth state from /auth/google to /callback.
const stateCookie = "pdf2excel_oauth_state"

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if s.OAuth == nil || s.OAuth.ClientID == "" {
		s.fail(w, r, http.StatusServiceUnavailable, "google drive is not configured")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/callback",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	url := s.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	writeJSONResponse(w, map[string]string{"auth_url": url})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if s.OAuth == nil || s.OAuth.ClientID == "" {
		s.fail(w, r, http.StatusServiceUnavailable, "google drive is not configured")
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		s.fail(w, r, http.StatusBadRequest, "invalid oauth state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/callback", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		s.fail(w, r, http.StatusBadRequest, "authorization code not provided")
		return
	}

	token, err := s.OAuth.Exchange(r.Context(), code)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to exchange code: %v", err))
		return
	}

	// The token is handed back to the caller; the CLI reads it from GOOGLE_ACCESS_TOKEN.
	writeJSONResponse(w, map[string]interface{}{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_in":   token.Expiry.Unix(),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	requestsTotal.WithLabelValues(r.Method, r.URL.Path, "error").Inc()
	if status >= http.StatusInternalServerError {
		s.log().WithField("endpoint", r.URL.Path).Error(msg)
	}
	writeJSONStatus(w, status, map[string]string{"error": msg})
}

func (s *Server) maxUpload() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return 50 << 20
}

func (s *Server) log() *logrus.Entry {
	if s.Log != nil {
		return s.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
