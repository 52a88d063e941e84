package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Sanjaay57/pdf2excel/internal/export"
	"github.com/Sanjaay57/pdf2excel/internal/pipeline"
	"github.com/Sanjaay57/pdf2excel/internal/service"
	"github.com/Sanjaay57/pdf2excel/internal/storage"
)

type fakeConverter struct {
	out  *service.Output
	err  error
	last service.Request
}

func (f *fakeConverter) Convert(ctx context.Context, req service.Request) (*service.Output, error) {
	f.last = req
	return f.out, f.err
}

func newTestServer(conv Converter) *Server {
	logger, _ := test.NewNullLogger()
	return &Server{
		Converter:  conv,
		History:    storage.NewHistory(nil),
		DefaultOCR: true,
		Log:        logrus.NewEntry(logger),
	}
}

func upload(t *testing.T, name string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		fw.Write(data)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestConvertSuccess(t *testing.T) {
	conv := &fakeConverter{out: &service.Output{
		ID:         "job-1",
		OutputName: "marks.xlsx",
		XLSX:       []byte("PK fake workbook"),
		OCRPages:   []int{2, 4},
	}}
	h := newTestServer(conv).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "marks.pdf", []byte("%PDF-1.4"), map[string]string{"ocr": "false"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="marks.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "2,4", rec.Header().Get("X-OCR-Pages"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "PK fake workbook", rec.Body.String())

	assert.False(t, conv.last.OCR)
	assert.Equal(t, "marks.pdf", conv.last.Document.Name)
	assert.Equal(t, "upload", conv.last.Document.Source)
}

func TestConvertDefaultsToServerOCR(t *testing.T) {
	conv := &fakeConverter{out: &service.Output{OutputName: "a.xlsx"}}
	h := newTestServer(conv).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "a.pdf", []byte("%PDF"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, conv.last.OCR)
	assert.Equal(t, "", rec.Header().Get("X-OCR-Pages"))
}

func TestConvertNoTables(t *testing.T) {
	h := newTestServer(&fakeConverter{err: pipeline.ErrNoTablesFound}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "a.pdf", []byte("%PDF"), nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no tables found in the uploaded PDF", decode(t, rec)["warning"])
}

func TestConvertFailure(t *testing.T) {
	h := newTestServer(&fakeConverter{err: pipeline.Fail("open", eris.New("malformed xref"))}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "a.pdf", []byte("%PDF"), nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, _ := decode(t, rec)["error"].(string)
	assert.True(t, strings.HasPrefix(msg, "An error occurred: "))
	assert.Contains(t, msg, "malformed xref")
}

func TestConvertBadRequests(t *testing.T) {
	h := newTestServer(&fakeConverter{}).Handler()

	cases := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"missing file", upload(t, "", nil, map[string]string{"ocr": "true"}), http.StatusBadRequest},
		{"not a pdf", upload(t, "notes.txt", []byte("hi"), nil), http.StatusUnsupportedMediaType},
		{"bad ocr flag", upload(t, "a.pdf", []byte("%PDF"), map[string]string{"ocr": "maybe"}), http.StatusBadRequest},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("x")), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tc.req)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestConvertUploadTooLarge(t *testing.T) {
	s := newTestServer(&fakeConverter{})
	s.MaxUploadBytes = 64

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, upload(t, "a.pdf", bytes.Repeat([]byte("x"), 1024), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversionsWithoutDatabase(t *testing.T) {
	h := newTestServer(&fakeConverter{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversions", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversions?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(&fakeConverter{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disconnected", body["redis"])
	assert.Equal(t, "disconnected", body["database"])
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(&fakeConverter{})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.OAuth = &oauth2.Config{
		ClientID:    "client",
		RedirectURL: "http://localhost:8080/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: "https://accounts.example.com/token"},
	}
	h = s.Handler()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	url, _ := decode(t, rec)["auth_url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://accounts.example.com/auth?"))
	assert.Contains(t, url, "client_id=client")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOAuthState(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"drive-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokens.Close()

	s := newTestServer(&fakeConverter{})
	s.OAuth = &oauth2.Config{
		ClientID:    "client",
		RedirectURL: "http://localhost:8080/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: tokens.URL},
	}
	h := s.Handler()

	login := func() (string, *http.Cookie) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		authURL, err := url.Parse(decode(t, rec)["auth_url"].(string))
		require.NoError(t, err)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		return authURL.Query().Get("state"), cookies[0]
	}
	callback := func(query string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/callback?"+query, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	state, cookie := login()
	assert.Len(t, state, 36)
	assert.Equal(t, stateCookie, cookie.Name)
	assert.Equal(t, state, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	other, _ := login()
	assert.NotEqual(t, state, other)

	rec := callback("code=abc&state="+state, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid oauth state", decode(t, rec)["error"])

	rec = callback("code=abc&state="+other, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = callback("code=abc", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = callback("code=abc&state="+state, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "drive-token", decode(t, rec)["access_token"])
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestConvertCacheHitHeader(t *testing.T) {
	conv := &fakeConverter{out: &service.Output{OutputName: "a.xlsx", Cached: true}}
	h := newTestServer(conv).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, "a.pdf", []byte("%PDF"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(&fakeConverter{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pdf2excel_ocr_pages_total")
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := newTestServer(&fakeConverter{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "", joinPages(nil))
	assert.Equal(t, "3", joinPages([]int{3}))
	assert.Equal(t, "1,5,9", joinPages([]int{1, 5, 9}))
}
