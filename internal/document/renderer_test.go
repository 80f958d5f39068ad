package document

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRendererRenderPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, hdr, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "index.html", hdr.Filename)

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Certificat")

		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 rendered"))
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, 5*time.Second)
	pdf, err := r.RenderPDF(context.Background(), []byte("<html><body>Certificat</body></html>"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 rendered"), pdf)
}

func TestHTTPRendererErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, 5*time.Second)
	_, err := r.RenderPDF(context.Background(), []byte("<html></html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPRendererHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, 5*time.Second)
	assert.NoError(t, r.HealthCheck(context.Background()))
}

func TestHTTPRendererHealthCheckReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, 5*time.Second)
	err := r.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPRendererEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewHTTPRenderer(srv.URL, 5*time.Second)
	_, err := r.RenderPDF(context.Background(), []byte("<html></html>"))
	assert.Error(t, err)
}
