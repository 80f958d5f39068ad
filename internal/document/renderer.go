package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Renderer converts certificate HTML to a PDF.
type Renderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// HTTPRenderer drives a Gotenberg-style rendering service: the HTML is
// posted as a multipart file named index.html and the response body is the
// PDF.
type HTTPRenderer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRenderer builds a renderer client. baseURL is the service root,
// e.g. "http://renderer:3000".
func NewHTTPRenderer(baseURL string, timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// RenderPDF posts the HTML and returns the rendered PDF bytes.
func (r *HTTPRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("document: building render request: %w", err)
	}
	if _, err := part.Write(html); err != nil {
		return nil, fmt.Errorf("document: building render request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("document: building render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, fmt.Errorf("document: building render request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document: calling renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("document: renderer returned %d: %s",
			resp.StatusCode, string(snippet))
	}

	pdf, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("document: reading rendered pdf: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("document: renderer returned an empty document")
	}
	return pdf, nil
}

// HealthCheck calls the rendering service's health endpoint.
func (r *HTTPRenderer) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("document: building health request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("document: renderer health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("document: renderer health returned %d", resp.StatusCode)
	}
	return nil
}
