package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Session is a checkout session created at the processor. URL is where the
// user is redirected to pay.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionRequest describes the checkout session to create.
type SessionRequest struct {
	AmountCents   int64
	Currency      string
	ProductName   string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Processor creates checkout sessions at the external payment processor.
type Processor interface {
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
}

// HTTPProcessor talks to a Stripe-style checkout API: form-encoded session
// creation authenticated with a bearer secret, JSON response.
type HTTPProcessor struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewHTTPProcessor builds a processor client. baseURL is the API root, e.g.
// "https://api.processor.example/v1".
func NewHTTPProcessor(baseURL, secret string, timeout time.Duration) *HTTPProcessor {
	return &HTTPProcessor{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateSession creates a payment-mode checkout session carrying the
// submission as metadata. The call is made exactly once; retry policy
// belongs to the caller.
func (p *HTTPProcessor) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("customer_email", req.CustomerEmail)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", req.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", req.ProductName)
	form.Set("line_items[0][price_data][product_data][description]", req.Description)
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payment: building session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment: calling processor: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("payment: reading processor response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment: processor returned %d: %s",
			resp.StatusCode, truncate(string(body), 256))
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("payment: decoding processor response: %w", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("payment: processor response has no redirect url")
	}
	return &session, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
