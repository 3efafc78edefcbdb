// Package rewriting improves free-text document fields through a remote rewrite service.
// Any failure falls back to the original text, so callers never see a rewrite error.
package rewriting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Gateway rewrites one field of text. Implementations must return the input unchanged
// when the rewrite cannot be obtained.
type Gateway interface {
	Rewrite(ctx context.Context, text, field string) string
}

// Request is the body sent to the optimize endpoint.
type Request struct {
	Text  string `json:"text" validate:"required"`
	Field string `json:"field" validate:"required"`
}

// Response is the body returned by the optimize endpoint.
type Response struct {
	Optimized string `json:"optimized"`
}

// DefaultTimeout bounds one rewrite round trip.
const DefaultTimeout = 20 * time.Second

// HTTPGateway calls a remote optimize endpoint.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
}

// NewHTTPGateway creates a gateway posting to endpoint. A nil client gets DefaultTimeout.
func NewHTTPGateway(endpoint string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPGateway{endpoint: endpoint, client: client}
}

// Rewrite returns the optimized text, or text itself on any failure.
func (g *HTTPGateway) Rewrite(ctx context.Context, text, field string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out, err := g.call(ctx, text, field)
	if err != nil {
		log.Printf("[rewrite] %s: falling back to original text: %v", field, err)
		return text
	}
	return out
}

func (g *HTTPGateway) call(ctx context.Context, text, field string) (string, error) {
	body, err := json.Marshal(Request{Text: text, Field: field})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &APICallError{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &APICallError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &APICallError{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &APICallError{Message: "invalid response body", Cause: err}
	}
	if strings.TrimSpace(out.Optimized) == "" {
		return "", &APICallError{Message: "empty optimized text"}
	}
	return out.Optimized, nil
}

// Identity is a Gateway that never changes the text.
type Identity struct{}

// Rewrite returns text.
func (Identity) Rewrite(_ context.Context, text, _ string) string { return text }
