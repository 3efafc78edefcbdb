// Package apiclient calls the cv-builder HTTP API on behalf of a signed-in user.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/cv-builder/internal/plans"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

// ErrUnauthorized is returned on 401. The caller should send the user to sign-in.
// A 403 "Limite atteinte" is returned as *plans.LimitReachedError; the caller should show
// the upgrade prompt.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the server's error string verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// TokenSource returns the bearer token of the current user.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

// Client is a typed client for the generation endpoints.
type Client struct {
	baseURL string
	token   TokenSource
	http    *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string, token TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

// GenerateCV sends a résumé for server-side generation.
func (c *Client) GenerateCV(ctx context.Context, doc *types.DocumentData) (*types.DocumentData, error) {
	return c.generate(ctx, "/api/generate-cv", doc)
}

// GenerateLetter sends a cover letter for server-side generation.
func (c *Client) GenerateLetter(ctx context.Context, doc *types.DocumentData) (*types.DocumentData, error) {
	return c.generate(ctx, "/api/generate-letter", doc)
}

// Generate dispatches on the document kind. It lets a Client act as a form submitter.
func (c *Client) Generate(ctx context.Context, doc *types.DocumentData) (*types.DocumentData, error) {
	if doc != nil && doc.Kind == types.KindLetter {
		return c.GenerateLetter(ctx, doc)
	}
	return c.GenerateCV(ctx, doc)
}

// GeneratePDF returns the PDF bytes of in.
func (c *Client) GeneratePDF(ctx context.Context, in rendering.Input) ([]byte, error) {
	resp, err := c.post(ctx, "/api/generate-pdf", in)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) generate(ctx context.Context, path string, doc *types.DocumentData) (*types.DocumentData, error) {
	resp, err := c.post(ctx, path, doc)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var out types.DocumentData
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	return resp, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Current int    `json:"current"`
	Limit   int    `json:"limit"`
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}

	if resp.StatusCode == http.StatusForbidden && body.Error == plans.LimitReachedMessage {
		return &plans.LimitReachedError{Current: body.Current, Limit: body.Limit}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
}
