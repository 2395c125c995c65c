package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sdejongh/doccompare/pkg/models"
)

// Ensure HTTPClient implements the interface.
var _ Service = (*HTTPClient)(nil)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is read
const maxErrorBody = 64 * 1024

// Config holds configuration for the HTTP client
type Config struct {
	// Timeout is the request timeout (default: 30s); downloads share it
	Timeout time.Duration

	// HTTPClient overrides the underlying client, mainly for tests
	HTTPClient *http.Client
}

// HTTPClient talks to the comparison service over HTTP with bearer authentication
type HTTPClient struct {
	session *models.Session
	client  *http.Client
}

// NewHTTPClient creates a client bound to a session
func NewHTTPClient(session *models.Session, cfg Config) *HTTPClient {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{session: session, client: client}
}

// ListDocuments calls GET /documents?fileNo=<n>
func (c *HTTPClient) ListDocuments(ctx context.Context, fileNo string) ([]models.DocumentEntry, error) {
	q := url.Values{"fileNo": []string{fileNo}}
	resp, err := c.do(ctx, http.MethodGet, "/documents?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list documents: read body: %w", err)
	}

	// Some deployments answer with a bare array instead of an envelope
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []models.DocumentEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("list documents: decode: %w", err)
		}
		return entries, nil
	}

	var env envelope[[]models.DocumentEntry]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("list documents: decode: %w", err)
	}
	if env.Status != 0 && env.Status != http.StatusOK {
		return nil, &models.ServiceError{Status: env.Status, Message: env.Message}
	}
	return env.Response, nil
}

// Compare calls POST /documents/compare
func (c *HTTPClient) Compare(ctx context.Context, firstFileID, secondFileID string) (*CompareResponse, error) {
	body, err := json.Marshal(compareRequest{FirstFileID: firstFileID, SecondFileID: secondFileID})
	if err != nil {
		return nil, fmt.Errorf("compare: encode request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/documents/compare", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[*CompareResponse]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("compare: decode: %w", err)
	}
	if !env.ok() || env.Response == nil {
		return nil, &models.ServiceError{Status: env.Status, Message: env.Message}
	}
	return env.Response, nil
}

// Download calls GET on a download path and returns the open body
func (c *HTTPClient) Download(ctx context.Context, path string) (*Download, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	return &Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

// DeleteDuplicate calls DELETE /documents/duplicates/<id>
func (c *HTTPClient) DeleteDuplicate(ctx context.Context, id string) error {
	return c.deleteEnvelope(ctx, "/documents/duplicates/"+url.PathEscape(id))
}

// DeleteDuplicatesOfOriginal calls DELETE /documents/duplicates/original/<groupId>
func (c *HTTPClient) DeleteDuplicatesOfOriginal(ctx context.Context, groupID string) error {
	return c.deleteEnvelope(ctx, "/documents/duplicates/original/"+url.PathEscape(groupID))
}

func (c *HTTPClient) deleteEnvelope(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("delete duplicates: %w", err)
	}
	defer resp.Body.Close()

	var env envelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("delete duplicates: decode: %w", err)
	}
	if env.Status != http.StatusOK {
		return &models.ServiceError{Status: env.Status, Message: env.Message}
	}
	return nil
}

// do issues an authenticated request. Non-2xx responses are turned into errors and their body closed.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	tok, err := c.session.Token()
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.session.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusError(resp)
}

// statusError converts a failed HTTP response, preferring the envelope message when one is present
func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w (status %d)", models.ErrUnauthenticated, resp.StatusCode)
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(data, &env); err == nil && env.Message != "" {
		return &models.ServiceError{Status: resp.StatusCode, Message: env.Message}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" || !isPlainText(resp.Header.Get("Content-Type")) {
		msg = http.StatusText(resp.StatusCode)
	}
	return &models.ServiceError{Status: resp.StatusCode, Message: msg}
}

func isPlainText(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "text/plain")
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	return errors.Is(err, models.ErrUnauthenticated)
}
