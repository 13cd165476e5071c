package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/session"
)

// apiBasePath is the path prefix for all backend resources.
const apiBasePath = "/api"

// Client issues requests to the portal backend.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	session *session.Session
	logger  *logging.Logger
}

// New creates a Client for the given backend origin (e.g.
// "http://localhost:5000"). The /api base path is appended per request.
func New(baseURL string, timeout time.Duration, sess *session.Session, logger *logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		session: sess,
		logger:  logger,
	}
}

// Get issues a GET request. Query may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, "", nil, out)
}

// Post issues a POST request with a JSON body. Body may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", nil, out)
}

// PostMultipart issues a POST request with a multipart form body, used by
// the support-ticket endpoints for file attachments.
func (c *Client) PostMultipart(ctx context.Context, path string, form *Form, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encoding multipart form: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, contentType, body, out)
}

// doJSON marshals the body and delegates to do.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, nil, "application/json", reader, out)
}

// do is the single request/response interception point.
//
// Request side: attach the bearer token when the session holds one.
// Response side: a 401 invalidates the session synchronously — credential
// cleared and navigation hooks run — before the error is returned to the
// caller. This happens once per failing response; there are no retries.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	u := c.baseURL + apiBasePath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if token, ok := c.session.Token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on read path

	if resp.StatusCode == http.StatusUnauthorized {
		// Central session-invalidation path. Invalidate clears the store
		// (idempotent, so a second in-flight 401 is harmless) and runs the
		// forced-navigation hooks before we return.
		c.logger.Debug("authentication failure, invalidating session",
			"method", method, "path", path)
		c.session.Invalidate(ctx)
		return c.decodeError(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// errorPayload mirrors the backend's error body. The backend is not fully
// consistent: some endpoints send {message}, others {code, message}.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// decodeError builds an *APIError from an error response, keeping the
// server's message when one was sent.
func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(data) > 0 {
		var payload errorPayload
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
			if apiErr.Message == "" {
				apiErr.Message = payload.Error
			}
		}
	}
	return apiErr
}
