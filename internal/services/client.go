package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Client talks to the transcription backend on behalf of a [session.Manager].
type Client struct {
	baseURL string
	http    *http.Client
	plain   *http.Client
	session *session.Manager
	logger  *log.Logger
}

// NewClient creates a [Client]. base supplies the transport and timeout for both inner clients and may be nil.
func NewClient(baseURL string, sess *session.Manager, base *http.Client, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if sess == nil {
		sess = session.NewManager(nil)
	}
	if base == nil {
		base = &http.Client{}
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		plain:   base,
		session: sess,
		logger:  logger,
	}
	c.http = &http.Client{
		Transport: &AuthTransport{
			Base:      base.Transport,
			Session:   sess,
			Refresher: c,
			Logger:    logger,
		},
		Timeout: base.Timeout,
		Jar:     base.Jar,
	}
	return c
}

// BaseURL returns the backend URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Manager {
	return c.session
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// newJSONRequest builds a request with in encoded as the JSON body. A nil in sends no body.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends a JSON request through the authenticated client and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any, fallback string) error {
	req, err := c.newJSONRequest(ctx, method, path, nil, in)
	if err != nil {
		return err
	}
	return c.send(c.http, req, out, fallback)
}

// doPlain is do without the bearer token or refresh handling.
func (c *Client) doPlain(ctx context.Context, method, path string, in, out any, fallback string) error {
	req, err := c.newJSONRequest(ctx, method, path, nil, in)
	if err != nil {
		return err
	}
	return c.send(c.plain, req, out, fallback)
}

// send executes req. Non-2xx responses become [*APIError]. out may be nil, a *[]byte for the raw body, or a
// value to decode JSON into.
func (c *Client) send(hc *http.Client, req *http.Request, out any, fallback string) error {
	c.logger.Debug("request", "method", req.Method, "path", req.URL.Path)

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := NewAPIError(resp.StatusCode, body, fallback)
		c.logger.Debug("request failed", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "error", apiErr.Message)
		return apiErr
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*dst = body
		return nil
	default:
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: failed to decode response from %s: %v", shared.ErrAPIRequest, req.URL.Path, err)
		}
		return nil
	}
}
