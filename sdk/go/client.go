package reelsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the backend address used when none is configured.
	DefaultBaseURL = "http://localhost:5000"
	// StatusSuccess is the envelope status marking a successful call.
	StatusSuccess = "success"
	// SessionTokenKey is the session store key holding the bearer token.
	SessionTokenKey = "jwtToken"
)

// Client is the novelreel backend HTTP client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Session    SessionStore
	Notifier   Notifier
	Messages   Messages
	Logger     *slog.Logger
	Now        func() time.Time
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:  baseURL,
		Timeout:  10 * time.Second,
		Session:  NewMemorySession(),
		Messages: DefaultMessages(),
	}
}

// Envelope is the backend's response wrapper for non-streaming endpoints.
type Envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// Decode unmarshals the envelope data into out.
func (e Envelope) Decode(out any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// EnvelopeError is returned when the backend answers with a non-success envelope.
type EnvelopeError struct {
	Status  string
	Message string
}

func (e *EnvelopeError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Request describes a single backend call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	ContentType string
	Header      http.Header
	// Raw skips envelope unwrapping and decodes the whole response body.
	Raw bool
	// NoTimeout sends the request without the client's overall timeout,
	// for calls that hold the connection while the backend works.
	NoTimeout bool

	err error
}

// Option customizes a request.
type Option func(*Request)

// WithHeader sets a request header.
func WithHeader(key, value string) Option {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		r.Header.Set(key, value)
	}
}

// WithRaw returns the full envelope instead of its data.
func WithRaw() Option {
	return func(r *Request) { r.Raw = true }
}

// WithoutTimeout lifts the client timeout for one long-running call.
func WithoutTimeout() Option {
	return func(r *Request) { r.NoTimeout = true }
}

// WithQuery sets explicit query parameters. An unencodable value fails the call.
func WithQuery(params any) Option {
	return func(r *Request) {
		q, err := queryValues(params)
		if err != nil {
			r.err = fmt.Errorf("query for %s: %w", r.Path, err)
			return
		}
		r.Query = q
	}
}

// Get performs a GET. params become the query string.
func (c *Client) Get(ctx context.Context, path string, params any, out any, opts ...Option) error {
	return c.Do(ctx, build(http.MethodGet, path, params, opts), out)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, out any, opts ...Option) error {
	return c.Do(ctx, build(http.MethodPost, path, body, opts), out)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, out any, opts ...Option) error {
	return c.Do(ctx, build(http.MethodPut, path, body, opts), out)
}

// Patch performs a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, out any, opts ...Option) error {
	return c.Do(ctx, build(http.MethodPatch, path, body, opts), out)
}

// Delete performs a DELETE. params become the query string.
func (c *Client) Delete(ctx context.Context, path string, params any, out any, opts ...Option) error {
	req := build(http.MethodDelete, path, nil, opts)
	if params != nil && req.Query == nil {
		q, err := queryValues(params)
		if err != nil {
			return err
		}
		req.Query = q
	}
	return c.Do(ctx, req, out)
}

// PostMultipart uploads fields and a single file as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file io.Reader, out any, opts ...Option) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, file); err != nil {
			return fmt.Errorf("copy %s: %w", fileName, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	req := build(http.MethodPost, path, &buf, opts)
	req.ContentType = w.FormDataContentType()
	return c.Do(ctx, req, out)
}

func build(method, path string, body any, opts []Option) Request {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// Do executes req and decodes the envelope data into out.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if req.err != nil {
		return req.err
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if strings.EqualFold(req.Method, http.MethodGet) && req.Body != nil && req.Query == nil {
		q, err := queryValues(req.Body)
		if err != nil {
			return err
		}
		req.Query = q
		req.Body = nil
	}
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}
	client := c.httpClient()
	if req.NoTimeout {
		client = c.streamClient()
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() == nil {
			c.notify(ctx, Notice{Kind: NoticeTransport, Path: req.Path, Message: c.Messages.networkError()})
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.transportError(ctx, req.Path, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", req.Path, err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.notify(ctx, Notice{Kind: NoticeTransport, Path: req.Path, Message: c.Messages.networkError()})
		return fmt.Errorf("decode envelope from %s: %w", req.Path, err)
	}
	if env.Status != StatusSuccess {
		msg := env.Message
		if msg == "" {
			msg = c.Messages.networkError()
		}
		c.notify(ctx, Notice{Kind: NoticeBusiness, Path: req.Path, Message: msg})
		return &EnvelopeError{Status: env.Status, Message: msg}
	}
	if out == nil {
		return nil
	}
	if req.Raw {
		return json.Unmarshal(data, out)
	}
	if err := env.Decode(out); err != nil {
		return fmt.Errorf("decode data from %s: %w", req.Path, err)
	}
	return nil
}

// Stream POSTs body and returns the unread event-stream response body.
// Cancelling ctx aborts the request. A backend that rejects the call
// before streaming answers with a JSON envelope, which is returned as
// *EnvelopeError. Failures are notified, but a 401 leaves the session
// token in place.
func (c *Client) Stream(ctx context.Context, path string, body any, opts ...Option) (io.ReadCloser, error) {
	req := build(http.MethodPost, path, body, opts)
	if req.err != nil {
		return nil, req.err
	}
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	resp, err := c.streamClient().Do(httpReq)
	if err != nil {
		if ctx.Err() == nil {
			c.notify(ctx, Notice{Kind: NoticeTransport, Path: path, Message: c.Messages.networkError()})
		}
		return nil, fmt.Errorf("stream %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := readAPIError(resp)
		msg := apiErr.Message
		if msg == "" {
			msg = c.Messages.networkError()
		}
		c.notify(ctx, Notice{Kind: NoticeTransport, Path: path, Message: msg})
		return nil, apiErr
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		defer resp.Body.Close()
		return nil, c.streamRejected(ctx, path, resp.Body)
	}
	return resp.Body, nil
}

// streamRejected decodes the envelope a stream endpoint sends instead of events.
func (c *Client) streamRejected(ctx context.Context, path string, body io.Reader) error {
	var env Envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		c.notify(ctx, Notice{Kind: NoticeTransport, Path: path, Message: c.Messages.networkError()})
		return fmt.Errorf("decode envelope from %s: %w", path, err)
	}
	msg := env.Message
	if msg == "" {
		msg = c.Messages.networkError()
	}
	c.notify(ctx, Notice{Kind: NoticeBusiness, Path: path, Message: msg})
	return &EnvelopeError{Status: env.Status, Message: msg}
}

// Resource is a fetched binary asset.
type Resource struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Fetch downloads a resource URL such as one built by ResourceURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Resource, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(httpReq)
	resp, err := c.streamClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.transportError(ctx, rawURL, resp)
	}
	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		// Missing assets come back as an error envelope with HTTP 200.
		defer resp.Body.Close()
		var env Envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return nil, fmt.Errorf("decode envelope from %s: %w", rawURL, err)
		}
		msg := env.Message
		if msg == "" {
			msg = c.Messages.networkError()
		}
		c.notify(ctx, Notice{Kind: NoticeBusiness, Path: rawURL, Message: msg})
		return nil, &EnvelopeError{Status: env.Status, Message: msg}
	}
	return &Resource{Body: resp.Body, ContentType: contentType, Size: resp.ContentLength}, nil
}

// SetToken stores the bearer token used for subsequent calls.
func (c *Client) SetToken(token string) error {
	return c.session().Set(SessionTokenKey, token)
}

// Token returns the stored bearer token, if any.
func (c *Client) Token() string {
	token, err := c.session().Get(SessionTokenKey)
	if err != nil {
		c.logger().Warn("read session token", "error", err)
		return ""
	}
	return token
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	var (
		body        io.Reader
		contentType = req.ContentType
	)
	switch b := req.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.Path, err)
		}
		body = &buf
		if contentType == "" {
			contentType = "application/json"
		}
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.endpoint(req.Path, req.Query), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	c.authorize(httpReq)
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

func (c *Client) authorize(req *http.Request) {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) transportError(ctx context.Context, path string, resp *http.Response) error {
	apiErr := readAPIError(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.session().Remove(SessionTokenKey); err != nil {
			c.logger().Warn("clear session token", "error", err)
		}
		c.notify(ctx, Notice{Kind: NoticeSessionExpired, Path: path, Message: c.Messages.sessionExpired()})
		return apiErr
	}
	msg := apiErr.Message
	if msg == "" {
		msg = c.Messages.networkError()
	}
	c.notify(ctx, Notice{Kind: NoticeTransport, Path: path, Message: msg})
	return apiErr
}

func readAPIError(resp *http.Response) *APIError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	var payload struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if json.Unmarshal(b, &payload) == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Detail != nil:
			if s, ok := payload.Detail.(string); ok {
				apiErr.Message = s
			}
		}
	}
	return apiErr
}

func (c *Client) notify(ctx context.Context, n Notice) {
	c.logger().Warn("backend call failed", "kind", string(n.Kind), "path", n.Path, "message", n.Message)
	if c.Notifier != nil {
		c.Notifier.Notify(ctx, n)
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c.HTTPClient
}

// streamClient shares the transport but drops the overall timeout, which
// would otherwise cut long-running bodies.
func (c *Client) streamClient() *http.Client {
	base := c.httpClient()
	if base.Timeout == 0 {
		return base
	}
	return &http.Client{Transport: base.Transport, CheckRedirect: base.CheckRedirect, Jar: base.Jar}
}

func (c *Client) session() SessionStore {
	if c.Session == nil {
		c.Session = NewMemorySession()
	}
	return c.Session
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.base() + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
