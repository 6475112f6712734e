package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	ctxlog "github.com/ErlanBelekov/authkit/internal/log"
	"github.com/ErlanBelekov/authkit/internal/metrics"
)

const (
	DefaultTimeout = 30 * time.Second
	defaultAppName = "authkit"
)

// TokenSource yields the bearer token to attach to a request. It is consulted
// on every attempt, so a token rotated mid-session is used by the next call.
type TokenSource interface {
	UserToken(ctx context.Context) (string, bool, error)
}

type Options struct {
	BaseURL string
	Timeout time.Duration

	// AppName and Platform form the User-Agent, e.g. "RNTemplate/linux".
	AppName  string
	Platform string

	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *slog.Logger

	// Debug logs every request and response at debug level.
	Debug bool
}

// Client performs JSON API calls. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	debug      bool
	userAgent  string

	mu        sync.RWMutex
	baseURL   string
	timeout   time.Duration
	defaults  http.Header
	requests  pipeline[RequestInterceptor]
	responses pipeline[ResponseInterceptor]
	nextID    InterceptorID
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// Timeouts are applied per attempt through the request context.
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appName := opts.AppName
	if appName == "" {
		appName = defaultAppName
	}
	platform := opts.Platform
	if platform == "" {
		platform = runtime.GOOS
	}

	return &Client{
		httpClient: httpClient,
		tokens:     opts.Tokens,
		logger:     logger.With("component", "api_client"),
		debug:      opts.Debug,
		userAgent:  appName + "/" + platform,
		baseURL:    opts.BaseURL,
		timeout:    opts.Timeout,
		defaults:   make(http.Header),
	}
}

// Request is one logical call. Retried is set once the call has used its
// single 401 retry; it is local to the call, never shared across calls.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// ContentType overrides the default application/json.
	ContentType      string
	OnUploadProgress func(Progress)

	Retried bool
}

func (r *Request) clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	return &c
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Request    *Request
}

type RequestOption func(*Request)

func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = make(http.Header)
		}
		r.Header.Set(key, value)
	}
}

func WithQuery(query url.Values) RequestOption {
	return func(r *Request) {
		r.Query = query
	}
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodGet, path, nil, out, opts)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPost, path, body, out, opts)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPut, path, body, out, opts)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPatch, path, body, out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodDelete, path, nil, out, opts)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any, opts []RequestOption) error {
	req := &Request{Method: method, Path: path}
	if body != nil {
		raw, err := encodeBody(body)
		if err != nil {
			return Normalize(fmt.Errorf("encode request body: %w", err))
		}
		req.Body = raw
	}
	for _, opt := range opts {
		opt(req)
	}
	return c.Do(ctx, req, out)
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		return json.Marshal(body)
	}
}

// Do executes req and decodes a 2xx body into out. out may be nil, or a
// *[]byte to receive the raw body. Every returned error is an *APIError.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	resp, err := c.execute(ctx, req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *Response, out any) error {
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = resp.Body
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return parseError(resp.StatusCode, err)
	}
	return nil
}

// callConfig is fixed for the lifetime of one logical call.
type callConfig struct {
	baseURL   string
	timeout   time.Duration
	defaults  http.Header
	requests  []stage[RequestInterceptor]
	responses []stage[ResponseInterceptor]
}

func (c *Client) snapshot() callConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	timeout := c.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return callConfig{
		baseURL:   c.baseURL,
		timeout:   timeout,
		defaults:  c.defaults.Clone(),
		requests:  c.requests.snapshot(),
		responses: c.responses.snapshot(),
	}
}

func (c *Client) execute(ctx context.Context, req *Request) (*Response, *APIError) {
	call := req.clone()
	cfg := c.snapshot()

	token, hasToken := c.readToken(ctx)
	for {
		resp, apiErr := c.attempt(ctx, cfg, call, token, hasToken)

		for _, s := range cfg.responses {
			if err := s.fn(resp, apiErr); err != nil {
				return nil, Normalize(fmt.Errorf("response interceptor %q: %w", s.name, err))
			}
		}

		if apiErr != nil {
			if apiErr.IsNetwork() {
				c.logger.ErrorContext(ctx, "network error - no response received",
					"method", call.Method, "path", call.Path, "error", apiErr.Unwrap())
			}
			return nil, apiErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		if resp.StatusCode == http.StatusUnauthorized && !call.Retried {
			call.Retried = true
			if token, hasToken = c.readToken(ctx); hasToken {
				metrics.ClientRetriesTotal.WithLabelValues("unauthorized").Inc()
				c.logger.InfoContext(ctx, "retrying after 401 with current token", "method", call.Method, "path", call.Path)
				continue
			}
		}

		c.logStatus(ctx, call, resp.StatusCode)
		return nil, fromResponse(resp)
	}
}

// attempt runs the request pipeline and dispatches once.
func (c *Client) attempt(ctx context.Context, cfg callConfig, call *Request, token string, hasToken bool) (*Response, *APIError) {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	httpReq, err := c.build(ctx, cfg, call, token, hasToken)
	if err != nil {
		return nil, Normalize(err)
	}
	for _, s := range cfg.requests {
		if err := s.fn(httpReq); err != nil {
			return nil, Normalize(fmt.Errorf("request interceptor %q: %w", s.name, err))
		}
	}

	if c.debug {
		c.logger.DebugContext(ctx, "api request", "method", httpReq.Method, "url", httpReq.URL.String(), "retried", call.Retried)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	metrics.ClientRequestDuration.WithLabelValues(call.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(call.Method, "0").Inc()
		return nil, networkError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(call.Method, "0").Inc()
		return nil, networkError(fmt.Errorf("read response body: %w", err))
	}
	metrics.ClientRequestsTotal.WithLabelValues(call.Method, strconv.Itoa(httpResp.StatusCode)).Inc()

	if c.debug {
		c.logger.DebugContext(ctx, "api response", "status", httpResp.StatusCode, "url", httpReq.URL.String(), "bytes", len(body))
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Request:    call,
	}, nil
}

// build applies the built-in stages in order: static headers, defaults and
// per-call headers, bearer token, request timestamp and request ID.
func (c *Client) build(ctx context.Context, cfg callConfig, call *Request, token string, hasToken bool) (*http.Request, error) {
	target, err := resolveURL(cfg.baseURL, call.Path, call.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
		if call.OnUploadProgress != nil {
			body = &progressReader{r: body, total: int64(len(call.Body)), fn: call.OnUploadProgress}
		}
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if call.Body != nil {
		req.ContentLength = int64(len(call.Body))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	mergeHeader(req.Header, cfg.defaults)
	mergeHeader(req.Header, call.Header)
	if call.ContentType != "" {
		req.Header.Set("Content-Type", call.ContentType)
	}

	if hasToken {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	req.Header.Set("X-Request-Time", strconv.FormatInt(time.Now().UnixMilli(), 10))
	requestID := ctxlog.RequestID(ctx)
	if requestID == "" {
		requestID = ctxlog.NewRequestID()
	}
	req.Header.Set("X-Request-ID", requestID)

	return req, nil
}

func mergeHeader(dst, src http.Header) {
	for k, vs := range src {
		dst.Del(k)
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func resolveURL(base, path string, query url.Values) (string, error) {
	var target string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		target = path
	} else {
		target = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", target, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) readToken(ctx context.Context) (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	token, ok, err := c.tokens.UserToken(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "read token, proceeding unauthenticated", "error", err)
		return "", false
	}
	return token, ok && token != ""
}

func (c *Client) logStatus(ctx context.Context, call *Request, status int) {
	switch {
	case status == http.StatusForbidden:
		c.logger.WarnContext(ctx, "access forbidden - user may not have required permissions", "path", call.Path)
	case status == http.StatusNotFound:
		c.logger.WarnContext(ctx, "resource not found", "path", call.Path)
	case status >= 500:
		c.logger.ErrorContext(ctx, "server error occurred", "status", status, "path", call.Path)
	case c.debug:
		c.logger.DebugContext(ctx, "api error", "status", status, "path", call.Path)
	}
}

// SetAuthToken sets a default Authorization header. A token from the
// TokenSource takes precedence when one is present.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults.Set("Authorization", "Bearer "+token)
}

func (c *Client) ClearAuthToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults.Del("Authorization")
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL affects calls started after it returns.
func (c *Client) SetBaseURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = u
}

func (c *Client) Timeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.timeout <= 0 {
		return DefaultTimeout
	}
	return c.timeout
}

func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// AddRequestInterceptor appends fn to the request pipeline. Interceptors run
// in insertion order.
func (c *Client) AddRequestInterceptor(name string, fn RequestInterceptor) InterceptorID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.requests.add(c.nextID, name, fn)
	return c.nextID
}

// AddResponseInterceptor appends fn to the response pipeline. Interceptors
// run in insertion order.
func (c *Client) AddResponseInterceptor(name string, fn ResponseInterceptor) InterceptorID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.responses.add(c.nextID, name, fn)
	return c.nextID
}

// RemoveInterceptor reports whether an interceptor with id was removed.
func (c *Client) RemoveInterceptor(kind InterceptorKind, id InterceptorID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch kind {
	case RequestStage:
		return c.requests.remove(id)
	case ResponseStage:
		return c.responses.remove(id)
	default:
		return false
	}
}
