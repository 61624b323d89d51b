package whalesclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/whales/pkg/whalesdto"
	"github.com/valyala/fasthttp"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(attempts int) Option {
	return func(c *Client) { c.retryMax = attempts }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 30 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListModels(ctx context.Context) ([]whalesdto.ModelInfo, error) {
	resp, err := c.Query(ctx, whalesdto.Request{Command: whalesdto.CommandListModels}, true)
	if err != nil {
		return nil, err
	}
	return resp.ModelList(), nil
}

// GetMove returns pgn extended by one move of model. It is never retried since
// every served move is logged.
func (c *Client) GetMove(ctx context.Context, model, pgn string) (string, error) {
	resp, err := c.Query(ctx, whalesdto.Request{Command: whalesdto.CommandGetMove, Model: model, PGN: &pgn}, false)
	if err != nil {
		return "", err
	}
	return resp.PGN, nil
}

func (c *Client) RenderBoard(ctx context.Context, pgn string) ([]byte, error) {
	resp, err := c.Query(ctx, whalesdto.Request{Command: whalesdto.CommandRenderBoard, PGN: &pgn}, true)
	if err != nil {
		return nil, err
	}
	png, err := base64.StdEncoding.DecodeString(resp.PNG)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return png, nil
}

func (c *Client) RecentMoves(ctx context.Context, model string, limit int) ([]whalesdto.MoveRecord, error) {
	resp, err := c.Query(ctx, whalesdto.Request{Command: whalesdto.CommandRecentMoves, Model: model, Limit: limit}, true)
	if err != nil {
		return nil, err
	}
	return resp.MoveList(), nil
}

// Health reports whether /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	var status map[string]string
	return c.doJSON(ctx, fasthttp.MethodGet, "/healthz", nil, &status, false)
}

// Query posts req to /api. A response carrying an error message is returned as
// a whalesdto.DomainError.
func (c *Client) Query(ctx context.Context, req whalesdto.Request, retry bool) (*whalesdto.Response, error) {
	var resp whalesdto.Response
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api", req, &resp, retry); err != nil {
		return nil, err
	}
	if resp.Failed() {
		return nil, whalesdto.DomainError{Message: *resp.Error}
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	url := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("whales api error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if attempt == attempts || !shouldRetryStatus(status) {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
