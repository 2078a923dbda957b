// Package transport issues HTTP requests against a fixed base URL, trying a
// prioritized sequence of credential header encodings until one yields a
// response. It has no knowledge of trading semantics.
package transport

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

	"go.uber.org/zap"

	"ataix-trader/internal/core"
	"ataix-trader/internal/metrics"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultRetryDelay = 500 * time.Millisecond
)

type Client struct {
	baseURL    string
	retryDelay time.Duration
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// Response is whatever the first responding header variant produced. Callers
// inspect the status code; the client does not judge success.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) AuthDenied() bool {
	return r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden
}

func New(baseURL string, timeout, retryDelay time.Duration, log *zap.SugaredLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		retryDelay: retryDelay,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// headerVariants lists the credential encodings in priority order; the final
// empty variant is the unauthenticated fallback for public endpoints.
func headerVariants(apiKey string) []map[string]string {
	variants := make([]map[string]string, 0, 5)
	if apiKey != "" {
		variants = append(variants,
			map[string]string{"X-API-KEY": apiKey},
			map[string]string{"Authorization": "Bearer " + apiKey},
			map[string]string{"api_key": apiKey},
			map[string]string{"Api-Key": apiKey},
		)
	}
	return append(variants, map[string]string{})
}

// Request issues method against path, rotating auth header variants. A
// transport-level failure advances to the next variant after a short fixed
// delay; the first response of any status wins. Returns core.ErrNoResponse
// when every variant fails to produce a response.
func (c *Client) Request(ctx context.Context, method, path, apiKey string, body any, params url.Values) (*Response, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + params.Encode()
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for _, headers := range headerVariants(apiKey) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		metrics.IncAPIRequest(method)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if c.log != nil {
				c.log.Warnw("request failed, rotating auth header variant",
					"method", method, "url", target, "error", err)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return &Response{StatusCode: resp.StatusCode, Body: data}, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", core.ErrNoResponse, method, target, lastErr)
	}
	return nil, fmt.Errorf("%w: %s %s", core.ErrNoResponse, method, target)
}
