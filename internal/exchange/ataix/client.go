// Package ataix implements the exchange REST surface: balance lookup, symbol
// catalog and price discovery, and the order lifecycle endpoints.
//
// Upstream payloads are heterogeneous (fields arrive as strings or numbers,
// sometimes at the top level and sometimes nested under "result"), so this
// package decodes with fastjson and explicit, ordered field-alias lists
// instead of fixed struct shapes.
package ataix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"ataix-trader/internal/core"
	"ataix-trader/internal/transport"
)

const DefaultBaseURL = "https://api.ataix.kz"

type Client struct {
	http   *transport.Client
	apiKey string
	log    *zap.SugaredLogger
}

type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	RetryDelay time.Duration
	Log        *zap.SugaredLogger
}

func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http:   transport.New(base, opts.Timeout, opts.RetryDelay, opts.Log),
		apiKey: opts.APIKey,
		log:    opts.Log,
	}
}

func (c *Client) Name() string { return "ataix" }

// AvailableFunds reads the quote-currency balance. The available amount may
// arrive under "available", "free", or "total"; the first parseable wins.
func (c *Client) AvailableFunds(ctx context.Context, currency string) (decimal.Decimal, error) {
	resp, err := c.http.Request(ctx, http.MethodGet, "/api/user/balances/"+currency, c.apiKey, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if resp.AuthDenied() {
		return decimal.Zero, core.WrapStatus(resp.StatusCode, resp.Body, nil)
	}
	if !resp.OK() {
		return decimal.Zero, fmt.Errorf("fetch balance: %w", core.StatusError{Code: resp.StatusCode, Body: string(resp.Body)})
	}
	doc, err := fastjson.ParseBytes(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode balance response: %w", err)
	}
	for _, key := range []string{"available", "free", "total"} {
		if amount, ok := decimalValue(doc.Get("result", key)); ok {
			return amount, nil
		}
	}
	return decimal.Zero, errors.New("available amount missing from balance response")
}

// rawResponse keeps the upstream payload for audit. Non-JSON bodies are
// wrapped so the stored document stays valid JSON.
func rawResponse(body []byte) json.RawMessage {
	if json.Valid(body) {
		raw := make([]byte, len(body))
		copy(raw, body)
		return raw
	}
	wrapped, err := json.Marshal(map[string]string{"raw_text": string(body)})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return wrapped
}

// decimalValue parses a scalar that may be encoded as a JSON string or number.
func decimalValue(v *fastjson.Value) (decimal.Decimal, bool) {
	if v == nil {
		return decimal.Zero, false
	}
	switch v.Type() {
	case fastjson.TypeString:
		b, err := v.StringBytes()
		if err != nil {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case fastjson.TypeNumber:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}
