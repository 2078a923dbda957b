package ataix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"

	"ataix-trader/internal/core"
)

// orderIDAliases is the fixed priority list for identifier extraction,
// checked at the response top level first and then under "result".
var orderIDAliases = []string{"orderID", "orderId", "id", "clientOrderId", "dataId"}

type orderRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// PlaceOrder normalizes the candidate to exchange formatting (price rounded
// to the pair precision, quantity floored to the lot step) and submits a
// limit order. 401/403 is fatal for the run; any other non-success status is
// an order rejection carrying the upstream body.
func (c *Client) PlaceOrder(ctx context.Context, pair string, side core.Side, price, qty decimal.Decimal, cons core.Constraints) (core.OrderRecord, error) {
	price, qty = cons.Normalize(price, qty)
	side = side.Normalize()
	body := orderRequest{
		Symbol:   pair,
		Side:     string(side),
		Type:     "limit",
		Price:    price.String(),
		Quantity: qty.String(),
	}
	resp, err := c.http.Request(ctx, http.MethodPost, "/api/orders", c.apiKey, body, nil)
	if err != nil {
		return core.OrderRecord{}, err
	}
	if resp.AuthDenied() {
		return core.OrderRecord{}, core.WrapStatus(resp.StatusCode, resp.Body, nil)
	}
	if !resp.OK() {
		return core.OrderRecord{}, core.WrapStatus(resp.StatusCode, resp.Body, core.ErrOrderRejected)
	}
	return core.OrderRecord{
		ID:                 uuid.NewString(),
		Side:               side,
		Price:              price,
		Quantity:           qty,
		Pair:               pair,
		OrderID:            ExtractOrderID(resp.Body),
		Status:             core.OrderNew,
		CreatedRawResponse: rawResponse(resp.Body),
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// statusLookup describes one alternate status-endpoint shape.
type statusLookup struct {
	path   string
	params url.Values
}

func statusLookups(orderID string) []statusLookup {
	escaped := url.PathEscape(orderID)
	return []statusLookup{
		{path: "/api/orders/" + escaped},
		{path: "/api/user/orders/" + escaped},
		{path: "/api/orders", params: url.Values{"id": {orderID}}},
	}
}

// OrderStatus fetches the order's status, trying alternate path shapes until
// one succeeds. A failed path is skipped; auth denial aborts immediately.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (core.StatusReport, error) {
	for _, lookup := range statusLookups(orderID) {
		resp, err := c.http.Request(ctx, http.MethodGet, lookup.path, c.apiKey, nil, lookup.params)
		if err != nil {
			continue
		}
		if resp.AuthDenied() {
			return core.StatusReport{}, core.WrapStatus(resp.StatusCode, resp.Body, nil)
		}
		if !resp.OK() {
			continue
		}
		return parseStatusReport(resp.Body), nil
	}
	return core.StatusReport{}, fmt.Errorf("%w: order %s", core.ErrStatusLookup, orderID)
}

// CancelOrder cancels by id. Available but not invoked during a normal run.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	escaped := url.PathEscape(orderID)
	var lastErr error
	for _, path := range []string{"/api/orders/" + escaped, "/api/user/orders/" + escaped} {
		resp, err := c.http.Request(ctx, http.MethodDelete, path, c.apiKey, nil, nil)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.OK() {
			return rawResponse(resp.Body), nil
		}
		lastErr = core.StatusError{Code: resp.StatusCode, Body: string(resp.Body)}
	}
	return nil, fmt.Errorf("cancel order %s: %w", orderID, lastErr)
}

// ExtractOrderID pulls the exchange-assigned identifier out of a creation or
// status response, or returns "" when none of the known aliases is present.
func ExtractOrderID(body []byte) string {
	doc, err := fastjson.ParseBytes(body)
	if err != nil {
		return ""
	}
	if id := idFromObject(doc); id != "" {
		return id
	}
	return idFromObject(doc.Get("result"))
}

func idFromObject(v *fastjson.Value) string {
	if v == nil || v.Type() != fastjson.TypeObject {
		return ""
	}
	for _, key := range orderIDAliases {
		field := v.Get(key)
		if field == nil {
			continue
		}
		switch field.Type() {
		case fastjson.TypeString:
			if b, err := field.StringBytes(); err == nil && len(b) > 0 {
				return string(b)
			}
		case fastjson.TypeNumber:
			if n, err := field.Int64(); err == nil && n != 0 {
				return strconv.FormatInt(n, 10)
			}
		}
	}
	return ""
}
