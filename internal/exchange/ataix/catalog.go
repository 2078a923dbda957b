package ataix

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"

	"ataix-trader/internal/core"
	"ataix-trader/internal/exchange"
)

// Soft defaults applied when the catalog omits a constraint field. The
// catalog is trusted where present; absence is tolerated rather than fatal,
// so runs survive incomplete upstream metadata.
var (
	defaultPricePrecision = int32(8)
	defaultLotSize        = decimal.New(1, -6) // 0.000001
	defaultMinNotional    = decimal.New(5, -1) // 0.5 quote units
)

// priceFieldAliases is the fixed priority order for catalog-embedded prices.
var priceFieldAliases = []string{"bid", "bestBid", "last", "price"}

// Catalog fetches the full instrument list.
func (c *Client) Catalog(ctx context.Context) (*fastjson.Value, error) {
	resp, err := c.http.Request(ctx, http.MethodGet, "/api/symbols", c.apiKey, nil, nil)
	if err != nil {
		return nil, errors.Join(core.ErrCatalogFetch, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetch catalog: %w", core.WrapStatus(resp.StatusCode, resp.Body, core.ErrCatalogFetch))
	}
	doc, err := fastjson.ParseBytes(resp.Body)
	if err != nil {
		return nil, errors.Join(core.ErrMalformedCatalog, err)
	}
	return doc, nil
}

// FindPair locates the record whose symbol exactly matches pair.
func FindPair(catalog *fastjson.Value, pair string) (*fastjson.Value, error) {
	if catalog == nil {
		return nil, core.ErrMalformedCatalog
	}
	result := catalog.Get("result")
	if result == nil || result.Type() != fastjson.TypeArray {
		return nil, core.ErrMalformedCatalog
	}
	entries, err := result.Array()
	if err != nil {
		return nil, core.ErrMalformedCatalog
	}
	for _, entry := range entries {
		if entry.Type() != fastjson.TypeObject {
			continue
		}
		if string(entry.GetStringBytes("symbol")) == pair {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrPairNotFound, pair)
}

// ResolveConstraints extracts precision/lot/minimum fields, applying soft
// defaults for anything absent. MinQty defaults to the lot size since some
// listings treat them as the same limit.
func ResolveConstraints(record *fastjson.Value) core.Constraints {
	cons := core.Constraints{
		PricePrecision: defaultPricePrecision,
		LotSize:        defaultLotSize,
		MinNotional:    defaultMinNotional,
	}
	if record != nil {
		if prec, ok := decimalValue(record.Get("pricePrecision")); ok && prec.IsPositive() {
			cons.PricePrecision = int32(prec.IntPart())
		}
		if lot, ok := decimalValue(record.Get("lotSize")); ok && lot.IsPositive() {
			cons.LotSize = lot
		}
		if notional, ok := decimalValue(record.Get("minNotional")); ok && notional.IsPositive() {
			cons.MinNotional = notional
		}
	}
	cons.MinQty = cons.LotSize
	if record != nil {
		if minQty, ok := decimalValue(record.Get("minQty")); ok && minQty.IsPositive() {
			cons.MinQty = minQty
		}
	}
	return cons
}

// ReferencePrice resolves a usable price for the pair: the first strictly
// positive catalog price field wins, otherwise the public order book's top
// bid is used.
func (c *Client) ReferencePrice(ctx context.Context, record *fastjson.Value, pair string) (decimal.Decimal, error) {
	if record != nil {
		for _, key := range priceFieldAliases {
			if price, ok := decimalValue(record.Get(key)); ok && price.IsPositive() {
				return price, nil
			}
		}
	}
	if c.log != nil {
		c.log.Infow("no catalog price, falling back to public order book", "pair", pair)
	}
	return c.bestBid(ctx, pair)
}

// bestBid fetches the public order book and returns the top bid's price.
// Bids may be tuples ([price, qty]) or objects ({price, qty}).
func (c *Client) bestBid(ctx context.Context, pair string) (decimal.Decimal, error) {
	resp, err := c.http.Request(ctx, http.MethodGet, "/api/cmc/v1/orderbook/"+pair, "", nil, nil)
	if err != nil {
		return decimal.Zero, errors.Join(core.ErrNoPriceAvailable, err)
	}
	if !resp.OK() {
		return decimal.Zero, fmt.Errorf("fetch order book: %w", core.WrapStatus(resp.StatusCode, resp.Body, core.ErrNoPriceAvailable))
	}
	doc, err := fastjson.ParseBytes(resp.Body)
	if err != nil {
		return decimal.Zero, errors.Join(core.ErrNoPriceAvailable, err)
	}
	bids := doc.GetArray("result", "bids")
	if len(bids) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", core.ErrEmptyOrderBook, pair)
	}
	top := bids[0]
	switch top.Type() {
	case fastjson.TypeArray:
		entries, err := top.Array()
		if err == nil && len(entries) >= 1 {
			if price, ok := decimalValue(entries[0]); ok {
				return price, nil
			}
		}
	case fastjson.TypeObject:
		if price, ok := decimalValue(top.Get("price")); ok {
			return price, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: unexpected top bid shape for %s", core.ErrNoPriceAvailable, pair)
}

// ResolveMarket combines catalog lookup, constraint extraction, and price
// discovery for one pair.
func (c *Client) ResolveMarket(ctx context.Context, pair string) (exchange.Market, error) {
	catalog, err := c.Catalog(ctx)
	if err != nil {
		return exchange.Market{}, err
	}
	record, err := FindPair(catalog, pair)
	if err != nil {
		return exchange.Market{}, err
	}
	cons := ResolveConstraints(record)
	price, err := c.ReferencePrice(ctx, record, pair)
	if err != nil {
		return exchange.Market{}, err
	}
	return exchange.Market{Pair: pair, Constraints: cons, ReferencePrice: price}, nil
}
