// Package engine sequences one full trading pass: resolve funds and market,
// size tiered buys, place them, then check statuses once and generate a
// take-profit sell for every buy that filled.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ataix-trader/internal/core"
	"ataix-trader/internal/exchange"
	"ataix-trader/internal/metrics"
	"ataix-trader/internal/sizing"
	"ataix-trader/internal/store"
)

// fillEpsilon tolerates representation noise when comparing a reported
// filled amount against the ordered quantity.
var fillEpsilon = decimal.New(1, -9)

var defaultSellMarkup = decimal.RequireFromString("1.02")

type Runner struct {
	Exchange exchange.Exchange
	Store    *store.Store
	Planner  *sizing.Planner
	Log      *zap.SugaredLogger
	// SellMarkup multiplies the fill price to produce the take-profit price.
	SellMarkup decimal.Decimal
	// CancelOpen enables the pre-placement sweep canceling NEW/OPEN buys.
	// Off by default; present as a capability only.
	CancelOpen bool
}

type Params struct {
	Pair string
	// SpendLimit caps how much quote currency the run may commit; it also
	// serves as the funds ceiling when the balance cannot be read.
	SpendLimit decimal.Decimal
}

// Run executes one pass and returns the final in-memory document. The
// returned document reflects everything persisted so far even when Run also
// returns an error.
func (r *Runner) Run(ctx context.Context, p Params) (*store.Document, error) {
	markup := r.SellMarkup
	if markup.Cmp(decimal.Zero) <= 0 {
		markup = defaultSellMarkup
	}

	currency := quoteCurrency(p.Pair)
	r.Log.Infow("fetching balance", "currency", currency)
	available, err := r.Exchange.AvailableFunds(ctx, currency)
	if err != nil {
		if errors.Is(err, core.ErrAuthDenied) {
			return nil, fmt.Errorf("fetch balance: %w", err)
		}
		// A balance-read failure alone never aborts the run; the caller's
		// spend limit becomes the funds ceiling.
		r.Log.Warnw("balance unavailable, using spend limit as ceiling",
			"error", err, "ceiling", p.SpendLimit)
		available = p.SpendLimit
	}
	r.Log.Infow("available funds", "currency", currency, "amount", available)

	market, err := r.Exchange.ResolveMarket(ctx, p.Pair)
	if err != nil {
		return nil, fmt.Errorf("resolve market %s: %w", p.Pair, err)
	}
	r.Log.Infow("market resolved",
		"pair", market.Pair,
		"reference_price", market.ReferencePrice,
		"price_precision", market.Constraints.PricePrecision,
		"lot_size", market.Constraints.LotSize,
		"min_qty", market.Constraints.MinQty,
		"min_notional", market.Constraints.MinNotional)

	candidates, err := r.Planner.Plan(available, p.SpendLimit, market.Constraints, market.ReferencePrice)
	if err != nil {
		return nil, err
	}

	doc, ok, err := r.Store.Load()
	if err != nil {
		r.Log.Warnw("order store unreadable, starting from empty state",
			"path", r.Store.Path(), "error", err)
	} else if ok {
		r.Log.Infow("order store loaded", "path", r.Store.Path(), "orders", len(doc.Orders))
	}

	if r.CancelOpen {
		r.cancelOpenBuys(ctx, doc)
	}

	r.Log.Infow("placing limit buys", "pair", p.Pair, "count", len(candidates))
	for _, cand := range candidates {
		rec, err := r.Exchange.PlaceOrder(ctx, p.Pair, core.Buy, cand.Price, cand.Quantity, market.Constraints)
		if err != nil {
			if errors.Is(err, core.ErrAuthDenied) {
				return doc, fmt.Errorf("place buy order: %w", err)
			}
			// One rejected candidate must not block the rest.
			r.Log.Errorw("buy order failed", "price", cand.Price, "qty", cand.Quantity, "error", err)
			metrics.IncOrderRejected(string(core.Buy))
			continue
		}
		doc.Append(rec)
		r.persist(doc)
		metrics.IncOrderPlaced(string(core.Buy))
		r.Log.Infow("buy order placed",
			"order_id", rec.OrderID, "price", rec.Price, "qty", rec.Quantity)
	}

	if err := r.checkStatuses(ctx, doc, market, markup); err != nil {
		return doc, err
	}
	r.Log.Infow("status pass complete; re-run the command to keep monitoring")
	return doc, nil
}

// checkStatuses performs the single status pass over every non-terminal buy
// with a known order id, generating the linked sell on fill.
func (r *Runner) checkStatuses(ctx context.Context, doc *store.Document, market exchange.Market, markup decimal.Decimal) error {
	r.Log.Infow("checking buy order statuses")
	for i := 0; i < len(doc.Orders); i++ {
		if doc.Orders[i].Side != core.Buy {
			continue
		}
		if doc.Orders[i].Status.Terminal() {
			continue
		}
		orderID := doc.Orders[i].OrderID
		if orderID == "" {
			r.Log.Warnw("order has no exchange id, skipping status check", "id", doc.Orders[i].ID)
			continue
		}

		rep, err := r.Exchange.OrderStatus(ctx, orderID)
		if err != nil {
			if errors.Is(err, core.ErrAuthDenied) {
				return fmt.Errorf("check order %s: %w", orderID, err)
			}
			// The record keeps its last known status.
			r.Log.Errorw("status check failed", "order_id", orderID, "error", err)
			continue
		}

		status := rep.Status
		if status == "" {
			// Unrecognized vocabulary: fall back to comparing the reported
			// filled amount against the ordered quantity.
			if rep.FilledAmount.Cmp(doc.Orders[i].Quantity.Sub(fillEpsilon)) >= 0 {
				status = core.OrderFilled
			} else {
				status = core.OrderNew
			}
		}
		doc.Orders[i].Status = status
		doc.Orders[i].StatusRawResponse = rep.Raw
		r.persist(doc)
		r.Log.Infow("order status", "order_id", orderID, "status", status)

		if status != core.OrderFilled || doc.Orders[i].LinkedSellOrder != "" {
			continue
		}
		metrics.IncOrderFilled()

		fillPrice := doc.Orders[i].Price
		if rep.AvgPrice.IsPositive() {
			fillPrice = rep.AvgPrice
		}
		sellPrice := fillPrice.Mul(markup)
		sellQty := doc.Orders[i].Quantity

		sellRec, err := r.Exchange.PlaceOrder(ctx, market.Pair, core.Sell, sellPrice, sellQty, market.Constraints)
		if err != nil {
			// The buy's own status is untouched; the sell can be retried on
			// the next invocation since the linkage was never recorded.
			r.Log.Errorw("sell order failed", "buy_order_id", orderID, "price", sellPrice, "error", err)
			metrics.IncOrderRejected(string(core.Sell))
			continue
		}
		sellRec.LinkedBuyOrder = doc.Orders[i].Ref()
		doc.Append(sellRec)
		doc.Orders[i].LinkSell(sellRec.Ref())
		r.persist(doc)
		metrics.IncOrderPlaced(string(core.Sell))
		metrics.IncSellLinked()
		r.Log.Infow("take-profit sell placed",
			"order_id", sellRec.OrderID, "price", sellRec.Price, "qty", sellRec.Quantity,
			"buy_order_id", orderID)
	}
	return nil
}

// cancelOpenBuys cancels every NEW/OPEN buy with a known order id. Disabled
// during a normal run.
func (r *Runner) cancelOpenBuys(ctx context.Context, doc *store.Document) {
	for i := range doc.Orders {
		rec := doc.Orders[i]
		if rec.Side != core.Buy || rec.OrderID == "" {
			continue
		}
		switch rec.Status {
		case "", core.OrderNew, core.OrderOpen:
		default:
			continue
		}
		if _, err := r.Exchange.CancelOrder(ctx, rec.OrderID); err != nil {
			r.Log.Warnw("cancel failed", "order_id", rec.OrderID, "error", err)
			continue
		}
		r.Log.Infow("order canceled", "order_id", rec.OrderID)
	}
}

// persist flushes the document; a write failure is logged but never stops
// the pass.
func (r *Runner) persist(doc *store.Document) {
	if err := r.Store.Save(doc); err != nil {
		r.Log.Errorw("persist order store failed", "path", r.Store.Path(), "error", err)
	}
}

func quoteCurrency(pair string) string {
	if i := strings.LastIndex(pair, "/"); i >= 0 && i+1 < len(pair) {
		return pair[i+1:]
	}
	return "USDT"
}
