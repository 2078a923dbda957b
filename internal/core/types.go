package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

type OrderStatus string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// The exchange accepts side only in lower case.
func (s Side) Normalize() Side {
	return Side(strings.ToLower(strings.TrimSpace(string(s))))
}

const (
	OrderNew             OrderStatus = "NEW"
	OrderOpen            OrderStatus = "OPEN"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderClosed          OrderStatus = "CLOSED"
)

// Terminal reports whether the status excludes the order from further polling.
func (s OrderStatus) Terminal() bool {
	return s == OrderFilled || s == OrderClosed
}

// Constraints holds per-pair order limits resolved from the symbol catalog.
// Immutable for the duration of a run.
type Constraints struct {
	PricePrecision int32           `json:"price_precision"`
	LotSize        decimal.Decimal `json:"lot_size"`
	MinQty         decimal.Decimal `json:"min_qty"`
	MinNotional    decimal.Decimal `json:"min_notional"`
}

// Candidate is a sizing result not yet normalized to exchange precision.
type Candidate struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Funds    decimal.Decimal
}

// OrderRecord is the persisted representation of one placed order.
// ID is assigned locally so linkage survives a missing exchange order id.
type OrderRecord struct {
	ID                 string          `json:"id"`
	Side               Side            `json:"side"`
	Price              decimal.Decimal `json:"price"`
	Quantity           decimal.Decimal `json:"quantity"`
	Pair               string          `json:"pair"`
	OrderID            string          `json:"order_id,omitempty"`
	Status             OrderStatus     `json:"status"`
	LinkedSellOrder    string          `json:"linked_sell_order,omitempty"`
	LinkedBuyOrder     string          `json:"linked_buy_order,omitempty"`
	CreatedRawResponse json.RawMessage `json:"created_raw_response,omitempty"`
	StatusRawResponse  json.RawMessage `json:"status_raw_response,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Ref returns the identifier other records link against: the exchange order
// id when known, otherwise the local record id.
func (r OrderRecord) Ref() string {
	if r.OrderID != "" {
		return r.OrderID
	}
	return r.ID
}

// LinkSell records the generated sell counterpart. The linkage is established
// at most once; later calls are no-ops.
func (r *OrderRecord) LinkSell(ref string) bool {
	if r.LinkedSellOrder != "" || ref == "" {
		return false
	}
	r.LinkedSellOrder = ref
	return true
}

// StatusReport is a normalized order-status response. Status is empty when
// the upstream vocabulary was not recognized; AvgPrice and FilledAmount are
// zero when the response did not report them.
type StatusReport struct {
	Status       OrderStatus
	AvgPrice     decimal.Decimal
	FilledAmount decimal.Decimal
	Raw          json.RawMessage
}
