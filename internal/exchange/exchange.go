package exchange

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"ataix-trader/internal/core"
)

// Market bundles everything the run needs to size orders for one pair,
// resolved once per run.
type Market struct {
	Pair           string
	Constraints    core.Constraints
	ReferencePrice decimal.Decimal
}

type Exchange interface {
	Name() string
	AvailableFunds(ctx context.Context, currency string) (decimal.Decimal, error)
	ResolveMarket(ctx context.Context, pair string) (Market, error)
	PlaceOrder(ctx context.Context, pair string, side core.Side, price, qty decimal.Decimal, cons core.Constraints) (core.OrderRecord, error)
	OrderStatus(ctx context.Context, orderID string) (core.StatusReport, error)
	CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error)
}
