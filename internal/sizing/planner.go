// Package sizing turns available quote funds into a tiered list of limit buy
// candidates below the reference price.
package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ataix-trader/internal/core"
)

// DefaultDiscounts are the multiplicative tier factors applied to the
// reference price, one third of the usable funds each.
var DefaultDiscounts = []decimal.Decimal{
	decimal.RequireFromString("0.98"),
	decimal.RequireFromString("0.95"),
	decimal.RequireFromString("0.92"),
}

type Planner struct {
	Discounts []decimal.Decimal
	Log       *zap.SugaredLogger
}

func NewPlanner(discounts []decimal.Decimal, log *zap.SugaredLogger) *Planner {
	if len(discounts) == 0 {
		discounts = DefaultDiscounts
	}
	return &Planner{Discounts: discounts, Log: log}
}

// Plan computes buy candidates for usable = min(available, wanted). When one
// tier's share falls below the minimum notional, the plan collapses to a
// single conservative tier spending the full usable amount instead of
// rejecting all tiers. Tiers below the pair minimums are skipped, not fatal.
// Candidates are not yet rounded to exchange precision; that happens at
// placement.
func (p *Planner) Plan(available, wanted decimal.Decimal, cons core.Constraints, referencePrice decimal.Decimal) ([]core.Candidate, error) {
	usable := decimal.Min(available, wanted)
	if usable.Cmp(decimal.Zero) <= 0 {
		return nil, fmt.Errorf("%w: available=%s wanted=%s", core.ErrInsufficientFunds, available, wanted)
	}

	discounts := p.Discounts
	if len(discounts) == 0 {
		discounts = DefaultDiscounts
	}
	tiers := decimal.NewFromInt(int64(len(discounts)))
	perTier := usable.Div(tiers)
	if perTier.Cmp(cons.MinNotional) < 0 {
		discounts = discounts[:1]
		perTier = usable
		if p.Log != nil {
			p.Log.Infow("funds too small for the tiered plan, collapsing to one order",
				"usable", usable, "min_notional", cons.MinNotional)
		}
	}

	candidates := make([]core.Candidate, 0, len(discounts))
	for _, discount := range discounts {
		price := referencePrice.Mul(discount)
		if price.Cmp(decimal.Zero) <= 0 {
			continue
		}
		qty := perTier.Div(price)
		if qty.Cmp(cons.MinQty) < 0 || perTier.Cmp(cons.MinNotional) < 0 {
			if p.Log != nil {
				p.Log.Infow("skipping tier below pair minimums",
					"price", price, "qty", qty, "funds", perTier,
					"min_qty", cons.MinQty, "min_notional", cons.MinNotional)
			}
			continue
		}
		candidates = append(candidates, core.Candidate{Price: price, Quantity: qty, Funds: perTier})
	}
	return candidates, nil
}
