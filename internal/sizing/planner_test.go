package sizing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ataix-trader/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testConstraints() core.Constraints {
	return core.Constraints{
		PricePrecision: 8,
		LotSize:        dec("0.000001"),
		MinQty:         dec("0.000001"),
		MinNotional:    dec("0.5"),
	}
}

func TestPlanThreeTiers(t *testing.T) {
	p := NewPlanner(nil, nil)
	candidates, err := p.Plan(dec("10"), dec("10"), testConstraints(), dec("1"))
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	wantPrices := []string{"0.98", "0.95", "0.92"}
	total := decimal.Zero
	for i, c := range candidates {
		assert.True(t, c.Price.Equal(dec(wantPrices[i])), "tier %d price = %s", i, c.Price)
		assert.True(t, c.Funds.Cmp(dec("3.33")) > 0 && c.Funds.Cmp(dec("3.34")) < 0,
			"tier %d funds = %s, want ~3.33", i, c.Funds)
		assert.True(t, c.Quantity.Mul(c.Price).Sub(c.Funds).Abs().Cmp(dec("0.0000001")) < 0,
			"tier %d notional should match its funds share", i)
		total = total.Add(c.Funds)
	}
	assert.True(t, total.Cmp(dec("10.0000001")) <= 0, "tiers sum %s must not exceed usable funds", total)
}

func TestPlanCollapsesWhenFundsSmall(t *testing.T) {
	// usable = min(1, 10) = 1; one third is 0.333 < minNotional 0.5.
	p := NewPlanner(nil, nil)
	candidates, err := p.Plan(dec("1"), dec("10"), testConstraints(), dec("1"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Price.Equal(dec("0.98")))
	assert.True(t, candidates[0].Funds.Equal(dec("1")))
}

func TestPlanInsufficientFunds(t *testing.T) {
	p := NewPlanner(nil, nil)
	_, err := p.Plan(dec("0"), dec("10"), testConstraints(), dec("1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientFunds))
}

func TestPlanSkipsTiersBelowMinQty(t *testing.T) {
	cons := testConstraints()
	cons.MinQty = dec("100")
	cons.MinNotional = dec("0.1")
	p := NewPlanner(nil, nil)
	// Each tier's qty is ~3.4, below minQty 100; skipped, not fatal.
	candidates, err := p.Plan(dec("10"), dec("10"), cons, dec("1"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestPlanUsableIsMinOfAvailableAndWanted(t *testing.T) {
	p := NewPlanner(nil, nil)
	candidates, err := p.Plan(dec("100"), dec("9"), testConstraints(), dec("1"))
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	for _, c := range candidates {
		assert.True(t, c.Funds.Equal(dec("3")), "tier funds = %s, want 3", c.Funds)
	}
}

func TestPlanCustomDiscounts(t *testing.T) {
	p := NewPlanner([]decimal.Decimal{dec("0.99"), dec("0.90")}, nil)
	candidates, err := p.Plan(dec("10"), dec("10"), testConstraints(), dec("2"))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.True(t, candidates[0].Price.Equal(dec("1.98")))
	assert.True(t, candidates[1].Price.Equal(dec("1.8")))
}
