package ataix

import (
	"strings"

	"github.com/valyala/fastjson"

	"ataix-trader/internal/core"
)

var (
	statusFieldAliases   = []string{"status", "orderStatus"}
	avgPriceFieldAliases = []string{"avgPrice", "averagePrice"}
	filledFieldAliases   = []string{"filledAmount", "filledQty", "filled"}
)

// parseStatusReport decodes a status response into the local vocabulary.
// Fields nested under "result" take precedence over top-level ones. An
// unrecognized status string leaves Status empty; the caller decides via the
// filled-amount comparison.
func parseStatusReport(body []byte) core.StatusReport {
	rep := core.StatusReport{Raw: rawResponse(body)}
	doc, err := fastjson.ParseBytes(body)
	if err != nil {
		return rep
	}
	if raw := stringField(doc, statusFieldAliases); raw != "" {
		rep.Status = normalizeStatus(raw)
	}
	if avg, ok := decimalValue(aliasField(doc, avgPriceFieldAliases)); ok {
		rep.AvgPrice = avg
	}
	if filled, ok := decimalValue(aliasField(doc, filledFieldAliases)); ok {
		rep.FilledAmount = filled
	}
	return rep
}

// normalizeStatus maps the upstream status vocabulary onto the local enum,
// case-insensitively. Unknown strings map to "".
func normalizeStatus(raw string) core.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "filled", "done", "closed", "executed":
		return core.OrderFilled
	case "new":
		return core.OrderNew
	case "open":
		return core.OrderOpen
	case "partially_filled", "partiallyfilled":
		return core.OrderPartiallyFilled
	}
	return ""
}

// aliasField returns the first alias present, preferring the nested result
// object over the response top level.
func aliasField(doc *fastjson.Value, keys []string) *fastjson.Value {
	if result := doc.Get("result"); result != nil && result.Type() == fastjson.TypeObject {
		for _, key := range keys {
			if field := result.Get(key); field != nil {
				return field
			}
		}
	}
	for _, key := range keys {
		if field := doc.Get(key); field != nil {
			return field
		}
	}
	return nil
}

func stringField(doc *fastjson.Value, keys []string) string {
	field := aliasField(doc, keys)
	if field == nil {
		return ""
	}
	if b, err := field.StringBytes(); err == nil {
		return string(b)
	}
	return ""
}
