// Package metrics exposes Prometheus counters updated during a run and an
// optional /metrics handler served while the run executes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_api_requests_total",
			Help: "HTTP requests issued to the exchange",
		},
		[]string{"method"},
	)

	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_orders_placed_total",
			Help: "Orders accepted by the exchange",
		},
		[]string{"side"},
	)

	ordersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_orders_rejected_total",
			Help: "Orders refused by the exchange",
		},
		[]string{"side"},
	)

	ordersFilled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trader_orders_filled_total",
			Help: "Buy orders observed transitioning to FILLED",
		},
	)

	sellsLinked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trader_sells_linked_total",
			Help: "Take-profit sell orders generated for filled buys",
		},
	)
)

func init() {
	prometheus.MustRegister(apiRequests, ordersPlaced, ordersRejected, ordersFilled, sellsLinked)
}

func IncAPIRequest(method string)  { apiRequests.WithLabelValues(method).Inc() }
func IncOrderPlaced(side string)   { ordersPlaced.WithLabelValues(side).Inc() }
func IncOrderRejected(side string) { ordersRejected.WithLabelValues(side).Inc() }
func IncOrderFilled()              { ordersFilled.Inc() }
func IncSellLinked()               { sellsLinked.Inc() }

// Handler returns the Prometheus text exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
