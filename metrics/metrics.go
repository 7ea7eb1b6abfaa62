// Package metrics holds the prometheus collectors shared by the
// listeners and the protocol sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maildrop_connections_total",
		Help: "Accepted client connections by protocol.",
	}, []string{"protocol"})

	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maildrop_commands_total",
		Help: "Handled protocol commands.",
	}, []string{"protocol", "command"})

	DeliveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maildrop_deliveries_total",
		Help: "Messages accepted for delivery.",
	})

	DeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maildrop_delivery_failures_total",
		Help: "Deliveries that failed for at least one recipient.",
	})
)

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
