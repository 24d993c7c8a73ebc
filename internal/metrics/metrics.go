// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uno"

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Number of open websocket connections",
	})
	SeatedPlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "seated_players",
		Help:      "Number of players holding a seat in any room",
	})
	RoomsInPlay = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_in_play",
		Help:      "Number of rooms with a hand in progress",
	})
	Commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Client commands by type and outcome",
	}, []string{"command", "outcome"})
	Hands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hands_total",
		Help:      "Hands started, won and aborted",
	}, []string{"result"})
	CommandLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "command_latency_seconds",
		Help:      "Client command processing latency",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
)

func init() {
	prometheus.MustRegister(
		Connections,
		SeatedPlayers,
		RoomsInPlay,
		Commands,
		Hands,
		CommandLatency,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
