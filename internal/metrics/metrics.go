package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodeState is 1 for the state a node is currently in, 0 otherwise.
	NodeState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lvgo_node_state",
			Help: "Connection state of each audio node",
		},
		[]string{"node", "state"},
	)

	NodeReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lvgo_node_reconnects_total",
			Help: "Total number of reconnect attempts per node",
		},
		[]string{"node"},
	)

	NodePlayers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lvgo_node_players",
			Help: "Players reported by the node in its last stats message",
		},
		[]string{"node"},
	)

	RestRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lvgo_rest_request_duration_seconds",
			Help:    "Duration of REST requests to audio nodes",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"node", "method", "status"},
	)

	VoiceConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lvgo_voice_connections",
			Help: "Number of tracked voice connections",
		},
	)

	Players = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lvgo_players",
			Help: "Number of tracked players",
		},
	)

	// SessionResumes counts resume outcomes; result is "ok", "failed" or "skipped".
	SessionResumes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lvgo_session_resumes_total",
			Help: "Total number of session resume attempts by result",
		},
		[]string{"result"},
	)

	PlayersMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lvgo_players_moved_total",
			Help: "Players moved away from a lost node",
		},
		[]string{"from", "result"},
	)
)

// SetNodeState flips the state gauge of a node to the given state.
func SetNodeState(node string, state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		NodeState.WithLabelValues(node, s).Set(v)
	}
}

// ForgetNode drops every series labelled with the node.
func ForgetNode(node string) {
	NodeState.DeletePartialMatch(prometheus.Labels{"node": node})
	NodePlayers.DeleteLabelValues(node)
}
