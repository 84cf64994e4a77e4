package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simulation metrics
	StepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simulation_step_duration_seconds",
			Help:    "Duration of one Simulation.Step call",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
		},
	)

	BodiesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulation_bodies_total",
			Help: "Number of bodies currently simulated",
		},
	)

	CollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulation_collisions_total",
			Help: "Total number of collisions resolved",
		},
	)

	QuadtreeDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulation_quadtree_depth",
			Help: "Max root-to-leaf depth of the spatial index as of the last rebuild",
		},
	)

	PhysicalTimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulation_physical_time_seconds",
			Help: "Accumulated simulated time",
		},
	)

	KineticEnergy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulation_kinetic_energy",
			Help: "Total kinetic energy as of the last step",
		},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to clients",
		},
	)

	WebSocketMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received from clients",
		},
	)

	// Wire codec metrics
	WireCodecErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wire_codec_errors_total",
			Help: "Total number of wire codec decode/encode errors",
		},
		[]string{"direction"}, // direction: inbound, outbound
	)
)
