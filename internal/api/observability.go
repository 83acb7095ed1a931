package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-player labels).
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in one logic tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_player_count",
		Help: "Current number of players",
	})

	scoreTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_goals_scored_total",
		Help: "Total goals scored across all players",
	})

	commandBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commands_batches_total",
		Help: "Total command batches applied",
	})

	commandSeekers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commands_seekers_total",
		Help: "Total per-seeker commands applied",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // bounded: "rate_limit", "origin", "ws_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active websocket sessions",
	})
)

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string
}

func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // localhost only, pprof must not face the network
	}
}

// StartDebugServer serves pprof and prometheus metrics on a separate
// localhost listener.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
	return nil
}

func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

func UpdatePlayerCount(count int) {
	playerCount.Set(float64(count))
}

func RecordGoalScored() {
	scoreTotal.Inc()
}

func RecordCommandBatch(seekers int) {
	commandBatches.Inc()
	commandSeekers.Add(float64(seekers))
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_limit".
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}
