package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stormfall_tick_duration_seconds",
		Help:    "Wall time of one simulation tick.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
	metricClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stormfall_connected_clients",
		Help: "Currently connected websocket clients.",
	})
	metricAlivePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stormfall_alive_players",
		Help: "Players alive in the current round.",
	})
	metricActiveBullets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stormfall_active_bullets",
		Help: "Bullets occupying pool slots.",
	})
	metricRoundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stormfall_rounds_total",
		Help: "Rounds started since boot.",
	})
	metricClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stormfall_claims_minted_total",
		Help: "Reward claims minted for winners.",
	})
)
