package app

import "github.com/prometheus/client_golang/prometheus"

var (
	gamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tictactoe_games_finished_total",
			Help: "Finished matches by outcome and difficulty",
		},
		[]string{"outcome", "difficulty"},
	)
	aiMoveSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tictactoe_ai_move_seconds",
			Help:    "Time spent choosing an AI move",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"difficulty"},
	)
	liveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tictactoe_sessions",
			Help: "Sessions currently held in memory",
		},
	)
)

func init() {
	prometheus.MustRegister(gamesFinished)
	prometheus.MustRegister(aiMoveSeconds)
	prometheus.MustRegister(liveSessions)
}
