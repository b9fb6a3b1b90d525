// Package metrics exposes game counters on the Prometheus default registry.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Turn outcomes.
const (
	OutcomeMoved   = "moved"
	OutcomeSkipped = "skipped"
	OutcomeWon     = "won"
	OutcomeFailed  = "failed"
)

// Collision kinds.
const (
	CollisionPreMove  = "pre_move"
	CollisionPostWarp = "post_warp"
)

// Metrics holds the game metrics.
type Metrics struct {
	TurnsTotal         *prometheus.CounterVec
	DiceRollsTotal     *prometheus.CounterVec
	WarpsTotal         *prometheus.CounterVec
	CollisionsTotal    *prometheus.CounterVec
	PlanFailuresTotal  *prometheus.CounterVec
	GamesTotal         *prometheus.CounterVec
	RobotTurnDuration  prometheus.Histogram
	SuspensionDuration *prometheus.HistogramVec
	GameActive         prometheus.Gauge
}

// NewMetrics registers the metrics once per process and returns them.
//
// Metrics:
//   - snakebot_turns_total{actor,outcome}
//   - snakebot_dice_rolls_total{actor,value}
//   - snakebot_warps_total{actor,kind}
//   - snakebot_collisions_total{kind}
//   - snakebot_plan_failures_total{step}
//   - snakebot_games_total{winner}
//   - snakebot_robot_turn_duration_seconds
//   - snakebot_suspension_duration_seconds{kind}
//   - snakebot_game_active
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			TurnsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "snakebot_turns_total",
					Help: "Total number of completed or failed turns",
				},
				[]string{"actor", "outcome"},
			),
			DiceRollsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "snakebot_dice_rolls_total",
					Help: "Dice values used for moves",
				},
				[]string{"actor", "value"},
			),
			WarpsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "snakebot_warps_total",
					Help: "Ladders and snakes taken",
				},
				[]string{"actor", "kind"},
			),
			CollisionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "snakebot_collisions_total",
					Help: "Pieces sent back to the start field",
				},
				[]string{"kind"},
			),
			PlanFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "snakebot_plan_failures_total",
					Help: "Actuation plans aborted by a failing step",
				},
				[]string{"step"},
			),
			GamesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "snakebot_games_total",
					Help: "Finished games by winner",
				},
				[]string{"winner"},
			),
			RobotTurnDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "snakebot_robot_turn_duration_seconds",
					Help:    "Wall time of a robot turn including dwells",
					Buckets: prometheus.LinearBuckets(15, 15, 10), // 15s to 150s
				},
			),
			SuspensionDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "snakebot_suspension_duration_seconds",
					Help:    "Time spent waiting on the human",
					Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s to ~2min
				},
				[]string{"kind"}, // "dice" or "collision"
			),
			GameActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "snakebot_game_active",
					Help: "1 while a game session is running",
				},
			),
		}
	})

	return globalMetrics
}

// RecordTurn counts a turn outcome.
func (m *Metrics) RecordTurn(actor, outcome string) {
	m.TurnsTotal.WithLabelValues(actor, outcome).Inc()
}

// RecordRoll counts a dice value.
func (m *Metrics) RecordRoll(actor string, value int) {
	m.DiceRollsTotal.WithLabelValues(actor, rollLabel(value)).Inc()
}

// RecordWarp counts a ladder or snake.
func (m *Metrics) RecordWarp(actor, kind string) {
	m.WarpsTotal.WithLabelValues(actor, kind).Inc()
}

// RecordCollision counts a bump to the start field.
func (m *Metrics) RecordCollision(kind string) {
	m.CollisionsTotal.WithLabelValues(kind).Inc()
}

// RecordPlanFailure counts an aborted plan by the kind of step that failed.
func (m *Metrics) RecordPlanFailure(step string) {
	m.PlanFailuresTotal.WithLabelValues(step).Inc()
}

// RecordGame counts a finished game.
func (m *Metrics) RecordGame(winner string) {
	m.GamesTotal.WithLabelValues(winner).Inc()
}

// ObserveRobotTurn records a robot turn duration.
func (m *Metrics) ObserveRobotTurn(seconds float64) {
	m.RobotTurnDuration.Observe(seconds)
}

// ObserveSuspension records how long a wait on the human took.
func (m *Metrics) ObserveSuspension(kind string, seconds float64) {
	m.SuspensionDuration.WithLabelValues(kind).Observe(seconds)
}

// SetGameActive flips the active-game gauge.
func (m *Metrics) SetGameActive(active bool) {
	if active {
		m.GameActive.Set(1)
		return
	}
	m.GameActive.Set(0)
}

func rollLabel(v int) string {
	if v < 1 || v > 6 {
		return "invalid"
	}
	return strconv.Itoa(v)
}
