// Package metrics объявляет метрики Prometheus сервера мастерской.
// Все метрики регистрируются в реестре по умолчанию через promauto и
// отдаются на GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vipauto"

// Результаты команд для метки result.
const (
	ResultOK        = "ok"
	ResultDenied    = "denied"
	ResultInvalid   = "invalid"
	ResultNoop      = "noop"
	ResultError     = "error"
	ResultUnknown   = "unknown"
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
)

// CommandsTotal - обработанные команды сокета.
// Метки: command - имя команды, result - ok/denied/invalid/noop/error/unknown.
var CommandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Total number of websocket commands handled, by command and result.",
	},
	[]string{"command", "result"},
)

// BroadcastRoundsTotal - раунды рассылки снимков.
var BroadcastRoundsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_rounds_total",
		Help:      "Total number of snapshot broadcast rounds.",
	},
)

// BroadcastPushesTotal - отправки представления одному сотруднику.
// Метка result: delivered/failed.
var BroadcastPushesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_pushes_total",
		Help:      "Total number of per-identity view pushes, by result.",
	},
	[]string{"result"},
)

// BroadcastDuration - длительность раунда рассылки целиком.
var BroadcastDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "broadcast_duration_seconds",
		Help:      "Duration of a full broadcast round.",
		Buckets:   prometheus.DefBuckets,
	},
)

// WebsocketConnections - текущее число открытых соединений.
var WebsocketConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Current number of registered websocket connections.",
	},
)

// LoginsTotal - попытки входа. Метка result: ok/invalid/locked/error.
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// HTTPRequestDuration - длительность HTTP-запросов.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	},
	[]string{"method", "path", "status"},
)
