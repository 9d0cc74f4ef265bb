// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はAPI呼び出しのPrometheusメトリクスを収集する。
// api.Recorderインターフェースを実装する。
type Collector struct {
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "penman_api_request_total",
			Help: "操作別・HTTPステータス別のAPIリクエスト数",
		}, []string{"op", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "penman_api_fail_total",
			Help: "操作別・失敗コード別のAPI失敗数",
		}, []string{"op", "code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "penman_api_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.requests,
		c.failures,
		c.latency,
	)

	return c
}

// RecordRequest はAPIリクエストの完了を記録する。
func (c *Collector) RecordRequest(op string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	c.latency.Observe(elapsed.Seconds())
}

// RecordFailure はAPI失敗を失敗コード別に記録する。
func (c *Collector) RecordFailure(op string, code string) {
	c.failures.WithLabelValues(op, code).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
