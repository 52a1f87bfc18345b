// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// バックエンドクライアントや通知パイプラインから利用する。
type MetricsCollector interface {
	RecordUpstreamCall(service string, statusCode int, duration time.Duration)
	RecordNotificationOutcome(outcome string)
	RecordNotificationPass(duration time.Duration, failed bool)
	RecordEmailSent(success bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamStatus   *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	notifyOutcome    *prometheus.CounterVec
	notifyPasses     *prometheus.CounterVec
	notifyPassLength prometheus.Histogram
	emailsSent       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_upstream_requests_total",
			Help: "バックエンド呼び出しのステータスコード別件数（0は到達不能）",
		}, []string{"service", "status_code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_upstream_latency_seconds",
			Help:    "バックエンド呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		notifyOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_notification_items_total",
			Help: "通知パイプラインのタスク別結果の件数",
		}, []string{"outcome"}),
		notifyPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_notification_passes_total",
			Help: "通知パイプラインの実行回数",
		}, []string{"result"}),
		notifyPassLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_notification_pass_duration_seconds",
			Help:    "通知パイプライン1回の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_emails_total",
			Help: "メール送信の結果別件数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.upstreamStatus,
		c.upstreamLatency,
		c.notifyOutcome,
		c.notifyPasses,
		c.notifyPassLength,
		c.emailsSent,
	)

	return c
}

// RecordUpstreamCall はバックエンド呼び出しのステータスとレイテンシを記録する。
func (c *Collector) RecordUpstreamCall(service string, statusCode int, duration time.Duration) {
	c.upstreamStatus.WithLabelValues(service, strconv.Itoa(statusCode)).Inc()
	c.upstreamLatency.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordNotificationOutcome は通知対象タスク1件の結果を記録する。
func (c *Collector) RecordNotificationOutcome(outcome string) {
	c.notifyOutcome.WithLabelValues(outcome).Inc()
}

// RecordNotificationPass はパイプライン1回分の実行を記録する。
func (c *Collector) RecordNotificationPass(duration time.Duration, failed bool) {
	c.notifyPasses.WithLabelValues(resultLabel(!failed)).Inc()
	c.notifyPassLength.Observe(duration.Seconds())
}

// RecordEmailSent はメール送信結果を記録する。
func (c *Collector) RecordEmailSent(success bool) {
	c.emailsSent.WithLabelValues(resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Nop は何も記録しないMetricsCollector。テストやCLI実行で使う。
type Nop struct{}

func (Nop) RecordUpstreamCall(string, int, time.Duration) {}
func (Nop) RecordNotificationOutcome(string)              {}
func (Nop) RecordNotificationPass(time.Duration, bool)    {}
func (Nop) RecordEmailSent(bool)                          {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
