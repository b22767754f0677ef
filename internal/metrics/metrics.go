// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/filmorate/internal/model"
	"github.com/hitoshi/filmorate/internal/repository"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアとリポジトリデコレーターから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordFeedEvent(eventType model.EventType)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	feedEvents     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filmorate_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "filmorate_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		feedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filmorate_feed_events_total",
			Help: "記録されたフィードイベントの種別ごとの合計数",
		}, []string{"event_type"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.feedEvents,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordFeedEvent はフィードイベントの記録を種別ごとにカウントする。
func (c *Collector) RecordFeedEvent(eventType model.EventType) {
	c.feedEvents.WithLabelValues(string(eventType)).Inc()
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware はHTTPステータスとレイテンシを記録するミドルウェアを返す。
func Middleware(collector MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			collector.RecordHTTPStatus(rec.statusCode)
			collector.RecordRequestLatency(time.Since(start))
		})
	}
}

// InstrumentedEventRepo はEventRepositoryをラップし、
// フィードイベントの記録をメトリクスとしてカウントするデコレーター。
type InstrumentedEventRepo struct {
	inner     repository.EventRepository
	collector MetricsCollector
}

// NewInstrumentedEventRepo はInstrumentedEventRepoを生成する。
func NewInstrumentedEventRepo(inner repository.EventRepository, collector MetricsCollector) *InstrumentedEventRepo {
	return &InstrumentedEventRepo{
		inner:     inner,
		collector: collector,
	}
}

// Create はイベントを追記し、成功時にメトリクスをカウントする。
func (r *InstrumentedEventRepo) Create(ctx context.Context, event *model.Event) error {
	if err := r.inner.Create(ctx, event); err != nil {
		return err
	}
	r.collector.RecordFeedEvent(event.EventType)
	return nil
}

// ListByUserID は内側のリポジトリに委譲する。
func (r *InstrumentedEventRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Event, error) {
	return r.inner.ListByUserID(ctx, userID)
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ repository.EventRepository = (*InstrumentedEventRepo)(nil)
