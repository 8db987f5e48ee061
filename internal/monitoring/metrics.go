package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 登录指标
	LoginsTotal *prometheus.CounterVec

	// 实体变更指标
	UsersCreated    prometheus.Counter
	UsersDeleted    prometheus.Counter
	DomainsCreated  prometheus.Counter
	SettingsUpdated prometheus.Counter
}

// NewMetrics 创建监控指标（promauto 自动注册到默认 Registry）
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "koemail_admin_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "koemail_admin_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		LoginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "koemail_admin_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "koemail_admin_users_created_total",
			Help: "Total number of mailbox users created",
		}),
		UsersDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "koemail_admin_users_deleted_total",
			Help: "Total number of mailbox users deleted",
		}),
		DomainsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "koemail_admin_domains_created_total",
			Help: "Total number of domains created",
		}),
		SettingsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "koemail_admin_settings_updated_total",
			Help: "Total number of system setting updates",
		}),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordLogin 记录一次登录尝试，result 为 "success" 或 "failure"
func (m *Metrics) RecordLogin(result string) {
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// HTTPHandler 返回 Prometheus 指标端点处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
