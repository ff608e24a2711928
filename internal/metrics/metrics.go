// Package metrics Prometheus 指标，统一前缀 ogprank_
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogprank_http_requests_total",
			Help: "HTTP 请求总数",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ogprank_http_request_duration_seconds",
			Help:    "HTTP 请求耗时（秒）",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ArticlesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ogprank_articles_created_total",
		Help: "成功创建的文章数",
	})

	// ValidationFailures 按失败原因计数，reason 为固定的几类，不会带来基数膨胀
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogprank_validation_failures_total",
			Help: "创建文章时的校验失败次数",
		},
		[]string{"reason"},
	)

	AssetUploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ogprank_asset_upload_duration_seconds",
			Help:    "图片上传到对象存储的耗时（秒）",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"role"},
	)

	AssetUploadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogprank_asset_upload_failures_total",
			Help: "图片上传失败次数",
		},
		[]string{"role"},
	)

	StoreCorrupt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ogprank_store_corrupt",
		Help: "文章库文档无法解析时为 1",
	})
)
