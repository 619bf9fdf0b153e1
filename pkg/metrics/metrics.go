// Package metrics 审核业务相关的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal HTTP 请求总数（按方法、路由模板、状态码）
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradverify_http_requests_total",
			Help: "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gradverify_http_request_duration_seconds",
			Help:    "HTTP 请求耗时（秒）",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReviewDecisionsTotal 审核决定次数（按类别、决定）
	ReviewDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradverify_review_decisions_total",
			Help: "审核决定总数",
		},
		[]string{"category", "decision"},
	)

	// AggregateRecomputeFailuresTotal 审核已落库但汇总重算失败的次数
	AggregateRecomputeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradverify_aggregate_recompute_failures_total",
		Help: "汇总状态重算失败次数",
	})

	// NotificationsQueued 通知队列当前长度
	NotificationsQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gradverify_notifications_queued",
		Help: "通知投递队列中等待的消息数",
	})

	// NotificationsDeliveredTotal 已持久化的通知数
	NotificationsDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradverify_notifications_delivered_total",
		Help: "成功持久化的通知总数",
	})

	// NotificationsDroppedTotal 丢弃的通知数（按原因：queue_full / store_error）
	NotificationsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradverify_notifications_dropped_total",
			Help: "未能投递的通知总数",
		},
		[]string{"reason"},
	)

	// DashboardCacheHitsTotal 仪表盘缓存命中
	DashboardCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradverify_dashboard_cache_hits_total",
		Help: "仪表盘统计 LRU 缓存命中次数",
	})

	// DashboardCacheMissesTotal 仪表盘缓存未命中
	DashboardCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradverify_dashboard_cache_misses_total",
		Help: "仪表盘统计 LRU 缓存未命中次数",
	})
)
