// Package metrics exposes Prometheus collectors for the stock service.
// 在庫サービスのPrometheusメトリクス
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StockChangesTotal counts applied stock changes by reason
	// 理由別の在庫変更数
	StockChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_changes_total",
		Help: "Number of stock changes applied, labeled by reason",
	}, []string{"reason"})

	// NotificationsOpenedTotal counts low-stock notifications opened
	// 発生した低在庫通知数
	NotificationsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_notifications_opened_total",
		Help: "Number of low stock notifications opened",
	})

	// NotificationsResolvedTotal counts notifications resolved by operators
	// 解決された通知数
	NotificationsResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_notifications_resolved_total",
		Help: "Number of notifications resolved",
	})

	// ReportQueriesTotal counts report executions by report name
	// レポート種別ごとの実行数
	ReportQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_report_queries_total",
		Help: "Number of report queries executed, labeled by report",
	}, []string{"report"})

	// StockChangeDuration observes end-to-end stock change latency
	// 在庫変更処理のレイテンシ
	StockChangeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_change_duration_seconds",
		Help:    "Latency of stock change operations",
		Buckets: prometheus.DefBuckets,
	})
)
