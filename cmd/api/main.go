package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaikoGo/internal/config"
	"github.com/nemonet1337/zaikoGo/pkg/stock"
	"github.com/nemonet1337/zaikoGo/pkg/stock/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML設定ファイルのパス（環境変数を上書き）")
	flag.Parse()

	// 設定読み込み
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("設定読み込みに失敗しました:", err)
	}

	// ログ設定
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("ログ初期化に失敗しました:", err)
	}
	defer logger.Sync()

	// データベース接続
	store, err := storage.NewPostgresStore(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer store.Close()

	// コンポーネント初期化
	ledger := stock.NewLedger(store, logger, &stock.Config{
		ConflictRetries: cfg.Stock.ConflictRetries,
		RetryBackoff:    cfg.Stock.RetryBackoff,
		HistoryLimit:    cfg.Stock.HistoryLimit,
	})
	notifier := stock.NewNotificationEngine(store, logger)
	reports := stock.NewReportEngine(store, logger, cfg.ReportLocation())
	registry := stock.NewRegistry(store, logger)

	// HTTPハンドラー設定
	handlers := NewHandlers(ledger, notifier, reports, registry, store, logger)
	router := setupRouter(handlers, cfg)

	// HTTPサーバー設定
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	// グレースフルシャットダウン設定
	go func() {
		logger.Info("在庫管理APIサーバーを開始します", zap.Int("port", cfg.API.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー開始に失敗しました", zap.Error(err))
		}
	}()

	// シャットダウンシグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// グレースフルシャットダウン
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("サーバーシャットダウンに失敗しました", zap.Error(err))
	}

	logger.Info("サーバーが正常に停止しました")
}

// loadConfig reads the environment and layers the YAML file on top when given
// 環境変数を読み、指定があればYAMLファイルを重ねる
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// newLogger builds a zap logger from the logging configuration
// ログ設定からzapロガーを構築
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Logging.Format == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setupRouter sets up HTTP routes
// HTTPルートを設定
func setupRouter(handlers *Handlers, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()

	// ヘルスチェック
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	if cfg.API.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// API v1ルート
	api := router.PathPrefix("/api/v1").Subrouter()

	// 在庫操作
	api.HandleFunc("/stock/{itemID}/change", handlers.ApplyStockChange).Methods("POST")
	api.HandleFunc("/stock/{itemID}", handlers.GetStock).Methods("GET")

	// 履歴
	api.HandleFunc("/transactions", handlers.ListTransactions).Methods("GET")

	// 通知
	api.HandleFunc("/notifications", handlers.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/{notificationID}/resolve", handlers.ResolveNotification).Methods("POST")

	// 品目管理
	api.HandleFunc("/items", handlers.CreateItem).Methods("POST")
	api.HandleFunc("/items", handlers.ListItems).Methods("GET")
	api.HandleFunc("/items/archived", handlers.ListArchivedItems).Methods("GET")
	api.HandleFunc("/items/{itemID}", handlers.GetStock).Methods("GET")
	api.HandleFunc("/items/{itemID}", handlers.PurgeItem).Methods("DELETE")
	api.HandleFunc("/items/{itemID}/threshold", handlers.UpdateThreshold).Methods("PUT")
	api.HandleFunc("/items/{itemID}/category", handlers.ChangeCategory).Methods("PUT")
	api.HandleFunc("/items/{itemID}/archive", handlers.ArchiveItem).Methods("POST")
	api.HandleFunc("/items/{itemID}/restore", handlers.RestoreItem).Methods("POST")

	// カテゴリー管理
	api.HandleFunc("/categories", handlers.CreateCategory).Methods("POST")
	api.HandleFunc("/categories", handlers.ListCategories).Methods("GET")
	api.HandleFunc("/categories/{categoryID}", handlers.DeleteCategory).Methods("DELETE")

	// 仕入先管理
	api.HandleFunc("/suppliers", handlers.CreateSupplier).Methods("POST")
	api.HandleFunc("/suppliers", handlers.ListSuppliers).Methods("GET")

	// 利用者管理
	api.HandleFunc("/users", handlers.RegisterUser).Methods("POST")

	// レポート
	api.HandleFunc("/reports/monthly-usage", handlers.MonthlyUsageReport).Methods("GET")
	api.HandleFunc("/reports/category-distribution", handlers.CategoryDistributionReport).Methods("GET")
	api.HandleFunc("/reports/top-items", handlers.TopItemsReport).Methods("GET")
	api.HandleFunc("/reports/usage-by-unit", handlers.UsageByUnitReport).Methods("GET")
	api.HandleFunc("/reports/low-stock", handlers.LowStockReport).Methods("GET")
	api.HandleFunc("/reports/summary", handlers.SummaryReport).Methods("GET")

	// CORS設定（開発用）
	if cfg.API.EnableCORS {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	// ログ機能
	router.Use(loggingMiddleware(handlers.logger))

	return router
}

// loggingMiddleware logs HTTP requests
// HTTPリクエストをログ出力するミドルウェア
func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// リクエスト処理
			next.ServeHTTP(w, r)

			// ログ出力
			logger.Info("HTTPリクエスト",
				zap.String("method", r.Method),
				zap.String("url", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
