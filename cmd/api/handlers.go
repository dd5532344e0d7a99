package main

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaikoGo/internal/metrics"
	"github.com/nemonet1337/zaikoGo/pkg/stock"
)

// Handlers holds HTTP handlers for the stock API
// 在庫API用のHTTPハンドラーを保持
type Handlers struct {
	ledger   *stock.Ledger
	notifier *stock.NotificationEngine
	reports  *stock.ReportEngine
	registry *stock.Registry
	store    stock.Store
	logger   *zap.Logger
}

// NewHandlers creates new HTTP handlers
// 新しいHTTPハンドラーを作成
func NewHandlers(ledger *stock.Ledger, notifier *stock.NotificationEngine, reports *stock.ReportEngine, registry *stock.Registry, store stock.Store, logger *zap.Logger) *Handlers {
	return &Handlers{
		ledger:   ledger,
		notifier: notifier,
		reports:  reports,
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// APIResponse represents standard API response format
// 標準的なAPIレスポンス形式を表現
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// StockChangeRequest represents a request to change stock
// 在庫変更リクエストを表現
type StockChangeRequest struct {
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
	Note   string  `json:"note"`
	UserID int64   `json:"user_id"`
}

// CreateItemRequest represents a request to register an item
// 品目登録リクエストを表現
type CreateItemRequest struct {
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	MinThreshold float64 `json:"min_threshold"`
	CategoryID   *int64  `json:"category_id"`
	SupplierID   *int64  `json:"supplier_id"`
	CreatedBy    int64   `json:"created_by"`
}

// UpdateThresholdRequest represents a threshold update
// 閾値更新リクエストを表現
type UpdateThresholdRequest struct {
	MinThreshold float64 `json:"min_threshold"`
}

// ChangeCategoryRequest represents a category assignment
// カテゴリー変更リクエストを表現
type ChangeCategoryRequest struct {
	CategoryID *int64 `json:"category_id"`
}

// HealthCheck handles health check requests
// ヘルスチェックリクエストを処理
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(APIResponse{
		Success: code == http.StatusOK,
		Data: map[string]interface{}{
			"status":    status,
			"timestamp": time.Now(),
			"service":   "zaikoGo",
		},
	})
}

// ApplyStockChange handles stock change requests
// 在庫変更リクエストを処理
func (h *Handlers) ApplyStockChange(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	var req StockChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	start := time.Now()
	result, err := h.ledger.ApplyStockChange(r.Context(), stock.StockChange{
		ItemID: itemID,
		Delta:  req.Delta,
		Reason: stock.Reason(req.Reason),
		Note:   req.Note,
		UserID: req.UserID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	metrics.StockChangesTotal.WithLabelValues(req.Reason).Inc()
	metrics.StockChangeDuration.Observe(time.Since(start).Seconds())
	if result.Notification != nil {
		metrics.NotificationsOpenedTotal.Inc()
	}

	h.sendSuccess(w, result)
}

// GetStock handles current quantity requests
// 現在数量の取得リクエストを処理
func (h *Handlers) GetStock(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	item, err := h.registry.GetItem(r.Context(), itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, item)
}

// ListTransactions handles transaction history requests
// 取引履歴リクエストを処理
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効なlimitパラメータです")
			return
		}
		limit = parsed
	}

	records, err := h.ledger.ListTransactions(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, records)
}

// ListNotifications handles unresolved notification list requests
// 未解決通知一覧リクエストを処理
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	records, err := h.notifier.ListUnresolved(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, records)
}

// ResolveNotification handles notification resolution requests
// 通知解決リクエストを処理
func (h *Handlers) ResolveNotification(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["notificationID"]

	if err := h.notifier.Resolve(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	metrics.NotificationsResolvedTotal.Inc()
	h.sendSuccess(w, map[string]string{
		"message": "通知を解決しました",
	})
}

// CreateItem handles item registration requests
// 品目登録リクエストを処理
func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	item, err := h.registry.CreateItem(r.Context(), &stock.Item{
		Name:         req.Name,
		Unit:         req.Unit,
		MinThreshold: req.MinThreshold,
		CategoryID:   req.CategoryID,
		SupplierID:   req.SupplierID,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, item)
}

// ListItems handles active item list requests
// アクティブ品目一覧リクエストを処理
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.registry.ListItems(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, items)
}

// ListArchivedItems handles archived item list requests
// アーカイブ済み品目一覧リクエストを処理
func (h *Handlers) ListArchivedItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.registry.ListArchivedItems(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, items)
}

// UpdateThreshold handles threshold update requests
// 閾値更新リクエストを処理
func (h *Handlers) UpdateThreshold(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	var req UpdateThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	item, err := h.registry.UpdateThreshold(r.Context(), itemID, req.MinThreshold)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, item)
}

// ChangeCategory handles item category assignment requests
// 品目のカテゴリー変更リクエストを処理
func (h *Handlers) ChangeCategory(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	var req ChangeCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	item, err := h.registry.ChangeCategory(r.Context(), itemID, req.CategoryID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, item)
}

// ArchiveItem handles item archive requests
// 品目アーカイブリクエストを処理
func (h *Handlers) ArchiveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.registry.ArchiveItem(r.Context(), itemID); err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, map[string]string{"message": "品目をアーカイブしました"})
}

// RestoreItem handles item restore requests
// 品目復元リクエストを処理
func (h *Handlers) RestoreItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.registry.RestoreItem(r.Context(), itemID); err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, map[string]string{"message": "品目を復元しました"})
}

// PurgeItem handles permanent item deletion requests
// 品目の完全削除リクエストを処理
func (h *Handlers) PurgeItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.registry.PurgeItem(r.Context(), itemID); err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, map[string]string{"message": "品目を完全に削除しました"})
}

// CreateCategory handles category creation requests
// カテゴリー作成リクエストを処理
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var category stock.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	created, err := h.registry.CreateCategory(r.Context(), &category)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, created)
}

// ListCategories handles category list requests
// カテゴリー一覧リクエストを処理
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.registry.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, categories)
}

// DeleteCategory handles category deletion requests
// カテゴリー削除リクエストを処理
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := h.pathID(w, r, "categoryID")
	if !ok {
		return
	}

	if err := h.registry.DeleteCategory(r.Context(), categoryID); err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, map[string]string{"message": "カテゴリーを削除しました"})
}

// CreateSupplier handles supplier creation requests
// 仕入先作成リクエストを処理
func (h *Handlers) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var supplier stock.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	created, err := h.registry.CreateSupplier(r.Context(), &supplier)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, created)
}

// ListSuppliers handles supplier list requests
// 仕入先一覧リクエストを処理
func (h *Handlers) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.registry.ListSuppliers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, suppliers)
}

// RegisterUser handles user registration requests
// 利用者登録リクエストを処理
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var user stock.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なリクエスト形式です")
		return
	}

	created, err := h.registry.RegisterUser(r.Context(), &user)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.sendSuccess(w, created)
}

// MonthlyUsageReport handles monthly usage report requests
// 月別使用量レポートリクエストを処理
func (h *Handlers) MonthlyUsageReport(w http.ResponseWriter, r *http.Request) {
	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効なmonthsパラメータです")
			return
		}
		months = parsed
	}

	rows, err := h.reports.MonthlyUsage(r.Context(), months)
	if err != nil {
		h.writeError(w, err)
		return
	}

	metrics.ReportQueriesTotal.WithLabelValues("monthly_usage").Inc()
	h.sendSuccess(w, rows)
}

// CategoryDistributionReport handles category distribution report requests
// カテゴリー分布レポートリクエストを処理
func (h *Handlers) CategoryDistributionReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.CategoryDistribution(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	metrics.ReportQueriesTotal.WithLabelValues("category_distribution").Inc()
	h.sendSuccess(w, rows)
}

// TopItemsReport handles usage ranking report requests
// 使用量ランキングレポートリクエストを処理
func (h *Handlers) TopItemsReport(w http.ResponseWriter, r *http.Request) {
	window, ok := h.queryWindow(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "無効なlimitパラメータです")
			return
		}
		limit = parsed
	}

	rows, err := h.reports.TopItems(r.Context(), window, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	metrics.ReportQueriesTotal.WithLabelValues("top_items").Inc()
	h.sendSuccess(w, rows)
}

// UsageByUnitReport handles per-unit ranking report requests
// 単位別ランキングレポートリクエストを処理
func (h *Handlers) UsageByUnitReport(w http.ResponseWriter, r *http.Request) {
	window, ok := h.queryWindow(w, r)
	if !ok {
		return
	}

	rankings, err := h.reports.UsageRankingByUnit(r.Context(), window, 0)
	if err != nil {
		h.writeError(w, err)
		return
	}

	metrics.ReportQueriesTotal.WithLabelValues("usage_by_unit").Inc()
	h.sendSuccess(w, rankings)
}

// lowStockResponse mirrors LowStockRow with a JSON-safe percentage; items
// with a zero threshold carry "inf" instead of a number
// JSONで表現できるパーセンテージ付きの低在庫行
type lowStockResponse struct {
	ItemID          int64       `json:"item_id"`
	ItemName        string      `json:"item_name"`
	CurrentQuantity float64     `json:"current_quantity"`
	MinThreshold    float64     `json:"min_threshold"`
	Unit            string      `json:"unit"`
	Percentage      interface{} `json:"percentage"`
}

// LowStockReport handles low stock alert report requests
// 低在庫アラートレポートリクエストを処理
func (h *Handlers) LowStockReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.LowStockAlerts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := make([]lowStockResponse, 0, len(rows))
	for _, row := range rows {
		out := lowStockResponse{
			ItemID:          row.ItemID,
			ItemName:        row.ItemName,
			CurrentQuantity: row.CurrentQuantity,
			MinThreshold:    row.MinThreshold,
			Unit:            row.Unit,
		}
		if math.IsInf(row.Percentage, 1) {
			out.Percentage = "inf"
		} else {
			out.Percentage = row.Percentage
		}
		response = append(response, out)
	}

	metrics.ReportQueriesTotal.WithLabelValues("low_stock").Inc()
	h.sendSuccess(w, response)
}

// SummaryReport handles period summary report requests
// 期間サマリーレポートリクエストを処理
func (h *Handlers) SummaryReport(w http.ResponseWriter, r *http.Request) {
	window, ok := h.queryWindow(w, r)
	if !ok {
		return
	}

	summary, err := h.reports.PeriodSummary(r.Context(), window)
	if err != nil {
		h.writeError(w, err)
		return
	}

	metrics.ReportQueriesTotal.WithLabelValues("summary").Inc()
	h.sendSuccess(w, summary)
}

// queryWindow resolves the period query parameter into a window. A month
// parameter (YYYY-MM) takes precedence over period when both are present.
// クエリパラメータから集計期間を解決
func (h *Handlers) queryWindow(w http.ResponseWriter, r *http.Request) (stock.Window, bool) {
	period := r.URL.Query().Get("period")
	if month := r.URL.Query().Get("month"); month != "" {
		period = month
	}
	window, err := h.reports.ResolveWindow(period)
	if err != nil {
		h.writeError(w, err)
		return stock.Window{}, false
	}
	return window, true
}

// pathID parses a numeric path variable
// 数値のパス変数をパース
func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "無効なIDです")
		return 0, false
	}
	return id, true
}

// writeError maps a domain error onto an HTTP status
// ドメインエラーをHTTPステータスへ変換
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var validationErr *stock.ValidationError
	var concurrencyErr *stock.ConcurrencyError
	var storageErr *stock.StorageError

	switch {
	case errors.Is(err, stock.ErrItemNotFound),
		errors.Is(err, stock.ErrNotificationNotFound),
		errors.Is(err, stock.ErrCategoryNotFound),
		errors.Is(err, stock.ErrSupplierNotFound),
		errors.Is(err, stock.ErrUserNotFound):
		h.sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, stock.ErrCategoryInUse),
		errors.Is(err, stock.ErrItemActive):
		h.sendError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validationErr):
		h.sendError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &concurrencyErr):
		h.sendError(w, http.StatusConflict, err.Error())
	case errors.As(err, &storageErr):
		h.sendError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("予期しないエラー", zap.Error(err))
		h.sendError(w, http.StatusInternalServerError, err.Error())
	}
}

// sendSuccess sends a successful API response
// 成功レスポンスを送信
func (h *Handlers) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error API response
// エラーレスポンスを送信
func (h *Handlers) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
