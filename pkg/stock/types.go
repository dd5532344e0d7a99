// Package stock provides the inventory core: the append-only stock ledger,
// the low-stock notification state machine and the reporting engine.
// 在庫コア機能を提供: 在庫台帳、低在庫通知、集計レポート
package stock

import (
	"time"

	"github.com/google/uuid"
)

// Item represents a stocked item in the registry
// 在庫管理対象の品目を表現
type Item struct {
	ID              int64     `json:"id" db:"item_id"`                        // 品目ID
	Name            string    `json:"name" db:"name"`                         // 品目名
	Unit            string    `json:"unit" db:"unit"`                         // 単位（kg、本など）
	CurrentQuantity float64   `json:"current_quantity" db:"current_quantity"` // 現在数量（台帳から導出されるキャッシュ）
	MinThreshold    float64   `json:"min_threshold" db:"min_threshold"`       // 最低在庫閾値
	CategoryID      *int64    `json:"category_id" db:"category_id"`           // カテゴリーID（任意）
	SupplierID      *int64    `json:"supplier_id" db:"supplier_id"`           // 仕入先ID（任意）
	IsActive        bool      `json:"is_active" db:"is_active"`               // アクティブ状態（false = 論理削除）
	CreatedBy       int64     `json:"created_by" db:"created_by"`             // 作成者
	CreatedAt       time.Time `json:"created_at" db:"created_at"`             // 作成日時
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`             // 更新日時
}

// Transaction is one immutable ledger entry. Once written it is never
// updated or deleted; corrections are recorded as new entries.
// 不変の在庫取引記録。更新・削除は一切行わない
type Transaction struct {
	ID            string    `json:"id" db:"transaction_id"`             // トランザクションID
	Seq           int64     `json:"seq" db:"seq"`                       // 台帳シーケンス番号（同時刻のタイブレーク用）
	ItemID        int64     `json:"item_id" db:"item_id"`               // 品目ID
	QuantityDelta float64   `json:"quantity_delta" db:"quantity_delta"` // 数量変化（正負あり）
	Reason        Reason    `json:"reason" db:"reason"`                 // 理由
	Note          string    `json:"note" db:"note"`                     // 備考（任意）
	UserID        int64     `json:"user_id" db:"user_id"`               // 操作ユーザー
	CreatedAt     time.Time `json:"created_at" db:"created_at"`         // 作成日時
}

// Reason categorizes a quantity change
// 数量変化の理由を定義
type Reason string

const (
	ReasonReceived Reason = "received" // 入荷
	ReasonUsed     Reason = "used"     // 使用
	ReasonDisposed Reason = "disposed" // 廃棄
	ReasonAdjusted Reason = "adjusted" // 調整
	ReasonOther    Reason = "other"    // その他
)

// IsConsumption reports whether the reason counts as usage in the
// ranking/usage reports. PeriodSummary does NOT apply this filter.
// 使用量レポートで消費として扱う理由かどうか
func (r Reason) IsConsumption() bool {
	return r == ReasonUsed || r == ReasonDisposed
}

// KnownReason reports whether the label belongs to the closed set the
// caller-facing layer validates against. The ledger itself only requires a
// non-empty label.
// 理由ラベルが既知のセットに含まれるか
func KnownReason(s string) bool {
	switch Reason(s) {
	case ReasonReceived, ReasonUsed, ReasonDisposed, ReasonAdjusted, ReasonOther:
		return true
	}
	return false
}

// Notification represents a threshold-crossing alert for an item
// 品目の閾値割れ通知を表現
type Notification struct {
	ID              string           `json:"id" db:"notification_id"`                  // 通知ID
	ItemID          int64            `json:"item_id" db:"item_id"`                     // 品目ID
	Type            NotificationType `json:"type" db:"type"`                           // 通知タイプ
	ThresholdAtTime float64          `json:"threshold_at_time" db:"threshold_at_time"` // 発生時点の閾値スナップショット
	QuantityAtTime  float64          `json:"quantity_at_time" db:"quantity_at_time"`   // 発生時点の数量スナップショット
	TriggeredAt     time.Time        `json:"triggered_at" db:"triggered_at"`           // 発生日時
	IsResolved      bool             `json:"is_resolved" db:"is_resolved"`             // 解決済みフラグ
	ResolvedAt      *time.Time       `json:"resolved_at" db:"resolved_at"`             // 解決日時
}

// NotificationType defines types of notifications
// 通知のタイプを定義
type NotificationType string

const (
	NotificationLowStock NotificationType = "low_stock" // 低在庫
)

// Category is a label-only lookup the core reads for grouping
// グルーピング用のカテゴリー（コアは参照のみ）
type Category struct {
	ID           int64  `json:"id" db:"category_id"`
	Name         string `json:"name" db:"name"`
	IconPath     string `json:"icon_path" db:"icon_path"`
	DisplayOrder int    `json:"display_order" db:"display_order"`
}

// Supplier is a label-only lookup
// 仕入先（参照のみ）
type Supplier struct {
	ID   int64  `json:"id" db:"supplier_id"`
	Name string `json:"name" db:"name"`
}

// User identifies an acting operator. Authentication and role checks live
// entirely outside the core; the ledger only stores the reference.
// 操作ユーザー（認証・権限チェックはコア外）
type User struct {
	ID   int64  `json:"id" db:"user_id"`
	Name string `json:"name" db:"name"`
	Role string `json:"role" db:"role"`
}

// StockChange is the input of one ledger application
// 一回の在庫増減の入力
type StockChange struct {
	ItemID int64   `json:"item_id"`
	Delta  float64 `json:"delta"`
	Reason Reason  `json:"reason"`
	Note   string  `json:"note"`
	UserID int64   `json:"user_id"`
}

// ApplyResult is the outcome of one atomic stock change: the appended ledger
// entry, the quantity transition, and the notification opened by it (nil when
// no crossing occurred or an unresolved one already existed).
// 在庫増減一回分の結果
type ApplyResult struct {
	Transaction  Transaction   `json:"transaction"`
	OldQuantity  float64       `json:"old_quantity"`
	NewQuantity  float64       `json:"new_quantity"`
	Notification *Notification `json:"notification,omitempty"`
}

// TransactionRecord is a ledger entry joined to display names for listings
// 表示名付きの取引履歴行
type TransactionRecord struct {
	Transaction
	ItemName string `json:"item_name" db:"item_name"`
	Unit     string `json:"unit" db:"unit"`
	UserName string `json:"user_name" db:"user_name"`
}

// NotificationRecord is a notification joined to its item name
// 品目名付きの通知行
type NotificationRecord struct {
	Notification
	ItemName string `json:"item_name" db:"item_name"`
}

// MonthlyUsageRow is one (month, item) usage bucket
// 月別使用量の一行
type MonthlyUsageRow struct {
	Month      string  `json:"month"` // YYYY-MM
	ItemID     int64   `json:"item_id"`
	ItemName   string  `json:"item_name"`
	TotalUsage float64 `json:"total_usage"`
}

// CategoryDistributionRow aggregates active items per category
// カテゴリー別の品目数と総数量
type CategoryDistributionRow struct {
	CategoryName  string  `json:"category_name"`
	ItemCount     int     `json:"item_count"`
	TotalQuantity float64 `json:"total_quantity"`
}

// ItemUsageRow is one ranked usage entry
// 使用量ランキングの一行
type ItemUsageRow struct {
	ItemID           int64   `json:"item_id"`
	ItemName         string  `json:"item_name"`
	Unit             string  `json:"unit"`
	TotalUsage       float64 `json:"total_usage"`
	TransactionCount int     `json:"transaction_count"`
}

// LowStockRow is one low-stock alert line. Percentage is +Inf when the
// threshold is zero (such items always qualify and are treated as critical).
// 低在庫アラートの一行。閾値ゼロの場合 Percentage は +Inf
type LowStockRow struct {
	ItemID          int64   `json:"item_id"`
	ItemName        string  `json:"item_name"`
	CurrentQuantity float64 `json:"current_quantity"`
	MinThreshold    float64 `json:"min_threshold"`
	Unit            string  `json:"unit"`
	Percentage      float64 `json:"percentage"`
}

// PeriodSummary totals a window without filtering by reason: adjustments
// count toward the totals, unlike the usage/ranking reports.
// 期間サマリー（理由ラベルでの絞り込みなし）
type PeriodSummary struct {
	ItemsReceived int     `json:"items_received"` // 正の取引があった品目数
	ItemsUsed     int     `json:"items_used"`     // 負の取引があった品目数
	TotalReceived float64 `json:"total_received"` // 正のデルタ合計
	TotalUsed     float64 `json:"total_used"`     // 負のデルタの絶対値合計
}

// SnapshotTransaction is the slim ledger row a report snapshot carries
// レポートスナップショットが保持する台帳行
type SnapshotTransaction struct {
	Seq           int64
	ItemID        int64
	ItemName      string
	Unit          string
	ItemIsActive  bool
	QuantityDelta float64
	Reason        Reason
	CreatedAt     time.Time
}

// SnapshotData is one consistent read view used by the report engine: active
// items, categories, and the ledger rows inside the window, all taken from a
// single storage read so a report never mixes pre/post-update state.
// レポート用の一貫した読み取りビュー
type SnapshotData struct {
	Taken        time.Time
	Items        []Item
	Categories   []Category
	Transactions []SnapshotTransaction
}

// NewTransactionID generates a new ledger transaction ID
// 新しいトランザクションIDを生成
func NewTransactionID() string {
	return uuid.New().String()
}

// NewNotificationID generates a new notification ID
// 新しい通知IDを生成
func NewNotificationID() string {
	return uuid.New().String()
}
