package stock

import (
	"context"
)

// Store defines the persistence layer contract. One Store instance is the
// single authoritative data source; every external call maps to one logical
// storage transaction.
// データ永続化層のインターフェースを定義
type Store interface {
	// ApplyStockChange performs the full atomic unit of one stock change:
	// ledger append, current-quantity update, and the conditional creation
	// of a low-stock notification when the new quantity crosses below the
	// item's threshold and no unresolved notification exists. The three
	// effects are never visible independently of each other. Returns
	// ErrItemNotFound for an unknown item and a *ConcurrencyError when the
	// per-item update could not be serialized.
	// 台帳追記・数量更新・条件付き通知作成を単一の原子的操作として実行
	ApplyStockChange(ctx context.Context, change StockChange) (*ApplyResult, error)

	// Item registry. Create operations return the stored record with its
	// assigned id and timestamps.
	// 品目管理（作成系はID採番済みのレコードを返す）
	CreateItem(ctx context.Context, item *Item) (*Item, error)
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID int64) error
	ListItems(ctx context.Context, activeOnly bool) ([]Item, error)
	ListArchivedItems(ctx context.Context) ([]Item, error)

	// Ledger reads
	// 台帳参照
	ListTransactions(ctx context.Context, limit int) ([]TransactionRecord, error)
	SumDeltas(ctx context.Context, itemID int64) (float64, error)

	// Notifications. CreateNotificationIfAbsent inserts the notification
	// only when no unresolved one of the same (item, type) exists, as a
	// single conditional operation, never check-then-insert.
	// 通知管理（条件付き挿入は単一操作で行う）
	CreateNotificationIfAbsent(ctx context.Context, n *Notification) (bool, error)
	ResolveNotification(ctx context.Context, notificationID string) error
	ListUnresolvedNotifications(ctx context.Context) ([]NotificationRecord, error)

	// Categories
	// カテゴリー管理
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	GetCategory(ctx context.Context, categoryID int64) (*Category, error)
	DeleteCategory(ctx context.Context, categoryID int64) error
	ListCategories(ctx context.Context) ([]Category, error)
	CountActiveItemsByCategory(ctx context.Context, categoryID int64) (int, error)

	// Suppliers
	// 仕入先管理
	CreateSupplier(ctx context.Context, s *Supplier) (*Supplier, error)
	GetSupplier(ctx context.Context, supplierID int64) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)

	// Users (actor bookkeeping only)
	// ユーザー管理（操作者の記録のみ）
	CreateUser(ctx context.Context, u *User) (*User, error)
	GetUser(ctx context.Context, userID int64) (*User, error)

	// ReportSnapshot returns one consistent read view for the report engine:
	// active items, categories, and the ledger rows whose timestamps fall in
	// w. A zero-value window skips the ledger rows (reports over current
	// state only).
	// レポート用の一貫した読み取りビューを返す
	ReportSnapshot(ctx context.Context, w Window) (*SnapshotData, error)

	// Health check
	// ヘルスチェック
	Ping(ctx context.Context) error
	Close() error
}
