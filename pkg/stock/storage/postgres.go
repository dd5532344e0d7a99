package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaikoGo/pkg/stock"
)

// PostgresStore implements the Store interface using PostgreSQL
// PostgreSQLを使用したStoreインターフェースの実装
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ stock.Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL store instance
// 新しいPostgreSQLストアインスタンスを作成
func NewPostgresStore(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}

	// 接続テスト
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("データベースpingに失敗しました: %w", err)
	}

	// 接続プール設定
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{
		db:     db,
		logger: logger,
	}, nil
}

// mapPQError converts a driver error into the package error taxonomy.
// Serialization failures and deadlocks become retryable concurrency
// conflicts; everything else is a storage failure.
// ドライバーエラーをパッケージのエラー分類へ変換
func mapPQError(operation string, err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "40001", "40P01":
			return stock.NewConcurrencyError(operation, pqErr.Table, "トランザクションが競合しました")
		case "23503":
			return stock.NewValidationError(pqErr.Column, "参照先のレコードが存在しません", pqErr.Detail)
		}
	}
	return stock.NewStorageError(operation, "データベース操作に失敗しました", err)
}

// ApplyStockChange records a stock transaction in a single database
// transaction: the item row is locked, the ledger row appended, the cached
// quantity rewritten from the locked value, and a low-stock notification
// inserted only where no unresolved one exists. Either every effect commits
// or none does.
// 在庫変更を単一トランザクションで記録
func (s *PostgresStore) ApplyStockChange(ctx context.Context, change stock.StockChange) (*stock.ApplyResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, stock.NewStorageError("apply_stock_change", "トランザクション開始に失敗しました", err)
	}
	defer tx.Rollback()

	var (
		oldQty    float64
		threshold float64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT current_quantity, min_threshold FROM items WHERE id = $1 FOR UPDATE`,
		change.ItemID,
	).Scan(&oldQty, &threshold)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, stock.ErrItemNotFound
		}
		return nil, mapPQError("apply_stock_change", err)
	}

	newQty := oldQty + change.Delta
	now := time.Now()

	record := stock.Transaction{
		ID:            stock.NewTransactionID(),
		ItemID:        change.ItemID,
		QuantityDelta: change.Delta,
		Reason:        change.Reason,
		Note:          change.Note,
		UserID:        change.UserID,
		CreatedAt:     now,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO stock_transactions (id, item_id, quantity_delta, reason, note, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq`,
		record.ID, record.ItemID, record.QuantityDelta, record.Reason, record.Note, record.UserID, record.CreatedAt,
	).Scan(&record.Seq)
	if err != nil {
		return nil, mapPQError("apply_stock_change", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET current_quantity = $2, updated_at = $3 WHERE id = $1`,
		change.ItemID, newQty, now,
	)
	if err != nil {
		return nil, mapPQError("apply_stock_change", err)
	}

	result := &stock.ApplyResult{
		Transaction: record,
		OldQuantity: oldQty,
		NewQuantity: newQty,
	}

	// 閾値を下回った場合のみ通知を挿入。未解決の通知が既にある場合は
	// 部分一意インデックスにより挿入はスキップされる。
	if newQty < threshold {
		notification := &stock.Notification{
			ID:              stock.NewNotificationID(),
			ItemID:          change.ItemID,
			Type:            stock.NotificationLowStock,
			ThresholdAtTime: threshold,
			QuantityAtTime:  newQty,
			TriggeredAt:     now,
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (id, item_id, type, threshold_at_time, quantity_at_time, triggered_at, is_resolved)
			 VALUES ($1, $2, $3, $4, $5, $6, false)
			 ON CONFLICT (item_id, type) WHERE NOT is_resolved DO NOTHING`,
			notification.ID, notification.ItemID, notification.Type,
			notification.ThresholdAtTime, notification.QuantityAtTime, notification.TriggeredAt,
		)
		if err != nil {
			return nil, mapPQError("apply_stock_change", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return nil, mapPQError("apply_stock_change", err)
		}
		if inserted > 0 {
			result.Notification = notification
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, mapPQError("apply_stock_change", err)
	}

	return result, nil
}

// CreateItem creates a new item
// 新しい品目を作成
func (s *PostgresStore) CreateItem(ctx context.Context, item *stock.Item) (*stock.Item, error) {
	now := time.Now()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO items (name, unit, current_quantity, min_threshold, category_id, supplier_id, is_active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING id`,
		item.Name, item.Unit, item.CurrentQuantity, item.MinThreshold,
		item.CategoryID, item.SupplierID, item.IsActive, item.CreatedBy, now,
	).Scan(&item.ID)
	if err != nil {
		return nil, mapPQError("create_item", err)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

const itemColumns = `id, name, unit, current_quantity, min_threshold, category_id, supplier_id, is_active, created_by, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*stock.Item, error) {
	item := &stock.Item{}
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Unit,
		&item.CurrentQuantity,
		&item.MinThreshold,
		&item.CategoryID,
		&item.SupplierID,
		&item.IsActive,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem retrieves an item by ID
// IDで品目を取得
func (s *PostgresStore) GetItem(ctx context.Context, itemID int64) (*stock.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, itemID)

	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, stock.ErrItemNotFound
		}
		return nil, mapPQError("get_item", err)
	}
	return item, nil
}

// UpdateItem updates an existing item's descriptive fields
// 既存の品目を更新
func (s *PostgresStore) UpdateItem(ctx context.Context, item *stock.Item) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE items
		 SET name = $2, unit = $3, min_threshold = $4, category_id = $5, supplier_id = $6, is_active = $7, updated_at = $8
		 WHERE id = $1`,
		item.ID, item.Name, item.Unit, item.MinThreshold,
		item.CategoryID, item.SupplierID, item.IsActive, time.Now(),
	)
	if err != nil {
		return mapPQError("update_item", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapPQError("update_item", err)
	}
	if rowsAffected == 0 {
		return stock.ErrItemNotFound
	}
	return nil
}

// DeleteItem permanently removes an item with its transactions and
// notifications in one transaction
// 品目を取引・通知とともに完全に削除
func (s *PostgresStore) DeleteItem(ctx context.Context, itemID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stock.NewStorageError("delete_item", "トランザクション開始に失敗しました", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE item_id = $1`, itemID); err != nil {
		return mapPQError("delete_item", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stock_transactions WHERE item_id = $1`, itemID); err != nil {
		return mapPQError("delete_item", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	if err != nil {
		return mapPQError("delete_item", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapPQError("delete_item", err)
	}
	if rowsAffected == 0 {
		return stock.ErrItemNotFound
	}

	return tx.Commit()
}

// ListItems retrieves items, optionally restricted to active ones
// 品目一覧を取得
func (s *PostgresStore) ListItems(ctx context.Context, activeOnly bool) ([]stock.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY name, id`
	if activeOnly {
		query = `SELECT ` + itemColumns + ` FROM items WHERE is_active = true ORDER BY name, id`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapPQError("list_items", err)
	}
	defer rows.Close()

	var items []stock.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, mapPQError("list_items", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListArchivedItems retrieves archived items
// アーカイブ済み品目の一覧を取得
func (s *PostgresStore) ListArchivedItems(ctx context.Context) ([]stock.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE is_active = false ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, mapPQError("list_archived_items", err)
	}
	defer rows.Close()

	var items []stock.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, mapPQError("list_archived_items", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListTransactions retrieves recent transactions, newest first. The ledger
// sequence breaks ties between rows sharing a timestamp.
// 最近の取引履歴を取得（新しい順）
func (s *PostgresStore) ListTransactions(ctx context.Context, limit int) ([]stock.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.seq, t.item_id, t.quantity_delta, t.reason, t.note, t.user_id, t.created_at,
		        i.name, i.unit, u.name
		 FROM stock_transactions t
		 JOIN items i ON i.id = t.item_id
		 JOIN users u ON u.id = t.user_id
		 ORDER BY t.created_at DESC, t.seq DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, mapPQError("list_transactions", err)
	}
	defer rows.Close()

	var records []stock.TransactionRecord
	for rows.Next() {
		var rec stock.TransactionRecord
		err := rows.Scan(
			&rec.ID,
			&rec.Seq,
			&rec.ItemID,
			&rec.QuantityDelta,
			&rec.Reason,
			&rec.Note,
			&rec.UserID,
			&rec.CreatedAt,
			&rec.ItemName,
			&rec.Unit,
			&rec.UserName,
		)
		if err != nil {
			return nil, mapPQError("list_transactions", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SumDeltas returns the sum of all ledger deltas for an item
// 品目の全取引デルタの合計を取得
func (s *PostgresStore) SumDeltas(ctx context.Context, itemID int64) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity_delta), 0) FROM stock_transactions WHERE item_id = $1`,
		itemID,
	).Scan(&total)
	if err != nil {
		return 0, mapPQError("sum_deltas", err)
	}
	return total, nil
}

// CreateNotificationIfAbsent inserts a notification unless an unresolved one
// of the same type already exists for the item. Returns whether a row was
// inserted.
// 未解決の通知が存在しない場合のみ通知を挿入
func (s *PostgresStore) CreateNotificationIfAbsent(ctx context.Context, n *stock.Notification) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, item_id, type, threshold_at_time, quantity_at_time, triggered_at, is_resolved)
		 VALUES ($1, $2, $3, $4, $5, $6, false)
		 ON CONFLICT (item_id, type) WHERE NOT is_resolved DO NOTHING`,
		n.ID, n.ItemID, n.Type, n.ThresholdAtTime, n.QuantityAtTime, n.TriggeredAt,
	)
	if err != nil {
		return false, mapPQError("create_notification", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, mapPQError("create_notification", err)
	}
	return inserted > 0, nil
}

// ResolveNotification marks a notification resolved. Resolving an already
// resolved notification keeps its original resolved_at timestamp.
// 通知を解決済みにする（再解決しても最初の解決時刻を保持）
func (s *PostgresStore) ResolveNotification(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications
		 SET is_resolved = true, resolved_at = COALESCE(resolved_at, $2)
		 WHERE id = $1`,
		id, time.Now(),
	)
	if err != nil {
		return mapPQError("resolve_notification", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapPQError("resolve_notification", err)
	}
	if rowsAffected == 0 {
		return stock.ErrNotificationNotFound
	}
	return nil
}

// ListUnresolvedNotifications retrieves unresolved notifications, newest first
// 未解決の通知一覧を取得（新しい順）
func (s *PostgresStore) ListUnresolvedNotifications(ctx context.Context) ([]stock.NotificationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, n.item_id, n.type, n.threshold_at_time, n.quantity_at_time, n.triggered_at, n.is_resolved, n.resolved_at, i.name
		 FROM notifications n
		 JOIN items i ON i.id = n.item_id
		 WHERE NOT n.is_resolved
		 ORDER BY n.triggered_at DESC, n.id`,
	)
	if err != nil {
		return nil, mapPQError("list_notifications", err)
	}
	defer rows.Close()

	var records []stock.NotificationRecord
	for rows.Next() {
		var rec stock.NotificationRecord
		err := rows.Scan(
			&rec.ID,
			&rec.ItemID,
			&rec.Type,
			&rec.ThresholdAtTime,
			&rec.QuantityAtTime,
			&rec.TriggeredAt,
			&rec.IsResolved,
			&rec.ResolvedAt,
			&rec.ItemName,
		)
		if err != nil {
			return nil, mapPQError("list_notifications", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CreateCategory creates a new category
// 新しいカテゴリーを作成
func (s *PostgresStore) CreateCategory(ctx context.Context, category *stock.Category) (*stock.Category, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, icon_path, display_order)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		category.Name, category.IconPath, category.DisplayOrder,
	).Scan(&category.ID)
	if err != nil {
		return nil, mapPQError("create_category", err)
	}
	return category, nil
}

// GetCategory retrieves a category by ID
// IDでカテゴリーを取得
func (s *PostgresStore) GetCategory(ctx context.Context, categoryID int64) (*stock.Category, error) {
	category := &stock.Category{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, icon_path, display_order FROM categories WHERE id = $1`,
		categoryID,
	).Scan(&category.ID, &category.Name, &category.IconPath, &category.DisplayOrder)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, stock.ErrCategoryNotFound
		}
		return nil, mapPQError("get_category", err)
	}
	return category, nil
}

// DeleteCategory removes a category; items referencing it are detached
// カテゴリーを削除（参照している品目は未分類に戻す）
func (s *PostgresStore) DeleteCategory(ctx context.Context, categoryID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stock.NewStorageError("delete_category", "トランザクション開始に失敗しました", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET category_id = NULL WHERE category_id = $1`, categoryID); err != nil {
		return mapPQError("delete_category", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		return mapPQError("delete_category", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapPQError("delete_category", err)
	}
	if rowsAffected == 0 {
		return stock.ErrCategoryNotFound
	}

	return tx.Commit()
}

// ListCategories retrieves all categories in display order
// カテゴリー一覧を表示順で取得
func (s *PostgresStore) ListCategories(ctx context.Context) ([]stock.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon_path, display_order FROM categories ORDER BY display_order, id`)
	if err != nil {
		return nil, mapPQError("list_categories", err)
	}
	defer rows.Close()

	var categories []stock.Category
	for rows.Next() {
		var c stock.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IconPath, &c.DisplayOrder); err != nil {
			return nil, mapPQError("list_categories", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountActiveItemsByCategory counts active items assigned to a category
// カテゴリーに属するアクティブな品目数を取得
func (s *PostgresStore) CountActiveItemsByCategory(ctx context.Context, categoryID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE category_id = $1 AND is_active = true`,
		categoryID,
	).Scan(&count)
	if err != nil {
		return 0, mapPQError("count_items_by_category", err)
	}
	return count, nil
}

// CreateSupplier creates a new supplier
// 新しい仕入先を作成
func (s *PostgresStore) CreateSupplier(ctx context.Context, supplier *stock.Supplier) (*stock.Supplier, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO suppliers (name) VALUES ($1) RETURNING id`,
		supplier.Name,
	).Scan(&supplier.ID)
	if err != nil {
		return nil, mapPQError("create_supplier", err)
	}
	return supplier, nil
}

// GetSupplier retrieves a supplier by ID
// IDで仕入先を取得
func (s *PostgresStore) GetSupplier(ctx context.Context, supplierID int64) (*stock.Supplier, error) {
	supplier := &stock.Supplier{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM suppliers WHERE id = $1`, supplierID,
	).Scan(&supplier.ID, &supplier.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, stock.ErrSupplierNotFound
		}
		return nil, mapPQError("get_supplier", err)
	}
	return supplier, nil
}

// ListSuppliers retrieves all suppliers
// 仕入先一覧を取得
func (s *PostgresStore) ListSuppliers(ctx context.Context) ([]stock.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, mapPQError("list_suppliers", err)
	}
	defer rows.Close()

	var suppliers []stock.Supplier
	for rows.Next() {
		var sp stock.Supplier
		if err := rows.Scan(&sp.ID, &sp.Name); err != nil {
			return nil, mapPQError("list_suppliers", err)
		}
		suppliers = append(suppliers, sp)
	}
	return suppliers, rows.Err()
}

// CreateUser creates a new user
// 新しい利用者を作成
func (s *PostgresStore) CreateUser(ctx context.Context, user *stock.User) (*stock.User, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (name, role) VALUES ($1, $2) RETURNING id`,
		user.Name, user.Role,
	).Scan(&user.ID)
	if err != nil {
		return nil, mapPQError("create_user", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID
// IDで利用者を取得
func (s *PostgresStore) GetUser(ctx context.Context, userID int64) (*stock.User, error) {
	user := &stock.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, role FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.Name, &user.Role)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, stock.ErrUserNotFound
		}
		return nil, mapPQError("get_user", err)
	}
	return user, nil
}

// ReportSnapshot reads items, categories and windowed transactions inside a
// repeatable-read transaction so every report sees one consistent state.
// A zero window skips the ledger entirely.
// レポート用の一貫したスナップショットを取得
func (s *PostgresStore) ReportSnapshot(ctx context.Context, w stock.Window) (*stock.SnapshotData, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, stock.NewStorageError("report_snapshot", "トランザクション開始に失敗しました", err)
	}
	defer tx.Rollback()

	snap := &stock.SnapshotData{Taken: time.Now()}

	rows, err := tx.QueryContext(ctx, `SELECT `+itemColumns+` FROM items`)
	if err != nil {
		return nil, mapPQError("report_snapshot", err)
	}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, mapPQError("report_snapshot", err)
		}
		snap.Items = append(snap.Items, *item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapPQError("report_snapshot", err)
	}

	rows, err = tx.QueryContext(ctx,
		`SELECT id, name, icon_path, display_order FROM categories ORDER BY display_order, id`)
	if err != nil {
		return nil, mapPQError("report_snapshot", err)
	}
	for rows.Next() {
		var c stock.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IconPath, &c.DisplayOrder); err != nil {
			rows.Close()
			return nil, mapPQError("report_snapshot", err)
		}
		snap.Categories = append(snap.Categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapPQError("report_snapshot", err)
	}

	if !w.IsZero() {
		query := `
			SELECT t.seq, t.item_id, i.name, i.unit, i.is_active, t.quantity_delta, t.reason, t.created_at
			FROM stock_transactions t
			JOIN items i ON i.id = t.item_id
			WHERE t.created_at >= $1`
		args := []any{w.Start}
		if !w.IsOpenEnded() {
			query += ` AND t.created_at < $2`
			args = append(args, w.End)
		}
		query += ` ORDER BY t.seq`

		rows, err = tx.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, mapPQError("report_snapshot", err)
		}
		for rows.Next() {
			var t stock.SnapshotTransaction
			err := rows.Scan(
				&t.Seq,
				&t.ItemID,
				&t.ItemName,
				&t.Unit,
				&t.ItemIsActive,
				&t.QuantityDelta,
				&t.Reason,
				&t.CreatedAt,
			)
			if err != nil {
				rows.Close()
				return nil, mapPQError("report_snapshot", err)
			}
			snap.Transactions = append(snap.Transactions, t)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, mapPQError("report_snapshot", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, mapPQError("report_snapshot", err)
	}

	return snap, nil
}

// Ping checks database connectivity
// データベース接続をチェック
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
// データベース接続を閉じる
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
