package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nemonet1337/zaikoGo/pkg/stock"
)

// MemoryStore is an in-memory implementation of the Store interface for
// tests and examples. A single mutex serializes every operation, so the
// atomicity guarantees of ApplyStockChange hold trivially.
// テストと例のためのインメモリストア実装
type MemoryStore struct {
	mu sync.Mutex

	items         map[int64]*stock.Item
	transactions  []stock.Transaction
	notifications map[string]*stock.Notification
	categories    map[int64]*stock.Category
	suppliers     map[int64]*stock.Supplier
	users         map[int64]*stock.User

	nextItemID     int64
	nextCategoryID int64
	nextSupplierID int64
	nextUserID     int64
	nextSeq        int64
}

var _ stock.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
// 空のインメモリストアを作成
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:         make(map[int64]*stock.Item),
		notifications: make(map[string]*stock.Notification),
		categories:    make(map[int64]*stock.Category),
		suppliers:     make(map[int64]*stock.Supplier),
		users:         make(map[int64]*stock.User),
	}
}

// ApplyStockChange appends a ledger row, updates the cached quantity and
// opens a low-stock notification where needed, all under one lock
// 在庫変更をロック下で一括適用
func (s *MemoryStore) ApplyStockChange(ctx context.Context, change stock.StockChange) (*stock.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[change.ItemID]
	if !ok {
		return nil, stock.ErrItemNotFound
	}

	now := time.Now()
	oldQty := item.CurrentQuantity
	newQty := oldQty + change.Delta

	s.nextSeq++
	record := stock.Transaction{
		ID:            stock.NewTransactionID(),
		Seq:           s.nextSeq,
		ItemID:        change.ItemID,
		QuantityDelta: change.Delta,
		Reason:        change.Reason,
		Note:          change.Note,
		UserID:        change.UserID,
		CreatedAt:     now,
	}
	s.transactions = append(s.transactions, record)

	item.CurrentQuantity = newQty
	item.UpdatedAt = now

	result := &stock.ApplyResult{
		Transaction: record,
		OldQuantity: oldQty,
		NewQuantity: newQty,
	}

	if newQty < item.MinThreshold && !s.hasOpenNotification(change.ItemID, stock.NotificationLowStock) {
		n := &stock.Notification{
			ID:              stock.NewNotificationID(),
			ItemID:          change.ItemID,
			Type:            stock.NotificationLowStock,
			ThresholdAtTime: item.MinThreshold,
			QuantityAtTime:  newQty,
			TriggeredAt:     now,
		}
		s.notifications[n.ID] = n
		copied := *n
		result.Notification = &copied
	}

	return result, nil
}

// hasOpenNotification reports whether an unresolved notification of the
// given type exists for the item. Caller must hold the lock.
func (s *MemoryStore) hasOpenNotification(itemID int64, typ stock.NotificationType) bool {
	for _, n := range s.notifications {
		if n.ItemID == itemID && n.Type == typ && !n.IsResolved {
			return true
		}
	}
	return false
}

// CreateItem creates a new item
// 新しい品目を作成
func (s *MemoryStore) CreateItem(ctx context.Context, item *stock.Item) (*stock.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	now := time.Now()

	stored := *item
	stored.ID = s.nextItemID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.items[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

// GetItem retrieves an item by ID
// IDで品目を取得
func (s *MemoryStore) GetItem(ctx context.Context, itemID int64) (*stock.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, stock.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

// UpdateItem updates an item's descriptive fields; the cached quantity is
// owned by ApplyStockChange and left untouched
// 品目を更新（数量はApplyStockChangeの管轄）
func (s *MemoryStore) UpdateItem(ctx context.Context, item *stock.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return stock.ErrItemNotFound
	}

	stored.Name = item.Name
	stored.Unit = item.Unit
	stored.MinThreshold = item.MinThreshold
	stored.CategoryID = item.CategoryID
	stored.SupplierID = item.SupplierID
	stored.IsActive = item.IsActive
	stored.UpdatedAt = time.Now()
	return nil
}

// DeleteItem permanently removes an item with its transactions and
// notifications
// 品目を取引・通知とともに完全に削除
func (s *MemoryStore) DeleteItem(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return stock.ErrItemNotFound
	}
	delete(s.items, itemID)

	kept := s.transactions[:0]
	for _, tx := range s.transactions {
		if tx.ItemID != itemID {
			kept = append(kept, tx)
		}
	}
	s.transactions = kept

	for id, n := range s.notifications {
		if n.ItemID == itemID {
			delete(s.notifications, id)
		}
	}
	return nil
}

// ListItems retrieves items, optionally restricted to active ones
// 品目一覧を取得
func (s *MemoryStore) ListItems(ctx context.Context, activeOnly bool) ([]stock.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []stock.Item
	for _, item := range s.items {
		if activeOnly && !item.IsActive {
			continue
		}
		items = append(items, *item)
	}
	sortItems(items)
	return items, nil
}

// ListArchivedItems retrieves archived items
// アーカイブ済み品目の一覧を取得
func (s *MemoryStore) ListArchivedItems(ctx context.Context) ([]stock.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []stock.Item
	for _, item := range s.items {
		if !item.IsActive {
			items = append(items, *item)
		}
	}
	sortItems(items)
	return items, nil
}

func sortItems(items []stock.Item) {
	sort.Slice(items, func(i, j int) bool {
		if c := strings.Compare(items[i].Name, items[j].Name); c != 0 {
			return c < 0
		}
		return items[i].ID < items[j].ID
	})
}

// ListTransactions retrieves recent transactions, newest first
// 最近の取引履歴を取得（新しい順）
func (s *MemoryStore) ListTransactions(ctx context.Context, limit int) ([]stock.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []stock.TransactionRecord
	for i := len(s.transactions) - 1; i >= 0 && len(records) < limit; i-- {
		tx := s.transactions[i]
		rec := stock.TransactionRecord{Transaction: tx}
		if item, ok := s.items[tx.ItemID]; ok {
			rec.ItemName = item.Name
			rec.Unit = item.Unit
		}
		if user, ok := s.users[tx.UserID]; ok {
			rec.UserName = user.Name
		}
		records = append(records, rec)
	}
	return records, nil
}

// SumDeltas returns the sum of all ledger deltas for an item
// 品目の全取引デルタの合計を取得
func (s *MemoryStore) SumDeltas(ctx context.Context, itemID int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, tx := range s.transactions {
		if tx.ItemID == itemID {
			total += tx.QuantityDelta
		}
	}
	return total, nil
}

// CreateNotificationIfAbsent inserts a notification unless an unresolved one
// of the same type already exists for the item
// 未解決の通知が存在しない場合のみ通知を挿入
func (s *MemoryStore) CreateNotificationIfAbsent(ctx context.Context, n *stock.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[n.ItemID]; !ok {
		return false, stock.ErrItemNotFound
	}
	if s.hasOpenNotification(n.ItemID, n.Type) {
		return false, nil
	}

	copied := *n
	s.notifications[copied.ID] = &copied
	return true, nil
}

// ResolveNotification marks a notification resolved, idempotently
// 通知を解決済みにする（冪等）
func (s *MemoryStore) ResolveNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return stock.ErrNotificationNotFound
	}
	if n.IsResolved {
		return nil
	}

	now := time.Now()
	n.IsResolved = true
	n.ResolvedAt = &now
	return nil
}

// ListUnresolvedNotifications retrieves unresolved notifications, newest first
// 未解決の通知一覧を取得（新しい順）
func (s *MemoryStore) ListUnresolvedNotifications(ctx context.Context) ([]stock.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []stock.NotificationRecord
	for _, n := range s.notifications {
		if n.IsResolved {
			continue
		}
		rec := stock.NotificationRecord{Notification: *n}
		if item, ok := s.items[n.ItemID]; ok {
			rec.ItemName = item.Name
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].TriggeredAt.Equal(records[j].TriggeredAt) {
			return records[i].TriggeredAt.After(records[j].TriggeredAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// CreateCategory creates a new category
// 新しいカテゴリーを作成
func (s *MemoryStore) CreateCategory(ctx context.Context, category *stock.Category) (*stock.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCategoryID++
	stored := *category
	stored.ID = s.nextCategoryID
	s.categories[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

// GetCategory retrieves a category by ID
// IDでカテゴリーを取得
func (s *MemoryStore) GetCategory(ctx context.Context, categoryID int64) (*stock.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[categoryID]
	if !ok {
		return nil, stock.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

// DeleteCategory removes a category; items referencing it are detached
// カテゴリーを削除（参照している品目は未分類に戻す）
func (s *MemoryStore) DeleteCategory(ctx context.Context, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[categoryID]; !ok {
		return stock.ErrCategoryNotFound
	}
	delete(s.categories, categoryID)

	for _, item := range s.items {
		if item.CategoryID != nil && *item.CategoryID == categoryID {
			item.CategoryID = nil
		}
	}
	return nil
}

// ListCategories retrieves all categories in display order
// カテゴリー一覧を表示順で取得
func (s *MemoryStore) ListCategories(ctx context.Context) ([]stock.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var categories []stock.Category
	for _, c := range s.categories {
		categories = append(categories, *c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].DisplayOrder != categories[j].DisplayOrder {
			return categories[i].DisplayOrder < categories[j].DisplayOrder
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

// CountActiveItemsByCategory counts active items assigned to a category
// カテゴリーに属するアクティブな品目数を取得
func (s *MemoryStore) CountActiveItemsByCategory(ctx context.Context, categoryID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		if item.IsActive && item.CategoryID != nil && *item.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// CreateSupplier creates a new supplier
// 新しい仕入先を作成
func (s *MemoryStore) CreateSupplier(ctx context.Context, supplier *stock.Supplier) (*stock.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSupplierID++
	stored := *supplier
	stored.ID = s.nextSupplierID
	s.suppliers[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

// GetSupplier retrieves a supplier by ID
// IDで仕入先を取得
func (s *MemoryStore) GetSupplier(ctx context.Context, supplierID int64) (*stock.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, ok := s.suppliers[supplierID]
	if !ok {
		return nil, stock.ErrSupplierNotFound
	}
	copied := *supplier
	return &copied, nil
}

// ListSuppliers retrieves all suppliers
// 仕入先一覧を取得
func (s *MemoryStore) ListSuppliers(ctx context.Context) ([]stock.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var suppliers []stock.Supplier
	for _, sp := range s.suppliers {
		suppliers = append(suppliers, *sp)
	}
	sort.Slice(suppliers, func(i, j int) bool {
		if suppliers[i].Name != suppliers[j].Name {
			return suppliers[i].Name < suppliers[j].Name
		}
		return suppliers[i].ID < suppliers[j].ID
	})
	return suppliers, nil
}

// CreateUser creates a new user
// 新しい利用者を作成
func (s *MemoryStore) CreateUser(ctx context.Context, user *stock.User) (*stock.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	stored := *user
	stored.ID = s.nextUserID
	s.users[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

// GetUser retrieves a user by ID
// IDで利用者を取得
func (s *MemoryStore) GetUser(ctx context.Context, userID int64) (*stock.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, stock.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// ReportSnapshot copies items, categories and the windowed slice of the
// ledger under one lock acquisition
// レポート用スナップショットを単一ロックで取得
func (s *MemoryStore) ReportSnapshot(ctx context.Context, w stock.Window) (*stock.SnapshotData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &stock.SnapshotData{Taken: time.Now()}

	for _, item := range s.items {
		snap.Items = append(snap.Items, *item)
	}
	sortItems(snap.Items)

	for _, c := range s.categories {
		snap.Categories = append(snap.Categories, *c)
	}
	sort.Slice(snap.Categories, func(i, j int) bool {
		return snap.Categories[i].ID < snap.Categories[j].ID
	})

	if !w.IsZero() {
		for _, tx := range s.transactions {
			if !w.Contains(tx.CreatedAt) {
				continue
			}
			st := stock.SnapshotTransaction{
				Seq:           tx.Seq,
				ItemID:        tx.ItemID,
				QuantityDelta: tx.QuantityDelta,
				Reason:        tx.Reason,
				CreatedAt:     tx.CreatedAt,
			}
			if item, ok := s.items[tx.ItemID]; ok {
				st.ItemName = item.Name
				st.Unit = item.Unit
				st.ItemIsActive = item.IsActive
			}
			snap.Transactions = append(snap.Transactions, st)
		}
	}

	return snap, nil
}

// Ping always succeeds for the in-memory store
// インメモリストアでは常に成功
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store
// インメモリストアでは何もしない
func (s *MemoryStore) Close() error {
	return nil
}
