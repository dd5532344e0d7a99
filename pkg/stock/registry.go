package stock

import (
	"context"

	"go.uber.org/zap"
)

// Registry manages the item catalog and its supporting master data
// (categories, suppliers, users). Quantity never moves through here;
// all stock mutation goes through the Ledger.
// 品目マスタと周辺マスタの管理（数量の変更は台帳経由のみ）
type Registry struct {
	store  Store
	logger *zap.Logger
}

// NewRegistry creates a new registry manager
// 新しいレジストリマネージャーを作成
func NewRegistry(store Store, logger *zap.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// CreateItem registers a new item with zero quantity
// 新しい品目を数量ゼロで登録
func (r *Registry) CreateItem(ctx context.Context, item *Item) (*Item, error) {
	if err := ValidateItemName(item.Name); err != nil {
		return nil, err
	}
	if err := ValidateUnit(item.Unit); err != nil {
		return nil, err
	}
	if err := ValidateThreshold(item.MinThreshold); err != nil {
		return nil, err
	}

	item.CurrentQuantity = 0
	item.IsActive = true

	created, err := r.store.CreateItem(ctx, item)
	if err != nil {
		return nil, err
	}

	r.logger.Info("品目を登録しました",
		zap.Int64("item_id", created.ID),
		zap.String("name", created.Name),
	)

	return created, nil
}

// GetItem returns a single item by ID
// 品目を取得
func (r *Registry) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	return r.store.GetItem(ctx, itemID)
}

// ListItems returns active items; archived items are excluded
// アクティブな品目の一覧
func (r *Registry) ListItems(ctx context.Context) ([]Item, error) {
	return r.store.ListItems(ctx, true)
}

// ListArchivedItems returns items that have been archived
// アーカイブ済み品目の一覧
func (r *Registry) ListArchivedItems(ctx context.Context) ([]Item, error) {
	return r.store.ListArchivedItems(ctx)
}

// UpdateThreshold changes an item's low-stock threshold. Open notifications
// are left as they are; they resolve only by explicit operator action.
// 低在庫閾値を変更（既存の通知はそのまま）
func (r *Registry) UpdateThreshold(ctx context.Context, itemID int64, threshold float64) (*Item, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	item, err := r.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.MinThreshold = threshold
	if err := r.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	r.logger.Info("閾値を更新しました",
		zap.Int64("item_id", itemID),
		zap.Float64("min_threshold", threshold),
	)

	return item, nil
}

// ChangeCategory moves an item to another category; nil clears it
// 品目のカテゴリーを変更（nil で未分類に戻す）
func (r *Registry) ChangeCategory(ctx context.Context, itemID int64, categoryID *int64) (*Item, error) {
	if categoryID != nil {
		if _, err := r.store.GetCategory(ctx, *categoryID); err != nil {
			return nil, err
		}
	}

	item, err := r.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.CategoryID = categoryID
	if err := r.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// ArchiveItem hides an item from the active catalog. Its ledger rows and
// derived quantity survive; the item can be restored later.
// 品目をアーカイブ（台帳と数量は保持）
func (r *Registry) ArchiveItem(ctx context.Context, itemID int64) error {
	item, err := r.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if !item.IsActive {
		return nil
	}

	item.IsActive = false
	if err := r.store.UpdateItem(ctx, item); err != nil {
		return err
	}

	r.logger.Info("品目をアーカイブしました", zap.Int64("item_id", itemID))
	return nil
}

// RestoreItem brings an archived item back into the active catalog
// アーカイブ済み品目を復元
func (r *Registry) RestoreItem(ctx context.Context, itemID int64) error {
	item, err := r.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.IsActive {
		return nil
	}

	item.IsActive = true
	if err := r.store.UpdateItem(ctx, item); err != nil {
		return err
	}

	r.logger.Info("品目を復元しました", zap.Int64("item_id", itemID))
	return nil
}

// PurgeItem permanently deletes an archived item together with its
// transactions and notifications. Active items are refused.
// アーカイブ済み品目を完全に削除（アクティブな品目は拒否）
func (r *Registry) PurgeItem(ctx context.Context, itemID int64) error {
	item, err := r.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.IsActive {
		return ErrItemActive
	}

	if err := r.store.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	r.logger.Warn("品目を完全に削除しました",
		zap.Int64("item_id", itemID),
		zap.String("name", item.Name),
	)
	return nil
}

// CreateCategory registers a new category
// カテゴリーを登録
func (r *Registry) CreateCategory(ctx context.Context, category *Category) (*Category, error) {
	if err := ValidateCategoryName(category.Name); err != nil {
		return nil, err
	}
	return r.store.CreateCategory(ctx, category)
}

// DeleteCategory removes a category. Refused while any active item still
// belongs to it.
// カテゴリーを削除（アクティブな品目が属している間は拒否）
func (r *Registry) DeleteCategory(ctx context.Context, categoryID int64) error {
	if _, err := r.store.GetCategory(ctx, categoryID); err != nil {
		return err
	}

	count, err := r.store.CountActiveItemsByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	return r.store.DeleteCategory(ctx, categoryID)
}

// ListCategories returns all categories in display order
// カテゴリー一覧（表示順）
func (r *Registry) ListCategories(ctx context.Context) ([]Category, error) {
	return r.store.ListCategories(ctx)
}

// CreateSupplier registers a new supplier
// 仕入先を登録
func (r *Registry) CreateSupplier(ctx context.Context, supplier *Supplier) (*Supplier, error) {
	if supplier.Name == "" {
		return nil, NewValidationError("name", "仕入先名は必須です", supplier.Name)
	}
	return r.store.CreateSupplier(ctx, supplier)
}

// ListSuppliers returns all suppliers
// 仕入先一覧
func (r *Registry) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return r.store.ListSuppliers(ctx)
}

// RegisterUser registers a new user
// 利用者を登録
func (r *Registry) RegisterUser(ctx context.Context, user *User) (*User, error) {
	if user.Name == "" {
		return nil, NewValidationError("name", "利用者名は必須です", user.Name)
	}
	return r.store.CreateUser(ctx, user)
}
