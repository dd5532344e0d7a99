package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// TestRegistry_CreateItem は品目登録のテスト
func TestRegistry_CreateItem(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	mockStore.On("CreateItem", ctx, mock.MatchedBy(func(item *Item) bool {
		// 新規品目は数量ゼロかつアクティブで始まる
		return item.CurrentQuantity == 0 && item.IsActive
	})).Return(&Item{ID: 1, Name: "小麦粉", Unit: "kg", IsActive: true}, nil)

	item, err := registry.CreateItem(ctx, &Item{
		Name:         "小麦粉",
		Unit:         "kg",
		MinThreshold: 20,
		CreatedBy:    1,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)
	mockStore.AssertExpectations(t)
}

// TestRegistry_CreateItem_Invalid は不正な品目登録の拒否テスト
func TestRegistry_CreateItem_Invalid(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		item *Item
	}{
		{"空の品目名", &Item{Name: "", Unit: "kg"}},
		{"空の単位", &Item{Name: "小麦粉", Unit: ""}},
		{"負の閾値", &Item{Name: "小麦粉", Unit: "kg", MinThreshold: -1}},
	}

	for _, tt := range tests {
		_, err := registry.CreateItem(ctx, tt.item)

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr, tt.name)
	}

	mockStore.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything)
}

// TestRegistry_UpdateThreshold は閾値更新のテスト
func TestRegistry_UpdateThreshold(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	mockStore.On("GetItem", ctx, int64(1)).Return(&Item{ID: 1, Name: "小麦粉", MinThreshold: 20}, nil)
	mockStore.On("UpdateItem", ctx, mock.MatchedBy(func(item *Item) bool {
		return item.MinThreshold == 30
	})).Return(nil)

	item, err := registry.UpdateThreshold(ctx, 1, 30)

	assert.NoError(t, err)
	assert.Equal(t, 30.0, item.MinThreshold)
	mockStore.AssertExpectations(t)
}

// TestRegistry_UpdateThreshold_Negative は負の閾値の拒否テスト
func TestRegistry_UpdateThreshold_Negative(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())

	_, err := registry.UpdateThreshold(context.Background(), 1, -5)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockStore.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
}

// TestRegistry_PurgeItem_RefusesActive はアクティブ品目の完全削除拒否テスト
func TestRegistry_PurgeItem_RefusesActive(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	mockStore.On("GetItem", ctx, int64(1)).Return(&Item{ID: 1, IsActive: true}, nil)

	err := registry.PurgeItem(ctx, 1)

	assert.ErrorIs(t, err, ErrItemActive)
	mockStore.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything)
}

// TestRegistry_PurgeItem はアーカイブ済み品目の完全削除テスト
func TestRegistry_PurgeItem(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	mockStore.On("GetItem", ctx, int64(2)).Return(&Item{ID: 2, Name: "旧品目", IsActive: false}, nil)
	mockStore.On("DeleteItem", ctx, int64(2)).Return(nil)

	err := registry.PurgeItem(ctx, 2)

	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
}

// TestRegistry_ArchiveAndRestore はアーカイブと復元のテスト
func TestRegistry_ArchiveAndRestore(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	mockStore.On("GetItem", ctx, int64(1)).Return(&Item{ID: 1, IsActive: true}, nil).Once()
	mockStore.On("UpdateItem", ctx, mock.MatchedBy(func(item *Item) bool {
		return !item.IsActive
	})).Return(nil).Once()

	assert.NoError(t, registry.ArchiveItem(ctx, 1))

	mockStore.On("GetItem", ctx, int64(1)).Return(&Item{ID: 1, IsActive: false}, nil).Once()
	mockStore.On("UpdateItem", ctx, mock.MatchedBy(func(item *Item) bool {
		return item.IsActive
	})).Return(nil).Once()

	assert.NoError(t, registry.RestoreItem(ctx, 1))
	mockStore.AssertExpectations(t)
}

// TestRegistry_DeleteCategory_InUse は使用中カテゴリーの削除拒否テスト
func TestRegistry_DeleteCategory_InUse(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	mockStore.On("GetCategory", ctx, int64(1)).Return(&Category{ID: 1, Name: "粉類"}, nil)
	mockStore.On("CountActiveItemsByCategory", ctx, int64(1)).Return(3, nil)

	err := registry.DeleteCategory(ctx, 1)

	assert.ErrorIs(t, err, ErrCategoryInUse)
	mockStore.AssertNotCalled(t, "DeleteCategory", mock.Anything, mock.Anything)
}

// TestRegistry_DeleteCategory は空カテゴリーの削除テスト
func TestRegistry_DeleteCategory(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	mockStore.On("GetCategory", ctx, int64(2)).Return(&Category{ID: 2, Name: "空カテゴリー"}, nil)
	mockStore.On("CountActiveItemsByCategory", ctx, int64(2)).Return(0, nil)
	mockStore.On("DeleteCategory", ctx, int64(2)).Return(nil)

	err := registry.DeleteCategory(ctx, 2)

	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
}

// TestRegistry_ChangeCategory_UnknownCategory は未知カテゴリーへの変更拒否テスト
func TestRegistry_ChangeCategory_UnknownCategory(t *testing.T) {
	mockStore := new(MockStore)
	registry := NewRegistry(mockStore, zap.NewNop())
	ctx := context.Background()

	categoryID := int64(99)
	mockStore.On("GetCategory", ctx, categoryID).Return(nil, ErrCategoryNotFound)

	_, err := registry.ChangeCategory(ctx, 1, &categoryID)

	assert.ErrorIs(t, err, ErrCategoryNotFound)
	mockStore.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
}
