package stock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockStore はテスト用のStoreモック
type MockStore struct {
	mock.Mock
}

var _ Store = (*MockStore)(nil)

func (m *MockStore) ApplyStockChange(ctx context.Context, change StockChange) (*ApplyResult, error) {
	args := m.Called(ctx, change)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ApplyResult), args.Error(1)
}

func (m *MockStore) CreateItem(ctx context.Context, item *Item) (*Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockStore) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockStore) UpdateItem(ctx context.Context, item *Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStore) DeleteItem(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockStore) ListItems(ctx context.Context, activeOnly bool) ([]Item, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]Item), args.Error(1)
}

func (m *MockStore) ListArchivedItems(ctx context.Context) ([]Item, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Item), args.Error(1)
}

func (m *MockStore) ListTransactions(ctx context.Context, limit int) ([]TransactionRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]TransactionRecord), args.Error(1)
}

func (m *MockStore) SumDeltas(ctx context.Context, itemID int64) (float64, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockStore) CreateNotificationIfAbsent(ctx context.Context, n *Notification) (bool, error) {
	args := m.Called(ctx, n)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ResolveNotification(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) ListUnresolvedNotifications(ctx context.Context) ([]NotificationRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]NotificationRecord), args.Error(1)
}

func (m *MockStore) CreateCategory(ctx context.Context, category *Category) (*Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Category), args.Error(1)
}

func (m *MockStore) GetCategory(ctx context.Context, categoryID int64) (*Category, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Category), args.Error(1)
}

func (m *MockStore) DeleteCategory(ctx context.Context, categoryID int64) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

func (m *MockStore) ListCategories(ctx context.Context) ([]Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Category), args.Error(1)
}

func (m *MockStore) CountActiveItemsByCategory(ctx context.Context, categoryID int64) (int, error) {
	args := m.Called(ctx, categoryID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CreateSupplier(ctx context.Context, supplier *Supplier) (*Supplier, error) {
	args := m.Called(ctx, supplier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Supplier), args.Error(1)
}

func (m *MockStore) GetSupplier(ctx context.Context, supplierID int64) (*Supplier, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Supplier), args.Error(1)
}

func (m *MockStore) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Supplier), args.Error(1)
}

func (m *MockStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStore) ReportSnapshot(ctx context.Context, w Window) (*SnapshotData, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SnapshotData), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// TestLedger_ApplyStockChange は在庫変更適用のテスト
func TestLedger_ApplyStockChange(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), nil)
	ctx := context.Background()

	change := StockChange{
		ItemID: 1,
		Delta:  -30,
		Reason: ReasonUsed,
		UserID: 1,
	}
	expected := &ApplyResult{
		OldQuantity: 100,
		NewQuantity: 70,
	}

	mockStore.On("ApplyStockChange", ctx, change).Return(expected, nil)

	result, err := ledger.ApplyStockChange(ctx, change)

	assert.NoError(t, err)
	assert.Equal(t, 70.0, result.NewQuantity)
	mockStore.AssertExpectations(t)
}

// TestLedger_ApplyStockChange_InvalidDelta は不正なデルタの拒否テスト
func TestLedger_ApplyStockChange_InvalidDelta(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), nil)
	ctx := context.Background()

	for _, delta := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ledger.ApplyStockChange(ctx, StockChange{
			ItemID: 1,
			Delta:  delta,
			Reason: ReasonAdjusted,
			UserID: 1,
		})

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	}

	// ストアに到達しないこと
	mockStore.AssertNotCalled(t, "ApplyStockChange", mock.Anything, mock.Anything)
}

// TestLedger_ApplyStockChange_EmptyReason は理由なし変更の拒否テスト
func TestLedger_ApplyStockChange_EmptyReason(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), nil)

	_, err := ledger.ApplyStockChange(context.Background(), StockChange{
		ItemID: 1,
		Delta:  10,
		UserID: 1,
	})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockStore.AssertNotCalled(t, "ApplyStockChange", mock.Anything, mock.Anything)
}

// TestLedger_ApplyStockChange_RetriesConflict は競合時のリトライテスト
func TestLedger_ApplyStockChange_RetriesConflict(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), &Config{
		ConflictRetries: 3,
		RetryBackoff:    0,
		HistoryLimit:    100,
	})
	ctx := context.Background()

	change := StockChange{ItemID: 1, Delta: 5, Reason: ReasonReceived, UserID: 1}
	conflict := NewConcurrencyError("apply_stock_change", "items", "競合")
	expected := &ApplyResult{NewQuantity: 5}

	mockStore.On("ApplyStockChange", ctx, change).Return(nil, conflict).Twice()
	mockStore.On("ApplyStockChange", ctx, change).Return(expected, nil).Once()

	result, err := ledger.ApplyStockChange(ctx, change)

	assert.NoError(t, err)
	assert.Equal(t, 5.0, result.NewQuantity)
	mockStore.AssertExpectations(t)
}

// TestLedger_ApplyStockChange_RetriesExhausted はリトライ上限超過のテスト
func TestLedger_ApplyStockChange_RetriesExhausted(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), &Config{
		ConflictRetries: 2,
		RetryBackoff:    0,
		HistoryLimit:    100,
	})
	ctx := context.Background()

	change := StockChange{ItemID: 1, Delta: 5, Reason: ReasonReceived, UserID: 1}
	conflict := NewConcurrencyError("apply_stock_change", "items", "競合")

	mockStore.On("ApplyStockChange", ctx, change).Return(nil, conflict)

	_, err := ledger.ApplyStockChange(ctx, change)

	assert.True(t, IsConcurrencyConflict(err))
	mockStore.AssertNumberOfCalls(t, "ApplyStockChange", 3)
}

// TestLedger_GetCurrentQuantity は現在数量取得のテスト
func TestLedger_GetCurrentQuantity(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), nil)
	ctx := context.Background()

	mockStore.On("GetItem", ctx, int64(7)).Return(&Item{ID: 7, CurrentQuantity: 42.5}, nil)

	qty, err := ledger.GetCurrentQuantity(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, 42.5, qty)
}

// TestLedger_GetCurrentQuantity_NotFound は未知の品目のテスト
func TestLedger_GetCurrentQuantity_NotFound(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), nil)
	ctx := context.Background()

	mockStore.On("GetItem", ctx, int64(99)).Return(nil, ErrItemNotFound)

	_, err := ledger.GetCurrentQuantity(ctx, 99)

	assert.ErrorIs(t, err, ErrItemNotFound)
}

// TestLedger_VerifyQuantity はキャッシュと台帳合計の照合テスト
func TestLedger_VerifyQuantity(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), nil)
	ctx := context.Background()

	mockStore.On("GetItem", ctx, int64(1)).Return(&Item{ID: 1, CurrentQuantity: 15}, nil)
	mockStore.On("SumDeltas", ctx, int64(1)).Return(15.0, nil)

	ok, err := ledger.VerifyQuantity(ctx, 1)

	assert.NoError(t, err)
	assert.True(t, ok)
}

// TestLedger_VerifyQuantity_Mismatch は不整合検出のテスト
func TestLedger_VerifyQuantity_Mismatch(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), nil)
	ctx := context.Background()

	mockStore.On("GetItem", ctx, int64(1)).Return(&Item{ID: 1, CurrentQuantity: 15}, nil)
	mockStore.On("SumDeltas", ctx, int64(1)).Return(12.0, nil)

	ok, err := ledger.VerifyQuantity(ctx, 1)

	assert.NoError(t, err)
	assert.False(t, ok)
}

// TestLedger_ListTransactions_ClampsLimit は履歴上限のテスト
func TestLedger_ListTransactions_ClampsLimit(t *testing.T) {
	mockStore := new(MockStore)
	ledger := NewLedger(mockStore, zap.NewNop(), &Config{
		ConflictRetries: 3,
		HistoryLimit:    100,
	})
	ctx := context.Background()

	// 上限超過は設定値に丸められる
	mockStore.On("ListTransactions", ctx, 100).Return([]TransactionRecord{}, nil)

	_, err := ledger.ListTransactions(ctx, 500)
	assert.NoError(t, err)

	// 0以下はデフォルトの上限を使う
	_, err = ledger.ListTransactions(ctx, 0)
	assert.NoError(t, err)

	mockStore.AssertNumberOfCalls(t, "ListTransactions", 2)
}
