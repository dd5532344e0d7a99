package stock

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// Ledger coordinates stock changes: it validates input, executes the atomic
// store operation and retries serialization conflicts a bounded number of
// times. The ledger itself is append-only; the item's current quantity is a
// cache derived from it and updated in the same storage transaction.
// 在庫台帳マネージャー。台帳は追記専用で、現在数量は導出キャッシュ
type Ledger struct {
	store  Store
	logger *zap.Logger
	config *Config
}

// Config holds tunables for the stock core
// 在庫コアの設定を保持
type Config struct {
	ConflictRetries int           `yaml:"conflict_retries"` // 同時実行エラー時の再試行回数
	RetryBackoff    time.Duration `yaml:"retry_backoff"`    // 再試行間の待機時間
	HistoryLimit    int           `yaml:"history_limit"`    // 履歴一覧のデフォルト上限
}

// DefaultHistoryLimit matches the original history view
// 履歴表示のデフォルト件数
const DefaultHistoryLimit = 100

// NewLedger creates a new ledger manager
// 新しい台帳マネージャーを作成
func NewLedger(store Store, logger *zap.Logger, config *Config) *Ledger {
	if config == nil {
		config = &Config{
			ConflictRetries: 3,
			RetryBackoff:    10 * time.Millisecond,
			HistoryLimit:    DefaultHistoryLimit,
		}
	}
	if config.ConflictRetries < 0 {
		config.ConflictRetries = 0
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = DefaultHistoryLimit
	}

	return &Ledger{
		store:  store,
		logger: logger,
		config: config,
	}
}

// ApplyStockChange validates and applies one quantity change. The delta may
// be positive or negative; no floor is enforced, so the quantity may go
// negative (over-withdrawal, itself a valid alert condition). Archived items
// may still be adjusted. Serialization conflicts are retried transparently
// up to the configured bound before being surfaced.
// 在庫増減を一回適用する。数量の下限は設けない
func (l *Ledger) ApplyStockChange(ctx context.Context, change StockChange) (*ApplyResult, error) {
	if err := ValidateQuantityDelta(change.Delta); err != nil {
		return nil, err
	}
	if err := ValidateReason(change.Reason); err != nil {
		return nil, err
	}

	var result *ApplyResult
	var err error
	for attempt := 0; ; attempt++ {
		result, err = l.store.ApplyStockChange(ctx, change)
		if err == nil || !IsConcurrencyConflict(err) || attempt >= l.config.ConflictRetries {
			break
		}
		l.logger.Warn("在庫更新が競合したため再試行します",
			zap.Int64("item_id", change.ItemID),
			zap.Int("attempt", attempt+1),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.config.RetryBackoff):
		}
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info("在庫更新完了",
		zap.Int64("item_id", change.ItemID),
		zap.Float64("quantity_delta", change.Delta),
		zap.String("reason", string(change.Reason)),
		zap.Float64("new_quantity", result.NewQuantity),
		zap.Bool("notification_opened", result.Notification != nil),
	)

	return result, nil
}

// GetCurrentQuantity returns the cached derived quantity for an item
// 品目の現在数量（キャッシュ値）を取得
func (l *Ledger) GetCurrentQuantity(ctx context.Context, itemID int64) (float64, error) {
	item, err := l.store.GetItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return item.CurrentQuantity, nil
}

// VerifyQuantity checks the invariant that the cached quantity equals the
// sum of all ledger deltas for the item. Intended for consistency checks.
// キャッシュ数量が台帳デルタ合計と一致するかを検証
func (l *Ledger) VerifyQuantity(ctx context.Context, itemID int64) (bool, error) {
	item, err := l.store.GetItem(ctx, itemID)
	if err != nil {
		return false, err
	}
	sum, err := l.store.SumDeltas(ctx, itemID)
	if err != nil {
		return false, err
	}
	const eps = 1e-9
	return math.Abs(item.CurrentQuantity-sum) < eps, nil
}

// ListTransactions returns the newest ledger entries joined to item and
// user display names, ordered by creation time descending with the ledger
// sequence breaking ties.
// 取引履歴を新しい順に取得（同時刻はシーケンス番号で決定）
func (l *Ledger) ListTransactions(ctx context.Context, limit int) ([]TransactionRecord, error) {
	if limit <= 0 || limit > l.config.HistoryLimit {
		limit = l.config.HistoryLimit
	}
	return l.store.ListTransactions(ctx, limit)
}
