package stock

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NotificationEngine maintains the low-stock alert state machine per item:
// NONE → OPEN → RESOLVED. OPEN is entered only from NONE; re-triggering
// while OPEN is a no-op. RESOLVED is reached only by explicit operator
// action and is terminal for that instance; a later crossing opens a new
// one. Crossing back above the threshold never auto-resolves anything.
// 低在庫通知エンジン。解決は手動のみで、自動解決は行わない
type NotificationEngine struct {
	store  Store
	logger *zap.Logger
}

// NewNotificationEngine creates a new notification engine
// 新しい通知エンジンを作成
func NewNotificationEngine(store Store, logger *zap.Logger) *NotificationEngine {
	return &NotificationEngine{
		store:  store,
		logger: logger,
	}
}

// Evaluate decides whether the quantity crossing opens a new notification.
// The threshold and quantity are snapshotted on the notification so later
// threshold edits don't rewrite history. Returns nil when no crossing
// occurred or an unresolved notification already exists (idempotent).
//
// The stock-change path runs this same decision inside the storage
// transaction; Evaluate is the out-of-band entry, used for example after a
// threshold edit.
// 閾値割れを評価し、必要なら通知を作成する（冪等）
func (e *NotificationEngine) Evaluate(ctx context.Context, item *Item, newQuantity float64) (*Notification, error) {
	if newQuantity >= item.MinThreshold {
		return nil, nil
	}

	n := &Notification{
		ID:              NewNotificationID(),
		ItemID:          item.ID,
		Type:            NotificationLowStock,
		ThresholdAtTime: item.MinThreshold,
		QuantityAtTime:  newQuantity,
		TriggeredAt:     time.Now(),
	}

	created, err := e.store.CreateNotificationIfAbsent(ctx, n)
	if err != nil {
		return nil, NewStorageError("create_notification", "通知作成に失敗しました", err)
	}
	if !created {
		// 未解決の通知が既にあるため抑制
		return nil, nil
	}

	e.logger.Info("低在庫通知を作成しました",
		zap.String("notification_id", n.ID),
		zap.Int64("item_id", item.ID),
		zap.Float64("threshold", n.ThresholdAtTime),
		zap.Float64("quantity", n.QuantityAtTime),
	)

	return n, nil
}

// Resolve marks a notification resolved. Resolving an already-resolved
// notification is a silent no-op; an unknown id returns
// ErrNotificationNotFound.
// 通知を解決する（解決済みに対しては何もしない）
func (e *NotificationEngine) Resolve(ctx context.Context, notificationID string) error {
	if err := e.store.ResolveNotification(ctx, notificationID); err != nil {
		return err
	}

	e.logger.Info("通知を解決しました", zap.String("notification_id", notificationID))
	return nil
}

// ListUnresolved returns open notifications joined to their item names,
// newest trigger first.
// 未解決の通知を新しい順に取得
func (e *NotificationEngine) ListUnresolved(ctx context.Context) ([]NotificationRecord, error) {
	return e.store.ListUnresolvedNotifications(ctx)
}
