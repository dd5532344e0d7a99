package stock

import (
	"errors"
	"fmt"
)

// Common stock errors
// 共通の在庫エラー定義

var (
	// ErrItemNotFound is returned when an item doesn't exist
	// 品目が存在しない場合のエラー
	ErrItemNotFound = errors.New("品目が見つかりません")

	// ErrNotificationNotFound is returned when a notification doesn't exist
	// 通知が存在しない場合のエラー
	ErrNotificationNotFound = errors.New("通知が見つかりません")

	// ErrCategoryNotFound is returned when a category doesn't exist
	// カテゴリーが存在しない場合のエラー
	ErrCategoryNotFound = errors.New("カテゴリーが見つかりません")

	// ErrSupplierNotFound is returned when a supplier doesn't exist
	// 仕入先が存在しない場合のエラー
	ErrSupplierNotFound = errors.New("仕入先が見つかりません")

	// ErrUserNotFound is returned when a user doesn't exist
	// ユーザーが存在しない場合のエラー
	ErrUserNotFound = errors.New("ユーザーが見つかりません")

	// ErrCategoryInUse is returned when deleting a category that still has active items
	// アクティブな品目が残っているカテゴリーを削除しようとした場合のエラー
	ErrCategoryInUse = errors.New("カテゴリーに品目が登録されています")

	// ErrItemActive is returned when purging an item that has not been archived first
	// アーカイブされていない品目を完全削除しようとした場合のエラー
	ErrItemActive = errors.New("品目がまだアクティブです")
)

// ValidationError represents invalid caller input with details
// 詳細付きバリデーションエラーを表現
type ValidationError struct {
	Field   string `json:"field"`   // エラーフィールド
	Message string `json:"message"` // エラーメッセージ
	Value   string `json:"value"`   // 無効な値
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("バリデーションエラー [%s]: %s (値: %s)", e.Field, e.Message, e.Value)
}

// ConcurrencyError represents a serialization conflict on the per-item
// atomic update. Callers may retry a bounded number of times.
// 同時実行関連のエラーを表現（限定回数の再試行対象）
type ConcurrencyError struct {
	Operation string `json:"operation"` // 操作名
	Resource  string `json:"resource"`  // リソース
	Message   string `json:"message"`   // エラーメッセージ
}

func (e ConcurrencyError) Error() string {
	return fmt.Sprintf("同時実行エラー [%s:%s]: %s", e.Operation, e.Resource, e.Message)
}

// StorageError represents a storage layer failure, fatal for the current call
// ストレージ層のエラーを表現
type StorageError struct {
	Operation string `json:"operation"` // 操作名
	Message   string `json:"message"`   // エラーメッセージ
	Cause     error  `json:"cause"`     // 原因エラー
}

func (e StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ストレージエラー [%s]: %s (原因: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("ストレージエラー [%s]: %s", e.Operation, e.Message)
}

func (e StorageError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
// 新しいバリデーションエラーを作成
func NewValidationError(field, message, value string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewConcurrencyError creates a new concurrency error
// 新しい同時実行エラーを作成
func NewConcurrencyError(operation, resource, message string) *ConcurrencyError {
	return &ConcurrencyError{
		Operation: operation,
		Resource:  resource,
		Message:   message,
	}
}

// NewStorageError creates a new storage error
// 新しいストレージエラーを作成
func NewStorageError(operation, message string, cause error) *StorageError {
	return &StorageError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// IsConcurrencyConflict reports whether err is a retryable serialization conflict
// 再試行可能な同時実行エラーかどうか
func IsConcurrencyConflict(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}
