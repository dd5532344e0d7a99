package stock

import (
	"fmt"
	"math"
	"strings"
)

// ValidateQuantityDelta 数量デルタをバリデーション（有限な実数であること）
func ValidateQuantityDelta(delta float64) error {
	if math.IsNaN(delta) {
		return NewValidationError("quantity_delta", "数量デルタが数値ではありません", "NaN")
	}
	if math.IsInf(delta, 0) {
		return NewValidationError("quantity_delta", "数量デルタが有限ではありません", fmt.Sprintf("%g", delta))
	}
	return nil
}

// ValidateReason 理由ラベルをバリデーション。台帳は非空のみ要求し、
// 既知セットへの制限は呼び出し側レイヤーの責務
func ValidateReason(reason Reason) error {
	if strings.TrimSpace(string(reason)) == "" {
		return NewValidationError("reason", "理由が空です", string(reason))
	}
	return nil
}

// ValidateItemName 品目名をバリデーション
func ValidateItemName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "品目名が空です", name)
	}
	if len(name) > 500 {
		return NewValidationError("name", "品目名が長すぎます", name)
	}
	return nil
}

// ValidateUnit 単位ラベルをバリデーション（自由形式だが非空）
func ValidateUnit(unit string) error {
	if strings.TrimSpace(unit) == "" {
		return NewValidationError("unit", "単位が空です", unit)
	}
	if len(unit) > 50 {
		return NewValidationError("unit", "単位が長すぎます", unit)
	}
	return nil
}

// ValidateThreshold 閾値をバリデーション（ゼロは許可、負は不可）
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return NewValidationError("min_threshold", "閾値が有限ではありません", fmt.Sprintf("%g", threshold))
	}
	if threshold < 0 {
		return NewValidationError("min_threshold", "閾値は0以上である必要があります", fmt.Sprintf("%g", threshold))
	}
	return nil
}

// ValidateCategoryName カテゴリー名をバリデーション
func ValidateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "カテゴリー名が空です", name)
	}
	if len(name) > 255 {
		return NewValidationError("name", "カテゴリー名が長すぎます", name)
	}
	return nil
}
