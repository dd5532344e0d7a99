package stock

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValidateQuantityDelta は数量デルタのバリデーションテスト
func TestValidateQuantityDelta(t *testing.T) {
	// ゼロと負値を含め有限なら許可
	for _, delta := range []float64{0, -10.5, 100, 0.001} {
		assert.NoError(t, ValidateQuantityDelta(delta))
	}

	for _, delta := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Error(t, ValidateQuantityDelta(delta))
	}
}

// TestValidateReason は理由ラベルのバリデーションテスト
func TestValidateReason(t *testing.T) {
	assert.NoError(t, ValidateReason(ReasonReceived))
	// 未知のラベルも非空なら許可
	assert.NoError(t, ValidateReason(Reason("inventory_check")))

	assert.Error(t, ValidateReason(Reason("")))
	assert.Error(t, ValidateReason(Reason("   ")))
}

// TestReasonIsConsumption は使用量レポートの対象理由のテスト
func TestReasonIsConsumption(t *testing.T) {
	assert.True(t, ReasonUsed.IsConsumption())
	assert.True(t, ReasonDisposed.IsConsumption())

	// 調整と入庫は使用量に含めない
	assert.False(t, ReasonAdjusted.IsConsumption())
	assert.False(t, ReasonReceived.IsConsumption())
	assert.False(t, ReasonOther.IsConsumption())
}

// TestValidateItemName は品目名のバリデーションテスト
func TestValidateItemName(t *testing.T) {
	assert.NoError(t, ValidateItemName("小麦粉"))
	assert.Error(t, ValidateItemName(""))
	assert.Error(t, ValidateItemName("  "))
	assert.Error(t, ValidateItemName(strings.Repeat("a", 501)))
}

// TestValidateThreshold は閾値のバリデーションテスト
func TestValidateThreshold(t *testing.T) {
	assert.NoError(t, ValidateThreshold(0))
	assert.NoError(t, ValidateThreshold(20.5))

	assert.Error(t, ValidateThreshold(-1))
	assert.Error(t, ValidateThreshold(math.NaN()))
	assert.Error(t, ValidateThreshold(math.Inf(1)))
}

// TestValidateUnit は単位のバリデーションテスト
func TestValidateUnit(t *testing.T) {
	assert.NoError(t, ValidateUnit("kg"))
	assert.NoError(t, ValidateUnit("本"))
	assert.Error(t, ValidateUnit(""))
	assert.Error(t, ValidateUnit(strings.Repeat("x", 51)))
}
