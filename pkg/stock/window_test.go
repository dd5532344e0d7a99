package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestResolveWindow_NamedPeriods は名前付き期間トークンの解決テスト
func TestResolveWindow_NamedPeriods(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 7, 15, 10, 30, 0, 0, loc)

	tests := []struct {
		period    string
		wantStart time.Time
	}{
		{PeriodThisMonth, time.Date(2024, 7, 1, 0, 0, 0, 0, loc)},
		{Period3Months, time.Date(2024, 5, 1, 0, 0, 0, 0, loc)},
		{Period6Months, time.Date(2024, 2, 1, 0, 0, 0, 0, loc)},
		{Period9Months, time.Date(2023, 11, 1, 0, 0, 0, 0, loc)},
		{Period12Months, time.Date(2023, 8, 1, 0, 0, 0, 0, loc)},
		// 空指定は6ヶ月にフォールバック
		{"", time.Date(2024, 2, 1, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		w, err := ResolveWindow(tt.period, now, loc)
		assert.NoError(t, err, tt.period)
		assert.Equal(t, tt.wantStart, w.Start, tt.period)
		assert.True(t, w.IsOpenEnded(), tt.period)
	}
}

// TestResolveWindow_ExplicitMonth は暦月指定の解決テスト
func TestResolveWindow_ExplicitMonth(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, loc)

	w, err := ResolveWindow("2024-02", now, loc)

	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), w.End)
	assert.False(t, w.IsOpenEnded())
}

// TestResolveWindow_Invalid は不正な期間指定のテスト
func TestResolveWindow_Invalid(t *testing.T) {
	now := time.Now()

	for _, period := range []string{"last_week", "2024-13", "2024/02", "abc"} {
		_, err := ResolveWindow(period, now, time.UTC)

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr, period)
	}
}

// TestWindow_Contains は半開区間の境界テスト
func TestWindow_Contains(t *testing.T) {
	loc := time.UTC
	w := Window{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, loc),
		End:   time.Date(2024, 3, 1, 0, 0, 0, 0, loc),
	}

	// 開始時刻は含む、終了時刻は含まない
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, loc)))
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))

	open := Window{Start: w.Start}
	assert.True(t, open.Contains(time.Date(2030, 1, 1, 0, 0, 0, 0, loc)))
}

// TestTrailingMonths は当月を含む遡及ウィンドウのテスト
func TestTrailingMonths(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)

	w, err := TrailingMonths(1, now, loc)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), w.Start)

	w, err = TrailingMonths(6, now, loc)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2023, 10, 1, 0, 0, 0, 0, loc), w.Start)

	_, err = TrailingMonths(0, now, loc)
	assert.Error(t, err)
}

// TestMonthKey は月キー変換のテスト
func TestMonthKey(t *testing.T) {
	loc := time.UTC
	assert.Equal(t, "2024-02", MonthKey(time.Date(2024, 2, 29, 23, 0, 0, 0, loc), loc))

	// タイムゾーンによって属する月が変わる
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	assert.NoError(t, err)
	utcEndOfMonth := time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02", MonthKey(utcEndOfMonth, tokyo))
	assert.Equal(t, "2024-01", MonthKey(utcEndOfMonth, time.UTC))
}
