package stock

import (
	"fmt"
	"time"
)

// Window is a resolved half-open time range [Start, End) used by every
// report query. A zero End means the window is open-ended on the right
// ("until now"); named periods produce open windows, explicit calendar
// months produce bounded ones.
// レポートが使用する半開区間 [Start, End)。End がゼロ値なら右側は開区間
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsOpenEnded reports whether the window has no fixed right bound
// 右側が開区間かどうか
func (w Window) IsOpenEnded() bool {
	return w.End.IsZero()
}

// Contains reports whether t falls inside the window
// 時刻がウィンドウ内かどうか
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	if w.IsOpenEnded() {
		return true
	}
	return t.Before(w.End)
}

// IsZero reports whether the window is entirely unset (= no restriction)
// ウィンドウが未設定かどうか
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Named period tokens accepted by ResolveWindow
// ResolveWindow が受け付ける期間トークン
const (
	PeriodThisMonth = "this_month"
	Period3Months   = "3months"
	Period6Months   = "6months"
	Period9Months   = "9months"
	Period12Months  = "12months"
)

// ResolveWindow turns a caller-supplied window specification into concrete
// bounds. The period is either a named period token (trailing window, right
// side open) or an explicit calendar month "YYYY-MM" (bounded both sides).
// An empty period defaults to the trailing six months. This is the only place
// window bounds are computed; no date arithmetic happens in SQL.
// 期間指定を具体的な [start, end) に解決する唯一の純粋関数
func ResolveWindow(period string, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	if period == "" {
		period = Period6Months
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	switch period {
	case PeriodThisMonth:
		return Window{Start: monthStart}, nil
	case Period3Months:
		return Window{Start: monthStart.AddDate(0, -2, 0)}, nil
	case Period6Months:
		return Window{Start: monthStart.AddDate(0, -5, 0)}, nil
	case Period9Months:
		return Window{Start: monthStart.AddDate(0, -8, 0)}, nil
	case Period12Months:
		return Window{Start: monthStart.AddDate(0, -11, 0)}, nil
	}

	// 明示的な暦月指定（YYYY-MM）は両端が固定される
	t, err := time.ParseInLocation("2006-01", period, loc)
	if err != nil {
		return Window{}, NewValidationError("period", "期間指定が不正です", period)
	}
	return Window{Start: t, End: t.AddDate(0, 1, 0)}, nil
}

// TrailingMonths builds the open window covering the current calendar month
// and the (months-1) preceding ones.
// 当月を含む直近 months ヶ月の開区間を構築
func TrailingMonths(months int, now time.Time, loc *time.Location) (Window, error) {
	if months <= 0 {
		return Window{}, NewValidationError("months", "月数は正の値である必要があります", fmt.Sprintf("%d", months))
	}
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	return Window{Start: monthStart.AddDate(0, -(months - 1), 0)}, nil
}

// MonthKey formats a timestamp into its calendar-month grouping key
// タイムスタンプを月キー（YYYY-MM）に変換
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01")
}
