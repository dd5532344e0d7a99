package stock

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ReportEngine is the read-only aggregation layer over the ledger and the
// item registry. Every query reads one storage snapshot so a report never
// mixes quantities from before and after an in-flight update.
// 台帳と品目レジストリに対する読み取り専用の集計エンジン
type ReportEngine struct {
	store  Store
	logger *zap.Logger
	loc    *time.Location
	clock  func() time.Time
}

// DefaultTopItemsLimit is the default ranking size
// ランキングのデフォルト件数
const DefaultTopItemsLimit = 10

// DefaultPerUnitLimit is the default per-unit ranking size
// 単位別ランキングのデフォルト件数
const DefaultPerUnitLimit = 5

// LowStockMargin widens the alert band above the threshold
// 閾値の上に設けるアラート余裕幅の係数
const LowStockMargin = 1.2

// NewReportEngine creates a new report engine. Month grouping uses loc;
// pass nil for the process-local timezone.
// 新しいレポートエンジンを作成
func NewReportEngine(store Store, logger *zap.Logger, loc *time.Location) *ReportEngine {
	if loc == nil {
		loc = time.Local
	}
	return &ReportEngine{
		store:  store,
		logger: logger,
		loc:    loc,
		clock:  time.Now,
	}
}

// ResolveWindow resolves a caller window specification against the engine's
// clock and timezone.
// 期間指定をエンジンの時計とタイムゾーンで解決
func (e *ReportEngine) ResolveWindow(period string) (Window, error) {
	return ResolveWindow(period, e.clock(), e.loc)
}

// MonthlyUsage sums abs(quantity_delta) of consumption transactions
// ({used, disposed}) per calendar month and item over the trailing window,
// months descending; within a month usage descends, item id breaks ties.
// 月別・品目別の使用量を集計
func (e *ReportEngine) MonthlyUsage(ctx context.Context, trailingMonths int) ([]MonthlyUsageRow, error) {
	if trailingMonths <= 0 {
		trailingMonths = 6
	}
	w, err := TrailingMonths(trailingMonths, e.clock(), e.loc)
	if err != nil {
		return nil, err
	}

	snap, err := e.store.ReportSnapshot(ctx, w)
	if err != nil {
		return nil, err
	}

	type key struct {
		month  string
		itemID int64
	}
	totals := make(map[key]*MonthlyUsageRow)
	for _, tx := range snap.Transactions {
		if !tx.Reason.IsConsumption() {
			continue
		}
		k := key{month: MonthKey(tx.CreatedAt, e.loc), itemID: tx.ItemID}
		row, ok := totals[k]
		if !ok {
			row = &MonthlyUsageRow{Month: k.month, ItemID: tx.ItemID, ItemName: tx.ItemName}
			totals[k] = row
		}
		row.TotalUsage += math.Abs(tx.QuantityDelta)
	}

	rows := make([]MonthlyUsageRow, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month > rows[j].Month
		}
		if rows[i].TotalUsage != rows[j].TotalUsage {
			return rows[i].TotalUsage > rows[j].TotalUsage
		}
		return rows[i].ItemID < rows[j].ItemID
	})

	e.logger.Debug("月別使用量を集計しました",
		zap.Int("trailing_months", trailingMonths),
		zap.Int("rows", len(rows)),
	)

	return rows, nil
}

// CategoryDistribution counts active items and sums their current
// quantities per category. Categories with zero items are included;
// uncategorized active items are grouped under an empty-name bucket.
// Ordering is item count descending, category name ascending on ties.
// カテゴリー別の品目数と総数量
func (e *ReportEngine) CategoryDistribution(ctx context.Context) ([]CategoryDistributionRow, error) {
	snap, err := e.store.ReportSnapshot(ctx, Window{})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		name  string
		count int
		total float64
	}
	buckets := make(map[int64]*bucket)
	for _, c := range snap.Categories {
		buckets[c.ID] = &bucket{name: c.Name}
	}
	const uncategorized = int64(0)

	for _, item := range snap.Items {
		if !item.IsActive {
			continue
		}
		id := uncategorized
		if item.CategoryID != nil {
			id = *item.CategoryID
		}
		b, ok := buckets[id]
		if !ok {
			b = &bucket{name: "未分類"}
			buckets[id] = b
		}
		b.count++
		b.total += item.CurrentQuantity
	}

	rows := make([]CategoryDistributionRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, CategoryDistributionRow{
			CategoryName:  b.name,
			ItemCount:     b.count,
			TotalQuantity: b.total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemCount != rows[j].ItemCount {
			return rows[i].ItemCount > rows[j].ItemCount
		}
		return rows[i].CategoryName < rows[j].CategoryName
	})

	return rows, nil
}

// TopItems ranks items by consumption in the window, usage descending,
// item id ascending on ties, truncated to limit.
// 期間内の使用量ランキング
func (e *ReportEngine) TopItems(ctx context.Context, w Window, limit int) ([]ItemUsageRow, error) {
	if limit <= 0 {
		limit = DefaultTopItemsLimit
	}

	snap, err := e.store.ReportSnapshot(ctx, w)
	if err != nil {
		return nil, err
	}

	rows := rankUsage(snap.Transactions, func(tx SnapshotTransaction) bool {
		return tx.Reason.IsConsumption()
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// UsageRankingByUnit computes a TopItems-style ranking per unit, restricted
// to active items. Units with no qualifying transactions in the window are
// omitted from the result entirely.
// 単位ごとの使用量ランキング（該当取引がない単位は含めない）
func (e *ReportEngine) UsageRankingByUnit(ctx context.Context, w Window, limitPerUnit int) (map[string][]ItemUsageRow, error) {
	if limitPerUnit <= 0 {
		limitPerUnit = DefaultPerUnitLimit
	}

	snap, err := e.store.ReportSnapshot(ctx, w)
	if err != nil {
		return nil, err
	}

	// アクティブ品目で使用中の単位のみ対象
	units := make(map[string]bool)
	for _, item := range snap.Items {
		if item.IsActive {
			units[item.Unit] = true
		}
	}

	result := make(map[string][]ItemUsageRow)
	for unit := range units {
		rows := rankUsage(snap.Transactions, func(tx SnapshotTransaction) bool {
			return tx.Reason.IsConsumption() && tx.ItemIsActive && tx.Unit == unit
		})
		if len(rows) == 0 {
			continue
		}
		if len(rows) > limitPerUnit {
			rows = rows[:limitPerUnit]
		}
		result[unit] = rows
	}

	return result, nil
}

// LowStockAlerts lists active items at or below 120% of their threshold,
// most critical first. A zero threshold makes an item always qualify; its
// percentage is the +Inf sentinel (never a division error) and it sorts
// ahead of every finite percentage.
// 低在庫アラート一覧（危険度の高い順）
func (e *ReportEngine) LowStockAlerts(ctx context.Context) ([]LowStockRow, error) {
	snap, err := e.store.ReportSnapshot(ctx, Window{})
	if err != nil {
		return nil, err
	}

	var rows []LowStockRow
	for _, item := range snap.Items {
		if !item.IsActive {
			continue
		}
		if item.MinThreshold == 0 {
			rows = append(rows, LowStockRow{
				ItemID:          item.ID,
				ItemName:        item.Name,
				CurrentQuantity: item.CurrentQuantity,
				MinThreshold:    item.MinThreshold,
				Unit:            item.Unit,
				Percentage:      math.Inf(1),
			})
			continue
		}
		if item.CurrentQuantity <= item.MinThreshold*LowStockMargin {
			rows = append(rows, LowStockRow{
				ItemID:          item.ID,
				ItemName:        item.Name,
				CurrentQuantity: item.CurrentQuantity,
				MinThreshold:    item.MinThreshold,
				Unit:            item.Unit,
				Percentage:      item.CurrentQuantity / item.MinThreshold * 100,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		pi, pj := rows[i].Percentage, rows[j].Percentage
		ii, ij := math.IsInf(pi, 1), math.IsInf(pj, 1)
		if ii != ij {
			return ii
		}
		if !ii && pi != pj {
			return pi < pj
		}
		return rows[i].ItemID < rows[j].ItemID
	})

	return rows, nil
}

// PeriodSummary totals the window without any reason filter: distinct items
// with positive/negative transactions and the raw positive / absolute
// negative delta sums. Adjustments count here, unlike the usage reports.
// 期間サマリー
func (e *ReportEngine) PeriodSummary(ctx context.Context, w Window) (*PeriodSummary, error) {
	snap, err := e.store.ReportSnapshot(ctx, w)
	if err != nil {
		return nil, err
	}

	received := make(map[int64]bool)
	used := make(map[int64]bool)
	summary := &PeriodSummary{}

	for _, tx := range snap.Transactions {
		switch {
		case tx.QuantityDelta > 0:
			received[tx.ItemID] = true
			summary.TotalReceived += tx.QuantityDelta
		case tx.QuantityDelta < 0:
			used[tx.ItemID] = true
			summary.TotalUsed += -tx.QuantityDelta
		}
	}
	summary.ItemsReceived = len(received)
	summary.ItemsUsed = len(used)

	return summary, nil
}

// rankUsage groups matching transactions by item and orders the result by
// total usage descending with ascending item id as the stable tie-break.
// 取引を品目ごとに集計してランキングを構築
func rankUsage(txs []SnapshotTransaction, match func(SnapshotTransaction) bool) []ItemUsageRow {
	totals := make(map[int64]*ItemUsageRow)
	for _, tx := range txs {
		if !match(tx) {
			continue
		}
		row, ok := totals[tx.ItemID]
		if !ok {
			row = &ItemUsageRow{ItemID: tx.ItemID, ItemName: tx.ItemName, Unit: tx.Unit}
			totals[tx.ItemID] = row
		}
		row.TotalUsage += math.Abs(tx.QuantityDelta)
		row.TransactionCount++
	}

	rows := make([]ItemUsageRow, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalUsage != rows[j].TotalUsage {
			return rows[i].TotalUsage > rows[j].TotalUsage
		}
		return rows[i].ItemID < rows[j].ItemID
	})
	return rows
}
