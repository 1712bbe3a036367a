package core

import (
	"fmt"
	"time"
)

// DayStart returns midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DayKey returns the YYYY-MM-DD bucket for t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// SummarizeDay sums the given transactions into per-category totals for one
// calendar day. Transactions outside the day are ignored, so callers may pass
// a wider slice than the day itself.
func SummarizeDay(txns []Transaction, date time.Time, loc *time.Location) (sales, purchase, expense Money) {
	key := DayKey(date, loc)
	for _, t := range txns {
		if DayKey(t.Date, loc) != key {
			continue
		}
		switch t.Category {
		case Sales:
			sales = sales.Add(t.Amount)
		case Purchase:
			purchase = purchase.Add(t.Amount)
		case Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return sales, purchase, expense
}

// NewDailyReport aggregates one user's transactions for one calendar day.
// The net amount is always sales − purchase − expense. Insights and action
// points are attached by the advisor afterwards.
func NewDailyReport(userID string, date time.Time, txns []Transaction, loc *time.Location) DailyReport {
	sales, purchase, expense := SummarizeDay(txns, date, loc)
	return DailyReport{
		UserID:        userID,
		Date:          DayStart(date, loc),
		SalesTotal:    sales,
		PurchaseTotal: purchase,
		ExpenseTotal:  expense,
		NetAmount:     sales.Sub(purchase).Sub(expense),
	}
}

// MaxWindowDays bounds the analytics window. The series allocates one entry
// per day, so an unbounded window would let a single request allocate
// proportionally to an attacker-chosen number.
const MaxWindowDays = 3650

// BuildSeries produces the trailing-window analytics series: exactly `days`
// chart entries, one per calendar day ending at `now`, ascending, with days
// that saw no activity zero-filled. Grand totals cover the whole window.
func BuildSeries(txns []Transaction, days int, now time.Time, loc *time.Location) (AnalyticsSeries, error) {
	if days < 1 || days > MaxWindowDays {
		return AnalyticsSeries{}, fmt.Errorf("%w: got %d", ErrInvalidWindow, days)
	}

	start := DayStart(now, loc).AddDate(0, 0, -(days - 1))
	end := DayStart(now, loc).AddDate(0, 0, 1)

	byDay := make(map[string]*DayTotals, days)
	series := AnalyticsSeries{
		WindowDays: days,
		ChartData:  make([]DayTotals, 0, days),
	}
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		series.ChartData = append(series.ChartData, DayTotals{Date: day.Format(DateLayout)})
		byDay[day.Format(DateLayout)] = &series.ChartData[len(series.ChartData)-1]
	}

	for _, t := range txns {
		ts := t.Date.In(loc)
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		entry := byDay[DayKey(t.Date, loc)]
		if entry == nil {
			continue
		}
		switch t.Category {
		case Sales:
			entry.Sales = entry.Sales.Add(t.Amount)
			series.SalesTotal = series.SalesTotal.Add(t.Amount)
		case Purchase:
			entry.Purchase = entry.Purchase.Add(t.Amount)
			series.PurchaseTotal = series.PurchaseTotal.Add(t.Amount)
		case Expense:
			entry.Expense = entry.Expense.Add(t.Amount)
			series.ExpenseTotal = series.ExpenseTotal.Add(t.Amount)
		}
	}

	series.NetTotal = series.SalesTotal.Sub(series.PurchaseTotal).Sub(series.ExpenseTotal)
	return series, nil
}
