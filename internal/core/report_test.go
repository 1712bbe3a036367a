package core

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var kolkata = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return loc
}()

func tx(cat Category, paise int64, date time.Time) Transaction {
	return Transaction{
		ID:       "t",
		UserID:   "u1",
		Category: cat,
		Amount:   Money{Paise: paise},
		Date:     date,
	}
}

func TestNewDailyReport(t *testing.T) {
	day := time.Date(2025, 8, 20, 14, 30, 0, 0, kolkata)
	txns := []Transaction{
		tx(Sales, 100000, day),
		tx(Purchase, 40000, day.Add(2*time.Hour)),
		tx(Expense, 10000, day.Add(-3*time.Hour)),
		// Previous day, must be excluded.
		tx(Sales, 999900, day.AddDate(0, 0, -1)),
	}

	r := NewDailyReport("u1", day, txns, kolkata)

	if r.SalesTotal.Paise != 100000 {
		t.Errorf("sales = %d, want 100000", r.SalesTotal.Paise)
	}
	if r.PurchaseTotal.Paise != 40000 {
		t.Errorf("purchase = %d, want 40000", r.PurchaseTotal.Paise)
	}
	if r.ExpenseTotal.Paise != 10000 {
		t.Errorf("expense = %d, want 10000", r.ExpenseTotal.Paise)
	}
	if r.NetAmount.Paise != 50000 {
		t.Errorf("net = %d, want 50000", r.NetAmount.Paise)
	}
	if got := r.Date.Format(DateLayout); got != "2025-08-20" {
		t.Errorf("report date = %s, want 2025-08-20", got)
	}
}

func TestNewDailyReportEmptyDay(t *testing.T) {
	day := time.Date(2025, 8, 20, 9, 0, 0, 0, kolkata)
	r := NewDailyReport("u1", day, nil, kolkata)
	if r.SalesTotal.Paise != 0 || r.PurchaseTotal.Paise != 0 || r.ExpenseTotal.Paise != 0 || r.NetAmount.Paise != 0 {
		t.Errorf("empty day should produce all-zero totals, got %+v", r)
	}
}

func TestNetIdentityHolds(t *testing.T) {
	day := time.Date(2025, 8, 20, 12, 0, 0, 0, kolkata)
	cases := [][3]int64{
		{0, 0, 0},
		{100000, 40000, 10000},
		{5, 100000, 200000}, // net goes negative
		{12345, 678, 90},
	}
	for _, c := range cases {
		txns := []Transaction{
			tx(Sales, c[0], day),
			tx(Purchase, c[1], day),
			tx(Expense, c[2], day),
		}
		r := NewDailyReport("u1", day, txns, kolkata)
		want := c[0] - c[1] - c[2]
		if r.NetAmount.Paise != want {
			t.Errorf("net for %v = %d, want %d", c, r.NetAmount.Paise, want)
		}
	}
}

func TestBuildSeriesZeroFill(t *testing.T) {
	now := time.Date(2025, 8, 20, 18, 0, 0, 0, kolkata)
	txns := []Transaction{
		tx(Sales, 100000, now),
		tx(Expense, 25000, now.AddDate(0, 0, -2)),
		// Outside the 7 day window.
		tx(Sales, 700000, now.AddDate(0, 0, -7)),
	}

	s, err := BuildSeries(txns, 7, now, kolkata)
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}

	if len(s.ChartData) != 7 {
		t.Fatalf("chart entries = %d, want 7", len(s.ChartData))
	}
	wantDates := []string{
		"2025-08-14", "2025-08-15", "2025-08-16", "2025-08-17",
		"2025-08-18", "2025-08-19", "2025-08-20",
	}
	for i, entry := range s.ChartData {
		if entry.Date != wantDates[i] {
			t.Errorf("entry %d date = %s, want %s", i, entry.Date, wantDates[i])
		}
	}

	if s.SalesTotal.Paise != 100000 {
		t.Errorf("window sales = %d, want 100000 (day outside window must not count)", s.SalesTotal.Paise)
	}
	if s.ExpenseTotal.Paise != 25000 {
		t.Errorf("window expense = %d, want 25000", s.ExpenseTotal.Paise)
	}
	if s.NetTotal.Paise != 75000 {
		t.Errorf("window net = %d, want 75000", s.NetTotal.Paise)
	}

	// Zero-filled day in the middle.
	if e := s.ChartData[3]; e.Sales.Paise != 0 || e.Purchase.Paise != 0 || e.Expense.Paise != 0 {
		t.Errorf("gap day should be zero-filled, got %+v", e)
	}
	// Activity lands on the right buckets.
	if s.ChartData[6].Sales.Paise != 100000 {
		t.Errorf("today sales = %d, want 100000", s.ChartData[6].Sales.Paise)
	}
	if s.ChartData[4].Expense.Paise != 25000 {
		t.Errorf("day -2 expense = %d, want 25000", s.ChartData[4].Expense.Paise)
	}
}

func TestBuildSeriesSingleDay(t *testing.T) {
	now := time.Date(2025, 8, 20, 8, 0, 0, 0, kolkata)
	txns := []Transaction{
		tx(Sales, 100000, now),
		tx(Purchase, 40000, now),
		tx(Expense, 10000, now),
	}
	s, err := BuildSeries(txns, 1, now, kolkata)
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}
	if len(s.ChartData) != 1 {
		t.Fatalf("chart entries = %d, want 1", len(s.ChartData))
	}
	if s.SalesTotal.Paise != 100000 || s.PurchaseTotal.Paise != 40000 || s.ExpenseTotal.Paise != 10000 {
		t.Errorf("single-day totals wrong: %+v", s)
	}
	if s.NetTotal.Paise != 50000 {
		t.Errorf("net = %d, want 50000", s.NetTotal.Paise)
	}
}

func TestBuildSeriesRejectsWindowOutOfRange(t *testing.T) {
	now := time.Now()
	for _, days := range []int{0, -1, -30, MaxWindowDays + 1, 2000000000} {
		if _, err := BuildSeries(nil, days, now, kolkata); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("days=%d: error = %v, want ErrInvalidWindow", days, err)
		}
	}

	if s, err := BuildSeries(nil, MaxWindowDays, now, kolkata); err != nil {
		t.Errorf("days=%d: unexpected error %v", MaxWindowDays, err)
	} else if len(s.ChartData) != MaxWindowDays {
		t.Errorf("days=%d: chart has %d entries", MaxWindowDays, len(s.ChartData))
	}
}

func TestBuildSeriesIdempotent(t *testing.T) {
	now := time.Date(2025, 8, 20, 18, 0, 0, 0, kolkata)
	txns := []Transaction{
		tx(Sales, 100000, now),
		tx(Purchase, 5000, now.AddDate(0, 0, -3)),
	}
	first, err := BuildSeries(txns, 7, now, kolkata)
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}
	second, err := BuildSeries(txns, 7, now, kolkata)
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs should produce identical series")
	}
}
