package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bahikhata/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bahikhata.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, id, email string) core.User {
	t.Helper()
	u := core.User{
		ID:        id,
		Username:  "shopkeeper",
		Email:     email,
		Password:  "$2a$10$fakehashfakehashfakehash",
		CreatedAt: time.Now(),
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "owner@example.com")

	err := repo.CreateUser(context.Background(), core.User{
		ID:        "u2",
		Username:  "other",
		Email:     "owner@example.com",
		Password:  "hash",
		CreatedAt: time.Now(),
	})
	if !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("error = %v, want ErrEmailTaken", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "owner@example.com")

	got, err := repo.GetUserByEmail(context.Background(), "owner@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != "u1" || got.Username != "shopkeeper" {
		t.Errorf("unexpected user: %+v", got)
	}

	if _, err := repo.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}
}

func TestTransactionsInRange(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "owner@example.com")
	ctx := context.Background()

	base := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	for i, spec := range []struct {
		id    string
		cat   core.Category
		paise int64
		at    time.Time
	}{
		{"t1", core.Sales, 100000, base},
		{"t2", core.Purchase, 40000, base.Add(time.Hour)},
		{"t3", core.Expense, 10000, base.AddDate(0, 0, -1)},
	} {
		err := repo.CreateTransaction(ctx, core.Transaction{
			ID:        spec.id,
			UserID:    "u1",
			Category:  spec.cat,
			Amount:    core.Money{Paise: spec.paise},
			Date:      spec.at,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("create transaction %s: %v", spec.id, err)
		}
	}

	from := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	got, err := repo.TransactionsInRange(ctx, "u1", from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions in range, want 2", len(got))
	}
	if got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("range order wrong: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Amount.Paise != 100000 || got[0].Category != core.Sales {
		t.Errorf("round-tripped transaction wrong: %+v", got[0])
	}
}

func TestTransactionsInRangeSubsecondBoundaries(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "owner@example.com")
	ctx := context.Background()

	ist := time.FixedZone("IST", 5*3600+30*60)
	dayStart := time.Date(2025, 8, 20, 0, 0, 0, 0, ist)
	for _, spec := range []struct {
		id string
		at time.Time
	}{
		{"after-midnight", dayStart.Add(500 * time.Millisecond)},
		{"end-of-day", dayStart.Add(24*time.Hour - time.Nanosecond)},
		{"next-day", dayStart.Add(24 * time.Hour)},
	} {
		err := repo.CreateTransaction(ctx, core.Transaction{
			ID:        spec.id,
			UserID:    "u1",
			Category:  core.Sales,
			Amount:    core.Money{Paise: 100},
			Date:      spec.at,
			CreatedAt: spec.at,
		})
		if err != nil {
			t.Fatalf("create transaction %s: %v", spec.id, err)
		}
	}

	got, err := repo.TransactionsInRange(ctx, "u1", dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions in day, want 2 (fractional-second rows must sort inside their day)", len(got))
	}
	if got[0].ID != "after-midnight" || got[1].ID != "end-of-day" {
		t.Errorf("range order wrong: %s, %s", got[0].ID, got[1].ID)
	}

	previous, err := repo.TransactionsInRange(ctx, "u1", dayStart.AddDate(0, 0, -1), dayStart)
	if err != nil {
		t.Fatalf("previous-day query: %v", err)
	}
	if len(previous) != 0 {
		t.Errorf("previous day picked up %d transactions, want 0", len(previous))
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "owner@example.com")
	ctx := context.Background()

	base := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := repo.CreateTransaction(ctx, core.Transaction{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Category:  core.Sales,
			Amount:    core.Money{Paise: int64(i+1) * 100},
			Date:      base.AddDate(0, 0, i),
			CreatedAt: base,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.ListTransactions(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit not applied, got %d", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("order wrong: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestUpsertDailyReportIsIdempotentPerDay(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "owner@example.com")
	ctx := context.Background()

	day := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	first := core.DailyReport{
		ID:            "r1",
		UserID:        "u1",
		Date:          day,
		SalesTotal:    core.Money{Paise: 100000},
		PurchaseTotal: core.Money{Paise: 40000},
		ExpenseTotal:  core.Money{Paise: 10000},
		NetAmount:     core.Money{Paise: 50000},
		Insights:      "first pass",
		ActionPoints:  []string{"a", "b"},
		CreatedAt:     time.Now(),
	}
	if err := repo.UpsertDailyReport(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := first
	second.ID = "r2"
	second.SalesTotal = core.Money{Paise: 200000}
	second.NetAmount = core.Money{Paise: 150000}
	second.Insights = "second pass"
	if err := repo.UpsertDailyReport(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	reports, err := repo.ListReports(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("regenerating a day must not duplicate: got %d reports", len(reports))
	}
	if reports[0].SalesTotal.Paise != 200000 || reports[0].Insights != "second pass" {
		t.Errorf("upsert did not replace previous values: %+v", reports[0])
	}
	if len(reports[0].ActionPoints) != 2 {
		t.Errorf("action points lost on round trip: %+v", reports[0].ActionPoints)
	}
}

func TestPendingExportsLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "owner@example.com")
	ctx := context.Background()

	now := time.Now()
	for _, id := range []string{"t1", "t2"} {
		err := repo.CreateTransaction(ctx, core.Transaction{
			ID:        id,
			UserID:    "u1",
			Category:  core.Expense,
			Amount:    core.Money{Paise: 500},
			Date:      now,
			CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	pending, err := repo.PendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	if err := repo.MarkExported(ctx, "t1"); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	pending, err = repo.PendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("pending after mark: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "t2" {
		t.Errorf("pending after mark = %+v, want just t2", pending)
	}

	if err := repo.MarkExportError(ctx, "t2"); err != nil {
		t.Fatalf("mark export error: %v", err)
	}
}

func TestCreateScanRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.CreateScan(context.Background(), core.DocumentScan{
		ID:       "s1",
		UserID:   "u1",
		Filename: "invoice.jpg",
		Extracted: core.ExtractedData{
			Sales:   []core.Money{{Paise: 100000}},
			RawText: "INVOICE 1000",
		},
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create scan: %v", err)
	}
}
