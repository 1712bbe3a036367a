package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bahikhata/internal/amqp"
	"bahikhata/internal/core"
	"bahikhata/internal/export/memory"
	"bahikhata/internal/storage"
)

func newTestWorker(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "bahikhata.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	ledger := memory.New()
	return NewExportWorker(repo, ledger, 10), repo, ledger
}

func seedTransaction(t *testing.T, repo *storage.SQLiteRepository, id string) core.Transaction {
	t.Helper()
	ctx := context.Background()
	user := core.User{ID: "user-1", Username: "asha", Email: "asha@example.com", Password: "hash", CreatedAt: time.Now().UTC()}
	if _, err := repo.GetUser(ctx, user.ID); err != nil {
		if err := repo.CreateUser(ctx, user); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	tx := core.Transaction{
		ID:          id,
		UserID:      user.ID,
		Category:    core.Sales,
		Amount:      core.Money{Paise: 250000},
		Description: "counter sales",
		Date:        time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx
}

func TestHandleExportMessage(t *testing.T) {
	w, repo, ledger := newTestWorker(t)
	ctx := context.Background()
	tx := seedTransaction(t, repo, "tx-1")

	msg := &amqp.TransactionExportMessage{TransactionID: tx.ID, UserID: tx.UserID, Timestamp: time.Now()}
	if err := w.HandleExportMessage(ctx, msg); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}

	items := ledger.Items()
	if len(items) != 1 {
		t.Fatalf("ledger has %d items, want 1", len(items))
	}
	if items[0].ID != tx.ID {
		t.Errorf("exported ID = %q, want %q", items[0].ID, tx.ID)
	}

	// The transaction must no longer be pending.
	pending, err := repo.PendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingExports: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending count = %d, want 0", len(pending))
	}
}

func TestHandleExportMessageUnknownTransaction(t *testing.T) {
	w, _, ledger := newTestWorker(t)

	msg := &amqp.TransactionExportMessage{TransactionID: "missing", Timestamp: time.Now()}
	if err := w.HandleExportMessage(context.Background(), msg); err == nil {
		t.Error("expected error for unknown transaction")
	}
	if len(ledger.Items()) != 0 {
		t.Error("nothing should reach the ledger for an unknown transaction")
	}
}

func TestStartupSweepDrainsBacklog(t *testing.T) {
	w, repo, ledger := newTestWorker(t)
	ctx := context.Background()
	seedTransaction(t, repo, "tx-1")
	seedTransaction(t, repo, "tx-2")
	seedTransaction(t, repo, "tx-3")

	if err := w.StartupSweep(ctx); err != nil {
		t.Fatalf("StartupSweep: %v", err)
	}

	if got := len(ledger.Items()); got != 3 {
		t.Errorf("exported %d transactions, want 3", got)
	}
	pending, err := repo.PendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("PendingExports: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending count after sweep = %d, want 0", len(pending))
	}
}

func TestProcessPendingExportsEmptyIsNoop(t *testing.T) {
	w, _, ledger := newTestWorker(t)
	if err := w.ProcessPendingExports(context.Background()); err != nil {
		t.Fatalf("ProcessPendingExports: %v", err)
	}
	if len(ledger.Items()) != 0 {
		t.Error("ledger should stay empty with no pending transactions")
	}
}
