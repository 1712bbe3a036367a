package memory

import (
	"context"
	"testing"
	"time"

	"bahikhata/internal/core"
)

func TestAppendReturnsRowRefs(t *testing.T) {
	s := New()
	tx := core.Transaction{
		ID:          "tx-1",
		UserID:      "user-1",
		Category:    core.Sales,
		Amount:      core.Money{Paise: 150000},
		Description: "morning sales",
		Date:        time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC),
	}

	ref, err := s.Append(context.Background(), tx)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	tx.ID = "tx-2"
	if ref, _ = s.Append(context.Background(), tx); ref != "mem:2" {
		t.Errorf("second ref = %q, want mem:2", ref)
	}

	if got := len(s.Items()); got != 2 {
		t.Errorf("stored %d items, want 2", got)
	}
}

func TestAppendRejectsInvalidTransaction(t *testing.T) {
	s := New()
	tx := core.Transaction{
		ID:       "tx-1",
		UserID:   "user-1",
		Category: core.Category("loan"),
		Amount:   core.Money{Paise: 100},
		Date:     time.Now(),
	}

	if _, err := s.Append(context.Background(), tx); err == nil {
		t.Error("expected validation error for unknown category")
	}
	if got := len(s.Items()); got != 0 {
		t.Errorf("stored %d items, want 0", got)
	}
}
