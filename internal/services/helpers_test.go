package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bahikhata/internal/core"
	"bahikhata/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "bahikhata.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *storage.SQLiteRepository, id, email string) core.User {
	t.Helper()
	u := core.User{
		ID:        id,
		Username:  "asha",
		Email:     email,
		Password:  "not-a-real-hash",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedTransaction(t *testing.T, repo *storage.SQLiteRepository, id, userID string, cat core.Category, paise int64, date time.Time) core.Transaction {
	t.Helper()
	tx := core.Transaction{
		ID:        id,
		UserID:    userID,
		Category:  cat,
		Amount:    core.Money{Paise: paise},
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx
}
