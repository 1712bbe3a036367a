package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bahikhata/internal/amqp"
	"bahikhata/internal/core"
	"bahikhata/internal/log"
	"bahikhata/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and AMQP.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	logs       *log.StructuredLogger
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
		logs:       log.NewStructuredLogger(log.New(log.Config{Component: log.ComponentLedger})),
	}
}

// RecordTransaction saves a transaction locally and publishes an export event.
func (s *TransactionService) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if _, err := s.storage.GetUser(ctx, tx.UserID); err != nil {
		return core.Transaction{}, fmt.Errorf("lookup user %s: %w", tx.UserID, err)
	}

	tx.ID = uuid.New().String()
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}
	tx.CreatedAt = time.Now().UTC()

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	// Save to SQLite first (fast, reliable)
	if err := s.storage.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.logs.LogTransactionCreated(ctx, tx.ID, tx.UserID, string(tx.Category), tx.Amount.Paise)

	// Publish async export event (non-blocking)
	if err := s.publishExportMessage(ctx, tx); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			log.FieldTransactionID, tx.ID,
			log.FieldError, err)
		// Don't fail the request, the transaction is saved locally and the
		// worker's pending sweep will pick it up.
	}

	return tx, nil
}

// ListTransactions returns the user's most recent transactions.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	return s.storage.ListTransactions(ctx, userID, limit)
}

func (s *TransactionService) publishExportMessage(ctx context.Context, tx core.Transaction) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return nil
	}
	return s.amqpClient.PublishTransactionExport(ctx, &amqp.TransactionExportMessage{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Timestamp:     time.Now().UTC(),
	})
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
