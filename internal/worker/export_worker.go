package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bahikhata/internal/amqp"
	"bahikhata/internal/core"
	"bahikhata/internal/export"
	"bahikhata/internal/log"
	"bahikhata/internal/storage"
)

// ExportWorker mirrors recorded transactions from SQLite into the external
// ledger. It is driven by AMQP events, with a periodic pending sweep as a
// backup in case messages are lost.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	ledger    export.LedgerAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, ledger export.LedgerAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single transaction export event from AMQP.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		log.FieldTransactionID, msg.TransactionID,
		log.FieldUserID, msg.UserID)

	tx, err := w.storage.GetTransaction(ctx, msg.TransactionID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.exportToLedger(ctx, tx.ID, tx); err != nil {
		return fmt.Errorf("export transaction to ledger: %w", err)
	}
	return nil
}

// ProcessPendingExports picks up transactions that were never exported.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.storage.PendingExports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", log.FieldBatchSize, len(pending))

	for _, tx := range pending {
		if err := w.exportToLedger(ctx, tx.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction",
				log.FieldTransactionID, tx.ID,
				log.FieldError, err)
			continue
		}
	}
	return nil
}

// StartupSweep drains the pending backlog at worker startup. Useful to
// recover from missed AMQP messages or worker downtime.
func (w *ExportWorker) StartupSweep(ctx context.Context) error {
	pending, err := w.storage.PendingExports(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending exports for startup sweep: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		log.FieldBatchSize, len(pending))

	successCount := 0
	errorCount := 0
	for _, tx := range pending {
		if err := w.exportToLedger(ctx, tx.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup sweep",
				log.FieldTransactionID, tx.ID,
				log.FieldError, err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sweep completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)
	return nil
}

func (w *ExportWorker) exportToLedger(ctx context.Context, id string, tx core.Transaction) error {
	ref, err := w.ledger.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				log.FieldTransactionID, id,
				log.FieldError, markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		// The append itself worked; the sweep will retry the mark.
		slog.ErrorContext(ctx, "Failed to mark transaction exported",
			log.FieldTransactionID, id,
			log.FieldError, err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		log.FieldTransactionID, id,
		log.FieldLedgerRef, ref,
		log.FieldAmountPaise, tx.Amount.Paise)
	return nil
}
