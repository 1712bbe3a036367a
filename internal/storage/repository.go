package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bahikhata/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps are persisted. All stored times are UTC and
// the fractional seconds are fixed-width, so lexicographic order on the text
// column matches chronological order and range queries stay correct.
// RFC3339Nano would not do here: it trims trailing zeros, which makes
// "18:30:00.5Z" sort before "18:30:00Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	// RFC3339Nano accepts any fractional-second width, including rows
	// written before the layout became fixed-width.
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreateUser inserts a new account. A duplicate email maps to
// core.ErrEmailTaken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.Password, encodeTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "email", u.Email)
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = decodeTime(createdAt)
	return u, nil
}

// CreateTransaction persists one immutable transaction row.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, category, amount_paise, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Category), t.Amount.Paise, t.Description,
		encodeTime(t.Date), encodeTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", t.UserID,
		"category", string(t.Category),
		"amount_paise", t.Amount.Paise)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_paise, description, date, created_at
		 FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	defer rows.Close()

	txns, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(txns) == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return txns[0], nil
}

// ListTransactions returns a user's transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_paise, description, date, created_at
		 FROM transactions WHERE user_id = ? ORDER BY date DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// TransactionsInRange returns a user's transactions with from <= date < to.
func (r *SQLiteRepository) TransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_paise, description, date, created_at
		 FROM transactions WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date ASC`,
		userID, encodeTime(from), encodeTime(to))
	if err != nil {
		return nil, fmt.Errorf("transactions in range: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var category, date, createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &category, &t.Amount.Paise, &t.Description, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Category = core.Category(category)
		t.Date = decodeTime(date)
		t.CreatedAt = decodeTime(createdAt)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// UpsertDailyReport stores a generated report, replacing any previous report
// for the same user and day. Regeneration is idempotent per (user, date).
func (r *SQLiteRepository) UpsertDailyReport(ctx context.Context, rep core.DailyReport) error {
	points, err := json.Marshal(rep.ActionPoints)
	if err != nil {
		return fmt.Errorf("marshal action points: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO daily_reports
		   (id, user_id, report_date, sales_paise, purchase_paise, expense_paise, net_paise, insights, action_points, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, report_date) DO UPDATE SET
		   sales_paise = excluded.sales_paise,
		   purchase_paise = excluded.purchase_paise,
		   expense_paise = excluded.expense_paise,
		   net_paise = excluded.net_paise,
		   insights = excluded.insights,
		   action_points = excluded.action_points,
		   created_at = excluded.created_at`,
		rep.ID, rep.UserID, rep.Date.Format(core.DateLayout),
		rep.SalesTotal.Paise, rep.PurchaseTotal.Paise, rep.ExpenseTotal.Paise, rep.NetAmount.Paise,
		rep.Insights, string(points), encodeTime(rep.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert daily report: %w", err)
	}

	slog.InfoContext(ctx, "Daily report stored",
		"user_id", rep.UserID,
		"date", rep.Date.Format(core.DateLayout),
		"net_paise", rep.NetAmount.Paise)
	return nil
}

// ListReports returns a user's reports, most recent day first.
func (r *SQLiteRepository) ListReports(ctx context.Context, userID string, limit int) ([]core.DailyReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, report_date, sales_paise, purchase_paise, expense_paise, net_paise, insights, action_points, created_at
		 FROM daily_reports WHERE user_id = ? ORDER BY report_date DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []core.DailyReport
	for rows.Next() {
		var rep core.DailyReport
		var reportDate, points, createdAt string
		if err := rows.Scan(&rep.ID, &rep.UserID, &reportDate,
			&rep.SalesTotal.Paise, &rep.PurchaseTotal.Paise, &rep.ExpenseTotal.Paise, &rep.NetAmount.Paise,
			&rep.Insights, &points, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if rep.Date, err = time.Parse(core.DateLayout, reportDate); err != nil {
			return nil, fmt.Errorf("parse report date %q: %w", reportDate, err)
		}
		if err := json.Unmarshal([]byte(points), &rep.ActionPoints); err != nil {
			return nil, fmt.Errorf("unmarshal action points: %w", err)
		}
		rep.CreatedAt = decodeTime(createdAt)
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// CreateScan stores a document scan result.
func (r *SQLiteRepository) CreateScan(ctx context.Context, s core.DocumentScan) error {
	extracted, err := json.Marshal(s.Extracted)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO document_scans (id, user_id, filename, extracted_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Filename, string(extracted), encodeTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert document scan: %w", err)
	}

	slog.InfoContext(ctx, "Document scan stored", "id", s.ID, "user_id", s.UserID, "filename", s.Filename)
	return nil
}

// PendingExports returns transactions not yet appended to the ledger export,
// oldest first. Used by the worker's backup sweep when AMQP messages are lost.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_paise, description, date, created_at
		 FROM transactions WHERE exported_at IS NULL ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending exports: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// MarkExported records a successful ledger export.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported_at = ?, export_error = 0 WHERE id = ?`,
		encodeTime(time.Now()), id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// MarkExportError flags a transaction whose export failed so sweeps can
// retry it later.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_error = export_error + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}
