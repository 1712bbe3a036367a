package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Sales    Category = "sales"
	Purchase Category = "purchase"
	Expense  Category = "expense"
)

type (
	// Category is the closed set of transaction kinds. Every transaction is
	// exactly one of sales, purchase or expense; anything else is rejected
	// at the boundary.
	Category string

	User struct {
		ID        string
		Username  string
		Email     string
		Password  string // bcrypt hash, never the plain text
		CreatedAt time.Time
	}

	// Transaction is a single monetary record owned by a user. Immutable
	// once recorded.
	Transaction struct {
		ID          string
		UserID      string
		Category    Category
		Amount      Money
		Description string
		Date        time.Time
		CreatedAt   time.Time
	}

	// DailyReport aggregates one user's transactions for one calendar day,
	// plus the advisor narrative attached to it.
	DailyReport struct {
		ID            string
		UserID        string
		Date          time.Time
		SalesTotal    Money
		PurchaseTotal Money
		ExpenseTotal  Money
		NetAmount     Money
		Insights      string
		ActionPoints  []string
		CreatedAt     time.Time
	}

	// DayTotals is one zero-filled entry of an analytics series.
	DayTotals struct {
		Date     string // YYYY-MM-DD
		Sales    Money
		Purchase Money
		Expense  Money
	}

	// AnalyticsSeries covers a trailing window of days: grand totals plus
	// one chart entry per calendar day, ascending, gaps zero-filled.
	AnalyticsSeries struct {
		WindowDays    int
		SalesTotal    Money
		PurchaseTotal Money
		ExpenseTotal  Money
		NetTotal      Money
		ChartData     []DayTotals
	}

	// DocumentScan records one OCR extraction result for a user's upload.
	DocumentScan struct {
		ID        string
		UserID    string
		Filename  string
		Extracted ExtractedData
		CreatedAt time.Time
	}

	// ExtractedData holds categorized candidate amounts recognized in a
	// scanned document. Empty slices mean nothing was recognized; that is
	// not an error.
	ExtractedData struct {
		Sales    []Money `json:"sales,omitempty"`
		Purchase []Money `json:"purchase,omitempty"`
		Expense  []Money `json:"expense,omitempty"`
		RawText  string  `json:"raw_text,omitempty"`
	}
)

var (
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidWindow      = errors.New("window days out of range")
	ErrFutureDate         = errors.New("date is in the future")
	ErrUnsupportedUpload  = errors.New("unsupported document type")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("temporarily unavailable")
)

// MaxActionPoints bounds the advisor's recommendation list per report.
const MaxActionPoints = 5

// DateLayout is the calendar-day key used for bucketing and on the wire.
const DateLayout = "2006-01-02"

// ParseCategory normalizes a user-supplied category string into the closed
// enumeration. Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case Sales:
		return Sales, nil
	case Purchase:
		return Purchase, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidCategory
}

func (c Category) Valid() bool {
	switch c {
	case Sales, Purchase, Expense:
		return true
	}
	return false
}

// Label returns the display name used in narratives and exports.
func (c Category) Label() string {
	switch c {
	case Sales:
		return "Sales"
	case Purchase:
		return "Purchase"
	case Expense:
		return "Expense"
	}
	return string(c)
}

// Color returns the chart color associated with the category.
func (c Category) Color() string {
	switch c {
	case Sales:
		return "#16a34a"
	case Purchase:
		return "#ea580c"
	case Expense:
		return "#dc2626"
	}
	return "#6b7280"
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("empty username")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("invalid email")
	}
	if u.Password == "" {
		return errors.New("empty password")
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.UserID == "" {
		return errors.New("missing user id")
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if t.Date.IsZero() {
		return errors.New("missing date")
	}
	return nil
}
