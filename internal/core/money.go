// Package core holds the bookkeeping domain: categories, money, transactions
// and the report/analytics aggregation that the HTTP layer serves.
//
// This file contains money parsing and formatting. Amounts are stored as
// paise (hundredths of a rupee) in an int64 and only converted to decimal
// notation at the wire and display boundaries.
package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in paise. Aggregation happens on paise so totals are
// exact; JSON carries the rupee decimal value the original API exposed.
type Money struct {
	Paise int64
}

// ParseAmount converts a decimal rupee string into Money with half-up
// rounding on the third decimal place. Negative amounts are rejected;
// zero is allowed (a scanned line may legitimately carry a zero amount).
//
// Examples:
//
//	ParseAmount("1234")     -> 123400 paise
//	ParseAmount("12.34")    -> 1234 paise
//	ParseAmount("12.345")   -> 1235 paise
//	ParseAmount("1,234.50") -> 123450 paise
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Tolerate thousands separators and a currency prefix.
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	paise := d.Mul(decimal.NewFromInt(100)).Round(0)
	if !paise.IsInteger() || !paise.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Paise: paise.BigInt().Int64()}, nil
}

func (m Money) Validate() error {
	if m.Paise < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Rupees returns the exact decimal rupee value.
func (m Money) Rupees() decimal.Decimal {
	return decimal.New(m.Paise, -2)
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Paise: m.Paise + o.Paise}
}

// Sub returns the difference of two amounts. The result may be negative:
// net amounts are allowed below zero even though individual transaction
// amounts are not.
func (m Money) Sub(o Money) Money {
	return Money{Paise: m.Paise - o.Paise}
}

// MarshalJSON emits the rupee value as a plain JSON number, matching the
// wire format the frontend consumes (e.g. 1000, 12.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Rupees().String()), nil
}

// UnmarshalJSON accepts either a JSON number or a decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = str
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		// Scanned documents can yield negative candidates; keep sign intact
		// when decoding rather than rejecting the whole payload.
		d, derr := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if derr != nil {
			return ErrInvalidAmount
		}
		paise := d.Mul(decimal.NewFromInt(100)).Round(0)
		if !paise.BigInt().IsInt64() {
			return ErrInvalidAmount
		}
		m.Paise = paise.BigInt().Int64()
		return nil
	}
	m.Paise = parsed.Paise
	return nil
}

// FormatRupees renders the amount with Indian-locale digit grouping,
// e.g. ₹12,34,567.89. Used in advisor prompts and ledger exports.
func (m Money) FormatRupees() string {
	paise := m.Paise
	neg := paise < 0
	if neg {
		paise = -paise
	}
	whole := paise / 100
	frac := paise % 100

	digits := fmt.Sprintf("%d", whole)
	grouped := groupIndian(digits)
	s := fmt.Sprintf("₹%s.%02d", grouped, frac)
	if neg {
		return "-" + s
	}
	return s
}

// groupIndian applies the 3-then-2 grouping: 1234567 -> 12,34,567.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}
