package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bahikhata/internal/core"
)

type createTransactionRequest struct {
	UserID      string          `json:"user_id"`
	Category    string          `json:"category"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// handleCreateTransaction accepts a JSON body, a urlencoded form, or a
// multipart form, with user_id also accepted as a query parameter.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, fromForm, err := parseCreateTransaction(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	// Precedence: form field, then query parameter, then JSON body.
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if fromForm && req.UserID != "" {
		userID = req.UserID
	}
	if userID == "" {
		userID = req.UserID
	}
	if userID == "" {
		writeDetail(w, http.StatusBadRequest, "user_id is required")
		return
	}

	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := parseAmountField(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = parseFlexibleTime(req.Date)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid date format")
			return
		}
	}

	tx, err := s.transactions.RecordTransaction(r.Context(), core.Transaction{
		UserID:      userID,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	})
	if err != nil {
		if isValidationError(err) {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, err)
		return
	}

	s.invalidateUserCaches(userID)
	writeJSON(w, http.StatusOK, toTransactionPayload(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	limit := queryInt(r, "limit", 50)
	if limit < 1 {
		writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	txns, err := s.transactions.ListTransactions(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionPayloads(txns))
}

func parseCreateTransaction(r *http.Request) (req createTransactionRequest, fromForm bool, err error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if strings.HasPrefix(ct, "multipart/form-data") {
			err = r.ParseMultipartForm(maxUploadMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return req, true, errValidation("Invalid form body")
		}
		req.UserID = strings.TrimSpace(r.PostForm.Get("user_id"))
		req.Category = r.PostForm.Get("category")
		req.Description = r.PostForm.Get("description")
		req.Date = strings.TrimSpace(r.PostForm.Get("date"))
		if v := strings.TrimSpace(r.PostForm.Get("amount")); v != "" {
			req.Amount = json.RawMessage(strconv.Quote(v))
		}
		return req, true, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false, errValidation("Invalid JSON body")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	return req, false, nil
}

// parseAmountField accepts the amount as a JSON number or a string.
func parseAmountField(raw json.RawMessage) (core.Money, error) {
	if len(raw) == 0 {
		return core.Money{}, core.ErrInvalidAmount
	}
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return core.Money{}, core.ErrInvalidAmount
		}
		text = s
	}
	return core.ParseAmount(text)
}

// parseFlexibleTime accepts RFC 3339 timestamps and bare YYYY-MM-DD days.
func parseFlexibleTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(core.DateLayout, v)
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

type errValidation string

func (e errValidation) Error() string { return string(e) }
