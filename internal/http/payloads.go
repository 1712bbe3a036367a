package http

import (
	"time"

	"bahikhata/internal/core"
)

// Wire representations. Amounts marshal as plain rupee numbers, dates as
// RFC 3339 timestamps, calendar days as YYYY-MM-DD.

type transactionPayload struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Category    string     `json:"category"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	CreatedAt   string     `json:"created_at"`
}

func toTransactionPayload(tx core.Transaction) transactionPayload {
	return transactionPayload{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Category:    string(tx.Category),
		Amount:      tx.Amount,
		Description: tx.Description,
		Date:        tx.Date.UTC().Format(time.RFC3339),
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionPayloads(txns []core.Transaction) []transactionPayload {
	out := make([]transactionPayload, 0, len(txns))
	for _, tx := range txns {
		out = append(out, toTransactionPayload(tx))
	}
	return out
}

type reportPayload struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Date          string     `json:"date"`
	SalesTotal    core.Money `json:"sales_total"`
	PurchaseTotal core.Money `json:"purchase_total"`
	ExpenseTotal  core.Money `json:"expense_total"`
	NetAmount     core.Money `json:"net_amount"`
	Insights      string     `json:"insights"`
	ActionPoints  []string   `json:"action_points"`
	CreatedAt     string     `json:"created_at"`
}

func toReportPayload(rep core.DailyReport) reportPayload {
	points := rep.ActionPoints
	if points == nil {
		points = []string{}
	}
	return reportPayload{
		ID:            rep.ID,
		UserID:        rep.UserID,
		Date:          rep.Date.Format(core.DateLayout),
		SalesTotal:    rep.SalesTotal,
		PurchaseTotal: rep.PurchaseTotal,
		ExpenseTotal:  rep.ExpenseTotal,
		NetAmount:     rep.NetAmount,
		Insights:      rep.Insights,
		ActionPoints:  points,
		CreatedAt:     rep.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toReportPayloads(reps []core.DailyReport) []reportPayload {
	out := make([]reportPayload, 0, len(reps))
	for _, rep := range reps {
		out = append(out, toReportPayload(rep))
	}
	return out
}

type chartEntryPayload struct {
	Date     string     `json:"date"`
	Sales    core.Money `json:"sales"`
	Purchase core.Money `json:"purchase"`
	Expense  core.Money `json:"expense"`
}

type analyticsPayload struct {
	ChartData []chartEntryPayload `json:"chart_data"`
	Totals    analyticsTotals     `json:"totals"`
}

type analyticsTotals struct {
	Sales    core.Money `json:"sales"`
	Purchase core.Money `json:"purchase"`
	Expense  core.Money `json:"expense"`
	Net      core.Money `json:"net"`
}

func toAnalyticsPayload(series core.AnalyticsSeries) analyticsPayload {
	chart := make([]chartEntryPayload, 0, len(series.ChartData))
	for _, day := range series.ChartData {
		chart = append(chart, chartEntryPayload{
			Date:     day.Date,
			Sales:    day.Sales,
			Purchase: day.Purchase,
			Expense:  day.Expense,
		})
	}
	return analyticsPayload{
		ChartData: chart,
		Totals: analyticsTotals{
			Sales:    series.SalesTotal,
			Purchase: series.PurchaseTotal,
			Expense:  series.ExpenseTotal,
			Net:      series.NetTotal,
		},
	}
}
