package insight

import (
	"context"
	"fmt"

	"bahikhata/internal/core"
)

// StaticAdvisor is the offline advisor used when no model endpoint is
// configured, and the fallback when the model call fails. Its output is
// deterministic for a given report.
type StaticAdvisor struct{}

func (StaticAdvisor) Advise(_ context.Context, report core.DailyReport) (string, []string, error) {
	if report.SalesTotal.Paise == 0 && report.PurchaseTotal.Paise == 0 && report.ExpenseTotal.Paise == 0 {
		return fmt.Sprintf("No activity recorded on %s. Record your sales and expenses to see daily insights here.",
			report.Date.Format(core.DateLayout)), nil, nil
	}

	insights := fmt.Sprintf("Sales of %s against purchases of %s and expenses of %s left a net of %s.",
		report.SalesTotal.FormatRupees(),
		report.PurchaseTotal.FormatRupees(),
		report.ExpenseTotal.FormatRupees(),
		report.NetAmount.FormatRupees())

	var points []string
	if report.NetAmount.Paise < 0 {
		insights += " The day closed in loss."
		points = append(points, "Review today's purchases and expenses for anything avoidable.")
	} else {
		insights += " The day closed in profit."
	}
	if report.SalesTotal.Paise == 0 {
		points = append(points, "No sales were recorded today; follow up with regular customers.")
	}
	if report.ExpenseTotal.Paise > report.SalesTotal.Paise {
		points = append(points, "Expenses exceeded sales; set a daily expense limit.")
	}
	points = append(points,
		"Check stock levels before tomorrow's purchases.",
		"Record every transaction as it happens to keep reports accurate.")

	return insights, clampActionPoints(points), nil
}

// StaticExtractor recognizes nothing. It keeps the scan endpoint functional
// without a vision model: uploads succeed and return empty extracted data.
type StaticExtractor struct{}

func (StaticExtractor) Extract(context.Context, string, string, []byte) (core.ExtractedData, error) {
	return core.ExtractedData{}, nil
}
