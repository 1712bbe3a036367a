package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bahikhata/internal/core"
	"bahikhata/internal/insight"
	"bahikhata/internal/log"
	"bahikhata/internal/storage"
)

// ReportService aggregates transactions into daily reports and analytics
// windows. The advisor narrative is best-effort: when the configured advisor
// fails, the deterministic fallback takes over so report generation never
// depends on an external model being up.
type ReportService struct {
	storage  *storage.SQLiteRepository
	advisor  insight.ReportAdvisor
	fallback insight.ReportAdvisor
	loc      *time.Location
}

func NewReportService(storage *storage.SQLiteRepository, advisor insight.ReportAdvisor, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		storage:  storage,
		advisor:  advisor,
		fallback: insight.StaticAdvisor{},
		loc:      loc,
	}
}

// DashboardSnapshot bundles the day's report with the analytics window a
// dashboard renders alongside it.
type DashboardSnapshot struct {
	Report core.DailyReport
	Series core.AnalyticsSeries
}

// GenerateDailyReport builds, narrates and upserts the report for one
// calendar day. Regenerating the same day replaces the stored report.
func (s *ReportService) GenerateDailyReport(ctx context.Context, userID string, date time.Time) (core.DailyReport, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return core.DailyReport{}, fmt.Errorf("lookup user %s: %w", userID, err)
	}

	now := time.Now().In(s.loc)
	if core.DayStart(date, s.loc).After(core.DayStart(now, s.loc)) {
		return core.DailyReport{}, core.ErrFutureDate
	}

	dayStart := core.DayStart(date, s.loc)
	txns, err := s.storage.TransactionsInRange(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return core.DailyReport{}, fmt.Errorf("load transactions: %w", err)
	}

	report := core.NewDailyReport(userID, date, txns, s.loc)
	report.ID = uuid.New().String()
	report.CreatedAt = time.Now().UTC()

	report.Insights, report.ActionPoints = s.advise(ctx, report)

	if err := s.storage.UpsertDailyReport(ctx, report); err != nil {
		return core.DailyReport{}, fmt.Errorf("store report: %w", err)
	}

	slog.InfoContext(ctx, "Daily report generated",
		log.FieldUserID, userID,
		log.FieldReportDate, core.DayKey(date, s.loc))
	return report, nil
}

// ListReports returns the user's stored reports, newest first.
func (s *ReportService) ListReports(ctx context.Context, userID string, limit int) ([]core.DailyReport, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	return s.storage.ListReports(ctx, userID, limit)
}

// Analytics builds the trailing window series ending today.
func (s *ReportService) Analytics(ctx context.Context, userID string, days int) (core.AnalyticsSeries, error) {
	if days < 1 || days > core.MaxWindowDays {
		return core.AnalyticsSeries{}, fmt.Errorf("%w: got %d", core.ErrInvalidWindow, days)
	}
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return core.AnalyticsSeries{}, fmt.Errorf("lookup user %s: %w", userID, err)
	}

	now := time.Now().In(s.loc)
	from := core.DayStart(now, s.loc).AddDate(0, 0, -(days - 1))
	to := core.DayStart(now, s.loc).AddDate(0, 0, 1)
	txns, err := s.storage.TransactionsInRange(ctx, userID, from, to)
	if err != nil {
		return core.AnalyticsSeries{}, fmt.Errorf("load transactions: %w", err)
	}

	return core.BuildSeries(txns, days, now, s.loc)
}

// Dashboard generates today's report and the analytics window in parallel.
func (s *ReportService) Dashboard(ctx context.Context, userID string, days int) (DashboardSnapshot, error) {
	var snap DashboardSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, err := s.GenerateDailyReport(gctx, userID, time.Now().In(s.loc))
		if err != nil {
			return err
		}
		snap.Report = report
		return nil
	})
	g.Go(func() error {
		series, err := s.Analytics(gctx, userID, days)
		if err != nil {
			return err
		}
		snap.Series = series
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardSnapshot{}, err
	}
	return snap, nil
}

func (s *ReportService) advise(ctx context.Context, report core.DailyReport) (string, []string) {
	if s.advisor != nil {
		insights, points, err := s.advisor.Advise(ctx, report)
		if err == nil {
			return insights, points
		}
		slog.WarnContext(ctx, "Advisor failed, using fallback narrative",
			log.FieldUserID, report.UserID,
			log.FieldError, err)
	}
	insights, points, _ := s.fallback.Advise(ctx, report)
	return insights, points
}
