package bantay

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// Aggregator computes window statistics and persists report snapshots.
// Individual statistics are independent: a failing sub-query degrades that
// statistic to its zero value instead of failing the whole computation.
type Aggregator struct {
	stats   StatsService
	reports ReportService
	queue   Queue
	logger  *slog.Logger

	now func() time.Time
}

// NewAggregator creates an analytics aggregator.
func NewAggregator(stats StatsService, reports ReportService, queue Queue, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		stats:   stats,
		reports: reports,
		queue:   queue,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the aggregator clock. Intended for tests.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// ComputeWindow computes the full statistics set for the window. Monetary
// and rate figures are rounded to two decimal places. The compliance rate
// is zero when the window has no qualifying violations.
func (a *Aggregator) ComputeWindow(ctx context.Context, w Window) (*WindowStats, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	stats := &WindowStats{Window: w}

	stats.TotalViolations = a.intStat(ctx, w, "total_violations", a.stats.CountViolations)
	stats.TotalComplaints = a.intStat(ctx, w, "total_complaints", a.stats.CountComplaints)
	stats.TotalFines = round2(a.floatStat(ctx, w, "total_fines", a.stats.SumFines))
	stats.TotalSuspensions = a.intStat(ctx, w, "total_suspensions", a.stats.CountSuspensions)
	stats.AvgResponseTimeDays = round2(a.floatStat(ctx, w, "avg_response_days", a.stats.AvgComplaintResponseDays))

	offenders := a.intStat(ctx, w, "distinct_offenders", a.stats.CountDistinctOffenders)
	if stats.TotalViolations > 0 {
		stats.ComplianceRatePercent = round2(float64(offenders) / float64(stats.TotalViolations) * 100)
	}

	top, err := a.stats.TopViolation(ctx, w)
	if err != nil {
		a.logger.Warn("statistic query failed",
			slog.String("statistic", "top_violation"),
			slog.String("error", err.Error()),
		)
	} else if top != nil {
		stats.TopViolationName = top.Name
		stats.TopViolationCount = top.Count
	}

	return stats, nil
}

// PersistReport computes the window statistics and stores them as a new
// report snapshot. Re-running for the same period inserts another row; the
// history of generated reports is never overwritten.
func (a *Aggregator) PersistReport(ctx context.Context, reportType ReportType, periodDate time.Time, w Window, generatedBy uuid.UUID) (*AnalyticsReport, error) {
	if !reportType.Valid() {
		return nil, Invalid("Unknown report type %q", reportType)
	}

	stats, err := a.ComputeWindow(ctx, w)
	if err != nil {
		return nil, err
	}

	report := &AnalyticsReport{
		ReportType:            reportType,
		PeriodDate:            periodDate,
		Jurisdiction:          w.Jurisdiction,
		TotalViolations:       stats.TotalViolations,
		TotalComplaints:       stats.TotalComplaints,
		TotalFines:            stats.TotalFines,
		TotalSuspensions:      stats.TotalSuspensions,
		AvgResponseTimeDays:   stats.AvgResponseTimeDays,
		ComplianceRatePercent: stats.ComplianceRatePercent,
		TopViolationName:      stats.TopViolationName,
		TopViolationCount:     stats.TopViolationCount,
		GeneratedBy:           generatedBy,
		GeneratedAt:           a.now(),
	}

	if err := a.reports.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	a.logger.Info("analytics report persisted",
		slog.String("report_type", string(reportType)),
		slog.String("jurisdiction", w.Jurisdiction),
		slog.Time("period_date", periodDate),
	)

	return report, nil
}

// ListReports retrieves recent persisted reports for a jurisdiction.
func (a *Aggregator) ListReports(ctx context.Context, jurisdiction string, limit int) ([]*AnalyticsReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return a.reports.ListReports(ctx, jurisdiction, limit)
}

// ReportJobPayload is the queue payload for background report generation.
type ReportJobPayload struct {
	ReportType   ReportType `json:"reportType"`
	PeriodDate   time.Time  `json:"periodDate"`
	Jurisdiction string     `json:"jurisdiction,omitempty"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	RequestedBy  uuid.UUID  `json:"requestedBy"`
}

// EnqueueReport schedules background generation of a report. The caller
// gets the queued job back immediately; generation happens on a worker.
func (a *Aggregator) EnqueueReport(ctx context.Context, payload ReportJobPayload) (*Job, error) {
	if !payload.ReportType.Valid() {
		return nil, Invalid("Unknown report type %q", payload.ReportType)
	}
	w := Window{Jurisdiction: payload.Jurisdiction, Start: payload.Start, End: payload.End}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, Internal("Failed to encode report job payload", err)
	}

	job := &Job{
		QueueName: QueueDefault,
		JobType:   JobTypeReportGeneration,
		Payload:   data,
	}
	if err := a.queue.Enqueue(ctx, job, WithMaxAttempts(3)); err != nil {
		return nil, err
	}

	a.logger.Info("report generation enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("report_type", string(payload.ReportType)),
	)

	return job, nil
}

// HandleReportJob processes a report_generation job. Wire it into the
// worker pool as the handler for JobTypeReportGeneration.
func (a *Aggregator) HandleReportJob(ctx context.Context, job *Job) error {
	var payload ReportJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return Invalid("Malformed report job payload: %v", err)
	}

	w := Window{Jurisdiction: payload.Jurisdiction, Start: payload.Start, End: payload.End}
	_, err := a.PersistReport(ctx, payload.ReportType, payload.PeriodDate, w, payload.RequestedBy)
	return err
}

func (a *Aggregator) intStat(ctx context.Context, w Window, name string, fn func(context.Context, Window) (int, error)) int {
	v, err := fn(ctx, w)
	if err != nil {
		a.logger.Warn("statistic query failed",
			slog.String("statistic", name),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return v
}

func (a *Aggregator) floatStat(ctx context.Context, w Window, name string, fn func(context.Context, Window) (float64, error)) float64 {
	v, err := fn(ctx, w)
	if err != nil {
		a.logger.Warn("statistic query failed",
			slog.String("statistic", name),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
