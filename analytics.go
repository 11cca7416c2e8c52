package bantay

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Window is a jurisdiction plus date range over which statistics are
// computed. End is inclusive.
type Window struct {
	Jurisdiction string    `json:"jurisdiction"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

// Validate checks that the window is well formed.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return Invalid("Window start and end are required")
	}
	if w.End.Before(w.Start) {
		return Invalid("Window end must not be before start")
	}
	return nil
}

// WindowStats holds the statistics computed over a window.
//
// ComplianceRatePercent is the historical formula carried over from the
// original back office: distinct offending drivers divided by qualifying
// violations, times 100. It is a distinct-offender ratio, not a measure
// of rule adherence; downstream consumers depend on the literal behavior.
type WindowStats struct {
	Window                Window  `json:"window"`
	TotalViolations       int     `json:"totalViolations"`
	TotalComplaints       int     `json:"totalComplaints"`
	TotalFines            float64 `json:"totalFines"`
	TotalSuspensions      int     `json:"totalSuspensions"`
	AvgResponseTimeDays   float64 `json:"avgResponseTimeDays"`
	ComplianceRatePercent float64 `json:"complianceRatePercent"`
	TopViolationName      string  `json:"topViolationName"`
	TopViolationCount     int     `json:"topViolationCount"`
}

// RuleCount is a rule paired with how many records reference it in a window.
type RuleCount struct {
	RuleID uuid.UUID `json:"ruleId"`
	Code   string    `json:"code"`
	Name   string    `json:"name"`
	Count  int       `json:"count"`
}

// ReportType represents the cadence of a persisted analytics report.
type ReportType string

const (
	ReportDaily     ReportType = "daily"
	ReportWeekly    ReportType = "weekly"
	ReportMonthly   ReportType = "monthly"
	ReportQuarterly ReportType = "quarterly"
	ReportYearly    ReportType = "yearly"
)

// Valid reports whether the report type is a known value.
func (t ReportType) Valid() bool {
	switch t {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportQuarterly, ReportYearly:
		return true
	default:
		return false
	}
}

// AnalyticsReport is a persisted point-in-time snapshot of window
// statistics. Write-once: re-generation always inserts a new row.
type AnalyticsReport struct {
	ID                    uuid.UUID  `json:"id"`
	ReportType            ReportType `json:"reportType"`
	PeriodDate            time.Time  `json:"periodDate"`
	Jurisdiction          string     `json:"jurisdiction,omitempty"`
	TotalViolations       int        `json:"totalViolations"`
	TotalComplaints       int        `json:"totalComplaints"`
	TotalFines            float64    `json:"totalFines"`
	TotalSuspensions      int        `json:"totalSuspensions"`
	AvgResponseTimeDays   float64    `json:"avgResponseTimeDays"`
	ComplianceRatePercent float64    `json:"complianceRatePercent"`
	TopViolationName      string     `json:"topViolationName"`
	TopViolationCount     int        `json:"topViolationCount"`
	GeneratedBy           uuid.UUID  `json:"generatedBy"`
	GeneratedAt           time.Time  `json:"generatedAt"`
}

// StatsService defines the aggregate sub-queries the analytics engine
// composes into a window computation. Each method answers one statistic;
// the engine tolerates individual failures.
type StatsService interface {
	// CountViolations counts verified or resolved records occurring in the window.
	CountViolations(ctx context.Context, w Window) (int, error)

	// CountComplaints counts resolved or under-investigation complaints filed in the window.
	CountComplaints(ctx context.Context, w Window) (int, error)

	// SumFines sums snapshotted penalty amounts over resolved records of fine-type rules.
	SumFines(ctx context.Context, w Window) (float64, error)

	// CountSuspensions counts resolved records of suspension-type rules.
	CountSuspensions(ctx context.Context, w Window) (int, error)

	// AvgComplaintResponseDays averages resolution time in days over
	// resolved complaints with a resolution date. Returns 0 when none qualify.
	AvgComplaintResponseDays(ctx context.Context, w Window) (float64, error)

	// CountDistinctOffenders counts distinct driver IDs among the records
	// counted by CountViolations.
	CountDistinctOffenders(ctx context.Context, w Window) (int, error)

	// TopViolation returns the rule with the most records in the window,
	// regardless of record status. Ties break on the lowest rule code.
	// Returns nil when the window has no records.
	TopViolation(ctx context.Context, w Window) (*RuleCount, error)
}

// ReportService defines operations for persisted analytics reports.
type ReportService interface {
	// CreateReport inserts a new report snapshot.
	CreateReport(ctx context.Context, report *AnalyticsReport) error

	// ListReports retrieves recent reports for a jurisdiction, newest first.
	ListReports(ctx context.Context, jurisdiction string, limit int) ([]*AnalyticsReport, error)
}
