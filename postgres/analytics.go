package postgres

import (
	"context"

	"github.com/kdelacruz/bantay"
)

// Compile-time interface checks
var (
	_ bantay.StatsService  = (*StatsService)(nil)
	_ bantay.ReportService = (*ReportService)(nil)
)

// StatsService implements bantay.StatsService using PostgreSQL aggregate
// queries. An empty window jurisdiction means city-wide.
type StatsService struct {
	db *DB
}

// windowArgs returns the shared (start, end, jurisdiction) argument list.
// Queries test $3 = '' to skip the jurisdiction filter.
func windowArgs(w bantay.Window) []any {
	return []any{w.Start, w.End, w.Jurisdiction}
}

func (s *StatsService) CountViolations(ctx context.Context, w bantay.Window) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM violation_records
		WHERE status IN ('verified', 'resolved')
		AND occurred_at >= $1 AND occurred_at <= $2
		AND ($3 = '' OR jurisdiction = $3)`
	return s.count(ctx, query, windowArgs(w))
}

func (s *StatsService) CountComplaints(ctx context.Context, w bantay.Window) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM complaints
		WHERE status IN ('under_investigation', 'resolved')
		AND filed_at >= $1 AND filed_at <= $2
		AND ($3 = '' OR jurisdiction = $3)`
	return s.count(ctx, query, windowArgs(w))
}

func (s *StatsService) SumFines(ctx context.Context, w bantay.Window) (float64, error) {
	query := `
		SELECT COALESCE(SUM(v.penalty_applied_amount), 0)
		FROM violation_records v
		JOIN violation_rules r ON r.id = v.rule_id
		WHERE v.status = 'resolved'
		AND r.penalty_type = 'fine'
		AND v.occurred_at >= $1 AND v.occurred_at <= $2
		AND ($3 = '' OR v.jurisdiction = $3)`
	var sum float64
	if err := s.db.pool.QueryRow(ctx, query, windowArgs(w)...).Scan(&sum); err != nil {
		return 0, bantay.Internal("Failed to sum fines", err)
	}
	return sum, nil
}

func (s *StatsService) CountSuspensions(ctx context.Context, w bantay.Window) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM violation_records v
		JOIN violation_rules r ON r.id = v.rule_id
		WHERE v.status = 'resolved'
		AND r.penalty_type = 'suspension'
		AND v.occurred_at >= $1 AND v.occurred_at <= $2
		AND ($3 = '' OR v.jurisdiction = $3)`
	return s.count(ctx, query, windowArgs(w))
}

func (s *StatsService) AvgComplaintResponseDays(ctx context.Context, w bantay.Window) (float64, error) {
	query := `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - filed_at)) / 86400), 0)
		FROM complaints
		WHERE status = 'resolved'
		AND resolved_at IS NOT NULL
		AND filed_at >= $1 AND filed_at <= $2
		AND ($3 = '' OR jurisdiction = $3)`
	var avg float64
	if err := s.db.pool.QueryRow(ctx, query, windowArgs(w)...).Scan(&avg); err != nil {
		return 0, bantay.Internal("Failed to average complaint response time", err)
	}
	return avg, nil
}

func (s *StatsService) CountDistinctOffenders(ctx context.Context, w bantay.Window) (int, error) {
	query := `
		SELECT COUNT(DISTINCT driver_id)
		FROM violation_records
		WHERE driver_id IS NOT NULL
		AND status IN ('verified', 'resolved')
		AND occurred_at >= $1 AND occurred_at <= $2
		AND ($3 = '' OR jurisdiction = $3)`
	return s.count(ctx, query, windowArgs(w))
}

func (s *StatsService) TopViolation(ctx context.Context, w bantay.Window) (*bantay.RuleCount, error) {
	query := `
		SELECT r.id, r.code, r.name, COUNT(v.id) AS total
		FROM violation_records v
		JOIN violation_rules r ON r.id = v.rule_id
		WHERE v.occurred_at >= $1 AND v.occurred_at <= $2
		AND ($3 = '' OR v.jurisdiction = $3)
		GROUP BY r.id, r.code, r.name
		ORDER BY total DESC, r.code ASC
		LIMIT 1`
	var rc bantay.RuleCount
	err := s.db.pool.QueryRow(ctx, query, windowArgs(w)...).Scan(&rc.RuleID, &rc.Code, &rc.Name, &rc.Count)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, bantay.Internal("Failed to find top violation", err)
	}
	return &rc, nil
}

func (s *StatsService) count(ctx context.Context, query string, args []any) (int, error) {
	var count int
	if err := s.db.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, bantay.Internal("Failed to compute statistic", err)
	}
	return count, nil
}

// ReportService implements bantay.ReportService using PostgreSQL.
type ReportService struct {
	db *DB
}

func (s *ReportService) CreateReport(ctx context.Context, report *bantay.AnalyticsReport) error {
	query := `
		INSERT INTO analytics_reports (
			report_type, period_date, jurisdiction, total_violations,
			total_complaints, total_fines, total_suspensions,
			avg_response_time_days, compliance_rate_percent,
			top_violation_name, top_violation_count, generated_by, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := s.db.pool.QueryRow(ctx, query,
		report.ReportType,
		report.PeriodDate,
		nullable(report.Jurisdiction),
		report.TotalViolations,
		report.TotalComplaints,
		report.TotalFines,
		report.TotalSuspensions,
		report.AvgResponseTimeDays,
		report.ComplianceRatePercent,
		nullable(report.TopViolationName),
		report.TopViolationCount,
		report.GeneratedBy,
		report.GeneratedAt,
	).Scan(&report.ID)
	if err != nil {
		return bantay.Internal("Failed to create analytics report", err)
	}
	return nil
}

func (s *ReportService) ListReports(ctx context.Context, jurisdiction string, limit int) ([]*bantay.AnalyticsReport, error) {
	query := `
		SELECT id, report_type, period_date, jurisdiction, total_violations,
			total_complaints, total_fines, total_suspensions,
			avg_response_time_days, compliance_rate_percent,
			top_violation_name, top_violation_count, generated_by, generated_at
		FROM analytics_reports
		WHERE ($1 = '' OR jurisdiction = $1)
		ORDER BY generated_at DESC
		LIMIT $2`
	rows, err := s.db.pool.Query(ctx, query, jurisdiction, limit)
	if err != nil {
		return nil, bantay.Internal("Failed to list analytics reports", err)
	}
	defer rows.Close()

	var reports []*bantay.AnalyticsReport
	for rows.Next() {
		var r bantay.AnalyticsReport
		var jur, topName *string
		err := rows.Scan(
			&r.ID, &r.ReportType, &r.PeriodDate, &jur, &r.TotalViolations,
			&r.TotalComplaints, &r.TotalFines, &r.TotalSuspensions,
			&r.AvgResponseTimeDays, &r.ComplianceRatePercent,
			&topName, &r.TopViolationCount, &r.GeneratedBy, &r.GeneratedAt,
		)
		if err != nil {
			return nil, bantay.Internal("Failed to scan analytics report", err)
		}
		r.Jurisdiction = deref(jur)
		r.TopViolationName = deref(topName)
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}
