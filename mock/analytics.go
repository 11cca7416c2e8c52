package mock

import (
	"context"

	"github.com/kdelacruz/bantay"
)

// Compile-time interface checks
var (
	_ bantay.StatsService  = (*StatsService)(nil)
	_ bantay.ReportService = (*ReportService)(nil)
)

// StatsService is a mock implementation of bantay.StatsService.
type StatsService struct {
	CountViolationsFn          func(ctx context.Context, w bantay.Window) (int, error)
	CountComplaintsFn          func(ctx context.Context, w bantay.Window) (int, error)
	SumFinesFn                 func(ctx context.Context, w bantay.Window) (float64, error)
	CountSuspensionsFn         func(ctx context.Context, w bantay.Window) (int, error)
	AvgComplaintResponseDaysFn func(ctx context.Context, w bantay.Window) (float64, error)
	CountDistinctOffendersFn   func(ctx context.Context, w bantay.Window) (int, error)
	TopViolationFn             func(ctx context.Context, w bantay.Window) (*bantay.RuleCount, error)
}

func (s *StatsService) CountViolations(ctx context.Context, w bantay.Window) (int, error) {
	if s.CountViolationsFn != nil {
		return s.CountViolationsFn(ctx, w)
	}
	return 0, nil
}

func (s *StatsService) CountComplaints(ctx context.Context, w bantay.Window) (int, error) {
	if s.CountComplaintsFn != nil {
		return s.CountComplaintsFn(ctx, w)
	}
	return 0, nil
}

func (s *StatsService) SumFines(ctx context.Context, w bantay.Window) (float64, error) {
	if s.SumFinesFn != nil {
		return s.SumFinesFn(ctx, w)
	}
	return 0, nil
}

func (s *StatsService) CountSuspensions(ctx context.Context, w bantay.Window) (int, error) {
	if s.CountSuspensionsFn != nil {
		return s.CountSuspensionsFn(ctx, w)
	}
	return 0, nil
}

func (s *StatsService) AvgComplaintResponseDays(ctx context.Context, w bantay.Window) (float64, error) {
	if s.AvgComplaintResponseDaysFn != nil {
		return s.AvgComplaintResponseDaysFn(ctx, w)
	}
	return 0, nil
}

func (s *StatsService) CountDistinctOffenders(ctx context.Context, w bantay.Window) (int, error) {
	if s.CountDistinctOffendersFn != nil {
		return s.CountDistinctOffendersFn(ctx, w)
	}
	return 0, nil
}

func (s *StatsService) TopViolation(ctx context.Context, w bantay.Window) (*bantay.RuleCount, error) {
	if s.TopViolationFn != nil {
		return s.TopViolationFn(ctx, w)
	}
	return nil, nil
}

// ReportService is a mock implementation of bantay.ReportService.
type ReportService struct {
	CreateReportFn func(ctx context.Context, report *bantay.AnalyticsReport) error
	ListReportsFn  func(ctx context.Context, jurisdiction string, limit int) ([]*bantay.AnalyticsReport, error)

	// CreatedReports records every report passed to CreateReport.
	CreatedReports []*bantay.AnalyticsReport
}

func (s *ReportService) CreateReport(ctx context.Context, report *bantay.AnalyticsReport) error {
	s.CreatedReports = append(s.CreatedReports, report)
	if s.CreateReportFn != nil {
		return s.CreateReportFn(ctx, report)
	}
	return nil
}

func (s *ReportService) ListReports(ctx context.Context, jurisdiction string, limit int) ([]*bantay.AnalyticsReport, error) {
	if s.ListReportsFn != nil {
		return s.ListReportsFn(ctx, jurisdiction, limit)
	}
	return []*bantay.AnalyticsReport{}, nil
}
