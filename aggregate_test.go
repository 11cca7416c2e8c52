package bantay_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/kdelacruz/bantay/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() bantay.Window {
	return bantay.Window{
		Jurisdiction: "Quezon City",
		Start:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
	}
}

func intFn(v int) func(context.Context, bantay.Window) (int, error) {
	return func(context.Context, bantay.Window) (int, error) { return v, nil }
}

func floatFn(v float64) func(context.Context, bantay.Window) (float64, error) {
	return func(context.Context, bantay.Window) (float64, error) { return v, nil }
}

func newAggregator(stats *mock.StatsService, reports *mock.ReportService, queue *mock.Queue) *bantay.Aggregator {
	return bantay.NewAggregator(stats, reports, queue, testLogger())
}

func TestComputeWindow_ComplianceRate(t *testing.T) {
	stats := &mock.StatsService{
		CountViolationsFn:        intFn(10),
		CountDistinctOffendersFn: intFn(6),
	}
	agg := newAggregator(stats, &mock.ReportService{}, &mock.Queue{})

	got, err := agg.ComputeWindow(context.Background(), testWindow())
	require.NoError(t, err)

	// Distinct offenders over qualifying violations, times 100.
	assert.Equal(t, 60.0, got.ComplianceRatePercent)
}

func TestComputeWindow_ZeroViolationsZeroRate(t *testing.T) {
	stats := &mock.StatsService{
		CountViolationsFn:        intFn(0),
		CountDistinctOffendersFn: intFn(4),
	}
	agg := newAggregator(stats, &mock.ReportService{}, &mock.Queue{})

	got, err := agg.ComputeWindow(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.ComplianceRatePercent)
}

func TestComputeWindow_RoundsToTwoDecimals(t *testing.T) {
	stats := &mock.StatsService{
		SumFinesFn:                 floatFn(1234.5678),
		AvgComplaintResponseDaysFn: floatFn(2.71828),
		CountViolationsFn:          intFn(3),
		CountDistinctOffendersFn:   intFn(1),
	}
	agg := newAggregator(stats, &mock.ReportService{}, &mock.Queue{})

	got, err := agg.ComputeWindow(context.Background(), testWindow())
	require.NoError(t, err)

	assert.Equal(t, 1234.57, got.TotalFines)
	assert.Equal(t, 2.72, got.AvgResponseTimeDays)
	assert.Equal(t, 33.33, got.ComplianceRatePercent)
}

func TestComputeWindow_StatFailureDegradesToZero(t *testing.T) {
	stats := &mock.StatsService{
		CountViolationsFn: intFn(5),
		SumFinesFn: func(context.Context, bantay.Window) (float64, error) {
			return 0, bantay.Internal("query timeout", nil)
		},
		CountSuspensionsFn: intFn(2),
	}
	agg := newAggregator(stats, &mock.ReportService{}, &mock.Queue{})

	got, err := agg.ComputeWindow(context.Background(), testWindow())
	require.NoError(t, err)

	// The failing statistic degrades; the rest survive.
	assert.Equal(t, 0.0, got.TotalFines)
	assert.Equal(t, 5, got.TotalViolations)
	assert.Equal(t, 2, got.TotalSuspensions)
}

func TestComputeWindow_TopViolation(t *testing.T) {
	stats := &mock.StatsService{
		TopViolationFn: func(context.Context, bantay.Window) (*bantay.RuleCount, error) {
			return &bantay.RuleCount{Name: "Out-of-line operation", Count: 12}, nil
		},
	}
	agg := newAggregator(stats, &mock.ReportService{}, &mock.Queue{})

	got, err := agg.ComputeWindow(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Equal(t, "Out-of-line operation", got.TopViolationName)
	assert.Equal(t, 12, got.TopViolationCount)
}

func TestComputeWindow_InvalidWindow(t *testing.T) {
	agg := newAggregator(&mock.StatsService{}, &mock.ReportService{}, &mock.Queue{})

	_, err := agg.ComputeWindow(context.Background(), bantay.Window{})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))

	w := testWindow()
	w.End = w.Start.AddDate(0, 0, -1)
	_, err = agg.ComputeWindow(context.Background(), w)
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestPersistReport(t *testing.T) {
	stats := &mock.StatsService{
		CountViolationsFn:        intFn(10),
		CountComplaintsFn:        intFn(4),
		SumFinesFn:               floatFn(7500),
		CountSuspensionsFn:       intFn(2),
		CountDistinctOffendersFn: intFn(6),
	}
	reports := &mock.ReportService{}
	agg := newAggregator(stats, reports, &mock.Queue{})

	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	agg.SetClock(func() time.Time { return now })

	generatedBy := uuid.New()
	periodDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	report, err := agg.PersistReport(context.Background(), bantay.ReportMonthly, periodDate, testWindow(), generatedBy)
	require.NoError(t, err)
	require.Len(t, reports.CreatedReports, 1)

	assert.Equal(t, bantay.ReportMonthly, report.ReportType)
	assert.Equal(t, periodDate, report.PeriodDate)
	assert.Equal(t, "Quezon City", report.Jurisdiction)
	assert.Equal(t, 10, report.TotalViolations)
	assert.Equal(t, 7500.0, report.TotalFines)
	assert.Equal(t, 60.0, report.ComplianceRatePercent)
	assert.Equal(t, generatedBy, report.GeneratedBy)
	assert.Equal(t, now, report.GeneratedAt)
}

func TestPersistReport_InvalidType(t *testing.T) {
	agg := newAggregator(&mock.StatsService{}, &mock.ReportService{}, &mock.Queue{})

	_, err := agg.PersistReport(context.Background(), "hourly", time.Now(), testWindow(), uuid.New())
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestEnqueueReport(t *testing.T) {
	queue := &mock.Queue{}
	agg := newAggregator(&mock.StatsService{}, &mock.ReportService{}, queue)

	w := testWindow()
	payload := bantay.ReportJobPayload{
		ReportType:   bantay.ReportWeekly,
		PeriodDate:   w.Start,
		Jurisdiction: w.Jurisdiction,
		Start:        w.Start,
		End:          w.End,
		RequestedBy:  uuid.New(),
	}

	job, err := agg.EnqueueReport(context.Background(), payload)
	require.NoError(t, err)
	require.Len(t, queue.Enqueued, 1)

	assert.Equal(t, bantay.QueueDefault, job.QueueName)
	assert.Equal(t, bantay.JobTypeReportGeneration, job.JobType)

	var decoded bantay.ReportJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &decoded))
	assert.Equal(t, payload.ReportType, decoded.ReportType)
	assert.Equal(t, payload.Jurisdiction, decoded.Jurisdiction)
	assert.Equal(t, payload.RequestedBy, decoded.RequestedBy)
}

func TestEnqueueReport_Invalid(t *testing.T) {
	agg := newAggregator(&mock.StatsService{}, &mock.ReportService{}, &mock.Queue{})

	_, err := agg.EnqueueReport(context.Background(), bantay.ReportJobPayload{ReportType: "hourly"})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))

	_, err = agg.EnqueueReport(context.Background(), bantay.ReportJobPayload{ReportType: bantay.ReportDaily})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestHandleReportJob(t *testing.T) {
	stats := &mock.StatsService{CountViolationsFn: intFn(3)}
	reports := &mock.ReportService{}
	agg := newAggregator(stats, reports, &mock.Queue{})

	w := testWindow()
	data, err := json.Marshal(bantay.ReportJobPayload{
		ReportType:   bantay.ReportDaily,
		PeriodDate:   w.Start,
		Jurisdiction: w.Jurisdiction,
		Start:        w.Start,
		End:          w.End,
		RequestedBy:  uuid.New(),
	})
	require.NoError(t, err)

	job := &bantay.Job{ID: uuid.New(), JobType: bantay.JobTypeReportGeneration, Payload: data}
	require.NoError(t, agg.HandleReportJob(context.Background(), job))

	require.Len(t, reports.CreatedReports, 1)
	assert.Equal(t, 3, reports.CreatedReports[0].TotalViolations)
}

func TestHandleReportJob_MalformedPayload(t *testing.T) {
	agg := newAggregator(&mock.StatsService{}, &mock.ReportService{}, &mock.Queue{})

	job := &bantay.Job{ID: uuid.New(), Payload: []byte("not json")}
	err := agg.HandleReportJob(context.Background(), job)
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestListReports_ClampsLimit(t *testing.T) {
	var gotLimit int
	reports := &mock.ReportService{
		ListReportsFn: func(ctx context.Context, jurisdiction string, limit int) ([]*bantay.AnalyticsReport, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	agg := newAggregator(&mock.StatsService{}, reports, &mock.Queue{})

	_, err := agg.ListReports(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit)

	_, err = agg.ListReports(context.Background(), "", 500)
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit)

	_, err = agg.ListReports(context.Background(), "", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
}
