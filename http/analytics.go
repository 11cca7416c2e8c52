package http

import (
	"log/slog"
	"time"

	"github.com/kdelacruz/bantay"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleComputeStats(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	w, err := windowFromQuery(c)
	if err != nil {
		return err
	}

	stats, err := s.aggregator.ComputeWindow(ctx, w)
	if err != nil {
		return err
	}

	return RespondOK(c, stats)
}

// GenerateReportRequest is the request payload for generating a report.
type GenerateReportRequest struct {
	ReportType   string `json:"report_type" validate:"required,oneof=daily weekly monthly quarterly yearly"`
	PeriodDate   string `json:"period_date" validate:"required"`
	Jurisdiction string `json:"jurisdiction" validate:"omitempty,max=100"`
	Start        string `json:"start" validate:"required"`
	End          string `json:"end" validate:"required"`
}

func (req *GenerateReportRequest) parse() (bantay.ReportType, time.Time, bantay.Window, error) {
	periodDate, err := parseDate(req.PeriodDate)
	if err != nil {
		return "", time.Time{}, bantay.Window{}, bantay.Invalid("Invalid period_date, expected YYYY-MM-DD")
	}
	start, err := parseDate(req.Start)
	if err != nil {
		return "", time.Time{}, bantay.Window{}, bantay.Invalid("Invalid start, expected RFC 3339 timestamp or YYYY-MM-DD")
	}
	end, err := parseDate(req.End)
	if err != nil {
		return "", time.Time{}, bantay.Window{}, bantay.Invalid("Invalid end, expected RFC 3339 timestamp or YYYY-MM-DD")
	}

	w := bantay.Window{
		Jurisdiction: req.Jurisdiction,
		Start:        start,
		End:          end,
	}
	return bantay.ReportType(req.ReportType), periodDate, w, nil
}

func (s *Server) handleGenerateReport(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	officer, err := requireOfficer(c)
	if err != nil {
		return err
	}

	var req GenerateReportRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reportType, periodDate, w, err := req.parse()
	if err != nil {
		return err
	}

	report, err := s.aggregator.PersistReport(ctx, reportType, periodDate, w, officer.ID)
	if err != nil {
		return err
	}

	return RespondCreated(c, report)
}

func (s *Server) handleEnqueueReport(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	officer, err := requireOfficer(c)
	if err != nil {
		return err
	}

	var req GenerateReportRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reportType, periodDate, w, err := req.parse()
	if err != nil {
		return err
	}

	job, err := s.aggregator.EnqueueReport(ctx, bantay.ReportJobPayload{
		ReportType:   reportType,
		PeriodDate:   periodDate,
		Jurisdiction: w.Jurisdiction,
		Start:        w.Start,
		End:          w.End,
		RequestedBy:  officer.ID,
	})
	if err != nil {
		return err
	}

	s.log(c).Info("report generation queued",
		slog.String("job_id", job.ID.String()),
		slog.String("report_type", string(reportType)),
	)

	return RespondOK(c, map[string]any{
		"job_id": job.ID.String(),
		"status": "queued",
	})
}

func (s *Server) handleListReports(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	jurisdiction := c.QueryParam("jurisdiction")
	limit := queryInt(c, "limit", 20)

	reports, err := s.aggregator.ListReports(ctx, jurisdiction, limit)
	if err != nil {
		return err
	}

	return RespondOK(c, map[string]any{
		"reports": reports,
		"total":   len(reports),
	})
}

func (s *Server) handleGetReportJob(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	jobID, err := requireUUIDParam(c, "jobId")
	if err != nil {
		return err
	}

	job, err := s.queue.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	return RespondOK(c, map[string]any{
		"job_id":       job.ID.String(),
		"status":       string(job.Status),
		"error":        job.ErrorMessage,
		"created_at":   job.CreatedAt,
		"completed_at": job.CompletedAt,
	})
}

// windowFromQuery builds a statistics window from query parameters.
func windowFromQuery(c echo.Context) (bantay.Window, error) {
	start, err := queryTime(c, "start")
	if err != nil {
		return bantay.Window{}, err
	}
	end, err := queryTime(c, "end")
	if err != nil {
		return bantay.Window{}, err
	}
	if start == nil || end == nil {
		return bantay.Window{}, bantay.Invalid("start and end are required")
	}

	return bantay.Window{
		Jurisdiction: c.QueryParam("jurisdiction"),
		Start:        *start,
		End:          *end,
	}, nil
}

// parseDate accepts an RFC 3339 timestamp or a plain date.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
