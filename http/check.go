package http

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/labstack/echo/v4"
)

// parseCheckInput builds a CheckInput from a multipart form. Checks come in
// as forms rather than JSON because the evidence file rides along in the
// same request.
func parseCheckInput(c echo.Context) (bantay.CheckInput, *multipart.FileHeader, error) {
	var in bantay.CheckInput

	if v := c.FormValue("checked_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return in, nil, bantay.Invalid("Invalid checked_at, expected RFC 3339 timestamp")
		}
		in.CheckedAt = t
	}

	in.Jurisdiction = c.FormValue("jurisdiction")
	in.Location = c.FormValue("location")
	in.CheckType = c.FormValue("check_type")
	in.Status = bantay.CheckStatus(c.FormValue("status"))
	in.Notes = c.FormValue("notes")

	if v := c.FormValue("latitude"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, nil, bantay.Invalid("Invalid latitude")
		}
		in.Latitude = &lat
	}
	if v := c.FormValue("longitude"); v != "" {
		lng, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, nil, bantay.Invalid("Invalid longitude")
		}
		in.Longitude = &lng
	}

	// A rule_id in the form attaches a violation to the check.
	if ruleIDStr := c.FormValue("rule_id"); ruleIDStr != "" {
		ruleID, err := parseUUID(ruleIDStr)
		if err != nil {
			return in, nil, err
		}

		violation := &bantay.ViolationInput{
			RuleID:        ruleID,
			VehicleNumber: c.FormValue("vehicle_number"),
			Details:       c.FormValue("details"),
			EvidenceType:  bantay.EvidenceKind(c.FormValue("evidence_type")),
		}

		if violation.DriverID, err = uuidOrNil(c.FormValue("driver_id")); err != nil {
			return in, nil, err
		}
		if violation.OperatorID, err = uuidOrNil(c.FormValue("operator_id")); err != nil {
			return in, nil, err
		}
		if v := c.FormValue("fine_amount"); v != "" {
			amount, err := strconv.ParseFloat(v, 64)
			if err != nil || amount < 0 {
				return in, nil, bantay.Invalid("Invalid fine_amount")
			}
			violation.FineAmount = amount
		}

		in.Violation = violation
	}

	file, err := c.FormFile("evidence")
	if err != nil {
		// No file attached; the workflow treats that as valid.
		return in, nil, nil
	}
	return in, file, nil
}

func (s *Server) handleCreateCheck(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	in, file, err := parseCheckInput(c)
	if err != nil {
		return err
	}

	if file != nil {
		src, err := file.Open()
		if err != nil {
			return bantay.Internal("Failed to read uploaded file", err)
		}
		defer src.Close()

		in.EvidenceFile = &bantay.EvidenceFile{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Size:        file.Size,
			Content:     src,
		}
	}

	check, err := s.workflow.RecordCheck(ctx, in)
	if err != nil {
		return err
	}

	return RespondCreated(c, check)
}

func (s *Server) handleListChecks(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	offset, limit := pagination(c)
	filter := bantay.CheckFilter{
		Offset: offset,
		Limit:  limit,
	}

	var err error
	if filter.OfficerID, err = queryUUID(c, "officer_id"); err != nil {
		return err
	}
	if jurisdiction := c.QueryParam("jurisdiction"); jurisdiction != "" {
		filter.Jurisdiction = &jurisdiction
	}
	if st := c.QueryParam("status"); st != "" {
		status := bantay.CheckStatus(st)
		if !status.Valid() {
			return bantay.Invalid("Unknown check status %q", st)
		}
		filter.Status = &status
	}
	if filter.CheckedFrom, err = queryTime(c, "checked_from"); err != nil {
		return err
	}
	if filter.CheckedTo, err = queryTime(c, "checked_to"); err != nil {
		return err
	}

	checks, total, err := s.workflow.ListChecks(ctx, filter)
	if err != nil {
		return err
	}

	return RespondList(c, checks, total, offset, limit)
}

func (s *Server) handleGetCheck(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	checkID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	check, err := s.workflow.GetCheck(ctx, checkID)
	if err != nil {
		return err
	}

	return RespondOK(c, check)
}

func (s *Server) handleUpdateCheck(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	checkID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	in, file, err := parseCheckInput(c)
	if err != nil {
		return err
	}

	if file != nil {
		src, err := file.Open()
		if err != nil {
			return bantay.Internal("Failed to read uploaded file", err)
		}
		defer src.Close()

		in.EvidenceFile = &bantay.EvidenceFile{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Size:        file.Size,
			Content:     src,
		}
	}

	check, err := s.workflow.UpdateCheck(ctx, checkID, in)
	if err != nil {
		return err
	}

	return RespondOK(c, check)
}

func (s *Server) handleDeleteCheck(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	checkID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.workflow.DeleteCheck(ctx, checkID); err != nil {
		return err
	}

	s.log(c).Info("check deleted", slog.String("check_id", checkID.String()))

	return RespondNoContent(c)
}

// Compliance violation review handlers

func (s *Server) handleGetViolation(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	violationID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	violation, err := s.workflow.GetViolation(ctx, violationID)
	if err != nil {
		return err
	}

	return RespondOK(c, violation)
}

// ReviewViolationRequest carries the optional note for a review transition.
type ReviewViolationRequest struct {
	Note string `json:"note" validate:"omitempty,max=2000"`
}

// handleViolationTransition applies one of the workflow review transitions
// to the violation in the route.
func (s *Server) handleViolationTransition(c echo.Context, fn func(context.Context, uuid.UUID, string) (*bantay.ComplianceViolation, error)) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	violationID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ReviewViolationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	violation, err := fn(ctx, violationID, req.Note)
	if err != nil {
		return err
	}

	s.log(c).Info("violation status updated",
		slog.String("violation_id", violation.ID.String()),
		slog.String("status", string(violation.Status)),
	)

	return RespondOK(c, violation)
}

func (s *Server) handleVerifyViolation(c echo.Context) error {
	return s.handleViolationTransition(c, s.workflow.VerifyViolation)
}

func (s *Server) handleAppealViolation(c echo.Context) error {
	return s.handleViolationTransition(c, s.workflow.AppealViolation)
}

func (s *Server) handleResolveViolation(c echo.Context) error {
	return s.handleViolationTransition(c, s.workflow.ResolveViolation)
}

func (s *Server) handleDismissViolation(c echo.Context) error {
	return s.handleViolationTransition(c, s.workflow.DismissViolation)
}
