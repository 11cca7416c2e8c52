package http

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/labstack/echo/v4"
)

// ApplyPenaltyRequest is the request payload for applying a rule to an incident.
type ApplyPenaltyRequest struct {
	DriverID        *string `json:"driver_id" validate:"omitempty,uuid"`
	OperatorID      *string `json:"operator_id" validate:"omitempty,uuid"`
	VehicleNumber   string  `json:"vehicle_number" validate:"omitempty,max=50"`
	RouteRef        string  `json:"route_ref" validate:"omitempty,max=100"`
	Location        string  `json:"location" validate:"omitempty,max=500"`
	Jurisdiction    string  `json:"jurisdiction" validate:"omitempty,max=100"`
	OccurredAt      string  `json:"occurred_at" validate:"omitempty"`
	MisuseType      string  `json:"misuse_type" validate:"omitempty,max=100"`
	MisuseDetails   string  `json:"misuse_details" validate:"omitempty,max=2000"`
	WitnessDetails  string  `json:"witness_details" validate:"omitempty,max=2000"`
	EvidenceLocator string  `json:"evidence_locator" validate:"omitempty,max=1000"`
}

func (s *Server) handleApplyPenalty(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	officer, err := requireOfficer(c)
	if err != nil {
		return err
	}

	ruleID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ApplyPenaltyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := bantay.PenaltyInput{
		VehicleNumber:   req.VehicleNumber,
		RouteRef:        req.RouteRef,
		Location:        req.Location,
		Jurisdiction:    req.Jurisdiction,
		ReportedBy:      officer.ID,
		MisuseType:      req.MisuseType,
		MisuseDetails:   req.MisuseDetails,
		WitnessDetails:  req.WitnessDetails,
		EvidenceLocator: req.EvidenceLocator,
	}

	if req.DriverID != nil {
		id, err := parseUUID(*req.DriverID)
		if err != nil {
			return err
		}
		in.DriverID = &id
	}
	if req.OperatorID != nil {
		id, err := parseUUID(*req.OperatorID)
		if err != nil {
			return err
		}
		in.OperatorID = &id
	}
	if req.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return bantay.Invalid("Invalid occurred_at, expected RFC 3339 timestamp")
		}
		in.OccurredAt = t
	}

	record, err := s.penalty.ApplyPenalty(ctx, ruleID, in)
	if err != nil {
		return err
	}

	return RespondCreated(c, record)
}

func (s *Server) handleListRecords(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	offset, limit := pagination(c)
	filter := bantay.RecordFilter{
		Offset: offset,
		Limit:  limit,
	}

	var err error
	if filter.RuleID, err = queryUUID(c, "rule_id"); err != nil {
		return err
	}
	if filter.DriverID, err = queryUUID(c, "driver_id"); err != nil {
		return err
	}
	if filter.OperatorID, err = queryUUID(c, "operator_id"); err != nil {
		return err
	}
	if jurisdiction := c.QueryParam("jurisdiction"); jurisdiction != "" {
		filter.Jurisdiction = &jurisdiction
	}
	if st := c.QueryParam("status"); st != "" {
		status := bantay.RecordStatus(st)
		if !status.Valid() {
			return bantay.Invalid("Unknown record status %q", st)
		}
		filter.Status = &status
	}
	if filter.OccurredFrom, err = queryTime(c, "occurred_from"); err != nil {
		return err
	}
	if filter.OccurredTo, err = queryTime(c, "occurred_to"); err != nil {
		return err
	}

	records, total, err := s.recordService.FindRecords(ctx, filter)
	if err != nil {
		return err
	}

	return RespondList(c, records, total, offset, limit)
}

func (s *Server) handleGetRecord(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	recordID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	record, err := s.recordService.FindRecordByID(ctx, recordID)
	if err != nil {
		return err
	}

	return RespondOK(c, record)
}

// UpdateRecordStatusRequest is the request payload for advancing a record status.
type UpdateRecordStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=verified resolved dismissed"`
	ResolutionNotes string `json:"resolution_notes" validate:"omitempty,max=2000"`
}

func (s *Server) handleUpdateRecordStatus(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	recordID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateRecordStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	record, err := s.recordService.UpdateRecordStatus(ctx, recordID, bantay.RecordStatus(req.Status), req.ResolutionNotes)
	if err != nil {
		return err
	}

	s.log(c).Info("record status updated",
		slog.String("record_id", record.ID.String()),
		slog.String("status", string(record.Status)),
	)

	return RespondOK(c, record)
}

// uuidOrNil parses an optional UUID form value.
func uuidOrNil(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseUUID(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
