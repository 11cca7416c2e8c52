package bantay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// ComplianceWorkflow manages the field compliance-check lifecycle: a check,
// its optional violation, and the violation's evidence trail. All store
// writes for one save go through a single CheckService call so the graph is
// persisted atomically.
type ComplianceWorkflow struct {
	checks  CheckService
	rules   RuleService
	storage FileStorage
	logger  *slog.Logger

	now func() time.Time
}

// NewComplianceWorkflow creates a compliance workflow engine.
func NewComplianceWorkflow(checks CheckService, rules RuleService, storage FileStorage, logger *slog.Logger) *ComplianceWorkflow {
	return &ComplianceWorkflow{
		checks:  checks,
		rules:   rules,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the workflow clock. Intended for tests.
func (w *ComplianceWorkflow) SetClock(now func() time.Time) {
	w.now = now
}

// CheckInput describes a compliance check submission.
type CheckInput struct {
	CheckedAt    time.Time
	Jurisdiction string
	Location     string
	Latitude     *float64
	Longitude    *float64
	CheckType    string
	Status       CheckStatus
	Notes        string

	// Violation, when present, attaches a violation to the check. On
	// update, a nil Violation removes any existing violation and its
	// evidence.
	Violation *ViolationInput

	// EvidenceFile, when present, is stored and attached to the violation.
	EvidenceFile *EvidenceFile
}

// ViolationInput describes a violation observed during a check.
type ViolationInput struct {
	RuleID        uuid.UUID
	DriverID      *uuid.UUID
	OperatorID    *uuid.UUID
	VehicleNumber string
	Details       string
	EvidenceType  EvidenceKind
	FineAmount    float64
}

// EvidenceFile is an uploaded evidence attachment.
type EvidenceFile struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// RecordCheck creates a compliance check. When a violation is attached it
// is created in reported status together with its evidence: the uploaded
// file (if any) and, whenever both coordinates are present, an automatic
// location-kind evidence row. A save with GPS data therefore always yields
// at least one evidence row even without a file.
//
// Validation failures return EINVALID before any side effect; the store
// write is a single transaction.
func (w *ComplianceWorkflow) RecordCheck(ctx context.Context, in CheckInput) (*ComplianceCheck, error) {
	officer := OfficerFromContext(ctx)
	if officer == nil {
		return nil, Unauthorized("Officer identity required")
	}
	if err := w.validateInput(&in); err != nil {
		return nil, err
	}

	now := w.now()
	checkedAt := in.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = now
	}

	check := &ComplianceCheck{
		OfficerID:    officer.ID,
		CheckedAt:    checkedAt,
		Jurisdiction: in.Jurisdiction,
		Location:     in.Location,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		CheckType:    in.CheckType,
		Status:       in.Status,
		Notes:        in.Notes,
	}

	if in.Violation != nil {
		violation, err := w.buildViolation(ctx, officer, &in, now)
		if err != nil {
			return nil, err
		}
		check.Violation = violation
	}

	backoff := retry.WithMaxRetries(codeRetryAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		check.Code = GenerateCode(CodePrefixCheck, w.now())
		if err := w.checks.CreateCheck(ctx, check); err != nil {
			if IsErrorCode(err, ECONFLICT) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("compliance check recorded",
		slog.String("check_code", check.Code),
		slog.String("officer_id", officer.ID.String()),
		slog.Bool("has_violation", check.Violation != nil),
	)

	return check, nil
}

// UpdateCheck updates a check owned by the current officer. A present
// violation is upserted with evidence handling identical to create; an
// absent violation removes the existing violation and permanently erases
// its evidence history.
func (w *ComplianceWorkflow) UpdateCheck(ctx context.Context, checkID uuid.UUID, in CheckInput) (*ComplianceCheck, error) {
	officer := OfficerFromContext(ctx)
	if officer == nil {
		return nil, Unauthorized("Officer identity required")
	}
	if err := w.validateInput(&in); err != nil {
		return nil, err
	}

	existing, err := w.checks.FindCheckByID(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if existing.OfficerID != officer.ID {
		return nil, Forbidden("Checks can only be edited by the recording officer")
	}

	now := w.now()
	checkedAt := in.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = existing.CheckedAt
	}

	upd := CheckUpdate{
		CheckedAt:    &checkedAt,
		Jurisdiction: &in.Jurisdiction,
		Location:     &in.Location,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		CheckType:    &in.CheckType,
		Status:       &in.Status,
		Notes:        &in.Notes,
	}

	if in.Violation != nil {
		violation, err := w.buildViolation(ctx, officer, &in, now)
		if err != nil {
			return nil, err
		}
		upd.Violation = violation
	} else {
		upd.RemoveViolation = true
	}

	check, err := w.checks.UpdateCheck(ctx, checkID, upd)
	if err != nil {
		return nil, err
	}

	w.logger.Info("compliance check updated",
		slog.String("check_code", check.Code),
		slog.Bool("violation_removed", upd.RemoveViolation),
	)

	return check, nil
}

// DeleteCheck removes a check owned by the current officer. The violation
// and evidence cascade with it; no orphan survives the parent.
func (w *ComplianceWorkflow) DeleteCheck(ctx context.Context, checkID uuid.UUID) error {
	officer := OfficerFromContext(ctx)
	if officer == nil {
		return Unauthorized("Officer identity required")
	}

	existing, err := w.checks.FindCheckByID(ctx, checkID)
	if err != nil {
		return err
	}
	if existing.OfficerID != officer.ID {
		return Forbidden("Checks can only be deleted by the recording officer")
	}

	return w.checks.DeleteCheck(ctx, checkID)
}

// GetCheck retrieves a check with its nested violation and evidence.
// Non-admin officers may only read their own checks.
func (w *ComplianceWorkflow) GetCheck(ctx context.Context, checkID uuid.UUID) (*ComplianceCheck, error) {
	officer := OfficerFromContext(ctx)
	if officer == nil {
		return nil, Unauthorized("Officer identity required")
	}

	check, err := w.checks.FindCheckByID(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if check.OfficerID != officer.ID && !officer.IsAdmin() {
		return nil, Forbidden("Checks can only be viewed by the recording officer")
	}
	return check, nil
}

// ListChecks retrieves checks matching the filter. Non-admin officers are
// always scoped to their own checks regardless of the filter.
func (w *ComplianceWorkflow) ListChecks(ctx context.Context, filter CheckFilter) ([]*ComplianceCheck, int, error) {
	officer := OfficerFromContext(ctx)
	if officer == nil {
		return nil, 0, Unauthorized("Officer identity required")
	}
	if !officer.IsAdmin() {
		filter.OfficerID = &officer.ID
	}
	return w.checks.FindChecks(ctx, filter)
}

// GetViolation retrieves a compliance violation with its evidence.
func (w *ComplianceWorkflow) GetViolation(ctx context.Context, violationID uuid.UUID) (*ComplianceViolation, error) {
	if OfficerFromContext(ctx) == nil {
		return nil, Unauthorized("Officer identity required")
	}
	return w.checks.FindViolationByID(ctx, violationID)
}

// VerifyViolation advances a reported violation to verified.
func (w *ComplianceWorkflow) VerifyViolation(ctx context.Context, violationID uuid.UUID, note string) (*ComplianceViolation, error) {
	return w.reviewViolation(ctx, violationID, ComplianceViolationVerified, note)
}

// AppealViolation advances a reported violation to appealed.
func (w *ComplianceWorkflow) AppealViolation(ctx context.Context, violationID uuid.UUID, note string) (*ComplianceViolation, error) {
	return w.reviewViolation(ctx, violationID, ComplianceViolationAppealed, note)
}

// ResolveViolation closes a verified or appealed violation as resolved.
func (w *ComplianceWorkflow) ResolveViolation(ctx context.Context, violationID uuid.UUID, note string) (*ComplianceViolation, error) {
	return w.reviewViolation(ctx, violationID, ComplianceViolationResolved, note)
}

// DismissViolation closes a verified or appealed violation as dismissed.
func (w *ComplianceWorkflow) DismissViolation(ctx context.Context, violationID uuid.UUID, note string) (*ComplianceViolation, error) {
	return w.reviewViolation(ctx, violationID, ComplianceViolationDismissed, note)
}

func (w *ComplianceWorkflow) reviewViolation(ctx context.Context, violationID uuid.UUID, status ComplianceViolationStatus, note string) (*ComplianceViolation, error) {
	officer := OfficerFromContext(ctx)
	if officer == nil {
		return nil, Unauthorized("Officer identity required")
	}
	return w.checks.UpdateViolationStatus(ctx, violationID, status, officer.ID, note)
}

// validateInput performs the up-front validation that must happen before
// any side effect.
func (w *ComplianceWorkflow) validateInput(in *CheckInput) error {
	if !in.Status.Valid() {
		return Invalid("Unknown check status %q", in.Status)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return Invalid("Latitude and longitude must be supplied together")
	}
	if in.EvidenceFile != nil {
		if in.Violation == nil {
			return Invalid("Evidence requires a violation")
		}
		if in.EvidenceFile.Size > MaxUploadSize {
			return Invalid("Evidence file exceeds the %dMB limit", MaxUploadSize/(1024*1024))
		}
		if !IsAcceptedComplianceEvidenceType(in.EvidenceFile.ContentType) {
			return Invalid("Content type %q is not accepted for evidence", in.EvidenceFile.ContentType)
		}
	}
	return nil
}

// buildViolation assembles the violation row plus its evidence. The file
// upload happens here, before the transactional store write; an upload
// failure therefore aborts the save with no rows written.
func (w *ComplianceWorkflow) buildViolation(ctx context.Context, officer *Officer, in *CheckInput, now time.Time) (*ComplianceViolation, error) {
	vin := in.Violation
	if _, err := w.rules.FindRuleByID(ctx, vin.RuleID); err != nil {
		return nil, err
	}

	violation := &ComplianceViolation{
		RuleID:        vin.RuleID,
		DriverID:      vin.DriverID,
		OperatorID:    vin.OperatorID,
		VehicleNumber: vin.VehicleNumber,
		Details:       vin.Details,
		EvidenceType:  vin.EvidenceType,
		FineAmount:    vin.FineAmount,
		Status:        ComplianceViolationReported,
		ReportedBy:    officer.ID,
		ReportedAt:    now,
	}

	if in.EvidenceFile != nil {
		locator, err := w.uploadEvidence(ctx, in.EvidenceFile)
		if err != nil {
			return nil, err
		}
		kind := vin.EvidenceType
		if !kind.Valid() || kind == EvidenceLocation {
			kind = kindForContentType(in.EvidenceFile.ContentType)
		}
		violation.Evidence = append(violation.Evidence, &Evidence{
			Kind:          kind,
			Locator:       locator,
			LocationLabel: in.Location,
			CapturedBy:    officer.ID,
			CapturedAt:    now,
		})
	}

	// GPS data always produces a location evidence row, independent of
	// whether a file was uploaded.
	if in.Latitude != nil && in.Longitude != nil {
		violation.Evidence = append(violation.Evidence, &Evidence{
			Kind:          EvidenceLocation,
			Latitude:      in.Latitude,
			Longitude:     in.Longitude,
			LocationLabel: in.Location,
			CapturedBy:    officer.ID,
			CapturedAt:    now,
		})
	}

	return violation, nil
}

func (w *ComplianceWorkflow) uploadEvidence(ctx context.Context, file *EvidenceFile) (string, error) {
	key := fmt.Sprintf("evidence/%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	locator, err := w.storage.Upload(ctx, key, file.Content, file.ContentType)
	if err != nil {
		return "", Internal("Failed to store evidence file", err)
	}
	return locator, nil
}

// kindForContentType maps a MIME type to the evidence kind used when the
// officer did not pick one explicitly.
func kindForContentType(contentType string) EvidenceKind {
	switch contentType {
	case "video/mp4":
		return EvidenceVideo
	case "application/pdf", "application/msword":
		return EvidenceDocument
	default:
		return EvidencePhoto
	}
}
