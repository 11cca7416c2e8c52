package bantay

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ComplianceCheck is a field inspection event recorded by an enforcement
// officer. A check owns at most one compliance violation.
type ComplianceCheck struct {
	ID           uuid.UUID   `json:"id"`
	Code         string      `json:"code"`
	OfficerID    uuid.UUID   `json:"officerId"`
	CheckedAt    time.Time   `json:"checkedAt"`
	Jurisdiction string      `json:"jurisdiction,omitempty"`
	Location     string      `json:"location,omitempty"`
	Latitude     *float64    `json:"latitude,omitempty"`
	Longitude    *float64    `json:"longitude,omitempty"`
	CheckType    string      `json:"checkType,omitempty"`
	Status       CheckStatus `json:"status"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	// Joined fields (populated by some queries)
	Violation *ComplianceViolation `json:"violation,omitempty"`
}

// HasCoordinates returns true if both latitude and longitude are set.
func (c *ComplianceCheck) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// CheckStatus is the outcome of a compliance check as recorded by the
// officer. The engine does not derive it from the attached violation; an
// officer may record any outcome regardless of attachments.
type CheckStatus string

const (
	CheckStatusCompliant     CheckStatus = "compliant"
	CheckStatusNonCompliant  CheckStatus = "non_compliant"
	CheckStatusWarningIssued CheckStatus = "warning_issued"
	CheckStatusFineIssued    CheckStatus = "fine_issued"
)

// Valid reports whether the status is a known value.
func (s CheckStatus) Valid() bool {
	switch s {
	case CheckStatusCompliant, CheckStatusNonCompliant, CheckStatusWarningIssued, CheckStatusFineIssued:
		return true
	default:
		return false
	}
}

// ComplianceViolation is a violation attached to exactly one compliance
// check. Owns zero or more evidence items.
type ComplianceViolation struct {
	ID              uuid.UUID                 `json:"id"`
	CheckID         uuid.UUID                 `json:"checkId"`
	RuleID          uuid.UUID                 `json:"ruleId"`
	DriverID        *uuid.UUID                `json:"driverId,omitempty"`
	OperatorID      *uuid.UUID                `json:"operatorId,omitempty"`
	VehicleNumber   string                    `json:"vehicleNumber,omitempty"`
	Details         string                    `json:"details,omitempty"`
	EvidenceType    EvidenceKind              `json:"evidenceType,omitempty"`
	FineAmount      float64                   `json:"fineAmount"`
	Status          ComplianceViolationStatus `json:"status"`
	ReportedBy      uuid.UUID                 `json:"reportedBy"`
	ReportedAt      time.Time                 `json:"reportedAt"`
	VerifiedBy      *uuid.UUID                `json:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time                `json:"verifiedAt,omitempty"`
	ResolutionNotes string                    `json:"resolutionNotes,omitempty"`

	// Joined fields (populated by some queries)
	Rule     *ViolationRule `json:"rule,omitempty"`
	Evidence []*Evidence    `json:"evidence,omitempty"`
}

// ComplianceViolationStatus represents the review lifecycle of a
// compliance violation.
type ComplianceViolationStatus string

const (
	ComplianceViolationReported  ComplianceViolationStatus = "reported"
	ComplianceViolationVerified  ComplianceViolationStatus = "verified"
	ComplianceViolationAppealed  ComplianceViolationStatus = "appealed"
	ComplianceViolationResolved  ComplianceViolationStatus = "resolved"
	ComplianceViolationDismissed ComplianceViolationStatus = "dismissed"
)

// Valid reports whether the status is a known value.
func (s ComplianceViolationStatus) Valid() bool {
	switch s {
	case ComplianceViolationReported, ComplianceViolationVerified, ComplianceViolationAppealed,
		ComplianceViolationResolved, ComplianceViolationDismissed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further status changes are allowed.
func (s ComplianceViolationStatus) IsTerminal() bool {
	return s == ComplianceViolationResolved || s == ComplianceViolationDismissed
}

// CanTransitionTo returns true if this status can advance to the target.
func (s ComplianceViolationStatus) CanTransitionTo(target ComplianceViolationStatus) bool {
	switch s {
	case ComplianceViolationReported:
		return target == ComplianceViolationVerified || target == ComplianceViolationAppealed
	case ComplianceViolationVerified, ComplianceViolationAppealed:
		return target == ComplianceViolationResolved || target == ComplianceViolationDismissed
	default:
		return false
	}
}

// Evidence is a typed attachment supporting a compliance violation:
// either a stored file (photo/video/document/witness statement) or a
// GPS coordinate pair for the location kind.
type Evidence struct {
	ID            uuid.UUID    `json:"id"`
	ViolationID   uuid.UUID    `json:"violationId"`
	Kind          EvidenceKind `json:"kind"`
	Locator       string       `json:"locator,omitempty"`
	Latitude      *float64     `json:"latitude,omitempty"`
	Longitude     *float64     `json:"longitude,omitempty"`
	LocationLabel string       `json:"locationLabel,omitempty"`
	CapturedBy    uuid.UUID    `json:"capturedBy"`
	CapturedAt    time.Time    `json:"capturedAt"`
}

// EvidenceKind represents the type of an evidence attachment.
type EvidenceKind string

const (
	EvidencePhoto    EvidenceKind = "photo"
	EvidenceVideo    EvidenceKind = "video"
	EvidenceLocation EvidenceKind = "location"
	EvidenceWitness  EvidenceKind = "witness"
	EvidenceDocument EvidenceKind = "document"
)

// Valid reports whether the kind is a known value.
func (k EvidenceKind) Valid() bool {
	switch k {
	case EvidencePhoto, EvidenceVideo, EvidenceLocation, EvidenceWitness, EvidenceDocument:
		return true
	default:
		return false
	}
}

// CheckService defines operations for managing compliance checks and their
// nested violation/evidence graph. Implementations persist each multi-row
// write atomically: a check is never left without its violation, or a
// violation without its evidence, on a mid-write failure.
type CheckService interface {
	// FindCheckByID retrieves a check with its nested violation and evidence.
	// Returns ENOTFOUND if the check does not exist.
	FindCheckByID(ctx context.Context, id uuid.UUID) (*ComplianceCheck, error)

	// FindChecks retrieves checks matching the filter criteria.
	// Returns the matching checks and total count.
	FindChecks(ctx context.Context, filter CheckFilter) ([]*ComplianceCheck, int, error)

	// CreateCheck creates a check and, when attached, its violation and
	// evidence rows in a single transaction.
	CreateCheck(ctx context.Context, check *ComplianceCheck) error

	// UpdateCheck updates check fields and reconciles the nested violation:
	// upd.Violation upserts (appending its Evidence rows), upd.RemoveViolation
	// deletes the existing violation and all of its evidence. Removing a
	// violation permanently erases its evidence history.
	// Returns ENOTFOUND if the check does not exist.
	UpdateCheck(ctx context.Context, id uuid.UUID, upd CheckUpdate) (*ComplianceCheck, error)

	// DeleteCheck deletes a check; its violation and evidence cascade.
	// Returns ENOTFOUND if the check does not exist.
	DeleteCheck(ctx context.Context, id uuid.UUID) error

	// FindViolationByID retrieves a compliance violation with its evidence.
	// Returns ENOTFOUND if the violation does not exist.
	FindViolationByID(ctx context.Context, id uuid.UUID) (*ComplianceViolation, error)

	// UpdateViolationStatus advances the violation status, recording the
	// transition in the status log.
	// Returns EINVALID if the transition is not allowed.
	// Returns ENOTFOUND if the violation does not exist.
	UpdateViolationStatus(ctx context.Context, id uuid.UUID, status ComplianceViolationStatus, changedBy uuid.UUID, note string) (*ComplianceViolation, error)
}

// CheckFilter defines criteria for filtering compliance checks.
type CheckFilter struct {
	ID           *uuid.UUID
	OfficerID    *uuid.UUID
	Jurisdiction *string
	Status       *CheckStatus
	CheckedFrom  *time.Time
	CheckedTo    *time.Time

	// Pagination
	Offset int
	Limit  int
}

// CheckUpdate defines fields that can be updated on a compliance check.
type CheckUpdate struct {
	CheckedAt    *time.Time
	Jurisdiction *string
	Location     *string
	Latitude     *float64
	Longitude    *float64
	CheckType    *string
	Status       *CheckStatus
	Notes        *string

	// Violation reconciliation. Exactly one of these is meaningful per
	// update: Violation upserts, RemoveViolation cascade-deletes.
	Violation       *ComplianceViolation
	RemoveViolation bool
}
