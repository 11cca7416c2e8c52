package bantay

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ViolationRecord is an applied instance of a rule against an actor.
// Immutable once created except for status and resolution fields.
// Penalty amount and demerit points are snapshotted from the rule at
// application time so later rule edits never rewrite history.
type ViolationRecord struct {
	ID                   uuid.UUID    `json:"id"`
	Code                 string       `json:"code"`
	RuleID               uuid.UUID    `json:"ruleId"`
	DriverID             *uuid.UUID   `json:"driverId,omitempty"`
	OperatorID           *uuid.UUID   `json:"operatorId,omitempty"`
	VehicleNumber        string       `json:"vehicleNumber,omitempty"`
	RouteRef             string       `json:"routeRef,omitempty"`
	Location             string       `json:"location,omitempty"`
	Jurisdiction         string       `json:"jurisdiction,omitempty"`
	OccurredAt           time.Time    `json:"occurredAt"`
	ReportedBy           uuid.UUID    `json:"reportedBy"`
	Status               RecordStatus `json:"status"`
	PenaltyAppliedAmount float64      `json:"penaltyAppliedAmount"`
	DemeritPointsApplied int          `json:"demeritPointsApplied"`
	SuspensionStart      *time.Time   `json:"suspensionStart,omitempty"`
	SuspensionEnd        *time.Time   `json:"suspensionEnd,omitempty"`
	MisuseType           string       `json:"misuseType,omitempty"`
	MisuseDetails        string       `json:"misuseDetails,omitempty"`
	WitnessDetails       string       `json:"witnessDetails,omitempty"`
	EvidenceLocator      string       `json:"evidenceLocator,omitempty"`
	ResolutionNotes      string       `json:"resolutionNotes,omitempty"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`

	// Joined fields (populated by some queries)
	Rule *ViolationRule `json:"rule,omitempty"`
}

// HasActor returns true if at least one actor reference is present.
func (r *ViolationRecord) HasActor() bool {
	return r.DriverID != nil || r.OperatorID != nil
}

// RecordStatus represents the review status of a violation record.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusVerified  RecordStatus = "verified"
	RecordStatusResolved  RecordStatus = "resolved"
	RecordStatusDismissed RecordStatus = "dismissed"
)

// Valid reports whether the status is a known value.
func (s RecordStatus) Valid() bool {
	switch s {
	case RecordStatusPending, RecordStatusVerified, RecordStatusResolved, RecordStatusDismissed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further status changes are allowed.
func (s RecordStatus) IsTerminal() bool {
	return s == RecordStatusResolved || s == RecordStatusDismissed
}

// CanTransitionTo returns true if this status can advance to the target.
// Status only moves forward; terminal states never change.
func (s RecordStatus) CanTransitionTo(target RecordStatus) bool {
	switch s {
	case RecordStatusPending:
		return target == RecordStatusVerified || target == RecordStatusDismissed
	case RecordStatusVerified:
		return target == RecordStatusResolved || target == RecordStatusDismissed
	default:
		return false
	}
}

// RecordService defines operations for managing violation records.
type RecordService interface {
	// FindRecordByID retrieves a record by its ID.
	// Returns ENOTFOUND if the record does not exist.
	FindRecordByID(ctx context.Context, id uuid.UUID) (*ViolationRecord, error)

	// FindRecords retrieves records matching the filter criteria.
	// Returns the matching records and total count.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*ViolationRecord, int, error)

	// CreateRecord creates a new violation record.
	// Returns ECONFLICT if the display code already exists.
	// Returns ENOTFOUND if the referenced rule does not exist.
	CreateRecord(ctx context.Context, record *ViolationRecord) error

	// UpdateRecordStatus advances the record status.
	// Returns EINVALID if the transition is not allowed.
	// Returns ENOTFOUND if the record does not exist.
	UpdateRecordStatus(ctx context.Context, id uuid.UUID, status RecordStatus, resolutionNotes string) (*ViolationRecord, error)

	// CountRecordsByRule counts records referencing the given rule.
	CountRecordsByRule(ctx context.Context, ruleID uuid.UUID) (int, error)
}

// RecordFilter defines criteria for filtering violation records.
type RecordFilter struct {
	ID           *uuid.UUID
	RuleID       *uuid.UUID
	DriverID     *uuid.UUID
	OperatorID   *uuid.UUID
	Jurisdiction *string
	Status       *RecordStatus
	OccurredFrom *time.Time
	OccurredTo   *time.Time

	// Pagination
	Offset int
	Limit  int
}
