package bantay

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ViolationRule is an administrator-defined violation type with an
// associated penalty. Rules are never physically deleted while any
// violation record references them.
type ViolationRule struct {
	ID                  uuid.UUID           `json:"id"`
	Code                string              `json:"code"`
	Name                string              `json:"name"`
	Description         string              `json:"description,omitempty"`
	PenaltyType         PenaltyType         `json:"penaltyType"`
	PenaltyAmount       float64             `json:"penaltyAmount"`
	SuspensionDays      int                 `json:"suspensionDays"`
	DemeritPoints       int                 `json:"demeritPoints"`
	EnforcementPriority EnforcementPriority `json:"enforcementPriority"`
	ApplicableTo        ApplicableTo        `json:"applicableTo"`
	Jurisdiction        string              `json:"jurisdiction,omitempty"`
	MisuseTypes         []string            `json:"misuseTypes,omitempty"`
	Active              bool                `json:"active"`
	CreatedBy           uuid.UUID           `json:"createdBy"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// Normalize forces rule fields into a consistent shape before persistence.
// SuspensionDays only means anything for suspension penalties.
func (r *ViolationRule) Normalize() {
	if r.PenaltyType != PenaltySuspension {
		r.SuspensionDays = 0
	}
}

// Validate checks invariants on rule fields.
func (r *ViolationRule) Validate() error {
	if r.Name == "" {
		return Invalid("Rule name is required")
	}
	if !r.PenaltyType.Valid() {
		return Invalid("Unknown penalty type %q", r.PenaltyType)
	}
	if r.PenaltyAmount < 0 {
		return Invalid("Penalty amount must not be negative")
	}
	if r.DemeritPoints < 0 {
		return Invalid("Demerit points must not be negative")
	}
	if r.SuspensionDays < 0 {
		return Invalid("Suspension days must not be negative")
	}
	if !r.ApplicableTo.Valid() {
		return Invalid("Unknown applicability %q", r.ApplicableTo)
	}
	return nil
}

// AppliesTo returns true if the rule may be applied to the given actor role.
func (r *ViolationRule) AppliesTo(role ActorRole) bool {
	switch r.ApplicableTo {
	case ApplicableToBoth:
		return true
	case ApplicableToDriver:
		return role == ActorRoleDriver
	case ApplicableToOperator:
		return role == ActorRoleOperator
	default:
		return false
	}
}

// PenaltyType represents the kind of penalty a rule carries.
type PenaltyType string

const (
	PenaltyFine                PenaltyType = "fine"
	PenaltySuspension          PenaltyType = "suspension"
	PenaltyWarning             PenaltyType = "warning"
	PenaltyDemerit             PenaltyType = "demerit"
	PenaltyFranchiseRevocation PenaltyType = "franchise_revocation"
)

// Valid reports whether the penalty type is a known value.
func (p PenaltyType) Valid() bool {
	switch p {
	case PenaltyFine, PenaltySuspension, PenaltyWarning, PenaltyDemerit, PenaltyFranchiseRevocation:
		return true
	default:
		return false
	}
}

// EnforcementPriority represents how urgently a rule should be enforced.
type EnforcementPriority string

const (
	PriorityLow      EnforcementPriority = "low"
	PriorityMedium   EnforcementPriority = "medium"
	PriorityHigh     EnforcementPriority = "high"
	PriorityCritical EnforcementPriority = "critical"
)

// Weight returns a numeric weight for sorting by priority.
func (p EnforcementPriority) Weight() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ApplicableTo restricts which actor roles a rule applies to.
type ApplicableTo string

const (
	ApplicableToDriver   ApplicableTo = "driver"
	ApplicableToOperator ApplicableTo = "operator"
	ApplicableToBoth     ApplicableTo = "both"
)

// Valid reports whether the applicability is a known value.
func (a ApplicableTo) Valid() bool {
	return a == ApplicableToDriver || a == ApplicableToOperator || a == ApplicableToBoth
}

// RuleService defines operations for managing the rule catalog.
type RuleService interface {
	// FindRuleByID retrieves a rule by its ID.
	// Returns ENOTFOUND if the rule does not exist.
	FindRuleByID(ctx context.Context, id uuid.UUID) (*ViolationRule, error)

	// FindRuleByCode retrieves a rule by its display code.
	// Returns ENOTFOUND if the rule does not exist.
	FindRuleByCode(ctx context.Context, code string) (*ViolationRule, error)

	// FindRules retrieves rules matching the filter criteria.
	// Returns the matching rules and total count.
	FindRules(ctx context.Context, filter RuleFilter) ([]*ViolationRule, int, error)

	// CreateRule creates a new rule with its misuse-type tags.
	// Returns ECONFLICT if the display code already exists.
	CreateRule(ctx context.Context, rule *ViolationRule) error

	// UpdateRule updates an existing rule. Snapshotted penalty values on
	// existing violation records are never touched.
	// Returns ENOTFOUND if the rule does not exist.
	UpdateRule(ctx context.Context, id uuid.UUID, upd RuleUpdate) (*ViolationRule, error)

	// DeactivateRule marks a rule inactive. Historical reads still resolve it.
	// Returns ENOTFOUND if the rule does not exist.
	DeactivateRule(ctx context.Context, id uuid.UUID) (*ViolationRule, error)

	// DeleteRule deletes a rule and its misuse-type tags.
	// Returns ECONFLICT if any violation record references the rule.
	// Returns ENOTFOUND if the rule does not exist.
	DeleteRule(ctx context.Context, id uuid.UUID) error
}

// RuleFilter defines criteria for filtering rules.
type RuleFilter struct {
	ID           *uuid.UUID
	Code         *string
	Jurisdiction *string
	PenaltyType  *PenaltyType
	ApplicableTo *ApplicableTo
	Active       *bool
	Search       *string // Search in name and description

	// Pagination
	Offset int
	Limit  int
}

// RuleUpdate defines fields that can be updated on a rule.
type RuleUpdate struct {
	Name                *string
	Description         *string
	PenaltyType         *PenaltyType
	PenaltyAmount       *float64
	SuspensionDays      *int
	DemeritPoints       *int
	EnforcementPriority *EnforcementPriority
	ApplicableTo        *ApplicableTo
	Jurisdiction        *string
	MisuseTypes         *[]string
	Active              *bool
}
