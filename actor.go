package bantay

import (
	"context"

	"github.com/google/uuid"
)

// ActorRole identifies which registry an actor belongs to.
type ActorRole string

const (
	ActorRoleDriver   ActorRole = "driver"
	ActorRoleOperator ActorRole = "operator"
)

// Valid reports whether the role is a known registry role.
func (r ActorRole) Valid() bool {
	return r == ActorRoleDriver || r == ActorRoleOperator
}

// ActorStatus represents the registry status of a driver or operator.
type ActorStatus string

const (
	ActorStatusActive    ActorStatus = "active"
	ActorStatusSuspended ActorStatus = "suspended"
	ActorStatusOnLeave   ActorStatus = "on_leave"
	ActorStatusInactive  ActorStatus = "inactive"
)

// Actor is a driver or operator subject to enforcement.
type Actor struct {
	ID        uuid.UUID   `json:"id"`
	Role      ActorRole   `json:"role"`
	Name      string      `json:"name"`
	Email     string      `json:"email,omitempty"`
	Status    ActorStatus `json:"status"`
	Barangay  string      `json:"barangay,omitempty"`
	VehicleNo string      `json:"vehicleNo,omitempty"`
}

// ActorRegistry defines the actor registry consumed by the penalty engine.
//
// SetStatus is a blind overwrite: applying a suspension does not check
// whether the actor is already suspended for a different, non-expired
// reason. This matches the enforcement office's record-keeping practice.
type ActorRegistry interface {
	// FindActor retrieves an actor by ID and role.
	// Returns ENOTFOUND if the actor does not exist.
	FindActor(ctx context.Context, id uuid.UUID, role ActorRole) (*Actor, error)

	// SetStatus overwrites the actor's registry status.
	// Returns ENOTFOUND if the actor does not exist.
	SetStatus(ctx context.Context, id uuid.UUID, role ActorRole, status ActorStatus) error
}

// OfficerRole represents the role of an enforcement office user.
type OfficerRole string

const (
	OfficerRoleEnforcer OfficerRole = "enforcer"
	OfficerRoleAdmin    OfficerRole = "admin"
)

// Officer is the authenticated identity performing an operation.
// Identity is established upstream (gateway); the engine only consumes it.
type Officer struct {
	ID   uuid.UUID   `json:"id"`
	Name string      `json:"name,omitempty"`
	Role OfficerRole `json:"role"`
}

// IsAdmin returns true if the officer has administrative privileges.
func (o *Officer) IsAdmin() bool {
	return o.Role == OfficerRoleAdmin
}
