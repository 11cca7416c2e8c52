package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
)

// Compile-time interface check
var _ bantay.ActorRegistry = (*ActorRegistry)(nil)

// ActorRegistry is a mock implementation of bantay.ActorRegistry.
type ActorRegistry struct {
	FindActorFn func(ctx context.Context, id uuid.UUID, role bantay.ActorRole) (*bantay.Actor, error)
	SetStatusFn func(ctx context.Context, id uuid.UUID, role bantay.ActorRole, status bantay.ActorStatus) error

	// StatusChanges records every SetStatus call for assertions.
	StatusChanges []StatusChange
}

// StatusChange records a single SetStatus invocation.
type StatusChange struct {
	ID     uuid.UUID
	Role   bantay.ActorRole
	Status bantay.ActorStatus
}

func (r *ActorRegistry) FindActor(ctx context.Context, id uuid.UUID, role bantay.ActorRole) (*bantay.Actor, error) {
	if r.FindActorFn != nil {
		return r.FindActorFn(ctx, id, role)
	}
	return nil, bantay.NotFound("Actor not found")
}

func (r *ActorRegistry) SetStatus(ctx context.Context, id uuid.UUID, role bantay.ActorRole, status bantay.ActorStatus) error {
	r.StatusChanges = append(r.StatusChanges, StatusChange{ID: id, Role: role, Status: status})
	if r.SetStatusFn != nil {
		return r.SetStatusFn(ctx, id, role, status)
	}
	return nil
}
