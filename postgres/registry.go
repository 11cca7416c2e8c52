package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
)

// Compile-time check that ActorRegistry implements bantay.ActorRegistry.
var _ bantay.ActorRegistry = (*ActorRegistry)(nil)

// ActorRegistry implements bantay.ActorRegistry over the drivers and
// operators tables.
type ActorRegistry struct {
	db *DB
}

func registryTable(role bantay.ActorRole) (string, error) {
	switch role {
	case bantay.ActorRoleDriver:
		return "drivers", nil
	case bantay.ActorRoleOperator:
		return "operators", nil
	default:
		return "", bantay.Invalid("Unknown actor role %q", role)
	}
}

func (r *ActorRegistry) FindActor(ctx context.Context, id uuid.UUID, role bantay.ActorRole) (*bantay.Actor, error) {
	table, err := registryTable(role)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, name, email, status, barangay, vehicle_no FROM ` + table + ` WHERE id = $1`
	actor := &bantay.Actor{Role: role}
	var email, barangay, vehicleNo *string
	err = r.db.pool.QueryRow(ctx, query, id).Scan(
		&actor.ID, &actor.Name, &email, &actor.Status, &barangay, &vehicleNo,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Actor not found")
		}
		return nil, bantay.Internal("Failed to fetch actor", err)
	}
	actor.Email = deref(email)
	actor.Barangay = deref(barangay)
	actor.VehicleNo = deref(vehicleNo)
	return actor, nil
}

func (r *ActorRegistry) SetStatus(ctx context.Context, id uuid.UUID, role bantay.ActorRole, status bantay.ActorStatus) error {
	table, err := registryTable(role)
	if err != nil {
		return err
	}

	query := `UPDATE ` + table + ` SET status = $1, updated_at = now() WHERE id = $2`
	tag, err := r.db.pool.Exec(ctx, query, status, id)
	if err != nil {
		return bantay.Internal("Failed to update actor status", err)
	}
	if tag.RowsAffected() == 0 {
		return bantay.NotFound("Actor not found")
	}
	return nil
}
