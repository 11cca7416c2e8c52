package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kdelacruz/bantay"
)

// Compile-time check that CheckService implements bantay.CheckService.
var _ bantay.CheckService = (*CheckService)(nil)

// CheckService implements bantay.CheckService using PostgreSQL. Every
// multi-row write runs in one transaction so the check, violation, and
// evidence rows land or roll back together.
type CheckService struct {
	db *DB
}

const checkColumns = `
	c.id, c.code, c.officer_id, c.checked_at, c.jurisdiction, c.location,
	c.latitude, c.longitude, c.check_type, c.status, c.notes,
	c.created_at, c.updated_at`

const complianceViolationColumns = `
	cv.id, cv.check_id, cv.rule_id, cv.driver_id, cv.operator_id,
	cv.vehicle_number, cv.details, cv.evidence_type, cv.fine_amount,
	cv.status, cv.reported_by, cv.reported_at, cv.verified_by,
	cv.verified_at, cv.resolution_notes`

func (s *CheckService) FindCheckByID(ctx context.Context, id uuid.UUID) (*bantay.ComplianceCheck, error) {
	query := `SELECT` + checkColumns + ` FROM compliance_checks c WHERE c.id = $1`
	check, err := scanCheck(s.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Compliance check not found")
		}
		return nil, bantay.Internal("Failed to fetch compliance check", err)
	}
	if err := s.attachViolation(ctx, check); err != nil {
		return nil, err
	}
	return check, nil
}

func (s *CheckService) FindChecks(ctx context.Context, filter bantay.CheckFilter) ([]*bantay.ComplianceCheck, int, error) {
	where := []string{"1 = 1"}
	args := []any{}
	idx := 1

	addClause := func(clause string, arg any) {
		where = append(where, fmt.Sprintf(clause, idx))
		args = append(args, arg)
		idx++
	}

	if filter.ID != nil {
		addClause("c.id = $%d", *filter.ID)
	}
	if filter.OfficerID != nil {
		addClause("c.officer_id = $%d", *filter.OfficerID)
	}
	if filter.Jurisdiction != nil {
		addClause("c.jurisdiction = $%d", *filter.Jurisdiction)
	}
	if filter.Status != nil {
		addClause("c.status = $%d", *filter.Status)
	}
	if filter.CheckedFrom != nil {
		addClause("c.checked_at >= $%d", *filter.CheckedFrom)
	}
	if filter.CheckedTo != nil {
		addClause("c.checked_at <= $%d", *filter.CheckedTo)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM compliance_checks c WHERE ` + whereClause
	if err := s.db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, bantay.Internal("Failed to count compliance checks", err)
	}

	query := `SELECT` + checkColumns + ` FROM compliance_checks c WHERE ` + whereClause +
		` ORDER BY c.checked_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, bantay.Internal("Failed to list compliance checks", err)
	}
	defer rows.Close()

	var checks []*bantay.ComplianceCheck
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, 0, bantay.Internal("Failed to scan compliance check", err)
		}
		checks = append(checks, check)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, bantay.Internal("Failed to list compliance checks", err)
	}

	for _, check := range checks {
		if err := s.attachViolation(ctx, check); err != nil {
			return nil, 0, err
		}
	}

	return checks, total, nil
}

func (s *CheckService) CreateCheck(ctx context.Context, check *bantay.ComplianceCheck) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return bantay.Internal("Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO compliance_checks (
			code, officer_id, checked_at, jurisdiction, location,
			latitude, longitude, check_type, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		check.Code,
		check.OfficerID,
		check.CheckedAt,
		nullable(check.Jurisdiction),
		nullable(check.Location),
		check.Latitude,
		check.Longitude,
		nullable(check.CheckType),
		check.Status,
		nullable(check.Notes),
	).Scan(&check.ID, &check.CreatedAt, &check.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return bantay.Conflict("Check code already exists")
		}
		return bantay.Internal("Failed to create compliance check", err)
	}

	if check.Violation != nil {
		check.Violation.CheckID = check.ID
		if err := insertViolation(ctx, tx, check.Violation); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return bantay.Internal("Failed to commit compliance check", err)
	}
	return nil
}

func (s *CheckService) UpdateCheck(ctx context.Context, id uuid.UUID, upd bantay.CheckUpdate) (*bantay.ComplianceCheck, error) {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return nil, bantay.Internal("Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	set := []string{"updated_at = now()"}
	args := []any{}
	idx := 1

	addSet := func(col string, arg any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, arg)
		idx++
	}

	if upd.CheckedAt != nil {
		addSet("checked_at", *upd.CheckedAt)
	}
	if upd.Jurisdiction != nil {
		addSet("jurisdiction", nullable(*upd.Jurisdiction))
	}
	if upd.Location != nil {
		addSet("location", nullable(*upd.Location))
	}
	// Coordinates are written as a pair so a cleared pair nulls both columns.
	addSet("latitude", upd.Latitude)
	addSet("longitude", upd.Longitude)
	if upd.CheckType != nil {
		addSet("check_type", nullable(*upd.CheckType))
	}
	if upd.Status != nil {
		addSet("status", *upd.Status)
	}
	if upd.Notes != nil {
		addSet("notes", nullable(*upd.Notes))
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE compliance_checks c SET %s WHERE c.id = $%d RETURNING`+checkColumns,
		strings.Join(set, ", "), idx,
	)

	check, err := scanCheck(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Compliance check not found")
		}
		return nil, bantay.Internal("Failed to update compliance check", err)
	}

	switch {
	case upd.RemoveViolation:
		if err := deleteViolationForCheck(ctx, tx, id); err != nil {
			return nil, err
		}
	case upd.Violation != nil:
		upd.Violation.CheckID = id
		if err := upsertViolation(ctx, tx, upd.Violation); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bantay.Internal("Failed to commit check update", err)
	}

	if err := s.attachViolation(ctx, check); err != nil {
		return nil, err
	}
	return check, nil
}

func (s *CheckService) DeleteCheck(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return bantay.Internal("Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := deleteViolationForCheck(ctx, tx, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM compliance_checks WHERE id = $1`, id)
	if err != nil {
		return bantay.Internal("Failed to delete compliance check", err)
	}
	if tag.RowsAffected() == 0 {
		return bantay.NotFound("Compliance check not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return bantay.Internal("Failed to commit check deletion", err)
	}
	return nil
}

func (s *CheckService) FindViolationByID(ctx context.Context, id uuid.UUID) (*bantay.ComplianceViolation, error) {
	query := `SELECT` + complianceViolationColumns + ` FROM compliance_violations cv WHERE cv.id = $1`
	violation, err := scanComplianceViolation(s.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Violation not found")
		}
		return nil, bantay.Internal("Failed to fetch violation", err)
	}
	if err := s.attachEvidence(ctx, violation); err != nil {
		return nil, err
	}
	return violation, nil
}

func (s *CheckService) UpdateViolationStatus(ctx context.Context, id uuid.UUID, status bantay.ComplianceViolationStatus, changedBy uuid.UUID, note string) (*bantay.ComplianceViolation, error) {
	if !status.Valid() {
		return nil, bantay.Invalid("Unknown violation status %q", status)
	}

	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return nil, bantay.Internal("Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var current bantay.ComplianceViolationStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM compliance_violations WHERE id = $1 FOR UPDATE`, id,
	).Scan(&current)
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Violation not found")
		}
		return nil, bantay.Internal("Failed to fetch violation", err)
	}

	if !current.CanTransitionTo(status) {
		return nil, bantay.Invalid("Cannot transition violation from %s to %s", current, status)
	}

	query := `
		UPDATE compliance_violations cv
		SET status = $1,
			verified_by = CASE WHEN $1 = 'verified' THEN $2 ELSE cv.verified_by END,
			verified_at = CASE WHEN $1 = 'verified' THEN now() ELSE cv.verified_at END,
			resolution_notes = COALESCE($3, cv.resolution_notes)
		WHERE cv.id = $4
		RETURNING` + complianceViolationColumns
	violation, err := scanComplianceViolation(tx.QueryRow(ctx, query, status, changedBy, nullable(note), id))
	if err != nil {
		return nil, bantay.Internal("Failed to update violation status", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO violation_status_log (violation_id, from_status, to_status, changed_by, note)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, current, status, changedBy, nullable(note),
	)
	if err != nil {
		return nil, bantay.Internal("Failed to log status change", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bantay.Internal("Failed to commit status update", err)
	}

	if err := s.attachEvidence(ctx, violation); err != nil {
		return nil, err
	}
	return violation, nil
}

func insertViolation(ctx context.Context, tx pgx.Tx, v *bantay.ComplianceViolation) error {
	query := `
		INSERT INTO compliance_violations (
			check_id, rule_id, driver_id, operator_id, vehicle_number,
			details, evidence_type, fine_amount, status, reported_by, reported_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := tx.QueryRow(ctx, query,
		v.CheckID,
		v.RuleID,
		v.DriverID,
		v.OperatorID,
		nullable(v.VehicleNumber),
		nullable(v.Details),
		nullable(string(v.EvidenceType)),
		v.FineAmount,
		v.Status,
		v.ReportedBy,
		v.ReportedAt,
	).Scan(&v.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return bantay.NotFound("Referenced rule not found")
		}
		return bantay.Internal("Failed to create violation", err)
	}

	return insertEvidence(ctx, tx, v.ID, v.Evidence)
}

// upsertViolation updates the existing violation for the check, preserving
// its review status, or inserts a new one in reported status. Evidence rows
// attached to the input are appended, never replaced.
func upsertViolation(ctx context.Context, tx pgx.Tx, v *bantay.ComplianceViolation) error {
	var existingID uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT id FROM compliance_violations WHERE check_id = $1 FOR UPDATE`, v.CheckID,
	).Scan(&existingID)
	if err != nil {
		if isNoRows(err) {
			return insertViolation(ctx, tx, v)
		}
		return bantay.Internal("Failed to fetch violation", err)
	}

	query := `
		UPDATE compliance_violations
		SET rule_id = $1, driver_id = $2, operator_id = $3, vehicle_number = $4,
			details = $5, evidence_type = $6, fine_amount = $7
		WHERE id = $8`
	_, err = tx.Exec(ctx, query,
		v.RuleID,
		v.DriverID,
		v.OperatorID,
		nullable(v.VehicleNumber),
		nullable(v.Details),
		nullable(string(v.EvidenceType)),
		v.FineAmount,
		existingID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return bantay.NotFound("Referenced rule not found")
		}
		return bantay.Internal("Failed to update violation", err)
	}

	v.ID = existingID
	return insertEvidence(ctx, tx, existingID, v.Evidence)
}

func insertEvidence(ctx context.Context, tx pgx.Tx, violationID uuid.UUID, evidence []*bantay.Evidence) error {
	for _, e := range evidence {
		e.ViolationID = violationID
		err := tx.QueryRow(ctx,
			`INSERT INTO violation_evidence (
				violation_id, kind, locator, latitude, longitude,
				location_label, captured_by, captured_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			violationID,
			e.Kind,
			nullable(e.Locator),
			e.Latitude,
			e.Longitude,
			nullable(e.LocationLabel),
			e.CapturedBy,
			e.CapturedAt,
		).Scan(&e.ID)
		if err != nil {
			return bantay.Internal("Failed to create evidence", err)
		}
	}
	return nil
}

// deleteViolationForCheck removes the check's violation along with its
// evidence and status log. The erasure is permanent.
func deleteViolationForCheck(ctx context.Context, tx pgx.Tx, checkID uuid.UUID) error {
	var violationID uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT id FROM compliance_violations WHERE check_id = $1`, checkID,
	).Scan(&violationID)
	if err != nil {
		if isNoRows(err) {
			return nil
		}
		return bantay.Internal("Failed to fetch violation", err)
	}

	for _, q := range []string{
		`DELETE FROM violation_evidence WHERE violation_id = $1`,
		`DELETE FROM violation_status_log WHERE violation_id = $1`,
		`DELETE FROM compliance_violations WHERE id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, violationID); err != nil {
			return bantay.Internal("Failed to delete violation", err)
		}
	}
	return nil
}

func (s *CheckService) attachViolation(ctx context.Context, check *bantay.ComplianceCheck) error {
	query := `SELECT` + complianceViolationColumns + ` FROM compliance_violations cv WHERE cv.check_id = $1`
	violation, err := scanComplianceViolation(s.db.pool.QueryRow(ctx, query, check.ID))
	if err != nil {
		if isNoRows(err) {
			return nil
		}
		return bantay.Internal("Failed to fetch violation", err)
	}
	if err := s.attachEvidence(ctx, violation); err != nil {
		return err
	}
	check.Violation = violation
	return nil
}

func (s *CheckService) attachEvidence(ctx context.Context, violation *bantay.ComplianceViolation) error {
	rows, err := s.db.pool.Query(ctx,
		`SELECT id, violation_id, kind, locator, latitude, longitude,
			location_label, captured_by, captured_at
		 FROM violation_evidence WHERE violation_id = $1 ORDER BY captured_at ASC`,
		violation.ID,
	)
	if err != nil {
		return bantay.Internal("Failed to fetch evidence", err)
	}
	defer rows.Close()

	violation.Evidence = nil
	for rows.Next() {
		var e bantay.Evidence
		var locator, locationLabel *string
		err := rows.Scan(
			&e.ID, &e.ViolationID, &e.Kind, &locator, &e.Latitude,
			&e.Longitude, &locationLabel, &e.CapturedBy, &e.CapturedAt,
		)
		if err != nil {
			return bantay.Internal("Failed to scan evidence", err)
		}
		e.Locator = deref(locator)
		e.LocationLabel = deref(locationLabel)
		violation.Evidence = append(violation.Evidence, &e)
	}
	return rows.Err()
}

func scanCheck(row pgx.Row) (*bantay.ComplianceCheck, error) {
	var check bantay.ComplianceCheck
	var jurisdiction, location, checkType, notes *string
	err := row.Scan(
		&check.ID,
		&check.Code,
		&check.OfficerID,
		&check.CheckedAt,
		&jurisdiction,
		&location,
		&check.Latitude,
		&check.Longitude,
		&checkType,
		&check.Status,
		&notes,
		&check.CreatedAt,
		&check.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	check.Jurisdiction = deref(jurisdiction)
	check.Location = deref(location)
	check.CheckType = deref(checkType)
	check.Notes = deref(notes)
	return &check, nil
}

func scanComplianceViolation(row pgx.Row) (*bantay.ComplianceViolation, error) {
	var v bantay.ComplianceViolation
	var vehicleNumber, details, evidenceType, resolutionNotes *string
	err := row.Scan(
		&v.ID,
		&v.CheckID,
		&v.RuleID,
		&v.DriverID,
		&v.OperatorID,
		&vehicleNumber,
		&details,
		&evidenceType,
		&v.FineAmount,
		&v.Status,
		&v.ReportedBy,
		&v.ReportedAt,
		&v.VerifiedBy,
		&v.VerifiedAt,
		&resolutionNotes,
	)
	if err != nil {
		return nil, err
	}
	v.VehicleNumber = deref(vehicleNumber)
	v.Details = deref(details)
	v.EvidenceType = bantay.EvidenceKind(deref(evidenceType))
	v.ResolutionNotes = deref(resolutionNotes)
	return &v, nil
}
