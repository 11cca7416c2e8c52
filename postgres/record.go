package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kdelacruz/bantay"
)

// Compile-time check that RecordService implements bantay.RecordService.
var _ bantay.RecordService = (*RecordService)(nil)

// RecordService implements bantay.RecordService using PostgreSQL.
type RecordService struct {
	db *DB
}

const recordColumns = `
	v.id, v.code, v.rule_id, v.driver_id, v.operator_id, v.vehicle_number,
	v.route_ref, v.location, v.jurisdiction, v.occurred_at, v.reported_by,
	v.status, v.penalty_applied_amount, v.demerit_points_applied,
	v.suspension_start, v.suspension_end, v.misuse_type, v.misuse_details,
	v.witness_details, v.evidence_locator, v.resolution_notes,
	v.created_at, v.updated_at`

func (s *RecordService) FindRecordByID(ctx context.Context, id uuid.UUID) (*bantay.ViolationRecord, error) {
	query := `SELECT` + recordColumns + ` FROM violation_records v WHERE v.id = $1`
	record, err := scanRecord(s.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Violation record not found")
		}
		return nil, bantay.Internal("Failed to fetch violation record", err)
	}
	if err := s.attachRule(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *RecordService) FindRecords(ctx context.Context, filter bantay.RecordFilter) ([]*bantay.ViolationRecord, int, error) {
	where := []string{"1 = 1"}
	args := []any{}
	idx := 1

	addClause := func(clause string, arg any) {
		where = append(where, fmt.Sprintf(clause, idx))
		args = append(args, arg)
		idx++
	}

	if filter.ID != nil {
		addClause("v.id = $%d", *filter.ID)
	}
	if filter.RuleID != nil {
		addClause("v.rule_id = $%d", *filter.RuleID)
	}
	if filter.DriverID != nil {
		addClause("v.driver_id = $%d", *filter.DriverID)
	}
	if filter.OperatorID != nil {
		addClause("v.operator_id = $%d", *filter.OperatorID)
	}
	if filter.Jurisdiction != nil {
		addClause("v.jurisdiction = $%d", *filter.Jurisdiction)
	}
	if filter.Status != nil {
		addClause("v.status = $%d", *filter.Status)
	}
	if filter.OccurredFrom != nil {
		addClause("v.occurred_at >= $%d", *filter.OccurredFrom)
	}
	if filter.OccurredTo != nil {
		addClause("v.occurred_at <= $%d", *filter.OccurredTo)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM violation_records v WHERE ` + whereClause
	if err := s.db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, bantay.Internal("Failed to count violation records", err)
	}

	query := `SELECT` + recordColumns + ` FROM violation_records v WHERE ` + whereClause +
		` ORDER BY v.occurred_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, bantay.Internal("Failed to list violation records", err)
	}
	defer rows.Close()

	var records []*bantay.ViolationRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, bantay.Internal("Failed to scan violation record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, bantay.Internal("Failed to list violation records", err)
	}

	return records, total, nil
}

func (s *RecordService) CreateRecord(ctx context.Context, record *bantay.ViolationRecord) error {
	if !record.HasActor() {
		return bantay.Invalid("At least one of driver or operator is required")
	}
	if record.Status == "" {
		record.Status = bantay.RecordStatusPending
	}

	query := `
		INSERT INTO violation_records (
			code, rule_id, driver_id, operator_id, vehicle_number, route_ref,
			location, jurisdiction, occurred_at, reported_by, status,
			penalty_applied_amount, demerit_points_applied,
			suspension_start, suspension_end,
			misuse_type, misuse_details, witness_details, evidence_locator
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`
	err := s.db.pool.QueryRow(ctx, query,
		record.Code,
		record.RuleID,
		record.DriverID,
		record.OperatorID,
		nullable(record.VehicleNumber),
		nullable(record.RouteRef),
		nullable(record.Location),
		nullable(record.Jurisdiction),
		record.OccurredAt,
		record.ReportedBy,
		record.Status,
		record.PenaltyAppliedAmount,
		record.DemeritPointsApplied,
		record.SuspensionStart,
		record.SuspensionEnd,
		nullable(record.MisuseType),
		nullable(record.MisuseDetails),
		nullable(record.WitnessDetails),
		nullable(record.EvidenceLocator),
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return bantay.Conflict("Record code already exists")
		}
		if isForeignKeyViolation(err) {
			return bantay.NotFound("Referenced rule not found")
		}
		return bantay.Internal("Failed to create violation record", err)
	}
	return nil
}

func (s *RecordService) UpdateRecordStatus(ctx context.Context, id uuid.UUID, status bantay.RecordStatus, resolutionNotes string) (*bantay.ViolationRecord, error) {
	if !status.Valid() {
		return nil, bantay.Invalid("Unknown record status %q", status)
	}

	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return nil, bantay.Internal("Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var current bantay.RecordStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM violation_records WHERE id = $1 FOR UPDATE`, id,
	).Scan(&current)
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Violation record not found")
		}
		return nil, bantay.Internal("Failed to fetch violation record", err)
	}

	if !current.CanTransitionTo(status) {
		return nil, bantay.Invalid("Cannot transition record from %s to %s", current, status)
	}

	query := `
		UPDATE violation_records v
		SET status = $1, resolution_notes = $2, updated_at = now()
		WHERE v.id = $3
		RETURNING` + recordColumns
	record, err := scanRecord(tx.QueryRow(ctx, query, status, nullable(resolutionNotes), id))
	if err != nil {
		return nil, bantay.Internal("Failed to update record status", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bantay.Internal("Failed to commit status update", err)
	}
	return record, nil
}

func (s *RecordService) CountRecordsByRule(ctx context.Context, ruleID uuid.UUID) (int, error) {
	var count int
	err := s.db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM violation_records WHERE rule_id = $1`, ruleID,
	).Scan(&count)
	if err != nil {
		return 0, bantay.Internal("Failed to count records", err)
	}
	return count, nil
}

func (s *RecordService) attachRule(ctx context.Context, record *bantay.ViolationRecord) error {
	rule, err := s.db.RuleService.FindRuleByID(ctx, record.RuleID)
	if err != nil {
		// Deactivated rules still resolve; only a hard failure surfaces.
		if bantay.ErrorCode(err) == bantay.ENOTFOUND {
			return nil
		}
		return err
	}
	record.Rule = rule
	return nil
}

func scanRecord(row pgx.Row) (*bantay.ViolationRecord, error) {
	var record bantay.ViolationRecord
	var vehicleNumber, routeRef, location, jurisdiction *string
	var misuseType, misuseDetails, witnessDetails, evidenceLocator, resolutionNotes *string
	err := row.Scan(
		&record.ID,
		&record.Code,
		&record.RuleID,
		&record.DriverID,
		&record.OperatorID,
		&vehicleNumber,
		&routeRef,
		&location,
		&jurisdiction,
		&record.OccurredAt,
		&record.ReportedBy,
		&record.Status,
		&record.PenaltyAppliedAmount,
		&record.DemeritPointsApplied,
		&record.SuspensionStart,
		&record.SuspensionEnd,
		&misuseType,
		&misuseDetails,
		&witnessDetails,
		&evidenceLocator,
		&resolutionNotes,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.VehicleNumber = deref(vehicleNumber)
	record.RouteRef = deref(routeRef)
	record.Location = deref(location)
	record.Jurisdiction = deref(jurisdiction)
	record.MisuseType = deref(misuseType)
	record.MisuseDetails = deref(misuseDetails)
	record.WitnessDetails = deref(witnessDetails)
	record.EvidenceLocator = deref(evidenceLocator)
	record.ResolutionNotes = deref(resolutionNotes)
	return &record, nil
}
