package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kdelacruz/bantay"
)

// Compile-time check that RuleService implements bantay.RuleService.
var _ bantay.RuleService = (*RuleService)(nil)

// RuleService implements bantay.RuleService using PostgreSQL. Rule rows and
// their misuse-type tags are written in one transaction.
type RuleService struct {
	db *DB
}

const ruleColumns = `
	r.id, r.code, r.name, r.description, r.penalty_type, r.penalty_amount,
	r.suspension_days, r.demerit_points, r.enforcement_priority, r.applicable_to,
	r.jurisdiction, r.active, r.created_by, r.created_at, r.updated_at`

func (s *RuleService) FindRuleByID(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
	return s.findOne(ctx, "r.id = $1", id)
}

func (s *RuleService) FindRuleByCode(ctx context.Context, code string) (*bantay.ViolationRule, error) {
	return s.findOne(ctx, "r.code = $1", code)
}

func (s *RuleService) findOne(ctx context.Context, where string, arg any) (*bantay.ViolationRule, error) {
	query := `SELECT` + ruleColumns + ` FROM violation_rules r WHERE ` + where
	rule, err := scanRule(s.db.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Rule not found")
		}
		return nil, bantay.Internal("Failed to fetch rule", err)
	}
	if err := s.attachMisuseTypes(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *RuleService) FindRules(ctx context.Context, filter bantay.RuleFilter) ([]*bantay.ViolationRule, int, error) {
	where := []string{"1 = 1"}
	args := []any{}
	idx := 1

	addClause := func(clause string, arg any) {
		where = append(where, fmt.Sprintf(clause, idx))
		args = append(args, arg)
		idx++
	}

	if filter.ID != nil {
		addClause("r.id = $%d", *filter.ID)
	}
	if filter.Code != nil {
		addClause("r.code = $%d", *filter.Code)
	}
	if filter.Jurisdiction != nil {
		addClause("r.jurisdiction = $%d", *filter.Jurisdiction)
	}
	if filter.PenaltyType != nil {
		addClause("r.penalty_type = $%d", *filter.PenaltyType)
	}
	if filter.ApplicableTo != nil {
		addClause("r.applicable_to = $%d", *filter.ApplicableTo)
	}
	if filter.Active != nil {
		addClause("r.active = $%d", *filter.Active)
	}
	if filter.Search != nil {
		where = append(where, fmt.Sprintf("(r.name ILIKE $%d OR r.description ILIKE $%d)", idx, idx))
		args = append(args, "%"+*filter.Search+"%")
		idx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM violation_rules r WHERE ` + whereClause
	if err := s.db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, bantay.Internal("Failed to count rules", err)
	}

	query := `SELECT` + ruleColumns + ` FROM violation_rules r WHERE ` + whereClause +
		` ORDER BY r.code ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, bantay.Internal("Failed to list rules", err)
	}
	defer rows.Close()

	var rules []*bantay.ViolationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, 0, bantay.Internal("Failed to scan rule", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, bantay.Internal("Failed to list rules", err)
	}

	for _, rule := range rules {
		if err := s.attachMisuseTypes(ctx, rule); err != nil {
			return nil, 0, err
		}
	}

	return rules, total, nil
}

func (s *RuleService) CreateRule(ctx context.Context, rule *bantay.ViolationRule) error {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return err
	}

	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return bantay.Internal("Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO violation_rules (
			code, name, description, penalty_type, penalty_amount,
			suspension_days, demerit_points, enforcement_priority,
			applicable_to, jurisdiction, active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		rule.Code,
		rule.Name,
		nullable(rule.Description),
		rule.PenaltyType,
		rule.PenaltyAmount,
		rule.SuspensionDays,
		rule.DemeritPoints,
		rule.EnforcementPriority,
		rule.ApplicableTo,
		nullable(rule.Jurisdiction),
		rule.Active,
		rule.CreatedBy,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return bantay.Conflict("Rule code already exists")
		}
		return bantay.Internal("Failed to create rule", err)
	}

	if err := replaceMisuseTypes(ctx, tx, rule.ID, rule.MisuseTypes); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return bantay.Internal("Failed to commit rule", err)
	}
	return nil
}

func (s *RuleService) UpdateRule(ctx context.Context, id uuid.UUID, upd bantay.RuleUpdate) (*bantay.ViolationRule, error) {
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

	if upd.Name != nil {
		addSet("name", *upd.Name)
	}
	if upd.Description != nil {
		addSet("description", nullable(*upd.Description))
	}
	if upd.PenaltyType != nil {
		if !upd.PenaltyType.Valid() {
			return nil, bantay.Invalid("Unknown penalty type %q", *upd.PenaltyType)
		}
		addSet("penalty_type", *upd.PenaltyType)
	}
	if upd.PenaltyAmount != nil {
		addSet("penalty_amount", *upd.PenaltyAmount)
	}
	if upd.SuspensionDays != nil {
		addSet("suspension_days", *upd.SuspensionDays)
	}
	if upd.DemeritPoints != nil {
		addSet("demerit_points", *upd.DemeritPoints)
	}
	if upd.EnforcementPriority != nil {
		addSet("enforcement_priority", *upd.EnforcementPriority)
	}
	if upd.ApplicableTo != nil {
		if !upd.ApplicableTo.Valid() {
			return nil, bantay.Invalid("Unknown applicability %q", *upd.ApplicableTo)
		}
		addSet("applicable_to", *upd.ApplicableTo)
	}
	if upd.Jurisdiction != nil {
		addSet("jurisdiction", nullable(*upd.Jurisdiction))
	}
	if upd.Active != nil {
		addSet("active", *upd.Active)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE violation_rules r SET %s WHERE r.id = $%d RETURNING`+ruleColumns,
		strings.Join(set, ", "), idx,
	)

	rule, err := scanRule(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, bantay.NotFound("Rule not found")
		}
		return nil, bantay.Internal("Failed to update rule", err)
	}

	if upd.MisuseTypes != nil {
		if err := replaceMisuseTypes(ctx, tx, id, *upd.MisuseTypes); err != nil {
			return nil, err
		}
		rule.MisuseTypes = *upd.MisuseTypes
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, bantay.Internal("Failed to commit rule update", err)
	}

	if upd.MisuseTypes == nil {
		if err := s.attachMisuseTypes(ctx, rule); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

func (s *RuleService) DeactivateRule(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
	active := false
	return s.UpdateRule(ctx, id, bantay.RuleUpdate{Active: &active})
}

func (s *RuleService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return bantay.Internal("Failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var refs int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM violation_records WHERE rule_id = $1`, id,
	).Scan(&refs)
	if err != nil {
		return bantay.Internal("Failed to count rule references", err)
	}
	if refs > 0 {
		return bantay.Conflict("Rule is referenced by violation records")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM rule_misuse_types WHERE rule_id = $1`, id); err != nil {
		return bantay.Internal("Failed to delete rule tags", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM violation_rules WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return bantay.Conflict("Rule is referenced by violation records")
		}
		return bantay.Internal("Failed to delete rule", err)
	}
	if tag.RowsAffected() == 0 {
		return bantay.NotFound("Rule not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return bantay.Internal("Failed to commit rule deletion", err)
	}
	return nil
}

func (s *RuleService) attachMisuseTypes(ctx context.Context, rule *bantay.ViolationRule) error {
	rows, err := s.db.pool.Query(ctx,
		`SELECT misuse_type FROM rule_misuse_types WHERE rule_id = $1 ORDER BY misuse_type`,
		rule.ID,
	)
	if err != nil {
		return bantay.Internal("Failed to fetch rule tags", err)
	}
	defer rows.Close()

	rule.MisuseTypes = nil
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return bantay.Internal("Failed to scan rule tag", err)
		}
		rule.MisuseTypes = append(rule.MisuseTypes, t)
	}
	return rows.Err()
}

func replaceMisuseTypes(ctx context.Context, tx pgx.Tx, ruleID uuid.UUID, types []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM rule_misuse_types WHERE rule_id = $1`, ruleID); err != nil {
		return bantay.Internal("Failed to clear rule tags", err)
	}
	for _, t := range types {
		_, err := tx.Exec(ctx,
			`INSERT INTO rule_misuse_types (rule_id, misuse_type) VALUES ($1, $2)`,
			ruleID, t,
		)
		if err != nil {
			return bantay.Internal("Failed to insert rule tag", err)
		}
	}
	return nil
}

func scanRule(row pgx.Row) (*bantay.ViolationRule, error) {
	var rule bantay.ViolationRule
	var description, jurisdiction *string
	err := row.Scan(
		&rule.ID,
		&rule.Code,
		&rule.Name,
		&description,
		&rule.PenaltyType,
		&rule.PenaltyAmount,
		&rule.SuspensionDays,
		&rule.DemeritPoints,
		&rule.EnforcementPriority,
		&rule.ApplicableTo,
		&jurisdiction,
		&rule.Active,
		&rule.CreatedBy,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.Description = deref(description)
	rule.Jurisdiction = deref(jurisdiction)
	return &rule, nil
}
