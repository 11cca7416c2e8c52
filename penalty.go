package bantay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// codeRetryAttempts bounds how many times record creation retries after a
// display-code collision.
const codeRetryAttempts = 3

// PenaltyEngine applies violation rules to incidents, producing immutable
// violation records with snapshotted penalties and, for suspension
// penalties, a suspension window plus an actor-status side effect.
type PenaltyEngine struct {
	rules    RuleService
	records  RecordService
	registry ActorRegistry
	email    EmailService
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewPenaltyEngine creates a penalty engine.
func NewPenaltyEngine(rules RuleService, records RecordService, registry ActorRegistry, email EmailService, logger *slog.Logger) *PenaltyEngine {
	return &PenaltyEngine{
		rules:    rules,
		records:  records,
		registry: registry,
		email:    email,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the engine clock. Intended for tests.
func (e *PenaltyEngine) SetClock(now func() time.Time) {
	e.now = now
}

// PenaltyInput describes the incident a rule is applied to.
type PenaltyInput struct {
	DriverID        *uuid.UUID
	OperatorID      *uuid.UUID
	VehicleNumber   string
	RouteRef        string
	Location        string
	Jurisdiction    string
	OccurredAt      time.Time
	ReportedBy      uuid.UUID
	MisuseType      string
	MisuseDetails   string
	WitnessDetails  string
	EvidenceLocator string
}

// ApplyPenalty applies the rule to the incident described by in.
//
// The penalty amount and demerit points are snapshotted from the rule onto
// the record so later rule edits never change history. When the rule is a
// suspension with a positive day count, the record carries a suspension
// window of exactly that many days and every referenced actor's registry
// status is overwritten to suspended.
//
// Returns ENOTFOUND for an unknown rule, EINVALID for an inactive rule or
// when both actor references are missing. Store failures surface as
// EINTERNAL and are not retried.
func (e *PenaltyEngine) ApplyPenalty(ctx context.Context, ruleID uuid.UUID, in PenaltyInput) (*ViolationRecord, error) {
	if in.DriverID == nil && in.OperatorID == nil {
		return nil, Invalid("At least one of driver or operator is required")
	}

	rule, err := e.rules.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !rule.Active {
		return nil, Invalid("Rule %s is deactivated and cannot be applied", rule.Code)
	}

	now := e.now()
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	record := &ViolationRecord{
		RuleID:               rule.ID,
		DriverID:             in.DriverID,
		OperatorID:           in.OperatorID,
		VehicleNumber:        in.VehicleNumber,
		RouteRef:             in.RouteRef,
		Location:             in.Location,
		Jurisdiction:         in.Jurisdiction,
		OccurredAt:           occurredAt,
		ReportedBy:           in.ReportedBy,
		Status:               RecordStatusPending,
		PenaltyAppliedAmount: rule.PenaltyAmount,
		DemeritPointsApplied: rule.DemeritPoints,
		MisuseType:           in.MisuseType,
		MisuseDetails:        in.MisuseDetails,
		WitnessDetails:       in.WitnessDetails,
		EvidenceLocator:      in.EvidenceLocator,
	}

	if rule.PenaltyType == PenaltySuspension && rule.SuspensionDays > 0 {
		start := now
		end := start.AddDate(0, 0, rule.SuspensionDays)
		record.SuspensionStart = &start
		record.SuspensionEnd = &end
	}

	// Display codes carry a small random suffix; regenerate and retry on
	// collision rather than failing the application.
	backoff := retry.WithMaxRetries(codeRetryAttempts-1, retry.NewConstant(time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		record.Code = GenerateCode(CodePrefixRecord, e.now())
		if err := e.records.CreateRecord(ctx, record); err != nil {
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

	if rule.PenaltyType == PenaltySuspension {
		e.suspendActors(ctx, record)
	}

	e.logger.Info("penalty applied",
		slog.String("record_code", record.Code),
		slog.String("rule_code", rule.Code),
		slog.String("penalty_type", string(rule.PenaltyType)),
	)

	return record, nil
}

// suspendActors overwrites the registry status of every referenced actor
// and sends a best-effort suspension notice. Registry or email failures
// are logged and do not fail the already-persisted penalty application.
func (e *PenaltyEngine) suspendActors(ctx context.Context, record *ViolationRecord) {
	type ref struct {
		id   *uuid.UUID
		role ActorRole
	}
	for _, a := range []ref{
		{record.DriverID, ActorRoleDriver},
		{record.OperatorID, ActorRoleOperator},
	} {
		if a.id == nil {
			continue
		}
		if err := e.registry.SetStatus(ctx, *a.id, a.role, ActorStatusSuspended); err != nil {
			e.logger.Error("failed to suspend actor",
				slog.String("actor_id", a.id.String()),
				slog.String("role", string(a.role)),
				slog.String("error", err.Error()),
			)
			continue
		}
		e.notifySuspension(ctx, *a.id, a.role, record)
	}
}

// notifySuspension emails the actor about the suspension when an address
// is on file. Best effort only.
func (e *PenaltyEngine) notifySuspension(ctx context.Context, actorID uuid.UUID, role ActorRole, record *ViolationRecord) {
	actor, err := e.registry.FindActor(ctx, actorID, role)
	if err != nil || actor.Email == "" {
		return
	}
	if err := e.email.SendSuspensionNotice(ctx, actor.Email, actor.Name, record); err != nil {
		e.logger.Warn("failed to send suspension notice",
			slog.String("actor_id", actorID.String()),
			slog.String("error", err.Error()),
		)
	}
}
