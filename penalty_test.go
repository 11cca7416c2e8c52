package bantay_test

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/kdelacruz/bantay/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fineRule(id uuid.UUID) *bantay.ViolationRule {
	return &bantay.ViolationRule{
		ID:            id,
		Code:          "RL-20250101-AB12CD",
		Name:          "Overcharging passengers",
		PenaltyType:   bantay.PenaltyFine,
		PenaltyAmount: 500,
		DemeritPoints: 3,
		ApplicableTo:  bantay.ApplicableToBoth,
		Active:        true,
	}
}

func suspensionRule(id uuid.UUID, days int) *bantay.ViolationRule {
	return &bantay.ViolationRule{
		ID:             id,
		Code:           "RL-20250101-EF34AB",
		Name:           "Operating without franchise",
		PenaltyType:    bantay.PenaltySuspension,
		PenaltyAmount:  2500,
		SuspensionDays: days,
		ApplicableTo:   bantay.ApplicableToBoth,
		Active:         true,
	}
}

func newPenaltyEngine(rules *mock.RuleService, records *mock.RecordService, registry *mock.ActorRegistry, email *mock.EmailService) *bantay.PenaltyEngine {
	return bantay.NewPenaltyEngine(rules, records, registry, email, testLogger())
}

func TestApplyPenalty_SnapshotsRuleValues(t *testing.T) {
	ruleID := uuid.New()
	driverID := uuid.New()

	rules := &mock.RuleService{
		FindRuleByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
			return fineRule(ruleID), nil
		},
	}
	var created *bantay.ViolationRecord
	records := &mock.RecordService{
		CreateRecordFn: func(ctx context.Context, record *bantay.ViolationRecord) error {
			record.ID = uuid.New()
			created = record
			return nil
		},
	}

	engine := newPenaltyEngine(rules, records, &mock.ActorRegistry{}, &mock.EmailService{})
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	engine.SetClock(func() time.Time { return now })

	record, err := engine.ApplyPenalty(context.Background(), ruleID, bantay.PenaltyInput{
		DriverID:   &driverID,
		ReportedBy: uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, bantay.RecordStatusPending, record.Status)
	assert.Equal(t, 500.0, record.PenaltyAppliedAmount)
	assert.Equal(t, 3, record.DemeritPointsApplied)
	assert.Nil(t, record.SuspensionStart)
	assert.Nil(t, record.SuspensionEnd)
	assert.Equal(t, now, record.OccurredAt)
	assert.Regexp(t, regexp.MustCompile(`^VR-20250310-[0-9A-F]{6}$`), record.Code)
}

func TestApplyPenalty_SuspensionWindowAndStatusOverwrite(t *testing.T) {
	ruleID := uuid.New()
	driverID := uuid.New()
	operatorID := uuid.New()

	rules := &mock.RuleService{
		FindRuleByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
			return suspensionRule(ruleID, 7), nil
		},
	}
	records := &mock.RecordService{
		CreateRecordFn: func(ctx context.Context, record *bantay.ViolationRecord) error {
			record.ID = uuid.New()
			return nil
		},
	}
	registry := &mock.ActorRegistry{
		FindActorFn: func(ctx context.Context, id uuid.UUID, role bantay.ActorRole) (*bantay.Actor, error) {
			return &bantay.Actor{ID: id, Role: role, Name: "Juan Dela Cruz", Email: "juan@example.com"}, nil
		},
	}
	email := &mock.EmailService{}

	engine := newPenaltyEngine(rules, records, registry, email)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	engine.SetClock(func() time.Time { return now })

	record, err := engine.ApplyPenalty(context.Background(), ruleID, bantay.PenaltyInput{
		DriverID:   &driverID,
		OperatorID: &operatorID,
		ReportedBy: uuid.New(),
	})
	require.NoError(t, err)

	require.NotNil(t, record.SuspensionStart)
	require.NotNil(t, record.SuspensionEnd)
	assert.Equal(t, now, *record.SuspensionStart)
	assert.Equal(t, now.AddDate(0, 0, 7), *record.SuspensionEnd)

	// Both referenced actors are blindly overwritten to suspended.
	require.Len(t, registry.StatusChanges, 2)
	assert.Equal(t, mock.StatusChange{ID: driverID, Role: bantay.ActorRoleDriver, Status: bantay.ActorStatusSuspended}, registry.StatusChanges[0])
	assert.Equal(t, mock.StatusChange{ID: operatorID, Role: bantay.ActorRoleOperator, Status: bantay.ActorStatusSuspended}, registry.StatusChanges[1])

	// One notice per suspended actor with an address on file.
	require.Len(t, email.SentNotices, 2)
	assert.Equal(t, "juan@example.com", email.SentNotices[0].To)
	assert.Equal(t, record.Code, email.SentNotices[0].Record.Code)
}

func TestApplyPenalty_ZeroDaySuspensionHasNoWindow(t *testing.T) {
	ruleID := uuid.New()
	driverID := uuid.New()

	rules := &mock.RuleService{
		FindRuleByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
			return suspensionRule(ruleID, 0), nil
		},
	}
	records := &mock.RecordService{}
	registry := &mock.ActorRegistry{}

	engine := newPenaltyEngine(rules, records, registry, &mock.EmailService{})

	record, err := engine.ApplyPenalty(context.Background(), ruleID, bantay.PenaltyInput{
		DriverID:   &driverID,
		ReportedBy: uuid.New(),
	})
	require.NoError(t, err)

	assert.Nil(t, record.SuspensionStart)
	assert.Nil(t, record.SuspensionEnd)
	// Status is still overwritten even without a dated window.
	require.Len(t, registry.StatusChanges, 1)
	assert.Equal(t, bantay.ActorStatusSuspended, registry.StatusChanges[0].Status)
}

func TestApplyPenalty_InactiveRule(t *testing.T) {
	ruleID := uuid.New()
	driverID := uuid.New()

	rule := fineRule(ruleID)
	rule.Active = false
	rules := &mock.RuleService{
		FindRuleByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
			return rule, nil
		},
	}

	engine := newPenaltyEngine(rules, &mock.RecordService{}, &mock.ActorRegistry{}, &mock.EmailService{})

	_, err := engine.ApplyPenalty(context.Background(), ruleID, bantay.PenaltyInput{
		DriverID:   &driverID,
		ReportedBy: uuid.New(),
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestApplyPenalty_UnknownRule(t *testing.T) {
	driverID := uuid.New()
	engine := newPenaltyEngine(&mock.RuleService{}, &mock.RecordService{}, &mock.ActorRegistry{}, &mock.EmailService{})

	_, err := engine.ApplyPenalty(context.Background(), uuid.New(), bantay.PenaltyInput{
		DriverID:   &driverID,
		ReportedBy: uuid.New(),
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.ENOTFOUND))
}

func TestApplyPenalty_MissingActors(t *testing.T) {
	engine := newPenaltyEngine(&mock.RuleService{}, &mock.RecordService{}, &mock.ActorRegistry{}, &mock.EmailService{})

	_, err := engine.ApplyPenalty(context.Background(), uuid.New(), bantay.PenaltyInput{
		ReportedBy: uuid.New(),
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestApplyPenalty_RetriesCodeCollision(t *testing.T) {
	ruleID := uuid.New()
	driverID := uuid.New()

	rules := &mock.RuleService{
		FindRuleByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
			return fineRule(ruleID), nil
		},
	}

	attempts := 0
	seen := map[string]bool{}
	records := &mock.RecordService{
		CreateRecordFn: func(ctx context.Context, record *bantay.ViolationRecord) error {
			attempts++
			seen[record.Code] = true
			if attempts < 3 {
				return bantay.Conflict("Record code already exists")
			}
			return nil
		},
	}

	engine := newPenaltyEngine(rules, records, &mock.ActorRegistry{}, &mock.EmailService{})

	_, err := engine.ApplyPenalty(context.Background(), ruleID, bantay.PenaltyInput{
		DriverID:   &driverID,
		ReportedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// Each attempt regenerates the code rather than replaying the same one.
	assert.Len(t, seen, 3)
}

func TestApplyPenalty_CodeCollisionExhaustsRetries(t *testing.T) {
	ruleID := uuid.New()
	driverID := uuid.New()

	rules := &mock.RuleService{
		FindRuleByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
			return fineRule(ruleID), nil
		},
	}
	records := &mock.RecordService{
		CreateRecordFn: func(ctx context.Context, record *bantay.ViolationRecord) error {
			return bantay.Conflict("Record code already exists")
		},
	}

	engine := newPenaltyEngine(rules, records, &mock.ActorRegistry{}, &mock.EmailService{})

	_, err := engine.ApplyPenalty(context.Background(), ruleID, bantay.PenaltyInput{
		DriverID:   &driverID,
		ReportedBy: uuid.New(),
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.ECONFLICT))
}

func TestApplyPenalty_RegistryFailureDoesNotFailApplication(t *testing.T) {
	ruleID := uuid.New()
	driverID := uuid.New()

	rules := &mock.RuleService{
		FindRuleByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
			return suspensionRule(ruleID, 30), nil
		},
	}
	registry := &mock.ActorRegistry{
		SetStatusFn: func(ctx context.Context, id uuid.UUID, role bantay.ActorRole, status bantay.ActorStatus) error {
			return bantay.Internal("registry unavailable", nil)
		},
	}
	email := &mock.EmailService{}

	engine := newPenaltyEngine(rules, &mock.RecordService{}, registry, email)

	record, err := engine.ApplyPenalty(context.Background(), ruleID, bantay.PenaltyInput{
		DriverID:   &driverID,
		ReportedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.NotNil(t, record)
	// No notice goes out when the status overwrite failed.
	assert.Empty(t, email.SentNotices)
}
