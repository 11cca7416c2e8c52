package bantay_test

import (
	"testing"

	"github.com/kdelacruz/bantay"
	"github.com/stretchr/testify/assert"
)

func validRule() *bantay.ViolationRule {
	return &bantay.ViolationRule{
		Name:          "Out-of-line operation",
		PenaltyType:   bantay.PenaltyFine,
		PenaltyAmount: 1000,
		ApplicableTo:  bantay.ApplicableToBoth,
	}
}

func TestViolationRule_Validate(t *testing.T) {
	assert.NoError(t, validRule().Validate())

	rule := validRule()
	rule.Name = ""
	assert.True(t, bantay.IsErrorCode(rule.Validate(), bantay.EINVALID))

	rule = validRule()
	rule.PenaltyType = "community_service"
	assert.True(t, bantay.IsErrorCode(rule.Validate(), bantay.EINVALID))

	rule = validRule()
	rule.PenaltyAmount = -50
	assert.True(t, bantay.IsErrorCode(rule.Validate(), bantay.EINVALID))

	rule = validRule()
	rule.DemeritPoints = -1
	assert.True(t, bantay.IsErrorCode(rule.Validate(), bantay.EINVALID))

	rule = validRule()
	rule.SuspensionDays = -7
	assert.True(t, bantay.IsErrorCode(rule.Validate(), bantay.EINVALID))

	rule = validRule()
	rule.ApplicableTo = "pedestrians"
	assert.True(t, bantay.IsErrorCode(rule.Validate(), bantay.EINVALID))
}

func TestViolationRule_Normalize(t *testing.T) {
	rule := validRule()
	rule.SuspensionDays = 30
	rule.Normalize()
	assert.Equal(t, 0, rule.SuspensionDays)

	rule = validRule()
	rule.PenaltyType = bantay.PenaltySuspension
	rule.SuspensionDays = 30
	rule.Normalize()
	assert.Equal(t, 30, rule.SuspensionDays)
}

func TestViolationRule_AppliesTo(t *testing.T) {
	rule := validRule()

	rule.ApplicableTo = bantay.ApplicableToBoth
	assert.True(t, rule.AppliesTo(bantay.ActorRoleDriver))
	assert.True(t, rule.AppliesTo(bantay.ActorRoleOperator))

	rule.ApplicableTo = bantay.ApplicableToDriver
	assert.True(t, rule.AppliesTo(bantay.ActorRoleDriver))
	assert.False(t, rule.AppliesTo(bantay.ActorRoleOperator))

	rule.ApplicableTo = bantay.ApplicableToOperator
	assert.False(t, rule.AppliesTo(bantay.ActorRoleDriver))
	assert.True(t, rule.AppliesTo(bantay.ActorRoleOperator))
}

func TestEnforcementPriority_Weight(t *testing.T) {
	assert.Equal(t, 4, bantay.PriorityCritical.Weight())
	assert.Equal(t, 3, bantay.PriorityHigh.Weight())
	assert.Equal(t, 2, bantay.PriorityMedium.Weight())
	assert.Equal(t, 1, bantay.PriorityLow.Weight())
	assert.Equal(t, 0, bantay.EnforcementPriority("urgent").Weight())
}
