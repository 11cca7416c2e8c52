package bantay_test

import (
	"testing"

	"github.com/kdelacruz/bantay"
	"github.com/stretchr/testify/assert"
)

func TestComplianceViolationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    bantay.ComplianceViolationStatus
		to      bantay.ComplianceViolationStatus
		allowed bool
	}{
		{bantay.ComplianceViolationReported, bantay.ComplianceViolationVerified, true},
		{bantay.ComplianceViolationReported, bantay.ComplianceViolationAppealed, true},
		{bantay.ComplianceViolationReported, bantay.ComplianceViolationResolved, false},
		{bantay.ComplianceViolationReported, bantay.ComplianceViolationDismissed, false},
		{bantay.ComplianceViolationVerified, bantay.ComplianceViolationResolved, true},
		{bantay.ComplianceViolationVerified, bantay.ComplianceViolationDismissed, true},
		{bantay.ComplianceViolationVerified, bantay.ComplianceViolationAppealed, false},
		{bantay.ComplianceViolationAppealed, bantay.ComplianceViolationResolved, true},
		{bantay.ComplianceViolationAppealed, bantay.ComplianceViolationDismissed, true},
		{bantay.ComplianceViolationResolved, bantay.ComplianceViolationDismissed, false},
		{bantay.ComplianceViolationDismissed, bantay.ComplianceViolationVerified, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestCheckStatus_Valid(t *testing.T) {
	assert.True(t, bantay.CheckStatusCompliant.Valid())
	assert.True(t, bantay.CheckStatusNonCompliant.Valid())
	assert.True(t, bantay.CheckStatusWarningIssued.Valid())
	assert.True(t, bantay.CheckStatusFineIssued.Valid())
	assert.False(t, bantay.CheckStatus("passed").Valid())
}

func TestEvidenceKind_Valid(t *testing.T) {
	for _, kind := range []bantay.EvidenceKind{
		bantay.EvidencePhoto,
		bantay.EvidenceVideo,
		bantay.EvidenceLocation,
		bantay.EvidenceWitness,
		bantay.EvidenceDocument,
	} {
		assert.True(t, kind.Valid(), string(kind))
	}
	assert.False(t, bantay.EvidenceKind("audio").Valid())
}

func TestComplianceCheck_HasCoordinates(t *testing.T) {
	lat, lng := 14.5995, 120.9842

	check := &bantay.ComplianceCheck{}
	assert.False(t, check.HasCoordinates())

	check.Latitude = &lat
	assert.False(t, check.HasCoordinates())

	check.Longitude = &lng
	assert.True(t, check.HasCoordinates())
}
