package bantay_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/stretchr/testify/assert"
)

func TestRecordStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    bantay.RecordStatus
		to      bantay.RecordStatus
		allowed bool
	}{
		{bantay.RecordStatusPending, bantay.RecordStatusVerified, true},
		{bantay.RecordStatusPending, bantay.RecordStatusDismissed, true},
		{bantay.RecordStatusPending, bantay.RecordStatusResolved, false},
		{bantay.RecordStatusVerified, bantay.RecordStatusResolved, true},
		{bantay.RecordStatusVerified, bantay.RecordStatusDismissed, true},
		{bantay.RecordStatusVerified, bantay.RecordStatusPending, false},
		{bantay.RecordStatusResolved, bantay.RecordStatusVerified, false},
		{bantay.RecordStatusResolved, bantay.RecordStatusDismissed, false},
		{bantay.RecordStatusDismissed, bantay.RecordStatusVerified, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestRecordStatus_IsTerminal(t *testing.T) {
	assert.False(t, bantay.RecordStatusPending.IsTerminal())
	assert.False(t, bantay.RecordStatusVerified.IsTerminal())
	assert.True(t, bantay.RecordStatusResolved.IsTerminal())
	assert.True(t, bantay.RecordStatusDismissed.IsTerminal())
}

func TestViolationRecord_HasActor(t *testing.T) {
	id := uuid.New()

	record := &bantay.ViolationRecord{}
	assert.False(t, record.HasActor())

	record.DriverID = &id
	assert.True(t, record.HasActor())

	record = &bantay.ViolationRecord{OperatorID: &id}
	assert.True(t, record.HasActor())
}
