package bantay_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	"github.com/kdelacruz/bantay/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func officerCtx(officer *bantay.Officer) context.Context {
	return bantay.NewContextWithOfficer(context.Background(), officer)
}

func enforcer() *bantay.Officer {
	return &bantay.Officer{ID: uuid.New(), Name: "R. Santos", Role: bantay.OfficerRoleEnforcer}
}

func admin() *bantay.Officer {
	return &bantay.Officer{ID: uuid.New(), Name: "M. Reyes", Role: bantay.OfficerRoleAdmin}
}

func newWorkflow(checks *mock.CheckService, rules *mock.RuleService, storage *mock.FileStorage) *bantay.ComplianceWorkflow {
	return bantay.NewComplianceWorkflow(checks, rules, storage, testLogger())
}

func knownRule(ruleID uuid.UUID) *mock.RuleService {
	return &mock.RuleService{
		FindRuleByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
			return fineRule(ruleID), nil
		},
	}
}

func ptr(f float64) *float64 { return &f }

func TestRecordCheck_RequiresOfficer(t *testing.T) {
	w := newWorkflow(&mock.CheckService{}, &mock.RuleService{}, &mock.FileStorage{})

	_, err := w.RecordCheck(context.Background(), bantay.CheckInput{Status: bantay.CheckStatusCompliant})
	assert.True(t, bantay.IsErrorCode(err, bantay.EUNAUTHORIZED))
}

func TestRecordCheck_InvalidStatus(t *testing.T) {
	w := newWorkflow(&mock.CheckService{}, &mock.RuleService{}, &mock.FileStorage{})

	_, err := w.RecordCheck(officerCtx(enforcer()), bantay.CheckInput{Status: "unknown"})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestRecordCheck_CoordinatesMustPair(t *testing.T) {
	w := newWorkflow(&mock.CheckService{}, &mock.RuleService{}, &mock.FileStorage{})

	_, err := w.RecordCheck(officerCtx(enforcer()), bantay.CheckInput{
		Status:   bantay.CheckStatusCompliant,
		Latitude: ptr(14.5995),
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestRecordCheck_GPSCreatesLocationEvidence(t *testing.T) {
	ruleID := uuid.New()
	officer := enforcer()

	var created *bantay.ComplianceCheck
	checks := &mock.CheckService{
		CreateCheckFn: func(ctx context.Context, check *bantay.ComplianceCheck) error {
			check.ID = uuid.New()
			created = check
			return nil
		},
	}

	w := newWorkflow(checks, knownRule(ruleID), &mock.FileStorage{})

	check, err := w.RecordCheck(officerCtx(officer), bantay.CheckInput{
		Status:    bantay.CheckStatusNonCompliant,
		Location:  "EDSA corner Aurora Blvd",
		Latitude:  ptr(14.5995),
		Longitude: ptr(120.9842),
		Violation: &bantay.ViolationInput{
			RuleID:     ruleID,
			FineAmount: 500,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.NotNil(t, check.Violation)

	assert.Equal(t, officer.ID, check.OfficerID)
	assert.Equal(t, bantay.ComplianceViolationReported, check.Violation.Status)

	// No file, but GPS data still yields one location evidence row.
	require.Len(t, check.Violation.Evidence, 1)
	ev := check.Violation.Evidence[0]
	assert.Equal(t, bantay.EvidenceLocation, ev.Kind)
	assert.Equal(t, 14.5995, *ev.Latitude)
	assert.Equal(t, 120.9842, *ev.Longitude)
	assert.Equal(t, "EDSA corner Aurora Blvd", ev.LocationLabel)
	assert.Equal(t, officer.ID, ev.CapturedBy)
}

func TestRecordCheck_FileRequiresViolation(t *testing.T) {
	w := newWorkflow(&mock.CheckService{}, &mock.RuleService{}, &mock.FileStorage{})

	_, err := w.RecordCheck(officerCtx(enforcer()), bantay.CheckInput{
		Status: bantay.CheckStatusCompliant,
		EvidenceFile: &bantay.EvidenceFile{
			Filename:    "photo.jpg",
			ContentType: "image/jpeg",
			Size:        1024,
			Content:     strings.NewReader("fake"),
		},
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestRecordCheck_FileSizeAndTypeLimits(t *testing.T) {
	ruleID := uuid.New()
	w := newWorkflow(&mock.CheckService{}, knownRule(ruleID), &mock.FileStorage{})

	violation := &bantay.ViolationInput{RuleID: ruleID}

	_, err := w.RecordCheck(officerCtx(enforcer()), bantay.CheckInput{
		Status:    bantay.CheckStatusFineIssued,
		Violation: violation,
		EvidenceFile: &bantay.EvidenceFile{
			Filename:    "dashcam.mp4",
			ContentType: "video/mp4",
			Size:        bantay.MaxUploadSize + 1,
			Content:     strings.NewReader("fake"),
		},
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))

	_, err = w.RecordCheck(officerCtx(enforcer()), bantay.CheckInput{
		Status:    bantay.CheckStatusFineIssued,
		Violation: violation,
		EvidenceFile: &bantay.EvidenceFile{
			Filename:    "malware.exe",
			ContentType: "application/octet-stream",
			Size:        1024,
			Content:     strings.NewReader("fake"),
		},
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.EINVALID))
}

func TestRecordCheck_UploadsEvidenceFile(t *testing.T) {
	ruleID := uuid.New()
	officer := enforcer()
	storage := &mock.FileStorage{}

	checks := &mock.CheckService{
		CreateCheckFn: func(ctx context.Context, check *bantay.ComplianceCheck) error {
			check.ID = uuid.New()
			return nil
		},
	}

	w := newWorkflow(checks, knownRule(ruleID), storage)

	check, err := w.RecordCheck(officerCtx(officer), bantay.CheckInput{
		Status:    bantay.CheckStatusFineIssued,
		Latitude:  ptr(14.6),
		Longitude: ptr(121.0),
		Violation: &bantay.ViolationInput{
			RuleID:     ruleID,
			FineAmount: 1000,
		},
		EvidenceFile: &bantay.EvidenceFile{
			Filename:    "overload.jpg",
			ContentType: "image/jpeg",
			Size:        2048,
			Content:     strings.NewReader("fake image bytes"),
		},
	})
	require.NoError(t, err)

	require.Len(t, storage.Uploaded, 1)
	assert.True(t, strings.HasPrefix(storage.Uploaded[0], "evidence/"))
	assert.True(t, strings.HasSuffix(storage.Uploaded[0], ".jpg"))

	// File evidence plus the automatic location row.
	require.Len(t, check.Violation.Evidence, 2)
	fileEv := check.Violation.Evidence[0]
	assert.Equal(t, bantay.EvidencePhoto, fileEv.Kind)
	assert.NotEmpty(t, fileEv.Locator)
	assert.Equal(t, bantay.EvidenceLocation, check.Violation.Evidence[1].Kind)
}

func TestRecordCheck_UnknownRule(t *testing.T) {
	w := newWorkflow(&mock.CheckService{}, &mock.RuleService{}, &mock.FileStorage{})

	_, err := w.RecordCheck(officerCtx(enforcer()), bantay.CheckInput{
		Status:    bantay.CheckStatusNonCompliant,
		Violation: &bantay.ViolationInput{RuleID: uuid.New()},
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.ENOTFOUND))
}

func TestUpdateCheck_OnlyOwnerMayEdit(t *testing.T) {
	checkID := uuid.New()
	owner := uuid.New()
	checks := &mock.CheckService{
		FindCheckByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ComplianceCheck, error) {
			return &bantay.ComplianceCheck{ID: checkID, OfficerID: owner}, nil
		},
	}
	w := newWorkflow(checks, &mock.RuleService{}, &mock.FileStorage{})

	_, err := w.UpdateCheck(officerCtx(enforcer()), checkID, bantay.CheckInput{
		Status: bantay.CheckStatusCompliant,
	})
	assert.True(t, bantay.IsErrorCode(err, bantay.EFORBIDDEN))
}

func TestUpdateCheck_AbsentViolationRemovesExisting(t *testing.T) {
	checkID := uuid.New()
	officer := enforcer()

	var captured bantay.CheckUpdate
	checks := &mock.CheckService{
		FindCheckByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ComplianceCheck, error) {
			return &bantay.ComplianceCheck{ID: checkID, OfficerID: officer.ID, CheckedAt: time.Now()}, nil
		},
		UpdateCheckFn: func(ctx context.Context, id uuid.UUID, upd bantay.CheckUpdate) (*bantay.ComplianceCheck, error) {
			captured = upd
			return &bantay.ComplianceCheck{ID: checkID, OfficerID: officer.ID}, nil
		},
	}
	w := newWorkflow(checks, &mock.RuleService{}, &mock.FileStorage{})

	_, err := w.UpdateCheck(officerCtx(officer), checkID, bantay.CheckInput{
		Status: bantay.CheckStatusCompliant,
	})
	require.NoError(t, err)
	assert.True(t, captured.RemoveViolation)
	assert.Nil(t, captured.Violation)
}

func TestDeleteCheck_OnlyOwnerMayDelete(t *testing.T) {
	checkID := uuid.New()
	checks := &mock.CheckService{
		FindCheckByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ComplianceCheck, error) {
			return &bantay.ComplianceCheck{ID: checkID, OfficerID: uuid.New()}, nil
		},
	}
	w := newWorkflow(checks, &mock.RuleService{}, &mock.FileStorage{})

	err := w.DeleteCheck(officerCtx(enforcer()), checkID)
	assert.True(t, bantay.IsErrorCode(err, bantay.EFORBIDDEN))
}

func TestGetCheck_AdminMayViewAny(t *testing.T) {
	checkID := uuid.New()
	checks := &mock.CheckService{
		FindCheckByIDFn: func(ctx context.Context, id uuid.UUID) (*bantay.ComplianceCheck, error) {
			return &bantay.ComplianceCheck{ID: checkID, OfficerID: uuid.New()}, nil
		},
	}
	w := newWorkflow(checks, &mock.RuleService{}, &mock.FileStorage{})

	_, err := w.GetCheck(officerCtx(enforcer()), checkID)
	assert.True(t, bantay.IsErrorCode(err, bantay.EFORBIDDEN))

	check, err := w.GetCheck(officerCtx(admin()), checkID)
	require.NoError(t, err)
	assert.Equal(t, checkID, check.ID)
}

func TestListChecks_NonAdminScopedToOwnChecks(t *testing.T) {
	officer := enforcer()

	var captured bantay.CheckFilter
	checks := &mock.CheckService{
		FindChecksFn: func(ctx context.Context, filter bantay.CheckFilter) ([]*bantay.ComplianceCheck, int, error) {
			captured = filter
			return nil, 0, nil
		},
	}
	w := newWorkflow(checks, &mock.RuleService{}, &mock.FileStorage{})

	other := uuid.New()
	_, _, err := w.ListChecks(officerCtx(officer), bantay.CheckFilter{OfficerID: &other})
	require.NoError(t, err)
	require.NotNil(t, captured.OfficerID)
	assert.Equal(t, officer.ID, *captured.OfficerID)

	_, _, err = w.ListChecks(officerCtx(admin()), bantay.CheckFilter{OfficerID: &other})
	require.NoError(t, err)
	assert.Equal(t, other, *captured.OfficerID)
}

func TestVerifyViolation_RecordsActor(t *testing.T) {
	violationID := uuid.New()
	officer := enforcer()

	var gotStatus bantay.ComplianceViolationStatus
	var gotChangedBy uuid.UUID
	var gotNote string
	checks := &mock.CheckService{
		UpdateViolationStatusFn: func(ctx context.Context, id uuid.UUID, status bantay.ComplianceViolationStatus, changedBy uuid.UUID, note string) (*bantay.ComplianceViolation, error) {
			gotStatus = status
			gotChangedBy = changedBy
			gotNote = note
			return &bantay.ComplianceViolation{ID: id, Status: status}, nil
		},
	}
	w := newWorkflow(checks, &mock.RuleService{}, &mock.FileStorage{})

	violation, err := w.VerifyViolation(officerCtx(officer), violationID, "confirmed on site")
	require.NoError(t, err)

	assert.Equal(t, bantay.ComplianceViolationVerified, gotStatus)
	assert.Equal(t, officer.ID, gotChangedBy)
	assert.Equal(t, "confirmed on site", gotNote)
	assert.Equal(t, bantay.ComplianceViolationVerified, violation.Status)
}
