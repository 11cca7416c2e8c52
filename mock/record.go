package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
)

// Compile-time interface check
var _ bantay.RecordService = (*RecordService)(nil)

// RecordService is a mock implementation of bantay.RecordService.
type RecordService struct {
	FindRecordByIDFn     func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRecord, error)
	FindRecordsFn        func(ctx context.Context, filter bantay.RecordFilter) ([]*bantay.ViolationRecord, int, error)
	CreateRecordFn       func(ctx context.Context, record *bantay.ViolationRecord) error
	UpdateRecordStatusFn func(ctx context.Context, id uuid.UUID, status bantay.RecordStatus, resolutionNotes string) (*bantay.ViolationRecord, error)
	CountRecordsByRuleFn func(ctx context.Context, ruleID uuid.UUID) (int, error)
}

func (s *RecordService) FindRecordByID(ctx context.Context, id uuid.UUID) (*bantay.ViolationRecord, error) {
	if s.FindRecordByIDFn != nil {
		return s.FindRecordByIDFn(ctx, id)
	}
	return nil, bantay.NotFound("Violation record not found")
}

func (s *RecordService) FindRecords(ctx context.Context, filter bantay.RecordFilter) ([]*bantay.ViolationRecord, int, error) {
	if s.FindRecordsFn != nil {
		return s.FindRecordsFn(ctx, filter)
	}
	return []*bantay.ViolationRecord{}, 0, nil
}

func (s *RecordService) CreateRecord(ctx context.Context, record *bantay.ViolationRecord) error {
	if s.CreateRecordFn != nil {
		return s.CreateRecordFn(ctx, record)
	}
	return nil
}

func (s *RecordService) UpdateRecordStatus(ctx context.Context, id uuid.UUID, status bantay.RecordStatus, resolutionNotes string) (*bantay.ViolationRecord, error) {
	if s.UpdateRecordStatusFn != nil {
		return s.UpdateRecordStatusFn(ctx, id, status, resolutionNotes)
	}
	return nil, bantay.NotFound("Violation record not found")
}

func (s *RecordService) CountRecordsByRule(ctx context.Context, ruleID uuid.UUID) (int, error) {
	if s.CountRecordsByRuleFn != nil {
		return s.CountRecordsByRuleFn(ctx, ruleID)
	}
	return 0, nil
}
