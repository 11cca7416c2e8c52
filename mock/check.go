package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
)

// Compile-time interface check
var _ bantay.CheckService = (*CheckService)(nil)

// CheckService is a mock implementation of bantay.CheckService.
type CheckService struct {
	FindCheckByIDFn         func(ctx context.Context, id uuid.UUID) (*bantay.ComplianceCheck, error)
	FindChecksFn            func(ctx context.Context, filter bantay.CheckFilter) ([]*bantay.ComplianceCheck, int, error)
	CreateCheckFn           func(ctx context.Context, check *bantay.ComplianceCheck) error
	UpdateCheckFn           func(ctx context.Context, id uuid.UUID, upd bantay.CheckUpdate) (*bantay.ComplianceCheck, error)
	DeleteCheckFn           func(ctx context.Context, id uuid.UUID) error
	FindViolationByIDFn     func(ctx context.Context, id uuid.UUID) (*bantay.ComplianceViolation, error)
	UpdateViolationStatusFn func(ctx context.Context, id uuid.UUID, status bantay.ComplianceViolationStatus, changedBy uuid.UUID, note string) (*bantay.ComplianceViolation, error)
}

func (s *CheckService) FindCheckByID(ctx context.Context, id uuid.UUID) (*bantay.ComplianceCheck, error) {
	if s.FindCheckByIDFn != nil {
		return s.FindCheckByIDFn(ctx, id)
	}
	return nil, bantay.NotFound("Compliance check not found")
}

func (s *CheckService) FindChecks(ctx context.Context, filter bantay.CheckFilter) ([]*bantay.ComplianceCheck, int, error) {
	if s.FindChecksFn != nil {
		return s.FindChecksFn(ctx, filter)
	}
	return []*bantay.ComplianceCheck{}, 0, nil
}

func (s *CheckService) CreateCheck(ctx context.Context, check *bantay.ComplianceCheck) error {
	if s.CreateCheckFn != nil {
		return s.CreateCheckFn(ctx, check)
	}
	return nil
}

func (s *CheckService) UpdateCheck(ctx context.Context, id uuid.UUID, upd bantay.CheckUpdate) (*bantay.ComplianceCheck, error) {
	if s.UpdateCheckFn != nil {
		return s.UpdateCheckFn(ctx, id, upd)
	}
	return nil, bantay.NotFound("Compliance check not found")
}

func (s *CheckService) DeleteCheck(ctx context.Context, id uuid.UUID) error {
	if s.DeleteCheckFn != nil {
		return s.DeleteCheckFn(ctx, id)
	}
	return nil
}

func (s *CheckService) FindViolationByID(ctx context.Context, id uuid.UUID) (*bantay.ComplianceViolation, error) {
	if s.FindViolationByIDFn != nil {
		return s.FindViolationByIDFn(ctx, id)
	}
	return nil, bantay.NotFound("Violation not found")
}

func (s *CheckService) UpdateViolationStatus(ctx context.Context, id uuid.UUID, status bantay.ComplianceViolationStatus, changedBy uuid.UUID, note string) (*bantay.ComplianceViolation, error) {
	if s.UpdateViolationStatusFn != nil {
		return s.UpdateViolationStatusFn(ctx, id, status, changedBy, note)
	}
	return nil, bantay.NotFound("Violation not found")
}
