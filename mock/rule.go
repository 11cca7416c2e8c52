package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
)

// Compile-time interface check
var _ bantay.RuleService = (*RuleService)(nil)

// RuleService is a mock implementation of bantay.RuleService.
type RuleService struct {
	FindRuleByIDFn   func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error)
	FindRuleByCodeFn func(ctx context.Context, code string) (*bantay.ViolationRule, error)
	FindRulesFn      func(ctx context.Context, filter bantay.RuleFilter) ([]*bantay.ViolationRule, int, error)
	CreateRuleFn     func(ctx context.Context, rule *bantay.ViolationRule) error
	UpdateRuleFn     func(ctx context.Context, id uuid.UUID, upd bantay.RuleUpdate) (*bantay.ViolationRule, error)
	DeactivateRuleFn func(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error)
	DeleteRuleFn     func(ctx context.Context, id uuid.UUID) error
}

func (s *RuleService) FindRuleByID(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
	if s.FindRuleByIDFn != nil {
		return s.FindRuleByIDFn(ctx, id)
	}
	return nil, bantay.NotFound("Rule not found")
}

func (s *RuleService) FindRuleByCode(ctx context.Context, code string) (*bantay.ViolationRule, error) {
	if s.FindRuleByCodeFn != nil {
		return s.FindRuleByCodeFn(ctx, code)
	}
	return nil, bantay.NotFound("Rule not found")
}

func (s *RuleService) FindRules(ctx context.Context, filter bantay.RuleFilter) ([]*bantay.ViolationRule, int, error) {
	if s.FindRulesFn != nil {
		return s.FindRulesFn(ctx, filter)
	}
	return []*bantay.ViolationRule{}, 0, nil
}

func (s *RuleService) CreateRule(ctx context.Context, rule *bantay.ViolationRule) error {
	if s.CreateRuleFn != nil {
		return s.CreateRuleFn(ctx, rule)
	}
	return nil
}

func (s *RuleService) UpdateRule(ctx context.Context, id uuid.UUID, upd bantay.RuleUpdate) (*bantay.ViolationRule, error) {
	if s.UpdateRuleFn != nil {
		return s.UpdateRuleFn(ctx, id, upd)
	}
	return nil, bantay.NotFound("Rule not found")
}

func (s *RuleService) DeactivateRule(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
	if s.DeactivateRuleFn != nil {
		return s.DeactivateRuleFn(ctx, id)
	}
	return nil, bantay.NotFound("Rule not found")
}

func (s *RuleService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if s.DeleteRuleFn != nil {
		return s.DeleteRuleFn(ctx, id)
	}
	return nil
}
