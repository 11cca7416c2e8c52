package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kdelacruz/bantay"
	gocache "github.com/patrickmn/go-cache"
)

// Compile-time check that CachedRuleService implements bantay.RuleService.
var _ bantay.RuleService = (*CachedRuleService)(nil)

// CachedRuleService wraps a RuleService with an in-memory read cache for
// single-rule lookups. The rule catalog changes rarely while every penalty
// application resolves a rule, so reads dominate. Writes invalidate.
type CachedRuleService struct {
	inner bantay.RuleService
	cache *gocache.Cache
}

// NewCachedRuleService creates a caching decorator around inner.
func NewCachedRuleService(inner bantay.RuleService, ttl time.Duration) *CachedRuleService {
	return &CachedRuleService{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *CachedRuleService) FindRuleByID(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
	if cached, ok := s.cache.Get("id:" + id.String()); ok {
		return cached.(*bantay.ViolationRule), nil
	}
	rule, err := s.inner.FindRuleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(rule)
	return rule, nil
}

func (s *CachedRuleService) FindRuleByCode(ctx context.Context, code string) (*bantay.ViolationRule, error) {
	if cached, ok := s.cache.Get("code:" + code); ok {
		return cached.(*bantay.ViolationRule), nil
	}
	rule, err := s.inner.FindRuleByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.store(rule)
	return rule, nil
}

// FindRules always hits the store; list results are not cached.
func (s *CachedRuleService) FindRules(ctx context.Context, filter bantay.RuleFilter) ([]*bantay.ViolationRule, int, error) {
	return s.inner.FindRules(ctx, filter)
}

func (s *CachedRuleService) CreateRule(ctx context.Context, rule *bantay.ViolationRule) error {
	if err := s.inner.CreateRule(ctx, rule); err != nil {
		return err
	}
	s.store(rule)
	return nil
}

func (s *CachedRuleService) UpdateRule(ctx context.Context, id uuid.UUID, upd bantay.RuleUpdate) (*bantay.ViolationRule, error) {
	rule, err := s.inner.UpdateRule(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.store(rule)
	return rule, nil
}

func (s *CachedRuleService) DeactivateRule(ctx context.Context, id uuid.UUID) (*bantay.ViolationRule, error) {
	rule, err := s.inner.DeactivateRule(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(rule)
	return rule, nil
}

func (s *CachedRuleService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if cached, ok := s.cache.Get("id:" + id.String()); ok {
		rule := cached.(*bantay.ViolationRule)
		s.cache.Delete("code:" + rule.Code)
	}
	s.cache.Delete("id:" + id.String())
	return s.inner.DeleteRule(ctx, id)
}

func (s *CachedRuleService) store(rule *bantay.ViolationRule) {
	s.cache.Set("id:"+rule.ID.String(), rule, gocache.DefaultExpiration)
	s.cache.Set("code:"+rule.Code, rule, gocache.DefaultExpiration)
}
