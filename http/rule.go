package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/kdelacruz/bantay"
	"github.com/labstack/echo/v4"
	"github.com/sethvargo/go-retry"
)

// CreateRuleRequest is the request payload for creating a violation rule.
type CreateRuleRequest struct {
	Name                string   `json:"name" validate:"required,min=3,max=200"`
	Description         string   `json:"description" validate:"omitempty,max=2000"`
	PenaltyType         string   `json:"penalty_type" validate:"required,oneof=fine suspension warning demerit franchise_revocation"`
	PenaltyAmount       float64  `json:"penalty_amount" validate:"gte=0"`
	SuspensionDays      int      `json:"suspension_days" validate:"gte=0"`
	DemeritPoints       int      `json:"demerit_points" validate:"gte=0"`
	EnforcementPriority string   `json:"enforcement_priority" validate:"omitempty,oneof=low medium high critical"`
	ApplicableTo        string   `json:"applicable_to" validate:"required,oneof=driver operator both"`
	Jurisdiction        string   `json:"jurisdiction" validate:"omitempty,max=100"`
	MisuseTypes         []string `json:"misuse_types"`
}

func (s *Server) handleCreateRule(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	officer, err := requireAdmin(c)
	if err != nil {
		return err
	}

	var req CreateRuleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	priority := bantay.EnforcementPriority(req.EnforcementPriority)
	if priority == "" {
		priority = bantay.PriorityMedium
	}

	rule := &bantay.ViolationRule{
		Name:                req.Name,
		Description:         req.Description,
		PenaltyType:         bantay.PenaltyType(req.PenaltyType),
		PenaltyAmount:       req.PenaltyAmount,
		SuspensionDays:      req.SuspensionDays,
		DemeritPoints:       req.DemeritPoints,
		EnforcementPriority: priority,
		ApplicableTo:        bantay.ApplicableTo(req.ApplicableTo),
		Jurisdiction:        req.Jurisdiction,
		MisuseTypes:         req.MisuseTypes,
		Active:              true,
		CreatedBy:           officer.ID,
	}

	// Display codes are random-suffixed; regenerate on collision.
	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		rule.Code = bantay.GenerateCode(bantay.CodePrefixRule, time.Now())
		if err := s.ruleService.CreateRule(ctx, rule); err != nil {
			if bantay.IsErrorCode(err, bantay.ECONFLICT) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log(c).Info("rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("code", rule.Code),
	)

	return RespondCreated(c, rule)
}

func (s *Server) handleListRules(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	offset, limit := pagination(c)
	filter := bantay.RuleFilter{
		Offset: offset,
		Limit:  limit,
	}

	if code := c.QueryParam("code"); code != "" {
		filter.Code = &code
	}
	if jurisdiction := c.QueryParam("jurisdiction"); jurisdiction != "" {
		filter.Jurisdiction = &jurisdiction
	}
	if pt := c.QueryParam("penalty_type"); pt != "" {
		penaltyType := bantay.PenaltyType(pt)
		filter.PenaltyType = &penaltyType
	}
	if at := c.QueryParam("applicable_to"); at != "" {
		applicableTo := bantay.ApplicableTo(at)
		filter.ApplicableTo = &applicableTo
	}
	if active := c.QueryParam("active"); active != "" {
		b := active == "true"
		filter.Active = &b
	}
	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	rules, total, err := s.ruleService.FindRules(ctx, filter)
	if err != nil {
		return err
	}

	return RespondList(c, rules, total, offset, limit)
}

func (s *Server) handleGetRule(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	ruleID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	rule, err := s.ruleService.FindRuleByID(ctx, ruleID)
	if err != nil {
		return err
	}

	return RespondOK(c, rule)
}

// UpdateRuleRequest is the request payload for updating a violation rule.
type UpdateRuleRequest struct {
	Name                *string   `json:"name" validate:"omitempty,min=3,max=200"`
	Description         *string   `json:"description" validate:"omitempty,max=2000"`
	PenaltyType         *string   `json:"penalty_type" validate:"omitempty,oneof=fine suspension warning demerit franchise_revocation"`
	PenaltyAmount       *float64  `json:"penalty_amount" validate:"omitempty,gte=0"`
	SuspensionDays      *int      `json:"suspension_days" validate:"omitempty,gte=0"`
	DemeritPoints       *int      `json:"demerit_points" validate:"omitempty,gte=0"`
	EnforcementPriority *string   `json:"enforcement_priority" validate:"omitempty,oneof=low medium high critical"`
	ApplicableTo        *string   `json:"applicable_to" validate:"omitempty,oneof=driver operator both"`
	Jurisdiction        *string   `json:"jurisdiction" validate:"omitempty,max=100"`
	MisuseTypes         *[]string `json:"misuse_types"`
	Active              *bool     `json:"active"`
}

func (s *Server) handleUpdateRule(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := requireAdmin(c); err != nil {
		return err
	}

	ruleID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateRuleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	upd := bantay.RuleUpdate{
		Name:           req.Name,
		Description:    req.Description,
		PenaltyAmount:  req.PenaltyAmount,
		SuspensionDays: req.SuspensionDays,
		DemeritPoints:  req.DemeritPoints,
		Jurisdiction:   req.Jurisdiction,
		MisuseTypes:    req.MisuseTypes,
		Active:         req.Active,
	}
	if req.PenaltyType != nil {
		pt := bantay.PenaltyType(*req.PenaltyType)
		upd.PenaltyType = &pt
	}
	if req.EnforcementPriority != nil {
		ep := bantay.EnforcementPriority(*req.EnforcementPriority)
		upd.EnforcementPriority = &ep
	}
	if req.ApplicableTo != nil {
		at := bantay.ApplicableTo(*req.ApplicableTo)
		upd.ApplicableTo = &at
	}

	rule, err := s.ruleService.UpdateRule(ctx, ruleID, upd)
	if err != nil {
		return err
	}

	s.log(c).Info("rule updated", slog.String("rule_id", rule.ID.String()))

	return RespondOK(c, rule)
}

func (s *Server) handleDeactivateRule(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := requireAdmin(c); err != nil {
		return err
	}

	ruleID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	rule, err := s.ruleService.DeactivateRule(ctx, ruleID)
	if err != nil {
		return err
	}

	s.log(c).Info("rule deactivated", slog.String("rule_id", rule.ID.String()))

	return RespondOK(c, rule)
}

func (s *Server) handleDeleteRule(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := requireAdmin(c); err != nil {
		return err
	}

	ruleID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.ruleService.DeleteRule(ctx, ruleID); err != nil {
		return err
	}

	s.log(c).Info("rule deleted", slog.String("rule_id", ruleID.String()))

	return RespondNoContent(c)
}
