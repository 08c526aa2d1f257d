package rules

import (
	"context"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConfigRuleProvider serves approval rules parsed once from configuration.
// Condition parse failures are logged at load; the affected rule stays in the
// set with a nil condition and never matches.
type ConfigRuleProvider struct {
	rules []*procurement.ApprovalRule
}

// NewConfigRuleProvider parses the configured rule set
func NewConfigRuleProvider(cfg config.ApprovalConfig, logger *zap.Logger) *ConfigRuleProvider {
	rules := make([]*procurement.ApprovalRule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		id, err := uuid.Parse(rc.ID)
		if err != nil {
			id = uuid.New()
		}

		processType := rc.ProcessType
		if processType == "" {
			processType = procurement.ProcessTypeRequisition
		}

		approvers := make([]procurement.ApproverDefinition, 0, len(rc.Approvers))
		for _, ac := range rc.Approvers {
			approverID, err := uuid.Parse(ac.ID)
			if err != nil {
				logger.Warn("skipping approver with invalid id",
					zap.String("rule", rc.ID),
					zap.String("approver", ac.ID),
					zap.Error(err))
				continue
			}
			approvers = append(approvers, procurement.ApproverDefinition{
				ApproverID: approverID,
				Level:      ac.Level,
				Required:   ac.Required,
			})
		}

		rule, err := procurement.NewApprovalRule(id, processType, rc.Condition, approvers)
		if err != nil {
			logger.Warn("approval rule condition failed to parse, rule will never match",
				zap.String("rule", rc.ID),
				zap.String("condition", rc.Condition),
				zap.Error(err))
		}
		rules = append(rules, rule)
	}
	return &ConfigRuleProvider{rules: rules}
}

// GetApprovalRules returns the configured rules for the given process type
func (p *ConfigRuleProvider) GetApprovalRules(ctx context.Context, processType string) ([]*procurement.ApprovalRule, error) {
	matched := make([]*procurement.ApprovalRule, 0, len(p.rules))
	for _, rule := range p.rules {
		if rule.ProcessType == processType {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}

// Ensure ConfigRuleProvider implements RuleProvider
var _ procurement.RuleProvider = (*ConfigRuleProvider)(nil)
