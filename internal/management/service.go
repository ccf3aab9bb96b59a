package management

import (
	"context"
	"fmt"
	"strings"

	"riskgrade/internal/history"
	"riskgrade/internal/logger"
	"riskgrade/internal/snapshot"
	"riskgrade/pkg/errors"
	"riskgrade/pkg/models"
	"riskgrade/pkg/threshold"
)

type service struct {
	repo       Repository
	versioning VersioningRepository
	notifier   Notifier
	snapshots  snapshot.Store
	history    history.Repository
	logger     logger.Logger
}

type ServiceOption func(*service)

func WithVersioning(repo VersioningRepository) ServiceOption {
	return func(s *service) { s.versioning = repo }
}

func WithConfigEvents(notifier Notifier) ServiceOption {
	return func(s *service) { s.notifier = notifier }
}

func WithSnapshots(store snapshot.Store) ServiceOption {
	return func(s *service) { s.snapshots = store }
}

func WithHistory(repo history.Repository) ServiceOption {
	return func(s *service) { s.history = repo }
}

func NewService(repo Repository, log logger.Logger, opts ...ServiceOption) Service {
	s := &service{
		repo:   repo,
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateThresholdRule(ctx context.Context, req CreateThresholdRuleRequest, changedBy string) (*ThresholdRule, error) {
	rule := &ThresholdRule{
		Environment:   strings.TrimSpace(req.Environment),
		PropertyName:  strings.TrimSpace(req.PropertyName),
		Style:         strings.ToLower(req.Style),
		GreenExpr:     req.GreenExpr,
		YellowExpr:    req.YellowExpr,
		RedExpr:       req.RedExpr,
		RiskDirection: req.RiskDirection,
		LevelNone:     req.LevelNone,
		LevelLow:      req.LevelLow,
		LevelMedium:   req.LevelMedium,
		LevelHigh:     req.LevelHigh,
		Enabled:       true,
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := validateRule(rule); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.recordChange(ctx, rule, models.ActionCreate, changedBy)
	s.logger.InfowCtx(ctx, "threshold rule created",
		"rule_id", rule.ID, "environment", rule.Environment, "property", rule.PropertyName)
	return rule, nil
}

func (s *service) ListThresholdRules(ctx context.Context, environment string, limit, offset int) ([]ThresholdRule, int, error) {
	return s.repo.List(ctx, environment, limit, offset)
}

func (s *service) GetThresholdRule(ctx context.Context, id string) (*ThresholdRule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateThresholdRule(ctx context.Context, id string, req UpdateThresholdRuleRequest, changedBy string) (*ThresholdRule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := *rule

	if req.GreenExpr != nil {
		rule.GreenExpr = *req.GreenExpr
	}
	if req.YellowExpr != nil {
		rule.YellowExpr = *req.YellowExpr
	}
	if req.RedExpr != nil {
		rule.RedExpr = *req.RedExpr
	}
	if req.RiskDirection != nil {
		rule.RiskDirection = *req.RiskDirection
	}
	if req.LevelNone != nil {
		rule.LevelNone = req.LevelNone
	}
	if req.LevelLow != nil {
		rule.LevelLow = req.LevelLow
	}
	if req.LevelMedium != nil {
		rule.LevelMedium = req.LevelMedium
	}
	if req.LevelHigh != nil {
		rule.LevelHigh = req.LevelHigh
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := validateRule(rule); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}

	// Version the rule as it was before the change.
	s.saveVersion(ctx, &prev, changedBy)
	s.auditAndNotify(ctx, rule, models.ActionUpdate, changedBy)
	s.logger.InfowCtx(ctx, "threshold rule updated", "rule_id", rule.ID)
	return rule, nil
}

func (s *service) DeleteThresholdRule(ctx context.Context, id string, changedBy string) error {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.saveVersion(ctx, rule, changedBy)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditAndNotify(ctx, rule, models.ActionDelete, changedBy)
	s.logger.InfowCtx(ctx, "threshold rule deleted", "rule_id", id)
	return nil
}

func (s *service) GetRuleVersions(ctx context.Context, ruleID string, limit int) ([]RuleVersion, error) {
	if s.versioning == nil {
		return nil, errors.ErrServiceUnavailable.WithDetail("message", "rule versioning is not enabled")
	}
	return s.versioning.ListVersions(ctx, ruleID, limit)
}

func (s *service) GetAuditLogs(ctx context.Context, ruleID string, limit, offset int) ([]AuditLog, int, error) {
	if s.versioning == nil {
		return nil, 0, errors.ErrServiceUnavailable.WithDetail("message", "rule versioning is not enabled")
	}
	return s.versioning.ListAuditLogs(ctx, ruleID, limit, offset)
}

// PreviewClassification evaluates a single value against the currently
// enabled rules, without going through the pipeline.
func (s *service) PreviewClassification(ctx context.Context, req ClassifyPreviewRequest) (*ClassifyPreviewResponse, error) {
	rules, err := s.repo.ListEnabled(ctx, req.Environment)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, errors.ErrNotFound.WithDetail("message",
			fmt.Sprintf("no enabled rules for environment %s", req.Environment))
	}

	ruleSet, err := BuildRuleSet(rules)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	if !ruleSet.HasRule(req.Environment, req.PropertyName) {
		return nil, errors.ErrNotFound.WithDetail("message",
			fmt.Sprintf("no rule for property %s in environment %s", req.PropertyName, req.Environment))
	}

	result := threshold.ClassifyDetailed(req.Environment, req.PropertyName, req.Value, ruleSet)
	return &ClassifyPreviewResponse{
		Level:    string(result.Level),
		Color:    result.Level.Color(),
		Warnings: result.Warnings,
	}, nil
}

func (s *service) GetLatestStatus(ctx context.Context, environment string) (*models.RecordEnvelope, error) {
	if s.snapshots == nil {
		return nil, errors.ErrServiceUnavailable.WithDetail("message", "snapshot store is not enabled")
	}
	record, err := s.snapshots.GetLatest(ctx, environment)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.ErrNotFound.WithDetail("message",
			fmt.Sprintf("no classified record for environment %s", environment))
	}
	return record, nil
}

func (s *service) ListEnvironmentStatuses(ctx context.Context) ([]string, error) {
	if s.snapshots == nil {
		return nil, errors.ErrServiceUnavailable.WithDetail("message", "snapshot store is not enabled")
	}
	return s.snapshots.ListEnvironments(ctx)
}

func (s *service) ListHistory(ctx context.Context, environment string, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return nil, errors.ErrServiceUnavailable.WithDetail("message", "classification history is not enabled")
	}
	return s.history.ListRecent(ctx, environment, limit)
}

// BuildRuleSet assembles an evaluator rule set from stored rules. Every
// rule in one environment must share a style; that is enforced at write
// time, so a mix here means the table was edited out of band.
func BuildRuleSet(rules []ThresholdRule) (*threshold.RuleSet, error) {
	envs := make(map[string]threshold.EnvironmentRules)
	for _, rule := range rules {
		env := envs[rule.Environment]
		switch rule.Style {
		case StyleOperator:
			if env.Style == threshold.StyleBanded {
				return nil, fmt.Errorf("environment %s mixes rule styles", rule.Environment)
			}
			env.Style = threshold.StyleOperator
			env.Operator = append(env.Operator, threshold.OperatorRule{
				PropertyName: rule.PropertyName,
				Green:        rule.GreenExpr,
				Yellow:       rule.YellowExpr,
				Red:          rule.RedExpr,
			})
		case StyleBanded:
			if env.Style == threshold.StyleOperator {
				return nil, fmt.Errorf("environment %s mixes rule styles", rule.Environment)
			}
			env.Style = threshold.StyleBanded
			if env.Banded == nil {
				env.Banded = make(map[string]threshold.BandedRule)
			}
			env.Banded[rule.PropertyName] = threshold.BandedRule{
				RiskDirection: rule.RiskDirection,
				Levels: threshold.CutPoints{
					None:   deref(rule.LevelNone),
					Low:    deref(rule.LevelLow),
					Medium: deref(rule.LevelMedium),
					High:   deref(rule.LevelHigh),
				},
			}
		default:
			return nil, fmt.Errorf("unknown rule style %q for rule %s", rule.Style, rule.ID)
		}
		envs[rule.Environment] = env
	}
	return threshold.NewRuleSet(envs), nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (s *service) saveVersion(ctx context.Context, rule *ThresholdRule, changedBy string) {
	if s.versioning == nil {
		return
	}
	version := &RuleVersion{
		RuleID:    rule.ID,
		RuleData:  ruleToJSON(rule),
		ChangedBy: changedBy,
	}
	if err := s.versioning.SaveVersion(ctx, version); err != nil {
		s.logger.WarnwCtx(ctx, "failed to save rule version", "error", err, "rule_id", rule.ID)
	}
}

// recordChange versions a fresh rule and writes the audit trail. Create
// snapshots the rule after insert so version 1 is the initial state.
func (s *service) recordChange(ctx context.Context, rule *ThresholdRule, action, changedBy string) {
	s.saveVersion(ctx, rule, changedBy)
	s.auditAndNotify(ctx, rule, action, changedBy)
}

func (s *service) auditAndNotify(ctx context.Context, rule *ThresholdRule, action, changedBy string) {
	if s.versioning != nil {
		log := &AuditLog{
			RuleID:      rule.ID,
			Action:      action,
			ChangedBy:   changedBy,
			Environment: rule.Environment,
		}
		if err := s.versioning.SaveAuditLog(ctx, log); err != nil {
			s.logger.WarnwCtx(ctx, "failed to save audit log", "error", err, "rule_id", rule.ID)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyRuleChange(ctx, action, rule.ID, rule.Environment, changedBy); err != nil {
			s.logger.WarnwCtx(ctx, "failed to notify rule change", "error", err, "rule_id", rule.ID)
		}
	}
}
